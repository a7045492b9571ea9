package handler

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/uniquindio/examenes/internal/api"
	"github.com/uniquindio/examenes/internal/display"
	appI18n "github.com/uniquindio/examenes/internal/i18n"
	"github.com/uniquindio/examenes/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// ExamAPI is the exam facade the UI forwards forms to.
type ExamAPI interface {
	Create(ctx context.Context, exam model.Document) (model.Document, error)
	Update(ctx context.Context, exam model.Document) (model.Document, error)
	Delete(ctx context.Context, id int) (model.Document, error)
}

// ListingAPI lists the exams a student has not presented yet.
type ListingAPI interface {
	ListUnsubmitted(ctx context.Context) ([]model.Document, error)
}

// flash messages that may be passed back through the ?msg= query parameter.
var flashMessages = map[string]bool{
	"ExamCreated": true,
	"ExamUpdated": true,
	"ExamDeleted": true,
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	exams   ExamAPI
	listing ListingAPI
	config  model.Config
	pages   map[string]*template.Template
}

// New creates a new Handler and parses its templates.
func New(exams ExamAPI, listing ListingAPI, cfg model.Config) (*Handler, error) {
	funcs := display.FuncMap()
	funcs["t"] = appI18n.T
	funcs["tp"] = appI18n.Tp

	pages := make(map[string]*template.Template)
	for _, name := range []string{"index", "form"} {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		pages[name] = tmpl
	}
	return &Handler{exams: exams, listing: listing, config: cfg, pages: pages}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	r.Get("/lang/{lang}", h.handleSetLanguage)
	r.Group(func(r chi.Router) {
		r.Use(h.csrfMiddleware)
		r.Get("/", h.handleIndex)
		r.Get("/exams/new", h.handleNewExam)
		r.Get("/exams/{examID}/edit", h.handleEditExam)
		r.Post("/exams", h.handleCreateExam)
		r.Post("/exams/update", h.handleUpdateExam)
		r.Post("/exams/{examID}/delete", h.handleDeleteExam)
	})
}

// BasePathMiddleware stores the configured URL prefix in the request context.
func (h *Handler) BasePathMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := model.ContextWithBasePath(r.Context(), h.config.BasePath)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) path(p string) string {
	return h.config.BasePath + p
}

type pageData struct {
	Ctx       context.Context
	BasePath  string
	CSRFToken string
	Languages []string
	Message   string
	Error     string
	Exams     []model.Document
	Exam      model.Document
	Update    bool
}

func (h *Handler) newPage(r *http.Request) pageData {
	return pageData{
		Ctx:       r.Context(),
		BasePath:  h.config.BasePath,
		CSRFToken: model.CSRFTokenFromContext(r.Context()),
		Languages: appI18n.Languages(),
	}
}

func (h *Handler) render(w http.ResponseWriter, status int, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.pages[name].ExecuteTemplate(w, "layout", data); err != nil {
		slog.Error("render error", "page", name, "error", err)
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// handleSetLanguage remembers the chosen UI language in a cookie and goes back to the list.
func (h *Handler) handleSetLanguage(w http.ResponseWriter, r *http.Request) {
	lang := chi.URLParam(r, "lang")
	if !slices.Contains(appI18n.Languages(), lang) {
		http.Error(w, "unsupported language", http.StatusNotFound)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     appI18n.LangCookie,
		Value:    lang,
		Path:     h.cookiePath(),
		MaxAge:   365 * 24 * 60 * 60,
		Secure:   h.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.path("/"), http.StatusSeeOther)
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := h.newPage(r)
	if msg := r.URL.Query().Get("msg"); flashMessages[msg] {
		data.Message = appI18n.T(r.Context(), msg)
	}

	exams, err := h.listing.ListUnsubmitted(r.Context())
	if err != nil {
		slog.Error("failed to list pending exams", "error", err)
		status, msg := h.backendFailure(r.Context(), err)
		data.Error = msg
		h.render(w, status, "index", data)
		return
	}
	data.Exams = exams
	h.render(w, http.StatusOK, "index", data)
}

func (h *Handler) handleNewExam(w http.ResponseWriter, r *http.Request) {
	data := h.newPage(r)
	data.Exam = model.Document{}
	h.render(w, http.StatusOK, "form", data)
}

func (h *Handler) handleEditExam(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "examID"))
	if err != nil {
		http.Error(w, "invalid exam ID", http.StatusBadRequest)
		return
	}
	data := h.newPage(r)
	data.Exam = model.Document{model.FieldExamID: id}
	data.Update = true
	h.render(w, http.StatusOK, "form", data)
}

func (h *Handler) handleCreateExam(w http.ResponseWriter, r *http.Request) {
	exam, err := examFromForm(r, false)
	if err != nil {
		h.renderFormError(w, r, exam, false, err)
		return
	}
	if _, err := h.exams.Create(r.Context(), exam); err != nil {
		slog.Error("failed to create exam", "error", err)
		h.renderBackendError(w, r, exam, false, err)
		return
	}
	slog.Info("created exam", "name", exam[model.FieldName])
	h.redirectWithMessage(w, r, "ExamCreated")
}

func (h *Handler) handleUpdateExam(w http.ResponseWriter, r *http.Request) {
	exam, err := examFromForm(r, true)
	if err != nil {
		h.renderFormError(w, r, exam, true, err)
		return
	}
	if _, err := h.exams.Update(r.Context(), exam); err != nil {
		slog.Error("failed to update exam", "id", exam[model.FieldExamID], "error", err)
		h.renderBackendError(w, r, exam, true, err)
		return
	}
	slog.Info("updated exam", "id", exam[model.FieldExamID])
	h.redirectWithMessage(w, r, "ExamUpdated")
}

func (h *Handler) handleDeleteExam(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "examID"))
	if err != nil {
		http.Error(w, "invalid exam ID", http.StatusBadRequest)
		return
	}
	if _, err := h.exams.Delete(r.Context(), id); err != nil {
		slog.Error("failed to delete exam", "id", id, "error", err)
		data := h.newPage(r)
		status, msg := h.backendFailure(r.Context(), err)
		data.Error = msg
		h.render(w, status, "index", data)
		return
	}
	slog.Info("deleted exam", "id", id)
	h.redirectWithMessage(w, r, "ExamDeleted")
}

func (h *Handler) redirectWithMessage(w http.ResponseWriter, r *http.Request, msgID string) {
	http.Redirect(w, r, h.path("/?msg="+url.QueryEscape(msgID)), http.StatusSeeOther)
}

func (h *Handler) renderFormError(w http.ResponseWriter, r *http.Request, exam model.Document, update bool, err error) {
	data := h.newPage(r)
	data.Exam = exam
	data.Update = update
	var fe *formError
	if errors.As(err, &fe) {
		data.Error = appI18n.Td(r.Context(), "InvalidForm", map[string]any{"Field": fe.field})
	} else {
		data.Error = err.Error()
	}
	h.render(w, http.StatusBadRequest, "form", data)
}

func (h *Handler) renderBackendError(w http.ResponseWriter, r *http.Request, exam model.Document, update bool, err error) {
	data := h.newPage(r)
	data.Exam = exam
	data.Update = update
	status, msg := h.backendFailure(r.Context(), err)
	data.Error = msg
	h.render(w, status, "form", data)
}

// backendFailure maps a facade error to the status and message shown to the user.
// Backend rejections keep their status; anything else is a bad gateway.
func (h *Handler) backendFailure(ctx context.Context, err error) (int, string) {
	var se *api.StatusError
	if errors.As(err, &se) {
		detail := se.Detail()
		if detail == "" {
			detail = http.StatusText(se.StatusCode)
		}
		return se.StatusCode, appI18n.Td(ctx, "BackendError", map[string]any{
			"Status": se.StatusCode,
			"Detail": detail,
		})
	}
	return http.StatusBadGateway, appI18n.T(ctx, "BackendUnavailable")
}

type formError struct {
	field string
	err   error
}

func (e *formError) Error() string {
	return fmt.Sprintf("field %s: %v", e.field, e.err)
}

func (e *formError) Unwrap() error { return e.err }

// examFromForm builds the exam payload the backend expects from the submitted form.
// The partially filled document is returned alongside any error so the form can be re-rendered.
func examFromForm(r *http.Request, update bool) (model.Document, error) {
	exam := model.Document{}
	if err := r.ParseForm(); err != nil {
		return exam, err
	}

	exam[model.FieldName] = strings.TrimSpace(r.PostFormValue(model.FieldName))
	exam[model.FieldDescription] = strings.TrimSpace(r.PostFormValue(model.FieldDescription))

	intFields := []string{
		model.FieldQuestionCount,
		model.FieldTimeLimit,
		model.FieldCourseID,
		model.FieldProfessorID,
	}
	if update {
		intFields = append([]string{model.FieldExamID}, intFields...)
	}

	var firstErr error
	for _, f := range intFields {
		raw := strings.TrimSpace(r.PostFormValue(f))
		n, err := strconv.Atoi(raw)
		if err != nil {
			exam[f] = raw
			if firstErr == nil {
				firstErr = &formError{field: f, err: err}
			}
			continue
		}
		exam[f] = n
	}
	if firstErr != nil {
		return exam, firstErr
	}
	if exam[model.FieldName] == "" {
		return exam, &formError{field: model.FieldName, err: errors.New("required")}
	}
	return exam, nil
}
