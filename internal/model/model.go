package model

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// DefaultTokenKey is the ambient store key holding the backend credential.
const DefaultTokenKey = "authToken"

// Document is a schema-less JSON object exchanged with the backend.
// Exam records and endpoint responses are passed through without a fixed shape.
type Document map[string]any

// String returns the first non-empty value found under any of keys, formatted as text.
func (d Document) String(keys ...string) string {
	for _, k := range keys {
		v, ok := d[k]
		if !ok || v == nil {
			continue
		}
		var s string
		switch t := v.(type) {
		case string:
			s = t
		case json.Number:
			s = t.String()
		case float64:
			s = strconv.FormatFloat(t, 'f', -1, 64)
		default:
			s = fmt.Sprint(t)
		}
		if s != "" {
			return s
		}
	}
	return ""
}

// Int returns the first value under keys that can be read as an integer.
func (d Document) Int(keys ...string) (int, bool) {
	for _, k := range keys {
		switch t := d[k].(type) {
		case float64:
			return int(t), true
		case int:
			return t, true
		case int64:
			return int(t), true
		case json.Number:
			n, err := t.Int64()
			if err == nil {
				return int(n), true
			}
		case string:
			n, err := strconv.Atoi(t)
			if err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

// Field names used by the exam endpoints of the backend.
const (
	FieldExamID        = "id_examen"
	FieldName          = "nombre"
	FieldDescription   = "descripcion"
	FieldQuestionCount = "cantidad_preguntas"
	FieldTimeLimit     = "tiempo_limite"
	FieldCourseID      = "id_curso"
	FieldProfessorID   = "id_profesor"
)

// Listing records are not normalized by the backend; these are the spellings seen for each column.
var (
	TitleKeys       = []string{FieldName, "NOMBRE", "titulo", "title"}
	DescriptionKeys = []string{FieldDescription, "DESCRIPCION", "description"}
	ExamIDKeys      = []string{FieldExamID, "ID_EXAMEN", "id"}
	ProfessorKeys   = []string{"profesor", "PROFESOR", "nombre_profesor", "author"}
)

// Config holds runtime client parameters set via CLI flags.
type Config struct {
	APIURL        string // Backend base URL (e.g. "http://localhost:8000")
	ListingURL    string // Unsubmitted exams listing endpoint
	TokenKey      string // Ambient store key for the bearer token
	BasePath      string // URL prefix for sub-path deployments (e.g. "/examenes")
	SecureCookies bool   // Set Secure flag on cookies (disable for local dev)
}

type basePathCtxKey struct{}

// ContextWithBasePath stores the base path prefix in context.
func ContextWithBasePath(ctx context.Context, basePath string) context.Context {
	return context.WithValue(ctx, basePathCtxKey{}, basePath)
}

// BasePathFromContext retrieves the base path from context (empty string if not set).
func BasePathFromContext(ctx context.Context) string {
	bp, _ := ctx.Value(basePathCtxKey{}).(string)
	return bp
}

type csrfCtxKey struct{}

// ContextWithCSRFToken stores the CSRF token in context.
func ContextWithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfCtxKey{}, token)
}

// CSRFTokenFromContext retrieves the CSRF token from context.
func CSRFTokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(csrfCtxKey{}).(string)
	return t
}
