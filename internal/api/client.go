// Package api issues the exam backend calls. Every request goes through an *http.Client whose
// transport attaches the stored credential (see package auth); nothing here builds headers.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/uniquindio/examenes/internal/model"
)

// ListingPath is the default unsubmitted-exams resource, relative to the base URL.
const ListingPath = "/examenes-asignados"

// StatusError is returned for non-2xx responses. The body is kept verbatim.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	if d := e.Detail(); d != "" {
		msg += ": " + d
	}
	return msg
}

// Detail returns the backend's "detail" message if the body carries one.
func (e *StatusError) Detail() string {
	var body struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(e.Body, &body); err != nil || body.Detail == nil {
		return ""
	}
	if s, ok := body.Detail.(string); ok {
		return s
	}
	b, _ := json.Marshal(body.Detail)
	return string(b)
}

// Client holds the endpoints and transport shared by the service facades.
type Client struct {
	baseURL    string
	listingURL string
	http       *http.Client
	logger     *slog.Logger
}

// New creates a client for the backend at baseURL. An empty listingURL means
// baseURL + ListingPath.
func New(baseURL, listingURL string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("api client: base url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("api client: parse base url: %w", err)
	}
	listingURL = strings.TrimSpace(listingURL)
	if listingURL == "" {
		listingURL = baseURL + ListingPath
	} else if _, err := url.ParseRequestURI(listingURL); err != nil {
		return nil, fmt.Errorf("api client: parse listing url: %w", err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    baseURL,
		listingURL: listingURL,
		http:       httpClient,
		logger:     slog.Default().With(slog.String("client", "api")),
	}, nil
}

// BaseURL returns the normalized backend base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// ListingURL returns the unsubmitted-exams endpoint.
func (c *Client) ListingURL() string { return c.listingURL }

// Exams returns the exam facade.
func (c *Client) Exams() *ExamService { return &ExamService{c: c} }

// Students returns the student listing facade.
func (c *Client) Students() *StudentService { return &StudentService{c: c} }

// Session returns the login/logout facade.
func (c *Client) Session() *SessionService { return &SessionService{c: c} }

// do sends body as JSON (when non-nil) and decodes a JSON response into out (when non-nil).
func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	c.logger.Debug("backend call", "method", method, "url", endpoint, "status", resp.StatusCode, "bytes", len(data))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Method: method, URL: endpoint, StatusCode: resp.StatusCode, Body: data}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// ExamService maps exam operations onto the backend's /examen endpoints.
type ExamService struct {
	c *Client
}

// Create posts a new exam. The payload and the response are passed through untouched.
func (s *ExamService) Create(ctx context.Context, exam model.Document) (model.Document, error) {
	var out model.Document
	if err := s.c.do(ctx, http.MethodPost, s.c.baseURL+"/examen/crear", exam, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update replaces an exam. The exam identifier travels inside the payload.
func (s *ExamService) Update(ctx context.Context, exam model.Document) (model.Document, error) {
	var out model.Document
	if err := s.c.do(ctx, http.MethodPut, s.c.baseURL+"/examen/actualizar", exam, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type deleteRequest struct {
	ID int `json:"id"`
}

// Delete removes an exam. The identifier is sent in the request body, not the path.
func (s *ExamService) Delete(ctx context.Context, id int) (model.Document, error) {
	var out model.Document
	if err := s.c.do(ctx, http.MethodDelete, s.c.baseURL+"/examen/eliminar", deleteRequest{ID: id}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// StudentService reads the student-facing exam listing.
type StudentService struct {
	c *Client
}

// ListUnsubmitted returns the exams assigned to the caller that were not presented yet.
func (s *StudentService) ListUnsubmitted(ctx context.Context) ([]model.Document, error) {
	var out []model.Document
	if err := s.c.do(ctx, http.MethodGet, s.c.listingURL, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
