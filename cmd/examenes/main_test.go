package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	Method string
	Path   string
	Auth   string
	Body   string
}

type fakeBackend struct {
	*httptest.Server
	mu    sync.Mutex
	calls []call
}

func (b *fakeBackend) Calls() []call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]call(nil), b.calls...)
}

// newFakeBackend answers each path with the given JSON body; unknown paths get 404.
func newFakeBackend(t *testing.T, responses map[string]string) *fakeBackend {
	t.Helper()
	b := &fakeBackend{}
	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		b.mu.Lock()
		b.calls = append(b.calls, call{
			Method: r.Method,
			Path:   r.URL.Path,
			Auth:   r.Header.Get("Authorization"),
			Body:   strings.TrimSpace(string(data)),
		})
		b.mu.Unlock()

		resp, ok := responses[r.URL.Path]
		if !ok {
			http.Error(w, `{"detail":"Not Found"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(resp))
	}))
	t.Cleanup(b.Close)
	return b
}

// run executes the CLI with a private store and backend and returns stdout.
func run(t *testing.T, storePath, apiURL string, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append(args, "--store", storePath, "--api-url", apiURL, "--lang", "en", "--log-level", "error"))
	err := cmd.Execute()
	return out.String(), err
}

func tempStore(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "examenes.db")
}

func TestTokenLifecycle(t *testing.T) {
	st := tempStore(t)
	backend := newFakeBackend(t, nil)

	_, err := run(t, st, backend.URL, "", "token", "show")
	require.Error(t, err)

	_, err = run(t, st, backend.URL, "", "token", "set", "abc123")
	require.NoError(t, err)

	out, err := run(t, st, backend.URL, "", "token", "show")
	require.NoError(t, err)
	assert.Equal(t, "abc123\n", out)

	out, err = run(t, st, backend.URL, "", "token", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Token removed.")

	_, err = run(t, st, backend.URL, "", "token", "show")
	assert.Error(t, err)
}

func TestTokenShowClaims(t *testing.T) {
	st := tempStore(t)
	backend := newFakeBackend(t, nil)

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":      1094,
		"is_professor": true,
		"exp":          time.Now().Add(3*time.Hour + 30*time.Minute).Unix(),
	}).SignedString([]byte("backend-secret"))
	require.NoError(t, err)

	_, err = run(t, st, backend.URL, "", "token", "set", tok)
	require.NoError(t, err)

	out, err := run(t, st, backend.URL, "", "token", "show", "--claims")
	require.NoError(t, err)
	assert.Contains(t, out, `"user_id": 1094`)
	assert.Contains(t, out, `"is_professor": true`)
	assert.Regexp(t, `Stored (now|\d+ seconds? ago)\.`, out)
	assert.Contains(t, out, "Expires 3 hours from now.")

	_, err = run(t, st, backend.URL, "", "token", "set", "not-a-jwt")
	require.NoError(t, err)
	_, err = run(t, st, backend.URL, "", "token", "show", "--claims")
	assert.Error(t, err)
}

func TestTokenList(t *testing.T) {
	st := tempStore(t)
	backend := newFakeBackend(t, nil)

	out, err := run(t, st, backend.URL, "", "token", "list")
	require.NoError(t, err)
	assert.Equal(t, "Nothing stored.\n", out)

	_, err = run(t, st, backend.URL, "", "token", "set", "abc123")
	require.NoError(t, err)
	_, err = run(t, st, backend.URL, "", "token", "set", "other", "--token-key", "refreshToken")
	require.NoError(t, err)

	out, err = run(t, st, backend.URL, "", "token", "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"Key", "Stored"}, strings.Fields(lines[0]))
	assert.Equal(t, "authToken", strings.Fields(lines[1])[0])
	assert.Equal(t, "refreshToken", strings.Fields(lines[2])[0])
	assert.NotContains(t, out, "abc123", "values are never listed")
}

func TestExamDeleteSendsStoredToken(t *testing.T) {
	st := tempStore(t)
	backend := newFakeBackend(t, map[string]string{"/examen/eliminar": `{"mensaje":"Examen eliminado"}`})

	_, err := run(t, st, backend.URL, "", "token", "set", "abc123")
	require.NoError(t, err)

	out, err := run(t, st, backend.URL, "", "exam", "delete", "42")
	require.NoError(t, err)
	assert.Contains(t, out, "Examen eliminado")

	calls := backend.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, call{
		Method: http.MethodDelete,
		Path:   "/examen/eliminar",
		Auth:   "Bearer abc123",
		Body:   `{"id":42}`,
	}, calls[0])
}

func TestExamDeleteWithoutToken(t *testing.T) {
	backend := newFakeBackend(t, map[string]string{"/examen/eliminar": `{}`})

	_, err := run(t, tempStore(t), backend.URL, "", "exam", "delete", "1")
	require.NoError(t, err)

	calls := backend.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Bearer null", calls[0].Auth)
}

func TestExamDeleteInvalidID(t *testing.T) {
	backend := newFakeBackend(t, nil)

	_, err := run(t, tempStore(t), backend.URL, "", "exam", "delete", "abc")
	require.Error(t, err)
	assert.Empty(t, backend.Calls())
}

func TestExamCreateFromFile(t *testing.T) {
	backend := newFakeBackend(t, map[string]string{"/examen/crear": `{"id_examen":12}`})

	path := filepath.Join(t.TempDir(), "exam.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"nombre":"Parcial","cantidad_preguntas":10,"tiempo_limite":60}`), 0o600))

	out, err := run(t, tempStore(t), backend.URL, "", "exam", "create", "--file", path, "--token", "tok")
	require.NoError(t, err)

	var resp map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, float64(12), resp["id_examen"])

	calls := backend.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodPost, calls[0].Method)
	assert.Equal(t, "/examen/crear", calls[0].Path)
	assert.Equal(t, "Bearer tok", calls[0].Auth)
	assert.JSONEq(t, `{"nombre":"Parcial","cantidad_preguntas":10,"tiempo_limite":60}`, calls[0].Body)
}

func TestExamUpdateFromStdin(t *testing.T) {
	backend := newFakeBackend(t, map[string]string{"/examen/actualizar": `{"filas_afectadas":1}`})

	_, err := run(t, tempStore(t), backend.URL, `{"id_examen":3,"nombre":"Final"}`, "exam", "update")
	require.NoError(t, err)

	calls := backend.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodPut, calls[0].Method)
	assert.Equal(t, "/examen/actualizar", calls[0].Path)
	assert.JSONEq(t, `{"id_examen":3,"nombre":"Final"}`, calls[0].Body)
}

func TestExamUpdateRejectsNonObject(t *testing.T) {
	backend := newFakeBackend(t, nil)

	_, err := run(t, tempStore(t), backend.URL, `null`, "exam", "update")
	require.Error(t, err)
	assert.Empty(t, backend.Calls())
}

func TestExamPendingTable(t *testing.T) {
	backend := newFakeBackend(t, map[string]string{
		"/examenes-asignados": `[{"id_examen":1,"nombre":"This is a very long title","profesor":"Ana"},{"id_examen":2,"nombre":"Hello"}]`,
	})

	out, err := run(t, tempStore(t), backend.URL, "", "exam", "pending")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, []string{"ID", "Name", "Description", "Professor"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"1", "This", "is", "a", "ve...", "Ana"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"2", "Hello"}, strings.Fields(lines[2]))
	assert.Equal(t, "2 pending exams", lines[3])
}

func TestExamPendingEmpty(t *testing.T) {
	backend := newFakeBackend(t, map[string]string{"/examenes-asignados": `[]`})

	out, err := run(t, tempStore(t), backend.URL, "", "exam", "pending")
	require.NoError(t, err)
	assert.Equal(t, "You have no pending exams.\n", out)

	out, err = run(t, tempStore(t), backend.URL, "", "exam", "pending", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, out)
}

func TestExamPendingSeparateListing(t *testing.T) {
	exams := newFakeBackend(t, nil)
	listing := newFakeBackend(t, map[string]string{"/alumno/pendientes": `[{"id_examen":5}]`})

	out, err := run(t, tempStore(t), exams.URL, "", "exam", "pending", "--json",
		"--listing-url", listing.URL+"/alumno/pendientes")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id_examen":5}]`, out)
	assert.Empty(t, exams.Calls())
}

func TestExamPendingBackendError(t *testing.T) {
	backend := newFakeBackend(t, nil)

	_, err := run(t, tempStore(t), backend.URL, "", "exam", "pending")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestLoginLogout(t *testing.T) {
	st := tempStore(t)
	backend := newFakeBackend(t, map[string]string{
		"/login":  `{"token":"tok-9"}`,
		"/logout": `{}`,
	})

	out, err := run(t, st, backend.URL, "", "login", "--id", "1094", "--password", "secret", "--professor")
	require.NoError(t, err)
	assert.Contains(t, out, "authToken")

	out, err = run(t, st, backend.URL, "", "token", "show")
	require.NoError(t, err)
	assert.Equal(t, "tok-9\n", out)

	_, err = run(t, st, backend.URL, "", "logout")
	require.NoError(t, err)

	_, err = run(t, st, backend.URL, "", "token", "show")
	assert.Error(t, err)

	calls := backend.Calls()
	require.Len(t, calls, 2)
	assert.JSONEq(t, `{"id":1094,"password":"secret","is_professor":1}`, calls[0].Body)
	assert.Equal(t, "Bearer null", calls[0].Auth)
	assert.Equal(t, "/logout", calls[1].Path)
	assert.Equal(t, "Bearer tok-9", calls[1].Auth)
}

func TestLoginPasswordFromStdin(t *testing.T) {
	backend := newFakeBackend(t, map[string]string{"/login": `{"token":"tok-1"}`})

	_, err := run(t, tempStore(t), backend.URL, "hunter2\n", "login", "--id", "7")
	require.NoError(t, err)

	calls := backend.Calls()
	require.Len(t, calls, 1)
	assert.JSONEq(t, `{"id":7,"password":"hunter2","is_professor":0}`, calls[0].Body)
}

func TestNormalizeBasePath(t *testing.T) {
	tests := map[string]string{
		"":           "",
		"/":          "",
		"examenes":   "/examenes",
		"/examenes/": "/examenes",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeBasePath(in), "input %q", in)
	}
}
