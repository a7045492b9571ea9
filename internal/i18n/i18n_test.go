package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	loc := NewLocalizer(lang)
	return WithLocalizer(context.Background(), loc)
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	if got := T(ctx, "AppTitle"); got != "Exams" {
		t.Errorf("T(AppTitle) = %q, want 'Exams'", got)
	}
	if got := T(ctx, "PendingExams"); got != "Pending exams" {
		t.Errorf("T(PendingExams) = %q, want 'Pending exams'", got)
	}
}

func TestTranslateSpanish(t *testing.T) {
	ctx := initLang(t, "es")

	if got := T(ctx, "AppTitle"); got != "Exámenes" {
		t.Errorf("T(AppTitle) = %q, want 'Exámenes'", got)
	}
	if got := T(ctx, "Delete"); got != "Eliminar" {
		t.Errorf("T(Delete) = %q, want 'Eliminar'", got)
	}
}

func TestPluralTranslation(t *testing.T) {
	ctx := initLang(t, "es")

	if got := Tp(ctx, "PendingCount", 1); got != "1 examen pendiente" {
		t.Errorf("Tp(PendingCount, 1) = %q", got)
	}
	if got := Tp(ctx, "PendingCount", 4); got != "4 exámenes pendientes" {
		t.Errorf("Tp(PendingCount, 4) = %q", got)
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got := Td(ctx, "BackendError", map[string]any{"Status": 400, "Detail": "assigned to a schedule"})
	want := "The server rejected the request (400): assigned to a schedule"
	if got != want {
		t.Errorf("Td(BackendError) = %q, want %q", got, want)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	if got := T(ctx, "NonExistentKey"); got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}

func TestFallbackWithoutLocalizer(t *testing.T) {
	initLang(t, "es")

	if got := T(context.Background(), "Back"); got != "Volver" {
		t.Errorf("T(Back) without localizer = %q, want default language", got)
	}
}

func TestLanguages(t *testing.T) {
	initLang(t, "es")

	langs := Languages()
	if len(langs) != 2 {
		t.Fatalf("Languages() = %v, want 2 entries", langs)
	}
	if langs[0] != "es" {
		t.Errorf("default language first, got %v", langs)
	}
}

func TestMatch(t *testing.T) {
	initLang(t, "es")

	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"en-US,en;q=0.9", "en"},
		{"es-CO", "es"},
		{"fr-FR, en;q=0.5", "en"},
		{"ja", ""},
		{"not a tag;;", ""},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			if got := Match(tt.header); got != tt.want {
				t.Errorf("Match(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}

func TestMiddleware(t *testing.T) {
	initLang(t, "es")

	var got string
	h := Middleware("es")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = T(r.Context(), "Delete")
	}))

	tests := []struct {
		name   string
		cookie string
		accept string
		want   string
	}{
		{"default", "", "", "Eliminar"},
		{"accept-language", "", "en-GB", "Delete"},
		{"cookie wins", "es", "en", "Eliminar"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.accept != "" {
				req.Header.Set("Accept-Language", tt.accept)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: LangCookie, Value: tt.cookie})
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
