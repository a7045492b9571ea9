package i18n

import "net/http"

// LangCookie overrides Accept-Language when set.
const LangCookie = "lang"

// Middleware injects a localizer into every request context. The language comes from the
// lang cookie, then Accept-Language, then defaultLang.
func Middleware(defaultLang string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var langs []string
			if c, err := r.Cookie(LangCookie); err == nil && c.Value != "" {
				langs = append(langs, c.Value)
			}
			if m := Match(r.Header.Get("Accept-Language")); m != "" {
				langs = append(langs, m)
			}
			langs = append(langs, defaultLang)
			ctx := WithLocalizer(r.Context(), NewLocalizer(langs...))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
