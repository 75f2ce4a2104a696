package middleware

import (
	"context"
	"net/http"
)

type requestInfoKeyType int

const requestInfoKey requestInfoKeyType = iota

// RequestInfo holds lightweight request metadata exposed to templates.
type RequestInfo struct {
	Path   string
	Query  string
	Method string
	Lang   string
}

// LanguageResolver maps an Accept-Language header onto a supported language.
type LanguageResolver func(acceptLanguage string) string

// RequestInfoMiddleware annotates the context with the current request path and
// the shopper's preferred message language. A "lang" query parameter wins over
// the header.
func RequestInfoMiddleware(resolve LanguageResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info := &RequestInfo{
				Path:   r.URL.Path,
				Query:  r.URL.RawQuery,
				Method: r.Method,
			}
			if resolve != nil {
				accept := r.Header.Get("Accept-Language")
				if lang := r.URL.Query().Get("lang"); lang != "" {
					accept = lang
				}
				info.Lang = resolve(accept)
			}
			ctx := context.WithValue(r.Context(), requestInfoKey, info)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestInfoFromContext returns the request metadata stored by RequestInfoMiddleware.
func RequestInfoFromContext(ctx context.Context) (*RequestInfo, bool) {
	info, ok := ctx.Value(requestInfoKey).(*RequestInfo)
	return info, ok && info != nil
}

// RequestPathFromContext returns the request path or empty string when unavailable.
func RequestPathFromContext(ctx context.Context) string {
	if info, ok := RequestInfoFromContext(ctx); ok {
		return info.Path
	}
	return ""
}

// LanguageFromContext returns the resolved message language, or "en".
func LanguageFromContext(ctx context.Context) string {
	if info, ok := RequestInfoFromContext(ctx); ok && info.Lang != "" {
		return info.Lang
	}
	return "en"
}
