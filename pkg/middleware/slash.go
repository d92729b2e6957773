package middleware

import (
	"net/http"
	"strings"
)

// TrimSlash redirects "/documents/" to "/documents", keeping the query.
// GET and HEAD receive 301. Other methods receive 308 so clients resend the
// same method and body.
func TrimSlash() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if path == "/" || !strings.HasSuffix(path, "/") {
				next.ServeHTTP(w, r)
				return
			}

			target := *r.URL
			target.Path = strings.TrimRight(path, "/")
			target.RawPath = ""
			if target.Path == "" {
				target.Path = "/"
			}

			http.Redirect(w, r, target.RequestURI(), canonicalStatus(r.Method))
		})
	}
}

func canonicalStatus(method string) int {
	if method == http.MethodGet || method == http.MethodHead {
		return http.StatusMovedPermanently
	}
	return http.StatusPermanentRedirect
}
