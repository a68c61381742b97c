package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// Auth validates requests against a static API token, accepted either as
// "Authorization: Bearer <token>" or in the X-API-Key header. An empty token
// disables authentication. The health endpoint is always open so load
// balancers can probe without credentials.
func Auth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" || r.URL.Path == "/api/health" {
				next.ServeHTTP(w, r)
				return
			}

			presented := bearerToken(r)
			if presented == "" {
				unauthorized(w, "missing authentication token")
				return
			}
			if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				unauthorized(w, "invalid authentication token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
