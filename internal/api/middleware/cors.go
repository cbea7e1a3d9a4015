package middleware

import (
	"net/http"
	"strconv"
)

// CORSMiddleware allows browser clients from any origin and answers preflight
// requests directly. maxAgeSeconds is sent as Access-Control-Max-Age.
func CORSMiddleware(maxAgeSeconds int) func(http.Handler) http.Handler {
	maxAge := strconv.Itoa(maxAgeSeconds)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With, Accept, Origin")
			w.Header().Set("Access-Control-Max-Age", maxAge)

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
