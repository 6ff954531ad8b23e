package middleware

import "net/http"

// CORS enforces an exact-match origin allowlist for credentialed requests.
// Allowed origins are echoed back (never a wildcard, which the Fetch spec
// forbids alongside credentials); unlisted origins get no CORS headers at
// all, leaving the browser to block the response. Preflights for allowed
// origins are answered here with 204.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" {
				if _, ok := allowed[origin]; ok {
					h := w.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Set("Access-Control-Allow-Credentials", "true")
					h.Add("Vary", "Origin")

					if r.Method == http.MethodOptions {
						h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE")
						h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+CSRFHeader)
						w.WriteHeader(http.StatusNoContent)
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
