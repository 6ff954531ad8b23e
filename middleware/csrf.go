package middleware

import (
	"net/http"

	authcore "github.com/Rathodpruthvi45/authcore"
)

// CSRFHeader is the request header carrying the submitted double-submit value.
const CSRFHeader = "X-CSRF-Token"

// CSRF enforces double-submit verification on every state-changing method.
// Safe methods (GET, HEAD, OPTIONS, TRACE) pass through, seeding the
// script-readable CSRF cookie when the client does not have one yet. The
// cookie half comes from the configured CSRF cookie, the submitted half from
// the X-CSRF-Token header; a missing half is a rejection, not a bypass.
func CSRF(engine *authcore.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cfg := engine.Config()

			if safeMethod(r.Method) {
				if _, err := r.Cookie(cfg.Cookies.CSRFName); err != nil {
					if value, err := engine.IssueCSRFToken(); err == nil {
						SetCSRFCookie(w, cfg.Cookies, value, cfg.Tokens.RefreshTTL)
					}
				}
				next.ServeHTTP(w, r)
				return
			}

			var cookieValue string
			if cookie, err := r.Cookie(cfg.Cookies.CSRFName); err == nil {
				cookieValue = cookie.Value
			}

			if err := engine.VerifyCSRFToken(r.Context(), cookieValue, r.Header.Get(CSRFHeader)); err != nil {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func safeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}
