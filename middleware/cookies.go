package middleware

import (
	"net/http"
	"time"

	authcore "github.com/Rathodpruthvi45/authcore"
)

// SetTokenCookies writes the access and refresh cookies for a freshly minted
// pair. Both are HTTP-only; names, domain, path, and SameSite mode come from
// the engine's cookie configuration.
func SetTokenCookies(w http.ResponseWriter, cfg authcore.CookieConfig, pair *authcore.TokenPair, accessTTL, refreshTTL time.Duration) {
	http.SetCookie(w, tokenCookie(cfg, cfg.AccessName, pair.AccessToken, accessTTL, true))
	http.SetCookie(w, tokenCookie(cfg, cfg.RefreshName, pair.RefreshToken, refreshTTL, true))
}

// SetCSRFCookie writes the CSRF cookie. It is deliberately NOT HTTP-only:
// the double-submit pattern requires the frontend to read it back and echo
// it in the request header.
func SetCSRFCookie(w http.ResponseWriter, cfg authcore.CookieConfig, value string, ttl time.Duration) {
	http.SetCookie(w, tokenCookie(cfg, cfg.CSRFName, value, ttl, false))
}

// ClearTokenCookies expires all three cookies. Used on logout.
func ClearTokenCookies(w http.ResponseWriter, cfg authcore.CookieConfig) {
	http.SetCookie(w, tokenCookie(cfg, cfg.AccessName, "", -time.Second, true))
	http.SetCookie(w, tokenCookie(cfg, cfg.RefreshName, "", -time.Second, true))
	http.SetCookie(w, tokenCookie(cfg, cfg.CSRFName, "", -time.Second, false))
}

func tokenCookie(cfg authcore.CookieConfig, name, value string, ttl time.Duration, httpOnly bool) *http.Cookie {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Domain:   cfg.Domain,
		Path:     cfg.Path,
		Secure:   cfg.Secure,
		HttpOnly: httpOnly,
		SameSite: sameSiteMode(cfg.SameSite),
	}
	if ttl > 0 {
		cookie.MaxAge = int(ttl / time.Second)
	} else {
		cookie.MaxAge = -1
	}
	return cookie
}

func sameSiteMode(mode string) http.SameSite {
	switch mode {
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteStrictMode
	}
}
