package middleware

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"commontrust-web/internal/capability"
	"commontrust-web/internal/platform/logger"
	"commontrust-web/internal/ports/auth"
)

const (
	AdminCookieName = "ct_admin"

	AdminLoginPath    = "/admin/login"
	AdminLoginAPIPath = "/api/admin/login"
)

// Códigos en ?err= del login.
const (
	ErrCodeLoginRequired  = "login_required"
	ErrCodeSessionInvalid = "session_invalid"
	ErrCodeNotConfigured  = "not_configured"
)

// SetAdminCookie emite la cookie de sesión. maxAge <= 0 la borra.
func SetAdminCookie(w http.ResponseWriter, value string, maxAge time.Duration) {
	c := &http.Cookie{
		Name:     AdminCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
	if maxAge > 0 {
		c.MaxAge = int(maxAge / time.Second)
	} else {
		// Max-Age=0 en el header
		c.Value = ""
		c.MaxAge = -1
	}
	http.SetCookie(w, c)
}

// ClearAdminCookie reemite la cookie vacía con Max-Age=0.
func ClearAdminCookie(w http.ResponseWriter) {
	SetAdminCookie(w, "", 0)
}

// IsAdminPath: rutas que exigen sesión admin.
func IsAdminPath(p string) bool {
	if p == AdminLoginPath || p == AdminLoginAPIPath {
		return false
	}
	return p == "/admin" || strings.HasPrefix(p, "/admin/") ||
		p == "/api/admin" || strings.HasPrefix(p, "/api/admin/")
}

// RequireAdmin corta los requests a rutas admin sin una sesión válida.
// /api/* => 401 JSON; resto => 303 al login con next y err.
func RequireAdmin(verifier auth.SessionVerifier, log logger.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = logger.Nop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsAdminPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			code := ErrCodeLoginRequired
			if c, err := r.Cookie(AdminCookieName); err == nil && strings.TrimSpace(c.Value) != "" {
				issued, verr := verify(verifier, c.Value)
				if verr == nil {
					ctx := withClaims(r.Context(), auth.Claims{
						IssuedAt:  issued,
						ExpiresAt: issued.Add(verifier.TTL()),
					})
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}

				code = ErrCodeSessionInvalid
				if errors.Is(verr, capability.ErrNotConfigured) {
					code = ErrCodeNotConfigured
				}
				log.Warn("admin session rejected", map[string]any{
					"path":   r.URL.Path,
					"reason": capability.Reason(verr),
					"err":    verr,
				})
			} else if verifier == nil {
				code = ErrCodeNotConfigured
			}

			deny(w, r, code)
		})
	}
}

func verify(v auth.SessionVerifier, token string) (time.Time, error) {
	if v == nil {
		return time.Time{}, capability.ErrNotConfigured
	}
	return v.Verify(token)
}

func deny(w http.ResponseWriter, r *http.Request, code string) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"unauthorized"}` + "\n"))
		return
	}

	q := url.Values{}
	q.Set("next", r.URL.Path)
	q.Set("err", code)
	http.Redirect(w, r, AdminLoginPath+"?"+q.Encode(), http.StatusSeeOther)
}
