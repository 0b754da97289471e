package handlers

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/username/gestorb3/src/logger"
	"github.com/username/gestorb3/src/utils"
)

const csrfCookieName = "_gestorb3_csrf"

// GetCSRFToken issues a fresh CSRF token, both as a cookie and in the
// response body, for the double-submit check in CSRFMiddleware.
func GetCSRFToken(w http.ResponseWriter, r *http.Request) {
	token := generateRandomToken()

	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
		HttpOnly: true,
		Secure:   false, // behind TLS termination in production
		MaxAge:   3600,
	})
	w.Header().Set("X-CSRF-Token", token)

	utils.SendJSON(w, map[string]string{
		"csrfToken": token,
	})
}

func generateRandomToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		logger.L.Error("Failed to generate random CSRF bytes", "error", err)
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return base64.StdEncoding.EncodeToString(b)
}

// CSRFMiddleware validates state-changing requests by comparing the
// X-CSRF-Token header against the CSRF cookie (double submit).
func CSRFMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Safe methods and the token endpoint itself are exempt.
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			headerToken := r.Header.Get("X-CSRF-Token")
			cookie, err := r.Cookie(csrfCookieName)
			if headerToken != "" && err == nil &&
				subtle.ConstantTimeCompare([]byte(headerToken), []byte(cookie.Value)) == 1 {
				next.ServeHTTP(w, r)
				return
			}

			logger.L.Warn("CSRF validation failed",
				"method", r.Method,
				"path", r.URL.Path,
				"origin", r.Header.Get("Origin"))
			utils.SendJSONError(w, "CSRF token validation failed", http.StatusForbidden)
		})
	}
}
