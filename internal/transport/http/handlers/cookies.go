package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/arklim/smart-grocery-api/internal/infra/config"
)

// SetSessionCookie writes the session token as an HttpOnly cookie. Secure is
// forced on when SameSite=None since browsers reject that combination
// otherwise.
func SetSessionCookie(c *gin.Context, cfg config.AuthSettings, token string) {
	http.SetCookie(c.Writer, sessionCookie(cfg, token, int(cfg.CookieMaxAge.Seconds())))
}

// ClearSessionCookie expires the session cookie immediately.
func ClearSessionCookie(c *gin.Context, cfg config.AuthSettings) {
	http.SetCookie(c.Writer, sessionCookie(cfg, "", -1))
}

func sessionCookie(cfg config.AuthSettings, token string, maxAge int) *http.Cookie {
	name := cfg.CookieName
	if name == "" {
		name = "access_token"
	}

	sameSite, secure := cookieSameSite(cfg)

	return &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		Domain:   cfg.CookieDomain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	}
}

func cookieSameSite(cfg config.AuthSettings) (http.SameSite, bool) {
	secure := cfg.CookieSecure

	switch strings.ToLower(strings.TrimSpace(cfg.CookieSameSite)) {
	case "strict":
		return http.SameSiteStrictMode, secure
	case "none":
		return http.SameSiteNoneMode, true
	default:
		return http.SameSiteLaxMode, secure
	}
}
