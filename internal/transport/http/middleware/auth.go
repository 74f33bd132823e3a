package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/arklim/smart-grocery-api/internal/core/domain"
	"github.com/arklim/smart-grocery-api/internal/infra/config"
	"github.com/arklim/smart-grocery-api/internal/usecase"
)

const (
	msgNotAuthenticated   = "Not authenticated"
	msgInvalidCredentials = "Could not validate credentials"

	// TokenSourceCookie reads the session from the HttpOnly cookie.
	TokenSourceCookie = "cookie"
	// TokenSourceBearer reads the session from the Authorization header.
	TokenSourceBearer = "bearer"
)

type errorBody struct {
	Detail string `json:"detail"`
}

// RequireUser authenticates the request and stores the resolved account on
// the Gin context. The token location follows auth.token_source: the session
// cookie by default, or an Authorization bearer header.
func RequireUser(auth *usecase.AuthService, cfg config.AuthSettings) gin.HandlerFunc {
	source := strings.ToLower(strings.TrimSpace(cfg.TokenSource))
	if source == "" {
		source = TokenSourceCookie
	}

	cookieName := cfg.CookieName
	if cookieName == "" {
		cookieName = "access_token"
	}

	return func(c *gin.Context) {
		token := extractToken(c, source, cookieName)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Detail: msgNotAuthenticated})
			return
		}

		user, err := auth.ResolveToken(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Detail: msgInvalidCredentials})
			return
		}

		c.Set(UserKey, user)

		if reqCtx := GetRequestContext(c); reqCtx != nil {
			reqCtx.UserID = user.ID
		}

		c.Next()
	}
}

func extractToken(c *gin.Context, source, cookieName string) string {
	switch source {
	case TokenSourceBearer:
		return bearerToken(c)
	default:
		if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
			return cookie
		}
		// Fall back to the header so API clients work against a
		// cookie-configured deployment.
		return bearerToken(c)
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

// CurrentUser retrieves the authenticated user placed by RequireUser.
func CurrentUser(c *gin.Context) (*domain.User, bool) {
	value, exists := c.Get(UserKey)
	if !exists {
		return nil, false
	}

	user, ok := value.(*domain.User)
	return user, ok
}
