package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Roshanbtech/Extractify/internal/shared/auth"
	"github.com/Roshanbtech/Extractify/internal/shared/server/respond"
)

const (
	userIDKey    = "userId"
	userEmailKey = "userEmail"

	// AccessTokenCookie is the cookie the login handler sets and the
	// gate accepts alongside the Authorization header.
	AccessTokenCookie = "accessToken"
)

// Auth resolves the caller's identity from a bearer token or the access
// token cookie and stores it in the request context. It only establishes
// who is calling; per-document ownership stays with the services.
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isPublicPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		token := bearerToken(c)
		if token == "" {
			if cookie, err := c.Cookie(AccessTokenCookie); err == nil {
				token = strings.TrimSpace(cookie)
			}
		}
		if token == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "not authenticated", nil)
			return
		}

		claims, err := auth.VerifyToken(token)
		if err != nil {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "not authenticated", nil)
			return
		}

		c.Set(userIDKey, claims.Subject)
		if claims.Email != "" {
			c.Set(userEmailKey, claims.Email)
		}
		c.Next()
	}
}

func isPublicPath(path string) bool {
	switch path {
	case "/api/v1/health",
		"/api/v1/auth/register",
		"/api/v1/auth/login",
		"/api/v1/auth/logout":
		return true
	}
	return false
}

func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer"))
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}

// UserEmailFromContext fetches the user email set by the auth middleware.
func UserEmailFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userEmailKey)
	if email, ok := val.(string); ok {
		return email
	}
	return ""
}
