package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"artfolio/internal/auth"
)

// ArtistIDKey 是 gin 上下文中当前艺术家 ID 的键。
const ArtistIDKey = "artistID"

// AccessTokenValidator 由 *auth.AuthService 实现。
type AccessTokenValidator interface {
	ValidateAccessToken(token string) (*auth.TokenClaims, error)
}

// BearerToken 从 Authorization 头中取出 Bearer 令牌。
func BearerToken(c *gin.Context) string {
	parts := strings.Fields(c.GetHeader("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// AuthMiddleware 校验访问令牌并将 artistID 注入上下文。
func AuthMiddleware(validator AccessTokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawToken := BearerToken(c)
		if rawToken == "" {
			abortUnauthorized(c)
			return
		}

		claims, err := validator.ValidateAccessToken(rawToken)
		if err != nil {
			LoggerFromContext(c).Debug("access token rejected", "error", err)
			abortUnauthorized(c)
			return
		}

		c.Set(ArtistIDKey, claims.ArtistID)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}
