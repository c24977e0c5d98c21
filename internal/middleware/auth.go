package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/showsync/reccore/internal/config"
	"github.com/showsync/reccore/pkg/models"
)

// Auth requires a Bearer JWT and sets the caller's identity in the gin
// context. Every route under /recommendations needs an authenticated
// principal per spec.md's "userId is taken from the principal, never a
// query parameter" rule.
func Auth(cfg *config.Config, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "MISSING_AUTHORIZATION", "Authorization header is required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			unauthorized(c, "INVALID_AUTHORIZATION_FORMAT", "Authorization header must be in format 'Bearer <token>'")
			return
		}

		claims := &models.JWTClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(cfg.Auth.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			logger.WithError(err).Warn("invalid JWT token")
			unauthorized(c, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_tier", claims.UserTier)
		c.Next()
	}
}

// RequireAdmin gates admin-only operations (§6's generate and analytics
// endpoints); it must run after Auth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, tier, _ := GetUserFromContext(c)
		if tier != "admin" {
			c.JSON(http.StatusForbidden, gin.H{
				"error": gin.H{
					"code":    "ADMIN_REQUIRED",
					"message": "This operation requires an admin principal",
				},
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

func unauthorized(c *gin.Context, code, message string) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{"code": code, "message": message},
	})
	c.Abort()
}

func GetUserFromContext(c *gin.Context) (uuid.UUID, string, bool) {
	rawID, ok := c.Get("user_id")
	if !ok {
		return uuid.UUID{}, "", false
	}
	userID, ok := rawID.(uuid.UUID)
	if !ok {
		return uuid.UUID{}, "", false
	}
	tier, _ := c.Get("user_tier")
	tierStr, _ := tier.(string)
	return userID, tierStr, true
}
