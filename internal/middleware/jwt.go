package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
	appErrors "github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/errors"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/logger"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/response"
)

// ContextUserKey is the gin context key storing the user handle.
const ContextUserKey = "currentUser"

// TokenValidator turns a bearer token into the user handle it asserts.
type TokenValidator interface {
	ValidateToken(token string) (*models.UserHandle, error)
}

// JWT protects routes by requiring a valid user handle token.
func JWT(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		token, ok := bearerToken(header)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		user, err := validator.ValidateToken(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		setUser(c, user)
		c.Next()
	}
}

// OptionalJWT attaches the user handle when present but does not block.
func OptionalJWT(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Next()
			return
		}
		if user, err := validator.ValidateToken(token); err == nil {
			setUser(c, user)
		}
		c.Next()
	}
}

func setUser(c *gin.Context, user *models.UserHandle) {
	c.Set(ContextUserKey, user)
	c.Set(logger.UserIDKey, user.ID)
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}
