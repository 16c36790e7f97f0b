package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
	appErrors "github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/errors"
)

type tokenValidatorStub struct {
	user  *models.UserHandle
	err   error
	token string
}

func (s *tokenValidatorStub) ValidateToken(token string) (*models.UserHandle, error) {
	s.token = token
	return s.user, s.err
}

func newJWTRouter(handler gin.HandlerFunc) (*gin.Engine, *models.UserHandle) {
	gin.SetMode(gin.TestMode)
	var seen models.UserHandle
	router := gin.New()
	router.Use(handler)
	router.GET("/", func(c *gin.Context) {
		if value, ok := c.Get(ContextUserKey); ok {
			seen = *value.(*models.UserHandle)
		}
		c.Status(http.StatusNoContent)
	})
	return router, &seen
}

func TestJWTAttachesUserHandle(t *testing.T) {
	validator := &tokenValidatorStub{user: &models.UserHandle{ID: "auditor-1", Name: "Alex"}}
	router, seen := newJWTRouter(JWT(validator))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc.def")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusNoContent, recorder.Code)
	assert.Equal(t, "abc.def", validator.token)
	assert.Equal(t, "auditor-1", seen.ID)
}

func TestJWTRejectsMissingAndMalformedHeaders(t *testing.T) {
	router, _ := newJWTRouter(JWT(&tokenValidatorStub{}))

	for _, header := range []string{"", "Basic abc", "Bearer "} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code, header)
	}
}

func TestJWTPropagatesValidatorError(t *testing.T) {
	router, _ := newJWTRouter(JWT(&tokenValidatorStub{err: appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer expired")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestOptionalJWTPassesThrough(t *testing.T) {
	router, seen := newJWTRouter(OptionalJWT(&tokenValidatorStub{err: appErrors.ErrUnauthorized}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bad")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusNoContent, recorder.Code)
	assert.Empty(t, seen.ID)
}
