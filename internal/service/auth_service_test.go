package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
	appErrors "github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/errors"
)

func TestValidateToken(t *testing.T) {
	svc := NewAuthService(zap.NewNop(), AuthConfig{Secret: "secret", Issuer: "platform", TokenTTL: time.Minute})

	token, err := svc.IssueToken(testUser)
	require.NoError(t, err)

	handle, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, testUser, *handle)
}

func TestValidateTokenRejectsOtherSecret(t *testing.T) {
	issuer := NewAuthService(zap.NewNop(), AuthConfig{Secret: "other"})
	token, err := issuer.IssueToken(testUser)
	require.NoError(t, err)

	_, err = NewAuthService(zap.NewNop(), AuthConfig{Secret: "secret"}).ValidateToken(token)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestValidateTokenExpired(t *testing.T) {
	svc := NewAuthService(zap.NewNop(), AuthConfig{Secret: "secret", TokenTTL: time.Minute})
	svc.now = func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }
	token, err := svc.IssueToken(testUser)
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC) }
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestIssueTokenRequiresID(t *testing.T) {
	svc := NewAuthService(zap.NewNop(), AuthConfig{Secret: "secret"})

	_, err := svc.IssueToken(models.UserHandle{Name: "Nobody"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}
