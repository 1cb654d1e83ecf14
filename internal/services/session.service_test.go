package services

import (
	"context"
	"testing"
	"time"
	"tunescore/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessionService(t *testing.T) *SessionService {
	t.Helper()
	service, err := NewSessionService(config.Config{SessionSecret: "test-secret"})
	require.NoError(t, err)
	return service
}

func TestNewSessionServiceRequiresSecret(t *testing.T) {
	_, err := NewSessionService(config.Config{})
	assert.Error(t, err)
}

func TestValidateTokenRoundTrip(t *testing.T) {
	service := newTestSessionService(t)
	subject := uuid.New()

	token, err := service.IssueToken(subject, "listener@example.com", time.Hour)
	require.NoError(t, err)

	session, err := service.ValidateToken(context.Background(), token)
	require.NoError(t, err)

	assert.Equal(t, subject, session.Subject)
	require.NotNil(t, session.Email)
	assert.Equal(t, "listener@example.com", *session.Email)
}

func TestValidateTokenWithoutEmail(t *testing.T) {
	service := newTestSessionService(t)

	token, err := service.IssueToken(uuid.New(), "", time.Hour)
	require.NoError(t, err)

	session, err := service.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Nil(t, session.Email)
}

func TestValidateTokenExpired(t *testing.T) {
	service := newTestSessionService(t)

	token, err := service.IssueToken(uuid.New(), "listener@example.com", -time.Minute)
	require.NoError(t, err)

	_, err = service.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	service := newTestSessionService(t)

	other, err := NewSessionService(config.Config{SessionSecret: "other-secret"})
	require.NoError(t, err)

	token, err := other.IssueToken(uuid.New(), "", time.Hour)
	require.NoError(t, err)

	_, err = service.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestValidateTokenGarbage(t *testing.T) {
	service := newTestSessionService(t)

	_, err := service.ValidateToken(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestValidateTokenRejectsNonUUIDSubject(t *testing.T) {
	service := newTestSessionService(t)

	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "some-legacy-id",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(service.secret)
	require.NoError(t, err)

	_, err = service.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestValidateTokenRejectsUnsignedAlgorithm(t *testing.T) {
	service := newTestSessionService(t)

	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = service.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}
