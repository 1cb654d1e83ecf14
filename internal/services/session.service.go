package services

import (
	"context"
	"errors"
	"time"
	"tunescore/config"
	"tunescore/internal/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrNotAuthenticated means no valid session accompanied the request
var ErrNotAuthenticated = errors.New("not authenticated")

// Session is the validated identity handed to the rest of the system. The
// identity provider owns credentials and token issuance; this service only
// verifies what it minted.
type Session struct {
	Subject uuid.UUID
	Email   *string
}

type sessionClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

type SessionService struct {
	secret []byte
	log    logger.Logger
}

func NewSessionService(config config.Config) (*SessionService, error) {
	log := logger.New("sessionService")

	if config.SessionSecret == "" {
		return nil, log.Error("session secret is not configured")
	}

	return &SessionService{
		secret: []byte(config.SessionSecret),
		log:    log,
	}, nil
}

// ValidateToken verifies an HS256 session token and extracts the subject and
// email. Any failure collapses to ErrNotAuthenticated; callers have no
// business distinguishing a forged token from an expired one.
func (s *SessionService) ValidateToken(ctx context.Context, tokenString string) (*Session, error) {
	log := logger.NewWithContext(ctx, "sessionService").Function("ValidateToken")

	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !token.Valid {
		log.Debug("token validation failed", "error", err)
		return nil, ErrNotAuthenticated
	}

	subject, err := uuid.Parse(claims.Subject)
	if err != nil {
		log.Debug("token subject is not a UUID", "subject", claims.Subject)
		return nil, ErrNotAuthenticated
	}

	session := &Session{Subject: subject}
	if claims.Email != "" {
		session.Email = &claims.Email
	}

	return session, nil
}

// IssueToken mints a session token. Production tokens come from the identity
// provider; this exists for local development and tests.
func (s *SessionService) IssueToken(subject uuid.UUID, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}
