package loginapp

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// DefaultTokenTTL is how long confirmation and reset links stay valid
const DefaultTokenTTL = 600 * time.Second

// EmailClaims is the payload of a confirmation or reset token
type EmailClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies short-lived signed tokens binding an email.
// Tokens are never stored; validity is entirely in the signature and expiry.
type TokenService struct {
	Secret []byte

	// Now is the clock used for issuing and checking expiry. Defaults to time.Now.
	Now func() time.Time

	Logger *zap.Logger
}

func NewTokenService(secret string, logger *zap.Logger) *TokenService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenService{Secret: []byte(secret), Now: time.Now, Logger: logger}
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Create returns a token for email expiring ttl from now. A zero ttl uses DefaultTokenTTL.
func (s *TokenService) Create(email string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	claims := EmailClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(s.now().Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return "", fmt.Errorf("error signing token: %w", err)
	}
	return token, nil
}

// Verify returns the email bound to token. Any failure (bad signature,
// malformed payload, expiry) yields ok == false.
func (s *TokenService) Verify(tokenString string) (email string, ok bool) {
	claims := &EmailClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		s.Logger.Debug("token verification failed", zap.Error(err))
		return "", false
	}
	if !token.Valid || claims.Email == "" {
		return "", false
	}
	return claims.Email, true
}

// EmailFromToken is Verify for callers that propagate errors. Failures are a
// TokenInvalid AuthError wrapping ErrTokenInvalid.
func (s *TokenService) EmailFromToken(token string) (string, error) {
	email, ok := s.Verify(token)
	if !ok {
		return "", NewAuthError(TokenInvalid, msgUserNotFound, "token", ErrTokenInvalid)
	}
	return email, nil
}
