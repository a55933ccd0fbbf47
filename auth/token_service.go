package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenLifetime is how long an access token stays valid after issuance.
const TokenLifetime = 60 * time.Minute

// AccessToken is a signed, self describing token handed to clients after
// a successful authentication.
type AccessToken struct {
	Token string `json:"accessToken"`
}

func (t AccessToken) String() string {
	return t.Token
}

// TokenService issues and verifies HS256 access tokens with the process
// signing key.
type TokenService struct {
	signingKey []byte
	now        func() time.Time
	logger     Logger
}

// TokenServiceOption configures a TokenService
type TokenServiceOption func(*TokenService)

// WithTokenClock overrides the clock used for issuance and expiration checks.
func WithTokenClock(now func() time.Time) TokenServiceOption {
	return func(ts *TokenService) {
		if now != nil {
			ts.now = now
		}
	}
}

// WithTokenLogger sets the logger
func WithTokenLogger(logger Logger) TokenServiceOption {
	return func(ts *TokenService) {
		if logger != nil {
			ts.logger = logger
		}
	}
}

// NewTokenService creates a TokenService that signs with key.
func NewTokenService(key SigningKey, opts ...TokenServiceOption) *TokenService {
	ts := &TokenService{
		signingKey: key.Bytes(),
		now:        time.Now,
		logger:     defLogger(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(ts)
		}
	}
	return ts
}

var (
	_ TokenIssuer   = (*TokenService)(nil)
	_ TokenVerifier = (*TokenService)(nil)
)

// Issue creates a token whose subject is the identity identifier, carrying
// the display name and expiring TokenLifetime after now.
func (ts *TokenService) Issue(identity Identity) (AccessToken, error) {
	if identity == nil || strings.TrimSpace(identity.Identifier()) == "" {
		return AccessToken{}, NewError(ErrInvalidInput, "identity identifier is required", nil)
	}

	now := ts.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.Identifier(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenLifetime)),
		},
		Name: identity.DisplayName(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		ts.logger.Error("failed to sign access token", "error", err)
		return AccessToken{}, fmt.Errorf("sign access token: %w", err)
	}

	return AccessToken{Token: signed}, nil
}

// Verify checks the token signature and expiration and returns the
// subject verbatim. Every failure is an ErrInvalidToken.
func (ts *TokenService) Verify(raw string) (string, error) {
	claims, err := ts.Claims(raw)
	if err != nil {
		return "", err
	}
	return claims.Identifier(), nil
}

// Claims verifies the token like Verify and returns the full claim set.
func (ts *TokenService) Claims(raw string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(raw, claims, ts.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ts.now),
	)
	if err != nil {
		ts.logger.Debug("token verification failed", "error", err)
		return nil, NewError(ErrInvalidToken, err.Error(), err)
	}

	if !token.Valid {
		return nil, NewError(ErrInvalidToken, "token is not valid", nil)
	}

	if claims.Identifier() == "" {
		return nil, NewError(ErrInvalidToken, "token has no subject", nil)
	}

	return claims, nil
}

func (ts *TokenService) keyFunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
	}
	return ts.signingKey, nil
}
