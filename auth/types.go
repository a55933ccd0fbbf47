package auth

import "context"

// Logger is the structured logger used across the auth components.
// Arguments after the message are alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Identity holds the attributes of an authenticated identity that end up
// in an access token.
type Identity interface {
	Identifier() string
	DisplayName() string
}

// UserStore gives the identity service access to persisted users.
// FindByIdentifier returns nil, nil when no user matches.
// Save returns ErrDuplicateIdentity when the store rejects the record
// because of its uniqueness constraint.
type UserStore interface {
	FindByIdentifier(ctx context.Context, identifier string) (*User, error)
	Save(ctx context.Context, user *User) (*User, error)
}

// PasswordHasher produces one-way adaptive hashes and checks passwords
// against them.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Matches(password, hash string) bool
}

// TokenIssuer builds signed access tokens for verified identities.
type TokenIssuer interface {
	Issue(identity Identity) (AccessToken, error)
}

// TokenVerifier checks a compact token and returns its subject.
type TokenVerifier interface {
	Verify(token string) (string, error)
}
