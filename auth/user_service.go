package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

// RegisterUserMessage is the registration candidate
type RegisterUserMessage struct {
	Name     string `json:"name" form:"name"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// Validate will run validation rules
func (e RegisterUserMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Name, validation.Length(0, 255)),
		validation.Field(&e.Email,
			validation.Required,
			validation.By(notBlank),
			validation.Length(1, 255),
		),
		validation.Field(&e.Password,
			validation.Required,
			validation.By(notBlank),
		),
	)
}

func notBlank(value any) error {
	if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
}

// UserService registers users and exchanges credentials for access tokens.
// It is the only writer of user records.
type UserService struct {
	store     UserStore
	hasher    PasswordHasher
	tokens    TokenIssuer
	logger    Logger
	dummyHash string
}

// UserServiceOption configures a UserService
type UserServiceOption func(*UserService)

// WithUserServiceLogger sets the logger
func WithUserServiceLogger(logger Logger) UserServiceOption {
	return func(s *UserService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewUserService creates a UserService. It hashes one random password up
// front so failed logins for unknown users cost the same as wrong passwords.
func NewUserService(store UserStore, hasher PasswordHasher, tokens TokenIssuer, opts ...UserServiceOption) *UserService {
	s := &UserService{
		store:  store,
		hasher: hasher,
		tokens: tokens,
		logger: defLogger(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	s.dummyHash = RandomPasswordHash(hasher)

	return s
}

// Register validates the candidate, rejects known identifiers, hashes the
// password and persists the user. The store's unique constraint is the
// authoritative duplicate guard; the lookup only short-circuits the common case.
func (s *UserService) Register(ctx context.Context, msg *RegisterUserMessage) (*User, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("context cancelled during user registration: %w", ctx.Err())
	default:
	}

	if msg == nil {
		return nil, NewError(ErrInvalidInput, "user cannot be nil", nil)
	}

	if err := msg.Validate(); err != nil {
		return nil, NewValidationError(err)
	}

	email := normalizeIdentifier(msg.Email)

	existing, err := s.store.FindByIdentifier(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("register user lookup: %w", err)
	}

	if existing != nil {
		s.logger.Info("registration rejected, identifier taken", "email", email)
		return nil, NewError(ErrDuplicateIdentity, "email already registered", nil)
	}

	hash, err := s.hasher.Hash(msg.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			return nil, err
		}
		return nil, fmt.Errorf("register user hash: %w", err)
	}

	user, err := s.store.Save(ctx, &User{
		Name:         strings.TrimSpace(msg.Name),
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateIdentity) {
			s.logger.Info("registration lost race on unique identifier", "email", email)
			return nil, err
		}
		return nil, fmt.Errorf("register user save: %w", err)
	}

	s.logger.Info("user registered", "user_id", user.ID.String())

	return user, nil
}

// Authenticate checks the credentials and issues an access token. Unknown
// identifiers and wrong passwords both fail with ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, identifier, password string) (AccessToken, error) {
	select {
	case <-ctx.Done():
		return AccessToken{}, fmt.Errorf("context cancelled during authentication: %w", ctx.Err())
	default:
	}

	user, err := s.store.FindByIdentifier(ctx, identifier)
	if err != nil {
		return AccessToken{}, fmt.Errorf("authenticate lookup: %w", err)
	}

	if user == nil {
		s.hasher.Matches(password, s.dummyHash)
		s.logger.Debug("authentication failed", "reason", "unknown identifier")
		return AccessToken{}, ErrInvalidCredentials
	}

	if !s.hasher.Matches(password, user.PasswordHash) {
		s.logger.Debug("authentication failed", "reason", "password mismatch", "user_id", user.ID.String())
		return AccessToken{}, ErrInvalidCredentials
	}

	return s.tokens.Issue(NewIdentityFromUser(user))
}

// FindByIdentifier returns the user registered under identifier, or nil.
func (s *UserService) FindByIdentifier(ctx context.Context, identifier string) (*User, error) {
	return s.store.FindByIdentifier(ctx, identifier)
}

// ResolveIdentity looks up the subject of a verified token for the request
// gate. It returns nil, nil when the user no longer exists.
func (s *UserService) ResolveIdentity(ctx context.Context, identifier string) (any, error) {
	user, err := s.store.FindByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}
	return user, nil
}
