package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"
)

// pgUniqueViolation is the postgres SQLSTATE for unique_violation
const pgUniqueViolation = "23505"

// Users is the bun backed credential store.
type Users interface {
	UserStore
	Delete(ctx context.Context, identifier string) error
}

type users struct {
	repository.Repository[*User]
}

var _ Users = (*users)(nil)

// NewUsersRepository creates a Users store on db. The users table must
// carry the unique constraint on email created by the migration.
func NewUsersRepository(db bun.IDB) Users {
	return &users{
		Repository: repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
			NewRecord: func() *User { return &User{} },
			GetID: func(u *User) uuid.UUID {
				if u == nil {
					return uuid.Nil
				}
				return u.ID
			},
			SetID: func(u *User, id uuid.UUID) {
				if u != nil {
					u.ID = id
				}
			},
			GetIdentifier: func() string {
				return "email"
			},
		}),
	}
}

// FindByIdentifier looks the user up by email only. GetByIdentifier would
// switch to the id column for UUID shaped input, and emails are free form.
func (r *users) FindByIdentifier(ctx context.Context, identifier string) (*User, error) {
	identifier = normalizeIdentifier(identifier)
	if identifier == "" {
		return nil, nil
	}

	record, err := r.Get(ctx, repository.SelectBy("email", "=", identifier))
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user by identifier: %w", err)
	}

	return record, nil
}

func (r *users) Save(ctx context.Context, record *User) (*User, error) {
	if record == nil {
		return nil, NewError(ErrInvalidInput, "user cannot be nil", nil)
	}

	prepareUserDefaults(record)

	saved, err := r.Create(ctx, record)
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, NewError(ErrDuplicateIdentity, "email already registered", err)
		}
		return nil, fmt.Errorf("save user: %w", err)
	}

	return saved, nil
}

func (r *users) Delete(ctx context.Context, identifier string) error {
	err := r.DeleteWhere(ctx, repository.DeleteBy("email", "=", normalizeIdentifier(identifier)))
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// IsUniqueViolation reports whether err comes from a unique constraint,
// for both the postgres and the sqlite drivers.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
