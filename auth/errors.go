package auth

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
)

// ErrInvalidInput is returned for malformed registration payloads
var ErrInvalidInput = errors.New("invalid input")

// ErrDuplicateIdentity is returned when the identifier is already registered
var ErrDuplicateIdentity = errors.New("user already exists")

// ErrInvalidCredentials is returned for unknown identifiers and wrong
// passwords alike. The message must stay the same for both.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrInvalidToken is returned when a token fails to parse, has a bad
// signature, is expired, or carries no subject.
var ErrInvalidToken = errors.New("invalid token")

var kinds = []error{
	ErrInvalidInput,
	ErrDuplicateIdentity,
	ErrInvalidCredentials,
	ErrInvalidToken,
}

// Error decorates one of the error kinds with a diagnostic message and,
// for validation failures, the offending fields. Match it with errors.Is
// against the kind, never against Message.
type Error struct {
	Kind    error
	Message string
	Fields  map[string]string
	Err     error
}

// NewError creates an Error of the given kind.
func NewError(kind error, message string, err error) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Message
}

// Is reports whether target is the error kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the error kind err belongs to, or nil when err is not
// one of the auth kinds.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// FieldsOf returns the validation details attached to err, if any.
func FieldsOf(err error) map[string]string {
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr.Fields
	}
	return nil
}

// NewValidationError wraps ozzo validation errors as ErrInvalidInput with the
// failing fields attached.
func NewValidationError(err error) *Error {
	out := NewError(ErrInvalidInput, "validation failed", err)

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		out.Fields = make(map[string]string, len(verrs))
		for field, ferr := range verrs {
			if ferr != nil {
				out.Fields[field] = ferr.Error()
			}
		}
	}

	return out
}
