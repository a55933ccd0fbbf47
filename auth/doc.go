// Package auth is the authentication core of imagelite: it registers users,
// exchanges credentials for signed access tokens, and verifies those tokens
// on every protected request.
//
// Signing key:
//   - KeyProvider generates one HMAC-SHA256 key per process. Call Key during
//     startup and hand the SigningKey to NewTokenService; it is never
//     persisted and never rotated.
//
// Tokens:
//   - TokenService issues HS256 tokens with sub, name, iat and exp claims and
//     a fixed TokenLifetime. Verify returns the subject or an error matching
//     ErrInvalidToken regardless of why verification failed.
//
// Errors:
//   - Operations return ErrInvalidInput, ErrDuplicateIdentity,
//     ErrInvalidCredentials or ErrInvalidToken, possibly wrapped in *Error.
//     Use errors.Is or KindOf to choose a response, never the message text.
package auth
