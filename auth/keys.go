package auth

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
)

// SigningKeySize is the size in bytes of generated HMAC-SHA256 keys.
const SigningKeySize = 32

// SigningKey is the symmetric secret used to sign and verify access tokens.
// The zero value is not a usable key.
type SigningKey struct {
	secret []byte
}

// NewSigningKey wraps secret as a SigningKey. The secret is copied and
// must be at least SigningKeySize bytes long.
func NewSigningKey(secret []byte) (SigningKey, error) {
	if len(secret) < SigningKeySize {
		return SigningKey{}, fmt.Errorf("signing key must be at least %d bytes, got %d", SigningKeySize, len(secret))
	}
	return SigningKey{secret: append([]byte(nil), secret...)}, nil
}

// GenerateSigningKey reads a fresh key from r. A nil reader uses crypto/rand.
func GenerateSigningKey(r io.Reader) (SigningKey, error) {
	if r == nil {
		r = rand.Reader
	}

	secret := make([]byte, SigningKeySize)
	if _, err := io.ReadFull(r, secret); err != nil {
		return SigningKey{}, fmt.Errorf("generate signing key: %w", err)
	}

	return SigningKey{secret: secret}, nil
}

// Bytes returns a copy of the key material.
func (k SigningKey) Bytes() []byte {
	return append([]byte(nil), k.secret...)
}

// IsZero reports whether the key holds no material.
func (k SigningKey) IsZero() bool {
	return len(k.secret) == 0
}

func (k SigningKey) String() string {
	return "SigningKey(redacted)"
}

// KeyProvider owns the process signing key. The key is generated once,
// on the first call to Key, and every caller gets the same key.
type KeyProvider struct {
	once   sync.Once
	source io.Reader
	key    SigningKey
	err    error
}

// KeyProviderOption configures a KeyProvider
type KeyProviderOption func(*KeyProvider)

// WithRandSource sets the entropy source used to generate the key.
func WithRandSource(r io.Reader) KeyProviderOption {
	return func(p *KeyProvider) {
		if r != nil {
			p.source = r
		}
	}
}

// NewKeyProvider creates a KeyProvider. Call Key during startup so the key
// exists before the first request is served.
func NewKeyProvider(opts ...KeyProviderOption) *KeyProvider {
	p := &KeyProvider{source: rand.Reader}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Key returns the signing key, generating it on first use.
func (p *KeyProvider) Key() (SigningKey, error) {
	p.once.Do(func() {
		p.key, p.err = GenerateSigningKey(p.source)
	})
	return p.key, p.err
}

// MustKey is like Key but panics if the key could not be generated.
func (p *KeyProvider) MustKey() SigningKey {
	key, err := p.Key()
	if err != nil {
		panic(err)
	}
	return key
}
