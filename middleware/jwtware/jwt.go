package jwtware

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
)

var (
	defaultTokenLookup = "header:" + fiber.HeaderAuthorization

	// ErrJWTMissingOrMalformed is the reason when no token could be read
	// from the configured carriers.
	ErrJWTMissingOrMalformed = errors.New("missing or malformed JWT")
	// ErrUnauthenticated is the single rejection kind of the gate. Every
	// rejection reason wraps it.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrIdentityNotFound is the reason when a valid token names a subject
	// that no longer resolves.
	ErrIdentityNotFound = errors.New("identity not found")
)

// gateLocalsKey marks a request as already processed by a gate.
const gateLocalsKey = "jwtware.gate"

// TokenVerifier checks a compact token and returns its subject.
// This mirrors the TokenService.Verify method from the auth package
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// IdentityResolver looks up the subject of a verified token. It returns
// nil, nil when the subject does not resolve.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, identifier string) (any, error)
}

// Logger mirrors the auth package logger
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type Config struct {
	// PublicRoutes bypass authentication. Nil uses PublicRoutes().
	PublicRoutes Routes
	// TokenVerifier is required
	TokenVerifier TokenVerifier
	// IdentityResolver is required
	IdentityResolver IdentityResolver

	SuccessHandler fiber.Handler
	ErrorHandler   fiber.ErrorHandler
	ContextKey     string
	TokenLookup    string
	AuthScheme     string

	// ContextEnricher is an optional function to propagate the admitted
	// identity to the request user context.
	ContextEnricher func(ctx context.Context, identity any) context.Context

	Logger Logger

	// Steps overrides the default step list built from the fields above.
	Steps []Step
}

// New creates the authentication gate. For each request it runs the
// configured steps in order until one produces an outcome, then either
// admits the request, storing the identity under ContextKey, or hands the
// rejection reason to ErrorHandler.
func New(config ...Config) fiber.Handler {
	cfg := GetDefaultConfig(config...)

	return func(c *fiber.Ctx) error {
		if c.Locals(gateLocalsKey) != nil {
			return c.Next()
		}
		c.Locals(gateLocalsKey, true)

		req := &Request{
			Method: c.Method(),
			Path:   c.Path(),
		}

		outcome := cfg.run(c, req)
		if !outcome.Admitted {
			cfg.Logger.Debug("request rejected",
				"method", req.Method,
				"path", req.Path,
				"reason", outcome.Reason,
			)
			return cfg.ErrorHandler(c, outcome.Reason)
		}

		if outcome.Identity != nil {
			c.Locals(cfg.ContextKey, outcome.Identity)
			if cfg.ContextEnricher != nil {
				c.SetUserContext(cfg.ContextEnricher(c.UserContext(), outcome.Identity))
			}
		}

		return cfg.SuccessHandler(c)
	}
}

func (cfg *Config) run(c *fiber.Ctx, req *Request) *Outcome {
	for _, step := range cfg.Steps {
		if step == nil {
			continue
		}
		if outcome := step(c, req); outcome != nil {
			return outcome
		}
	}

	if req.Public || req.Identity != nil {
		return Admit(req.Identity)
	}

	return Reject(ErrUnauthenticated)
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.TokenVerifier == nil {
		panic("AUTH: JWT middleware configuration: TokenVerifier is required.")
	}

	if cfg.IdentityResolver == nil {
		panic("AUTH: JWT middleware configuration: IdentityResolver is required.")
	}

	if cfg.PublicRoutes == nil {
		cfg.PublicRoutes = PublicRoutes()
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "user"
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	if cfg.Logger == nil {
		cfg.Logger = nopLogger{}
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		scheme := cfg.AuthScheme
		cfg.ErrorHandler = func(c *fiber.Ctx, err error) error {
			c.Set(fiber.HeaderWWWAuthenticate, scheme)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthorized",
			})
		}
	}

	if len(cfg.Steps) == 0 {
		cfg.Steps = DefaultSteps(cfg)
	}

	return cfg
}

// DefaultSteps returns the gate pipeline: classify the route, extract the
// token, verify it and resolve its subject.
func DefaultSteps(cfg Config) []Step {
	return []Step{
		ClassifyRoute(cfg.PublicRoutes),
		ExtractToken(cfg.getExtractors()...),
		VerifyToken(cfg.TokenVerifier),
		ResolveIdentity(cfg.IdentityResolver, cfg.Logger),
	}
}

func (cfg *Config) getExtractors() []JWTExtractor {
	return GetExtractors(cfg.TokenLookup, cfg.AuthScheme)
}

func ExtractRawTokenFromContext(c *fiber.Ctx, extractors []JWTExtractor) (string, error) {
	var raw string
	err := ErrJWTMissingOrMalformed

	for _, extractor := range extractors {
		raw, err = extractor(c)
		if raw != "" && err == nil {
			break
		}
	}

	return raw, err
}

func GetExtractors(tokenLookup string, authSchemes ...string) []JWTExtractor {
	extractors := make([]JWTExtractor, 0)

	authScheme := "Bearer"
	if len(authSchemes) > 0 && strings.TrimSpace(authSchemes[0]) != "" {
		authScheme = strings.TrimSpace(authSchemes[0])
	}

	// header:Authorization,cookie:jwt,query:auth_token,param:token
	rootParts := strings.Split(tokenLookup, ",")
	for _, rootPart := range rootParts {
		//header:Authorization
		parts := strings.Split(strings.TrimSpace(rootPart), ":")
		if len(parts) != 2 {
			continue
		}

		for i, el := range parts {
			parts[i] = strings.TrimSpace(el)
		}

		switch parts[0] {
		case "header":
			extractors = append(extractors, jwtFromHeader(parts[1], authScheme))
		case "query":
			extractors = append(extractors, jwtFromQuery(parts[1]))
		case "param":
			extractors = append(extractors, jwtFromParam(parts[1]))
		case "cookie":
			extractors = append(extractors, jwtFromCookie(parts[1]))
		}
	}

	return extractors
}

type JWTExtractor func(c *fiber.Ctx) (string, error)

// jwtFromHeader returns a function that extracts token from the request header.
// The value must be the auth scheme, one space, then the token.
func jwtFromHeader(header string, authScheme string) JWTExtractor {
	return func(c *fiber.Ctx) (string, error) {
		a := c.Get(header)
		l := len(authScheme)
		if len(a) > l+1 && strings.EqualFold(a[:l], authScheme) && a[l] == ' ' {
			if token := strings.TrimSpace(a[l+1:]); token != "" {
				return token, nil
			}
		}
		return "", ErrJWTMissingOrMalformed
	}
}

// jwtFromQuery returns a function that extracts token from the query string.
func jwtFromQuery(param string) JWTExtractor {
	return func(c *fiber.Ctx) (string, error) {
		token := c.Query(param)
		if token == "" {
			return "", ErrJWTMissingOrMalformed
		}
		return token, nil
	}
}

// jwtFromParam returns a function that extracts token from the url param string.
func jwtFromParam(param string) JWTExtractor {
	return func(c *fiber.Ctx) (string, error) {
		token := c.Params(param)
		if token == "" {
			return "", ErrJWTMissingOrMalformed
		}
		return token, nil
	}
}

// jwtFromCookie returns a function that extracts token from the named cookie.
func jwtFromCookie(name string) JWTExtractor {
	return func(c *fiber.Ctx) (string, error) {
		token := c.Cookies(name)
		if token == "" {
			return "", ErrJWTMissingOrMalformed
		}
		return token, nil
	}
}

// rejection wraps the diagnostic cause under ErrUnauthenticated
func rejection(cause error) error {
	if cause == nil || errors.Is(cause, ErrUnauthenticated) {
		return ErrUnauthenticated
	}
	return fmt.Errorf("%w: %w", ErrUnauthenticated, cause)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
