package jwtware

import (
	"github.com/gofiber/fiber/v2"
)

// Request carries what the gate learned about the current request as the
// steps run.
type Request struct {
	Method   string
	Path     string
	Public   bool
	Token    string
	Subject  string
	Identity any
}

// Outcome is the terminal decision for a request.
type Outcome struct {
	Admitted bool
	Identity any
	Reason   error
}

// Admit lets the request through with identity attached. Identity is nil
// on public routes.
func Admit(identity any) *Outcome {
	return &Outcome{Admitted: true, Identity: identity}
}

// Reject stops the request. Reason always matches ErrUnauthenticated.
func Reject(reason error) *Outcome {
	return &Outcome{Reason: rejection(reason)}
}

// Step is one stage of the gate. A nil outcome hands the request to the
// next step; any other outcome ends the pipeline.
type Step func(c *fiber.Ctx, r *Request) *Outcome

// ClassifyRoute admits requests that match the public table without
// looking at credentials.
func ClassifyRoute(public Routes) Step {
	return func(c *fiber.Ctx, r *Request) *Outcome {
		if public.Match(r.Method, r.Path) {
			r.Public = true
			return Admit(nil)
		}
		return nil
	}
}

// ExtractToken reads the bearer token from the first carrier that has one.
func ExtractToken(extractors ...JWTExtractor) Step {
	return func(c *fiber.Ctx, r *Request) *Outcome {
		raw, err := ExtractRawTokenFromContext(c, extractors)
		if err != nil || raw == "" {
			return Reject(ErrJWTMissingOrMalformed)
		}
		r.Token = raw
		return nil
	}
}

// VerifyToken checks the token and records its subject.
func VerifyToken(verifier TokenVerifier) Step {
	return func(c *fiber.Ctx, r *Request) *Outcome {
		subject, err := verifier.Verify(r.Token)
		if err != nil {
			return Reject(err)
		}
		if subject == "" {
			return Reject(ErrIdentityNotFound)
		}
		r.Subject = subject
		return nil
	}
}

// ResolveIdentity looks the subject up and admits the request with the
// resolved identity.
func ResolveIdentity(resolver IdentityResolver, logger Logger) Step {
	if logger == nil {
		logger = nopLogger{}
	}
	return func(c *fiber.Ctx, r *Request) *Outcome {
		identity, err := resolver.ResolveIdentity(c.UserContext(), r.Subject)
		if err != nil {
			logger.Warn("failed to resolve token subject", "error", err)
			return Reject(err)
		}
		if identity == nil {
			return Reject(ErrIdentityNotFound)
		}
		r.Identity = identity
		return Admit(identity)
	}
}
