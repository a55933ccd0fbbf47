package jwtware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Route is one entry of the public route table. Method empty matches any
// method. Pattern is either an exact path or a prefix ending in "/*",
// which matches the prefix itself and everything below it.
type Route struct {
	Method  string
	Pattern string
}

// Routes is a declarative table of routes that bypass authentication.
type Routes []Route

// PublicRoutes is the default table: user registration, user
// authentication and read access to image retrieval and search.
func PublicRoutes() Routes {
	return Routes{
		{Method: fiber.MethodPost, Pattern: "/v1/users"},
		{Method: fiber.MethodPost, Pattern: "/v1/users/auth"},
		{Method: fiber.MethodGet, Pattern: "/v1/images"},
		{Method: fiber.MethodGet, Pattern: "/v1/images/*"},
		{Method: fiber.MethodHead, Pattern: "/v1/images"},
		{Method: fiber.MethodHead, Pattern: "/v1/images/*"},
	}
}

// Match reports whether method and path hit an entry of the table.
func (rs Routes) Match(method, path string) bool {
	path = normalizePath(path)
	for _, r := range rs {
		if r.matches(method, path) {
			return true
		}
	}
	return false
}

func (r Route) matches(method, path string) bool {
	if r.Method != "" && !strings.EqualFold(r.Method, method) {
		return false
	}

	// paths compare case insensitive, the way fiber routes by default
	if base, ok := strings.CutSuffix(r.Pattern, "/*"); ok {
		base = normalizePath(base)
		if base == "/" || strings.EqualFold(path, base) {
			return true
		}
		return hasPrefixFold(path, base+"/")
	}

	return strings.EqualFold(path, normalizePath(r.Pattern))
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func normalizePath(path string) string {
	if path == "" {
		return "/"
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			return "/"
		}
	}
	return path
}
