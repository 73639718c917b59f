package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/apicoin/apicoin/internal/auth"
)

const callerLocal = "caller"

// Caller validates the bearer token and stores its subject as the request's caller identity.
func Caller(issuer *auth.Issuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		claims, err := issuer.Verify(strings.TrimSpace(authz[len("Bearer "):]))
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}
		c.Locals(callerLocal, claims.Subject)
		return c.Next()
	}
}

// CallerFrom returns the authenticated caller, or "" when Caller did not run.
func CallerFrom(c *fiber.Ctx) string {
	caller, _ := c.Locals(callerLocal).(string)
	return caller
}

// RequireCaller rejects requests without an authenticated caller.
func RequireCaller(c *fiber.Ctx) (string, error) {
	caller := CallerFrom(c)
	if caller == "" {
		return "", fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	return caller, nil
}
