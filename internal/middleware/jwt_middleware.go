package middleware

import (
	"strings"

	"flashdeal/internal/apperr"
	"flashdeal/internal/models"
	"flashdeal/internal/services"

	"github.com/gofiber/fiber/v2"
)

const principalKey = "principal"

// TokenValidator verifies a bearer token.
type TokenValidator interface {
	ValidateToken(token string) (*services.Claims, error)
}

// AuthRequired is a Fiber middleware to check for a valid JWT token. A missing
// or malformed header is 401; a token that fails verification is 400.
func AuthRequired(tokens TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return deny(c, apperr.Unauthorized("Access Denied: No Token Provided!"))
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return deny(c, apperr.Unauthorized("Access Denied: No Token Provided!"))
		}

		claims, err := tokens.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			return deny(c, apperr.InvalidToken("Invalid Token"))
		}

		c.Locals(principalKey, claims.Principal())
		return c.Next()
	}
}

// RequireRoles rejects principals whose role is not listed. It must run after
// AuthRequired.
func RequireRoles(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := PrincipalFrom(c)
		if !ok {
			return deny(c, apperr.Unauthorized("Access Denied: No Token Provided!"))
		}
		for _, role := range roles {
			if p.Role == role {
				return c.Next()
			}
		}
		return deny(c, apperr.Forbidden("Access Denied: No Permissions"))
	}
}

// PrincipalFrom returns the caller stored by AuthRequired.
func PrincipalFrom(c *fiber.Ctx) (services.Principal, bool) {
	p, ok := c.Locals(principalKey).(services.Principal)
	return p, ok
}

func deny(c *fiber.Ctx, err *apperr.Error) error {
	return c.Status(apperr.HTTPStatus(err.Kind)).JSON(fiber.Map{"message": err.Message})
}
