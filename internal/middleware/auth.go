package middleware

import (
	"context"
	"errors"
	"strings"

	"license-key-server/internal/model"
	"license-key-server/internal/service"

	"github.com/gofiber/fiber/v2"
)

const (
	// UserIDLocal and UserLocal are the Fiber locals set by Auth.
	UserIDLocal = "userID"
	UserLocal   = "user"
)

// Authenticator resolves a bearer token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

func Auth(authn Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing bearer token",
			})
		}

		tokenParts := strings.Fields(authHeader)
		if len(tokenParts) != 2 || !strings.EqualFold(tokenParts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid authorization header",
			})
		}

		user, err := authn.Authenticate(c.UserContext(), tokenParts[1])
		if errors.Is(err, service.ErrUnauthorized) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid bearer token",
			})
		}
		if err != nil {
			return err
		}

		c.Locals(UserIDLocal, user.ID)
		c.Locals(UserLocal, user)
		return c.Next()
	}
}

// AdminOnly must run after Auth.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := c.Locals(UserLocal).(*model.User)
		if !ok || !user.IsAdmin() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "administrator role required",
			})
		}
		return c.Next()
	}
}

// CurrentUser returns the user stored by Auth, or nil.
func CurrentUser(c *fiber.Ctx) *model.User {
	user, _ := c.Locals(UserLocal).(*model.User)
	return user
}
