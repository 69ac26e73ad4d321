package engine

import (
	"github.com/gofiber/fiber/v2"

	"trigger-settings/internal/metadata"
)

// UserLocalsKey is the fiber locals key the auth middleware stores the
// *metadata.UserContext under.
const UserLocalsKey = "user"

// CurrentUser returns the authenticated user, or nil.
func CurrentUser(c *fiber.Ctx) *metadata.UserContext {
	user, _ := c.Locals(UserLocalsKey).(*metadata.UserContext)
	return user
}
