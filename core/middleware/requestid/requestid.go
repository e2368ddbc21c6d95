// Package requestid assigns a unique ID to every incoming request.
package requestid

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Header is the response header carrying the request ID.
const Header = "X-Request-Id"

// Local is the fiber locals key the ID is stored under.
const Local = "request_id"

// New creates a middleware that stores a request ID in locals and echoes it
// in the response headers. An incoming X-Request-Id is preserved.
func New() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(Header)
		if id == "" {
			id = uuid.NewString()
		}
		c.Locals(Local, id)
		c.Set(Header, id)
		return c.Next()
	}
}
