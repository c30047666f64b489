package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fitmania/gymdesk/internal/pkg/session"
	"github.com/fitmania/gymdesk/internal/pkg/usercontext"
)

// UserContextMiddleware resolves the session into a UserContext local for
// every request, so controllers never have to touch the session store
// directly.
func UserContextMiddleware(c *fiber.Ctx) error {
	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		// On error: treat as anonymous
		c.Locals("USER_CONTEXT", usercontext.UserContext{IsLoggedIn: false})
		c.Locals(usercontext.KeyFromProtected, false)
		return c.Next()
	}

	userID := sess.Get(usercontext.KeyUserID)
	if userID == nil {
		// Anonymous user - no session data
		c.Locals("USER_CONTEXT", usercontext.UserContext{IsLoggedIn: false})
		c.Locals(usercontext.KeyFromProtected, false)
		return c.Next()
	}

	username := session.GetSessionValue(c, usercontext.KeyUsername)
	gymName := session.GetSessionValue(c, usercontext.KeyGymName)

	userCtx := usercontext.UserContext{
		UserID:     userID.(uint),
		Username:   username,
		GymName:    gymName,
		IsLoggedIn: true,
	}
	c.Locals("USER_CONTEXT", userCtx)
	c.Locals(usercontext.KeyFromProtected, true)

	return c.Next()
}
