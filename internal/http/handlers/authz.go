package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"supermart/internal/domain"
	applog "supermart/internal/log"
	"supermart/internal/services"
	"supermart/internal/session"
)

// AttachUser resolves the session's user id into Locals("user"). Accounts
// deleted since login are logged out and their cart goes back on the shelf.
func AttachUser(auth *services.AuthService, carts *services.CartService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		st := session.From(c)
		if !st.LoggedIn() {
			return c.Next()
		}
		u, err := auth.CurrentUser(c.UserContext(), st.UserID)
		switch {
		case err == nil:
			c.Locals("user", u)
		case errors.Is(err, domain.ErrNotFound):
			applog.Security(c, "session.user.gone", map[string]any{"user_id": st.UserID})
			if err := carts.Abandon(c.UserContext(), &st.Cart); err != nil {
				applog.Error(c, "session.user.gone.restore.fail", err, nil)
			}
			*st = session.State{}
		default:
			return err
		}
		return c.Next()
	}
}

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}

// RequireUser enforces that a user is logged in; otherwise redirect to login.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if currentUser(c) == nil {
			return redirect(c, "/login", session.FlashError, "Please log in to continue")
		}
		return c.Next()
	}
}

func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := currentUser(c)
		if u == nil {
			return redirect(c, "/login", session.FlashError, "Please log in to continue")
		}
		if !u.IsAdmin() {
			applog.Security(c, "access.denied.admin", map[string]any{"user_id": u.ID})
			return redirect(c, "/shopping", session.FlashError, "Access denied")
		}
		return c.Next()
	}
}
