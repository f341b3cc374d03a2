package handlers

import (
	"github.com/gofiber/fiber/v2"

	"supermart/internal/session"
)

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	// Inject user if present
	if u := c.Locals("user"); u != nil {
		data["User"] = u
	}
	st := session.From(c)
	data["Flash"] = st.TakeFlash()
	data["CartUnits"] = st.Cart.Units()

	// Pick up the token the CSRF middleware put into Locals
	tok, _ := c.Locals("CSRFToken").(string)
	if tok == "" {
		// Fallback for pages rendered before the middleware ran.
		tok = c.Cookies("csrf_")
	}
	if tok != "" {
		data["CSRFToken"] = tok
	}
	return c.Render(tmpl, data)
}

// redirect queues a flash message for the next rendered page.
func redirect(c *fiber.Ctx, to, kind, msg string) error {
	if msg != "" {
		session.From(c).AddFlash(kind, msg)
	}
	return c.Redirect(to)
}

func notFound(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": msg})
}
