package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"supermart/internal/domain"
	"supermart/internal/log"
	"supermart/internal/repos"
	"supermart/internal/services"
	"supermart/internal/session"
	"supermart/internal/validate"
)

type AuthHandler struct {
	Auth     *services.AuthService
	Carts    *services.CartService
	Sessions session.Store
}

func (h *AuthHandler) RegisterForm(c *fiber.Ctx) error {
	return render(c, "register", nil)
}

// POST /register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	username, okName := validate.Username(c.FormValue("username"))
	email, okEmail := validate.Email(c.FormValue("email"))
	pass := c.FormValue("password")
	switch {
	case !okName:
		return redirect(c, "/register", session.FlashError, "Username must be 2-30 letters, digits or spaces")
	case !okEmail:
		return redirect(c, "/register", session.FlashError, "Please enter a valid email")
	case !validate.Password(pass):
		return redirect(c, "/register", session.FlashError,
			"Password must be 8-20 characters with upper and lower case letters, a digit and a symbol")
	}
	_, err := h.Auth.Register(c.UserContext(), services.Registration{
		Username: username,
		Email:    email,
		Password: pass,
		Address:  validate.Text(c.FormValue("address"), 200),
		Contact:  validate.Text(c.FormValue("contact"), 30),
	})
	if errors.Is(err, repos.ErrEmailTaken) {
		log.Security(c, "auth.register.duplicate", map[string]any{"email": email})
		return redirect(c, "/register", session.FlashError, "That email is already registered")
	}
	if err != nil {
		log.Error(c, "auth.register.fail", err, map[string]any{"email": email})
		return redirect(c, "/register", session.FlashError, "Could not create your account")
	}
	log.Audit(c, "auth.register", map[string]any{"email": email})
	return redirect(c, "/login", session.FlashSuccess, "Registration successful! Please log in.")
}

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	if u := currentUser(c); u != nil {
		return c.Redirect(landing(u))
	}
	return render(c, "login", fiber.Map{"Err": ""})
}

func (h *AuthHandler) loginFailed(c *fiber.Ctx, email, reason string) error {
	log.Security(c, "auth.login.fail", map[string]any{"email": email, "reason": reason})
	return c.Status(fiber.StatusUnauthorized).Render("login", fiber.Map{
		"Err":       "Invalid email or password",
		"CSRFToken": c.Cookies("csrf_"),
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	email, ok := validate.Email(c.FormValue("email"))
	pass := c.FormValue("password")
	if !ok {
		return h.loginFailed(c, c.FormValue("email"), "bad_format")
	}
	if len(pass) == 0 || len(pass) > 72 {
		return h.loginFailed(c, email, "bad_password_format")
	}

	u, err := h.Auth.Login(c.UserContext(), email, pass)
	if errors.Is(err, services.ErrBadCreds) {
		return h.loginFailed(c, email, "bad_credentials")
	}
	if err != nil {
		return err
	}

	// New id on privilege change.
	if err := h.Sessions.Regenerate(c); err != nil {
		return err
	}
	st := session.From(c)
	st.Login(u)
	c.Locals("user", u)
	log.Audit(c, "auth.login.success", map[string]any{"email": email})
	st.AddFlash(session.FlashSuccess, "Welcome back, "+u.Username)
	return c.Redirect(landing(u))
}

func landing(u *domain.User) string {
	if u.IsAdmin() {
		return "/inventory"
	}
	return "/shopping"
}

// Logout puts the cart's reserved units back on the shelf and ends the session.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	st := session.From(c)
	if !st.Cart.Empty() {
		if err := h.Carts.Abandon(c.UserContext(), &st.Cart); err != nil {
			log.Error(c, "auth.logout.restore.fail", err, nil)
		}
	}
	log.Audit(c, "auth.logout", map[string]any{"user_id": st.UserID})
	if err := h.Sessions.Destroy(c); err != nil {
		return err
	}
	return c.Redirect("/")
}
