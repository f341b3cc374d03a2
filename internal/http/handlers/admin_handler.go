package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"supermart/internal/domain"
	applog "supermart/internal/log"
	"supermart/internal/services"
	"supermart/internal/session"
	"supermart/internal/validate"
)

type AdminHandler struct {
	InventorySvc *services.InventoryService
	Auth         *services.AuthService
	Checkout     *services.CheckoutService
}

// GET /inventory
func (h *AdminHandler) Inventory(c *fiber.Ctx) error {
	products, err := h.InventorySvc.List(c.UserContext())
	if err != nil {
		applog.Error(c, "admin.inventory.list.fail", err, nil)
		return redirect(c, "/", session.FlashError, "Could not load inventory")
	}
	return render(c, "inventory", fiber.Map{"Products": cards(products)})
}

// productForm parses the add/edit form; the returned string is a user message
// when validation fails.
func productForm(c *fiber.Ctx) (domain.Product, string) {
	name, ok := validate.ProductName(c.FormValue("name"))
	if !ok {
		return domain.Product{}, "Product name is required (max 100 characters)"
	}
	price, ok := validate.Price(c.FormValue("price"))
	if !ok {
		return domain.Product{}, "Price must be a non-negative amount"
	}
	qty, ok := validate.Stock(c.FormValue("quantity"))
	if !ok {
		return domain.Product{}, "Quantity must be a non-negative whole number"
	}
	img, ok := validate.ImageRef(c.FormValue("image"))
	if !ok {
		return domain.Product{}, "Image must be a simple file name such as apples.png"
	}
	return domain.Product{Name: name, Price: price, Quantity: qty, ImageRef: img}, ""
}

// GET /addProduct
func (h *AdminHandler) AddProductForm(c *fiber.Ctx) error {
	return render(c, "product_form", fiber.Map{"Action": "/addProduct", "Title": "Add product"})
}

// POST /addProduct
func (h *AdminHandler) AddProduct(c *fiber.Ctx) error {
	p, msg := productForm(c)
	if msg != "" {
		applog.Security(c, "input.invalid.product", map[string]any{"reason": msg})
		return redirect(c, "/addProduct", session.FlashError, msg)
	}
	id, err := h.InventorySvc.Create(c.UserContext(), p)
	if err != nil {
		applog.Error(c, "admin.product.create.fail", err, nil)
		return redirect(c, "/addProduct", session.FlashError, "Could not save product")
	}
	applog.Audit(c, "admin.product.create", map[string]any{"product_id": id, "name": p.Name, "qty": p.Quantity})
	return redirect(c, "/inventory", session.FlashSuccess, "Product added")
}

// GET /editProduct/:id
func (h *AdminHandler) EditProductForm(c *fiber.Ctx) error {
	id, ok := validate.ProductID(c.Params("id"))
	if !ok {
		return redirect(c, "/inventory", session.FlashError, "Product not found")
	}
	p, err := h.InventorySvc.Get(c.UserContext(), id)
	if errors.Is(err, domain.ErrNotFound) {
		return redirect(c, "/inventory", session.FlashError, "Product not found")
	}
	if err != nil {
		return err
	}
	return render(c, "product_form", fiber.Map{"Action": "/editProduct/" + c.Params("id"), "Title": "Edit product", "Product": p})
}

// POST /editProduct/:id
func (h *AdminHandler) EditProduct(c *fiber.Ctx) error {
	id, ok := validate.ProductID(c.Params("id"))
	if !ok {
		return redirect(c, "/inventory", session.FlashError, "Product not found")
	}
	p, msg := productForm(c)
	if msg != "" {
		applog.Security(c, "input.invalid.product", map[string]any{"product_id": id, "reason": msg})
		return redirect(c, "/editProduct/"+c.Params("id"), session.FlashError, msg)
	}
	p.ID = id
	err := h.InventorySvc.Update(c.UserContext(), p)
	if errors.Is(err, domain.ErrNotFound) {
		return redirect(c, "/inventory", session.FlashError, "Product not found")
	}
	if err != nil {
		applog.Error(c, "admin.product.update.fail", err, map[string]any{"product_id": id})
		return redirect(c, "/inventory", session.FlashError, "Could not save product")
	}
	applog.Audit(c, "admin.product.update", map[string]any{"product_id": id, "price": p.Price.StringFixed(2), "qty": p.Quantity})
	return redirect(c, "/inventory", session.FlashSuccess, "Product updated")
}

// POST /deleteProduct/:id
func (h *AdminHandler) DeleteProduct(c *fiber.Ctx) error {
	id, ok := validate.ProductID(c.Params("id"))
	if !ok {
		return redirect(c, "/inventory", session.FlashError, "Product not found")
	}
	err := h.InventorySvc.Delete(c.UserContext(), id)
	if errors.Is(err, domain.ErrNotFound) {
		return redirect(c, "/inventory", session.FlashError, "Product not found")
	}
	if err != nil {
		applog.Error(c, "admin.product.delete.fail", err, map[string]any{"product_id": id})
		return redirect(c, "/inventory", session.FlashError, "Could not delete product")
	}
	applog.Audit(c, "admin.product.delete", map[string]any{"product_id": id})
	return redirect(c, "/inventory", session.FlashSuccess, "Product deleted")
}

// GET /users
func (h *AdminHandler) Users(c *fiber.Ctx) error {
	users, err := h.Auth.ListUsers(c.UserContext())
	if err != nil {
		applog.Error(c, "admin.users.list.fail", err, nil)
		return redirect(c, "/inventory", session.FlashError, "Could not load users")
	}
	return render(c, "users", fiber.Map{"Users": users})
}

// POST /deleteUser/:id deletes the account and its feedback. Payments are kept.
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	id := c.Params("id")
	err := h.Auth.DeleteUser(c.UserContext(), currentUser(c).ID, id)
	switch {
	case errors.Is(err, services.ErrSelfDelete):
		applog.Security(c, "admin.users.delete.self", nil)
		return redirect(c, "/users", session.FlashError, "You cannot delete your own account")
	case errors.Is(err, domain.ErrNotFound):
		return redirect(c, "/users", session.FlashError, "User not found")
	case err != nil:
		applog.Error(c, "admin.users.delete.fail", err, map[string]any{"target": id})
		return redirect(c, "/users", session.FlashError, "Could not delete user")
	}
	applog.Audit(c, "admin.users.delete", map[string]any{"target": id})
	return redirect(c, "/users", session.FlashSuccess, "User deleted")
}

// GET /payments/all
func (h *AdminHandler) Payments(c *fiber.Ctx) error {
	ps, err := h.Checkout.AllPayments(c.UserContext())
	if err != nil {
		applog.Error(c, "admin.payments.list.fail", err, nil)
		return redirect(c, "/inventory", session.FlashError, "Error loading payments")
	}
	return render(c, "admin_payments", fiber.Map{"Payments": ps})
}
