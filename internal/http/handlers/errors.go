package handlers

import (
	"errors"
	"fmt"

	"supermart/internal/domain"
	"supermart/internal/payments"
	"supermart/internal/services"
	"supermart/internal/validate"
)

// userMessage turns a service error into something safe to flash.
func userMessage(err error) string {
	var se *domain.StockError
	var ps *domain.PaymentStatusError
	switch {
	case errors.As(err, &se):
		if se.Available == 0 {
			return "Sorry, this product is out of stock"
		}
		return fmt.Sprintf("Only %d left in stock", se.Available)
	case errors.Is(err, domain.ErrInsufficientStock):
		return "Not enough stock available"
	case errors.As(err, &ps):
		return "Payment not completed. Status: " + ps.Status
	case errors.Is(err, domain.ErrNotFound):
		return "Product not found"
	case errors.Is(err, domain.ErrNotInCart):
		return "That item is not in your cart"
	case errors.Is(err, domain.ErrEmptyCart):
		return "Your cart is empty"
	case errors.Is(err, domain.ErrInvalidMethod):
		return "Invalid payment method"
	case errors.Is(err, domain.ErrIncompleteCardDetails):
		return "Please fill in all card details"
	case errors.Is(err, services.ErrCartChanged):
		return "Your cart changed during payment. Please check out again"
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, services.ErrUnknownOrder):
		return "Your payment session has expired. Please try again"
	case errors.Is(err, payments.ErrNotConfigured):
		return "This payment method is currently unavailable"
	case errors.Is(err, services.ErrLineLimit):
		return fmt.Sprintf("You can add at most %d of one item", validate.MaxQty)
	case errors.Is(err, services.ErrRestoreFailed):
		return "Item removed, but stock could not be updated"
	}
	return "Something went wrong. Please try again."
}
