package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrInsufficientStock     = errors.New("insufficient stock")
	ErrNotInCart             = errors.New("item not in cart")
	ErrEmptyCart             = errors.New("cart is empty")
	ErrInvalidMethod         = errors.New("invalid payment method")
	ErrIncompleteCardDetails = errors.New("incomplete card details")
	ErrPaymentNotCompleted   = errors.New("payment not completed")
	ErrInvalidTransition     = errors.New("invalid checkout transition")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrStore                 = errors.New("store failure")
)

// StockError reports how many units were left when a reservation was refused.
type StockError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d (requested %d, available %d)", e.ProductID, e.Requested, e.Available)
}

func (e *StockError) Is(target error) bool { return target == ErrInsufficientStock }

// PaymentStatusError carries the provider status of a payment that did not complete.
type PaymentStatusError struct {
	Provider string
	Status   string
}

func (e *PaymentStatusError) Error() string {
	return fmt.Sprintf("%s payment not completed: status %s", e.Provider, e.Status)
}

func (e *PaymentStatusError) Is(target error) bool { return target == ErrPaymentNotCompleted }

// StoreErr marks err as a persistence failure while keeping it inspectable.
func StoreErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrStore, op, err)
}
