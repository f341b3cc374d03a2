package services

import (
	"context"

	"github.com/shopspring/decimal"

	"supermart/internal/domain"
	"supermart/internal/payments"
)

// ProductStore is the slice of the catalog the cart and checkout need.
type ProductStore interface {
	Get(ctx context.Context, id int64) (domain.Product, error)
	Reserve(ctx context.Context, id int64, qty int) error
	Release(ctx context.Context, id int64, qty int) error
}

type PaymentStore interface {
	Create(ctx context.Context, p domain.Payment) error
	Get(ctx context.Context, id string) (domain.Payment, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Payment, error)
	ListAll(ctx context.Context) ([]domain.Payment, error)
}

type PayPalGateway interface {
	CreateOrder(ctx context.Context, amount decimal.Decimal, items []payments.Item) (payments.Order, error)
	CaptureOrder(ctx context.Context, orderID string) (payments.Capture, error)
}

type QRGateway interface {
	Request(ctx context.Context, amount decimal.Decimal, ref string) (payments.QRRequest, error)
	Status(ctx context.Context, txnRef string) (payments.QRStatus, error)
}

// Recorder is satisfied by *metrics.Metrics; nil is allowed.
type Recorder interface {
	Checkout(method, outcome string)
	Reservation(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) Checkout(string, string) {}
func (nopRecorder) Reservation(string)      {}
