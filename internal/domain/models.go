package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID        int64           `db:"id"`
	Name      string          `db:"name"`
	Price     decimal.Decimal `db:"price"`
	Quantity  int             `db:"quantity"` // available, reserved units already excluded
	ImageRef  string          `db:"image_ref"`
	CreatedAt string          `db:"created_at"`
	UpdatedAt string          `db:"updated_at"`
}

// InStock reports whether at least one unit can still be reserved.
func (p Product) InStock() bool { return p.Quantity > 0 }

const (
	MethodCard   = "card"
	MethodPayPal = "paypal"
	MethodQR     = "qr"
)

const (
	PaymentCompleted = "completed"
)

type Payment struct {
	ID            string          `db:"id" json:"id"`
	UserID        string          `db:"user_id" json:"user_id"`
	Total         decimal.Decimal `db:"total" json:"total"`
	Method        string          `db:"method" json:"method"`
	CardLastFour  string          `db:"card_last_four" json:"card_last_four,omitempty"`
	TransactionID string          `db:"transaction_id" json:"transaction_id,omitempty"`
	Status        string          `db:"status" json:"status"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// Reference is what receipts show as the payment instrument.
func (p Payment) Reference() string {
	if p.CardLastFour != "" {
		return "**** " + p.CardLastFour
	}
	return p.TransactionID
}

type Feedback struct {
	ID        int64  `db:"id"`
	UserID    string `db:"user_id"`
	Username  string `db:"username"`
	Title     string `db:"title"`
	Comment   string `db:"comment"`
	Rating    int    `db:"rating"`
	CreatedAt string `db:"created_at"`
}

const (
	InStock    = "IN_STOCK"
	LowStock   = "LOW_STOCK"
	OutOfStock = "OUT_OF_STOCK"
)

type Availability struct {
	Status string
	Qty    int
}
