package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"supermart/internal/domain"
)

// PaymentRepo is append-only: rows are created once and never updated.
type PaymentRepo struct{ db *sqlx.DB }

func NewPaymentRepo(db *sqlx.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// createdAtLayout is fixed width so created_at sorts correctly as TEXT.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// paymentRow mirrors the table; created_at is createdAtLayout TEXT in UTC.
type paymentRow struct {
	ID            string          `db:"id"`
	UserID        string          `db:"user_id"`
	Total         decimal.Decimal `db:"total"`
	Method        string          `db:"method"`
	CardLastFour  string          `db:"card_last_four"`
	TransactionID string          `db:"transaction_id"`
	Status        string          `db:"status"`
	CreatedAt     string          `db:"created_at"`
}

func (r paymentRow) toDomain() (domain.Payment, error) {
	t, err := parseRFC3339(r.CreatedAt)
	if err != nil {
		return domain.Payment{}, err
	}
	return domain.Payment{
		ID:            r.ID,
		UserID:        r.UserID,
		Total:         r.Total,
		Method:        r.Method,
		CardLastFour:  r.CardLastFour,
		TransactionID: r.TransactionID,
		Status:        r.Status,
		CreatedAt:     t,
	}, nil
}

func parseRFC3339(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

const paymentCols = `id, user_id, total, method, card_last_four, transaction_id, status, created_at`

func (r *PaymentRepo) Create(ctx context.Context, p domain.Payment) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO payments(`+paymentCols+`)
	  VALUES(?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.UserID, p.Total, p.Method, p.CardLastFour, p.TransactionID, p.Status,
		p.CreatedAt.UTC().Format(createdAtLayout))
	return err
}

func (r *PaymentRepo) Get(ctx context.Context, id string) (domain.Payment, error) {
	var row paymentRow
	err := r.db.GetContext(ctx, &row, `SELECT `+paymentCols+` FROM payments WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Payment{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Payment{}, err
	}
	return row.toDomain()
}

// ListByUser returns a user's payments, newest first.
func (r *PaymentRepo) ListByUser(ctx context.Context, userID string) ([]domain.Payment, error) {
	return r.list(ctx, `SELECT `+paymentCols+` FROM payments WHERE user_id = ? ORDER BY created_at DESC`, userID)
}

func (r *PaymentRepo) ListAll(ctx context.Context) ([]domain.Payment, error) {
	return r.list(ctx, `SELECT `+paymentCols+` FROM payments ORDER BY created_at DESC`)
}

func (r *PaymentRepo) list(ctx context.Context, q string, args ...any) ([]domain.Payment, error) {
	var rows []paymentRow
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	out := make([]domain.Payment, 0, len(rows))
	for _, row := range rows {
		p, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
