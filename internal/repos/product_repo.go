package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"supermart/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `id, name, price, quantity, image_ref, COALESCE(created_at,'') AS created_at, COALESCE(updated_at,'') AS updated_at`

func (r *ProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	out := []domain.Product{}
	err := r.db.SelectContext(ctx, &out, `SELECT `+productCols+` FROM products ORDER BY id DESC`)
	return out, err
}

// Search matches product names case-insensitively.
func (r *ProductRepo) Search(ctx context.Context, q string) ([]domain.Product, error) {
	out := []domain.Product{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+productCols+`
	  FROM products
	  WHERE LOWER(name) LIKE ?
	  ORDER BY id DESC
	`, "%"+q+"%")
	return out, err
}

// Get returns domain.ErrNotFound when the product does not exist.
func (r *ProductRepo) Get(ctx context.Context, id int64) (domain.Product, error) {
	var p domain.Product
	err := r.db.GetContext(ctx, &p, `SELECT `+productCols+` FROM products WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, domain.ErrNotFound
	}
	return p, err
}

func (r *ProductRepo) Create(ctx context.Context, p domain.Product) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
	  INSERT INTO products(name, price, quantity, image_ref, created_at)
	  VALUES(?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, p.Name, p.Price, p.Quantity, p.ImageRef)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *ProductRepo) Update(ctx context.Context, p domain.Product) error {
	res, err := r.db.ExecContext(ctx, `
	  UPDATE products
	  SET name = ?, price = ?, quantity = ?, image_ref = ?, updated_at = CURRENT_TIMESTAMP
	  WHERE id = ?
	`, p.Name, p.Price, p.Quantity, p.ImageRef, p.ID)
	return affectedOne(res, err)
}

func (r *ProductRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	return affectedOne(res, err)
}

// Reserve atomically subtracts qty units if enough stock exists. The check and
// the write are one statement, so concurrent reservations cannot oversell.
func (r *ProductRepo) Reserve(ctx context.Context, id int64, qty int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET quantity = quantity - ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND quantity >= ?
	`, qty, id, qty)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}
	// Either the product vanished or someone else got there first.
	p, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	return &domain.StockError{ProductID: id, Requested: qty, Available: p.Quantity}
}

// Release gives qty units back to the shelf.
func (r *ProductRepo) Release(ctx context.Context, id int64, qty int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET quantity = quantity + ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, qty, id)
	return affectedOne(res, err)
}

func affectedOne(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
