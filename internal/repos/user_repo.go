package repos

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"supermart/internal/domain"
)

var ErrEmailTaken = errors.New("email already registered")

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = `id, username, email, password_hash, role, address, contact`

func (r *UserRepo) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, `SELECT `+userCols+` FROM users WHERE LOWER(email)=LOWER(?)`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, `SELECT `+userCols+` FROM users WHERE id=?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts u; the email uniqueness check is case-insensitive.
func (r *UserRepo) Create(ctx context.Context, u domain.User) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO users(id,username,email,password_hash,role,address,contact,created_at)
		VALUES(?,?,?,?,?,?,?,CURRENT_TIMESTAMP)
	`, u.ID, u.Username, u.Email, u.Hash, u.Role, u.Address, u.Contact)
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "unique") {
		return ErrEmailTaken
	}
	return err
}

func (r *UserRepo) List(ctx context.Context) ([]domain.User, error) {
	out := []domain.User{}
	err := r.DB.SelectContext(ctx, &out, `SELECT `+userCols+` FROM users ORDER BY role, LOWER(username)`)
	return out, err
}

// Delete removes a user and their feedback. Payment rows are kept for audit.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM feedback WHERE user_id=?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id=?`, id)
	if err := affectedOne(res, err); err != nil {
		return err
	}
	return tx.Commit()
}
