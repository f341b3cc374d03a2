package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"supermart/internal/domain"
)

type FeedbackRepo struct{ db *sqlx.DB }

func NewFeedbackRepo(db *sqlx.DB) *FeedbackRepo { return &FeedbackRepo{db: db} }

func (r *FeedbackRepo) Add(ctx context.Context, f domain.Feedback) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
	  INSERT INTO feedback(user_id, title, comment, rating, created_at)
	  VALUES(?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, f.UserID, f.Title, f.Comment, f.Rating)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *FeedbackRepo) List(ctx context.Context) ([]domain.Feedback, error) {
	out := []domain.Feedback{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT f.id, f.user_id, COALESCE(u.username,'') AS username, f.title, f.comment, f.rating,
	         COALESCE(f.created_at,'') AS created_at
	  FROM feedback f
	  LEFT JOIN users u ON u.id = f.user_id
	  ORDER BY f.id DESC
	`)
	return out, err
}

func (r *FeedbackRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM feedback WHERE id = ?`, id)
	return affectedOne(res, err)
}
