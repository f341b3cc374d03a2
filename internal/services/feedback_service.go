package services

import (
	"context"
	"errors"
	"strings"

	"supermart/internal/domain"
	"supermart/internal/repos"
)

var ErrFeedbackIncomplete = errors.New("title and comment are required")

type FeedbackService struct {
	Repo *repos.FeedbackRepo
}

func NewFeedbackService(r *repos.FeedbackRepo) *FeedbackService { return &FeedbackService{Repo: r} }

func (s *FeedbackService) Submit(ctx context.Context, userID, title, comment string, rating int) error {
	title, comment = strings.TrimSpace(title), strings.TrimSpace(comment)
	if title == "" || comment == "" || len(title) > 100 || len(comment) > 1000 {
		return ErrFeedbackIncomplete
	}
	if rating < 1 || rating > 5 {
		rating = 5
	}
	_, err := s.Repo.Add(ctx, domain.Feedback{UserID: userID, Title: title, Comment: comment, Rating: rating})
	return err
}

func (s *FeedbackService) List(ctx context.Context) ([]domain.Feedback, error) {
	return s.Repo.List(ctx)
}

func (s *FeedbackService) Delete(ctx context.Context, id int64) error {
	return s.Repo.Delete(ctx, id)
}
