package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"supermart/internal/domain"
	"supermart/internal/repos"
)

var (
	ErrBadCreds   = errors.New("invalid email or password")
	ErrSelfDelete = errors.New("admins cannot delete their own account")
)

type AuthService struct {
	Users *repos.UserRepo
}

type Registration struct {
	Username string
	Email    string
	Password string
	Address  string
	Contact  string
	Role     string
}

// Register hashes the password and stores a new account, role user unless set.
func (s *AuthService) Register(ctx context.Context, r Registration) (*domain.User, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(r.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	role := r.Role
	if role != domain.RoleAdmin {
		role = domain.RoleUser
	}
	u := domain.User{
		ID:       uuid.NewString(),
		Username: r.Username,
		Email:    r.Email,
		Hash:     string(h),
		Role:     role,
		Address:  r.Address,
		Contact:  r.Contact,
	}
	if err := s.Users.Create(ctx, u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	u, err := s.Users.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrBadCreds
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	return u, nil
}

// CurrentUser reloads the account behind a session so role changes and
// deletions take effect on the next request.
func (s *AuthService) CurrentUser(ctx context.Context, id string) (*domain.User, error) {
	return s.Users.ByID(ctx, id)
}

func (s *AuthService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.Users.List(ctx)
}

func (s *AuthService) DeleteUser(ctx context.Context, actorID, targetID string) error {
	if actorID == targetID {
		return ErrSelfDelete
	}
	return s.Users.Delete(ctx, targetID)
}
