package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supermart/internal/domain"
	"supermart/internal/repos"
	"supermart/internal/services"
)

func TestRegisterAndLogin(t *testing.T) {
	db := memdb(t)
	auth := &services.AuthService{Users: repos.NewUserRepo(db)}
	ctx := context.Background()

	u, err := auth.Register(ctx, services.Registration{Username: "Carol", Email: "carol@supermart.test", Password: "S3cret!pw", Role: "root"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, u.Role, "unknown roles fall back to user")

	_, err = auth.Register(ctx, services.Registration{Username: "Carol2", Email: "carol@supermart.test", Password: "S3cret!pw"})
	assert.ErrorIs(t, err, repos.ErrEmailTaken)

	got, err := auth.Login(ctx, "carol@supermart.test", "S3cret!pw")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = auth.Login(ctx, "carol@supermart.test", "nope")
	assert.ErrorIs(t, err, services.ErrBadCreds)
	_, err = auth.Login(ctx, "nobody@supermart.test", "S3cret!pw")
	assert.ErrorIs(t, err, services.ErrBadCreds)
}

func TestDeleteUser(t *testing.T) {
	db := memdb(t)
	auth := &services.AuthService{Users: repos.NewUserRepo(db)}
	ctx := context.Background()

	assert.ErrorIs(t, auth.DeleteUser(ctx, "u-admin", "u-admin"), services.ErrSelfDelete)
	require.NoError(t, auth.DeleteUser(ctx, "u-admin", "u-bob"))
	_, err := auth.CurrentUser(ctx, "u-bob")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFeedbackSubmit(t *testing.T) {
	db := memdb(t)
	fb := services.NewFeedbackService(repos.NewFeedbackRepo(db))
	ctx := context.Background()

	assert.ErrorIs(t, fb.Submit(ctx, "u-alice", " ", "text", 3), services.ErrFeedbackIncomplete)
	require.NoError(t, fb.Submit(ctx, "u-alice", "Great", "Fresh produce", 9))

	list, err := fb.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 5, list[0].Rating)

	require.NoError(t, fb.Delete(ctx, list[0].ID))
	assert.ErrorIs(t, fb.Delete(ctx, list[0].ID), domain.ErrNotFound)
}
