package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget/internal/core"
	"budget/internal/storage/memory"
)

func TestUserService_Register(t *testing.T) {
	svc := NewUserService(memory.New(), time.Minute, quietLogger())
	ctx := context.Background()

	u, err := svc.Register(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, "carol", u.Username)

	_, err = svc.Register(ctx, "carol")
	assert.ErrorIs(t, err, core.ErrConflict)

	_, err = svc.Register(ctx, "has space")
	assert.ErrorIs(t, err, core.ErrBadFormat)
}

func TestUserService_LoginGetOrCreate(t *testing.T) {
	svc := NewUserService(memory.New(), time.Minute, quietLogger())
	ctx := context.Background()

	first, err := svc.Login(ctx, "dave")
	require.NoError(t, err)
	second, err := svc.Login(ctx, "dave")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	users, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	_, err = svc.Login(ctx, "")
	assert.ErrorIs(t, err, core.ErrBadFormat)
}

func TestUserService_Resolve(t *testing.T) {
	store := memory.New()
	svc := NewUserService(store, time.Minute, quietLogger())
	ctx := context.Background()

	_, err := svc.Resolve(ctx, "erin")
	assert.ErrorIs(t, err, core.ErrUnauthorized, "unknown user")

	_, err = svc.Resolve(ctx, "")
	assert.ErrorIs(t, err, core.ErrUnauthorized)

	_, err = svc.Resolve(ctx, "bad name!")
	assert.ErrorIs(t, err, core.ErrUnauthorized)

	registered, err := svc.Register(ctx, "erin")
	require.NoError(t, err)

	got, err := svc.Resolve(ctx, "erin")
	require.NoError(t, err, "failed lookups are not cached")
	assert.Equal(t, registered, got)

	byID, err := svc.Get(ctx, registered.ID)
	require.NoError(t, err)
	assert.Equal(t, registered, byID)
}
