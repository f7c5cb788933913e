package users

import (
	"context"
	"testing"

	"github.com/sampottinger/kipling-package-index/internal/common"
	"github.com/sampottinger/kipling-package-index/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()

	_, err := r.GetByUsername(ctx, "alice")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	require.NoError(t, r.Create(ctx, alice()))

	assert.ErrorIs(t, r.Create(ctx, alice()), common.ErrorAlreadyExists)
	assert.ErrorIs(t, r.Create(ctx, &models.User{Username: "other", Email: "alice@example.com"}), common.ErrorAlreadyExists)

	got, err := r.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	updated := alice()
	updated.PasswordHash = "new"
	require.NoError(t, r.Upsert(ctx, updated))

	got, err = r.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "new", got.PasswordHash)

	got.PasswordHash = "mutated"
	again, _ := r.GetByUsername(ctx, "alice")
	assert.Equal(t, "new", again.PasswordHash)

	require.NoError(t, r.Create(ctx, &models.User{Username: "bob", Email: "bob@example.com"}))
	err = r.Upsert(ctx, &models.User{Username: "bob", Email: "alice@example.com"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}
