package services

import (
	"context"
	"errors"
	"testing"

	"github.com/sampottinger/kipling-package-index/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenUsers struct{ err error }

func (b brokenUsers) Create(context.Context, *models.User) error { return b.err }
func (b brokenUsers) Upsert(context.Context, *models.User) error { return b.err }
func (b brokenUsers) GetByUsername(context.Context, string) (*models.User, error) {
	return nil, b.err
}
func (b brokenUsers) GetByEmail(context.Context, string) (*models.User, error) { return nil, b.err }

func TestVerifyCredentials(t *testing.T) {
	m := newFakeManager()
	seedUser(t, m, "alice", "alicepw")
	a := NewAccessControl(nil, m)
	ctx := context.Background()

	ok, err := a.VerifyCredentials(ctx, "alice", "alicepw")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.VerifyCredentials(ctx, "alice", "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = a.VerifyCredentials(ctx, "ghost", "alicepw")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyCredentials_StoreFailure(t *testing.T) {
	m := newFakeManager()
	m.users = brokenUsers{err: errors.New("db down")}
	a := NewAccessControl(nil, m)

	ok, err := a.VerifyCredentials(context.Background(), "alice", "x")
	assert.False(t, ok)
	assert.ErrorContains(t, err, "db down")
}

func TestVerifyCredentials_CorruptHash(t *testing.T) {
	m := newFakeManager()
	require.NoError(t, m.Users(nil).Create(context.Background(), &models.User{Username: "alice", Email: "a@x", PasswordHash: "plain"}))
	a := NewAccessControl(nil, m)

	ok, err := a.VerifyCredentials(context.Background(), "alice", "plain")
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestVerifyPackagePermission(t *testing.T) {
	m := newFakeManager()
	seedUser(t, m, "alice", "alicepw")
	seedUser(t, m, "bob", "bobpw")
	require.NoError(t, m.Packages(nil).Insert(context.Background(), &models.Package{Name: "simple_ain", Authors: []string{"alice"}}))
	a := NewAccessControl(nil, m)
	ctx := context.Background()

	tests := []struct {
		user, password, name string
		want                 bool
	}{
		{"alice", "alicepw", "simple_ain", true},
		{"alice", "wrong", "simple_ain", false},
		{"bob", "bobpw", "simple_ain", false},
		{"alice", "alicepw", "ghost", false},
	}
	for _, tt := range tests {
		ok, err := a.VerifyPackagePermission(ctx, tt.user, tt.password, tt.name)
		require.NoError(t, err)
		assert.Equal(t, tt.want, ok, "%s/%s", tt.user, tt.name)
	}
}
