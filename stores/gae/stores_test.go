//go:build !wasm
// +build !wasm

package gae

import (
	"context"
	"errors"
	"os"
	"testing"

	"cloud.google.com/go/datastore"
	"github.com/panyam/loginapp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityConversion(t *testing.T) {
	user, err := loginapp.NewUser("a@example.com", "A", "secret123", loginapp.LoginTypeSite)
	require.NoError(t, err)

	key := datastore.NameKey(KindUser, user.Email, nil)
	back := UserToEntity(user, key).ToUser()
	assert.Equal(t, user.ID, back.ID)
	assert.Equal(t, "a@example.com", back.Email)
	assert.Equal(t, user.PasswordHash, back.PasswordHash)
	require.NotNil(t, back.LastLogin)
	assert.True(t, user.LastLogin.Equal(*back.LastLogin))

	user.LastLogin = nil
	assert.Nil(t, UserToEntity(user, key).ToUser().LastLogin)
}

// newEmulatorStore needs a running datastore emulator
// (gcloud beta emulators datastore start) with DATASTORE_EMULATOR_HOST set
func newEmulatorStore(t *testing.T) *UserStore {
	t.Helper()
	if os.Getenv("DATASTORE_EMULATOR_HOST") == "" {
		t.Skip("DATASTORE_EMULATOR_HOST not set")
	}
	client, err := datastore.NewClient(context.Background(), "loginapp-test")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return NewUserStore(client, "test-"+loginapp.GenerateUserId()[:8])
}

func TestDatastoreStore(t *testing.T) {
	ctx := context.Background()
	store := newEmulatorStore(t)

	user, err := loginapp.NewUser("a@example.com", "A", "secret123", loginapp.LoginTypeSite)
	require.NoError(t, err)
	require.NoError(t, store.CreateUser(ctx, user))

	dup, _ := loginapp.NewUser("a@example.com", "B", "secret123", loginapp.LoginTypeSite)
	assert.True(t, errors.Is(store.CreateUser(ctx, dup), loginapp.ErrEmailExists))

	loaded, err := store.GetUserByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loaded.ID)

	user.Confirmed = true
	require.NoError(t, store.SaveUser(ctx, user))

	byId, err := store.GetUserById(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, byId.Confirmed)

	require.NoError(t, store.DeleteUser(ctx, user))
	exists, err := store.UserExists(ctx, "a@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}
