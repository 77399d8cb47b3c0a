package fs

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/panyam/loginapp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *UserStore {
	t.Helper()
	dir, err := os.MkdirTemp("", "loginapp-fs-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return NewUserStore(dir)
}

func newUser(t *testing.T, email string) *loginapp.User {
	t.Helper()
	user, err := loginapp.NewUser(email, "Test User", "secret123", loginapp.LoginTypeSite)
	require.NoError(t, err)
	return user
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	user := newUser(t, "a@example.com")

	require.NoError(t, store.CreateUser(ctx, user))

	byEmail, err := store.GetUserByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)
	assert.Equal(t, "Test User", byEmail.Name)
	assert.Equal(t, loginapp.LoginTypeSite, byEmail.LoginType)
	assert.False(t, byEmail.Confirmed)
	assert.True(t, byEmail.CheckPassword("secret123"))
	assert.NotNil(t, byEmail.LastLogin)

	byId, err := store.GetUserById(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, byId.Email)

	exists, err := store.UserExists(ctx, "a@example.com")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCreateDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.CreateUser(ctx, newUser(t, "a@example.com")))
	err := store.CreateUser(ctx, newUser(t, "a@example.com"))
	assert.True(t, errors.Is(err, loginapp.ErrEmailExists))
}

func TestMissingUser(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.GetUserByEmail(ctx, "nobody@example.com")
	assert.True(t, errors.Is(err, loginapp.ErrUserNotFound))

	_, err = store.GetUserById(ctx, "deadbeef")
	assert.True(t, errors.Is(err, loginapp.ErrUserNotFound))

	exists, err := store.UserExists(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSaveUser(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	user := newUser(t, "a@example.com")
	require.NoError(t, store.CreateUser(ctx, user))

	user.Confirmed = true
	require.NoError(t, user.SetPassword("newsecret"))
	require.NoError(t, store.SaveUser(ctx, user))

	loaded, err := store.GetUserByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.True(t, loaded.Confirmed)
	assert.True(t, loaded.CheckPassword("newsecret"))
	assert.False(t, loaded.CheckPassword("secret123"))

	err = store.SaveUser(ctx, newUser(t, "ghost@example.com"))
	assert.True(t, errors.Is(err, loginapp.ErrUserNotFound))
}

func TestDeleteUser(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	user := newUser(t, "a@example.com")
	require.NoError(t, store.CreateUser(ctx, user))

	require.NoError(t, store.DeleteUser(ctx, user))
	_, err := store.GetUserByEmail(ctx, "a@example.com")
	assert.True(t, errors.Is(err, loginapp.ErrUserNotFound))
	_, err = store.GetUserById(ctx, user.ID)
	assert.True(t, errors.Is(err, loginapp.ErrUserNotFound))

	// deleting again is not an error
	assert.NoError(t, store.DeleteUser(ctx, user))

	// the email is free again
	assert.NoError(t, store.CreateUser(ctx, newUser(t, "a@example.com")))
}
