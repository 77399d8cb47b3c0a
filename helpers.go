package loginapp

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

const errGenericPersistence = "An error happened, please try again!"

// CreateUser builds and persists a user.
//
// Store failures come back as a PersistenceError (or ConflictError for a
// duplicate email) carrying a generic user visible message.
func CreateUser(ctx context.Context, store UserStore, email, name, password string, loginType LoginType) (*User, error) {
	user, err := NewUser(email, name, password, loginType)
	if err != nil {
		return nil, NewAuthError(PersistenceError, errGenericPersistence, "", err)
	}
	if err := store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return nil, NewAuthError(ConflictError, "User exists.", "email", err)
		}
		return nil, NewAuthError(PersistenceError, errGenericPersistence, "", err)
	}
	return user, nil
}

// commitUser saves user and converts failures into a PersistenceError
func commitUser(ctx context.Context, store UserStore, user *User, logger *zap.Logger) error {
	if err := store.SaveUser(ctx, user); err != nil {
		logger.Error("error saving user", zap.String("email", user.Email), zap.Error(err))
		return NewAuthError(PersistenceError, errGenericPersistence, "", err)
	}
	return nil
}

// GetOrCreateSocialUser returns the user for email, creating a confirmed
// social account on first login
func GetOrCreateSocialUser(ctx context.Context, store UserStore, email, name string, loginType LoginType) (user *User, created bool, err error) {
	user, err = store.GetUserByEmail(ctx, email)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, false, NewAuthError(PersistenceError, errGenericPersistence, "", err)
	}
	user, err = CreateUser(ctx, store, email, name, "", loginType)
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}
