package loginapp

import "context"

// UserStore persists user accounts. Email is unique across all users.
type UserStore interface {
	// CreateUser inserts a new user. Returns ErrEmailExists if the email is taken.
	CreateUser(ctx context.Context, user *User) error

	// UserExists reports whether a user with this email exists
	UserExists(ctx context.Context, email string) (bool, error)

	// GetUserByEmail returns ErrUserNotFound if there is no such user
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// GetUserById returns ErrUserNotFound if there is no such user
	GetUserById(ctx context.Context, id string) (*User, error)

	// SaveUser updates an existing user
	SaveUser(ctx context.Context, user *User) error

	// DeleteUser removes the user. Deleting a missing user is not an error.
	DeleteUser(ctx context.Context, user *User) error
}
