// Package fs keeps users as JSON files on local disk. Meant for development
// and tests; a single process owns the directory.
package fs

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/panyam/loginapp"
)

// UserStore lays files out as
//
//	<StoragePath>/users/<id>.json       the user record
//	<StoragePath>/emails/<email>.json   {"id": "<id>"} index for lookups by email
type UserStore struct {
	StoragePath string

	// serializes writers so the email index stays unique
	mu sync.Mutex
}

type emailIndex struct {
	ID string `json:"id"`
}

func NewUserStore(storagePath string) *UserStore {
	return &UserStore{StoragePath: storagePath}
}

func (s *UserStore) userPath(id string) string {
	return filepath.Join(s.StoragePath, "users", id+".json")
}

func (s *UserStore) emailPath(email string) string {
	return filepath.Join(s.StoragePath, "emails", base64.RawURLEncoding.EncodeToString([]byte(email))+".json")
}

func (s *UserStore) CreateUser(ctx context.Context, user *loginapp.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.emailPath(user.Email)); err == nil {
		return loginapp.ErrEmailExists
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := writeJSONAtomic(s.userPath(user.ID), user); err != nil {
		return err
	}
	return writeJSONAtomic(s.emailPath(user.Email), emailIndex{ID: user.ID})
}

func (s *UserStore) UserExists(ctx context.Context, email string) (bool, error) {
	_, err := s.GetUserByEmail(ctx, email)
	if errors.Is(err, loginapp.ErrUserNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*loginapp.User, error) {
	var idx emailIndex
	if err := readJSON(s.emailPath(email), &idx); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, loginapp.ErrUserNotFound
		}
		return nil, err
	}
	return s.GetUserById(ctx, idx.ID)
}

func (s *UserStore) GetUserById(ctx context.Context, id string) (*loginapp.User, error) {
	if id == "" {
		return nil, loginapp.ErrUserNotFound
	}
	var user loginapp.User
	if err := readJSON(s.userPath(id), &user); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, loginapp.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// SaveUser rewrites an existing record. The email of a user never changes.
func (s *UserStore) SaveUser(ctx context.Context, user *loginapp.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.userPath(user.ID)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("saving %s: %w", user.ID, loginapp.ErrUserNotFound)
		}
		return err
	}
	return writeJSONAtomic(s.userPath(user.ID), user)
}

func (s *UserStore) DeleteUser(ctx context.Context, user *loginapp.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, path := range []string{s.emailPath(user.Email), s.userPath(user.ID)} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}
