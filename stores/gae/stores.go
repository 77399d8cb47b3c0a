//go:build !wasm
// +build !wasm

package gae

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/datastore"
	"google.golang.org/api/iterator"

	"github.com/panyam/loginapp"
)

// Kind constants for Datastore entities
const (
	KindUser = "User"
)

// UserStore implements loginapp.UserStore using Google Cloud Datastore
type UserStore struct {
	client    *datastore.Client
	namespace string
}

func NewUserStore(client *datastore.Client, namespace string) *UserStore {
	return &UserStore{client: client, namespace: namespace}
}

func (s *UserStore) userKey(email string) *datastore.Key {
	key := datastore.NameKey(KindUser, email, nil)
	key.Namespace = s.namespace
	return key
}

// CreateUser puts the user inside a transaction so two signups racing for
// the same email cannot both succeed
func (s *UserStore) CreateUser(ctx context.Context, user *loginapp.User) error {
	key := s.userKey(user.Email)
	_, err := s.client.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		var existing UserEntity
		err := tx.Get(key, &existing)
		if err == nil {
			return loginapp.ErrEmailExists
		}
		if !errors.Is(err, datastore.ErrNoSuchEntity) {
			return err
		}
		_, err = tx.Put(key, UserToEntity(user, key))
		return err
	})
	if err != nil && !errors.Is(err, loginapp.ErrEmailExists) {
		return fmt.Errorf("error creating user: %w", err)
	}
	return err
}

func (s *UserStore) UserExists(ctx context.Context, email string) (bool, error) {
	_, err := s.GetUserByEmail(ctx, email)
	if errors.Is(err, loginapp.ErrUserNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*loginapp.User, error) {
	var entity UserEntity
	if err := s.client.Get(ctx, s.userKey(email), &entity); err != nil {
		if errors.Is(err, datastore.ErrNoSuchEntity) {
			return nil, loginapp.ErrUserNotFound
		}
		return nil, err
	}
	return entity.ToUser(), nil
}

func (s *UserStore) GetUserById(ctx context.Context, id string) (*loginapp.User, error) {
	q := datastore.NewQuery(KindUser).Namespace(s.namespace).FilterField("id", "=", id).Limit(1)
	it := s.client.Run(ctx, q)
	var entity UserEntity
	_, err := it.Next(&entity)
	if err == iterator.Done {
		return nil, loginapp.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return entity.ToUser(), nil
}

func (s *UserStore) SaveUser(ctx context.Context, user *loginapp.User) error {
	key := s.userKey(user.Email)
	_, err := s.client.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		var existing UserEntity
		if err := tx.Get(key, &existing); err != nil {
			if errors.Is(err, datastore.ErrNoSuchEntity) {
				return fmt.Errorf("saving %s: %w", user.ID, loginapp.ErrUserNotFound)
			}
			return err
		}
		_, err := tx.Put(key, UserToEntity(user, key))
		return err
	})
	return err
}

func (s *UserStore) DeleteUser(ctx context.Context, user *loginapp.User) error {
	err := s.client.Delete(ctx, s.userKey(user.Email))
	if errors.Is(err, datastore.ErrNoSuchEntity) {
		return nil
	}
	return err
}
