//go:build !wasm
// +build !wasm

package gae

import (
	"time"

	"cloud.google.com/go/datastore"

	"github.com/panyam/loginapp"
)

// UserEntity is the Datastore entity for users. The key name is the email,
// which makes email uniqueness a property of the key space.
type UserEntity struct {
	Key          *datastore.Key `datastore:"__key__"`
	ID           string         `datastore:"id"`
	Name         string         `datastore:"name,noindex"`
	PasswordHash string         `datastore:"password_hash,noindex"`
	LoginType    string         `datastore:"login_type"`
	Confirmed    bool           `datastore:"confirmed"`
	Created      time.Time      `datastore:"created"`
	LastLogin    time.Time      `datastore:"last_login,noindex"` // zero if never
	UpdatedAt    time.Time      `datastore:"updated_at"`
}

func (e *UserEntity) ToUser() *loginapp.User {
	var lastLogin *time.Time
	if !e.LastLogin.IsZero() {
		t := e.LastLogin
		lastLogin = &t
	}
	return &loginapp.User{
		ID:           e.ID,
		Name:         e.Name,
		Email:        e.Key.Name,
		PasswordHash: e.PasswordHash,
		LoginType:    loginapp.LoginType(e.LoginType),
		Confirmed:    e.Confirmed,
		Created:      e.Created,
		LastLogin:    lastLogin,
	}
}

func UserToEntity(u *loginapp.User, key *datastore.Key) *UserEntity {
	var lastLogin time.Time
	if u.LastLogin != nil {
		lastLogin = *u.LastLogin
	}
	return &UserEntity{
		Key:          key,
		ID:           u.ID,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		LoginType:    string(u.LoginType),
		Confirmed:    u.Confirmed,
		Created:      u.Created,
		LastLogin:    lastLogin,
		UpdatedAt:    time.Now(),
	}
}
