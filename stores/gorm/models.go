//go:build !wasm
// +build !wasm

package gorm

import (
	"time"

	"github.com/panyam/loginapp"
)

// UserModel is the GORM model for users
type UserModel struct {
	ID           string     `gorm:"primaryKey;size:64"`
	Name         string     `gorm:"size:100;not null"`
	Email        string     `gorm:"size:255;not null;uniqueIndex"`
	PasswordHash string     `gorm:"size:200;not null"`
	LoginType    string     `gorm:"size:10;not null"`
	Confirmed    bool       `gorm:"default:false"`
	Created      time.Time  `gorm:"not null"`
	LastLogin    *time.Time
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (UserModel) TableName() string {
	return "users"
}

func (m *UserModel) ToUser() *loginapp.User {
	return &loginapp.User{
		ID:           m.ID,
		Name:         m.Name,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		LoginType:    loginapp.LoginType(m.LoginType),
		Confirmed:    m.Confirmed,
		Created:      m.Created,
		LastLogin:    m.LastLogin,
	}
}

func UserToModel(u *loginapp.User) *UserModel {
	return &UserModel{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		LoginType:    string(u.LoginType),
		Confirmed:    u.Confirmed,
		Created:      u.Created,
		LastLogin:    u.LastLogin,
	}
}
