//go:build !wasm
// +build !wasm

package gorm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/panyam/loginapp"
)

// Open connects to driver ("postgres" or "sqlite") at dsn
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(driver) {
	case "postgres", "postgresql", "pgx":
		dialector = postgres.Open(dsn)
	case "sqlite", "sqlite3":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("error opening %s database: %w", driver, err)
	}
	return db, nil
}

// AutoMigrate creates or updates the users table
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&UserModel{})
}

// UserStore implements loginapp.UserStore using GORM
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) CreateUser(ctx context.Context, user *loginapp.User) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&UserModel{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return loginapp.ErrEmailExists
		}
		if err := tx.Create(UserToModel(user)).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return loginapp.ErrEmailExists
			}
			return fmt.Errorf("error creating user: %w", err)
		}
		return nil
	})
}

func (s *UserStore) UserExists(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&UserModel{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*loginapp.User, error) {
	return s.first(ctx, "email = ?", email)
}

func (s *UserStore) GetUserById(ctx context.Context, id string) (*loginapp.User, error) {
	return s.first(ctx, "id = ?", id)
}

func (s *UserStore) first(ctx context.Context, query string, arg string) (*loginapp.User, error) {
	var model UserModel
	if err := s.db.WithContext(ctx).First(&model, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, loginapp.ErrUserNotFound
		}
		return nil, err
	}
	return model.ToUser(), nil
}

func (s *UserStore) SaveUser(ctx context.Context, user *loginapp.User) error {
	result := s.db.WithContext(ctx).Model(&UserModel{ID: user.ID}).Select("*").Omit("id", "created").Updates(UserToModel(user))
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return loginapp.ErrEmailExists
		}
		return fmt.Errorf("error saving user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("saving %s: %w", user.ID, loginapp.ErrUserNotFound)
	}
	return nil
}

func (s *UserStore) DeleteUser(ctx context.Context, user *loginapp.User) error {
	return s.db.WithContext(ctx).Delete(&UserModel{}, "id = ?", user.ID).Error
}
