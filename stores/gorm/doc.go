//go:build !wasm
// +build !wasm

// Package gorm provides a GORM-backed loginapp.UserStore. PostgreSQL is used in
// production (gorm.io/driver/postgres) and SQLite (github.com/glebarez/sqlite,
// pure Go) for development and tests.
//
// # Database Schema
//
// AutoMigrate creates a single users table with a unique index on email.
//
// # Usage
//
//	db, _ := gormstore.Open("postgres", dsn)
//	gormstore.AutoMigrate(db)
//	store := gormstore.NewUserStore(db)
package gorm
