//go:build !wasm
// +build !wasm

// Package gae provides a Google Cloud Datastore implementation of
// loginapp.UserStore for deployments on Google Cloud Platform.
//
// # Datastore Kinds
//
//   - User: one entity per account, keyed by email
//
// # Namespacing
//
// Pass a namespace to isolate data between environments:
//
//	store := gae.NewUserStore(client, "staging")
//
// # Usage
//
//	client, _ := datastore.NewClient(ctx, projectID)
//	store := gae.NewUserStore(client, "")  // default namespace
package gae
