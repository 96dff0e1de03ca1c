// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage keeps the signed-in user's profile on disk so a later run
// can start without logging in again.
//
// The profile lives in a small SQLite database (pure Go driver, no cgo):
//
//	store, err := storage.OpenProfileStore(path)
//	err = store.Save(user)
//	user, err := store.Load()   // ErrNoProfile when signed out
//	err = store.Clear()
//
// The store also remembers the last conversation opened by each user.
package storage
