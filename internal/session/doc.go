// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session ties the chat components to a signed-in user.
//
// A Manager performs login, registration and logout. A successful login
// produces a Context: the user plus the conversation store, message pager,
// streaming session and feedback submitter built for that user. Logout
// tears the Context down and forgets the saved profile.
//
// # Usage
//
//	mgr := session.NewManager(session.Config{Backend: client, Profiles: profiles})
//	sc, err := mgr.Resume(ctx) // or mgr.Login(ctx, creds)
//	if errors.Is(err, storage.ErrNoProfile) {
//	    // ask for credentials
//	}
//	_, err = sc.Refresh(ctx)
//	res, err := sc.Send(ctx, "How do I teach fractions?")
package session
