// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "fmt"

// User is the teacher profile returned by the backend on login.
// Only ID is required by the chat core; the rest is shown in the header.
type User struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	Experience int    `json:"experience,omitempty"`
	Subject    string `json:"subject,omitempty"`
	Field      string `json:"field,omitempty"`
}

// Valid reports whether the profile carries a usable identifier.
func (u User) Valid() bool {
	return u.ID > 0
}

// String returns a short description for logs and status output.
func (u User) String() string {
	return fmt.Sprintf("%s (#%d)", u.Username, u.ID)
}

// Registration holds the fields submitted to /api/register.
type Registration struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	Experience int    `json:"experience"`
	Subject    string `json:"subject"`
	Field      string `json:"field"`
}

// Credentials holds the fields submitted to /api/login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
