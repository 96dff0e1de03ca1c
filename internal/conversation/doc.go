// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package conversation holds the user's conversation list and the current
// selection.
//
// The list is only ever replaced wholesale from the backend. Callers re-list
// after create or delete instead of patching the list locally.
package conversation
