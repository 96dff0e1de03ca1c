// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the fixed chrome around the chat thread.

# Components

Header (header.go) - Title bar with the open conversation and the user.
Sidebar (sidebar.go) - Numbered conversation list, newest first.
StatusBar (statusbar.go) - Notices, connection state and key hints.

Components are plain structs. The chat model fills them from its own
state on every render and calls View; none of them handle messages.
*/
package components
