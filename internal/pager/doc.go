// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package pager owns the message thread of the selected conversation and
// loads its history backward one page at a time.
//
// Page 1 is the most recent window. Each further page is older and is
// prepended to the thread. A page shorter than the page size ends the
// history. Every load is bound to the conversation and reset generation it
// started under; a result that arrives after Reset is discarded and its
// request is cancelled.
//
// The streaming session appends to the same thread. Only the last message
// may be open for streaming updates.
package pager
