// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles holds the colors and Lip Gloss styles of the terminal chat.
//
// Colors are AdaptiveColor values so they follow the terminal's light or
// dark background. The theme can be forced with the ui.theme setting.
package styles
