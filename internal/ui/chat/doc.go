// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat is the terminal chat screen.

It renders the signed-in user's thread and conversation list and turns key
presses and slash commands into calls on a session.Context. Every network
call runs inside a Bubble Tea command; streamed reply updates are relayed
from the streaming session into the update loop.

# Layout

  - Header with the user and the open conversation's title
  - Conversation list beside the thread on wide terminals
  - Thread viewport; reaching its top loads older history
  - Input line, disabled while a reply streams
  - Status bar with shortcuts and the last notice

# Commands

	/new             start a new chat
	/list            refresh the conversation list
	/open <n|id>     open a conversation
	/delete <n|id>   delete a conversation (asks to confirm)
	/up, /down       rate the latest reply
	/more            load older messages
	/logout          sign out and quit
	/help            show this list
	/quit            quit
*/
package chat
