package app

import (
	"github.com/jwulff/steno/notes/internal/daemon"
	"github.com/jwulff/steno/notes/internal/db"
)

// DaemonConnectedMsg is sent when both daemon connections are established.
type DaemonConnectedMsg struct {
	Client   *daemon.Client // for commands (start, stop, status)
	EvClient *daemon.Client // for event subscription
}

// DaemonConnectErrorMsg is sent when the daemon connection fails.
type DaemonConnectErrorMsg struct {
	Err error
}

// DaemonEventMsg wraps a streamed event from the daemon.
type DaemonEventMsg struct {
	Event daemon.Event
}

// DaemonEventErrorMsg is sent when the event stream encounters an error.
type DaemonEventErrorMsg struct {
	Err error
}

// StatusResponseMsg carries the response to a status command.
type StatusResponseMsg struct {
	Response daemon.Response
}

// StartResponseMsg carries the response to a start command.
type StartResponseMsg struct {
	Response daemon.Response
}

// StopResponseMsg carries the response to a stop command.
type StopResponseMsg struct {
	Response daemon.Response
}

// ClearTransientErrorMsg clears a transient error after a timeout.
type ClearTransientErrorMsg struct{}

// ReconnectTickMsg triggers a reconnection attempt.
type ReconnectTickMsg struct{}

// HistoryLoadedMsg carries the recent conversations.
type HistoryLoadedMsg struct {
	Conversations []db.Conversation
}

// ConversationSavedMsg is sent after the transcript buffer was stored.
// Saved is how many buffered segments went into it.
type ConversationSavedMsg struct {
	Conversation db.Conversation
	Saved        int
}

// ConversationOpenedMsg carries a conversation loaded by ID. Conversation
// is nil when the ID no longer exists.
type ConversationOpenedMsg struct {
	ID           int64
	Conversation *db.Conversation
}

// ConversationDeletedMsg is sent after a conversation was deleted.
type ConversationDeletedMsg struct {
	ID int64
}

// StoreErrorMsg reports a failed history operation.
type StoreErrorMsg struct {
	Op  string
	Err error
}
