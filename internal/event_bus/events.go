package event_bus

const (
	UserDeletedType  EventType = "user.deleted"
	SessionResetType EventType = "session.reset"
)

// UserDeleted is published after a logged-in user's account row is removed.
type UserDeleted struct {
	Uid string
}

// SessionReset is published after a session's ledger and transcript were cleared.
type SessionReset struct {
	SessionId      string
	ClearedRecords int
	ClearedTurns   int
}
