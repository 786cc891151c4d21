package chat

import "errors"

// Domain-level errors for chat behaviors
var (
	ErrNotParticipant  = errors.New("chat: user is not a participant in the room")
	ErrMissingIdentity = errors.New("chat: room id and user id are required")
	ErrEmptyMessage    = errors.New("chat: message text is empty")
	ErrNoParticipants  = errors.New("chat: room requires at least one participant")
)
