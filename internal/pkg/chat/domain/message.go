package chat

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message is an immutable log entry in a room. Name is the sender's display
// name snapshotted at send time.
type Message struct {
	ID     string `json:"id"`
	RoomID string `json:"-"`
	Ts     int64  `json:"ts"`
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Text   string `json:"text"`
}

// NewMessage validates and assembles a message ready to persist, generating
// its id and timestamp.
func NewMessage(roomID, userID, name, text string) (*Message, error) {
	if roomID == "" || userID == "" {
		return nil, ErrMissingIdentity
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	return &Message{
		ID:     uuid.NewString(),
		RoomID: roomID,
		Ts:     NowTs(),
		UserID: userID,
		Name:   name,
		Text:   text,
	}, nil
}

// NowTs returns the current time as Unix milliseconds, the timestamp unit
// used throughout the chat schema.
func NowTs() int64 {
	return time.Now().UnixMilli()
}
