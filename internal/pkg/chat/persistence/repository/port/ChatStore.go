package repository

import (
	"context"

	chat "github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/domain"
)

// ChatStore defines the persistence contract shared by the durable (postgres)
// and in-memory variants. The variant is selected once at process startup;
// there is no runtime switching.
type ChatStore interface {
	// EnsureRoom upserts a room by key and its participants, returning the
	// room id. Re-creation merges mutable fields and never resets a
	// participant's read cursor.
	EnsureRoom(ctx context.Context, in chat.RoomUpsert) (string, error)

	// ListRooms returns the rooms visible to the user, annotated with the
	// most recent message, unread count, and participants. When all is true
	// and role is "admin", every room is returned with unread_count 0.
	ListRooms(ctx context.Context, userID, role string, all bool) ([]chat.RoomView, error)

	// IsParticipant is the sole authorization gate for message read/write
	// and read-marking. Absence of either id yields false.
	IsParticipant(ctx context.Context, roomID, userID string) (bool, error)

	// ListParticipantIDs returns the user ids of all room participants.
	ListParticipantIDs(ctx context.Context, roomID string) ([]string, error)

	// ListMessages returns the most recent limit messages in ascending ts
	// order. Unknown rooms yield an empty list, not an error.
	ListMessages(ctx context.Context, roomID string, limit int) ([]chat.Message, error)

	// AddMessage appends a fully-formed message to its room's log and
	// advances the room's updated_at.
	AddMessage(ctx context.Context, m chat.Message) error

	// MarkRead advances the participant's read cursor to max(current, ts).
	MarkRead(ctx context.Context, roomID, userID string, ts int64) error

	// TotalUnreads sums unread counts across every room the user is in.
	TotalUnreads(ctx context.Context, userID string) (int, error)

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error

	// Kind reports the storage variant for the health endpoint.
	Kind() string
}
