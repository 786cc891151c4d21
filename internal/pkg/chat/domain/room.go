package chat

// Room is a persistent conversation context, uniquely identified by Key.
// Timestamps are Unix milliseconds.
type Room struct {
	ID        string  `json:"id"`
	Key       string  `json:"key"`
	Subject   *string `json:"subject"`
	OrderID   *string `json:"order_id"`
	ProductID *string `json:"product_id"`
	CreatedAt int64   `json:"created_at"`
	UpdatedAt int64   `json:"updated_at"`
}

// Participant is a user's membership record in a room, carrying the personal
// read cursor. Primary key: (room_id, user_id).
type Participant struct {
	UserID     string `json:"userId"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	LastReadTs int64  `json:"-"`
	JoinedAt   int64  `json:"-"`
}

// RoomUpsert carries the fields for an idempotent EnsureRoom call.
type RoomUpsert struct {
	Key          string
	Subject      *string
	OrderID      *string
	ProductID    *string
	Participants []Participant
	Now          int64
}

// RoomView is a room annotated for listing: most recent message, the caller's
// unread count, and the full participant set.
type RoomView struct {
	ID           string        `json:"id"`
	Key          string        `json:"key"`
	Subject      *string       `json:"subject"`
	OrderID      *string       `json:"order_id"`
	ProductID    *string       `json:"product_id"`
	LastMessage  *Message      `json:"last_message"`
	UnreadCount  int           `json:"unread_count"`
	Participants []Participant `json:"participants"`
}
