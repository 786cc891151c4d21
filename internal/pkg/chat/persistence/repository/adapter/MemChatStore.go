package adapter

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	chat "github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/domain"
	repository "github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/persistence/repository/port"
)

// MemChatStore is the in-memory ChatStore variant, used when no durable
// connection string is configured. State lives for the process lifetime.
// A single mutex guards the three maps; every operation is short and purely
// in-process.
type MemChatStore struct {
	mu           sync.RWMutex
	rooms        map[string]*chat.Room               // roomID -> room
	messages     map[string][]chat.Message           // roomID -> ordered log
	participants map[string]map[string]*chat.Participant // roomID -> userID -> participant
}

func NewMemChatStore() *MemChatStore {
	return &MemChatStore{
		rooms:        make(map[string]*chat.Room),
		messages:     make(map[string][]chat.Message),
		participants: make(map[string]map[string]*chat.Participant),
	}
}

var _ repository.ChatStore = (*MemChatStore)(nil)

func (s *MemChatStore) EnsureRoom(ctx context.Context, in chat.RoomUpsert) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var room *chat.Room
	for _, r := range s.rooms {
		if r.Key == in.Key {
			room = r
			break
		}
	}

	if room == nil {
		room = &chat.Room{
			ID:        uuid.NewString(),
			Key:       in.Key,
			Subject:   in.Subject,
			OrderID:   in.OrderID,
			ProductID: in.ProductID,
			CreatedAt: in.Now,
			UpdatedAt: in.Now,
		}
		s.rooms[room.ID] = room
		s.messages[room.ID] = []chat.Message{}
		s.participants[room.ID] = make(map[string]*chat.Participant)
	} else {
		merged := chat.MergeRoom(*room, in)
		*room = merged
	}

	members := s.participants[room.ID]
	for _, p := range in.Participants {
		if p.UserID == "" {
			continue
		}
		merged := chat.MergeParticipant(members[p.UserID], p, in.Now)
		members[p.UserID] = &merged
	}

	return room.ID, nil
}

func (s *MemChatStore) ListRooms(ctx context.Context, userID, role string, all bool) ([]chat.RoomView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	adminAll := all && role == "admin"

	views := make([]chat.RoomView, 0)
	for id, r := range s.rooms {
		me := s.participants[id][userID]
		if !adminAll && me == nil {
			continue
		}

		msgs := s.messages[id]
		var last *chat.Message
		if len(msgs) > 0 {
			m := msgs[len(msgs)-1]
			last = &m
		}

		unread := 0
		if !adminAll && me != nil {
			unread = countUnread(msgs, me.LastReadTs, userID)
		}

		parts := make([]chat.Participant, 0, len(s.participants[id]))
		for _, p := range s.participants[id] {
			parts = append(parts, *p)
		}
		sort.Slice(parts, func(i, j int) bool { return parts[i].UserID < parts[j].UserID })

		views = append(views, chat.RoomView{
			ID:           r.ID,
			Key:          r.Key,
			Subject:      r.Subject,
			OrderID:      r.OrderID,
			ProductID:    r.ProductID,
			LastMessage:  last,
			UnreadCount:  unread,
			Participants: parts,
		})
	}

	// Most recent activity first, falling back to room updated_at.
	recency := func(v chat.RoomView) int64 {
		if v.LastMessage != nil {
			return v.LastMessage.Ts
		}
		if r := s.rooms[v.ID]; r != nil {
			return r.UpdatedAt
		}
		return 0
	}
	sort.Slice(views, func(i, j int) bool { return recency(views[i]) > recency(views[j]) })

	return views, nil
}

func (s *MemChatStore) IsParticipant(ctx context.Context, roomID, userID string) (bool, error) {
	if roomID == "" || userID == "" {
		return false, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.participants[roomID][userID]
	return ok, nil
}

func (s *MemChatStore) ListParticipantIDs(ctx context.Context, roomID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.participants[roomID]))
	for id := range s.participants[roomID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *MemChatStore) ListMessages(ctx context.Context, roomID string, limit int) ([]chat.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.messages[roomID]
	start := len(msgs) - limit
	if start < 0 {
		start = 0
	}
	out := make([]chat.Message, len(msgs)-start)
	copy(out, msgs[start:])
	return out, nil
}

func (s *MemChatStore) AddMessage(ctx context.Context, m chat.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages[m.RoomID] = append(s.messages[m.RoomID], m)
	if room := s.rooms[m.RoomID]; room != nil && m.Ts > room.UpdatedAt {
		room.UpdatedAt = m.Ts
	}
	return nil
}

func (s *MemChatStore) MarkRead(ctx context.Context, roomID, userID string, ts int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	members := s.participants[roomID]
	if members == nil {
		return nil
	}
	p := members[userID]
	if p == nil {
		return nil
	}
	if ts > p.LastReadTs {
		p.LastReadTs = ts
	}
	return nil
}

func (s *MemChatStore) TotalUnreads(ctx context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for roomID, msgs := range s.messages {
		me := s.participants[roomID][userID]
		if me == nil {
			continue
		}
		total += countUnread(msgs, me.LastReadTs, userID)
	}
	return total, nil
}

func (s *MemChatStore) Ping(ctx context.Context) error { return nil }

func (s *MemChatStore) Kind() string { return "memory" }

func countUnread(msgs []chat.Message, lastReadTs int64, userID string) int {
	n := 0
	for _, m := range msgs {
		if m.Ts > lastReadTs && m.UserID != userID {
			n++
		}
	}
	return n
}
