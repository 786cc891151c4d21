package adapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	chat "github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/domain"
	repository "github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/persistence/repository/port"
)

// PgChatStore is the durable ChatStore variant backed by postgres via pgx.
type PgChatStore struct {
	pool *pgxpool.Pool
}

func NewPgChatStore(pool *pgxpool.Pool) *PgChatStore {
	return &PgChatStore{pool: pool}
}

var _ repository.ChatStore = (*PgChatStore)(nil)

// EnsureRoom upserts the room and its participants inside one transaction so
// a failure cannot leave a room without its intended participant set.
func (s *PgChatStore) EnsureRoom(ctx context.Context, in chat.RoomUpsert) (string, error) {
	if s == nil || s.pool == nil {
		return "", errors.New("PgChatStore: nil pool")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var roomID string
	err = tx.QueryRow(ctx, `
		INSERT INTO chat_rooms (id, key, subject, order_id, product_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (key) DO UPDATE
			SET subject = COALESCE(EXCLUDED.subject, chat_rooms.subject),
			    order_id = COALESCE(EXCLUDED.order_id, chat_rooms.order_id),
			    product_id = COALESCE(EXCLUDED.product_id, chat_rooms.product_id),
			    updated_at = GREATEST(chat_rooms.updated_at, EXCLUDED.updated_at)
		RETURNING id::text
	`, uuid.NewString(), in.Key, in.Subject, in.OrderID, in.ProductID, in.Now).Scan(&roomID)
	if err != nil {
		return "", err
	}

	for _, p := range in.Participants {
		if p.UserID == "" {
			continue
		}
		// Membership upsert never touches last_read_ts or joined_at.
		_, err = tx.Exec(ctx, `
			INSERT INTO chat_room_participants (room_id, user_id, name, role, last_read_ts, joined_at)
			VALUES ($1::uuid, $2, NULLIF($3, ''), NULLIF($4, ''), 0, $5)
			ON CONFLICT (room_id, user_id) DO UPDATE
				SET name = EXCLUDED.name,
				    role = EXCLUDED.role
		`, roomID, p.UserID, p.Name, p.Role, in.Now)
		if err != nil {
			return "", err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return roomID, nil
}

func (s *PgChatStore) ListRooms(ctx context.Context, userID, role string, all bool) ([]chat.RoomView, error) {
	if s == nil || s.pool == nil {
		return nil, errors.New("PgChatStore: nil pool")
	}

	adminAll := all && role == "admin"

	var rows pgx.Rows
	var err error
	if adminAll {
		rows, err = s.pool.Query(ctx, `
			SELECT r.id::text, r.key, r.subject, r.order_id, r.product_id, 0::bigint
			FROM chat_rooms r
			ORDER BY COALESCE((SELECT MAX(ts) FROM chat_messages m WHERE m.room_id = r.id), r.updated_at) DESC
		`)
	} else {
		rows, err = s.pool.Query(ctx, `
			SELECT r.id::text, r.key, r.subject, r.order_id, r.product_id,
				(
					SELECT COUNT(*)
					FROM chat_messages m
					WHERE m.room_id = r.id AND m.ts > p.last_read_ts AND m.user_id <> $1
				)::bigint
			FROM chat_rooms r
			JOIN chat_room_participants p ON p.room_id = r.id
			WHERE p.user_id = $1
			ORDER BY COALESCE((SELECT MAX(ts) FROM chat_messages m WHERE m.room_id = r.id), r.updated_at) DESC
		`, userID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	views := make([]chat.RoomView, 0)
	for rows.Next() {
		var v chat.RoomView
		var unread int64
		if err := rows.Scan(&v.ID, &v.Key, &v.Subject, &v.OrderID, &v.ProductID, &unread); err != nil {
			return nil, err
		}
		v.UnreadCount = int(unread)
		views = append(views, v)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	for i := range views {
		last, err := s.lastMessage(ctx, views[i].ID)
		if err != nil {
			return nil, err
		}
		views[i].LastMessage = last

		parts, err := s.listParticipants(ctx, views[i].ID)
		if err != nil {
			return nil, err
		}
		views[i].Participants = parts
	}

	return views, nil
}

func (s *PgChatStore) IsParticipant(ctx context.Context, roomID, userID string) (bool, error) {
	if roomID == "" || userID == "" {
		return false, nil
	}
	if s == nil || s.pool == nil {
		return false, errors.New("PgChatStore: nil pool")
	}
	var one int
	err := s.pool.QueryRow(ctx,
		`SELECT 1 FROM chat_room_participants WHERE room_id = $1::uuid AND user_id = $2 LIMIT 1`,
		roomID, userID,
	).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *PgChatStore) ListParticipantIDs(ctx context.Context, roomID string) ([]string, error) {
	if s == nil || s.pool == nil {
		return nil, errors.New("PgChatStore: nil pool")
	}
	rows, err := s.pool.Query(ctx,
		`SELECT user_id FROM chat_room_participants WHERE room_id = $1::uuid`,
		roomID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *PgChatStore) ListMessages(ctx context.Context, roomID string, limit int) ([]chat.Message, error) {
	if s == nil || s.pool == nil {
		return nil, errors.New("PgChatStore: nil pool")
	}
	if limit <= 0 {
		limit = 50
	}

	// Newest-first fetch keeps the scan bounded by the index; reversed below
	// so callers get a render-ready chronological sequence.
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, room_id::text, ts, user_id, COALESCE(name, ''), text
		FROM chat_messages
		WHERE room_id = $1::uuid
		ORDER BY ts DESC
		LIMIT $2
	`, roomID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := make([]chat.Message, 0, limit)
	for rows.Next() {
		var m chat.Message
		if err := rows.Scan(&m.ID, &m.RoomID, &m.Ts, &m.UserID, &m.Name, &m.Text); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (s *PgChatStore) AddMessage(ctx context.Context, m chat.Message) error {
	if s == nil || s.pool == nil {
		return errors.New("PgChatStore: nil pool")
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO chat_messages (id, room_id, ts, user_id, name, text) VALUES ($1::uuid, $2::uuid, $3, $4, NULLIF($5, ''), $6)`,
		m.ID, m.RoomID, m.Ts, m.UserID, m.Name, m.Text,
	)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`UPDATE chat_rooms SET updated_at = $2 WHERE id = $1::uuid`,
		m.RoomID, m.Ts,
	)
	return err
}

func (s *PgChatStore) MarkRead(ctx context.Context, roomID, userID string, ts int64) error {
	if s == nil || s.pool == nil {
		return errors.New("PgChatStore: nil pool")
	}
	// GREATEST keeps the cursor monotonic under concurrent marks.
	_, err := s.pool.Exec(ctx, `
		UPDATE chat_room_participants
		SET last_read_ts = GREATEST(last_read_ts, $3)
		WHERE room_id = $1::uuid AND user_id = $2
	`, roomID, userID, ts)
	return err
}

func (s *PgChatStore) TotalUnreads(ctx context.Context, userID string) (int, error) {
	if s == nil || s.pool == nil {
		return 0, errors.New("PgChatStore: nil pool")
	}
	var total int64
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(
			(
				SELECT COUNT(*)
				FROM chat_messages m
				WHERE m.room_id = p.room_id AND m.ts > p.last_read_ts AND m.user_id <> $1
			)
		), 0)::bigint
		FROM chat_room_participants p
		WHERE p.user_id = $1
	`, userID).Scan(&total)
	if err != nil {
		return 0, err
	}
	return int(total), nil
}

func (s *PgChatStore) Ping(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return errors.New("PgChatStore: nil pool")
	}
	return s.pool.Ping(ctx)
}

func (s *PgChatStore) Kind() string { return "postgres" }

func (s *PgChatStore) lastMessage(ctx context.Context, roomID string) (*chat.Message, error) {
	var m chat.Message
	err := s.pool.QueryRow(ctx, `
		SELECT id::text, room_id::text, ts, user_id, COALESCE(name, ''), text
		FROM chat_messages
		WHERE room_id = $1::uuid
		ORDER BY ts DESC
		LIMIT 1
	`, roomID).Scan(&m.ID, &m.RoomID, &m.Ts, &m.UserID, &m.Name, &m.Text)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last message: %w", err)
	}
	return &m, nil
}

func (s *PgChatStore) listParticipants(ctx context.Context, roomID string) ([]chat.Participant, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT user_id, COALESCE(name, ''), COALESCE(role, ''), last_read_ts, joined_at
		FROM chat_room_participants
		WHERE room_id = $1::uuid
	`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	parts := make([]chat.Participant, 0)
	for rows.Next() {
		var p chat.Participant
		if err := rows.Scan(&p.UserID, &p.Name, &p.Role, &p.LastReadTs, &p.JoinedAt); err != nil {
			return nil, err
		}
		parts = append(parts, p)
	}
	return parts, rows.Err()
}
