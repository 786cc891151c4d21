package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/persistence/repository/adapter"
	chat "github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/domain"
)

// TestGetMessageLimitClamped verifies an oversized limit is clamped so one
// request cannot drag an entire room history through the store.
func TestGetMessageLimitClamped(t *testing.T) {
	store := adapter.NewMemChatStore()
	ctx := context.Background()

	roomID, err := store.EnsureRoom(ctx, chat.RoomUpsert{
		Key:          "ctx-general-u1-u2",
		Participants: []chat.Participant{{UserID: "u1"}, {UserID: "u2"}},
		Now:          chat.NowTs(),
	})
	if err != nil {
		t.Fatalf("EnsureRoom: %v", err)
	}

	count := MaxHistoryLimit + 10
	for i := 0; i < count; i++ {
		err := store.AddMessage(ctx, chat.Message{
			ID:     fmt.Sprintf("m-%d", i),
			RoomID: roomID,
			Ts:     int64(i + 1),
			UserID: "u2",
			Name:   "u2",
			Text:   "x",
		})
		if err != nil {
			t.Fatalf("AddMessage: %v", err)
		}
	}

	uc := NewGetMessageUseCase(store)
	msgs, err := uc.Execute(ctx, GetMessageInput{RoomID: roomID, UserID: "u1", Limit: 1_000_000})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(msgs) != MaxHistoryLimit {
		t.Fatalf("len = %d, want the %d cap", len(msgs), MaxHistoryLimit)
	}
	// The window keeps the newest messages.
	if msgs[len(msgs)-1].Ts != int64(count) {
		t.Fatalf("newest ts = %d, want %d", msgs[len(msgs)-1].Ts, count)
	}
}

// TestGetMessageMembershipGate verifies non-participants cannot read history.
func TestGetMessageMembershipGate(t *testing.T) {
	store := adapter.NewMemChatStore()
	ctx := context.Background()

	roomID, err := store.EnsureRoom(ctx, chat.RoomUpsert{
		Key:          "ctx-general-u1-u2",
		Participants: []chat.Participant{{UserID: "u1"}, {UserID: "u2"}},
		Now:          chat.NowTs(),
	})
	if err != nil {
		t.Fatalf("EnsureRoom: %v", err)
	}

	uc := NewGetMessageUseCase(store)
	if _, err := uc.Execute(ctx, GetMessageInput{RoomID: roomID, UserID: "u9", Limit: 10}); !errors.Is(err, chat.ErrNotParticipant) {
		t.Fatalf("outsider: got %v, want ErrNotParticipant", err)
	}
}
