package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/persistence/repository/adapter"
	chat "github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/domain"
)

// TestEnsureRoomDerivesKey verifies the key is computed from context and
// participants when the request does not supply one.
func TestEnsureRoomDerivesKey(t *testing.T) {
	uc := NewEnsureRoomUseCase(adapter.NewMemChatStore())

	product := "prod_7"
	out, err := uc.Execute(context.Background(), EnsureRoomInput{
		CallerID:  "u1",
		ProductID: &product,
		Participants: []chat.Participant{
			{UserID: "u2", Name: "Bob"},
			{UserID: "u1", Name: "Alice"},
		},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.Key != "ctx-prod_7-u1-u2" {
		t.Fatalf("derived key = %q", out.Key)
	}
	if out.RoomID == "" {
		t.Fatal("room id must be set")
	}
}

// TestEnsureRoomExplicitKeyWins verifies a client-supplied key is used as-is.
func TestEnsureRoomExplicitKeyWins(t *testing.T) {
	uc := NewEnsureRoomUseCase(adapter.NewMemChatStore())

	out, err := uc.Execute(context.Background(), EnsureRoomInput{
		CallerID: "u1",
		Key:      "custom-key",
		Participants: []chat.Participant{
			{UserID: "u1"}, {UserID: "u2"},
		},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.Key != "custom-key" {
		t.Fatalf("key = %q, want custom-key", out.Key)
	}
}

// TestEnsureRoomRejections covers too few distinct participants and a caller
// outside the participant set.
func TestEnsureRoomRejections(t *testing.T) {
	uc := NewEnsureRoomUseCase(adapter.NewMemChatStore())
	ctx := context.Background()

	_, err := uc.Execute(ctx, EnsureRoomInput{
		CallerID:     "u1",
		Participants: []chat.Participant{{UserID: "u1"}, {UserID: "u1"}, {UserID: ""}},
	})
	if !errors.Is(err, ErrTooFewParticipants) {
		t.Fatalf("duplicates only: got %v, want ErrTooFewParticipants", err)
	}

	_, err = uc.Execute(ctx, EnsureRoomInput{
		CallerID:     "u9",
		Participants: []chat.Participant{{UserID: "u1"}, {UserID: "u2"}},
	})
	if !errors.Is(err, chat.ErrNotParticipant) {
		t.Fatalf("excluded caller: got %v, want ErrNotParticipant", err)
	}
}
