package usecase

import (
	"context"
	"fmt"

	chat "github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/domain"
	repository "github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/persistence/repository/port"
)

// EnsureRoomInput carries the request to open (or idempotently re-open) a room.
// Key may be empty, in which case it is derived from the correlation context
// and the participant set.
type EnsureRoomInput struct {
	CallerID     string
	Key          string
	Subject      *string
	OrderID      *string
	ProductID    *string
	Participants []chat.Participant
}

// EnsureRoomOutput reports the resolved room identity.
type EnsureRoomOutput struct {
	RoomID string
	Key    string
}

// EnsureRoomUseCase handles idempotent room creation and participant upserts.
// Hexagonal: depends on the repository port only.
type EnsureRoomUseCase struct {
	Repo repository.ChatStore
}

func NewEnsureRoomUseCase(repo repository.ChatStore) *EnsureRoomUseCase {
	return &EnsureRoomUseCase{Repo: repo}
}

// Execute validates the participant set, derives the room key if absent, and
// upserts room plus participants. The caller must be among the participants.
func (uc *EnsureRoomUseCase) Execute(ctx context.Context, in EnsureRoomInput) (*EnsureRoomOutput, error) {
	participants := normalizeParticipants(in.Participants)
	if len(distinctIDs(participants)) < 2 {
		return nil, ErrTooFewParticipants
	}

	callerIncluded := false
	for _, p := range participants {
		if p.UserID == in.CallerID {
			callerIncluded = true
			break
		}
	}
	if !callerIncluded {
		return nil, chat.ErrNotParticipant
	}

	key := in.Key
	if key == "" {
		key = chat.ComputeRoomKey(in.OrderID, in.ProductID, participants)
	}

	roomID, err := uc.Repo.EnsureRoom(ctx, chat.RoomUpsert{
		Key:          key,
		Subject:      in.Subject,
		OrderID:      in.OrderID,
		ProductID:    in.ProductID,
		Participants: participants,
		Now:          chat.NowTs(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	return &EnsureRoomOutput{RoomID: roomID, Key: key}, nil
}

func normalizeParticipants(in []chat.Participant) []chat.Participant {
	out := make([]chat.Participant, 0, len(in))
	for _, p := range in {
		if p.UserID == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func distinctIDs(in []chat.Participant) []string {
	seen := make(map[string]struct{}, len(in))
	ids := make([]string, 0, len(in))
	for _, p := range in {
		if _, dup := seen[p.UserID]; dup {
			continue
		}
		seen[p.UserID] = struct{}{}
		ids = append(ids, p.UserID)
	}
	return ids
}
