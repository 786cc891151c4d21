package usecase

import (
	"context"
	"fmt"

	repository "github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/persistence/repository/port"
)

// ListParticipantsInput wraps the room identifier to fetch its member ids.
type ListParticipantsInput struct {
	RoomID string
}

// ListParticipantsUseCase returns user IDs for all participants in the room.
// Used by the gateway to fan out unread-badge refreshes.
type ListParticipantsUseCase struct {
	Repo repository.ChatStore
}

func NewListParticipantsUseCase(repo repository.ChatStore) *ListParticipantsUseCase {
	return &ListParticipantsUseCase{Repo: repo}
}

func (uc *ListParticipantsUseCase) Execute(ctx context.Context, in ListParticipantsInput) ([]string, error) {
	if in.RoomID == "" {
		return nil, fmt.Errorf("room id is required")
	}

	ids, err := uc.Repo.ListParticipantIDs(ctx, in.RoomID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return ids, nil
}
