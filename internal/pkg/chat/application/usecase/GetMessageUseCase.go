package usecase

import (
	"context"
	"fmt"

	chat "github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/domain"
	repository "github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/persistence/repository/port"
)

// GetMessageInput fetches the room's recent history for a participant.
type GetMessageInput struct {
	RoomID string
	UserID string
	Limit  int
}

// MaxHistoryLimit caps a single history fetch; larger requests are clamped.
const MaxHistoryLimit = 500

// GetMessageUseCase returns the most recent messages in chronological order,
// gated on room membership.
type GetMessageUseCase struct {
	Repo repository.ChatStore
}

func NewGetMessageUseCase(repo repository.ChatStore) *GetMessageUseCase {
	return &GetMessageUseCase{Repo: repo}
}

func (uc *GetMessageUseCase) Execute(ctx context.Context, in GetMessageInput) ([]chat.Message, error) {
	if in.RoomID == "" {
		return nil, chat.ErrMissingIdentity
	}

	isParticipant, err := uc.Repo.IsParticipant(ctx, in.RoomID, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !isParticipant {
		return nil, chat.ErrNotParticipant
	}

	limit := in.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	msgs, err := uc.Repo.ListMessages(ctx, in.RoomID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return msgs, nil
}
