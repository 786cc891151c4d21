package usecase

import (
	"context"
	"fmt"

	chat "github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/domain"
	repository "github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/persistence/repository/port"
)

// MarkReadInput advances the caller's read cursor. Ts zero means "now".
type MarkReadInput struct {
	RoomID string
	UserID string
	Ts     int64
}

// MarkReadUseCase updates the participant's read cursor, monotonically.
type MarkReadUseCase struct {
	Repo repository.ChatStore
}

func NewMarkReadUseCase(repo repository.ChatStore) *MarkReadUseCase {
	return &MarkReadUseCase{Repo: repo}
}

// Execute returns the effective timestamp applied, for the read-receipt
// broadcast.
func (uc *MarkReadUseCase) Execute(ctx context.Context, in MarkReadInput) (int64, error) {
	if in.RoomID == "" || in.UserID == "" {
		return 0, chat.ErrMissingIdentity
	}

	isParticipant, err := uc.Repo.IsParticipant(ctx, in.RoomID, in.UserID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !isParticipant {
		return 0, chat.ErrNotParticipant
	}

	ts := in.Ts
	if ts <= 0 {
		ts = chat.NowTs()
	}

	if err := uc.Repo.MarkRead(ctx, in.RoomID, in.UserID, ts); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return ts, nil
}
