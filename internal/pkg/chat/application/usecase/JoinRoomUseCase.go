package usecase

import (
	"context"
	"fmt"

	chat "github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/domain"
	repository "github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/persistence/repository/port"
)

// JoinRoomInput validates a request to bind a live connection to a room.
type JoinRoomInput struct {
	RoomID string
	UserID string
}

// JoinRoomUseCase ensures the user belongs to the room before the connection
// is registered as a broadcast target.
type JoinRoomUseCase struct {
	Repo repository.ChatStore
}

func NewJoinRoomUseCase(repo repository.ChatStore) *JoinRoomUseCase {
	return &JoinRoomUseCase{Repo: repo}
}

func (uc *JoinRoomUseCase) Execute(ctx context.Context, in JoinRoomInput) error {
	if in.RoomID == "" || in.UserID == "" {
		return chat.ErrMissingIdentity
	}

	ok, err := uc.Repo.IsParticipant(ctx, in.RoomID, in.UserID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !ok {
		return chat.ErrNotParticipant
	}
	return nil
}
