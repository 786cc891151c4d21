package usecase

import (
	"context"
	"fmt"

	chat "github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/domain"
	repository "github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/persistence/repository/port"
)

// ListRoomsInput selects the listing mode: All is only honored for admins,
// everyone else gets their personal inbox view.
type ListRoomsInput struct {
	UserID string
	Role   string
	All    bool
}

// ListRoomsUseCase returns annotated room views for the caller.
type ListRoomsUseCase struct {
	Repo repository.ChatStore
}

func NewListRoomsUseCase(repo repository.ChatStore) *ListRoomsUseCase {
	return &ListRoomsUseCase{Repo: repo}
}

func (uc *ListRoomsUseCase) Execute(ctx context.Context, in ListRoomsInput) ([]chat.RoomView, error) {
	rooms, err := uc.Repo.ListRooms(ctx, in.UserID, in.Role, in.All)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return rooms, nil
}
