package usecase

import (
	"context"
	"fmt"

	chat "github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/domain"
	repository "github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/persistence/repository/port"
)

// SendMessageInput carries the data needed to append a message. Name is the
// sender's display name snapshot taken from the session token.
type SendMessageInput struct {
	RoomID string
	UserID string
	Name   string
	Text   string
}

// SendMessageUseCase validates membership, assembles the message, and appends
// it to the room's log.
type SendMessageUseCase struct {
	Repo repository.ChatStore
}

func NewSendMessageUseCase(repo repository.ChatStore) *SendMessageUseCase {
	return &SendMessageUseCase{Repo: repo}
}

func (uc *SendMessageUseCase) Execute(ctx context.Context, in SendMessageInput) (*chat.Message, error) {
	if in.RoomID == "" || in.UserID == "" {
		return nil, chat.ErrMissingIdentity
	}

	isParticipant, err := uc.Repo.IsParticipant(ctx, in.RoomID, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !isParticipant {
		return nil, chat.ErrNotParticipant
	}

	msg, err := chat.NewMessage(in.RoomID, in.UserID, in.Name, in.Text)
	if err != nil {
		return nil, err
	}

	if err := uc.Repo.AddMessage(ctx, *msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return msg, nil
}
