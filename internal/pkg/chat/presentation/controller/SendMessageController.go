package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/infrastructure/realtime"
	"github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/application/task"
	"github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/application/usecase"
	chat "github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/domain"
	repository "github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/persistence/repository/port"
	"github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/presentation/middleware"
)

// SendMessageController appends a message and fans it out to every live
// connection joined to the room, the sender included.
type SendMessageController struct {
	UC          *usecase.SendMessageUseCase
	ListMembers *usecase.ListParticipantsUseCase
	Registry    *realtime.Registry
	Refresher   *task.UnreadsRefresher
}

func NewSendMessageController(store repository.ChatStore, registry *realtime.Registry, refresher *task.UnreadsRefresher) *SendMessageController {
	return &SendMessageController{
		UC:          usecase.NewSendMessageUseCase(store),
		ListMembers: usecase.NewListParticipantsUseCase(store),
		Registry:    registry,
		Refresher:   refresher,
	}
}

type sendMessageRequest struct {
	RoomID string `json:"roomId"`
	Text   string `json:"text"`
}

func (h *SendMessageController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req sendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.RoomID == "" || req.Text == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Missing roomId/text"})
			return
		}

		userID := middleware.UserID(c)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		msg, err := h.UC.Execute(ctx, usecase.SendMessageInput{
			RoomID: req.RoomID,
			UserID: userID,
			Name:   middleware.UserName(c),
			Text:   req.Text,
		})
		if err != nil {
			switch {
			case errors.Is(err, chat.ErrNotParticipant):
				c.JSON(http.StatusForbidden, gin.H{"message": "Forbidden"})
			case errors.Is(err, chat.ErrEmptyMessage), errors.Is(err, chat.ErrMissingIdentity):
				c.JSON(http.StatusBadRequest, gin.H{"message": "Missing roomId/text"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to send message"})
			}
			return
		}

		broadcastMessage(h.Registry, req.RoomID, msg)
		h.refreshRecipients(ctx, req.RoomID, userID)

		c.JSON(http.StatusOK, gin.H{"ok": true, "message": msg})
	}
}

// refreshRecipients schedules unread-badge refreshes for the other room
// members. Best-effort; failures only degrade badge freshness.
func (h *SendMessageController) refreshRecipients(ctx context.Context, roomID, senderID string) {
	if h.Refresher == nil {
		return
	}
	ids, err := h.ListMembers.Execute(ctx, usecase.ListParticipantsInput{RoomID: roomID})
	if err != nil {
		return
	}
	recipients := ids[:0]
	for _, id := range ids {
		if id != senderID {
			recipients = append(recipients, id)
		}
	}
	h.Refresher.Enqueue(ctx, recipients...)
}
