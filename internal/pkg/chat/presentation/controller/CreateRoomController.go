package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/application/usecase"
	chat "github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/domain"
	repository "github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/persistence/repository/port"
	"github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/presentation/middleware"
)

// CreateRoomController handles idempotent room creation (one controller per
// endpoint).
type CreateRoomController struct {
	UC *usecase.EnsureRoomUseCase
}

func NewCreateRoomController(store repository.ChatStore) *CreateRoomController {
	return &CreateRoomController{UC: usecase.NewEnsureRoomUseCase(store)}
}

type createRoomParticipant struct {
	UserID string `json:"userId"`
	ID     string `json:"id"` // accepted alias for userId
	Name   string `json:"name"`
	Role   string `json:"role"`
}

type createRoomRequest struct {
	Key          string                  `json:"key"`
	Subject      *string                 `json:"subject"`
	OrderID      *string                 `json:"order_id"`
	ProductID    *string                 `json:"product_id"`
	Participants []createRoomParticipant `json:"participants"`
}

func (h *CreateRoomController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createRoomRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid body"})
			return
		}

		participants := make([]chat.Participant, 0, len(req.Participants))
		for _, p := range req.Participants {
			userID := p.UserID
			if userID == "" {
				userID = p.ID
			}
			participants = append(participants, chat.Participant{
				UserID: userID,
				Name:   p.Name,
				Role:   p.Role,
			})
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		out, err := h.UC.Execute(ctx, usecase.EnsureRoomInput{
			CallerID:     middleware.UserID(c),
			Key:          req.Key,
			Subject:      req.Subject,
			OrderID:      req.OrderID,
			ProductID:    req.ProductID,
			Participants: participants,
		})
		if err != nil {
			switch {
			case errors.Is(err, usecase.ErrTooFewParticipants):
				c.JSON(http.StatusBadRequest, gin.H{"message": "participants must include at least 2 users"})
			case errors.Is(err, chat.ErrNotParticipant):
				c.JSON(http.StatusForbidden, gin.H{"message": "Not a participant"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create room"})
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{"ok": true, "roomId": out.RoomID, "key": out.Key})
	}
}
