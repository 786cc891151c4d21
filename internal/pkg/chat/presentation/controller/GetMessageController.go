package controller

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/application/usecase"
	chat "github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/domain"
	repository "github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/persistence/repository/port"
	"github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/presentation/middleware"
)

// GetMessageController fetches a room's recent history (one controller per
// endpoint).
type GetMessageController struct {
	UC *usecase.GetMessageUseCase
}

func NewGetMessageController(store repository.ChatStore) *GetMessageController {
	return &GetMessageController{UC: usecase.NewGetMessageUseCase(store)}
}

func (h *GetMessageController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID := c.Query("roomId")
		if roomID == "" {
			roomID = c.Query("room")
		}
		if roomID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Missing roomId"})
			return
		}

		limit := 50
		if v := c.Query("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		msgs, err := h.UC.Execute(ctx, usecase.GetMessageInput{
			RoomID: roomID,
			UserID: middleware.UserID(c),
			Limit:  limit,
		})
		if err != nil {
			switch {
			case errors.Is(err, chat.ErrNotParticipant):
				c.JSON(http.StatusForbidden, gin.H{"message": "Forbidden"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to load messages"})
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{"roomId": roomID, "messages": msgs})
	}
}
