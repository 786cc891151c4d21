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

// MarkReadController advances the caller's read cursor and broadcasts an
// informational read receipt to the room.
type MarkReadController struct {
	UC        *usecase.MarkReadUseCase
	Registry  *realtime.Registry
	Refresher *task.UnreadsRefresher
}

func NewMarkReadController(store repository.ChatStore, registry *realtime.Registry, refresher *task.UnreadsRefresher) *MarkReadController {
	return &MarkReadController{
		UC:        usecase.NewMarkReadUseCase(store),
		Registry:  registry,
		Refresher: refresher,
	}
}

type markReadRequest struct {
	RoomID string `json:"roomId"`
	Ts     int64  `json:"ts"`
}

func (h *MarkReadController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req markReadRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.RoomID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Missing roomId"})
			return
		}

		userID := middleware.UserID(c)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		ts, err := h.UC.Execute(ctx, usecase.MarkReadInput{
			RoomID: req.RoomID,
			UserID: userID,
			Ts:     req.Ts,
		})
		if err != nil {
			switch {
			case errors.Is(err, chat.ErrNotParticipant):
				c.JSON(http.StatusForbidden, gin.H{"message": "Forbidden"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to mark read"})
			}
			return
		}

		broadcastRead(h.Registry, req.RoomID, userID, ts)
		if h.Refresher != nil {
			h.Refresher.Enqueue(ctx, userID)
		}

		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
