package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	cacheport "github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/infrastructure/cache/port"
	"github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/application/usecase"
	repository "github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/persistence/repository/port"
	"github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/presentation/middleware"
)

// UnreadsController serves the cross-room unread badge count.
type UnreadsController struct {
	UC *usecase.TotalUnreadsUseCase
}

func NewUnreadsController(store repository.ChatStore, cache cacheport.Cache) *UnreadsController {
	return &UnreadsController{UC: usecase.NewTotalUnreadsUseCase(store, cache)}
}

func (h *UnreadsController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.UserID(c)
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Missing user"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		total, err := h.UC.Execute(ctx, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to get unreads"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"userId": userID, "total": total})
	}
}
