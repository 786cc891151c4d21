package controller

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/application/usecase"
	repository "github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/persistence/repository/port"
	"github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/presentation/middleware"
)

// ListRoomsController returns the caller's inbox, or every room for admins
// asking for the monitoring view.
type ListRoomsController struct {
	UC *usecase.ListRoomsUseCase
}

func NewListRoomsController(store repository.ChatStore) *ListRoomsController {
	return &ListRoomsController{UC: usecase.NewListRoomsUseCase(store)}
}

func (h *ListRoomsController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		all := strings.EqualFold(c.Query("all"), "true")

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		rooms, err := h.UC.Execute(ctx, usecase.ListRoomsInput{
			UserID: middleware.UserID(c),
			Role:   middleware.UserRole(c),
			All:    all,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to list rooms"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"rooms": rooms})
	}
}
