package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/presentation/middleware"
	"github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/token"
)

// TokenController exchanges an upstream identity-provider bearer token for a
// short-lived chat session token.
type TokenController struct {
	Tokens *token.Service
}

func NewTokenController(tokens *token.Service) *TokenController {
	return &TokenController{Tokens: tokens}
}

type tokenRequest struct {
	Role string `json:"role"`
}

func (h *TokenController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		bearer := middleware.ExtractBearer(c.GetHeader("Authorization"))
		if bearer == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Missing token"})
			return
		}

		var req tokenRequest
		_ = c.ShouldBindJSON(&req) // absent body defaults to customer
		role := req.Role
		if role == "" {
			role = "customer"
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		sessionToken, user, err := h.Tokens.Issue(ctx, bearer, role)
		switch {
		case errors.Is(err, token.ErrInvalidRole):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid role"})
			return
		case errors.Is(err, token.ErrUnauthenticated):
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to issue token"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token":      sessionToken,
			"user":       user,
			"expires_in": h.Tokens.TTLSeconds(),
		})
	}
}
