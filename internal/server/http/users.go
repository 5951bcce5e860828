package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/parleychat/parley/internal/models"
)

func (s *Server) listUsers(c *gin.Context) {
	users, err := s.service.ListUsers(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (s *Server) getProfile(c *gin.Context) {
	user, err := s.service.GetProfile(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (s *Server) updateProfile(c *gin.Context) {
	var input struct {
		DisplayName string `json:"display_name"`
		AvatarUrl   string `json:"avatar_url"`
		Status      string `json:"status"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	userID := currentUserID(c)

	if input.Status != "" {
		if err := s.service.UpdateStatus(ctx, userID, models.Status(input.Status)); err != nil {
			respondError(c, err)
			return
		}
	}

	if input.DisplayName == "" && input.AvatarUrl == "" {
		user, err := s.service.GetProfile(ctx, userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user})
		return
	}

	user, err := s.service.UpdateProfile(ctx, userID, input.DisplayName, input.AvatarUrl)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}
