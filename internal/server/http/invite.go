package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/parleychat/parley/pkg/logger"
	"go.uber.org/zap"
)

func (s *Server) sendInvite(c *gin.Context) {
	var input struct {
		Email       string `json:"email" binding:"required,email"`
		InviterName string `json:"inviterName" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and inviter name are required"})
		return
	}

	ctx := c.Request.Context()
	if err := s.service.SendInvite(ctx, input.Email, input.InviterName); err != nil {
		logger.GetFromCtx(ctx).Error(ctx, "failed to send invite", zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
