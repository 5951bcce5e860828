package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/parleychat/parley/internal/models"
	"github.com/parleychat/parley/pkg/logger"
	"go.uber.org/zap"
)

func (s *Server) listChats(c *gin.Context) {
	ctx := c.Request.Context()

	chats, err := s.service.GetUserChats(ctx, currentUserID(c))
	if err != nil {
		logger.GetFromCtx(ctx).Error(ctx, "failed to load chats", zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"chats": chats})
}

// createChat keeps the request shape of the old create-chat function:
// a single participant_id starts (or reuses) a direct chat; a group is
// created from participant_ids plus a name.
func (s *Server) createChat(c *gin.Context) {
	var input struct {
		ParticipantID  string   `json:"participant_id"`
		ParticipantIDs []string `json:"participant_ids"`
		Type           string   `json:"type"`
		Name           string   `json:"name"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	participants := input.ParticipantIDs
	if input.ParticipantID != "" {
		participants = []string{input.ParticipantID}
	}

	ctx := c.Request.Context()
	chat, exists, err := s.service.CreateChat(ctx, currentUserID(c), participants, input.Name)
	if err != nil {
		logger.GetFromCtx(ctx).Error(ctx, "failed to create chat", zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"chat_id": chat.ID,
		"exists":  exists,
		"chat":    chat,
	})
}

func (s *Server) sendMessage(c *gin.Context) {
	var input struct {
		Content  string `json:"content"`
		FileUrl  string `json:"file_url"`
		FileType string `json:"file_type"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	msg, err := s.service.SendMessage(
		ctx,
		currentUserID(c),
		c.Param("id"),
		input.Content,
		input.FileUrl,
		models.FileType(input.FileType),
	)
	if err != nil {
		logger.GetFromCtx(ctx).Error(ctx, "failed to send message", zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

func (s *Server) readMessages(c *gin.Context) {
	ctx := c.Request.Context()

	if err := s.service.ReadMessages(ctx, currentUserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "messages marked as read"})
}
