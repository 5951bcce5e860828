package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/parleychat/parley/internal/service"
	"github.com/parleychat/parley/pkg/logger"
	"go.uber.org/zap"
)

func (s *Server) uploadAttachment(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	// Reject by declared size before buffering the payload.
	if fileHeader.Size > s.service.MaxUploadSize() {
		respondError(c, service.ErrFileTooLarge)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to open file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file"})
		return
	}

	ctx := c.Request.Context()
	att, err := s.service.UploadAttachment(
		ctx,
		currentUserID(c),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		data,
	)
	if err != nil {
		logger.GetFromCtx(ctx).Error(ctx, "failed to upload attachment", zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"attachment": att})
}
