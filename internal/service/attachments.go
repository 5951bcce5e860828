package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/parleychat/parley/internal/models"
)

// MaxUploadSize is the configured per-file limit, exposed so the
// transport can refuse oversized uploads before buffering them.
func (s *Service) MaxUploadSize() int64 {
	return s.cfg.MaxUploadSize
}

// UploadAttachment rejects oversized payloads before anything goes to
// object storage.
func (s *Service) UploadAttachment(
	ctx context.Context,
	userID string,
	name string,
	contentType string,
	data []byte,
) (models.Attachment, error) {
	const op = "service.UploadAttachment"

	if int64(len(data)) > s.cfg.MaxUploadSize {
		return models.Attachment{}, fmt.Errorf("%s: %w", op, ErrFileTooLarge)
	}

	url, err := s.s3.SaveAttachment(ctx, models.Upload{
		OwnerID:     userID,
		Name:        name,
		ContentType: contentType,
		Data:        data,
	})
	if err != nil {
		return models.Attachment{}, fmt.Errorf("%s: %w", op, err)
	}

	return models.Attachment{
		Url:  url,
		Type: FileTypeOf(contentType),
	}, nil
}

// FileTypeOf classifies an attachment by MIME type: image/* and video/*
// map to their own kinds, everything else is a document.
func FileTypeOf(contentType string) models.FileType {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return models.FileImage
	case strings.HasPrefix(contentType, "video/"):
		return models.FileVideo
	default:
		return models.FileDocument
	}
}
