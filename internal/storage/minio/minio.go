package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/parleychat/parley/internal/models"
)

type Client interface {
	PutObject(
		ctx context.Context,
		bucketName string,
		objectName string,
		reader io.Reader,
		objectSize int64,
		opts minio.PutObjectOptions,
	) (info minio.UploadInfo, err error)
	PresignedGetObject(
		ctx context.Context,
		bucketName string,
		objectName string,
		expires time.Duration,
		reqParams url.Values,
	) (u *url.URL, err error)
}

type Minio struct {
	mc         Client
	bucketName string
	expires    time.Duration
}

func New(mc Client, bucketName string, expires time.Duration) *Minio {
	return &Minio{
		mc:         mc,
		bucketName: bucketName,
		expires:    expires,
	}
}

// SaveAttachment stores the payload under {ownerID}/{unixnano}.{ext} and
// returns a presigned download url.
func (m *Minio) SaveAttachment(ctx context.Context, upload models.Upload) (string, error) {
	const op = "storage.minio.SaveAttachment"

	objectName := objectName(upload.OwnerID, upload.Name)
	reader := bytes.NewReader(upload.Data)

	_, err := m.mc.PutObject(
		ctx,
		m.bucketName,
		objectName,
		reader,
		int64(len(upload.Data)),
		minio.PutObjectOptions{ContentType: upload.ContentType},
	)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	url, err := m.mc.PresignedGetObject(ctx, m.bucketName, objectName, m.expires, nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return url.String(), nil
}

func objectName(ownerID, fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	return fmt.Sprintf("%s/%d%s", ownerID, time.Now().UnixNano(), ext)
}
