package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/parleychat/parley/internal/service"
	"github.com/parleychat/parley/internal/storage"
	"golang.org/x/time/rate"
)

const userIDKey = "userID"

func RateLimitMiddleware(rps int) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(rps), rps)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func AuthMiddleware(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header is required"})
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "wrong token type, need Bearer"})
			c.Abort()
			return
		}

		userID, err := svc.VerifyAccessToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

func currentUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// respondError maps service and storage sentinels onto status codes;
// anything unrecognized is a plain 500 without the internal detail.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": service.ErrInvalidCredentials.Error()})
	case errors.Is(err, storage.ErrTokenNotFound):
		c.JSON(http.StatusUnauthorized, gin.H{"error": storage.ErrTokenNotFound.Error()})
	case errors.Is(err, storage.ErrNotParticipant):
		c.JSON(http.StatusForbidden, gin.H{"error": storage.ErrNotParticipant.Error()})
	case errors.Is(err, storage.ErrUserNotFound), errors.Is(err, storage.ErrChatNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, storage.ErrNameTaken), errors.Is(err, storage.ErrUserAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrEmptyMessage),
		errors.Is(err, service.ErrFileTooLarge),
		errors.Is(err, service.ErrNameRequired),
		errors.Is(err, service.ErrNoParticipants),
		errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, service.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
