package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/parleychat/parley/pkg/logger"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

// handleWs upgrades the connection and registers it with the hub. The
// access token rides in a query param because browser websockets cannot
// set an Authorization header.
func (s *Server) handleWs(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	userID, err := s.service.VerifyAccessToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	ctx := c.Request.Context()

	// The feed is rebuilt from storage on every connect; that is also
	// the recovery path for events dropped while disconnected.
	fd, err := s.service.BuildFeed(ctx, userID)
	if err != nil {
		logger.GetFromCtx(ctx).Error(ctx, "failed to build feed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	// Push-only channel; reading keeps control frames processed. The
	// returned context ends when the peer goes away.
	readCtx := conn.CloseRead(ctx)

	client := s.hub.AddClient(userID, conn, fd)
	defer s.hub.RemoveClient(client)

	<-readCtx.Done()
}
