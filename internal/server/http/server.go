package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/parleychat/parley/internal/server/ws"
	"github.com/parleychat/parley/internal/service"
	"github.com/parleychat/parley/pkg/logger"
)

type Server struct {
	router  *gin.Engine
	srv     *http.Server
	service *service.Service
	hub     *ws.Hub
}

func NewServer(ctx context.Context, svc *service.Service, hub *ws.Hub, port int) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.Middleware(ctx))
	router.Use(RateLimitMiddleware(50))

	server := &Server{
		router:  router,
		service: svc,
		hub:     hub,
		srv: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: router,
		},
	}
	server.setupRoutes()

	return server
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)

	s.router.POST("/api/register", s.register)
	s.router.POST("/api/login", s.login)
	s.router.POST("/api/refresh", s.refreshToken)
	s.router.POST("/api/logout", s.logout)
	s.router.POST("/api/password/forgot", s.forgotPassword)
	s.router.POST("/api/password/reset", s.resetPassword)
	s.router.POST("/api/invite", s.sendInvite)

	s.router.GET("/ws", s.handleWs)

	authRoute := s.router.Group("/api")
	authRoute.Use(AuthMiddleware(s.service))
	{
		authRoute.GET("/users", s.listUsers)
		authRoute.GET("/profile", s.getProfile)
		authRoute.PATCH("/profile", s.updateProfile)
		authRoute.POST("/password", s.updatePassword)

		authRoute.GET("/chats", s.listChats)
		authRoute.POST("/chats", s.createChat)
		authRoute.POST("/chats/:id/messages", s.sendMessage)
		authRoute.POST("/chats/:id/read", s.readMessages)

		authRoute.POST("/uploads", s.uploadAttachment)
	}
}

func (s *Server) Run() error {
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
