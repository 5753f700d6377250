// Package api exposes the strategy-building conversation over HTTP and
// streams completed strategies to connected clients over WebSocket.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"strategy-builder/config"
	"strategy-builder/internal/auth"
	"strategy-builder/internal/database"
	"strategy-builder/internal/pipeline"
	"strategy-builder/internal/session"
)

// Server represents the HTTP API server
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	builder    *pipeline.Builder
	sessions   session.Store
	repo       *database.Repository // nil when the database is disabled
	hub        *WSHub
	cfg        config.ServerConfig
	log        zerolog.Logger

	authHandlers *auth.Handlers // nil when auth is disabled
	jwtManager   *auth.JWTManager
}

// NewServer creates a new API server. repo and authHandlers may be nil when
// those subsystems are disabled; conversation building works without them.
func NewServer(
	cfg config.ServerConfig,
	builder *pipeline.Builder,
	sessions session.Store,
	repo *database.Repository,
	authHandlers *auth.Handlers,
	jwtManager *auth.JWTManager,
	log zerolog.Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	logger := log.With().Str("component", "api").Logger()

	router.Use(RequestLogger(logger))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if cfg.AllowedOrigins == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = strings.Split(cfg.AllowedOrigins, ",")
		corsConfig.AllowCredentials = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	server := &Server{
		router:       router,
		builder:      builder,
		sessions:     sessions,
		repo:         repo,
		hub:          NewWSHub(logger),
		cfg:          cfg,
		log:          logger,
		authHandlers: authHandlers,
		jwtManager:   jwtManager,
	}

	server.setupRoutes()
	go server.hub.Run()

	return server
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api")

	if s.authHandlers != nil {
		authGroup := api.Group("/auth")
		authGroup.POST("/register", s.authHandlers.Register)
		authGroup.POST("/login", s.authHandlers.Login)
	}

	strategyGroup := api.Group("/strategy")
	if s.jwtManager != nil {
		strategyGroup.Use(auth.OptionalMiddleware(s.jwtManager))
	}
	strategyGroup.POST("/build", s.handleBuild)
	strategyGroup.POST("/reset", s.handleReset)
	strategyGroup.GET("/conversation/:id", s.handleGetConversation)
	strategyGroup.GET("/:id", s.handleGetStrategy)
	strategyGroup.GET("", s.handleListStrategies)

	api.GET("/ws", s.handleWebSocket)
}

// Start runs the HTTP server until the context is cancelled, then shuts
// down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.httpServer.Addr).Msg("HTTP server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(s.cfg.ShutdownTimeout)*time.Second)
	defer cancel()

	s.log.Info().Msg("Shutting down HTTP server")
	return s.httpServer.Shutdown(shutdownCtx)
}
