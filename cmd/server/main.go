package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ClareAI/astra-personalization-bridge/internal/config"
	"github.com/ClareAI/astra-personalization-bridge/internal/handler"
	"github.com/ClareAI/astra-personalization-bridge/pkg/logger"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Server is the Twilio / voice-agent personalization bridge.
type Server struct {
	config         *config.BridgeConfig
	httpServer     *http.Server
	handlerManager *handler.HandlerManager
}

// NewServer builds the router and all services behind it.
func NewServer(cfg *config.BridgeConfig) (*Server, error) {
	router := mux.NewRouter()

	handlerManager, err := handler.NewHandlerManager(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize handler manager: %w", err)
	}
	handlerManager.SetupAllRoutes(router)

	addr := fmt.Sprintf(":%s", cfg.Port)
	return &Server{
		config:         cfg,
		handlerManager: handlerManager,
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}, nil
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	logger.Base().Info("Starting server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then releases redis and database connections.
func (s *Server) Shutdown(ctx context.Context) error {
	defer s.handlerManager.Close()
	return s.httpServer.Shutdown(ctx)
}

func main() {
	// Does not override variables already set by the deployment
	if err := godotenv.Load(); err != nil {
		log.Printf("Info: .env file not found or skipped (expected in production): %v", err)
	}

	cfg := config.LoadConfigFromEnv()

	if _, err := logger.Init(cfg.LogEnv); err != nil {
		log.Printf("failed to initialize zap logger, falling back to development logger: %v", err)
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Base().Fatal("Invalid configuration", zap.Error(err))
	}

	server, err := NewServer(cfg)
	if err != nil {
		logger.Base().Fatal("Failed to create server", zap.Error(err))
	}
	logger.Base().Info("Server initialized successfully",
		zap.String("port", cfg.Port),
		zap.String("profile_source", cfg.ProfileSource),
		zap.Bool("redis_enabled", cfg.RedisEnabled))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Base().Info("Shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			logger.Base().Error("Server failed", zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Base().Error("Graceful shutdown failed", zap.Error(err))
	}
}
