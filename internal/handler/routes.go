package handler

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ClareAI/astra-personalization-bridge/internal/cache"
	"github.com/ClareAI/astra-personalization-bridge/internal/config"
	"github.com/ClareAI/astra-personalization-bridge/internal/core/session"
	"github.com/ClareAI/astra-personalization-bridge/internal/profile"
	"github.com/ClareAI/astra-personalization-bridge/internal/prompts"
	"github.com/ClareAI/astra-personalization-bridge/internal/repository"
	"github.com/ClareAI/astra-personalization-bridge/internal/services/personalization"
	"github.com/ClareAI/astra-personalization-bridge/pkg/logger"
	"github.com/ClareAI/astra-personalization-bridge/pkg/redis"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// HandlerManager manages all handlers and their initialization
type HandlerManager struct {
	config       *config.BridgeConfig
	personalizer Personalizer
	registry     CallRegistry

	// closers are released by Close in reverse order
	closers []io.Closer
}

// NewHandlerManager creates and initializes all handlers and services
func NewHandlerManager(cfg *config.BridgeConfig) (*HandlerManager, error) {
	var closers []io.Closer

	directory, err := newProfileDirectory(cfg, &closers)
	if err != nil {
		closeAll(closers)
		return nil, err
	}

	var redisSvc *redis.RedisService
	if cfg.RedisEnabled {
		redisSvc, err = redis.NewRedisService(&redis.RedisConfig{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			logger.Base().Warn("failed to initialize redis service, running without profile cache and call registry", zap.Error(err))
		} else {
			closers = append(closers, redisSvc)
		}
	}

	var (
		calls    personalization.CallLookup
		registry CallRegistry
	)
	if redisSvc != nil {
		directory = cache.NewProfileCache(directory, redisSvc, cfg.ProfileCacheTTL)
		sessions := session.NewManager(redisSvc, instanceID())
		calls, registry = sessions, sessions
		logger.Base().Info("profile cache and call registry enabled",
			zap.Duration("profile_cache_ttl", cfg.ProfileCacheTTL))
	}

	composer, err := prompts.LoadComposer(cfg.PromptTemplatePath, cfg.FirstMessageTemplatePath)
	if err != nil {
		closeAll(closers)
		return nil, fmt.Errorf("failed to load prompt templates: %w", err)
	}

	resolver := profile.NewDirectoryResolver(directory, cfg.PhoneDefaultRegion)
	service := personalization.NewService(resolver, composer, calls)

	hm := NewHandlerManagerWithServices(cfg, service, registry)
	hm.closers = closers
	return hm, nil
}

// NewHandlerManagerWithServices wires handlers around already-built services. registry may be nil.
func NewHandlerManagerWithServices(cfg *config.BridgeConfig, personalizer Personalizer, registry CallRegistry) *HandlerManager {
	return &HandlerManager{
		config:       cfg,
		personalizer: personalizer,
		registry:     registry,
	}
}

// SetupAllRoutes sets up all routes with middleware
func (hm *HandlerManager) SetupAllRoutes(router *mux.Router) {
	router.Use(RequestIDMiddleware)
	router.Use(GlobalLoggingMiddleware)

	statusHandler := &StatusHandler{}
	statusHandler.SetupStatusRoutes(router)

	twilioRouter := router.PathPrefix("/twilio").Subrouter()
	if hm.config.TwilioValidateSignature {
		twilioRouter.Use(TwilioSignatureMiddleware(hm.config.TwilioAuthToken, hm.config.PublicHost))
		logger.Base().Info("twilio signature validation enabled")
	}
	twilioHandler := NewTwilioHandler(hm.config.PublicHost, hm.config.MediaStreamPath, hm.registry)
	twilioHandler.SetupTwilioRoutes(twilioRouter)

	personalizationHandler := NewPersonalizationHandler(hm.personalizer)
	personalizationHandler.SetupPersonalizationRoutes(router)

	logger.Base().Info("all application routes registered")
}

// Close releases the database and redis connections.
func (hm *HandlerManager) Close() {
	closeAll(hm.closers)
	hm.closers = nil
}

func newProfileDirectory(cfg *config.BridgeConfig, closers *[]io.Closer) (profile.Directory, error) {
	switch cfg.ProfileSource {
	case config.ProfileSourceFile:
		dir, err := profile.LoadStaticDirectory(cfg.ProfileFile, cfg.PhoneDefaultRegion)
		if err != nil {
			return nil, err
		}
		logger.Base().Info("customer profiles loaded from file",
			zap.String("path", cfg.ProfileFile),
			zap.Int("count", dir.Len()))
		return dir, nil

	case config.ProfileSourcePostgres:
		repoManager, err := repository.NewRepositoryManager()
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		*closers = append(*closers, repoManager)

		if cfg.ProfileFile != "" {
			if err := seedProfiles(cfg, repoManager.CustomerProfile()); err != nil {
				return nil, err
			}
		}

		logger.Base().Info("customer profiles served from postgres")
		return repoManager.CustomerProfile(), nil

	default:
		logger.Base().Info("customer profiles served from built-in table")
		return profile.DefaultDirectory(), nil
	}
}

// seedProfiles upserts the customers of PROFILE_FILE into the database.
func seedProfiles(cfg *config.BridgeConfig, writer repository.ProfileWriter) error {
	seed, err := profile.LoadStaticDirectory(cfg.ProfileFile, cfg.PhoneDefaultRegion)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := repository.SeedCustomerProfiles(ctx, writer, seed.Entries())
	if err != nil {
		return fmt.Errorf("failed to seed customer profiles: %w", err)
	}
	logger.Base().Info("customer profiles seeded into postgres",
		zap.String("path", cfg.ProfileFile),
		zap.Int("count", n))
	return nil
}

func closeAll(closers []io.Closer) {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			logger.Base().Warn("failed to close resource", zap.Error(err))
		}
	}
}

// instanceID identifies this pod in the call registry.
func instanceID() string {
	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		return hostname
	}
	return fmt.Sprintf("bridge-%d", time.Now().UnixNano())
}
