package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"strategy-builder/config"
	"strategy-builder/internal/ai/llm"
	"strategy-builder/internal/api"
	"strategy-builder/internal/auth"
	"strategy-builder/internal/database"
	"strategy-builder/internal/logging"
	"strategy-builder/internal/pipeline"
	"strategy-builder/internal/session"
	"strategy-builder/internal/vault"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logging
	logger := logging.New(cfg.LoggingConfig)
	logger.Info().Msg("Strategy builder starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database (optional)
	var repo *database.Repository
	if cfg.DatabaseConfig.Enabled {
		db, err := database.NewDB(cfg.DatabaseConfig, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("Database connection failed")
		}
		defer db.Close()

		if err := db.RunMigrations(ctx); err != nil {
			logger.Fatal().Err(err).Msg("Database migrations failed")
		}
		repo = database.NewRepository(db)
	} else {
		logger.Warn().Msg("Database disabled, strategies will not be persisted")
	}

	// Session store: Redis when configured, in-process otherwise
	var sessions session.Store
	if cfg.RedisConfig.Enabled {
		redisStore, err := session.NewRedisStore(cfg.RedisConfig, cfg.SessionConfig.TTL, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("Redis session store failed")
		}
		sessions = redisStore
	} else {
		logger.Info().Msg("Redis disabled, using in-memory session store")
		sessions = session.NewMemoryStore(cfg.SessionConfig.TTL, cfg.SessionConfig.CleanupInterval)
	}
	defer sessions.Close()

	// LLM client, with API keys sourced from Vault when enabled
	llmClient := buildLLMClient(ctx, cfg, logger)
	extractor := llm.NewExtractor(llmClient, logger)

	builder := pipeline.New(extractor, logger)

	// Auth (optional)
	var authHandlers *auth.Handlers
	var jwtManager *auth.JWTManager
	if cfg.AuthConfig.Enabled {
		if cfg.AuthConfig.JWTSecret == "" {
			logger.Fatal().Msg("AUTH_JWT_SECRET is required when auth is enabled")
		}
		if repo == nil {
			logger.Fatal().Msg("Auth requires the database to be enabled")
		}
		jwtManager = auth.NewJWTManager(cfg.AuthConfig.JWTSecret, cfg.AuthConfig.AccessTokenDuration, cfg.AuthConfig.RefreshTokenDuration)
		passwords := auth.NewPasswordManager(auth.DefaultBcryptCost, cfg.AuthConfig.MinPasswordLength)
		authHandlers = auth.NewHandlers(repo, jwtManager, passwords, logger)
		logger.Info().Msg("Authentication enabled")
	}

	server := api.NewServer(cfg.ServerConfig, builder, sessions, repo, authHandlers, jwtManager, logger)

	// Shut down on SIGINT/SIGTERM
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server error")
	}

	logger.Info().Msg("Strategy builder stopped")
}

// buildLLMClient wires the LLM client from config, preferring Vault-held
// credentials over config values.
func buildLLMClient(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *llm.Client {
	clientCfg := llm.DefaultClientConfig()
	clientCfg.Provider = llm.Provider(cfg.AIConfig.LLMProvider)
	if cfg.AIConfig.LLMModel != "" {
		clientCfg.Model = cfg.AIConfig.LLMModel
	}

	switch clientCfg.Provider {
	case llm.ProviderOpenAI:
		clientCfg.APIKey = cfg.AIConfig.OpenAIAPIKey
	case llm.ProviderDeepSeek:
		clientCfg.APIKey = cfg.AIConfig.DeepSeekAPIKey
	default:
		clientCfg.APIKey = cfg.AIConfig.ClaudeAPIKey
	}

	if cfg.VaultConfig.Enabled {
		vaultClient, err := vault.NewClient(cfg.VaultConfig)
		if err != nil {
			logger.Fatal().Err(err).Msg("Vault client failed")
		}
		if key, err := vaultClient.GetProviderKey(ctx, cfg.AIConfig.LLMProvider); err == nil {
			clientCfg.APIKey = key.APIKey
			if key.Model != "" {
				clientCfg.Model = key.Model
			}
			logger.Info().Str("provider", cfg.AIConfig.LLMProvider).Msg("LLM credentials loaded from Vault")
		} else {
			logger.Warn().Err(err).Msg("Vault lookup failed, falling back to config credentials")
		}
	}

	if !cfg.AIConfig.Enabled {
		logger.Warn().Msg("AI extraction disabled, multi-turn conversations will fall back to clarifying questions")
		clientCfg.APIKey = ""
	}

	return llm.NewClient(clientCfg)
}
