package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	_ "github.com/redmonkez12/go-contacts-api/docs" // Swagger docs
	"github.com/redmonkez12/go-contacts-api/internal/admin"
	"github.com/redmonkez12/go-contacts-api/internal/auth"
	"github.com/redmonkez12/go-contacts-api/internal/cache"
	"github.com/redmonkez12/go-contacts-api/internal/config"
	"github.com/redmonkez12/go-contacts-api/internal/contact"
	"github.com/redmonkez12/go-contacts-api/internal/database"
	"github.com/redmonkez12/go-contacts-api/internal/email"
	httpServer "github.com/redmonkez12/go-contacts-api/internal/http"
	"github.com/redmonkez12/go-contacts-api/internal/logging"
	"github.com/redmonkez12/go-contacts-api/internal/ratelimit"
	"github.com/redmonkez12/go-contacts-api/internal/storage"
	"github.com/redmonkez12/go-contacts-api/internal/user"
)

// @title           Contacts API
// @version         1.0
// @description     Address-book REST API with email confirmation, password reset and per-user contacts.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"token_format", cfg.Auth.TokenFormat,
	)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	// Initialize database connection
	sqlDB, err := database.Open(startupCtx, cfg.Database.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer sqlDB.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(startupCtx, sqlDB, database.MigrateUp); err != nil {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
		logger.Info("database migrations applied")
	}

	db := database.NewBunDB(sqlDB)

	// Initialize Redis connection
	redisClient, err := initRedis(startupCtx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	defer redisClient.Close()

	// Initialize repositories
	userCache := cache.NewRedisCache(redisClient, cfg.Cache.TTL)
	userRepo := user.NewCachedRepository(user.NewRepository(db), userCache, logger)
	contactRepo := contact.NewRepository(db)

	// Initialize rate limiter
	rateLimiter := ratelimit.NewLimiter(redisClient, logger, cfg.RateLimit.Requests, cfg.RateLimit.Window)

	// Initialize token codec
	tokenCodec, err := auth.NewTokenCodec(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize token codec: %w", err)
	}

	// Initialize email service
	emailService, err := email.NewService(cfg.Email, cfg.Server.BaseURL, email.LinkTTLs{
		EmailConfirmation: cfg.Auth.EmailConfirmationDuration,
		PasswordReset:     cfg.Auth.PasswordResetDuration,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize email service: %w", err)
	}

	// Initialize object storage
	uploader, err := storage.NewS3Uploader(startupCtx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize object storage: %w", err)
	}

	// Initialize auth service
	hasher := auth.NewArgon2idHasher(auth.Argon2Params{
		Time:    cfg.Auth.Argon2Time,
		Memory:  cfg.Auth.Argon2MemoryKiB,
		Threads: cfg.Auth.Argon2Threads,
	})
	dispatcher := auth.NewDispatcher(logger, cfg.Auth.NotificationTimeout)
	authService := auth.NewService(
		userRepo,
		hasher,
		tokenCodec,
		emailService,
		dispatcher,
		logger,
		auth.TokenTTLs{
			Access:            cfg.Auth.AccessTokenDuration,
			EmailConfirmation: cfg.Auth.EmailConfirmationDuration,
			PasswordReset:     cfg.Auth.PasswordResetDuration,
		},
	)

	// Initialize router
	router := httpServer.NewRouter(cfg, httpServer.Handlers{
		Auth:           auth.NewHandler(authService),
		AuthMiddleware: auth.NewMiddleware(authService),
		Users:          user.NewHandler(userRepo, uploader),
		Contacts:       contact.NewHandler(contact.NewService(contactRepo)),
		Admin:          admin.NewHandler(userRepo, contactRepo),
		Limiter:        rateLimiter,
		Metrics:        httpServer.NewMetrics(),
	}, logger)

	// Initialize HTTP server
	serverAddr := ":" + cfg.Server.Port
	server := httpServer.NewServer(
		serverAddr,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		dispatcher.Wait()
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("received signal", "signal", sig.String())

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}

		// Let queued confirmation and reset emails go out
		dispatcher.Wait()
	}

	return nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
