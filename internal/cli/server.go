package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quiztaker/internal/app"
	"quiztaker/internal/config"
	"quiztaker/internal/identity"
	"quiztaker/internal/infra/memory"
	redisinfra "quiztaker/internal/infra/redis"
	"quiztaker/internal/telemetry"
	transport "quiztaker/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

const defaultPort = "8080"

// listenPort prefers the --port flag (or PORT), then server.port, then 8080.
func listenPort(flag string, cfg config.Config) string {
	switch {
	case flag != "":
		return flag
	case cfg.Server.Port != "":
		return cfg.Server.Port
	default:
		return defaultPort
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	finalPort := listenPort(portFlag, cfg)

	records, closeStore, err := openRecordStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := telemetry.MonitorRedis(redisClient); err != nil {
			return err
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return err
		}
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	loader := app.NewStoreLoader(records)
	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = redisinfra.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	var attempts app.AttemptRepository
	if redisClient != nil {
		attempts = redisinfra.NewAttemptStore(redisClient, redisTTL)
	} else {
		attempts = memory.NewAttemptStore()
	}

	opts := []app.ServiceOption{
		app.WithPersistRetries(cfg.Persistence.Retries, config.TTLDuration(cfg.Persistence.RetryInterval, 500*time.Millisecond)),
	}
	if cfg.Quiz.PermissiveOptions {
		opts = append(opts, app.WithPermissiveOptions())
	}
	service := app.NewQuizService(quizRepo, attempts, records, opts...)
	verifier := identity.NewVerifier(cfg.Identity.JWTSecret)
	if cfg.Identity.JWTSecret == "" {
		slog.WarnContext(ctx, "server: identity.jwt_secret not set, all attempts are anonymous")
	}

	gin.SetMode(gin.ReleaseMode)
	router := transport.NewRouter(
		transport.NewWSHandler(service, verifier),
		transport.NewAPIHandler(app.NewCatalog(records), verifier),
	)

	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "server: listening", "port", finalPort, "store", cfg.StoreDriver(), "redis", redisClient != nil)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.ErrorContext(ctx, "server: listen failed", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		slog.InfoContext(ctx, "server: shutting down")
	case <-ctx.Done():
		slog.InfoContext(ctx, "server: context canceled, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
