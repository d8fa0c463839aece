package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"chatbackend/internal/blob"
	"chatbackend/internal/config"
	"chatbackend/internal/domain"
	"chatbackend/internal/events"
	"chatbackend/internal/httpserver"
	"chatbackend/internal/metrics"
	"chatbackend/internal/security"
	"chatbackend/internal/service"
	"chatbackend/internal/store/postgres"
	"chatbackend/internal/store/sqlite"
	"chatbackend/internal/ws"
)

// @title           Chat Backend API
// @version         1.0
// @description     Real-time chat backend: users, friends, chats, messages and uploads.

// @host            localhost:8000
// @BasePath        /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	if err := run(); err != nil {
		log.Fatalf("server: %v", err)
	}
}

type stores struct {
	db       *sql.DB
	users    domain.UserRepository
	chats    domain.ChatRepository
	messages domain.MessageRepository
}

func openStores(cfg *config.Config) (*stores, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		db, err := postgres.Open(cfg.PostgresURL())
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := postgres.Migrate(db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		return &stores{
			db:       db,
			users:    postgres.NewUserRepo(db),
			chats:    postgres.NewChatRepo(db),
			messages: postgres.NewMessageRepo(db),
		}, nil
	default:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		if err := sqlite.Migrate(db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		return &stores{
			db:       db,
			users:    sqlite.NewUserRepo(db),
			chats:    sqlite.NewChatRepo(db),
			messages: sqlite.NewMessageRepo(db),
		}, nil
	}
}

func openPublisher(cfg *config.Config, log *slog.Logger) events.Publisher {
	if cfg.AMQPURL == "" {
		return events.NopPublisher{}
	}
	pub, err := events.DialAMQP(cfg.AMQPURL, cfg.AMQPQueue, log)
	if err != nil {
		// The feed is best effort; the chat keeps working without it.
		log.Warn("event feed disabled", "error", err)
		return events.NopPublisher{}
	}
	return pub
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logs.GetLoggerFromString(cfg.LogLevel)

	st, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer st.db.Close()

	s3Client, err := blob.NewS3Client(context.Background(), blob.ClientConfig{
		Region:          cfg.AWSRegion,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretKey,
		Endpoint:        cfg.S3Endpoint,
	})
	if err != nil {
		return fmt.Errorf("init s3 client: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	publisher := openPublisher(cfg, logger)
	defer publisher.Close()

	// Security components
	tokenSvc := security.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL())
	hasher := security.NewPasswordHasher(cfg.BcryptCost, cfg.LegacyPasswords)

	rooms := ws.NewRooms(logger)
	uploader := blob.NewUploader(s3Client, cfg.S3Bucket, cfg.S3PublicBaseURL, logger, m.Uploads)

	authSvc := service.NewAuthService(st.users, tokenSvc, hasher)
	userSvc := service.NewUserService(st.users, hasher)
	msgSvc := service.NewMessageService(st.messages, publisher, logger)
	chatSvc := service.NewChatService(st.chats, msgSvc, uploader, rooms, publisher, logger, service.ChatOptions{
		BroadcastMutations: cfg.BroadcastHTTPMutations,
	})
	relay := ws.NewRelay(rooms, chatSvc, msgSvc, userSvc, m, logger)

	router := httpserver.NewRouter(httpserver.Deps{
		Config:   cfg,
		Auth:     authSvc,
		Users:    userSvc,
		Chats:    chatSvc,
		Messages: msgSvc,
		WebSocket: ws.MakeHandler(relay, authSvc, m, logger, ws.HandlerConfig{
			AllowedOrigins: cfg.CORSOriginList(),
			RequireAuth:    cfg.AuthRequiredFor(config.SurfaceWS),
			SendBuffer:     cfg.WSSendBuffer,
		}),
		Gatherer: reg,
		Log:      logger,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", cfg.HTTPAddr(), "db", cfg.DBDriver, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case sig := <-stop:
		logger.Info("shutting down server", "signal", sig.String())
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
