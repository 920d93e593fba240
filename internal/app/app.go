package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/syncwatch/server/internal/controller"
	"github.com/syncwatch/server/internal/repository/connection/inmemory"
	sessionRedis "github.com/syncwatch/server/internal/repository/session/redis"
	"github.com/syncwatch/server/internal/service/room"
	"github.com/syncwatch/server/pkg/ctxlogger"
	"github.com/syncwatch/server/pkg/redisclient"
)

type AppConfig struct {
	Host                   string `json:"host"`
	Port                   int    `json:"port"`
	PublicURL              string `json:"public_url"`
	LogLevel               string `json:"log_level"`
	RoomsLimit             int    `json:"rooms_limit"`
	MembersLimit           int    `json:"members_limit"`
	RoomTimeoutMinutes     int    `json:"room_timeout_minutes"`
	CleanupIntervalMinutes int    `json:"cleanup_interval_minutes"`
	SeekThresholdSeconds   int    `json:"seek_threshold_seconds"`
	RedisHost              string `json:"redis_host"`
	RedisPort              int    `json:"redis_port"`
	RedisPassword          string `json:"-"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.RoomsLimit < 1 {
		return fmt.Errorf("rooms limit must be greater than 0")
	}
	if cfg.MembersLimit < 1 {
		return fmt.Errorf("members limit must be greater than 0")
	}
	if cfg.RoomTimeoutMinutes < 1 {
		return fmt.Errorf("room timeout must be greater than 0")
	}
	if cfg.CleanupIntervalMinutes < 1 {
		return fmt.Errorf("cleanup interval must be greater than 0")
	}
	if cfg.SeekThresholdSeconds < 1 {
		return fmt.Errorf("seek threshold must be greater than 0")
	}
	return nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: logLevel,
		}),
	}
	logger := slog.New(h)

	rc, err := redisclient.NewRedisClient(&redisclient.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer rc.Close()

	sessionRepo := sessionRedis.NewRepo(rc, 24*time.Hour, 5*time.Minute)
	connRepo := inmemory.NewRepo()

	roomService := room.NewService(connRepo, &room.Config{
		SeekThreshold:   time.Duration(cfg.SeekThresholdSeconds) * time.Second,
		RoomTimeout:     time.Duration(cfg.RoomTimeoutMinutes) * time.Minute,
		CleanupInterval: time.Duration(cfg.CleanupIntervalMinutes) * time.Minute,
	}, logger)

	ctrl := controller.NewController(roomService, sessionRepo, connRepo, controller.Config{
		PublicURL:    cfg.PublicURL,
		RoomsLimit:   cfg.RoomsLimit,
		MembersLimit: cfg.MembersLimit,
	}, logger)

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: ctrl.GetMux(),
	}

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)

	go roomService.RunReaper(serverCtx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, cancel := context.WithTimeout(serverCtx, 30*time.Second)
		defer cancel()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	<-serverCtx.Done()

	return nil
}
