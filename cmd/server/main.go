package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/dom/courier-backend/internal/api"
	"github.com/dom/courier-backend/internal/auth"
	"github.com/dom/courier-backend/internal/config"
	"github.com/dom/courier-backend/internal/notify"
	"github.com/dom/courier-backend/internal/presence"
	"github.com/dom/courier-backend/internal/repository/postgres"
	"github.com/dom/courier-backend/internal/service"
	"github.com/dom/courier-backend/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to load config")
	}

	initLogging(cfg.Environment)

	db, err := postgres.NewConnection(cfg.DatabaseURL)
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to connect to database")
	}

	uowFactory := postgres.NewFactory(db)

	credentials := auth.NewCredentialService(cfg.BcryptCost)
	tokens := auth.NewTokenService(
		cfg.JWTSecret,
		time.Duration(cfg.JWTExpirationHours)*time.Hour,
		time.Duration(cfg.RefreshTokenTTLHours)*time.Hour,
	)

	var emailSender notify.EmailSender = notify.LogSender{}
	if cfg.SMTPAddr != "" {
		emailSender = notify.NewSMTPSender(cfg.SMTPAddr, cfg.SMTPFrom, cfg.SMTPUsername, cfg.SMTPPassword)
	}

	var presenceStore *presence.Store
	var presenceChecker service.PresenceChecker
	if cfg.RedisAddr != "" {
		presenceStore = presence.NewStore(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
		presenceChecker = presenceStore
	}

	hub := websocket.NewHub(presenceStore)
	go hub.Run()

	notifier := notify.NewBus(hub)
	services := service.NewServices(uowFactory, credentials, tokens, emailSender, notifier, presenceChecker, cfg)

	router := api.NewRouter(services, tokens, hub)

	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zlog.Info().Str("port", cfg.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zlog.Fatal().Err(err).Msg("server forced to shutdown")
	}
	hub.Stop()

	zlog.Info().Msg("server stopped")
}

func initLogging(env string) {
	zerolog.TimeFieldFormat = time.RFC3339
	if env == "development" {
		cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		zlog.Logger = zerolog.New(cw).With().Timestamp().Logger()
		return
	}
	zlog.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
