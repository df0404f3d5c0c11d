package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"notes-server/internal/config"
	"notes-server/internal/handler"
	"notes-server/internal/middleware"
	"notes-server/internal/service"
	"notes-server/internal/telemetry"
	"notes-server/internal/websocket"
	"notes-server/pkg/jwt"
	"notes-server/pkg/logger"
)

const tracerName = "notes-server/http"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "notes-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logData, err := logger.New().
		FromPath(cfg.Logging.File).
		WithLevel(cfg.Logging.Level).
		WithFormat(cfg.Logging.Format).
		Make()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logData.Close()
	log := logData.Logger.With().Str("env", cfg.Server.Env).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName: cfg.Telemetry.ServiceName,
		Endpoint:    cfg.Telemetry.Endpoint,
		Enabled:     cfg.Telemetry.Enabled,
	})
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}

	store, err := openStorage(ctx, cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.close()

	if cfg.Token.Ephemeral {
		log.Warn().Msg("TOKEN_PRIVATE_KEY not set, using an ephemeral signing key; tokens will not survive a restart")
	}
	tokens, err := jwt.NewManager(jwt.Config{
		PrivateKey: cfg.Token.PrivateKey,
		PublicKey:  cfg.Token.PublicKey,
		TTL:        cfg.Token.TTL,
		Issuer:     cfg.Token.Issuer,
	})
	if err != nil {
		return fmt.Errorf("create token manager: %w", err)
	}

	wsManager := websocket.NewManager(websocket.Config{
		MaxConnPerUser: cfg.WebSocket.MaxConnPerUser,
		MaxMessageSize: cfg.WebSocket.MaxMessageSize,
		WriteWait:      cfg.WebSocket.WriteWait,
		PongWait:       cfg.WebSocket.PongWait,
		PingPeriod:     cfg.WebSocket.PingPeriod,
	}, log)
	go wsManager.Run(ctx)

	userService := service.NewUserService(store.users)
	authService := service.NewAuthService(store.users, tokens)
	noteService := service.NewNoteService(store.notes, service.WithNotifier(wsManager))

	router := handler.NewRouter(handler.RouterConfig{
		Auth:          handler.NewAuthHandler(userService, authService),
		Users:         handler.NewUserHandler(userService),
		Notes:         handler.NewNoteHandler(noteService),
		WebSocket:     handler.NewWebSocketHandler(wsManager, authService, cfg.CORS.AllowedOrigins),
		Health:        handler.NewHealthHandler(store.ping),
		Authenticator: authService,
		Logger:        log,
		TracerName:    tracerName,
		CORS: middleware.CORSOptions{
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			AllowedMethods: cfg.CORS.AllowedMethods,
			AllowedHeaders: cfg.CORS.AllowedHeaders,
		},
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("storage", cfg.Storage.Driver).Msg("starting notes server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("flush traces")
	}

	log.Info().Msg("server stopped gracefully")
	return nil
}
