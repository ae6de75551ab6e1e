package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/felipepmaragno/bedrock-gateway/internal/api"
	"github.com/felipepmaragno/bedrock-gateway/internal/auth"
	"github.com/felipepmaragno/bedrock-gateway/internal/config"
	"github.com/felipepmaragno/bedrock-gateway/internal/httputil"
	"github.com/felipepmaragno/bedrock-gateway/internal/metrics"
	"github.com/felipepmaragno/bedrock-gateway/internal/notifications"
	"github.com/felipepmaragno/bedrock-gateway/internal/provider/bedrock"
	"github.com/felipepmaragno/bedrock-gateway/internal/router"
	"github.com/felipepmaragno/bedrock-gateway/internal/secrets"
	"github.com/felipepmaragno/bedrock-gateway/internal/telemetry"
)

const version = "0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	slog.Info("starting bedrock gateway", "addr", cfg.Addr, "version", version, "region", cfg.AWSRegion)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := telemetry.Init(ctx, "bedrock-gateway", version, cfg.OTLPEndpoint)
	if err != nil {
		slog.Error("failed to initialize telemetry", "error", err)
		os.Exit(1)
	}

	awsCfg, err := cfg.AWSConfig(ctx, httputil.DefaultClient())
	if err != nil {
		slog.Error("failed to load aws config", "error", err)
		os.Exit(1)
	}

	if cfg.SecretsManagerSecretID != "" {
		store := secrets.NewAWSSecretsManagerWithConfig(awsCfg)
		if err := cfg.ApplySecrets(ctx, store, cfg.SecretsManagerSecretID); err != nil {
			slog.Error("failed to load secrets", "error", err, "secret_id", cfg.SecretsManagerSecretID)
			os.Exit(1)
		}
		slog.Info("applied secrets manager overlay", "secret_id", cfg.SecretsManagerSecretID)
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	var notifier notifications.Notifier
	if cfg.SNSTopicARN != "" {
		notifier = notifications.NewSNSNotifierWithConfig(awsCfg, cfg.SNSTopicARN)
		slog.Info("upstream failure notifications enabled", "topic_arn", cfg.SNSTopicARN)
	}

	if cfg.UsesDefaultSecret() {
		slog.Warn("JWT_SECRET_KEY is not set, tokens are signed with the built-in default key")
		if notifier != nil {
			if err := notifier.Send(ctx, notifications.Notification{
				Type:    notifications.NotificationDefaultSecret,
				Message: "gateway started with the default JWT signing key",
			}); err != nil {
				slog.Warn("failed to send default secret notification", "error", err)
			}
		}
	}

	issuer, err := auth.NewTokenIssuer(cfg.JWTSecretKey, cfg.JWTAlgorithm, cfg.AccessTokenTTL)
	if err != nil {
		slog.Error("failed to create token issuer", "error", err)
		os.Exit(1)
	}
	verifier, err := auth.NewTokenVerifier(cfg.JWTSecretKey, cfg.JWTAlgorithm, cfg.ServiceAccountUsername)
	if err != nil {
		slog.Error("failed to create token verifier", "error", err)
		os.Exit(1)
	}

	providerRouter := router.New(bedrock.NewWithConfig(awsCfg, notifier))
	slog.Info("registered providers", "providers", providerRouter.ListProviders())

	metrics.InitInstanceMetrics(version, cfg.AWSRegion)

	handler := api.NewHandler(api.HandlerConfig{
		Router:         providerRouter,
		Identity:       auth.Identity{Username: cfg.ServiceAccountUsername, Password: cfg.ServiceAccountPassword},
		Issuer:         issuer,
		Verifier:       verifier,
		AccessTokenTTL: cfg.AccessTokenTTL,
		Checkers:       api.ProviderCheckers(providerRouter),
		Version:        version,

		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      150 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		slog.Warn("failed to flush traces", "error", err)
	}

	slog.Info("server stopped")
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
