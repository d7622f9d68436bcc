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

	"github.com/org/vitalguard/internal/api"
	"github.com/org/vitalguard/internal/notify"
	"github.com/org/vitalguard/internal/session"
	"github.com/org/vitalguard/internal/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type config struct {
	ListenAddr     string        `yaml:"listen_addr"`
	TLSCertFile    string        `yaml:"tls_cert"`
	TLSKeyFile     string        `yaml:"tls_key"`
	Storage        string        `yaml:"storage"` // "file" or "postgres"
	DataFile       string        `yaml:"data_file"`
	DBUrl          string        `yaml:"db_url"`
	MigrationsDir  string        `yaml:"migrations_dir"`
	LogLevel       string        `yaml:"log_level"`
	SessionIdleTTL time.Duration `yaml:"session_idle_ttl"`
	HistoryLimit   int           `yaml:"history_limit"`
	OutboxLimit    int           `yaml:"outbox_limit"`
	RateLimit      int           `yaml:"rate_limit"`
	RateBurst      int           `yaml:"rate_burst"`
}

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Load config
	cfgFile := "config.yaml"
	if v := os.Getenv("VITALGUARD_CONFIG"); v != "" {
		cfgFile = v
	}

	cfg := config{
		ListenAddr:     ":8300",
		Storage:        "file",
		DataFile:       "data/vitals.json",
		MigrationsDir:  "migrations",
		LogLevel:       "info",
		SessionIdleTTL: 8 * time.Hour,
		HistoryLimit:   60,
		OutboxLimit:    500,
	}

	if data, err := os.ReadFile(cfgFile); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatal().Err(err).Msg("failed to parse config")
		}
	} else {
		log.Warn().Str("file", cfgFile).Msg("config file not found, using defaults")
	}

	// Env overrides
	if v := os.Getenv("VITALGUARD_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("VITALGUARD_DATA_FILE"); v != "" {
		cfg.DataFile = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DBUrl = v
		cfg.Storage = "postgres"
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	ctx := context.Background()

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open vitals store")
	}
	defer store.Close()

	srv := api.NewServer(store, notify.NewOutbox(cfg.OutboxLimit), session.NewManager(cfg.SessionIdleTTL), api.Config{
		ListenAddr:   cfg.ListenAddr,
		TLSCertFile:  cfg.TLSCertFile,
		TLSKeyFile:   cfg.TLSKeyFile,
		HistoryLimit: cfg.HistoryLimit,
		RateLimit:    cfg.RateLimit,
		RateBurst:    cfg.RateBurst,
	})

	// Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	log.Info().Str("addr", cfg.ListenAddr).Str("storage", cfg.Storage).Msg("server started")
	<-quit

	log.Info().Msg("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
	log.Info().Msg("server stopped")
}

func openStore(ctx context.Context, cfg config) (storage.VitalsStore, error) {
	switch cfg.Storage {
	case "", "file":
		fb := storage.NewFileBackend(cfg.DataFile)
		if err := fb.LoadError(); err != nil {
			log.Warn().Err(err).Str("file", cfg.DataFile).Msg("starting with an empty dataset")
		}
		return fb, nil
	case "postgres":
		if cfg.DBUrl == "" {
			return nil, errors.New("db_url must be configured (or DATABASE_URL env var)")
		}
		if err := storage.RunMigrations(cfg.DBUrl, cfg.MigrationsDir); err != nil {
			return nil, fmt.Errorf("running migrations: %w", err)
		}
		log.Info().Msg("migrations applied")
		return storage.NewPostgresBackend(ctx, cfg.DBUrl)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}
}
