package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/giobyte8/newsroom/internal/config"
	"github.com/giobyte8/newsroom/internal/consumer"
	"github.com/giobyte8/newsroom/internal/db/sqlite"
	"github.com/giobyte8/newsroom/internal/news"
	"github.com/giobyte8/newsroom/internal/phonedb"
	"github.com/giobyte8/newsroom/internal/server"
	"github.com/giobyte8/newsroom/internal/services"
	"github.com/giobyte8/newsroom/internal/storage"
	"github.com/giobyte8/newsroom/internal/telemetry"
	"github.com/giobyte8/newsroom/internal/thumbfield"
	thumbsgen "github.com/giobyte8/newsroom/internal/thumbs_gen"
)

func setupLogging(level string) {
	var log_level slog.Level
	switch level {
	case "DEBUG", "debug":
		log_level = slog.LevelDebug
	case "WARN", "warn":
		log_level = slog.LevelWarn
	case "ERROR", "error":
		log_level = slog.LevelError
	default:
		log_level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     log_level,
		AddSource: false,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {

			// Format time to show only the time (HH:MM:SS)
			if a.Key == slog.TimeKey {
				a.Value = slog.StringValue(a.Value.Time().Format("15:04:05"))
			}

			return a
		},
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, handlerOpts))
	slog.SetDefault(logger)
}

func prepareStorage(cfg *config.Config) (storage.Storage, error) {
	switch cfg.StorageBackend {
	case "filesystem":
		return storage.NewFileSystemStorage(cfg.MediaRoot, cfg.MediaURL)
	case "memory":
		slog.Warn("Using in-memory storage, media is lost on restart")
		return storage.NewMemoryStorage(cfg.MediaURL), nil
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}
}

// prepareFields builds one image field per configured field name
func prepareFields(
	cfg *config.Config,
	store storage.Storage,
	telemetry *telemetry.TelemetrySvc,
) ([]*thumbfield.Field, error) {
	generator, err := thumbsgen.NewThumbsGenerator(cfg.ThumbsEngine)
	if err != nil {
		return nil, err
	}

	fields := make([]*thumbfield.Field, 0, len(cfg.Fields))
	for name, sizes := range cfg.Fields {
		slog.Debug("Registering image field", "field", name, "sizes", sizes)
		fields = append(fields, thumbfield.NewField(
			name,
			sizes,
			store,
			generator,
			telemetry.Metrics(),
		))
	}
	return fields, nil
}

func prepareAMQPConsumer(
	cfg *config.Config,
	thumbsSvc *services.ThumbnailsService,
	telemetry *telemetry.TelemetrySvc,
) (consumer.MessageConsumer, error) {
	return consumer.NewAMQPConsumer(cfg.AMQP, thumbsSvc, telemetry.Metrics())
}

func main() {
	if err := config.LoadEnvFile(".env"); err != nil {
		slog.Error("Error loading .env file", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	setupLogging(cfg.LogLevel)

	slog.Info("Starting Newsroom service...")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init telemetry services
	telemetry, err := telemetry.NewTelemetrySvc(ctx, telemetry.Config{
		OtelEnabled:           cfg.OtelEnabled,
		CollectorGrpcEndpoint: cfg.OtelCollectorGrpcEndpoint,
	})
	if err != nil {
		slog.Error("Failed to initialize Telemetry services", "error", err)
		os.Exit(1)
	}

	db, err := sqlite.Open(cfg.SQLitePath)
	if err != nil {
		slog.Error("Failed to open database", "path", cfg.SQLitePath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	store, err := prepareStorage(cfg)
	if err != nil {
		slog.Error("Failed to prepare media storage", "error", err)
		os.Exit(1)
	}

	fields, err := prepareFields(cfg, store, telemetry)
	if err != nil {
		slog.Error("Failed to prepare image fields", "error", err)
		os.Exit(1)
	}
	thumbsSvc := services.NewThumbnailsService(fields...)
	slog.Info("Image fields registered", "fields", thumbsSvc.Fields())

	var entryImage *thumbfield.Field
	for _, f := range fields {
		if f.Name() == config.NewsEntryImageField {
			entryImage = f
		}
	}
	if entryImage == nil {
		slog.Error("Missing image field", "field", config.NewsEntryImageField)
		os.Exit(1)
	}
	newsSvc := news.NewService(news.NewRepository(db), entryImage)
	thumbsSvc.AddReferenceCleaner(newsSvc)

	var amqpConsumer consumer.MessageConsumer
	if cfg.AMQP.Enabled() {
		amqpConsumer, err = prepareAMQPConsumer(cfg, thumbsSvc, telemetry)
		if err != nil {
			slog.Error("Failed to create AMQP consumer", "error", err)
			os.Exit(1)
		}

		if err := amqpConsumer.Start(ctx); err != nil {
			slog.Error("Failed to start AMQP consumer", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Info("RABBITMQ_HOST is not set, AMQP consumer disabled")
	}

	httpServer := &http.Server{
		Addr: cfg.ListenAddr,
		Handler: server.New(newsSvc, store, server.Options{
			MediaPrefix: cfg.MediaURL,
			Phones:      phonedb.NewRepository(db),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server failed", "error", err)
			cancel()
		}
	}()
	slog.Info("Newsroom service is running. Press Ctrl+C to stop.")

	// Graceful shutdown (listen for OS signals)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sigChan:
		slog.Info("Received OS signal, shutting down...", "signal", s.String())
	case <-ctx.Done():
		slog.Info(
			"Parent context cancelled, shutting down...",
			"reason",
			ctx.Err(),
		)
	}

	// --- --- --- --- --- --- --- --- --- --- --- ---
	// Perform graceful shutdown operations
	// before cancelling context

	shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Failed to shutdown HTTP server", "error", err)
	}
	if amqpConsumer != nil {
		amqpConsumer.Stop()
	}
	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		slog.Error("Failed to shutdown telemetry services", "error", err)
	}

	// Trigger context cancellation
	cancel()
	slog.Info("Newsroom service exited gracefully.")
}
