// Package config loads the service configuration from environment
// variables, optionally seeded from a .env file, plus an optional
// YAML file describing image fields and their thumbnail sizes.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	thumbsgen "github.com/giobyte8/newsroom/internal/thumbs_gen"
)

// Field holding the image of news entries
const NewsEntryImageField = "news.entry.image"

const (
	defaultListenAddr     = ":8080"
	defaultMediaRoot      = "./media"
	defaultMediaURL       = "/media/"
	defaultSQLitePath     = "./newsroom.db"
	defaultThumbnailSizes = "125x125,300x200"
)

type AMQPConfig struct {
	Host string
	Port string
	User string
	Pass string

	Exchange           string
	ThumbsGenQueueName string
	ThumbsDelQueueName string
}

// Enabled reports whether a broker was configured at all
func (c AMQPConfig) Enabled() bool {
	return c.Host != ""
}

func (c AMQPConfig) URI() string {
	return fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		c.User,
		c.Pass,
		c.Host,
		c.Port,
	)
}

type Config struct {
	LogLevel   string
	ListenAddr string

	MediaRoot      string
	MediaURL       string
	StorageBackend string
	ThumbsEngine   string

	// Thumbnail sizes per image field, keyed by field name
	Fields map[string][]thumbsgen.Size

	SQLitePath string

	AMQP AMQPConfig

	OtelEnabled               bool
	OtelCollectorGrpcEndpoint string
}

// LoadEnvFile loads variables from path into the environment when
// the file exists. Variables already set are not overridden.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		slog.Warn("No .env file found, using environment variables directly.")
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load builds the configuration from the current environment.
func Load() (*Config, error) {
	cfg := &Config{
		LogLevel:       os.Getenv("LOG_LEVEL"),
		ListenAddr:     getEnv("LISTEN_ADDR", defaultListenAddr),
		MediaRoot:      getEnv("MEDIA_ROOT", defaultMediaRoot),
		MediaURL:       getEnv("MEDIA_URL", defaultMediaURL),
		StorageBackend: getEnv("STORAGE_BACKEND", "filesystem"),
		ThumbsEngine:   getEnv("THUMBS_ENGINE", thumbsgen.EngineImaging),
		SQLitePath:     getEnv("SQLITE_DB_PATH", defaultSQLitePath),

		AMQP: AMQPConfig{
			Host:               os.Getenv("RABBITMQ_HOST"),
			Port:               getEnv("RABBITMQ_PORT", "5672"),
			User:               os.Getenv("RABBITMQ_USER"),
			Pass:               os.Getenv("RABBITMQ_PASS"),
			Exchange:           os.Getenv("AMQP_EXCHANGE"),
			ThumbsGenQueueName: os.Getenv("AMQP_QUEUE_THUMB_GEN_REQUESTS"),
			ThumbsDelQueueName: os.Getenv("AMQP_QUEUE_THUMB_DEL_REQUESTS"),
		},

		OtelEnabled:               os.Getenv("OTEL_ENABLED") == "true",
		OtelCollectorGrpcEndpoint: os.Getenv("OTEL_COLLECTOR_GRPC_ENDPOINT"),
	}

	sizesStr := os.Getenv("THUMBNAIL_SIZES")
	if sizesStr == "" {
		slog.Warn(
			"THUMBNAIL_SIZES is not set. Using defaults.",
			"default",
			defaultThumbnailSizes,
		)
		sizesStr = defaultThumbnailSizes
	}

	sizes, err := ParseSizes(sizesStr)
	if err != nil {
		return nil, fmt.Errorf("invalid THUMBNAIL_SIZES: %w", err)
	}
	cfg.Fields = map[string][]thumbsgen.Size{
		NewsEntryImageField: sizes,
	}

	if fieldsFile := os.Getenv("THUMBS_FIELDS_FILE"); fieldsFile != "" {
		fields, err := LoadFieldsFile(fieldsFile)
		if err != nil {
			return nil, err
		}

		// Fields file entries take precedence over THUMBNAIL_SIZES
		for name, sizes := range fields {
			cfg.Fields[name] = sizes
		}
	}

	if cfg.OtelEnabled && cfg.OtelCollectorGrpcEndpoint == "" {
		return nil, fmt.Errorf(
			"OTEL_COLLECTOR_GRPC_ENDPOINT is required when OTEL_ENABLED=true",
		)
	}

	return cfg, nil
}

// ParseSizes parses a comma separated list of sizes such as
// "125x125, 300x200". Duplicated sizes are rejected since they would
// collide on the thumbnail name.
func ParseSizes(s string) ([]thumbsgen.Size, error) {
	var sizes []thumbsgen.Size
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}

		size, err := thumbsgen.ParseSize(part)
		if err != nil {
			return nil, err
		}
		sizes = append(sizes, size)
	}

	if err := checkDuplicates(sizes); err != nil {
		return nil, err
	}
	return sizes, nil
}

func checkDuplicates(sizes []thumbsgen.Size) error {
	seen := make(map[thumbsgen.Size]bool, len(sizes))
	for _, size := range sizes {
		if seen[size] {
			return fmt.Errorf("duplicated thumbnail size %s", size)
		}
		seen[size] = true
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
