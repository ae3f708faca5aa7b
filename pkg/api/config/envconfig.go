package config

import (
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type EnvConfig struct {
	Port        string `envconfig:"PORT" default:"8000"`
	BaseURL     string `envconfig:"BASE_URL" default:"http://localhost:8000"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Blob store. Empty S3Endpoint selects the in-memory store, which
	// only makes sense for local single-process demos.
	S3Endpoint     string `envconfig:"S3_ENDPOINT"`
	S3AccessKey    string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey    string `envconfig:"S3_SECRET_KEY"`
	S3Region       string `envconfig:"S3_REGION"`
	S3Secure       bool   `envconfig:"S3_SECURE" default:"false"`
	ArtifactBucket string `envconfig:"ARTIFACT_BUCKET" default:"tortoise-artifacts"`

	// Queue and job metadata. Empty RedisAddr selects the in-memory
	// queue plus an embedded worker in the API process.
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	QueueName     string `envconfig:"QUEUE_NAME" default:"tortoise"`

	WorkerConcurrency int `envconfig:"WORKER_CONCURRENCY" default:"2"`
	TileCount         int `envconfig:"TILE_COUNT" default:"500"`
	PresignTTLSeconds int `envconfig:"PRESIGN_TTL" default:"3600"`
	JobTTLSeconds     int `envconfig:"JOB_TTL" default:"604800"` // 7 days
}

// PresignTTL returns the presigned URL expiry as a duration.
func (c *EnvConfig) PresignTTL() time.Duration {
	return time.Duration(c.PresignTTLSeconds) * time.Second
}

// JobTTL returns the job metadata retention as a duration.
func (c *EnvConfig) JobTTL() time.Duration {
	return time.Duration(c.JobTTLSeconds) * time.Second
}

// IsDev reports whether the process runs in development mode.
func (c *EnvConfig) IsDev() bool {
	return c.Environment != "production"
}

func ValidateEnv() (*EnvConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	} else {
		log.Println("Loaded .env file")
	}

	var cfg EnvConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var errors []string

	if cfg.S3Endpoint != "" && (cfg.S3AccessKey == "" || cfg.S3SecretKey == "") {
		errors = append(errors, "  S3_ACCESS_KEY and S3_SECRET_KEY are required when S3_ENDPOINT is set")
	}

	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		errors = append(errors, "  BASE_URL must be a valid URL")
	}

	if cfg.TileCount <= 0 {
		errors = append(errors, "  TILE_COUNT must be positive")
	}

	if cfg.WorkerConcurrency <= 0 {
		errors = append(errors, "  WORKER_CONCURRENCY must be positive")
	}

	if len(errors) > 0 {
		return nil, fmt.Errorf("environment validation failed:\n%s", strings.Join(errors, "\n"))
	}

	return &cfg, nil
}

func MaskSecret(secret string) string {
	if secret == "" {
		return "<not set>"
	}
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}

func (c *EnvConfig) Print(fmtr func(string, ...interface{})) {
	fmtr("Configuration:\n")
	fmtr("  Environment: %s\n", c.Environment)
	fmtr("  Port: %s\n", c.Port)
	fmtr("  Base URL: %s\n", c.BaseURL)

	if c.S3Endpoint != "" {
		fmtr("  Blob store: s3 %s/%s (ssl=%v)\n", c.S3Endpoint, c.ArtifactBucket, c.S3Secure)
		fmtr("    Access key: %s\n", MaskSecret(c.S3AccessKey))
	} else {
		fmtr("  Blob store: in-memory (demo mode)\n")
	}

	if c.RedisAddr != "" {
		fmtr("  Queue: redis %s db=%d list=%s\n", c.RedisAddr, c.RedisDB, c.QueueName)
	} else {
		fmtr("  Queue: in-memory with embedded worker\n")
	}

	fmtr("  Worker concurrency: %d\n", c.WorkerConcurrency)
	fmtr("  Tiles per run: %d\n", c.TileCount)
	fmtr("  Presign TTL: %ds\n", c.PresignTTLSeconds)
}
