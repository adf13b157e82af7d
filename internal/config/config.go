// Package config loads server configuration from a .env file and SHED_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/evcraddock/rentshed/internal/email"
	"github.com/evcraddock/rentshed/internal/media"
)

// Config holds server configuration.
type Config struct {
	DatabaseURL string // file path for SQLite or a postgres:// URL
	Port        int
	DevMode     bool
	AdminEmail  string
	BaseURL     string // e.g. http://localhost:8080

	ChatReplyDelay time.Duration
	BoardIdle      time.Duration

	Cloudinary media.CloudinaryConfig
	SMTP       email.SMTPConfig
}

// Load reads files (default ".env") into the environment without
// overriding variables that are already set, then builds a Config.
// Missing files are not an error.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				slog.Debug("no env file, using environment", "file", f)
				continue
			}
			return Config{}, fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from SHED_* environment variables.
func FromEnv() (Config, error) {
	cfg := Config{
		DatabaseURL: os.Getenv("SHED_DATABASE_URL"),
		DevMode:     os.Getenv("SHED_DEV_MODE") == "true",
		AdminEmail:  os.Getenv("SHED_ADMIN_EMAIL"),
		BaseURL:     envOrDefault("SHED_BASE_URL", "http://localhost:8080"),
		Cloudinary: media.CloudinaryConfig{
			CloudName: os.Getenv("SHED_CLOUDINARY_CLOUD_NAME"),
			APIKey:    os.Getenv("SHED_CLOUDINARY_API_KEY"),
			APISecret: os.Getenv("SHED_CLOUDINARY_API_SECRET"),
			Folder:    os.Getenv("SHED_CLOUDINARY_FOLDER"),
		},
		SMTP: email.SMTPConfig{
			Host: os.Getenv("SHED_SMTP_HOST"),
			Port: envOrDefault("SHED_SMTP_PORT", "587"),
			User: os.Getenv("SHED_SMTP_USER"),
			Pass: os.Getenv("SHED_SMTP_PASS"),
			From: os.Getenv("SHED_SMTP_FROM"),
		},
	}

	port, err := strconv.Atoi(envOrDefault("SHED_PORT", "8080"))
	if err != nil || port <= 0 || port > 65535 {
		return Config{}, fmt.Errorf("invalid SHED_PORT %q", os.Getenv("SHED_PORT"))
	}
	cfg.Port = port

	if cfg.ChatReplyDelay, err = envDuration("SHED_CHAT_REPLY_DELAY", time.Second); err != nil {
		return Config{}, err
	}
	if cfg.BoardIdle, err = envDuration("SHED_BOARD_IDLE", 30*time.Minute); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Secure reports whether cookies should be HTTPS-only.
func (c Config) Secure() bool {
	return !c.DevMode && strings.HasPrefix(c.BaseURL, "https://")
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return d, nil
}
