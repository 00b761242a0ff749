package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"go-notification-hub/internal/infrastructure/logger"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "notify.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom is Load with an explicit YAML path. A missing file is not an
// error.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	if err := loadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config env: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the operator
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg. Only non-empty values
// override.
func loadEnv(cfg *Config) error {
	// REACT_APP_API_URL is honoured so existing frontend deployments can share
	// one environment file
	setString(&cfg.Hub.Endpoint, "REACT_APP_API_URL")
	setString(&cfg.Hub.Endpoint, "NOTIFY_ENDPOINT")
	setString(&cfg.Hub.Token, "NOTIFY_TOKEN")
	setBool(&cfg.Hub.Credentials, "NOTIFY_CREDENTIALS")
	setList(&cfg.Hub.Transports, "NOTIFY_TRANSPORTS")
	setInt(&cfg.Hub.ReconnectionAttempts, "NOTIFY_RECONNECTION_ATTEMPTS")
	setDuration(&cfg.Hub.ReconnectionDelay, "NOTIFY_RECONNECTION_DELAY")
	setList(&cfg.Hub.Rooms, "NOTIFY_ROOMS")
	setBool(&cfg.Hub.RejoinRooms, "NOTIFY_REJOIN_ROOMS")

	setString(&cfg.Server.Addr, "NOTIFY_HTTP_ADDR")
	setDuration(&cfg.Server.ShutdownTimeout, "NOTIFY_SHUTDOWN_TIMEOUT")
	setInt(&cfg.Server.MaxReviewFeeds, "NOTIFY_MAX_REVIEW_FEEDS")

	if v := os.Getenv("NOTIFY_LOG_LEVEL"); v != "" {
		lvl, err := logger.ParseLevel(v)
		if err != nil {
			return err
		}
		cfg.Logging.Level = lvl
	}
	setString(&cfg.Logging.Format, "NOTIFY_LOG_FORMAT")
	setString(&cfg.Logging.Output, "NOTIFY_LOG_OUTPUT")
	setString(&cfg.Logging.FilePath, "NOTIFY_LOG_FILE")
	return nil
}

func validate(cfg *Config) error {
	if cfg.Hub.Endpoint == "" {
		return errors.New("hub.endpoint is required")
	}
	if cfg.Hub.ReconnectionAttempts < 0 {
		return errors.New("hub.reconnection_attempts must be >= 0")
	}
	if err := cfg.HubOptions().Transport.Validate(); err != nil {
		return fmt.Errorf("hub: %w", err)
	}
	for _, room := range cfg.Hub.Rooms {
		if room == "" {
			return errors.New("hub.rooms must not contain empty ids")
		}
	}
	if cfg.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if cfg.Server.MaxReviewFeeds <= 0 {
		return errors.New("server.max_review_feeds must be > 0")
	}
	return cfg.Logging.Validate()
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

// setList splits a comma separated value, dropping blanks.
func setList(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}
