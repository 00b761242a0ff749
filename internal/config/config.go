// Package config loads the notification client configuration.
package config

import (
	"time"

	"go-notification-hub/internal/application/facade"
	"go-notification-hub/internal/infrastructure/hub"
	"go-notification-hub/internal/infrastructure/logger"
	"go-notification-hub/internal/infrastructure/transport"
)

// Config is the full process configuration.
type Config struct {
	Hub     Hub           `yaml:"hub"`
	Server  Server        `yaml:"server"`
	Logging logger.Config `yaml:"logging"`
}

// Hub configures the event hub connection.
type Hub struct {
	Endpoint             string        `yaml:"endpoint"`
	Credentials          bool          `yaml:"credentials"`
	Token                string        `yaml:"token"`
	Transports           []string      `yaml:"transports"`
	ReconnectionAttempts int           `yaml:"reconnection_attempts"`
	ReconnectionDelay    time.Duration `yaml:"reconnection_delay"`
	HandshakeTimeout     time.Duration `yaml:"handshake_timeout"`
	PingInterval         time.Duration `yaml:"ping_interval"`
	PongTimeout          time.Duration `yaml:"pong_timeout"`
	Rooms                []string      `yaml:"rooms"`
	RejoinRooms          bool          `yaml:"rejoin_rooms"`
}

// Server configures the local status HTTP surface.
type Server struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// MaxReviewFeeds caps how many products have live review feeds.
	MaxReviewFeeds  int           `yaml:"max_review_feeds"`
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() Config {
	tr := transport.DefaultOptions()
	return Config{
		Hub: Hub{
			Endpoint:             "ws://localhost:3000/ws",
			Credentials:          tr.Credentials,
			Transports:           tr.Transports,
			ReconnectionAttempts: tr.ReconnectionAttempts,
			ReconnectionDelay:    tr.ReconnectionDelay,
			HandshakeTimeout:     tr.HandshakeTimeout,
			PingInterval:         tr.PingInterval,
			PongTimeout:          tr.PongTimeout,
		},
		Server: Server{
			Addr:            ":8080",
			ShutdownTimeout: 5 * time.Second,
			MaxReviewFeeds:  facade.DefaultMaxReviewFeeds,
		},
		Logging: *logger.NewDefaultConfig(),
	}
}

// HubOptions converts the hub section into hub.Options.
func (c *Config) HubOptions() hub.Options {
	opts := hub.DefaultOptions()
	opts.RejoinRooms = c.Hub.RejoinRooms
	opts.Transport.Credentials = c.Hub.Credentials
	opts.Transport.Token = c.Hub.Token
	opts.Transport.Transports = c.Hub.Transports
	opts.Transport.ReconnectionAttempts = c.Hub.ReconnectionAttempts
	opts.Transport.ReconnectionDelay = c.Hub.ReconnectionDelay
	opts.Transport.HandshakeTimeout = c.Hub.HandshakeTimeout
	opts.Transport.PingInterval = c.Hub.PingInterval
	opts.Transport.PongTimeout = c.Hub.PongTimeout
	return opts
}
