package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	ErrNotConnected         = errors.New("transport is not connected")
	ErrClosed               = errors.New("transport is closed")
	ErrUnsupportedTransport = errors.New("unsupported transport")
	ErrInvalidOptions       = errors.New("invalid transport options")
)

// Transport kinds accepted in Options.Transports.
const (
	KindWebSocket = "websocket"
	KindPolling   = "polling"
)

// Disconnect reasons reported through Hooks.OnDisconnect.
const (
	ReasonServerDisconnect = "io server disconnect"
	ReasonClientDisconnect = "io client disconnect"
	ReasonPingTimeout      = "ping timeout"
	ReasonTransportClose   = "transport close"
	ReasonTransportError   = "transport error"
)

// Handler receives the raw payload of one inbound event.
type Handler func(payload json.RawMessage)

// Hooks observe connection lifecycle. All fields are optional. Hooks run on
// the transport's connection goroutine and must not block.
type Hooks struct {
	OnConnect         func()
	OnDisconnect      func(reason string)
	OnConnectError    func(err error)
	OnReconnecting    func(attempt int)
	OnReconnectFailed func()
}

// Transport is a persistent bidirectional channel carrying named events.
type Transport interface {
	// Connect starts establishing the connection and returns immediately.
	Connect(ctx context.Context) error
	// On routes inbound messages for event to fn, replacing any previous route.
	On(event string, fn Handler)
	// Off removes the route for event.
	Off(event string)
	// Emit sends one event. It fails with ErrNotConnected instead of queuing.
	Emit(ctx context.Context, event string, payload any) error
	// Disconnect closes the connection and stops reconnecting. Safe to call
	// more than once.
	Disconnect() error
	SetHooks(hooks Hooks)
}

// Options configure the WebSocket transport.
type Options struct {
	// Credentials attaches the session cookie jar and bearer token to the
	// handshake.
	Credentials bool
	Token       string
	Jar         http.CookieJar
	Header      http.Header

	Transports []string

	// ReconnectionAttempts is the number of retries after a failed connect or
	// a lost connection before giving up. Zero disables reconnection.
	ReconnectionAttempts int
	ReconnectionDelay    time.Duration

	HandshakeTimeout time.Duration
	PingInterval     time.Duration
	PongTimeout      time.Duration
	WriteTimeout     time.Duration
}

// DefaultOptions mirror the notification client's historical settings.
func DefaultOptions() Options {
	return Options{
		Credentials:          true,
		Transports:           []string{KindWebSocket, KindPolling},
		ReconnectionAttempts: 5,
		ReconnectionDelay:    time.Second,
		HandshakeTimeout:     10 * time.Second,
		PingInterval:         25 * time.Second,
		PongTimeout:          60 * time.Second,
		WriteTimeout:         10 * time.Second,
	}
}

func (o Options) Validate() error {
	if o.ReconnectionAttempts < 0 {
		return fmt.Errorf("%w: reconnection attempts must be >= 0", ErrInvalidOptions)
	}
	if o.ReconnectionDelay < 0 {
		return fmt.Errorf("%w: reconnection delay must be >= 0", ErrInvalidOptions)
	}
	if o.PingInterval > 0 && o.PongTimeout > 0 && o.PongTimeout <= o.PingInterval {
		return fmt.Errorf("%w: pong timeout must exceed ping interval", ErrInvalidOptions)
	}

	hasWebSocket := false
	for _, kind := range o.Transports {
		switch kind {
		case KindWebSocket:
			hasWebSocket = true
		case KindPolling:
		default:
			return fmt.Errorf("%w: %q", ErrUnsupportedTransport, kind)
		}
	}
	if !hasWebSocket {
		return fmt.Errorf("%w: websocket must be enabled", ErrUnsupportedTransport)
	}
	return nil
}
