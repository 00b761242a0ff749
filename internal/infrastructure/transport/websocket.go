package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"go-notification-hub/internal/infrastructure/logger"
)

// WebSocket implements Transport over a single gorilla/websocket client
// connection, redialing after failures within Options.ReconnectionAttempts.
type WebSocket struct {
	endpoint string
	opts     Options
	dialer   *websocket.Dialer
	logger   logger.Logger

	routes   map[string]Handler
	routesMu sync.RWMutex

	hooks   Hooks
	hooksMu sync.RWMutex

	session   *session
	started   bool
	closed    bool
	cancel    context.CancelFunc
	done      chan struct{}
	sessionMu sync.Mutex
}

var _ Transport = (*WebSocket)(nil)

// session is one established connection. A reconnect creates a new session.
type session struct {
	conn         *websocket.Conn
	writeMu      sync.Mutex
	writeTimeout time.Duration
	closeOnce    sync.Once
}

// NewWebSocket prepares a transport for endpoint. http and https endpoints
// are rewritten to ws and wss. No connection is made until Connect.
func NewWebSocket(endpoint string, opts Options, log logger.Logger) (*WebSocket, error) {
	u, err := normalizeEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: opts.HandshakeTimeout,
	}
	if opts.Credentials {
		jar := opts.Jar
		if jar == nil {
			if jar, err = cookiejar.New(nil); err != nil {
				return nil, fmt.Errorf("create cookie jar: %w", err)
			}
		}
		dialer.Jar = jar
	}

	w := &WebSocket{
		endpoint: u.String(),
		opts:     opts,
		dialer:   dialer,
		logger:   log.WithFields(logger.Fields{"component": "transport", "endpoint": u.String()}),
		routes:   make(map[string]Handler),
	}

	for _, kind := range opts.Transports {
		if kind == KindPolling {
			w.logger.Debug("polling fallback requested, websocket is the only implemented transport")
		}
	}
	return w, nil
}

func normalizeEndpoint(endpoint string) (*url.URL, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("%w: empty endpoint", ErrInvalidOptions)
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: parse endpoint: %v", ErrInvalidOptions, err)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidOptions, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: endpoint %q has no host", ErrInvalidOptions, endpoint)
	}
	return u, nil
}

// Connect starts the connection goroutine and returns without waiting for
// the handshake. Calling it again while running is a no-op.
func (w *WebSocket) Connect(ctx context.Context) error {
	w.sessionMu.Lock()
	defer w.sessionMu.Unlock()

	if w.closed {
		return ErrClosed
	}
	if w.started {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	w.started = true

	go w.run(runCtx)
	return nil
}

func (w *WebSocket) On(event string, fn Handler) {
	if fn == nil {
		return
	}
	w.routesMu.Lock()
	w.routes[event] = fn
	w.routesMu.Unlock()
}

func (w *WebSocket) Off(event string) {
	w.routesMu.Lock()
	delete(w.routes, event)
	w.routesMu.Unlock()
}

func (w *WebSocket) SetHooks(hooks Hooks) {
	w.hooksMu.Lock()
	w.hooks = hooks
	w.hooksMu.Unlock()
}

// Emit writes one envelope on the live session.
func (w *WebSocket) Emit(ctx context.Context, event string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.sessionMu.Lock()
	sess, closed := w.session, w.closed
	w.sessionMu.Unlock()
	if closed {
		return ErrClosed
	}
	if sess == nil {
		return ErrNotConnected
	}

	env, err := NewEnvelope(event, payload)
	if err != nil {
		return err
	}
	frame, err := env.Marshal()
	if err != nil {
		return err
	}

	if err := sess.write(ctx, frame); err != nil {
		return fmt.Errorf("emit %s: %w", event, err)
	}
	w.logger.Debugf("Emitted %s (id: %s)", event, env.ID)
	return nil
}

// Disconnect stops reconnection and closes the live session. It does not
// wait for the connection goroutine, so it is safe to call from a Handler.
func (w *WebSocket) Disconnect() error {
	w.sessionMu.Lock()
	if w.closed {
		w.sessionMu.Unlock()
		return nil
	}
	w.closed = true
	sess := w.session
	w.session = nil
	if w.cancel != nil {
		w.cancel()
	}
	w.sessionMu.Unlock()

	if sess != nil {
		sess.close(websocket.CloseNormalClosure, ReasonClientDisconnect)
	}
	w.logger.Info("WebSocket transport disconnected")
	return nil
}

// Done is closed when the connection goroutine has exited. It is nil before
// Connect.
func (w *WebSocket) Done() <-chan struct{} {
	w.sessionMu.Lock()
	defer w.sessionMu.Unlock()
	return w.done
}

// run dials, serves the session until it drops, and redials until the
// retry budget is spent or the context is cancelled.
func (w *WebSocket) run(ctx context.Context) {
	defer close(w.done)

	retries := 0
	for {
		sess, err := w.dial(ctx)
		if err == nil {
			retries = 0
			reason := w.serve(ctx, sess)
			if ctx.Err() != nil {
				return
			}
			w.logger.Warnf("Connection lost: %s", reason)
			w.fireDisconnect(reason)
		} else {
			if ctx.Err() != nil {
				return
			}
			w.logger.Errorf("Connection error: %v", err)
			w.fireConnectError(err)
		}

		if retries >= w.opts.ReconnectionAttempts {
			w.logger.Errorf("Giving up after %d reconnection attempts", retries)
			w.fireReconnectFailed()
			return
		}
		retries++

		w.logger.Infof("Reconnecting in %s (attempt %d/%d)", w.opts.ReconnectionDelay, retries, w.opts.ReconnectionAttempts)
		w.fireReconnecting(retries)
		if !sleepContext(ctx, w.opts.ReconnectionDelay) {
			return
		}
	}
}

func (w *WebSocket) dial(ctx context.Context) (*session, error) {
	header := http.Header{}
	for k, v := range w.opts.Header {
		header[k] = append([]string(nil), v...)
	}
	if w.opts.Credentials && w.opts.Token != "" {
		header.Set("Authorization", "Bearer "+w.opts.Token)
	}

	conn, resp, err := w.dialer.DialContext(ctx, w.endpoint, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", w.endpoint, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", w.endpoint, err)
	}

	sess := &session{conn: conn, writeTimeout: w.opts.WriteTimeout}

	w.sessionMu.Lock()
	if w.closed {
		w.sessionMu.Unlock()
		sess.close(websocket.CloseNormalClosure, ReasonClientDisconnect)
		return nil, ErrClosed
	}
	w.session = sess
	w.sessionMu.Unlock()

	return sess, nil
}

// serve runs the read pump for sess and returns the disconnect reason.
func (w *WebSocket) serve(ctx context.Context, sess *session) string {
	w.setupKeepAlive(sess)
	w.logger.Info("WebSocket connection established")
	w.fireConnect()

	pingCtx, stopPing := context.WithCancel(ctx)
	go w.pingPump(pingCtx, sess)

	reason := w.readPump(sess)

	stopPing()
	w.sessionMu.Lock()
	if w.session == sess {
		w.session = nil
	}
	w.sessionMu.Unlock()
	sess.close(websocket.CloseNormalClosure, "")

	return reason
}

// setupKeepAlive arms the read deadline and extends it on every pong.
func (w *WebSocket) setupKeepAlive(sess *session) {
	if w.opts.PongTimeout <= 0 {
		return
	}
	sess.conn.SetReadDeadline(time.Now().Add(w.opts.PongTimeout))
	sess.conn.SetPongHandler(func(string) error {
		return sess.conn.SetReadDeadline(time.Now().Add(w.opts.PongTimeout))
	})
}

func (w *WebSocket) pingPump(ctx context.Context, sess *session) {
	if w.opts.PingInterval <= 0 {
		return
	}
	ticker := time.NewTicker(w.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			deadline := time.Now().Add(w.opts.WriteTimeout)
			if err := sess.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				w.logger.Debugf("Failed to send ping: %v", err)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// readPump delivers inbound frames in the order received until the
// connection fails.
func (w *WebSocket) readPump(sess *session) string {
	for {
		messageType, data, err := sess.conn.ReadMessage()
		if err != nil {
			return disconnectReason(err)
		}
		if w.opts.PongTimeout > 0 {
			sess.conn.SetReadDeadline(time.Now().Add(w.opts.PongTimeout))
		}

		switch messageType {
		case websocket.TextMessage:
			w.deliver(data)
		case websocket.BinaryMessage:
			w.logger.Debugf("Ignoring binary frame of length %d", len(data))
		}
	}
}

func (w *WebSocket) deliver(frame []byte) {
	env, err := DecodeEnvelope(frame)
	if err != nil {
		w.logger.Warnf("Dropping inbound frame: %v", err)
		return
	}

	w.routesMu.RLock()
	fn := w.routes[env.Event]
	w.routesMu.RUnlock()

	if fn == nil {
		w.logger.Debugf("No route for event %s, discarding", env.Event)
		return
	}
	fn(env.Data)
}

func disconnectReason(err error) string {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		switch ce.Code {
		case websocket.CloseNormalClosure, websocket.CloseGoingAway:
			return ReasonServerDisconnect
		default:
			return fmt.Sprintf("%s: close %d %s", ReasonTransportError, ce.Code, ce.Text)
		}
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return ReasonPingTimeout
	}
	return ReasonTransportClose
}

func (s *session) write(ctx context.Context, frame []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var deadline time.Time
	if s.writeTimeout > 0 {
		deadline = time.Now().Add(s.writeTimeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	if err := s.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, frame)
}

func (s *session) close(code int, reason string) {
	s.closeOnce.Do(func() {
		deadline := time.Now().Add(time.Second)
		_ = s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
		_ = s.conn.Close()
	})
}

func (w *WebSocket) fireConnect() {
	w.hooksMu.RLock()
	fn := w.hooks.OnConnect
	w.hooksMu.RUnlock()
	if fn != nil {
		fn()
	}
}

func (w *WebSocket) fireDisconnect(reason string) {
	w.hooksMu.RLock()
	fn := w.hooks.OnDisconnect
	w.hooksMu.RUnlock()
	if fn != nil {
		fn(reason)
	}
}

func (w *WebSocket) fireConnectError(err error) {
	w.hooksMu.RLock()
	fn := w.hooks.OnConnectError
	w.hooksMu.RUnlock()
	if fn != nil {
		fn(err)
	}
}

func (w *WebSocket) fireReconnecting(attempt int) {
	w.hooksMu.RLock()
	fn := w.hooks.OnReconnecting
	w.hooksMu.RUnlock()
	if fn != nil {
		fn(attempt)
	}
}

func (w *WebSocket) fireReconnectFailed() {
	w.hooksMu.RLock()
	fn := w.hooks.OnReconnectFailed
	w.hooksMu.RUnlock()
	if fn != nil {
		fn()
	}
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
