package hub

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"go-notification-hub/internal/domain/event"
	"go-notification-hub/internal/infrastructure/logger"
	"go-notification-hub/internal/infrastructure/transport"
)

const emitTimeout = 5 * time.Second

// Options configure an EventHub.
type Options struct {
	Transport transport.Options
	// RejoinRooms re-emits join for every room requested on the previous
	// connection once the transport reconnects. Off by default: room
	// membership lives only as long as one connection.
	RejoinRooms bool
}

func DefaultOptions() Options {
	return Options{Transport: transport.DefaultOptions()}
}

// EventHub owns one transport connection, the listener registry, and the
// connection state. Inbound events are fanned out to listeners in
// registration order; listener failures are logged and isolated.
//
// A listener removed before its turn in a dispatch pass is skipped, even
// within the pass that is already running. A listener that is already
// executing when another goroutine unsubscribes it finishes that one call.
type EventHub struct {
	id        string
	transport transport.Transport
	logger    logger.Logger
	opts      Options

	registry   *registry
	state      ConnectionState
	lastReason string
	terminal   bool
	closed     bool
	rooms      []string
	// generation changes on every connect and disconnect, so room
	// bookkeeping can tell which connection an emit went out on.
	generation uint64
	mu         sync.RWMutex
}

// Dial creates a WebSocket transport for endpoint and starts the hub on it.
func Dial(endpoint string, opts Options, log logger.Logger) (*EventHub, error) {
	tr, err := transport.NewWebSocket(endpoint, opts.Transport, log)
	if err != nil {
		return nil, err
	}
	return New(tr, opts, log), nil
}

// New starts connecting tr and returns without waiting for the handshake.
func New(tr transport.Transport, opts Options, log logger.Logger) *EventHub {
	id := uuid.NewString()
	h := &EventHub{
		id:        id,
		transport: tr,
		logger:    log.WithFields(logger.Fields{"component": "hub", "hub_id": id}),
		opts:      opts,
		registry:  newRegistry(),
		state:     StateConnecting,
	}

	tr.SetHooks(transport.Hooks{
		OnConnect:         h.handleConnect,
		OnDisconnect:      h.handleDisconnect,
		OnConnectError:    h.handleConnectError,
		OnReconnecting:    h.handleReconnecting,
		OnReconnectFailed: h.handleReconnectFailed,
	})

	if err := tr.Connect(context.Background()); err != nil {
		h.logger.Errorf("Failed to start transport: %v", err)
		h.mu.Lock()
		h.state = StateDisconnected
		h.terminal = true
		h.mu.Unlock()
	}
	return h
}

func (h *EventHub) ID() string {
	return h.id
}

// Subscribe registers cb for name. Registering the same pair twice keeps a
// single entry. Subscribing while disconnected is allowed; delivery starts
// once connected. After Teardown it returns an inert Subscription.
func (h *EventHub) Subscribe(name event.Name, cb *Callback) *Subscription {
	if cb == nil {
		return &Subscription{event: name}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		h.logger.Debugf("Ignoring subscribe to %s after teardown", name)
		return &Subscription{event: name}
	}

	added, first := h.registry.add(name, cb)
	if first {
		h.transport.On(string(name), h.dispatcher(name))
	}
	if added {
		h.logger.Debugf("Listener added for %s (total: %d)", name, h.registry.count(name))
	}
	if !event.IsKnown(name) {
		h.logger.Debugf("Subscribed to %s which is not in catalog v%d", name, event.CatalogVersion)
	}

	return &Subscription{hub: h, event: name, callback: cb}
}

// Unsubscribe removes cb from name. It is a no-op if the pair is not
// registered. Once it returns, no later dispatch reaches cb.
func (h *EventHub) Unsubscribe(name event.Name, cb *Callback) {
	if cb == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	removed, last := h.registry.remove(name, cb)
	if last {
		h.transport.Off(string(name))
	}
	if removed {
		h.logger.Debugf("Listener removed for %s (remaining: %d)", name, h.registry.count(name))
	}
}

func (h *EventHub) IsConnected() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state == StateConnected
}

func (h *EventHub) State() ConnectionState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

func (h *EventHub) LastDisconnectReason() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.lastReason
}

// JoinRoom asks the server to add this connection to roomID. It does
// nothing unless connected and roomID is non-empty; nothing is queued. It
// reports whether the join was sent on the connection that is still current.
func (h *EventHub) JoinRoom(ctx context.Context, roomID string) bool {
	gen, ok := h.emitControl(ctx, event.Join, roomID)
	if !ok {
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.generation != gen {
		h.logger.Debugf("Connection changed while joining %s, not recording it", roomID)
		return false
	}
	if !slices.Contains(h.rooms, roomID) {
		h.rooms = append(h.rooms, roomID)
	}
	return true
}

// LeaveRoom is the counterpart of JoinRoom with the same policy.
func (h *EventHub) LeaveRoom(ctx context.Context, roomID string) bool {
	gen, ok := h.emitControl(ctx, event.Leave, roomID)
	if !ok {
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.generation != gen {
		return false
	}
	h.rooms = slices.DeleteFunc(h.rooms, func(r string) bool { return r == roomID })
	return true
}

// emitControl sends a room control message and returns the connection
// generation it was sent on.
func (h *EventHub) emitControl(ctx context.Context, name event.Name, roomID string) (uint64, bool) {
	h.mu.RLock()
	connected, gen := h.state == StateConnected, h.generation
	h.mu.RUnlock()

	if roomID == "" || !connected {
		h.logger.Debugf("Skipping %s for room %q: not connected or empty room", name, roomID)
		return 0, false
	}

	ctx, cancel := context.WithTimeout(ctx, emitTimeout)
	defer cancel()

	if err := h.transport.Emit(ctx, string(name), roomID); err != nil {
		h.logger.Warnf("Failed to emit %s for room %s: %v", name, roomID, err)
		return 0, false
	}
	h.logger.Infof("Requested %s for room %s", name, roomID)
	return gen, true
}

// Rooms lists the rooms requested on the current connection.
func (h *EventHub) Rooms() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.rooms)
}

func (h *EventHub) ListenerCount(name event.Name) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.registry.count(name)
}

// Events lists the events that currently have listeners.
func (h *EventHub) Events() []event.Name {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.registry.events()
}

func (h *EventHub) Status() Status {
	h.mu.RLock()
	defer h.mu.RUnlock()

	listeners := make(map[string]int)
	for _, name := range h.registry.events() {
		listeners[string(name)] = h.registry.count(name)
	}
	return Status{
		ID:                   h.id,
		State:                h.state.String(),
		Connected:            h.state == StateConnected,
		Terminal:             h.terminal,
		LastDisconnectReason: h.lastReason,
		Listeners:            listeners,
		Rooms:                slices.Clone(h.rooms),
	}
}

// Teardown removes every listener, closes the transport and leaves the hub
// disconnected for good. Safe to call more than once, including from inside
// a listener.
func (h *EventHub) Teardown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	h.terminal = true
	for _, name := range h.registry.clear() {
		h.transport.Off(string(name))
	}
	h.state = StateDisconnected
	h.rooms = nil
	h.mu.Unlock()

	if err := h.transport.Disconnect(); err != nil {
		h.logger.Errorf("Failed to disconnect transport: %v", err)
	}
	h.logger.Info("Hub torn down")
}

func (h *EventHub) dispatcher(name event.Name) transport.Handler {
	return func(payload json.RawMessage) {
		h.dispatch(name, payload)
	}
}

// dispatch delivers payload to a snapshot of name's listeners. The lock is
// not held while listeners run, so they may subscribe, unsubscribe or tear
// the hub down.
func (h *EventHub) dispatch(name event.Name, payload json.RawMessage) {
	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return
	}
	regs := h.registry.snapshot(name)
	h.mu.RUnlock()

	for _, reg := range regs {
		if !reg.active.Load() {
			continue
		}
		if err := reg.callback.invoke(payload); err != nil {
			h.logger.WithField("event", string(name)).Errorf("Listener failed: %v", err)
		}
	}
}

func (h *EventHub) handleConnect() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.state = StateConnected
	h.terminal = false
	h.generation++
	var rejoin []string
	if h.opts.RejoinRooms {
		rejoin = slices.Clone(h.rooms)
	}
	h.mu.Unlock()

	h.logger.Info("Connected to notification server")

	for _, room := range rejoin {
		h.emitControl(context.Background(), event.Join, room)
	}
}

func (h *EventHub) handleDisconnect(reason string) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.state = StateDisconnected
	h.generation++
	h.lastReason = reason
	if !h.opts.RejoinRooms {
		h.rooms = nil
	}
	h.mu.Unlock()

	h.logger.Warnf("Disconnected from notification server: %s", reason)
}

func (h *EventHub) handleConnectError(err error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.state = StateDisconnected
	h.mu.Unlock()

	h.logger.Errorf("Connection error: %v", err)
}

func (h *EventHub) handleReconnecting(attempt int) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.state = StateConnecting
	h.mu.Unlock()

	h.logger.Infof("Reconnecting (attempt %d)", attempt)
}

func (h *EventHub) handleReconnectFailed() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.state = StateDisconnected
	h.terminal = true
	h.mu.Unlock()

	h.logger.Error("Reconnection attempts exhausted, events will no longer arrive")
}
