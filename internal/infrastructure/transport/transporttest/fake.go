// Package transporttest provides an in-memory transport for tests. Lifecycle
// hooks and inbound frames are driven synchronously by the test.
package transporttest

import (
	"context"
	"encoding/json"
	"sync"

	"go-notification-hub/internal/infrastructure/transport"
)

// Emit records one outbound event.
type Emit struct {
	Event   string
	Payload any
}

type Fake struct {
	// ConnectErr is returned from Connect when set.
	ConnectErr error
	// EmitErr is returned from Emit when set.
	EmitErr error

	mu              sync.Mutex
	hooks           transport.Hooks
	routes          map[string]transport.Handler
	emitted         []Emit
	connectCalls    int
	disconnectCalls int
}

var _ transport.Transport = (*Fake)(nil)

func New() *Fake {
	return &Fake{routes: make(map[string]transport.Handler)}
}

func (f *Fake) Connect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connectCalls++
	return f.ConnectErr
}

func (f *Fake) On(event string, fn transport.Handler) {
	f.mu.Lock()
	f.routes[event] = fn
	f.mu.Unlock()
}

func (f *Fake) Off(event string) {
	f.mu.Lock()
	delete(f.routes, event)
	f.mu.Unlock()
}

func (f *Fake) Emit(ctx context.Context, event string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.EmitErr != nil {
		return f.EmitErr
	}
	f.emitted = append(f.emitted, Emit{Event: event, Payload: payload})
	return nil
}

func (f *Fake) Disconnect() error {
	f.mu.Lock()
	f.disconnectCalls++
	f.mu.Unlock()
	return nil
}

func (f *Fake) SetHooks(hooks transport.Hooks) {
	f.mu.Lock()
	f.hooks = hooks
	f.mu.Unlock()
}

// Route returns the handler currently routed for event, or nil.
func (f *Fake) Route(event string) transport.Handler {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.routes[event]
}

func (f *Fake) HasRoute(event string) bool {
	return f.Route(event) != nil
}

// Deliver simulates one inbound frame. Frames without a route are dropped,
// as the real transport does.
func (f *Fake) Deliver(event, payload string) {
	if fn := f.Route(event); fn != nil {
		fn(json.RawMessage(payload))
	}
}

func (f *Fake) Emitted() []Emit {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Emit(nil), f.emitted...)
}

func (f *Fake) ConnectCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connectCalls
}

func (f *Fake) DisconnectCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.disconnectCalls
}

func (f *Fake) currentHooks() transport.Hooks {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hooks
}

func (f *Fake) SimulateConnect() {
	if fn := f.currentHooks().OnConnect; fn != nil {
		fn()
	}
}

func (f *Fake) SimulateDisconnect(reason string) {
	if fn := f.currentHooks().OnDisconnect; fn != nil {
		fn(reason)
	}
}

func (f *Fake) SimulateConnectError(err error) {
	if fn := f.currentHooks().OnConnectError; fn != nil {
		fn(err)
	}
}

func (f *Fake) SimulateReconnecting(attempt int) {
	if fn := f.currentHooks().OnReconnecting; fn != nil {
		fn(attempt)
	}
}

func (f *Fake) SimulateReconnectFailed() {
	if fn := f.currentHooks().OnReconnectFailed; fn != nil {
		fn()
	}
}
