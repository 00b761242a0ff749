package hub

import (
	"encoding/json"
	"fmt"

	"go-notification-hub/internal/domain/event"
)

// Callback is an opaque handle to application code. Its identity is the
// pointer, so the same *Callback registered twice for one event is stored
// once.
type Callback struct {
	fn func(payload json.RawMessage) error
}

// NewCallback wraps fn as a handle. Keep the returned pointer to unsubscribe
// later.
func NewCallback(fn func(payload json.RawMessage) error) *Callback {
	return &Callback{fn: fn}
}

// NewTypedCallback decodes each payload into T before calling fn. Decode
// failures are reported like any other listener error.
func NewTypedCallback[T any](fn func(T) error) *Callback {
	return NewCallback(func(payload json.RawMessage) error {
		v, err := event.Decode[T](payload)
		if err != nil {
			return err
		}
		return fn(v)
	})
}

// invoke runs the callback and converts a panic into an error so one bad
// listener cannot stop delivery to the rest.
func (c *Callback) invoke(payload json.RawMessage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panic: %v", r)
		}
	}()
	if c.fn == nil {
		return nil
	}
	return c.fn(payload)
}
