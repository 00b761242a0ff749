package hub

import (
	"slices"
	"sync/atomic"

	"go-notification-hub/internal/domain/event"
)

// registration is one (event, callback) pair. active is cleared on removal
// so a dispatch pass holding an older snapshot skips it.
type registration struct {
	event    event.Name
	callback *Callback
	active   atomic.Bool
}

// registry maps each event to its listeners in registration order. It is not
// safe for concurrent use; EventHub guards it.
type registry struct {
	listeners map[event.Name][]*registration
}

func newRegistry() *registry {
	return &registry{listeners: make(map[event.Name][]*registration)}
}

// add registers cb for name. first is true when name had no listeners.
func (r *registry) add(name event.Name, cb *Callback) (added, first bool) {
	regs := r.listeners[name]
	for _, reg := range regs {
		if reg.callback == cb {
			return false, false
		}
	}

	reg := &registration{event: name, callback: cb}
	reg.active.Store(true)
	r.listeners[name] = append(regs, reg)
	return true, len(regs) == 0
}

// remove drops cb from name. last is true when name has no listeners left.
func (r *registry) remove(name event.Name, cb *Callback) (removed, last bool) {
	regs := r.listeners[name]
	i := slices.IndexFunc(regs, func(reg *registration) bool { return reg.callback == cb })
	if i < 0 {
		return false, false
	}

	regs[i].active.Store(false)
	// Copy so snapshots handed out earlier keep their own backing array
	rest := make([]*registration, 0, len(regs)-1)
	rest = append(rest, regs[:i]...)
	rest = append(rest, regs[i+1:]...)

	if len(rest) == 0 {
		delete(r.listeners, name)
		return true, true
	}
	r.listeners[name] = rest
	return true, false
}

func (r *registry) snapshot(name event.Name) []*registration {
	return slices.Clone(r.listeners[name])
}

// clear deactivates every registration and returns the events that had
// listeners.
func (r *registry) clear() []event.Name {
	names := make([]event.Name, 0, len(r.listeners))
	for name, regs := range r.listeners {
		for _, reg := range regs {
			reg.active.Store(false)
		}
		names = append(names, name)
	}
	r.listeners = make(map[event.Name][]*registration)
	slices.Sort(names)
	return names
}

func (r *registry) count(name event.Name) int {
	return len(r.listeners[name])
}

func (r *registry) events() []event.Name {
	names := make([]event.Name, 0, len(r.listeners))
	for name := range r.listeners {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
