package hub

// ConnectionState is the hub's view of the transport session.
type ConnectionState int

const (
	// StateConnecting means a connection attempt is in flight.
	StateConnecting ConnectionState = iota

	// StateConnected means the transport can both emit and receive.
	StateConnected

	// StateDisconnected means emits are suppressed. It is terminal after
	// Teardown or once the transport gives up reconnecting.
	StateDisconnected
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Status is a point-in-time snapshot of the hub.
type Status struct {
	ID                   string         `json:"id"`
	State                string         `json:"state"`
	Connected            bool           `json:"connected"`
	Terminal             bool           `json:"terminal"`
	LastDisconnectReason string         `json:"last_disconnect_reason,omitempty"`
	Listeners            map[string]int `json:"listeners"`
	Rooms                []string       `json:"rooms"`
}
