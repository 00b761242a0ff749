package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"go-notification-hub/internal/domain/event"
	"go-notification-hub/internal/infrastructure/logger"
	"go-notification-hub/internal/infrastructure/transport"
)

func TestHub_OverWebSocket(t *testing.T) {
	upgrader := websocket.Upgrader{}
	conns := make(chan *websocket.Conn, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conns <- conn
	}))
	defer srv.Close()

	opts := DefaultOptions()
	opts.Transport.ReconnectionDelay = 10 * time.Millisecond
	opts.Transport.PingInterval = 0
	opts.Transport.PongTimeout = 0

	h, err := Dial(srv.URL+"/ws", opts, logger.NewNopLogger())
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	defer h.Teardown()

	received := make(chan event.ProductEvent, 1)
	h.Subscribe(event.ProductCreated, NewTypedCallback(func(ev event.ProductEvent) error {
		received <- ev
		return nil
	}))

	var server *websocket.Conn
	select {
	case server = <-conns:
		defer server.Close()
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for the hub to connect")
	}
	waitUntil(t, h.IsConnected, "hub connected")

	h.JoinRoom(context.Background(), "user-7")
	server.SetReadDeadline(time.Now().Add(2 * time.Second))
	var join transport.Envelope
	if err := server.ReadJSON(&join); err != nil {
		t.Fatalf("Failed to read join: %v", err)
	}
	if join.Event != string(event.Join) || string(join.Data) != `"user-7"` {
		t.Errorf("Unexpected join envelope %+v", join)
	}

	server.WriteJSON(transport.Envelope{
		Event: string(event.ProductCreated),
		Data:  json.RawMessage(`{"product":{"_id":"1","name":"X"}}`),
	})

	select {
	case ev := <-received:
		if ev.Product.Name != "X" {
			t.Errorf("Unexpected product %+v", ev.Product)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for product:created")
	}

	h.Teardown()
	if h.IsConnected() {
		t.Error("Hub should be disconnected after teardown")
	}
}

func waitUntil(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("Timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestDial_RejectsBadEndpoint(t *testing.T) {
	_, err := Dial("ftp://example.com", DefaultOptions(), logger.NewNopLogger())
	if err == nil || !strings.Contains(err.Error(), "unsupported scheme") {
		t.Errorf("Expected unsupported scheme error, got %v", err)
	}
}
