package server

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func TestHTTPServer_StopEndsStart(t *testing.T) {
	srv := NewHTTPServer("127.0.0.1:0", http.NotFoundHandler())
	if srv.Addr() != "127.0.0.1:0" {
		t.Errorf("Unexpected addr %q", srv.Addr())
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Start(context.Background())
	}()

	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		t.Fatalf("Failed to stop: %v", err)
	}

	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("Expected clean shutdown, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Stop")
	}
}

func TestHTTPServer_StartFailsOnBadAddr(t *testing.T) {
	srv := NewHTTPServer("256.0.0.1:bad", http.NotFoundHandler())
	if err := srv.Start(context.Background()); err == nil {
		t.Error("Expected listen error")
	}
}
