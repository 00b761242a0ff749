package sse

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"go-notification-hub/internal/domain/event"
	"go-notification-hub/internal/infrastructure/hub"
	"go-notification-hub/internal/infrastructure/logger"
)

const (
	defaultKeepAlive = 15 * time.Second
	defaultBuffer    = 64
)

var errSlowClient = errors.New("stream buffer full, event dropped")

// ServerSentEventHandler relays hub events to HTTP clients. Each request
// subscribes on arrival and unsubscribes when the client goes away.
type ServerSentEventHandler struct {
	hub       *hub.EventHub
	logger    logger.Logger
	keepAlive time.Duration
	buffer    int
}

func NewServerSentEventHandler(hubInstance *hub.EventHub, logger logger.Logger) *ServerSentEventHandler {
	return &ServerSentEventHandler{
		hub:       hubInstance,
		logger:    logger.WithField("handler", "sse"),
		keepAlive: defaultKeepAlive,
		buffer:    defaultBuffer,
	}
}

// Stream handles GET requests with one or more ?event= parameters. Values may
// also be comma separated. Without any, every catalog data event is relayed.
func (h *ServerSentEventHandler) Stream(c *gin.Context) {
	names, err := requestedEvents(c.QueryArray("event"))
	if err != nil {
		c.Header("Content-Type", "application/json; charset=utf-8")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	streamID := uuid.NewString()
	log := h.logger.WithField("stream_id", streamID)

	frames := make(chan sse.Event, h.buffer)
	var dropped atomic.Int64

	subs := make([]*hub.Subscription, 0, len(names))
	for _, name := range names {
		subs = append(subs, h.hub.Subscribe(name, hub.NewCallback(func(payload json.RawMessage) error {
			select {
			case frames <- sse.Event{Event: string(name), Id: uuid.NewString(), Data: payload}:
				return nil
			default:
				dropped.Add(1)
				return errSlowClient
			}
		})))
	}
	defer func() {
		for _, sub := range subs {
			sub.Unsubscribe()
		}
		log.Infof("SSE stream closed (dropped: %d)", dropped.Load())
	}()

	log.Infof("SSE stream opened for %v", names)

	w := c.Writer
	sse.Encode(w, sse.Event{
		Event: "connected",
		Data: map[string]any{
			"stream_id": streamID,
			"events":    names,
			"connected": h.hub.IsConnected(),
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
	w.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-frames:
			if err := sse.Encode(w, frame); err != nil {
				log.Warnf("Failed to write event %s: %v", frame.Event, err)
				return
			}
			w.Flush()
		case <-ticker.C:
			if err := sse.Encode(w, sse.Event{Event: "ping", Data: time.Now().Unix()}); err != nil {
				return
			}
			w.Flush()
		}
	}
}

func requestedEvents(values []string) ([]event.Name, error) {
	var names []event.Name
	seen := make(map[event.Name]bool)
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			name := event.Name(strings.TrimSpace(part))
			if name == "" || seen[name] {
				continue
			}
			if event.IsControl(name) {
				return nil, errors.New("control events cannot be streamed: " + string(name))
			}
			seen[name] = true
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return event.Catalog(), nil
	}
	return names, nil
}
