package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"go-notification-hub/internal/application/facade"
	"go-notification-hub/internal/domain/event"
	"go-notification-hub/internal/infrastructure/hub"
	"go-notification-hub/internal/infrastructure/logger"
	"go-notification-hub/internal/infrastructure/transport/transporttest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	hub    *hub.EventHub
	tr     *transporttest.Fake
	router *gin.Engine
	feed   *facade.ProductFeed
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.NewNopLogger()

	tr := transporttest.New()
	h := hub.New(tr, hub.DefaultOptions(), log)
	t.Cleanup(h.Teardown)

	feed := attachedProductFeed(h, log)
	reviews := facade.NewReviewFeeds(h, 0, log)
	t.Cleanup(reviews.Close)

	hubHandler := NewHubHandler(h, log)
	productHandler := NewProductHandler(feed, reviews, log)

	router := gin.New()
	router.GET("/hub/status", hubHandler.Status)
	router.POST("/api/v1/rooms/:roomId", hubHandler.JoinRoom)
	router.DELETE("/api/v1/rooms/:roomId", hubHandler.LeaveRoom)
	router.GET("/api/v1/products", productHandler.ListProducts)
	router.GET("/api/v1/products/:productId/reviews", productHandler.ListReviews)

	return &fixture{hub: h, tr: tr, router: router, feed: feed}
}

func attachedProductFeed(h *hub.EventHub, log logger.Logger) *facade.ProductFeed {
	feed := facade.NewProductFeed(log)
	feed.Attach(h)
	return feed
}

func (f *fixture) do(t *testing.T, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestHubHandler_Status(t *testing.T) {
	f := newFixture(t)
	f.tr.SimulateConnect()

	w := f.do(t, http.MethodGet, "/hub/status")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var status hub.Status
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("Failed to decode status: %v", err)
	}
	if !status.Connected || status.State != "connected" {
		t.Errorf("Unexpected status %+v", status)
	}
	if status.Listeners[string(event.ProductCreated)] != 1 {
		t.Errorf("Expected the product feed listener, got %v", status.Listeners)
	}
}

func TestHubHandler_RoomsRequireConnection(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/rooms/user-1")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected 503 while disconnected, got %d", w.Code)
	}
	if got := f.tr.Emitted(); len(got) != 0 {
		t.Errorf("Expected nothing emitted, got %v", got)
	}
}

func TestHubHandler_UnsentJoinIsNotAccepted(t *testing.T) {
	f := newFixture(t)
	f.tr.SimulateConnect()
	f.tr.EmitErr = errors.New("session closed mid write")

	w := f.do(t, http.MethodPost, "/api/v1/rooms/user-1")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected 503 when the join was not sent, got %d", w.Code)
	}
	if rooms := f.hub.Rooms(); len(rooms) != 0 {
		t.Errorf("Expected no rooms, got %v", rooms)
	}
}

func TestHubHandler_JoinAndLeave(t *testing.T) {
	f := newFixture(t)
	f.tr.SimulateConnect()

	if w := f.do(t, http.MethodPost, "/api/v1/rooms/user-1"); w.Code != http.StatusAccepted {
		t.Fatalf("Expected 202 for join, got %d", w.Code)
	}
	if rooms := f.hub.Rooms(); len(rooms) != 1 || rooms[0] != "user-1" {
		t.Errorf("Unexpected rooms %v", rooms)
	}

	if w := f.do(t, http.MethodDelete, "/api/v1/rooms/user-1"); w.Code != http.StatusAccepted {
		t.Fatalf("Expected 202 for leave, got %d", w.Code)
	}

	got := f.tr.Emitted()
	if len(got) != 2 || got[0].Event != "join" || got[1].Event != "leave" {
		t.Errorf("Unexpected emits %v", got)
	}
}

func TestProductHandler_ListProducts(t *testing.T) {
	f := newFixture(t)
	f.tr.SimulateConnect()

	w := f.do(t, http.MethodGet, "/api/v1/products")
	var empty struct {
		Data  []event.Product `json:"data"`
		Total int             `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &empty); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if empty.Data == nil || empty.Total != 0 {
		t.Errorf("Expected an empty list, got %s", w.Body.String())
	}

	f.tr.Deliver(string(event.ProductCreated), `{"product":{"_id":"p1","name":"Lamp","price":12}}`)

	w = f.do(t, http.MethodGet, "/api/v1/products")
	var body struct {
		Data  []event.Product `json:"data"`
		Total int             `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if body.Total != 1 || body.Data[0].Name != "Lamp" {
		t.Errorf("Unexpected products %s", w.Body.String())
	}
}

func TestProductHandler_ListReviewsFollowsProduct(t *testing.T) {
	f := newFixture(t)
	f.tr.SimulateConnect()

	w := f.do(t, http.MethodGet, "/api/v1/products/p1/reviews")
	if w.Code != http.StatusOK || w.Body.String() != "[]" {
		t.Fatalf("Expected an empty list, got %d %s", w.Code, w.Body.String())
	}

	f.tr.Deliver(string(event.NewReview), `{"review":{"_id":"r1","productId":"p1","userName":"ana","content":"nice"}}`)

	w = f.do(t, http.MethodGet, "/api/v1/products/p1/reviews")
	var reviews []event.Review
	if err := json.Unmarshal(w.Body.Bytes(), &reviews); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if len(reviews) != 1 || reviews[0].Content != "nice" {
		t.Errorf("Unexpected reviews %+v", reviews)
	}
}
