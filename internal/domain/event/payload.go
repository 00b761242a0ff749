package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrEmptyPayload is returned by Decode when there is nothing to decode.
var ErrEmptyPayload = errors.New("empty payload")

// Product is the product record carried by product events.
type Product struct {
	ID          string  `json:"_id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	IsAvailable bool    `json:"isAvailable"`
}

// Review is the review record carried by review events.
type Review struct {
	ID        string    `json:"_id"`
	ProductID string    `json:"productId"`
	UserName  string    `json:"userName"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// ProductEvent is the payload of product:created and product:updated.
type ProductEvent struct {
	Product Product `json:"product"`
}

// ProductDeletedEvent is the payload of product:deleted.
type ProductDeletedEvent struct {
	ProductID string `json:"productId"`
}

// ReviewEvent is the payload of new-review.
type ReviewEvent struct {
	Review Review `json:"review"`
}

// ReviewUpdatedEvent is the payload of review_updated.
type ReviewUpdatedEvent struct {
	ReviewID string `json:"reviewId"`
	Content  string `json:"content"`
}

// ReviewDeletedEvent is the payload of review_deleted.
type ReviewDeletedEvent struct {
	ReviewID string `json:"reviewId"`
}

// Decode unmarshals a raw event payload into T.
func Decode[T any](payload json.RawMessage) (T, error) {
	var v T
	if len(payload) == 0 {
		return v, ErrEmptyPayload
	}
	if err := json.Unmarshal(payload, &v); err != nil {
		return v, fmt.Errorf("decode %T: %w", v, err)
	}
	return v, nil
}
