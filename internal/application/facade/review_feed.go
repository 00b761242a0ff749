package facade

import (
	"slices"
	"sync"

	"go-notification-hub/internal/domain/event"
	"go-notification-hub/internal/infrastructure/hub"
	"go-notification-hub/internal/infrastructure/logger"
)

// ReviewFeed holds the reviews of a single product. new-review is filtered
// by product; review_updated and review_deleted carry only a review ID and
// apply to whatever matches.
type ReviewFeed struct {
	productID string
	logger    logger.Logger

	mu      sync.RWMutex
	reviews []event.Review
	subs    subscriptions
}

func NewReviewFeed(productID string, log logger.Logger) *ReviewFeed {
	return &ReviewFeed{
		productID: productID,
		logger:    log.WithFields(logger.Fields{"feed": "reviews", "product_id": productID}),
	}
}

func (f *ReviewFeed) ProductID() string {
	return f.productID
}

func (f *ReviewFeed) Seed(reviews []event.Review) {
	f.mu.Lock()
	f.reviews = slices.Clone(reviews)
	f.mu.Unlock()
}

func (f *ReviewFeed) Attach(src EventSource) {
	f.Detach()

	subs := subscriptions{
		src.Subscribe(event.NewReview, hub.NewTypedCallback(f.onNew)),
		src.Subscribe(event.ReviewUpdated, hub.NewTypedCallback(f.onUpdated)),
		src.Subscribe(event.ReviewDeleted, hub.NewTypedCallback(f.onDeleted)),
	}

	f.mu.Lock()
	f.subs = subs
	f.mu.Unlock()
}

func (f *ReviewFeed) Detach() {
	f.mu.Lock()
	subs := f.subs
	f.subs = nil
	f.mu.Unlock()

	subs.unsubscribe()
}

func (f *ReviewFeed) Reviews() []event.Review {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append(make([]event.Review, 0, len(f.reviews)), f.reviews...)
}

func (f *ReviewFeed) onNew(ev event.ReviewEvent) error {
	if ev.Review.ProductID != f.productID {
		return nil
	}

	f.mu.Lock()
	f.reviews = slices.Insert(f.reviews, 0, ev.Review)
	f.mu.Unlock()

	f.logger.Debugf("Review %s added by %s", ev.Review.ID, ev.Review.UserName)
	return nil
}

func (f *ReviewFeed) onUpdated(ev event.ReviewUpdatedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.reviews {
		if f.reviews[i].ID == ev.ReviewID {
			f.reviews[i].Content = ev.Content
		}
	}
	return nil
}

func (f *ReviewFeed) onDeleted(ev event.ReviewDeletedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reviews = slices.DeleteFunc(f.reviews, func(r event.Review) bool {
		return r.ID == ev.ReviewID
	})
	return nil
}
