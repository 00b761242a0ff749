package facade

import (
	"container/list"
	"sync"

	"go-notification-hub/internal/infrastructure/logger"
)

// DefaultMaxReviewFeeds bounds ReviewFeeds when no limit is given.
const DefaultMaxReviewFeeds = 100

// ReviewFeeds opens one ReviewFeed per product on first use. At most limit
// feeds stay attached; the least recently used one is detached to make room.
type ReviewFeeds struct {
	src    EventSource
	logger logger.Logger
	limit  int

	mu     sync.Mutex
	feeds  map[string]*list.Element
	lru    *list.List
	closed bool
}

func NewReviewFeeds(src EventSource, limit int, log logger.Logger) *ReviewFeeds {
	if limit <= 0 {
		limit = DefaultMaxReviewFeeds
	}
	return &ReviewFeeds{
		src:    src,
		logger: log.WithField("feed", "reviews"),
		limit:  limit,
		feeds:  make(map[string]*list.Element),
		lru:    list.New(),
	}
}

// For returns the feed for productID, attaching a new one if needed. After
// Close it returns a detached, empty feed.
func (r *ReviewFeeds) For(productID string) *ReviewFeed {
	r.mu.Lock()
	defer r.mu.Unlock()

	if el, ok := r.feeds[productID]; ok {
		r.lru.MoveToFront(el)
		return el.Value.(*ReviewFeed)
	}

	feed := NewReviewFeed(productID, r.logger)
	if r.closed {
		return feed
	}

	for r.lru.Len() >= r.limit {
		r.evictOldest()
	}

	feed.Attach(r.src)
	r.feeds[productID] = r.lru.PushFront(feed)
	return feed
}

func (r *ReviewFeeds) evictOldest() {
	el := r.lru.Back()
	if el == nil {
		return
	}
	feed := r.lru.Remove(el).(*ReviewFeed)
	delete(r.feeds, feed.ProductID())
	feed.Detach()
	r.logger.Debugf("Evicted review feed for product %s", feed.ProductID())
}

func (r *ReviewFeeds) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lru.Len()
}

// Close detaches every feed.
func (r *ReviewFeeds) Close() {
	r.mu.Lock()
	feeds := make([]*ReviewFeed, 0, r.lru.Len())
	for el := r.lru.Front(); el != nil; el = el.Next() {
		feeds = append(feeds, el.Value.(*ReviewFeed))
	}
	r.feeds = make(map[string]*list.Element)
	r.lru.Init()
	r.closed = true
	r.mu.Unlock()

	for _, feed := range feeds {
		feed.Detach()
	}
}
