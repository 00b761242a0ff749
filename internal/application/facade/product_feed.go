package facade

import (
	"slices"
	"sync"

	"go-notification-hub/internal/domain/event"
	"go-notification-hub/internal/infrastructure/hub"
	"go-notification-hub/internal/infrastructure/logger"
)

// ProductFeed is the product list as the storefront sees it: seeded once,
// then kept current by product:created, product:updated and product:deleted.
type ProductFeed struct {
	logger logger.Logger

	mu       sync.RWMutex
	products []event.Product
	subs     subscriptions
}

func NewProductFeed(log logger.Logger) *ProductFeed {
	return &ProductFeed{
		logger: log.WithField("feed", "products"),
	}
}

// Seed replaces the list, typically with the result of the initial fetch.
func (f *ProductFeed) Seed(products []event.Product) {
	f.mu.Lock()
	f.products = slices.Clone(products)
	f.mu.Unlock()
}

// Attach subscribes the feed to src. Attaching again first drops the
// previous subscriptions.
func (f *ProductFeed) Attach(src EventSource) {
	f.Detach()

	subs := subscriptions{
		src.Subscribe(event.ProductCreated, hub.NewTypedCallback(f.onCreated)),
		src.Subscribe(event.ProductUpdated, hub.NewTypedCallback(f.onUpdated)),
		src.Subscribe(event.ProductDeleted, hub.NewTypedCallback(f.onDeleted)),
	}

	f.mu.Lock()
	f.subs = subs
	f.mu.Unlock()
}

// Detach stops following events. The list keeps its last state.
func (f *ProductFeed) Detach() {
	f.mu.Lock()
	subs := f.subs
	f.subs = nil
	f.mu.Unlock()

	subs.unsubscribe()
}

func (f *ProductFeed) Products() []event.Product {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append(make([]event.Product, 0, len(f.products)), f.products...)
}

func (f *ProductFeed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.products)
}

func (f *ProductFeed) onCreated(ev event.ProductEvent) error {
	f.mu.Lock()
	f.products = slices.Insert(f.products, 0, ev.Product)
	f.mu.Unlock()

	f.logger.Infof("New product added: %s", ev.Product.Name)
	return nil
}

func (f *ProductFeed) onUpdated(ev event.ProductEvent) error {
	f.mu.Lock()
	for i := range f.products {
		if f.products[i].ID == ev.Product.ID {
			f.products[i] = ev.Product
		}
	}
	f.mu.Unlock()

	f.logger.Infof("Product updated: %s", ev.Product.Name)
	return nil
}

func (f *ProductFeed) onDeleted(ev event.ProductDeletedEvent) error {
	f.mu.Lock()
	f.products = slices.DeleteFunc(f.products, func(p event.Product) bool {
		return p.ID == ev.ProductID
	})
	f.mu.Unlock()

	f.logger.Info("A product has been removed")
	return nil
}
