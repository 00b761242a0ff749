package event

// Name identifies a notification category on the wire.
type Name string

// CatalogVersion is bumped whenever a name is renamed or removed. Adding a
// name is backward compatible and does not require a bump.
const CatalogVersion = 1

// Review events
const (
	NewReview     Name = "new-review"
	ReviewUpdated Name = "review_updated"
	ReviewDeleted Name = "review_deleted"
)

// Product events
const (
	ProductCreated Name = "product:created"
	ProductUpdated Name = "product:updated"
	ProductDeleted Name = "product:deleted"
)

// Room control messages, emitted by the client only.
const (
	Join  Name = "join"
	Leave Name = "leave"
)

const (
	DomainProduct = "product"
	DomainReview  = "review"
)

var catalog = []Name{
	ProductCreated,
	ProductUpdated,
	ProductDeleted,
	NewReview,
	ReviewUpdated,
	ReviewDeleted,
}

// Catalog returns every subscribable event name in declaration order.
func Catalog() []Name {
	names := make([]Name, len(catalog))
	copy(names, catalog)
	return names
}

// IsKnown reports whether name belongs to the catalog.
func IsKnown(name Name) bool {
	for _, n := range catalog {
		if n == name {
			return true
		}
	}
	return false
}

// IsControl reports whether name is a client to server control message.
func IsControl(name Name) bool {
	return name == Join || name == Leave
}

// Domain returns the lifecycle group name belongs to, or "" for names
// outside the catalog.
func Domain(name Name) string {
	switch name {
	case ProductCreated, ProductUpdated, ProductDeleted:
		return DomainProduct
	case NewReview, ReviewUpdated, ReviewDeleted:
		return DomainReview
	default:
		return ""
	}
}

func (n Name) String() string { return string(n) }
