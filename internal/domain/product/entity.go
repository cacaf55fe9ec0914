// internal/domain/product/entity.go
package product

import "strings"

// Product is an immutable catalog snapshot.
//
// It is embedded verbatim into a cart line at the moment of add and never
// re-fetched or re-validated afterward, so a line may carry a stale price or
// image relative to the live catalog. That is intentional snapshotting.
type Product struct {
	ID          string  `json:"id" firestore:"id"`
	Title       string  `json:"title" firestore:"title"`
	Price       float64 `json:"price" firestore:"price"`
	Image       string  `json:"image" firestore:"image"`
	Description string  `json:"description" firestore:"description"`
	Category    string  `json:"category" firestore:"category"`
}

// Valid reports whether the snapshot can be placed in a cart.
func (p Product) Valid() bool {
	return strings.TrimSpace(p.ID) != "" && p.Price >= 0
}
