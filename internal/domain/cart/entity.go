// internal/domain/cart/entity.go
package cart

import (
	"errors"
	"strings"

	"shopez/internal/domain/product"
)

var ErrInvalidLine = errors.New("cart: invalid line")

// Line is one product's quantity within a cart.
// Quantity is >= 1 while the line exists; a request to set it to zero or
// below deletes the line instead of persisting a non-positive quantity.
type Line struct {
	Quantity int             `json:"quantity" firestore:"quantity"`
	Product  product.Product `json:"product" firestore:"product"`
}

// Cart maps product id to line item, scoped to exactly one user.
//
// Two physical copies exist at runtime: the local cache copy and the remote
// store copy. The remote copy is authoritative whenever reachable.
type Cart map[string]Line

func New() Cart { return Cart{} }

// Clone returns an independent copy.
func (c Cart) Clone() Cart {
	out := make(Cart, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Add accumulates qty into the existing line for p, refreshing the product
// snapshot, or creates a new line. It never overwrites a quantity.
func (c Cart) Add(p product.Product, qty int) error {
	pid := strings.TrimSpace(p.ID)
	if pid == "" || qty <= 0 {
		return ErrInvalidLine
	}

	if existing, ok := c[pid]; ok {
		q := existing.Quantity
		if q < 1 {
			q = 1
		}
		c[pid] = Line{Quantity: q + qty, Product: p}
		return nil
	}

	c[pid] = Line{Quantity: qty, Product: p}
	return nil
}

// SetQuantity sets the quantity for productID, keeping the stored product
// snapshot. qty <= 0 deletes the line. Absent lines are left absent.
func (c Cart) SetQuantity(productID string, qty int) error {
	pid := strings.TrimSpace(productID)
	if pid == "" {
		return ErrInvalidLine
	}

	if qty <= 0 {
		delete(c, pid)
		return nil
	}

	line, ok := c[pid]
	if !ok {
		return nil
	}
	line.Quantity = qty
	c[pid] = line
	return nil
}

// Remove deletes the line for productID.
func (c Cart) Remove(productID string) {
	delete(c, strings.TrimSpace(productID))
}
