// internal/domain/cart/view.go
package cart

import "sort"

// Item is one rendered cart row.
type Item struct {
	ProductID string  `json:"productId"`
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	Image     string  `json:"image"`
	Quantity  int     `json:"quantity"`
	Subtotal  float64 `json:"subtotal"`
}

// View is the pure projection of a cart for rendering.
type View struct {
	Items []Item  `json:"items"`
	Total float64 `json:"total"`
}

// Render projects the cart into an ordered item list and a computed total.
// Items are ordered by product id so repeated renders are stable.
//
// Partially-malformed lines must not break rendering: a missing quantity is
// treated as 1 and a missing or negative price as 0.
func (c Cart) Render() View {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	v := View{Items: make([]Item, 0, len(ids))}
	for _, id := range ids {
		line := c[id]

		qty := line.Quantity
		if qty < 1 {
			qty = 1
		}
		price := line.Product.Price
		if price < 0 {
			price = 0
		}
		subtotal := price * float64(qty)

		v.Items = append(v.Items, Item{
			ProductID: id,
			Title:     line.Product.Title,
			Price:     price,
			Image:     line.Product.Image,
			Quantity:  qty,
			Subtotal:  subtotal,
		})
		v.Total += subtotal
	}
	return v
}
