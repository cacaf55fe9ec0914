// internal/adapters/out/firestore/decode_fs.go
package firestore

import (
	"strings"

	cartdom "shopez/internal/domain/cart"
	productdom "shopez/internal/domain/product"
)

// cartFromData parses raw document data defensively.
//
// DataTo(&struct{...}) would turn any historical schema drift into a hard
// decode error, so the raw map is parsed by hand instead: entries with a
// non-positive quantity are skipped and malformed product maps degrade to
// zero-valued fields. Rendering stays resilient either way.
func cartFromData(raw map[string]any) cartdom.Cart {
	c := cartdom.New()
	if raw == nil {
		return c
	}

	for k, v := range raw {
		pid := strings.TrimSpace(k)
		if pid == "" {
			continue
		}
		m, ok := v.(map[string]any)
		if !ok || m == nil {
			continue
		}

		qty := asInt(m["quantity"])
		if qty <= 0 {
			continue
		}

		c[pid] = cartdom.Line{
			Quantity: qty,
			Product:  productFromAny(m["product"], pid),
		}
	}
	return c
}

// productFromAny decodes an embedded product snapshot. The line's map key is
// the fallback id when the snapshot omits its own.
func productFromAny(v any, fallbackID string) productdom.Product {
	p := productdom.Product{ID: fallbackID}

	m, ok := v.(map[string]any)
	if !ok || m == nil {
		return p
	}

	if id := strings.TrimSpace(asString(m["id"])); id != "" {
		p.ID = id
	}
	p.Title = asString(m["title"])
	p.Image = asString(m["image"])
	p.Description = asString(m["description"])
	p.Category = asString(m["category"])

	if price := asFloat(m["price"]); price > 0 {
		p.Price = price
	}
	return p
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// Firestore numbers arrive as int64 or float64 depending on how they were
// written.
func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}
