// internal/application/query/catalog_query.go
package query

import (
	"context"
	"errors"
	"strings"

	productdom "shopez/internal/domain/product"
	"shopez/internal/infra/catalog"
)

// CatalogQuery is the storefront read model for product browsing.
type CatalogQuery struct {
	client *catalog.Client
}

func NewCatalogQuery(client *catalog.Client) *CatalogQuery {
	return &CatalogQuery{client: client}
}

// List returns the catalog, optionally filtered by category. "all" and the
// empty string both mean no filter.
func (q *CatalogQuery) List(ctx context.Context, category string) ([]productdom.Product, error) {
	if q == nil || q.client == nil {
		return nil, errors.New("catalog_query: client is nil")
	}

	cat := strings.TrimSpace(category)
	if cat == "" || cat == "all" {
		return q.client.Products(ctx)
	}
	return q.client.ProductsByCategory(ctx, cat)
}

func (q *CatalogQuery) Categories(ctx context.Context) ([]string, error) {
	if q == nil || q.client == nil {
		return nil, errors.New("catalog_query: client is nil")
	}
	return q.client.Categories(ctx)
}
