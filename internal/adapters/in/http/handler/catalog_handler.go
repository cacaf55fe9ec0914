// internal/adapters/in/http/handler/catalog_handler.go
package handler

import (
	"context"
	"log"
	"net/http"
	"strings"

	productdom "shopez/internal/domain/product"
)

// CatalogQueryService abstracts the catalog read model.
type CatalogQueryService interface {
	List(ctx context.Context, category string) ([]productdom.Product, error)
	Categories(ctx context.Context) ([]string, error)
}

// CatalogHandler serves product browsing. The catalog is external and
// read-only; this handler is pass-through presentation.
type CatalogHandler struct {
	query CatalogQueryService
}

func NewCatalogHandler(query CatalogQueryService) http.Handler {
	return &CatalogHandler{query: query}
}

func (h *CatalogHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.query == nil {
		writeErr(w, http.StatusInternalServerError, "catalog is not configured")
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	path := strings.TrimRight(r.URL.Path, "/")

	switch {
	case strings.HasSuffix(path, "/products/categories"):
		categories, err := h.query.Categories(r.Context())
		if err != nil {
			log.Printf("[catalog_handler] categories failed: %v", err)
			writeErr(w, http.StatusBadGateway, "failed to load categories")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"categories": categories})

	case strings.HasSuffix(path, "/products"):
		products, err := h.query.List(r.Context(), r.URL.Query().Get("category"))
		if err != nil {
			log.Printf("[catalog_handler] list failed: %v", err)
			writeErr(w, http.StatusBadGateway, "failed to load products")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"products": products})

	default:
		writeErr(w, http.StatusNotFound, "not found")
	}
}
