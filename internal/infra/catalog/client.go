// internal/infra/catalog/client.go
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	productdom "shopez/internal/domain/product"
)

// Client calls the public product catalog REST API.
//
// Catalog data is browse-only input: products fetched here are embedded into
// cart lines as snapshots and never re-validated against the catalog.
type Client struct {
	client  *http.Client
	baseURL string
}

func NewClient(baseURL string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "https://fakestoreapi.com"
	}
	return &Client{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: baseURL,
	}
}

// productDTO matches the catalog wire format, which uses numeric ids.
type productDTO struct {
	ID          json.Number `json:"id"`
	Title       string      `json:"title"`
	Price       float64     `json:"price"`
	Image       string      `json:"image"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
}

func (d productDTO) toDomain() productdom.Product {
	return productdom.Product{
		ID:          d.ID.String(),
		Title:       d.Title,
		Price:       d.Price,
		Image:       d.Image,
		Description: d.Description,
		Category:    d.Category,
	}
}

func (c *Client) Products(ctx context.Context) ([]productdom.Product, error) {
	return c.list(ctx, "/products")
}

func (c *Client) ProductsByCategory(ctx context.Context, category string) ([]productdom.Product, error) {
	cat := strings.TrimSpace(category)
	if cat == "" {
		return c.Products(ctx)
	}
	return c.list(ctx, "/products/category/"+url.PathEscape(cat))
}

func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.getJSON(ctx, "/products/categories", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) list(ctx context.Context, path string) ([]productdom.Product, error) {
	var dtos []productDTO
	if err := c.getJSON(ctx, path, &dtos); err != nil {
		return nil, err
	}

	products := make([]productdom.Product, 0, len(dtos))
	for _, d := range dtos {
		products = append(products, d.toDomain())
	}
	return products, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("catalog: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("catalog: GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("catalog: GET %s failed: status=%d body=%s", path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("catalog: decode %s: %w", path, err)
	}
	return nil
}
