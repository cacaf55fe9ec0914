// internal/adapters/in/http/handler/cart_handler.go
package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"shopez/internal/adapters/in/http/middleware"
	usecase "shopez/internal/application/usecase"
	cartdom "shopez/internal/domain/cart"
	productdom "shopez/internal/domain/product"
	userdom "shopez/internal/domain/user"
)

// CartEngine abstracts the sync controller for the HTTP surface.
type CartEngine interface {
	Activate(ctx context.Context, session userdom.Session) error
	AddItem(ctx context.Context, p productdom.Product, qty int) (usecase.Notice, error)
	SetQuantity(ctx context.Context, productID string, qty int) (usecase.Notice, error)
	RemoveItem(ctx context.Context, productID string) (usecase.Notice, error)
	View() cartdom.View
	State() usecase.State
}

// CartEngineProvider resolves the engine owned by a user id. Every uid must
// map to its own engine; handing two uids the same engine would let one
// user's request render the other's cart.
type CartEngineProvider interface {
	Engine(userID string) CartEngine
}

// CartHandler serves the storefront cart endpoints on top of per-user sync
// engines.
//
// Each request resolves its session's own engine and activates it first;
// activation is idempotent per user id, so this only costs work on the
// session's first request.
type CartHandler struct {
	engines CartEngineProvider
}

func NewCartHandler(engines CartEngineProvider) http.Handler {
	return &CartHandler{engines: engines}
}

func (h *CartHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	path := strings.TrimRight(r.URL.Path, "/")

	if h.engines == nil {
		writeErr(w, http.StatusInternalServerError, "cart handler is not configured")
		return
	}

	session, ok := middleware.SessionFrom(r.Context())
	if !ok {
		writeErr(w, http.StatusUnauthorized, "no active session")
		return
	}

	engine := h.engines.Engine(session.UID)
	if engine == nil {
		writeErr(w, http.StatusInternalServerError, "cart handler is not configured")
		return
	}

	if err := engine.Activate(r.Context(), session); err != nil {
		log.Printf("[cart_handler] activate failed uid=%s: %v", session.UID, err)
		writeErr(w, http.StatusInternalServerError, "cart activation failed")
		return
	}

	isItems := strings.HasSuffix(path, "/cart/items")
	isCart := !isItems && strings.HasSuffix(path, "/cart")

	switch {
	case isCart && r.Method == http.MethodGet:
		h.handleView(w, engine)
	case isItems && r.Method == http.MethodPost:
		h.handleAddItem(w, r, engine)
	case isItems && r.Method == http.MethodPut:
		h.handleSetQuantity(w, r, engine)
	case isItems && r.Method == http.MethodDelete:
		h.handleRemoveItem(w, r, engine)
	case isCart || isItems:
		methodNotAllowed(w)
	default:
		writeErr(w, http.StatusNotFound, "not found")
	}

	log.Printf("[cart_handler] %s %s uid=%s elapsed=%s", r.Method, path, session.UID, time.Since(start))
}

// viewPayload is what every cart endpoint returns: the rendered view plus the
// engine state, with offline=true when a mutation was applied locally only.
type viewPayload struct {
	Items   []cartdom.Item `json:"items"`
	Total   float64        `json:"total"`
	State   string         `json:"state"`
	Offline bool           `json:"offline"`
}

func cartPayload(engine CartEngine, notice usecase.Notice) viewPayload {
	view := engine.View()
	return viewPayload{
		Items:   view.Items,
		Total:   view.Total,
		State:   engine.State().String(),
		Offline: notice == usecase.NoticeOffline,
	}
}

func (h *CartHandler) handleView(w http.ResponseWriter, engine CartEngine) {
	writeJSON(w, http.StatusOK, cartPayload(engine, usecase.NoticeSynced))
}

func (h *CartHandler) handleAddItem(w http.ResponseWriter, r *http.Request, engine CartEngine) {
	var req struct {
		Product  productdom.Product `json:"product"`
		Quantity int                `json:"quantity"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	notice, err := engine.AddItem(r.Context(), req.Product, req.Quantity)
	if err != nil {
		writeMutationErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cartPayload(engine, notice))
}

func (h *CartHandler) handleSetQuantity(w http.ResponseWriter, r *http.Request, engine CartEngine) {
	var req struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body")
		return
	}

	notice, err := engine.SetQuantity(r.Context(), req.ProductID, req.Quantity)
	if err != nil {
		writeMutationErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cartPayload(engine, notice))
}

func (h *CartHandler) handleRemoveItem(w http.ResponseWriter, r *http.Request, engine CartEngine) {
	productID := strings.TrimSpace(r.URL.Query().Get("productId"))
	if productID == "" {
		writeErr(w, http.StatusBadRequest, "productId is required")
		return
	}

	notice, err := engine.RemoveItem(r.Context(), productID)
	if err != nil {
		writeMutationErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cartPayload(engine, notice))
}

func writeMutationErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, usecase.ErrNotAuthenticated):
		writeErr(w, http.StatusUnauthorized, "no active session")
	case errors.Is(err, usecase.ErrInvalidArgument):
		writeErr(w, http.StatusBadRequest, "invalid cart mutation")
	default:
		// both the remote write and the local fallback failed
		writeErr(w, http.StatusBadGateway, "cart update failed")
	}
}
