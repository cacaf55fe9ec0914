// internal/adapters/in/http/handler/register_handler.go
package handler

import (
	"context"
	"errors"
	"log"
	"net/http"

	usecase "shopez/internal/application/usecase"
)

// RegisterService abstracts the registration usecase.
type RegisterService interface {
	Register(ctx context.Context, userID, fullName, email string) error
}

// RegisterHandler completes account setup after the identity provider has
// created the credentials: empty cart seed, profile, welcome mail.
type RegisterHandler struct {
	register RegisterService
}

func NewRegisterHandler(register RegisterService) http.Handler {
	return &RegisterHandler{register: register}
}

func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.register == nil {
		writeErr(w, http.StatusInternalServerError, "register is not configured")
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req struct {
		UID      string `json:"uid"`
		FullName string `json:"fullName"`
		Email    string `json:"email"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.register.Register(r.Context(), req.UID, req.FullName, req.Email); err != nil {
		if errors.Is(err, usecase.ErrRegisterInvalidArgument) {
			writeErr(w, http.StatusBadRequest, "uid, fullName and email are required")
			return
		}
		log.Printf("[register_handler] register failed uid=%s: %v", req.UID, err)
		writeErr(w, http.StatusBadGateway, "registration failed")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"status": "registered"})
}
