package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/yosseffehabb/illusion-studios/internal/auth"
	"github.com/yosseffehabb/illusion-studios/pkg/httputil"
	"github.com/yosseffehabb/illusion-studios/pkg/validator"
)

// AuthHandler handles session endpoints. Credential verification happens in
// the external identity system; this side only opens and closes sessions.
type AuthHandler struct {
	manager *auth.Manager
	logger  *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(manager *auth.Manager, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		manager: manager,
		logger:  logger,
	}
}

// LoginRequest is the JSON request body for opening a session.
type LoginRequest struct {
	OperatorID string `json:"operator_id" validate:"required"`
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
}

// LoginResponse carries the session token.
type LoginResponse struct {
	Token string `json:"token"`
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	token, err := h.manager.Login(r.Context(), &auth.Operator{
		ID:    req.OperatorID,
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: LoginResponse{Token: token}})
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	header := r.Header.Get("Authorization")
	token := strings.TrimPrefix(header, "Bearer ")
	if token == "" || token == header {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "missing bearer token"},
		})
		return
	}

	if err := h.manager.Logout(r.Context(), token); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
