package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yosseffehabb/illusion-studios/internal/domain"
	"github.com/yosseffehabb/illusion-studios/internal/gateway"
	"github.com/yosseffehabb/illusion-studios/internal/service"
	"github.com/yosseffehabb/illusion-studios/pkg/httputil"
	"github.com/yosseffehabb/illusion-studios/pkg/validator"
)

// ProductHandler handles HTTP requests for product endpoints.
type ProductHandler struct {
	service *service.CatalogService
	logger  *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(svc *service.CatalogService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: svc,
		logger:  logger,
	}
}

// VariantRequest is the JSON request body for a product variant.
type VariantRequest struct {
	ID    string `json:"id"`
	Size  string `json:"size"`
	Stock int    `json:"stock"`
}

// ProductRequest is the JSON request body for creating or updating a product.
// Field rules are checked as one full pass downstream, so every violation
// comes back in a single response; no tag validation happens here.
type ProductRequest struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       int64            `json:"price"`
	Color       string           `json:"color"`
	CategoryID  string           `json:"category_id"`
	SizeType    string           `json:"size_type"`
	Discount    int              `json:"discount"`
	Status      string           `json:"status"`
	Images      []string         `json:"images"`
	Variants    []VariantRequest `json:"variants"`
}

// StockRequest is the JSON request body for setting variant stock.
type StockRequest struct {
	Stock int `json:"stock" validate:"gte=0"`
}

func (req *ProductRequest) toDomain() *domain.Product {
	variants := make([]domain.Variant, len(req.Variants))
	for i, v := range req.Variants {
		variants[i] = domain.Variant{ID: v.ID, Size: v.Size, Stock: v.Stock}
	}
	return &domain.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Color:       req.Color,
		CategoryID:  req.CategoryID,
		SizeType:    req.SizeType,
		Discount:    req.Discount,
		Status:      req.Status,
		Images:      req.Images,
		Variants:    variants,
	}
}

// List handles GET /api/v1/products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := gateway.ProductFilter{
		Search:     r.URL.Query().Get("search"),
		CategoryID: r.URL.Query().Get("category_id"),
		Status:     r.URL.Query().Get("status"),
	}

	products, err := h.service.ListProducts(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: products})
}

// Get handles GET /api/v1/products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: p})
}

// Create handles POST /api/v1/products
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	p, err := h.service.CreateProduct(r.Context(), req.toDomain())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: p})
}

// Update handles PUT /api/v1/products/{id}
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	id := chi.URLParam(r, "id")

	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	p := req.toDomain()
	p.ID = id

	updated, err := h.service.UpdateProduct(r.Context(), p)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: updated})
}

// Delete handles DELETE /api/v1/products/{id}
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetVariantStock handles PUT /api/v1/products/{id}/variants/{variantID}/stock
func (h *ProductHandler) SetVariantStock(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")
	variantID := chi.URLParam(r, "variantID")

	var req StockRequest
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

	if err := h.service.SetVariantStock(r.Context(), productID, variantID, req.Stock); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
