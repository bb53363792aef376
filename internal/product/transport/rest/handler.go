// Package rest provides HTTP handlers for product-related operations.
package rest

import (
	"errors"
	"log/slog"
	"net/http"

	producterrors "github.com/abgdnv/productapi/internal/product/errors"
	"github.com/abgdnv/productapi/internal/product/query"
	"github.com/abgdnv/productapi/internal/product/service"
	"github.com/abgdnv/productapi/pkg/apperror"
	"github.com/abgdnv/productapi/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// WelcomeMessage is served on the root route.
const WelcomeMessage = "Welcome to the Product API! Visit /api/products"

type Handler struct {
	service  service.ProductService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a new instance of Handler with the provided service.
func NewHandler(service service.ProductService, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the product API.
// Mutating product routes are wrapped with protect.
func (h *Handler) RegisterRoutes(r chi.Router, protect func(http.Handler) http.Handler) {
	r.Get("/", h.Welcome)
	r.Get("/healthz", h.HealthCheck)

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/stats", h.Stats)
		r.Get("/{id}", h.FindByID)

		r.Group(func(r chi.Router) {
			r.Use(protect)
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.DeleteByID)
		})
	})
}

// List returns a filtered and paginated view of the products.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	params := query.ParseParams(r.URL.Query())
	h.logger.DebugContext(r.Context(), "Received request to list products", "params", params)
	page := h.service.List(r.Context(), params)
	web.RespondJSON(w, h.logger, http.StatusOK, page)
}

// Stats returns the product count per category.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	web.RespondJSON(w, h.logger, http.StatusOK, h.service.Stats(r.Context()))
}

// FindByID retrieves a product by its ID.
func (h *Handler) FindByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.logger.DebugContext(r.Context(), "Received request to find product by ID", "ID", id)
	found, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		web.RespondErr(w, r, h.logger, classify(err))
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, found)
}

// Create handles the creation of a new product.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.ProductCreateInput
	if err := web.DecodeJSON(w, r, &in); err != nil {
		web.RespondErr(w, r, h.logger, err)
		return
	}
	if err := h.validate.Struct(in); err != nil {
		web.RespondValidation(w, r, h.logger, err)
		return
	}

	created, err := h.service.Create(r.Context(), in)
	if err != nil {
		web.RespondErr(w, r, h.logger, classify(err))
		return
	}
	h.logger.InfoContext(r.Context(), "Product created successfully", "ID", created.ID, "Name", created.Name)
	web.RespondJSON(w, h.logger, http.StatusCreated, created)
}

// Update merges the request body into an existing product.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var in service.ProductInput
	if err := web.DecodeJSON(w, r, &in); err != nil {
		web.RespondErr(w, r, h.logger, err)
		return
	}
	if err := h.validate.Struct(in); err != nil {
		web.RespondValidation(w, r, h.logger, err)
		return
	}

	updated, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		web.RespondErr(w, r, h.logger, classify(err))
		return
	}
	h.logger.InfoContext(r.Context(), "Product updated successfully", "ID", updated.ID, "Name", updated.Name)
	web.RespondJSON(w, h.logger, http.StatusOK, updated)
}

// DeleteByID deletes a product by its ID.
func (h *Handler) DeleteByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.DeleteByID(r.Context(), id); err != nil {
		web.RespondErr(w, r, h.logger, classify(err))
		return
	}
	h.logger.InfoContext(r.Context(), "Product deleted successfully", "ID", id)
	w.WriteHeader(http.StatusNoContent)
}

// Welcome greets clients on the root route.
func (h *Handler) Welcome(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(WelcomeMessage))
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// classify turns product errors into caller-facing errors. Anything unknown is passed through
// and ends up as a generic 500.
func classify(err error) error {
	if errors.Is(err, producterrors.ErrProductNotFound) {
		return apperror.Wrap(http.StatusNotFound, "Product not found", err)
	}
	return err
}
