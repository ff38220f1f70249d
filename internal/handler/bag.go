package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/beanbook/beanbook/internal/handler/dto"
	"github.com/beanbook/beanbook/internal/model"
	"github.com/beanbook/beanbook/internal/service"
)

// Bags is the bag surface the HTTP layer needs.
type Bags interface {
	ListBags(ctx context.Context, ownerID string, input service.ListInput) (*service.Page[*model.Bag], error)
	GetBag(ctx context.Context, id string) (*model.Bag, error)
	AddBag(ctx context.Context, userID string, input service.BagInput) (*model.Bag, error)
	UpdateBag(ctx context.Context, userID, id string, input service.BagUpdateInput) (*model.Bag, error)
	DeleteBag(ctx context.Context, userID, id string) error
}

// BagHandler handles HTTP requests for bag operations.
type BagHandler struct {
	bags   Bags
	logger *slog.Logger
}

// NewBagHandler creates a new BagHandler.
func NewBagHandler(bags Bags, logger *slog.Logger) *BagHandler {
	return &BagHandler{
		bags:   bags,
		logger: logger.With("component", "handler.bag"),
	}
}

// List handles GET /api/v1/bags. ?owner= narrows to one user's bags.
func (h *BagHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.bags.ListBags(r.Context(), r.URL.Query().Get("owner"), listInput(r))
	if err != nil {
		serviceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewPage(dto.ToBagResponses(page.Items), page.NextCursor))
}

// Create handles POST /api/v1/bags.
func (h *BagHandler) Create(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	var req dto.BagRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	bag, err := h.bags.AddBag(r.Context(), s.UserID, req.ToInput())
	if err != nil {
		serviceError(w, h.logger, err)
		return
	}

	h.logger.Info("bag_created", "bag_id", bag.ID, "user_id", s.UserID)
	writeJSON(w, http.StatusCreated, dto.ToBagResponse(bag))
}

// Get handles GET /api/v1/bags/{id}.
func (h *BagHandler) Get(w http.ResponseWriter, r *http.Request) {
	bag, err := h.bags.GetBag(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		serviceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToBagResponse(bag))
}

// Update handles PUT /api/v1/bags/{id}.
func (h *BagHandler) Update(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	var req dto.UpdateBagRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	bag, err := h.bags.UpdateBag(r.Context(), s.UserID, chi.URLParam(r, "id"), req.ToInput())
	if err != nil {
		serviceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToBagResponse(bag))
}

// Delete handles DELETE /api/v1/bags/{id}.
func (h *BagHandler) Delete(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.bags.DeleteBag(r.Context(), s.UserID, id); err != nil {
		serviceError(w, h.logger, err)
		return
	}

	h.logger.Info("bag_deleted", "bag_id", id, "user_id", s.UserID)
	w.WriteHeader(http.StatusNoContent)
}
