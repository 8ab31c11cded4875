package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lifelog/apiserver/internal/services"
	"github.com/lifelog/apiserver/types"
)

// TaxonomyHandler provides HTTP handlers for the category tree.
type TaxonomyHandler struct {
	taxonomyService *services.TaxonomyService
}

// NewTaxonomyHandler constructs a handler with the provided service.
func NewTaxonomyHandler(taxonomyService *services.TaxonomyService) *TaxonomyHandler {
	return &TaxonomyHandler{taxonomyService: taxonomyService}
}

// TaxonomyRouter registers taxonomy routes on the given router. Reads are
// open to every authenticated caller; mutations require the admin role.
func TaxonomyRouter(r chi.Router, taxonomyService *services.TaxonomyService) {
	handler := NewTaxonomyHandler(taxonomyService)

	r.Get("/", handler.ListCategories)
	r.With(RequireAdmin).Post("/", handler.CreateCategory)
	r.Route("/{categoryID}", func(r chi.Router) {
		r.With(RequireAdmin).Put("/", handler.UpdateCategory)
		r.With(RequireAdmin).Delete("/", handler.DeleteCategory)

		r.With(RequireAdmin).Post("/items", handler.CreateItem)
		r.Route("/items/{itemID}", func(r chi.Router) {
			r.With(RequireAdmin).Put("/", handler.UpdateItem)
			r.With(RequireAdmin).Delete("/", handler.DeleteItem)

			r.With(RequireAdmin).Post("/subitems", handler.CreateSubItem)
			r.With(RequireAdmin).Put("/subitems/{subID}", handler.UpdateSubItem)
			r.With(RequireAdmin).Delete("/subitems/{subID}", handler.DeleteSubItem)
		})
	})
}

func (h *TaxonomyHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.taxonomyService.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}
	writeJSON(w, http.StatusOK, CategoryListResponse{Categories: categories})
}

func (h *TaxonomyHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "name and categoryType are required")
		return
	}

	category, err := h.taxonomyService.CreateCategory(r.Context(), req.Name, req.CategoryType)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

func (h *TaxonomyHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var patch types.CategoryPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	category, err := h.taxonomyService.UpdateCategory(r.Context(), chi.URLParam(r, "categoryID"), patch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (h *TaxonomyHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.taxonomyService.DeleteCategory(r.Context(), chi.URLParam(r, "categoryID")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TaxonomyHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req ItemCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	item, err := h.taxonomyService.CreateItem(r.Context(), chi.URLParam(r, "categoryID"), req.Name, req.ScaleType)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *TaxonomyHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var patch types.ItemPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	item, err := h.taxonomyService.UpdateItem(r.Context(), chi.URLParam(r, "categoryID"), chi.URLParam(r, "itemID"), patch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *TaxonomyHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	err := h.taxonomyService.DeleteItem(r.Context(), chi.URLParam(r, "categoryID"), chi.URLParam(r, "itemID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TaxonomyHandler) CreateSubItem(w http.ResponseWriter, r *http.Request) {
	var req SubItemCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	sub, err := h.taxonomyService.CreateSubItem(r.Context(), chi.URLParam(r, "categoryID"), chi.URLParam(r, "itemID"), req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (h *TaxonomyHandler) UpdateSubItem(w http.ResponseWriter, r *http.Request) {
	var patch types.SubItemPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	sub, err := h.taxonomyService.UpdateSubItem(
		r.Context(),
		chi.URLParam(r, "categoryID"),
		chi.URLParam(r, "itemID"),
		chi.URLParam(r, "subID"),
		patch,
	)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (h *TaxonomyHandler) DeleteSubItem(w http.ResponseWriter, r *http.Request) {
	err := h.taxonomyService.DeleteSubItem(
		r.Context(),
		chi.URLParam(r, "categoryID"),
		chi.URLParam(r, "itemID"),
		chi.URLParam(r, "subID"),
	)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type CategoryListResponse struct {
	Categories []types.Category `json:"categories"`
}

type CategoryCreateRequest struct {
	Name         string             `json:"name" validate:"required"`
	CategoryType types.CategoryType `json:"categoryType" validate:"required,oneof=food self"`
}

type ItemCreateRequest struct {
	Name      string           `json:"name" validate:"required"`
	ScaleType *types.ScaleType `json:"scaleType" validate:"omitempty,oneof=rating weight count volume intensity"`
}

type SubItemCreateRequest struct {
	Name string `json:"name" validate:"required"`
}
