package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lifelog/apiserver/internal/services"
	"github.com/lifelog/apiserver/types"
)

// EntryHandler provides HTTP handlers for entries.
type EntryHandler struct {
	entryService *services.EntryService
}

// NewEntryHandler constructs a handler with the provided service.
func NewEntryHandler(entryService *services.EntryService) *EntryHandler {
	return &EntryHandler{entryService: entryService}
}

// EntryRouter registers entry routes on the given router.
func EntryRouter(r chi.Router, entryService *services.EntryService) {
	handler := NewEntryHandler(entryService)

	r.Get("/", handler.ListEntries)
	r.Post("/", handler.CreateEntry)
	r.Delete("/{entryID}", handler.DeleteEntry)
}

func (h *EntryHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	entries, err := h.entryService.List(r.Context(), principal)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list entries")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// CreateEntry appends a new entry. Id, timestamp and owner come from the
// server; any client-supplied values for them are ignored.
func (h *EntryHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req EntryCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "categoryId and a non-empty items list are required")
		return
	}

	entry, err := h.entryService.Create(r.Context(), principal, req.CategoryID, req.Items, req.Notes)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (h *EntryHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.entryService.Delete(r.Context(), principal, chi.URLParam(r, "entryID")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type EntryCreateRequest struct {
	CategoryID string            `json:"categoryId" validate:"required"`
	Items      []types.EntryItem `json:"items" validate:"required,min=1"`
	Notes      string            `json:"notes"`
}
