package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SnapshotRunner uploads a snapshot of the data directory and returns the
// object key prefix it was stored under.
type SnapshotRunner interface {
	Run(ctx context.Context) (string, error)
}

// BackupHandler triggers one-shot snapshots. Admin only; returns 503 when
// no backup backend is configured.
type BackupHandler struct {
	runner SnapshotRunner
}

// NewBackupHandler constructs a handler. runner may be nil.
func NewBackupHandler(runner SnapshotRunner) *BackupHandler {
	return &BackupHandler{runner: runner}
}

// BackupRouter registers backup routes on the given router.
func BackupRouter(r chi.Router, runner SnapshotRunner) {
	handler := NewBackupHandler(runner)
	r.With(RequireAdmin).Post("/", handler.CreateBackup)
}

func (h *BackupHandler) CreateBackup(w http.ResponseWriter, r *http.Request) {
	if h.runner == nil {
		writeError(w, http.StatusServiceUnavailable, "backups are not configured")
		return
	}

	key, err := h.runner.Run(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "backup failed")
		return
	}
	writeJSON(w, http.StatusAccepted, BackupResponse{Key: key})
}

type BackupResponse struct {
	Key string `json:"key"`
}
