package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/phrazzld/lazycard/internal/api/shared"
	"github.com/phrazzld/lazycard/internal/backup"
)

// BackupRunner writes a backup file and returns its path.
type BackupRunner interface {
	RunOnce(ctx context.Context) (string, error)
}

// Exporter produces an in-memory snapshot of the collection.
type Exporter interface {
	Export(ctx context.Context) (*backup.Snapshot, error)
}

// BackupHandler serves backup endpoints.
type BackupHandler struct {
	runner   BackupRunner
	exporter Exporter
	logger   *slog.Logger
}

// NewBackupHandler creates a BackupHandler.
func NewBackupHandler(runner BackupRunner, exporter Exporter, logger *slog.Logger) *BackupHandler {
	if runner == nil || exporter == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("backup runner and exporter cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BackupHandler{runner: runner, exporter: exporter, logger: logger.With(slog.String("component", "backup_handler"))}
}

// CreateBackup handles POST /api/backup by writing a backup file into the
// configured backup directory.
func (h *BackupHandler) CreateBackup(w http.ResponseWriter, r *http.Request) {
	path, err := h.runner.RunOnce(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to write backup")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, BackupResponse{Path: path})
}

// ExportSnapshot handles GET /api/export and returns the snapshot as JSON.
func (h *BackupHandler) ExportSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.exporter.Export(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+backup.FileName(snap.ExportedAt, backup.FormatJSON)+`"`)
	shared.RespondWithJSON(w, r, http.StatusOK, snap)
}
