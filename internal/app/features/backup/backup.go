// internal/app/features/backup/backup.go
package backup

import (
	"bytes"
	"errors"
	"net/http"

	backupstore "github.com/dalemusser/leadhub/internal/app/store/backup"
	"github.com/dalemusser/leadhub/internal/app/system/auth"
	"github.com/dalemusser/leadhub/internal/app/system/limits"
	"github.com/dalemusser/leadhub/internal/app/system/respond"
	"github.com/dalemusser/leadhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// restoreFailure is the 503 body for a restore that stopped part way.
type restoreFailure struct {
	Error              string `json:"error"`
	Message            string `json:"message"`
	Chunk              int    `json:"chunk"`
	LastCommittedChunk int    `json:"last_committed_chunk"`
	RecordsCommitted   int    `json:"records_committed"`
}

// ServeSnapshot handles GET /backup/snapshot: the full snapshot as
// Extended JSON.
func (h *Handler) ServeSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "backup snapshot")
	defer cancel()

	snap, err := h.Backup.Create(ctx)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	var buf bytes.Buffer
	if err := backupstore.WriteSnapshot(&buf, snap); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	actor, _ := auth.CurrentActor(r)
	h.Audit.BackupCreated(ctx, r, actor, snap.Len(), "")

	name := backupstore.ArchiveName(snap.Timestamp)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.Log.Warn("snapshot download interrupted", zap.Error(err))
	}
}

// HandleRestore handles POST /backup/restore with a snapshot body.
func (h *Handler) HandleRestore(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "backup restore")
	defer cancel()

	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxSnapshotBody)
	snap, err := backupstore.ReadSnapshot(r.Body)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			respond.Problem(w, http.StatusRequestEntityTooLarge, "validation", "snapshot is too large")
			return
		}
		respond.Error(w, h.Log, err)
		return
	}
	rep, err := h.Backup.Restore(ctx, snap)
	h.finishRestore(w, r, rep, err)
}

// HandleRestoreArchive handles POST /backup/archives/{name}/restore.
func (h *Handler) HandleRestoreArchive(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "backup restore archive")
	defer cancel()

	rep, err := h.Backup.RestoreArchive(ctx, chi.URLParam(r, "name"))
	h.finishRestore(w, r, rep, err)
}

func (h *Handler) finishRestore(w http.ResponseWriter, r *http.Request, rep backupstore.Report, err error) {
	actor, _ := auth.CurrentActor(r)

	var re *backupstore.RestoreError
	switch {
	case errors.As(err, &re):
		h.Audit.BackupRestored(r.Context(), r, actor, re.RecordsCommitted, err)
		respond.JSON(w, http.StatusServiceUnavailable, restoreFailure{
			Error:              "restore_incomplete",
			Message:            "restore stopped part way; committed chunks were kept",
			Chunk:              re.Chunk,
			LastCommittedChunk: re.LastCommittedChunk,
			RecordsCommitted:   re.RecordsCommitted,
		})
	case err != nil:
		respond.Error(w, h.Log, err)
	default:
		h.Audit.BackupRestored(r.Context(), r, actor, rep.Written, nil)
		respond.JSON(w, http.StatusOK, rep)
	}
}

// ServeArchives handles GET /backup/archives.
func (h *Handler) ServeArchives(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "backup list archives")
	defer cancel()

	infos, err := h.Backup.ListArchives(ctx)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, infos)
}

// HandleArchive handles POST /backup/archives: snapshot to storage.
func (h *Handler) HandleArchive(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "backup archive")
	defer cancel()

	name, n, err := h.Backup.Archive(ctx)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	actor, _ := auth.CurrentActor(r)
	h.Audit.BackupCreated(ctx, r, actor, n, name)
	respond.JSON(w, http.StatusCreated, map[string]any{"name": name, "records": n})
}
