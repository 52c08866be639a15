// internal/app/store/backup/archive.go
package backupstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/dalemusser/leadhub/internal/app/system/apperr"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.uber.org/zap"
)

// ErrArchiveNotFound is returned by Archiver.Open for an unknown name.
var ErrArchiveNotFound = errors.New("backup: archive not found")

// ArchiveInfo describes one stored snapshot file.
type ArchiveInfo struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// Archiver stores snapshot files by name.
type Archiver interface {
	Put(ctx context.Context, name string, data []byte) error
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	List(ctx context.Context) ([]ArchiveInfo, error)
}

const archiveExt = ".json"

// ArchiveName returns the file name used for a snapshot taken at t.
func ArchiveName(t time.Time) string {
	return "leadhub-backup-" + t.UTC().Format("20060102T150405.000Z") + archiveExt
}

// checkName rejects names that could escape the archive root.
func checkName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("backup: invalid archive name %q", name)
	}
	return nil
}

// Archive writes a fresh snapshot to the configured archiver and returns
// its name and record count.
func (s *Service) Archive(ctx context.Context) (string, int, error) {
	const op = "backup.Archive"
	if s.archiver == nil {
		return "", 0, apperr.Validationf(op, "no archive storage configured")
	}
	snap, err := s.Create(ctx)
	if err != nil {
		return "", 0, err
	}
	var buf bytes.Buffer
	if err := WriteSnapshot(&buf, snap); err != nil {
		return "", 0, err
	}
	name := ArchiveName(snap.Timestamp)
	if err := s.archiver.Put(ctx, name, buf.Bytes()); err != nil {
		return "", 0, apperr.Store(op, err)
	}
	s.log.Info("backup archived", zap.String("archive", name), zap.Int("records", snap.Len()), zap.Int("bytes", buf.Len()))
	return name, snap.Len(), nil
}

// RestoreArchive loads the named snapshot file and restores it.
func (s *Service) RestoreArchive(ctx context.Context, name string) (Report, error) {
	const op = "backup.RestoreArchive"
	if s.archiver == nil {
		return Report{}, apperr.Validationf(op, "no archive storage configured")
	}
	if err := checkName(name); err != nil {
		return Report{}, apperr.Validationf(op, "%v", err)
	}
	rc, err := s.archiver.Open(ctx, name)
	if errors.Is(err, ErrArchiveNotFound) {
		return Report{}, apperr.NotFoundf(op, "archive %q not found", name)
	}
	if err != nil {
		return Report{}, apperr.Store(op, err)
	}
	defer rc.Close()
	snap, err := ReadSnapshot(rc)
	if err != nil {
		return Report{}, err
	}
	return s.Restore(ctx, snap)
}

// ListArchives returns stored snapshots, newest first.
func (s *Service) ListArchives(ctx context.Context) ([]ArchiveInfo, error) {
	const op = "backup.ListArchives"
	if s.archiver == nil {
		return []ArchiveInfo{}, nil
	}
	infos, err := s.archiver.List(ctx)
	if err != nil {
		return nil, apperr.Store(op, err)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name > infos[j].Name })
	return infos, nil
}

// StorageArchiver keeps snapshot files at the root of a storage.Store.
// Key prefixes belong to the backend config (S3Config.Prefix).
type StorageArchiver struct {
	store storage.Store
}

func NewStorageArchiver(store storage.Store) *StorageArchiver {
	return &StorageArchiver{store: store}
}

func (a *StorageArchiver) Put(ctx context.Context, name string, data []byte) error {
	if err := checkName(name); err != nil {
		return err
	}
	return a.store.PutBytes(ctx, name, data, &storage.PutOptions{ContentType: "application/json"})
}

func (a *StorageArchiver) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	rc, err := a.store.Get(ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrArchiveNotFound
	}
	return rc, err
}

// List pages through the store and keeps only top-level snapshot files. Backends that ignore ContinuationToken repeat a page and
// hand back the same token; seen drops the repeats and the token check
// ends the walk.
func (a *StorageArchiver) List(ctx context.Context) ([]ArchiveInfo, error) {
	out := []ArchiveInfo{}
	seen := map[string]bool{}
	opts := &storage.ListOptions{}
	for {
		res, err := a.store.List(ctx, "", opts)
		if err != nil {
			return nil, err
		}
		for _, obj := range res.Objects {
			name := obj.Path
			if seen[name] || checkName(name) != nil || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, archiveExt) {
				continue
			}
			seen[name] = true
			out = append(out, ArchiveInfo{Name: name, Size: obj.Size, Modified: obj.LastModified.UTC()})
		}
		if !res.IsTruncated || res.NextContinuationToken == "" || res.NextContinuationToken == opts.ContinuationToken {
			break
		}
		opts.ContinuationToken = res.NextContinuationToken
	}
	return out, nil
}
