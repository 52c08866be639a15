// internal/app/store/backup/backupstore.go
package backupstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/dalemusser/leadhub/internal/app/system/apperr"
	"github.com/dalemusser/leadhub/internal/app/system/docstore"
	"github.com/dalemusser/leadhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// FormatVersion is written into every snapshot.
const FormatVersion = "1"

// DefaultChunkSize is the number of records committed per restore batch.
const DefaultChunkSize = 450

// restoreOrder is the fixed collection order used by Restore.
var restoreOrder = []string{models.CollUsers, models.CollTeams, models.CollLeads, models.CollSettings}

// Record is one exported document. Data never contains "_id".
type Record struct {
	OriginalID string `bson:"original_id" json:"original_id"`
	Data       bson.M `bson:"data" json:"data"`
}

// Snapshot is a full export of the four core collections.
type Snapshot struct {
	Timestamp time.Time `bson:"timestamp"`
	Version   string    `bson:"version"`
	Users     []Record  `bson:"users"`
	Teams     []Record  `bson:"teams"`
	Leads     []Record  `bson:"leads"`
	Settings  []Record  `bson:"settings"`
}

// Len is the total record count.
func (s *Snapshot) Len() int {
	return len(s.Users) + len(s.Teams) + len(s.Leads) + len(s.Settings)
}

func (s *Snapshot) records(coll string) []Record {
	switch coll {
	case models.CollUsers:
		return s.Users
	case models.CollTeams:
		return s.Teams
	case models.CollLeads:
		return s.Leads
	case models.CollSettings:
		return s.Settings
	}
	return nil
}

func (s *Snapshot) setRecords(coll string, recs []Record) {
	switch coll {
	case models.CollUsers:
		s.Users = recs
	case models.CollTeams:
		s.Teams = recs
	case models.CollLeads:
		s.Leads = recs
	case models.CollSettings:
		s.Settings = recs
	}
}

// Report summarizes a successful restore.
type Report struct {
	Written      int            `json:"written"`
	Chunks       int            `json:"chunks"`
	ByCollection map[string]int `json:"by_collection"`
}

// RestoreError reports a restore that stopped part way. Chunks before
// Chunk were committed and stay written; nothing is rolled back.
type RestoreError struct {
	Chunk              int // 0-based index of the chunk that failed
	LastCommittedChunk int // Chunk-1, or -1 when nothing was committed
	RecordsCommitted   int
	Err                error
}

func (e *RestoreError) Error() string {
	return fmt.Sprintf("backup: restore failed at chunk %d after %d records (last committed chunk %d): %v",
		e.Chunk, e.RecordsCommitted, e.LastCommittedChunk, e.Err)
}

func (e *RestoreError) Unwrap() error { return e.Err }

// Service exports and restores the core collections.
type Service struct {
	ds       docstore.Store
	log      *zap.Logger
	chunk    int
	archiver Archiver
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithChunkSize sets the restore chunk size.
func WithChunkSize(n int) Option {
	return func(s *Service) { s.chunk = n }
}

// WithArchiver sets where Archive writes snapshot files.
func WithArchiver(a Archiver) Option {
	return func(s *Service) { s.archiver = a }
}

// WithClock overrides the snapshot timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a backup service. The chunk size must be positive and no
// larger than the store's batch limit.
func New(ds docstore.Store, log *zap.Logger, opts ...Option) (*Service, error) {
	s := &Service{
		ds:    ds,
		log:   log,
		chunk: DefaultChunkSize,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(s)
	}
	if s.chunk <= 0 || s.chunk > ds.MaxBatchOps() {
		return nil, apperr.Validationf("backup.New", "chunk size %d must be between 1 and %d", s.chunk, ds.MaxBatchOps())
	}
	return s, nil
}

// ChunkSize returns the configured restore chunk size.
func (s *Service) ChunkSize() int { return s.chunk }

// Create reads every document of users, teams, leads and settings.
// It is a full scan of each collection. Records are ordered by id.
func (s *Service) Create(ctx context.Context) (*Snapshot, error) {
	const op = "backup.Create"
	snap := &Snapshot{Timestamp: s.now(), Version: FormatVersion}
	for _, coll := range restoreOrder {
		docs, err := s.ds.List(ctx, coll, docstore.Query{})
		if err != nil {
			return nil, apperr.Store(op, err)
		}
		recs := make([]Record, 0, len(docs))
		for _, d := range docs {
			data := d.Data
			if data == nil {
				data = bson.M{}
			}
			recs = append(recs, Record{OriginalID: d.ID, Data: data})
		}
		sort.Slice(recs, func(i, j int) bool { return recs[i].OriginalID < recs[j].OriginalID })
		snap.setRecords(coll, recs)
	}
	s.log.Info("backup created",
		zap.Int("users", len(snap.Users)),
		zap.Int("teams", len(snap.Teams)),
		zap.Int("leads", len(snap.Leads)),
		zap.Int("settings", len(snap.Settings)))
	return snap, nil
}

// Restore writes every record back under its original id, overwriting
// whatever is stored there. Records are written users first, then teams,
// leads and settings, in batches of the chunk size. Every record must
// carry an original id; that is checked before anything is written.
//
// A failed chunk stops the restore and returns a *RestoreError. Earlier
// chunks remain committed.
func (s *Service) Restore(ctx context.Context, snap *Snapshot) (Report, error) {
	const op = "backup.Restore"
	if snap == nil {
		return Report{}, apperr.Validationf(op, "snapshot is required")
	}
	if err := validate(op, snap); err != nil {
		return Report{}, err
	}

	rep := Report{ByCollection: map[string]int{}}
	b := s.ds.Batch()
	pending := map[string]int{}

	flush := func() error {
		if b.Len() == 0 {
			return nil
		}
		if err := b.Commit(ctx); err != nil {
			s.log.Error("restore chunk failed",
				zap.Int("chunk", rep.Chunks),
				zap.Int("records_committed", rep.Written),
				zap.Error(err))
			return &RestoreError{
				Chunk:              rep.Chunks,
				LastCommittedChunk: rep.Chunks - 1,
				RecordsCommitted:   rep.Written,
				Err:                err,
			}
		}
		rep.Written += b.Len()
		rep.Chunks++
		for c, n := range pending {
			rep.ByCollection[c] += n
		}
		pending = map[string]int{}
		b = s.ds.Batch()
		return nil
	}

	for _, coll := range restoreOrder {
		for _, r := range snap.records(coll) {
			data := bson.M{}
			for k, v := range r.Data {
				if k == "_id" {
					continue
				}
				data[k] = v
			}
			b.Set(coll, r.OriginalID, data)
			pending[coll]++
			if b.Len() >= s.chunk {
				if err := flush(); err != nil {
					return rep, err
				}
			}
		}
	}
	if err := flush(); err != nil {
		return rep, err
	}

	s.log.Info("backup restored", zap.Int("records", rep.Written), zap.Int("chunks", rep.Chunks))
	return rep, nil
}

func validate(op string, snap *Snapshot) error {
	for _, coll := range restoreOrder {
		seen := map[string]bool{}
		for i, r := range snap.records(coll) {
			if r.OriginalID == "" {
				return apperr.Validationf(op, "%s record %d has no original_id", coll, i)
			}
			if seen[r.OriginalID] {
				return apperr.Validationf(op, "%s record %q appears more than once", coll, r.OriginalID)
			}
			seen[r.OriginalID] = true
		}
	}
	return nil
}

// WriteSnapshot encodes snap as canonical MongoDB Extended JSON, which
// keeps dates and number types intact across a round trip.
func WriteSnapshot(w io.Writer, snap *Snapshot) error {
	data, err := bson.MarshalExtJSON(snap, true, false)
	if err != nil {
		return fmt.Errorf("backup: encode snapshot: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// ReadSnapshot decodes a snapshot written by WriteSnapshot.
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	const op = "backup.ReadSnapshot"
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("backup: read snapshot: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, apperr.Validationf(op, "snapshot is empty")
	}
	var snap Snapshot
	if err := bson.UnmarshalExtJSON(data, true, &snap); err != nil {
		return nil, apperr.Validationf(op, "snapshot is not valid extended JSON: %v", err)
	}
	return &snap, nil
}
