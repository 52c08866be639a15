// internal/app/store/settings/settingsstore.go
package settingsstore

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/dalemusser/leadhub/internal/app/system/apperr"
	"github.com/dalemusser/leadhub/internal/app/system/docstore"
	"github.com/dalemusser/leadhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// Store provides access to the settings singleton (settings/meta).
//
// It keeps an explicit snapshot of the last document it read or wrote.
// Snapshot never touches the backend; Reload refreshes it. The snapshot
// belongs to this Store value, so every holder of the same *Store sees
// the same state.
//
// Writes are last-writer-wins per top-level key. There is no version
// check: two admins editing the same key concurrently will lose one edit.
type Store struct {
	ds  docstore.Store
	log *zap.Logger

	mu   sync.RWMutex
	snap models.Settings
}

// New creates a new settings store with an empty snapshot.
func New(ds docstore.Store, log *zap.Logger) *Store {
	return &Store{ds: ds, log: log, snap: models.Settings{}}
}

// Get reads the settings document. A missing document yields empty
// settings. The snapshot is refreshed as a side effect.
func (s *Store) Get(ctx context.Context) (models.Settings, error) {
	const op = "settings.Get"
	d, err := s.ds.Get(ctx, models.CollSettings, models.SettingsID)
	var cur models.Settings
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		cur = models.Settings{}
	case err != nil:
		return nil, apperr.Store(op, err)
	default:
		cur = models.Settings(d.Data)
	}
	s.mu.Lock()
	s.snap = clone(cur)
	s.mu.Unlock()
	return cur, nil
}

// Reload refreshes the snapshot from the backend.
func (s *Store) Reload(ctx context.Context) error {
	_, err := s.Get(ctx)
	return err
}

// Snapshot returns a copy of the cached settings.
func (s *Store) Snapshot() models.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.snap)
}

// Set merges partial into the settings document, creating it if needed.
// Keys not in partial are left alone.
func (s *Store) Set(ctx context.Context, partial map[string]any) error {
	const op = "settings.Set"
	if len(partial) == 0 {
		return apperr.Validationf(op, "settings update must contain at least one key")
	}
	data := bson.M{}
	for k, v := range partial {
		k = strings.TrimSpace(k)
		if k == "" || k == "_id" || k == "id" || strings.ContainsAny(k, ".$") {
			return apperr.Validationf(op, "invalid settings key %q", k)
		}
		data[k] = v
	}
	if _, err := s.ds.Put(ctx, models.CollSettings, models.SettingsID, data, true); err != nil {
		return apperr.Store(op, err)
	}

	// canonical form, so the snapshot matches what Get would return
	stored, err := docstore.Encode(data)
	if err != nil {
		return apperr.Store(op, err)
	}
	s.mu.Lock()
	for k, v := range stored {
		s.snap[k] = v
	}
	s.mu.Unlock()

	s.log.Info("settings updated", zap.Strings("keys", keys(data)))
	return nil
}

// Options returns the values of a [{value}] list key, in order. Keys that
// are missing or shaped differently yield nil.
func Options(st models.Settings, key string) []string {
	arr, ok := st[key].(bson.A)
	if !ok {
		if raw, ok2 := st[key].([]any); ok2 {
			arr = raw
		} else {
			return nil
		}
	}
	var out []string
	for _, e := range arr {
		switch m := e.(type) {
		case bson.M:
			if v, ok := m["value"].(string); ok {
				out = append(out, v)
			}
		case map[string]any:
			if v, ok := m["value"].(string); ok {
				out = append(out, v)
			}
		}
	}
	return out
}

// AddOption appends value to the [{value}] list at key unless present.
//
// This is a read-modify-write of the whole list: a concurrent AddOption or
// RemoveOption on the same key can be lost.
func (s *Store) AddOption(ctx context.Context, key, value string) error {
	const op = "settings.AddOption"
	value = strings.TrimSpace(value)
	if value == "" {
		return apperr.Validationf(op, "value is required")
	}
	cur, err := s.Get(ctx)
	if err != nil {
		return err
	}
	vals := Options(cur, key)
	for _, v := range vals {
		if v == value {
			return nil
		}
	}
	return s.Set(ctx, map[string]any{key: optionList(append(vals, value))})
}

// RemoveOption deletes value from the [{value}] list at key. It reports
// whether the value was present. Same race caveat as AddOption.
func (s *Store) RemoveOption(ctx context.Context, key, value string) (bool, error) {
	cur, err := s.Get(ctx)
	if err != nil {
		return false, err
	}
	vals := Options(cur, key)
	kept := make([]string, 0, len(vals))
	for _, v := range vals {
		if v != value {
			kept = append(kept, v)
		}
	}
	if len(kept) == len(vals) {
		return false, nil
	}
	return true, s.Set(ctx, map[string]any{key: optionList(kept)})
}

func optionList(vals []string) bson.A {
	out := make(bson.A, len(vals))
	for i, v := range vals {
		out[i] = models.Option{Value: v}
	}
	return out
}

func keys(m bson.M) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func clone(st models.Settings) models.Settings {
	if len(st) == 0 {
		return models.Settings{}
	}
	m, err := docstore.Encode(bson.M(st))
	if err != nil {
		out := make(models.Settings, len(st))
		for k, v := range st {
			out[k] = v
		}
		return out
	}
	return models.Settings(m)
}
