package docstore

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.mongodb.org/mongo-driver/bson"
)

// Metrics holds the collectors used by Instrument.
type Metrics struct {
	ops       *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	batchSize prometheus.Histogram
}

// NewMetrics registers the document store collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ops: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadhub_docstore_operations_total",
				Help: "Total number of document store operations",
			},
			[]string{"op", "collection", "result"},
		),
		duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "leadhub_docstore_operation_duration_seconds",
				Help:    "Duration of document store operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		batchSize: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "leadhub_docstore_batch_ops",
				Help:    "Operations per committed batch",
				Buckets: []float64{1, 5, 25, 100, 250, 450, 500},
			},
		),
	}
}

// Instrument wraps next so every call is counted and timed.
func Instrument(next Store, m *Metrics) Store {
	return &instrumented{next: next, m: m}
}

type instrumented struct {
	next Store
	m    *Metrics
}

func result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrDuplicate):
		return "duplicate"
	case errors.Is(err, ErrBatchTooLarge):
		return "too_large"
	}
	return "error"
}

func (s *instrumented) observe(op, coll string, start time.Time, err error) {
	s.m.ops.WithLabelValues(op, coll, result(err)).Inc()
	s.m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (s *instrumented) Get(ctx context.Context, coll, id string) (Doc, error) {
	start := time.Now()
	d, err := s.next.Get(ctx, coll, id)
	s.observe("get", coll, start, err)
	return d, err
}

func (s *instrumented) List(ctx context.Context, coll string, q Query) ([]Doc, error) {
	start := time.Now()
	docs, err := s.next.List(ctx, coll, q)
	s.observe("list", coll, start, err)
	return docs, err
}

func (s *instrumented) Put(ctx context.Context, coll, id string, data bson.M, merge bool) (string, error) {
	start := time.Now()
	out, err := s.next.Put(ctx, coll, id, data, merge)
	s.observe("put", coll, start, err)
	return out, err
}

func (s *instrumented) Delete(ctx context.Context, coll, id string) error {
	start := time.Now()
	err := s.next.Delete(ctx, coll, id)
	s.observe("delete", coll, start, err)
	return err
}

func (s *instrumented) Append(ctx context.Context, coll, id, field string, values ...any) error {
	start := time.Now()
	err := s.next.Append(ctx, coll, id, field, values...)
	s.observe("append", coll, start, err)
	return err
}

func (s *instrumented) Batch() Batch {
	return &instrumentedBatch{Batch: s.next.Batch(), s: s}
}

func (s *instrumented) MaxBatchOps() int { return s.next.MaxBatchOps() }

func (s *instrumented) Ping(ctx context.Context) error { return s.next.Ping(ctx) }

type instrumentedBatch struct {
	Batch
	s *instrumented
}

func (b *instrumentedBatch) Commit(ctx context.Context) error {
	start := time.Now()
	n := b.Len()
	err := b.Batch.Commit(ctx)
	b.s.observe("commit", "", start, err)
	if err == nil {
		b.s.m.batchSize.Observe(float64(n))
	}
	return err
}
