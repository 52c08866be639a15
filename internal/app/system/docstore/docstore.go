// Package docstore is the document store adapter every repository talks to.
//
// A Store exposes keyed documents grouped in named collections with a small
// set of primitives: get, conjunctive list queries with one sort key and a
// limit, put (overwrite or merge), delete, array append, and an atomic batch
// with an enforced maximum operation count. Two backends implement it:
// MongoDB (production) and an in-process memory store (tests, local dev).
//
// Documents are bson.M maps. Values are held in their canonical BSON form,
// so a time.Time written through Put reads back as primitive.DateTime with
// millisecond precision on every backend. Use Decode and Encode to move
// between documents and model structs.
package docstore

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

var (
	// ErrNotFound is returned when a keyed document does not exist.
	ErrNotFound = errors.New("docstore: document not found")
	// ErrBatchTooLarge is returned by Commit when a batch holds more
	// operations than the store allows.
	ErrBatchTooLarge = errors.New("docstore: batch exceeds maximum operation count")
	// ErrDuplicate is returned when a write violates a unique constraint.
	ErrDuplicate = errors.New("docstore: duplicate key")
	// ErrAtomicUnsupported is returned when the backend cannot apply a
	// batch atomically (e.g. MongoDB without a replica set).
	ErrAtomicUnsupported = errors.New("docstore: atomic batches not supported by backend")
)

// DefaultMaxBatchOps is the hard per-batch operation ceiling.
const DefaultMaxBatchOps = 500

// Doc is a stored document. Data never contains the "_id" key.
type Doc struct {
	ID   string
	Data bson.M
}

// Op is a comparison operator in a query condition.
type Op string

const (
	Eq  Op = "=="
	In  Op = "in"
	Gt  Op = ">"
	Gte Op = ">="
	Lt  Op = "<"
	Lte Op = "<="
)

// Cond is one predicate of a conjunctive query.
// For In, Value must be a []string or []any.
type Cond struct {
	Field string
	Op    Op
	Value any
}

// Where is shorthand for building a Cond.
func Where(field string, op Op, value any) Cond {
	return Cond{Field: field, Op: op, Value: value}
}

// Query selects documents from a collection. All Where conditions must
// hold. When OrderBy is set, documents lacking that field are excluded and
// ties are broken by document id in the same direction. Limit <= 0 means
// no limit.
type Query struct {
	Where   []Cond
	OrderBy string
	Desc    bool
	Limit   int
}

// Store is the document store contract.
type Store interface {
	// Get returns the document or ErrNotFound.
	Get(ctx context.Context, coll, id string) (Doc, error)
	// List returns the documents matching q.
	List(ctx context.Context, coll string, q Query) ([]Doc, error)
	// Put writes data under id, generating an id when id is empty.
	// merge=false replaces the whole document; merge=true overwrites only
	// the top-level keys present in data and creates the document if
	// missing. The written id is returned.
	Put(ctx context.Context, coll, id string, data bson.M, merge bool) (string, error)
	// Delete removes the document. Deleting a missing document is not an error.
	Delete(ctx context.Context, coll, id string) error
	// Append pushes values onto the end of the array at field, in order,
	// duplicates included. ErrNotFound if the document does not exist.
	Append(ctx context.Context, coll, id, field string, values ...any) error
	// Batch starts an atomic multi-document write.
	Batch() Batch
	// MaxBatchOps is the largest operation count Commit accepts.
	MaxBatchOps() int
	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
}

// Batch collects writes that are applied all-or-nothing by Commit.
// Operations are applied in the order they were added.
type Batch interface {
	// Set replaces the document (creating it if missing).
	Set(coll, id string, data bson.M)
	// Update merges data into an existing document. Commit fails with
	// ErrNotFound, applying nothing, if the document does not exist.
	Update(coll, id string, data bson.M)
	// Append adds values to an array field of an existing document.
	Append(coll, id, field string, values ...any)
	// Delete removes the document.
	Delete(coll, id string)
	// Len is the number of queued operations.
	Len() int
	// Commit applies every queued operation atomically.
	Commit(ctx context.Context) error
}

// NewID returns a new document id. Ids are UUIDv7 strings, so lexical
// order follows creation time.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

type opKind int

const (
	opSet opKind = iota
	opUpdate
	opAppend
	opDelete
)

// batchOp is one queued batch operation, shared by both backends.
type batchOp struct {
	kind   opKind
	coll   string
	id     string
	data   bson.M
	field  string
	values []any
	upsert bool // merge op may create its target
}

// opQueue implements the queueing half of Batch.
type opQueue struct {
	ops []batchOp
}

func (q *opQueue) Set(coll, id string, data bson.M) {
	q.ops = append(q.ops, batchOp{kind: opSet, coll: coll, id: id, data: data})
}

func (q *opQueue) Update(coll, id string, data bson.M) {
	q.ops = append(q.ops, batchOp{kind: opUpdate, coll: coll, id: id, data: data})
}

func (q *opQueue) Append(coll, id, field string, values ...any) {
	q.ops = append(q.ops, batchOp{kind: opAppend, coll: coll, id: id, field: field, values: values})
}

func (q *opQueue) Delete(coll, id string) {
	q.ops = append(q.ops, batchOp{kind: opDelete, coll: coll, id: id})
}

func (q *opQueue) Len() int { return len(q.ops) }
