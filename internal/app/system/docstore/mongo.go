package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/leadhub/internal/app/system/txn"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Mongo is a Store backed by a MongoDB database. Document ids are stored
// in _id as strings. Batches run as multi-document transactions, which
// require a replica set or sharded cluster.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
	log    *zap.Logger
	maxOps int
}

// NewMongo returns a Store over db. maxOps <= 0 uses DefaultMaxBatchOps.
func NewMongo(client *mongo.Client, db *mongo.Database, log *zap.Logger, maxOps int) *Mongo {
	if maxOps <= 0 {
		maxOps = DefaultMaxBatchOps
	}
	return &Mongo{client: client, db: db, log: log, maxOps: maxOps}
}

func (s *Mongo) MaxBatchOps() int { return s.maxOps }

func (s *Mongo) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Mongo) Get(ctx context.Context, coll, id string) (Doc, error) {
	var m bson.M
	err := s.db.Collection(coll).FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Doc{}, ErrNotFound
	}
	if err != nil {
		return Doc{}, err
	}
	delete(m, "_id")
	return Doc{ID: id, Data: m}, nil
}

func (s *Mongo) List(ctx context.Context, coll string, q Query) ([]Doc, error) {
	and := bson.A{}
	for _, c := range q.Where {
		f, err := condFilter(c)
		if err != nil {
			return nil, err
		}
		and = append(and, f)
	}

	find := options.Find()
	if q.OrderBy != "" {
		dir := 1
		if q.Desc {
			dir = -1
		}
		if q.OrderBy == "_id" {
			find.SetSort(bson.D{{Key: "_id", Value: dir}})
		} else {
			and = append(and, bson.M{q.OrderBy: bson.M{"$exists": true}})
			find.SetSort(bson.D{{Key: q.OrderBy, Value: dir}, {Key: "_id", Value: dir}})
		}
	}
	if q.Limit > 0 {
		find.SetLimit(int64(q.Limit))
	}

	filter := bson.M{}
	if len(and) > 0 {
		filter = bson.M{"$and": and}
	}

	cur, err := s.db.Collection(coll).Find(ctx, filter, find)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Doc
	for cur.Next(ctx) {
		var m bson.M
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		id, _ := m["_id"].(string)
		delete(m, "_id")
		out = append(out, Doc{ID: id, Data: m})
	}
	return out, cur.Err()
}

func condFilter(c Cond) (bson.M, error) {
	switch c.Op {
	case Eq:
		return bson.M{c.Field: c.Value}, nil
	case In:
		return bson.M{c.Field: bson.M{"$in": inValues(c.Value)}}, nil
	case Gt:
		return bson.M{c.Field: bson.M{"$gt": c.Value}}, nil
	case Gte:
		return bson.M{c.Field: bson.M{"$gte": c.Value}}, nil
	case Lt:
		return bson.M{c.Field: bson.M{"$lt": c.Value}}, nil
	case Lte:
		return bson.M{c.Field: bson.M{"$lte": c.Value}}, nil
	}
	return nil, fmt.Errorf("docstore: unsupported operator %q", c.Op)
}

func (s *Mongo) Put(ctx context.Context, coll, id string, data bson.M, merge bool) (string, error) {
	if id == "" {
		id = NewID()
	}
	op := batchOp{kind: opSet, coll: coll, id: id, data: data}
	if merge {
		op.kind, op.upsert = opUpdate, true
	}
	if err := s.exec(ctx, op); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Mongo) Delete(ctx context.Context, coll, id string) error {
	return s.exec(ctx, batchOp{kind: opDelete, coll: coll, id: id})
}

func (s *Mongo) Append(ctx context.Context, coll, id, field string, values ...any) error {
	return s.exec(ctx, batchOp{kind: opAppend, coll: coll, id: id, field: field, values: values})
}

// exec applies a single operation. It is used both directly and inside a
// transaction, where ctx carries the session.
func (s *Mongo) exec(ctx context.Context, op batchOp) error {
	c := s.db.Collection(op.coll)
	filter := bson.M{"_id": op.id}

	switch op.kind {
	case opSet:
		doc := make(bson.M, len(op.data)+1)
		for k, v := range op.data {
			doc[k] = v
		}
		doc["_id"] = op.id
		_, err := c.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
		return mapWriteErr(err)

	case opUpdate:
		set := bson.M{}
		for k, v := range op.data {
			if k != "_id" {
				set[k] = v
			}
		}
		update := bson.M{"$set": set}
		if len(set) == 0 {
			update = bson.M{"$setOnInsert": bson.M{"_id": op.id}}
		}
		res, err := c.UpdateOne(ctx, filter, update, options.Update().SetUpsert(op.upsert))
		if err != nil {
			return mapWriteErr(err)
		}
		if !op.upsert && res.MatchedCount == 0 {
			return fmt.Errorf("%w: %s/%s", ErrNotFound, op.coll, op.id)
		}
		return nil

	case opAppend:
		update := bson.M{"$push": bson.M{op.field: bson.M{"$each": op.values}}}
		res, err := c.UpdateOne(ctx, filter, update)
		if err != nil {
			return mapWriteErr(err)
		}
		if res.MatchedCount == 0 {
			return fmt.Errorf("%w: %s/%s", ErrNotFound, op.coll, op.id)
		}
		return nil

	case opDelete:
		_, err := c.DeleteOne(ctx, filter)
		return err
	}
	return fmt.Errorf("docstore: unknown op %d", op.kind)
}

func mapWriteErr(err error) error {
	if err != nil && wafflemongo.IsDup(err) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

func (s *Mongo) Batch() Batch { return &mongoBatch{s: s} }

type mongoBatch struct {
	opQueue
	s *Mongo
}

func (b *mongoBatch) Commit(ctx context.Context) error {
	if len(b.ops) > b.s.maxOps {
		return fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(b.ops), b.s.maxOps)
	}
	if len(b.ops) == 0 {
		return nil
	}
	err := txn.Run(ctx, b.s.client, b.s.log, func(tctx context.Context) error {
		for _, op := range b.ops {
			if err := b.s.exec(tctx, op); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, txn.ErrNotSupported) {
		return fmt.Errorf("%w: %v", ErrAtomicUnsupported, err)
	}
	return err
}
