package docstore

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Decode unmarshals d into out, which must be a pointer to a struct whose
// id field is tagged `bson:"_id"`.
func Decode(d Doc, out any) error {
	m := make(bson.M, len(d.Data)+1)
	for k, v := range d.Data {
		m[k] = v
	}
	m["_id"] = d.ID
	raw, err := bson.Marshal(m)
	if err != nil {
		return fmt.Errorf("docstore: encode %s: %w", d.ID, err)
	}
	if err := bson.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("docstore: decode %s: %w", d.ID, err)
	}
	return nil
}

// DecodeAll decodes every document into a T.
func DecodeAll[T any](docs []Doc) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		var v T
		if err := Decode(d, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Encode converts a model struct (or map) into document data. Any "_id"
// key is dropped; ids travel separately.
func Encode(v any) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("docstore: encode: %w", err)
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("docstore: encode: %w", err)
	}
	delete(m, "_id")
	return m, nil
}

// canonical round-trips data through BSON so stored values have the same
// Go types the Mongo backend would return.
func canonical(data bson.M) (bson.M, error) {
	if data == nil {
		return bson.M{}, nil
	}
	return Encode(data)
}

func canonicalValues(values []any) ([]any, error) {
	m, err := canonical(bson.M{"v": bson.A(values)})
	if err != nil {
		return nil, err
	}
	a, _ := m["v"].(bson.A)
	return []any(a), nil
}

// cloneValue deep-copies maps and arrays so callers cannot mutate stored state.
func cloneValue(v any) any {
	switch t := v.(type) {
	case bson.M:
		return cloneMap(t)
	case map[string]any:
		return cloneMap(bson.M(t))
	case bson.A:
		out := make(bson.A, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []any:
		out := make(bson.A, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case bson.D:
		out := make(bson.D, len(t))
		for i, e := range t {
			out[i] = bson.E{Key: e.Key, Value: cloneValue(e.Value)}
		}
		return out
	default:
		return v
	}
}

func cloneMap(m bson.M) bson.M {
	if m == nil {
		return nil
	}
	out := make(bson.M, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

// lookup resolves a dotted field path inside data.
func lookup(data bson.M, path string) (any, bool) {
	var cur any = data
	for _, part := range strings.Split(path, ".") {
		switch m := cur.(type) {
		case bson.M:
			v, ok := m[part]
			if !ok {
				return nil, false
			}
			cur = v
		case bson.D:
			found := false
			for _, e := range m {
				if e.Key == part {
					cur, found = e.Value, true
					break
				}
			}
			if !found {
				return nil, false
			}
		default:
			return nil, false
		}
	}
	return cur, true
}

func scalar(v any) any {
	switch t := v.(type) {
	case time.Time:
		return primitive.NewDateTimeFromTime(t)
	case int:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case float32:
		return float64(t)
	}
	return v
}

// compare orders two scalar values of the same family. ok is false when
// the values are not comparable.
func compare(a, b any) (int, bool) {
	a, b = scalar(a), scalar(b)
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	case float64:
		y, ok := b.(float64)
		if !ok {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	case primitive.DateTime:
		y, ok := b.(primitive.DateTime)
		if !ok {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	case bool:
		y, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case x == y:
			return 0, true
		case !x:
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

func equal(a, b any) bool {
	if c, ok := compare(a, b); ok {
		return c == 0
	}
	return reflect.DeepEqual(a, b)
}

func inValues(v any) []any {
	switch t := v.(type) {
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	case []any:
		return t
	case bson.A:
		return t
	}
	return []any{v}
}

// matches evaluates one condition against a document.
func matches(id string, data bson.M, c Cond) bool {
	var v any
	var ok bool
	if c.Field == "_id" {
		v, ok = id, true
	} else {
		v, ok = lookup(data, c.Field)
	}
	if !ok {
		return false
	}
	switch c.Op {
	case Eq:
		return equal(v, c.Value)
	case In:
		for _, want := range inValues(c.Value) {
			if equal(v, want) {
				return true
			}
		}
		return false
	case Gt, Gte, Lt, Lte:
		n, ok := compare(v, c.Value)
		if !ok {
			return false
		}
		switch c.Op {
		case Gt:
			return n > 0
		case Gte:
			return n >= 0
		case Lt:
			return n < 0
		default:
			return n <= 0
		}
	}
	return false
}
