// Package collection provides a generic in-memory record store with
// Mongo-like find/insert/update/delete operations. Books and users are both
// kept in a Collection.
package collection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/SierraSoftworks/connor"
	jsonpatch "github.com/evanphx/json-patch/v5"
)

// Record is a single document: a mapping from field name to a JSON-compatible value.
type Record = map[string]any

// ErrNotFound is returned by UpdateOne when no record matches the filter.
var ErrNotFound = errors.New("record not found")

// ErrMalformed is returned when a record, filter or patch cannot be
// represented as a JSON object.
var ErrMalformed = errors.New("malformed input")

// Collection is an ordered sequence of records held in process memory.
// All operations are serialized by an internal mutex.
type Collection struct {
	name    string
	mu      sync.RWMutex
	records []Record
}

// New creates a collection seeded with the given records.
func New(name string, seed []Record) (*Collection, error) {
	c := &Collection{name: name}
	if err := c.Reset(seed); err != nil {
		return nil, err
	}

	return c, nil
}

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.name
}

// Reset replaces the whole stored sequence. The next operation sees the new contents.
func (c *Collection) Reset(records []Record) error {
	normalized := make([]Record, 0, len(records))
	for i, record := range records {
		rec, err := normalize(record)
		if err != nil {
			return fmt.Errorf("in internal/collection/collection.go/Reset(): record %d: %w", i, err)
		}
		normalized = append(normalized, rec)
	}

	c.mu.Lock()
	c.records = normalized
	c.mu.Unlock()

	return nil
}

// Count returns the number of stored records.
func (c *Collection) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.records), nil
}

// Find returns copies of all records matching every key/value pair of filter.
// An empty filter matches everything.
func (c *Collection) Find(ctx context.Context, filter Record) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conditions, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	result := []Record{}
	for _, record := range c.records {
		ok, err := matches(conditions, record)
		if err != nil {
			return nil, err
		}
		if ok {
			result = append(result, clone(record))
		}
	}

	return result, nil
}

// FindOne returns a copy of the first record matching filter.
// found is false when nothing matches; that is not an error.
func (c *Collection) FindOne(ctx context.Context, filter Record) (record Record, found bool, err error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	conditions, err := normalizeFilter(filter)
	if err != nil {
		return nil, false, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	i, err := c.indexOf(conditions)
	if err != nil || i < 0 {
		return nil, false, err
	}

	return clone(c.records[i]), true, nil
}

// InsertOne appends record as the last element and returns the committed copy.
// Field uniqueness is not checked.
func (c *Collection) InsertOne(ctx context.Context, record any) (Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rec, err := normalize(record)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.records = append(c.records, rec)
	c.mu.Unlock()

	return clone(rec), nil
}

// UpdateOne overwrites the top-level fields of the first record matching
// filter with those of patch, in place. Fields absent from patch keep their
// values; a null field is stored as null. Returns ErrNotFound when nothing matches.
func (c *Collection) UpdateOne(ctx context.Context, filter Record, patch any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	conditions, err := normalizeFilter(filter)
	if err != nil {
		return err
	}

	changes, err := normalize(patch)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	i, err := c.indexOf(conditions)
	if err != nil {
		return err
	}
	if i < 0 {
		return ErrNotFound
	}

	updated, err := assign(c.records[i], changes)
	if err != nil {
		return err
	}
	c.records[i] = updated

	return nil
}

// DeleteOne removes the first record matching filter. A miss is a no-op.
func (c *Collection) DeleteOne(ctx context.Context, filter Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	conditions, err := normalizeFilter(filter)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	i, err := c.indexOf(conditions)
	if err != nil || i < 0 {
		return err
	}
	c.records = append(c.records[:i], c.records[i+1:]...)

	return nil
}

// indexOf must be called with the mutex held.
func (c *Collection) indexOf(conditions Record) (int, error) {
	for i, record := range c.records {
		ok, err := matches(conditions, record)
		if err != nil {
			return -1, err
		}
		if ok {
			return i, nil
		}
	}

	return -1, nil
}

// matches reports whether record holds every key of conditions with an
// equal value. Scalars are compared by connor, everything else (nulls,
// arrays, objects) must be deeply equal.
func matches(conditions, record Record) (bool, error) {
	if len(conditions) == 0 {
		return true, nil
	}

	scalars := Record{}
	for key, want := range conditions {
		got, ok := record[key]
		if !ok {
			return false, nil
		}
		if isScalar(want) && isScalar(got) {
			if reflect.TypeOf(want) != reflect.TypeOf(got) {
				return false, nil
			}
			scalars[key] = want
			continue
		}
		if !reflect.DeepEqual(want, got) {
			return false, nil
		}
	}
	if len(scalars) == 0 {
		return true, nil
	}

	ok, err := connor.Match(scalars, record)
	if err != nil {
		return false, fmt.Errorf("%w: match: %s", ErrMalformed, err)
	}

	return ok, nil
}

func isScalar(value any) bool {
	switch value.(type) {
	case string, float64, bool:
		return true
	}

	return false
}

// normalizeFilter rejects operator ($-prefixed) and dotted path keys: a
// filter only compares top-level fields for equality.
func normalizeFilter(filter Record) (Record, error) {
	if len(filter) == 0 {
		return nil, nil
	}

	for key := range filter {
		if strings.HasPrefix(key, "$") || strings.Contains(key, ".") {
			return nil, fmt.Errorf("%w: unsupported filter key %q", ErrMalformed, key)
		}
	}

	return normalize(filter)
}

// assign applies changes onto a copy of record. Scalar and array fields go
// through a JSON merge patch; null and object fields replace the stored
// value as a whole, which a merge patch would delete or merge into instead.
func assign(record, changes Record) (Record, error) {
	mergeable := Record{}
	for key, value := range changes {
		switch value.(type) {
		case nil, map[string]any:
		default:
			mergeable[key] = value
		}
	}

	original, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	patchBytes, err := json.Marshal(mergeable)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal patch: %s", ErrMalformed, err)
	}

	merged, err := jsonpatch.MergePatch(original, patchBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot apply patch: %s", ErrMalformed, err)
	}

	updated := Record{}
	if err := json.Unmarshal(merged, &updated); err != nil {
		return nil, fmt.Errorf("%w: patched record is not an object: %s", ErrMalformed, err)
	}

	for key, value := range changes {
		switch value.(type) {
		case nil, map[string]any:
			updated[key] = value
		}
	}

	return updated, nil
}

// normalize turns any JSON-representable object into a Record with
// encoding/json value types, so numbers always compare as float64.
func normalize(value any) (Record, error) {
	b, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformed, err)
	}

	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformed, err)
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: record is null", ErrMalformed)
	}

	return rec, nil
}

func clone(record Record) Record {
	rec, _ := normalize(record)

	return rec
}
