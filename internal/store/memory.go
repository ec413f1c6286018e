package store

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
)

// Memory is an in-process Repository. Documents are kept in their bson form
// so filters and patches address the same field names as in MongoDB.
type Memory[T any, P Document[T]] struct {
	mu      sync.Mutex
	docs    map[string]bson.M
	order   []string
	indexes []UniqueIndex
}

// NewMemory creates an empty repository enforcing the given unique indexes.
func NewMemory[T any, P Document[T]](indexes ...UniqueIndex) *Memory[T, P] {
	return &Memory[T, P]{
		docs:    make(map[string]bson.M),
		indexes: indexes,
	}
}

func (m *Memory[T, P]) Get(ctx context.Context, id string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return decode[T](doc)
}

func (m *Memory[T, P]) Find(ctx context.Context, filter Filter) ([]*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*T
	for _, id := range m.order {
		doc := m.docs[id]
		if !matches(doc, filter) {
			continue
		}
		v, err := decode[T](doc)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (m *Memory[T, P]) Insert(ctx context.Context, doc *T) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	P(doc).GenIDIfEmpty()
	id := P(doc).GetID()

	encoded, err := encode(doc)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.docs[id]; exists {
		return "", fmt.Errorf("%w: _id %s", ErrDuplicate, id)
	}
	if err := m.checkUnique(id, encoded); err != nil {
		return "", err
	}
	m.docs[id] = encoded
	m.order = append(m.order, id)
	return id, nil
}

func (m *Memory[T, P]) ConditionalUpdate(ctx context.Context, id, expectedStatus string, patch Patch) error {
	return m.update(ctx, id, &expectedStatus, patch)
}

func (m *Memory[T, P]) Update(ctx context.Context, id string, patch Patch) error {
	return m.update(ctx, id, nil, patch)
}

func (m *Memory[T, P]) update(ctx context.Context, id string, expectedStatus *string, patch Patch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.docs[id]
	if !ok {
		return ErrNotFound
	}
	if expectedStatus != nil && normalize(current["status"]) != *expectedStatus {
		return ErrStatusMismatch
	}

	merged := make(bson.M, len(current)+len(patch))
	for k, v := range current {
		merged[k] = v
	}
	for k, v := range patch {
		merged[k] = v
	}
	updated, err := encode(merged)
	if err != nil {
		return err
	}
	if err := m.checkUnique(id, updated); err != nil {
		return err
	}
	m.docs[id] = updated
	return nil
}

// checkUnique must be called with mu held.
func (m *Memory[T, P]) checkUnique(id string, doc bson.M) error {
	for _, idx := range m.indexes {
		if !idx.covers(doc) {
			continue
		}
		for otherID, other := range m.docs {
			if otherID == id || !idx.covers(other) {
				continue
			}
			if idx.sameKey(doc, other) {
				return fmt.Errorf("%w: %s", ErrDuplicate, idx.Name)
			}
		}
	}
	return nil
}

func (idx UniqueIndex) covers(doc bson.M) bool {
	if len(idx.StatusIn) == 0 {
		return true
	}
	status := normalize(doc["status"])
	for _, s := range idx.StatusIn {
		if status == s {
			return true
		}
	}
	return false
}

func (idx UniqueIndex) sameKey(a, b bson.M) bool {
	for _, f := range idx.Fields {
		if normalize(a[f]) != normalize(b[f]) {
			return false
		}
	}
	return true
}

func matches(doc bson.M, filter Filter) bool {
	for field, cond := range filter {
		value := normalize(doc[field])
		if in, ok := cond.(bson.M); ok {
			if !memberOf(value, in["$in"]) {
				return false
			}
			continue
		}
		if value != normalize(cond) {
			return false
		}
	}
	return true
}

func memberOf(value any, set any) bool {
	rv := reflect.ValueOf(set)
	if rv.Kind() != reflect.Slice {
		return false
	}
	for i := 0; i < rv.Len(); i++ {
		if normalize(rv.Index(i).Interface()) == value {
			return true
		}
	}
	return false
}

// normalize maps named string and integer types to string and int64 so
// typed enum values compare equal to their decoded bson form.
func normalize(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint())
	}
	return v
}

func encode(v any) (bson.M, error) {
	data, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	var doc bson.M
	if err := bson.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return doc, nil
}

func decode[T any](doc bson.M) (*T, error) {
	data, err := bson.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	out := new(T)
	if err := bson.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return out, nil
}
