// Package store defines the entity repository contract used by the lifecycle
// services and provides in-memory and MongoDB implementations of it.
package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/models"
)

var (
	// ErrNotFound is returned when no document has the requested id.
	ErrNotFound = errors.New("document not found")
	// ErrStatusMismatch is returned by ConditionalUpdate when the stored
	// status is no longer the expected one.
	ErrStatusMismatch = errors.New("stored status does not match expected status")
	// ErrDuplicate is returned when a write violates a unique index.
	ErrDuplicate = errors.New("unique constraint violated")
)

// Document constrains T so that *T is a repository entity.
type Document[T any] interface {
	*T
	models.Entity
}

// Repository is the persistence contract for one entity type.
type Repository[T any] interface {
	Get(ctx context.Context, id string) (*T, error)
	Find(ctx context.Context, filter Filter) ([]*T, error)
	// Insert assigns an id if the document has none and returns it.
	Insert(ctx context.Context, doc *T) (string, error)
	// ConditionalUpdate applies patch only if the stored status equals expectedStatus.
	ConditionalUpdate(ctx context.Context, id, expectedStatus string, patch Patch) error
	// Update applies patch unconditionally. Used for documents without a status.
	Update(ctx context.Context, id string, patch Patch) error
}

// Filter selects documents by bson field name. Values are matched by equality,
// or by membership when built with In.
type Filter bson.M

// Where starts a filter with one equality condition.
func Where(field string, value any) Filter {
	return Filter{field: value}
}

// And adds an equality condition.
func (f Filter) And(field string, value any) Filter {
	f[field] = value
	return f
}

// In adds a membership condition.
func (f Filter) In(field string, values ...string) Filter {
	f[field] = bson.M{"$in": values}
	return f
}

// Strings converts a typed status list for use with Filter.In.
func Strings[S ~string](values []S) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

// Patch is a set of bson field assignments.
type Patch bson.M

// UniqueIndex forbids two documents sharing the values of Fields while both
// have a status in StatusIn. An empty StatusIn applies to every document.
type UniqueIndex struct {
	Name     string
	Fields   []string
	StatusIn []string
}
