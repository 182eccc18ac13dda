// Package qdrant provides the narrow Qdrant capability interface the stores
// are written against, plus the gRPC implementation backed by the official
// Go client.
package qdrant

import (
	"context"
)

// FieldType identifies the payload index type for a secondary field index.
type FieldType int

// Payload index field types.
const (
	FieldTypeKeyword FieldType = iota
	FieldTypeInteger
	FieldTypeBool
)

// FieldIndex describes one secondary payload index on a collection.
type FieldIndex struct {
	Field string
	Type  FieldType
}

// Point is a vector point to be written.
type Point struct {
	// ID is the storage-native numeric point identifier.
	ID uint64
	// Vector is the dense embedding.
	Vector []float32
	// Payload is the structured metadata stored alongside the vector.
	Payload map[string]any
}

// RetrievedPoint is a point read back from the engine. Vector is nil unless
// the read requested vectors.
type RetrievedPoint struct {
	ID      uint64
	Vector  []float32
	Payload map[string]any
}

// ScoredPoint is a search hit with its similarity score.
type ScoredPoint struct {
	RetrievedPoint
	Score float32
}

// Condition matches a payload field against a value. Match must be a
// string (keyword), int64, or bool.
type Condition struct {
	Field string
	Match any
}

// Filter is a conjunctive payload filter: a point matches when every Must
// condition holds.
type Filter struct {
	Must []Condition
}

// CollectionInfo is collection metadata reported by the engine.
type CollectionInfo struct {
	Status     string
	PointCount uint64
}

// Client is the capability surface this layer needs from Qdrant.
//
// It is deliberately narrow so stores can be exercised against an in-memory
// fake. The real implementation is GRPCClient. All methods are safe for
// concurrent use; the handle is shared process-wide and never recreated per
// request.
type Client interface {
	// ListCollections returns the names of all collections.
	ListCollections(ctx context.Context) ([]string, error)

	// CreateCollection creates a collection with the given vector
	// dimensionality and cosine distance. Creating a collection that
	// already exists returns an error the caller is expected to absorb.
	CreateCollection(ctx context.Context, name string, vectorSize uint64) error

	// CreateFieldIndex creates a secondary payload index. Index creation on
	// an already-indexed field is a no-op on the engine side.
	CreateFieldIndex(ctx context.Context, collection, field string, fieldType FieldType) error

	// Upsert writes points, replacing any existing point with the same ID.
	Upsert(ctx context.Context, collection string, points []*Point) error

	// Get retrieves points by numeric ID, with payload. Vectors are
	// included only when withVectors is set. Missing IDs are simply absent
	// from the result.
	Get(ctx context.Context, collection string, ids []uint64, withVectors bool) ([]*RetrievedPoint, error)

	// DeletePoints removes points by numeric ID. Deleting absent IDs
	// succeeds.
	DeletePoints(ctx context.Context, collection string, ids []uint64) error

	// DeleteByFilter removes every point matching the filter.
	DeleteByFilter(ctx context.Context, collection string, filter *Filter) error

	// Count returns the number of points matching the filter.
	Count(ctx context.Context, collection string, filter *Filter) (uint64, error)

	// Search runs similarity search, excluding hits below scoreThreshold on
	// the engine side. Results are ordered by descending score.
	Search(ctx context.Context, collection string, vector []float32, limit uint64, filter *Filter, scoreThreshold float32) ([]*ScoredPoint, error)

	// Scroll enumerates points matching the filter, one page per call.
	// It returns the page and the cursor for the next page; a nil cursor
	// means the enumeration is exhausted.
	Scroll(ctx context.Context, collection string, filter *Filter, limit uint32, offset *uint64, withVectors bool) ([]*RetrievedPoint, *uint64, error)

	// SetPayload patches the given payload keys on every point matching the
	// filter, leaving vectors and other payload keys untouched.
	SetPayload(ctx context.Context, collection string, filter *Filter, payload map[string]any) error

	// CollectionInfo returns status and point count for a collection.
	CollectionInfo(ctx context.Context, collection string) (*CollectionInfo, error)

	// Health verifies the engine is reachable.
	Health(ctx context.Context) error

	// Close releases the underlying connection.
	Close() error
}
