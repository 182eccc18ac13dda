// Package vectorstore implements the tenant-isolated memory and document
// stores over the Qdrant capability interface.
package vectorstore

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/vectord/internal/collections"
	"github.com/fyrsmithlabs/vectord/internal/pointid"
	"github.com/fyrsmithlabs/vectord/internal/qdrant"
	"github.com/fyrsmithlabs/vectord/internal/stats"
)

var tracer = otel.Tracer("vectord.vectorstore")

// memoryIndexes are the secondary payload indexes provisioned on every
// memories collection. They back the owner/category/active search filter.
var memoryIndexes = []qdrant.FieldIndex{
	{Field: "user_id", Type: qdrant.FieldTypeInteger},
	{Field: "category", Type: qdrant.FieldTypeKeyword},
	{Field: "active", Type: qdrant.FieldTypeBool},
}

// MemorySearchResult is one similarity search hit.
type MemorySearchResult struct {
	ID     string       `json:"id"`
	Score  float32      `json:"score"`
	Record MemoryRecord `json:"payload"`
}

// MemoryListEntry is one scroll result (no score, no vector).
type MemoryListEntry struct {
	ID     string       `json:"id"`
	Record MemoryRecord `json:"payload"`
}

// CollectionStats is collection-level metadata.
//
// Qdrant's collection info does not report vector and indexed-vector counts
// separately, so both are approximated by the point count.
type CollectionStats struct {
	Status             string `json:"status"`
	PointCount         uint64 `json:"points_count"`
	VectorCount        uint64 `json:"vectors_count"`
	IndexedVectorCount uint64 `json:"indexed_vectors_count"`
}

// MemoryStoreConfig configures a MemoryStore.
type MemoryStoreConfig struct {
	// Collection is the logical collection name. Namespaced operations
	// append a sanitized suffix. Default: "memories"
	Collection string

	// Dimension is the fixed vector dimensionality every write and search
	// is validated against.
	Dimension uint64
}

// MemoryStore provides upsert/get/delete/search/scroll over tenant-scoped
// memory records. It is stateless between requests; all operations go
// straight to the engine through the shared client.
type MemoryStore struct {
	client  qdrant.Client
	config  MemoryStoreConfig
	prov    *provisioner
	tracker *stats.Tracker
	logger  *zap.Logger
}

// NewMemoryStore creates a MemoryStore.
func NewMemoryStore(client qdrant.Client, config MemoryStoreConfig, tracker *stats.Tracker, logger *zap.Logger) (*MemoryStore, error) {
	if config.Collection == "" {
		config.Collection = "memories"
	}
	if config.Dimension == 0 {
		return nil, fmt.Errorf("%w: vector dimension required", ErrInvalidRequest)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("memstore")
	return &MemoryStore{
		client:  client,
		config:  config,
		prov:    newProvisioner(client, config.Dimension, logger),
		tracker: tracker,
		logger:  logger,
	}, nil
}

// collection resolves the physical collection for an optional namespace.
func (s *MemoryStore) collection(namespace string) string {
	return collections.Resolve(s.config.Collection, namespace)
}

// Upsert stores or replaces the memory with the given string ID. Re-upserting
// an existing ID replaces both vector and payload.
func (s *MemoryStore) Upsert(ctx context.Context, stringID string, vector []float32, record MemoryRecord, namespace string) error {
	ctx, span := tracer.Start(ctx, "MemoryStore.Upsert")
	defer span.End()
	start := time.Now()

	if uint64(len(vector)) != s.config.Dimension {
		return fmt.Errorf("%w: vector dimension mismatch: expected %d, got %d",
			ErrInvalidRequest, s.config.Dimension, len(vector))
	}

	collection := s.collection(namespace)
	span.SetAttributes(
		attribute.String("collection", collection),
		attribute.String("point_id", stringID),
	)

	if err := s.prov.ensure(ctx, collection, memoryIndexes); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	nativeID := pointid.ToNative(stringID)
	err := s.client.Upsert(ctx, collection, []*qdrant.Point{{
		ID:      nativeID,
		Vector:  vector,
		Payload: encodeMemory(record, stringID),
	}})
	observeOperation("memory", "upsert", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error("upsert failed", zap.String("point_id", stringID), zap.Error(err))
		return fmt.Errorf("%w: upserting memory: %v", ErrEngine, err)
	}

	s.tracker.AddUpserts(1)
	s.logger.Debug("memory upserted",
		zap.String("point_id", stringID),
		zap.Uint64("native_id", nativeID),
		zap.String("collection", collection))
	return nil
}

// Get fetches a memory by string ID. Absence is reported as ErrNotFound, a
// first-class result rather than an engine failure.
func (s *MemoryStore) Get(ctx context.Context, stringID string, namespace string) (*MemoryRecord, error) {
	ctx, span := tracer.Start(ctx, "MemoryStore.Get")
	defer span.End()
	start := time.Now()

	collection := s.collection(namespace)
	span.SetAttributes(attribute.String("collection", collection), attribute.String("point_id", stringID))

	points, err := s.client.Get(ctx, collection, []uint64{pointid.ToNative(stringID)}, false)
	observeOperation("memory", "get", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: getting memory: %v", ErrEngine, err)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: memory %q", ErrNotFound, stringID)
	}

	record, err := decodeMemory(points[0].Payload)
	if err != nil {
		span.RecordError(err)
		s.logger.Error("stored memory payload does not decode",
			zap.String("point_id", stringID), zap.Error(err))
		return nil, err
	}
	return &record, nil
}

// Delete removes a memory by string ID. Deleting a non-existent ID succeeds.
func (s *MemoryStore) Delete(ctx context.Context, stringID string, namespace string) error {
	ctx, span := tracer.Start(ctx, "MemoryStore.Delete")
	defer span.End()
	start := time.Now()

	collection := s.collection(namespace)
	span.SetAttributes(attribute.String("collection", collection), attribute.String("point_id", stringID))

	err := s.client.DeletePoints(ctx, collection, []uint64{pointid.ToNative(stringID)})
	observeOperation("memory", "delete", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%w: deleting memory: %v", ErrEngine, err)
	}

	s.tracker.IncDeletes()
	s.logger.Debug("memory deleted", zap.String("point_id", stringID), zap.String("collection", collection))
	return nil
}

// memoryFilter builds the conjunctive owner/active/category filter shared by
// Search and Scroll. The active flag is always enforced; deletes are the
// only operations that ignore it.
func memoryFilter(userID int64, category string) *qdrant.Filter {
	must := []qdrant.Condition{
		{Field: "user_id", Match: userID},
		{Field: "active", Match: true},
	}
	if category != "" {
		must = append(must, qdrant.Condition{Field: "category", Match: category})
	}
	return &qdrant.Filter{Must: must}
}

// Search runs similarity search over the owner's active memories, optionally
// restricted to a category. minScore is enforced by the engine, not
// post-filtered. Results are ordered by descending score.
func (s *MemoryStore) Search(ctx context.Context, queryVector []float32, userID int64, category string, limit uint64, minScore float32, namespace string) ([]MemorySearchResult, error) {
	ctx, span := tracer.Start(ctx, "MemoryStore.Search")
	defer span.End()
	start := time.Now()

	if uint64(len(queryVector)) != s.config.Dimension {
		return nil, fmt.Errorf("%w: query vector dimension mismatch: expected %d, got %d",
			ErrInvalidRequest, s.config.Dimension, len(queryVector))
	}

	collection := s.collection(namespace)
	span.SetAttributes(
		attribute.String("collection", collection),
		attribute.Int64("user_id", userID),
		attribute.Int("limit", int(limit)),
	)

	hits, err := s.client.Search(ctx, collection, queryVector, limit, memoryFilter(userID, category), minScore)
	observeOperation("memory", "search", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: searching memories: %v", ErrEngine, err)
	}

	results := make([]MemorySearchResult, 0, len(hits))
	for _, hit := range hits {
		record, err := decodeMemory(hit.Payload)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		results = append(results, MemorySearchResult{
			ID:     stringIDFromPayload(hit.Payload, hit.ID),
			Score:  hit.Score,
			Record: record,
		})
	}

	s.tracker.IncSearches()
	span.SetAttributes(attribute.Int("results", len(results)))
	s.logger.Debug("memory search done",
		zap.Int64("user_id", userID),
		zap.Int("results", len(results)))
	return results, nil
}

// Scroll lists the owner's active memories without a query vector, payload
// only. It returns at most one page of limit entries and does not paginate.
func (s *MemoryStore) Scroll(ctx context.Context, userID int64, category string, limit uint32, namespace string) ([]MemoryListEntry, error) {
	ctx, span := tracer.Start(ctx, "MemoryStore.Scroll")
	defer span.End()
	start := time.Now()

	collection := s.collection(namespace)
	span.SetAttributes(attribute.String("collection", collection), attribute.Int64("user_id", userID))

	points, _, err := s.client.Scroll(ctx, collection, memoryFilter(userID, category), limit, nil, false)
	observeOperation("memory", "scroll", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: scrolling memories: %v", ErrEngine, err)
	}

	entries := make([]MemoryListEntry, 0, len(points))
	for _, point := range points {
		record, err := decodeMemory(point.Payload)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		entries = append(entries, MemoryListEntry{
			ID:     stringIDFromPayload(point.Payload, point.ID),
			Record: record,
		})
	}

	s.tracker.IncSearches()
	return entries, nil
}

// CollectionInfo reports status and point counts for the resolved collection.
func (s *MemoryStore) CollectionInfo(ctx context.Context, namespace string) (*CollectionStats, error) {
	ctx, span := tracer.Start(ctx, "MemoryStore.CollectionInfo")
	defer span.End()

	collection := s.collection(namespace)
	span.SetAttributes(attribute.String("collection", collection))

	info, err := s.client.CollectionInfo(ctx, collection)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: collection info for %s: %v", ErrEngine, collection, err)
	}

	return &CollectionStats{
		Status:             info.Status,
		PointCount:         info.PointCount,
		VectorCount:        info.PointCount,
		IndexedVectorCount: info.PointCount,
	}, nil
}
