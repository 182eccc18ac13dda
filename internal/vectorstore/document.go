package vectorstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/vectord/internal/pointid"
	"github.com/fyrsmithlabs/vectord/internal/qdrant"
	"github.com/fyrsmithlabs/vectord/internal/stats"
)

// documentIndexes back the owner/file/group filters on the documents
// collection.
var documentIndexes = []qdrant.FieldIndex{
	{Field: "user_id", Type: qdrant.FieldTypeInteger},
	{Field: "file_id", Type: qdrant.FieldTypeInteger},
	{Field: "group_key", Type: qdrant.FieldTypeKeyword},
}

// statsPageSize is the scroll page size used by GetStats.
const statsPageSize = 256

// ChunkUpsert is one item of a batch upsert.
type ChunkUpsert struct {
	ID     string      `json:"point_id"`
	Vector []float32   `json:"vector"`
	Chunk  ChunkRecord `json:"payload"`
}

// BatchError records one failed batch item.
type BatchError struct {
	ID      string `json:"point_id"`
	Message string `json:"error"`
}

// BatchResult reports the outcome of a batch upsert. Partial success is the
// expected outcome; it is reported, never hidden.
type BatchResult struct {
	SuccessCount int          `json:"success_count"`
	FailedCount  int          `json:"failed_count"`
	Errors       []BatchError `json:"errors"`
}

// ChunkSearchResult is one document search hit.
type ChunkSearchResult struct {
	ID    string      `json:"id"`
	Score float32     `json:"score"`
	Chunk ChunkRecord `json:"payload"`
}

// ChunkWithVector is an exact-ID fetch result. Score is the synthetic 1.0 of
// an exact match; the stored vector is returned for downstream re-embedding
// or inspection.
type ChunkWithVector struct {
	ID     string      `json:"id"`
	Score  float32     `json:"score"`
	Vector []float32   `json:"vector"`
	Chunk  ChunkRecord `json:"payload"`
}

// OwnerStats aggregates chunk counts for one owner.
type OwnerStats struct {
	TotalChunks   int            `json:"total_chunks"`
	TotalFiles    int            `json:"total_files"`
	TotalGroups   int            `json:"total_groups"`
	ChunksByGroup map[string]int `json:"chunks_by_group"`
}

// DocumentStoreConfig configures a DocumentStore.
type DocumentStoreConfig struct {
	// Collection is the physical collection name. Default: "documents"
	Collection string

	// Dimension is the fixed vector dimensionality.
	Dimension uint64

	// MaxBatchSize caps BatchUpsert. Default: 100
	MaxBatchSize int
}

// DocumentStore provides chunk lifecycle operations over the documents
// collection. Every read, search, and bulk delete is tenant-isolated by
// owner; there is no all-tenants query path.
//
// Bulk deletes and group reassignment report counts measured by a filter
// count immediately before the mutation. The engine itself only reports an
// operation status, so counts are best-effort and may be approximate under
// concurrent writes.
type DocumentStore struct {
	client  qdrant.Client
	config  DocumentStoreConfig
	prov    *provisioner
	tracker *stats.Tracker
	logger  *zap.Logger
}

// NewDocumentStore creates a DocumentStore.
func NewDocumentStore(client qdrant.Client, config DocumentStoreConfig, tracker *stats.Tracker, logger *zap.Logger) (*DocumentStore, error) {
	if config.Collection == "" {
		config.Collection = "documents"
	}
	if config.Dimension == 0 {
		return nil, fmt.Errorf("%w: vector dimension required", ErrInvalidRequest)
	}
	if config.MaxBatchSize == 0 {
		config.MaxBatchSize = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("docstore")
	return &DocumentStore{
		client:  client,
		config:  config,
		prov:    newProvisioner(client, config.Dimension, logger),
		tracker: tracker,
		logger:  logger,
	}, nil
}

// Upsert stores or replaces a single chunk.
func (s *DocumentStore) Upsert(ctx context.Context, stringID string, vector []float32, chunk ChunkRecord) error {
	ctx, span := tracer.Start(ctx, "DocumentStore.Upsert")
	defer span.End()
	start := time.Now()

	err := s.upsertOne(ctx, stringID, vector, chunk)
	observeOperation("document", "upsert", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	s.tracker.AddUpserts(1)
	return nil
}

// upsertOne validates, provisions, and writes one chunk without touching the
// stats tracker. Shared by Upsert and BatchUpsert.
func (s *DocumentStore) upsertOne(ctx context.Context, stringID string, vector []float32, chunk ChunkRecord) error {
	if uint64(len(vector)) != s.config.Dimension {
		return fmt.Errorf("%w: vector dimension mismatch: expected %d, got %d",
			ErrInvalidRequest, s.config.Dimension, len(vector))
	}

	if err := s.prov.ensure(ctx, s.config.Collection, documentIndexes); err != nil {
		return err
	}

	err := s.client.Upsert(ctx, s.config.Collection, []*qdrant.Point{{
		ID:      pointid.ToNative(stringID),
		Vector:  vector,
		Payload: encodeChunk(chunk, stringID),
	}})
	if err != nil {
		s.logger.Error("chunk upsert failed", zap.String("point_id", stringID), zap.Error(err))
		return fmt.Errorf("%w: upserting chunk: %v", ErrEngine, err)
	}
	return nil
}

// BatchUpsert processes up to MaxBatchSize chunks, isolating per-item
// failures: one bad chunk never aborts the batch, and failed items are
// reported with their IDs. Items are processed sequentially; there is no
// cross-item atomicity.
func (s *DocumentStore) BatchUpsert(ctx context.Context, items []ChunkUpsert) (*BatchResult, error) {
	ctx, span := tracer.Start(ctx, "DocumentStore.BatchUpsert")
	defer span.End()
	start := time.Now()

	if len(items) == 0 {
		return nil, fmt.Errorf("%w: batch cannot be empty", ErrInvalidRequest)
	}
	if len(items) > s.config.MaxBatchSize {
		return nil, fmt.Errorf("%w: batch size %d exceeds maximum of %d",
			ErrInvalidRequest, len(items), s.config.MaxBatchSize)
	}

	span.SetAttributes(attribute.Int("batch_size", len(items)))

	result := &BatchResult{}
	for _, item := range items {
		if err := s.upsertOne(ctx, item.ID, item.Vector, item.Chunk); err != nil {
			result.FailedCount++
			result.Errors = append(result.Errors, BatchError{ID: item.ID, Message: err.Error()})
			continue
		}
		result.SuccessCount++
	}

	// A batch where nothing landed is a failed operation.
	var opErr error
	if result.SuccessCount == 0 {
		opErr = fmt.Errorf("all %d batch items failed", result.FailedCount)
	}
	observeOperation("document", "batch_upsert", start, opErr)
	s.tracker.AddUpserts(uint64(result.SuccessCount))
	span.SetAttributes(
		attribute.Int("succeeded", result.SuccessCount),
		attribute.Int("failed", result.FailedCount),
	)
	s.logger.Info("batch upsert done",
		zap.Int("succeeded", result.SuccessCount),
		zap.Int("failed", result.FailedCount))
	return result, nil
}

// Search runs similarity search over the owner's chunks, optionally
// restricted to a group key.
func (s *DocumentStore) Search(ctx context.Context, queryVector []float32, userID int64, groupKey string, limit uint64, minScore float32) ([]ChunkSearchResult, error) {
	ctx, span := tracer.Start(ctx, "DocumentStore.Search")
	defer span.End()
	start := time.Now()

	if uint64(len(queryVector)) != s.config.Dimension {
		return nil, fmt.Errorf("%w: query vector dimension mismatch: expected %d, got %d",
			ErrInvalidRequest, s.config.Dimension, len(queryVector))
	}

	span.SetAttributes(attribute.Int64("user_id", userID), attribute.Int("limit", int(limit)))

	filter := s.ownerFilter(userID)
	if groupKey != "" {
		filter.Must = append(filter.Must, qdrant.Condition{Field: "group_key", Match: groupKey})
	}

	hits, err := s.client.Search(ctx, s.config.Collection, queryVector, limit, filter, minScore)
	observeOperation("document", "search", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: searching chunks: %v", ErrEngine, err)
	}

	results := make([]ChunkSearchResult, 0, len(hits))
	for _, hit := range hits {
		chunk, err := decodeChunk(hit.Payload)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		results = append(results, ChunkSearchResult{
			ID:    stringIDFromPayload(hit.Payload, hit.ID),
			Score: hit.Score,
			Chunk: chunk,
		})
	}

	s.tracker.IncSearches()
	span.SetAttributes(attribute.Int("results", len(results)))
	return results, nil
}

// Get fetches a chunk by string ID, including its stored vector. The score
// of an exact ID match is the synthetic 1.0.
func (s *DocumentStore) Get(ctx context.Context, stringID string) (*ChunkWithVector, error) {
	ctx, span := tracer.Start(ctx, "DocumentStore.Get")
	defer span.End()
	start := time.Now()

	span.SetAttributes(attribute.String("point_id", stringID))

	points, err := s.client.Get(ctx, s.config.Collection, []uint64{pointid.ToNative(stringID)}, true)
	observeOperation("document", "get", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: getting chunk: %v", ErrEngine, err)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: chunk %q", ErrNotFound, stringID)
	}

	chunk, err := decodeChunk(points[0].Payload)
	if err != nil {
		span.RecordError(err)
		s.logger.Error("stored chunk payload does not decode",
			zap.String("point_id", stringID), zap.Error(err))
		return nil, err
	}
	return &ChunkWithVector{
		ID:     stringIDFromPayload(points[0].Payload, points[0].ID),
		Score:  1.0,
		Vector: points[0].Vector,
		Chunk:  chunk,
	}, nil
}

// DeleteByID removes one chunk. Deleting a non-existent ID succeeds.
func (s *DocumentStore) DeleteByID(ctx context.Context, stringID string) error {
	ctx, span := tracer.Start(ctx, "DocumentStore.DeleteByID")
	defer span.End()
	start := time.Now()

	err := s.client.DeletePoints(ctx, s.config.Collection, []uint64{pointid.ToNative(stringID)})
	observeOperation("document", "delete", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%w: deleting chunk: %v", ErrEngine, err)
	}
	s.tracker.IncDeletes()
	return nil
}

// DeleteByFile removes every chunk of one file for the owner and returns the
// best-effort count of deleted chunks.
func (s *DocumentStore) DeleteByFile(ctx context.Context, userID, fileID int64) (uint64, error) {
	filter := s.ownerFilter(userID)
	filter.Must = append(filter.Must, qdrant.Condition{Field: "file_id", Match: fileID})
	return s.deleteByFilter(ctx, "delete_by_file", filter)
}

// DeleteByGroupKey removes every chunk with the given group key for the
// owner and returns the best-effort count of deleted chunks.
func (s *DocumentStore) DeleteByGroupKey(ctx context.Context, userID int64, groupKey string) (uint64, error) {
	filter := s.ownerFilter(userID)
	filter.Must = append(filter.Must, qdrant.Condition{Field: "group_key", Match: groupKey})
	return s.deleteByFilter(ctx, "delete_by_group", filter)
}

// DeleteAllForOwner removes every chunk belonging to the owner and returns
// the best-effort count of deleted chunks.
func (s *DocumentStore) DeleteAllForOwner(ctx context.Context, userID int64) (uint64, error) {
	return s.deleteByFilter(ctx, "delete_all_for_owner", s.ownerFilter(userID))
}

// deleteByFilter counts the matching chunks, then deletes them. The engine
// reports only an operation status for filtered deletes, so the returned
// count is the pre-delete match count and may be approximate under
// concurrent writes.
func (s *DocumentStore) deleteByFilter(ctx context.Context, operation string, filter *qdrant.Filter) (uint64, error) {
	ctx, span := tracer.Start(ctx, "DocumentStore."+operation)
	defer span.End()
	start := time.Now()

	count, err := s.client.Count(ctx, s.config.Collection, filter)
	if err != nil {
		observeOperation("document", operation, start, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("%w: counting chunks: %v", ErrEngine, err)
	}

	err = s.client.DeleteByFilter(ctx, s.config.Collection, filter)
	observeOperation("document", operation, start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("%w: deleting chunks: %v", ErrEngine, err)
	}

	s.tracker.IncDeletes()
	span.SetAttributes(attribute.Int64("deleted", int64(count)))
	s.logger.Info("bulk delete done",
		zap.String("operation", operation),
		zap.Uint64("deleted", count))
	return count, nil
}

// ReassignGroupKey patches the group key on every chunk matching owner and
// file. This is a metadata-only payload update: vectors and point identity
// are untouched. It returns the best-effort count of updated chunks.
func (s *DocumentStore) ReassignGroupKey(ctx context.Context, userID, fileID int64, newGroupKey string) (uint64, error) {
	ctx, span := tracer.Start(ctx, "DocumentStore.ReassignGroupKey")
	defer span.End()
	start := time.Now()

	if newGroupKey == "" {
		newGroupKey = DefaultGroupKey
	}

	filter := s.ownerFilter(userID)
	filter.Must = append(filter.Must, qdrant.Condition{Field: "file_id", Match: fileID})

	count, err := s.client.Count(ctx, s.config.Collection, filter)
	if err != nil {
		observeOperation("document", "reassign_group", start, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("%w: counting chunks: %v", ErrEngine, err)
	}

	err = s.client.SetPayload(ctx, s.config.Collection, filter, map[string]any{
		"group_key": newGroupKey,
	})
	observeOperation("document", "reassign_group", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("%w: reassigning group key: %v", ErrEngine, err)
	}

	span.SetAttributes(attribute.Int64("updated", int64(count)))
	s.logger.Info("group key reassigned",
		zap.Int64("user_id", userID),
		zap.Int64("file_id", fileID),
		zap.String("group_key", newGroupKey),
		zap.Uint64("updated", count))
	return count, nil
}

// GetStats enumerates every chunk of the owner with a paged scroll and
// aggregates counts client-side; the engine has no server-side aggregation
// primitive. Cost is O(chunks for the owner). An engine failure mid-
// pagination aborts the whole aggregation; partial aggregates are never
// returned. Cancellation of ctx stops pagination promptly.
func (s *DocumentStore) GetStats(ctx context.Context, userID int64) (*OwnerStats, error) {
	ctx, span := tracer.Start(ctx, "DocumentStore.GetStats")
	defer span.End()
	start := time.Now()

	span.SetAttributes(attribute.Int64("user_id", userID))

	result := &OwnerStats{ChunksByGroup: make(map[string]int)}
	files := make(map[int64]struct{})
	filter := s.ownerFilter(userID)

	var offset *uint64
	for {
		if err := ctx.Err(); err != nil {
			observeOperation("document", "stats", start, err)
			return nil, fmt.Errorf("stats aggregation canceled: %w", err)
		}

		points, next, err := s.client.Scroll(ctx, s.config.Collection, filter, statsPageSize, offset, false)
		if err != nil {
			observeOperation("document", "stats", start, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("%w: scrolling chunks: %v", ErrEngine, err)
		}

		for _, point := range points {
			chunk, err := decodeChunk(point.Payload)
			if err != nil {
				observeOperation("document", "stats", start, err)
				span.RecordError(err)
				return nil, err
			}
			result.TotalChunks++
			result.ChunksByGroup[chunk.GroupKey]++
			files[chunk.FileID] = struct{}{}
		}

		if next == nil || len(points) == 0 {
			break
		}
		offset = next
	}

	result.TotalFiles = len(files)
	result.TotalGroups = len(result.ChunksByGroup)

	observeOperation("document", "stats", start, nil)
	span.SetAttributes(attribute.Int("total_chunks", result.TotalChunks))
	return result, nil
}

// GetGroupKeys returns the owner's distinct group keys, sorted. Derived from
// GetStats and therefore equally expensive.
func (s *DocumentStore) GetGroupKeys(ctx context.Context, userID int64) ([]string, error) {
	ownerStats, err := s.GetStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(ownerStats.ChunksByGroup))
	for key := range ownerStats.ChunksByGroup {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *DocumentStore) ownerFilter(userID int64) *qdrant.Filter {
	return &qdrant.Filter{Must: []qdrant.Condition{{Field: "user_id", Match: userID}}}
}
