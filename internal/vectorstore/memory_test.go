package vectorstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/vectord/internal/stats"
)

const testDimension = 4

func newTestMemoryStore(t *testing.T, engine *fakeEngine) *MemoryStore {
	t.Helper()
	store, err := NewMemoryStore(engine, MemoryStoreConfig{Dimension: testDimension}, stats.NewTracker(), zap.NewNop())
	require.NoError(t, err)
	return store
}

func testVector(seed float32) []float32 {
	return []float32{seed, 1, 0, 0.5}
}

func activeMemory(userID int64, category string) MemoryRecord {
	return MemoryRecord{
		UserID:   userID,
		Category: category,
		Key:      "k",
		Value:    "v",
		Source:   "test",
		Created:  1700000000,
		Updated:  1700000000,
		Active:   true,
	}
}

func TestMemoryStoreRequiresDimension(t *testing.T) {
	_, err := NewMemoryStore(newFakeEngine(), MemoryStoreConfig{}, stats.NewTracker(), zap.NewNop())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRequest))
}

func TestMemoryUpsertSearchRoundTrip(t *testing.T) {
	engine := newFakeEngine()
	store := newTestMemoryStore(t, engine)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "mem_1_a", testVector(1), activeMemory(1, "preference"), ""))

	results, err := store.Search(ctx, testVector(1), 1, "", 5, 0.5, "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "mem_1_a", results[0].ID)
	assert.GreaterOrEqual(t, results[0].Score, float32(0.5))
	assert.Equal(t, int64(1), results[0].Record.UserID)
}

func TestMemorySearchIsTenantIsolated(t *testing.T) {
	engine := newFakeEngine()
	store := newTestMemoryStore(t, engine)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "mem_1_a", testVector(1), activeMemory(1, "fact"), ""))
	require.NoError(t, store.Upsert(ctx, "mem_2_a", testVector(1), activeMemory(2, "fact"), ""))

	results, err := store.Search(ctx, testVector(1), 1, "", 10, 0, "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "mem_1_a", results[0].ID)
}

func TestMemorySearchFiltersCategoryAndActive(t *testing.T) {
	engine := newFakeEngine()
	store := newTestMemoryStore(t, engine)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "mem_pref", testVector(1), activeMemory(1, "preference"), ""))
	require.NoError(t, store.Upsert(ctx, "mem_fact", testVector(1), activeMemory(1, "fact"), ""))
	inactive := activeMemory(1, "preference")
	inactive.Active = false
	require.NoError(t, store.Upsert(ctx, "mem_soft_deleted", testVector(1), inactive, ""))

	results, err := store.Search(ctx, testVector(1), 1, "preference", 10, 0, "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "mem_pref", results[0].ID)
}

func TestMemoryUpsertRejectsDimensionMismatchBeforeEngine(t *testing.T) {
	engine := newFakeEngine()
	store := newTestMemoryStore(t, engine)

	err := store.Upsert(context.Background(), "mem_bad", []float32{1, 2}, activeMemory(1, "fact"), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRequest))
	assert.Zero(t, engine.totalCalls())
}

func TestMemorySearchRejectsDimensionMismatchBeforeEngine(t *testing.T) {
	engine := newFakeEngine()
	store := newTestMemoryStore(t, engine)

	_, err := store.Search(context.Background(), []float32{1}, 1, "", 5, 0, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRequest))
	assert.Zero(t, engine.totalCalls())
}

func TestMemoryGetAfterDeleteIsNotFound(t *testing.T) {
	engine := newFakeEngine()
	store := newTestMemoryStore(t, engine)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "mem_1_a", testVector(1), activeMemory(1, "fact"), ""))

	record, err := store.Get(ctx, "mem_1_a", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), record.UserID)

	require.NoError(t, store.Delete(ctx, "mem_1_a", ""))

	_, err = store.Get(ctx, "mem_1_a", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryDeleteIsIdempotent(t *testing.T) {
	store := newTestMemoryStore(t, newFakeEngine())
	require.NoError(t, store.Delete(context.Background(), "never_existed", ""))
}

func TestMemoryUpsertReplacesExisting(t *testing.T) {
	engine := newFakeEngine()
	store := newTestMemoryStore(t, engine)
	ctx := context.Background()

	first := activeMemory(1, "fact")
	first.Value = "old"
	require.NoError(t, store.Upsert(ctx, "mem_1_a", testVector(1), first, ""))

	second := activeMemory(1, "fact")
	second.Value = "new"
	require.NoError(t, store.Upsert(ctx, "mem_1_a", testVector(2), second, ""))

	record, err := store.Get(ctx, "mem_1_a", "")
	require.NoError(t, err)
	assert.Equal(t, "new", record.Value)

	info, err := store.CollectionInfo(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), info.PointCount)
}

func TestMemoryNamespaceRouting(t *testing.T) {
	engine := newFakeEngine()
	store := newTestMemoryStore(t, engine)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "mem_a", testVector(1), activeMemory(1, "fact"), "Feedback-False_Positive"))

	engine.mu.Lock()
	_, ok := engine.collections["memories_feedback_false_positive"]
	engine.mu.Unlock()
	assert.True(t, ok)

	// The default namespace does not see namespaced points.
	_, err := store.Get(ctx, "mem_a", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	record, err := store.Get(ctx, "mem_a", "Feedback-False_Positive")
	require.NoError(t, err)
	assert.Equal(t, int64(1), record.UserID)
}

func TestMemoryScrollListsActiveOnly(t *testing.T) {
	engine := newFakeEngine()
	store := newTestMemoryStore(t, engine)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "mem_1", testVector(1), activeMemory(1, "fact"), ""))
	require.NoError(t, store.Upsert(ctx, "mem_2", testVector(2), activeMemory(1, "fact"), ""))
	inactive := activeMemory(1, "fact")
	inactive.Active = false
	require.NoError(t, store.Upsert(ctx, "mem_3", testVector(3), inactive, ""))

	entries, err := store.Scroll(ctx, 1, "", 10, "")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	for _, entry := range entries {
		assert.True(t, entry.Record.Active)
	}
}

func TestMemoryEngineFailureIsWrapped(t *testing.T) {
	engine := newFakeEngine()
	store := newTestMemoryStore(t, engine)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "mem_1", testVector(1), activeMemory(1, "fact"), ""))

	engine.failWith("Search", errors.New("connection reset"))
	_, err := store.Search(ctx, testVector(1), 1, "", 5, 0, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEngine))
}

func TestMemoryCorruptPayloadSurfacesDecodeError(t *testing.T) {
	engine := newFakeEngine()
	store := newTestMemoryStore(t, engine)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "mem_1", testVector(1), activeMemory(1, "fact"), ""))

	// Corrupt the stored payload behind the store's back.
	engine.mu.Lock()
	for id, p := range engine.collections["memories"].points {
		delete(p.payload, "category")
		engine.collections["memories"].points[id] = p
	}
	engine.mu.Unlock()

	_, err := store.Get(ctx, "mem_1", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDecode))
}
