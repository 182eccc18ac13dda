package qdrant

import (
	"testing"

	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadRoundTrip(t *testing.T) {
	in := map[string]any{
		"user_id":  int64(42),
		"category": "personal",
		"active":   true,
		"score":    0.75,
	}

	got := fromQdrantPayload(toQdrantPayload(in))

	assert.Equal(t, int64(42), got["user_id"])
	assert.Equal(t, "personal", got["category"])
	assert.Equal(t, true, got["active"])
	assert.Equal(t, 0.75, got["score"])
}

func TestToQdrantPayload_IntWidened(t *testing.T) {
	got := toQdrantPayload(map[string]any{"chunk_index": 3})
	require.Contains(t, got, "chunk_index")
	assert.Equal(t, int64(3), got["chunk_index"].GetIntegerValue())
}

func TestToQdrantPayload_UnsupportedDropped(t *testing.T) {
	got := toQdrantPayload(map[string]any{
		"ok":  "yes",
		"bad": []string{"not", "supported"},
	})
	assert.Contains(t, got, "ok")
	assert.NotContains(t, got, "bad")
}

func TestToQdrantFilter(t *testing.T) {
	tests := []struct {
		name      string
		filter    *Filter
		wantConds int
	}{
		{name: "nil filter", filter: nil, wantConds: 0},
		{name: "empty filter", filter: &Filter{}, wantConds: 0},
		{
			name: "owner active category",
			filter: &Filter{Must: []Condition{
				{Field: "user_id", Match: int64(7)},
				{Field: "active", Match: true},
				{Field: "category", Match: "personal"},
			}},
			wantConds: 3,
		},
		{
			name: "unsupported match type skipped",
			filter: &Filter{Must: []Condition{
				{Field: "weird", Match: 1.5},
			}},
			wantConds: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := toQdrantFilter(tt.filter)
			if tt.wantConds == 0 {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Len(t, got.Must, tt.wantConds)
		})
	}
}

func TestToQdrantFilter_MatchKinds(t *testing.T) {
	got := toQdrantFilter(&Filter{Must: []Condition{
		{Field: "user_id", Match: int64(7)},
		{Field: "active", Match: true},
		{Field: "group_key", Match: "default"},
	}})
	require.NotNil(t, got)
	require.Len(t, got.Must, 3)

	byField := map[string]*qdrant.Match{}
	for _, c := range got.Must {
		field := c.GetField()
		require.NotNil(t, field)
		byField[field.Key] = field.Match
	}

	assert.Equal(t, int64(7), byField["user_id"].GetInteger())
	assert.Equal(t, true, byField["active"].GetBoolean())
	assert.Equal(t, "default", byField["group_key"].GetKeyword())
}

func TestPointIDNum(t *testing.T) {
	assert.Equal(t, uint64(0), pointIDNum(nil))
	assert.Equal(t, uint64(12345), pointIDNum(qdrant.NewIDNum(12345)))
	assert.Equal(t, uint64(0), pointIDNum(qdrant.NewIDUUID("6ba7b810-9dad-11d1-80b4-00c04fd430c8")))
}
