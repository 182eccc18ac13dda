package pointid_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fyrsmithlabs/vectord/internal/pointid"
)

func TestToNative_Deterministic(t *testing.T) {
	ids := []string{
		"mem_1_12345",
		"doc_42_0",
		"",
		"über-umlauts-and-emoji-🎯",
	}

	for _, id := range ids {
		assert.Equal(t, pointid.ToNative(id), pointid.ToNative(id), "id %q must hash stably", id)
	}
}

func TestToNative_DistinctInputsDiverge(t *testing.T) {
	tests := []struct {
		name string
		a, b string
	}{
		{name: "different suffix", a: "mem_1_12345", b: "mem_1_67890"},
		{name: "different owner", a: "mem_1_abc", b: "mem_2_abc"},
		{name: "case sensitive", a: "Doc_1", b: "doc_1"},
		{name: "empty vs non-empty", a: "", b: "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, pointid.ToNative(tt.a), pointid.ToNative(tt.b))
		})
	}
}

func TestToNative_NoCollisionsAcrossRealisticPopulation(t *testing.T) {
	seen := make(map[uint64]string, 4096)
	for i := 0; i < 4096; i++ {
		id := "mem_7_" + strconv.Itoa(i)
		native := pointid.ToNative(id)
		if prev, ok := seen[native]; ok {
			t.Fatalf("collision between %q and %q", prev, id)
		}
		seen[native] = id
	}
}
