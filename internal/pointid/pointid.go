// Package pointid maps caller-supplied string identifiers to Qdrant's
// numeric point ID space.
//
// Qdrant point keys are numeric or UUID. Callers address records by opaque
// string IDs (e.g. "mem_1730_abc123"), so every string ID is hashed to a
// uint64 with FNV-1a. The mapping is pure and deterministic: the same string
// yields the same numeric ID within a process and across restarts. The
// original string ID is preserved out of band in the point payload so reads
// can recover it.
package pointid

import "hash/fnv"

// ToNative converts a string point ID to a Qdrant-native numeric ID.
//
// Accepts any UTF-8 string, including the empty string. Collisions are
// possible in principle but negligible for realistic ID populations; the
// payload-embedded original ID remains authoritative.
func ToNative(stringID string) uint64 {
	h := fnv.New64a()
	// fnv.Write never returns an error.
	_, _ = h.Write([]byte(stringID))
	return h.Sum64()
}
