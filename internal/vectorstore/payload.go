package vectorstore

import (
	"fmt"
	"strconv"
)

// PayloadKeyPointID is the reserved payload key holding the caller-visible
// string point ID. Qdrant's native key space is numeric, so the original ID
// travels out of band in the payload and is recovered on every read.
const PayloadKeyPointID = "_point_id"

// DefaultGroupKey is the sentinel group key assigned to document chunks that
// were stored without an explicit group.
const DefaultGroupKey = "default"

// MemoryRecord is a tenant-scoped memory entry.
type MemoryRecord struct {
	UserID    int64  `json:"user_id"`
	Category  string `json:"category"`
	Key       string `json:"key"`
	Value     string `json:"value"`
	Source    string `json:"source"`
	MessageID *int64 `json:"message_id,omitempty"`
	Created   int64  `json:"created"`
	Updated   int64  `json:"updated"`
	// Active is a soft-delete marker. Search and scroll only return active
	// records; delete operations act regardless of it.
	Active bool `json:"active"`
}

// ChunkRecord is one chunk of an ingested document.
type ChunkRecord struct {
	UserID     int64  `json:"user_id"`
	FileID     int64  `json:"file_id"`
	GroupKey   string `json:"group_key"`
	FileType   string `json:"file_type"`
	ChunkIndex int64  `json:"chunk_index"`
	StartLine  int64  `json:"start_line"`
	EndLine    int64  `json:"end_line"`
	Text       string `json:"text"`
	Created    int64  `json:"created"`
}

// encodeMemory serializes a memory record into a generic payload map and
// injects the reserved original-ID key.
func encodeMemory(record MemoryRecord, stringID string) map[string]any {
	payload := map[string]any{
		PayloadKeyPointID: stringID,
		"user_id":         record.UserID,
		"category":        record.Category,
		"key":             record.Key,
		"value":           record.Value,
		"source":          record.Source,
		"created":         record.Created,
		"updated":         record.Updated,
		"active":          record.Active,
	}
	if record.MessageID != nil {
		payload["message_id"] = *record.MessageID
	}
	return payload
}

// decodeMemory is the inverse of encodeMemory. Missing or mistyped required
// fields fail with an error wrapping ErrDecode.
func decodeMemory(payload map[string]any) (MemoryRecord, error) {
	var record MemoryRecord
	var err error

	if record.UserID, err = payloadInt64(payload, "user_id"); err != nil {
		return MemoryRecord{}, err
	}
	if record.Category, err = payloadString(payload, "category"); err != nil {
		return MemoryRecord{}, err
	}
	if record.Key, err = payloadString(payload, "key"); err != nil {
		return MemoryRecord{}, err
	}
	if record.Value, err = payloadString(payload, "value"); err != nil {
		return MemoryRecord{}, err
	}
	if record.Source, err = payloadString(payload, "source"); err != nil {
		return MemoryRecord{}, err
	}
	if record.Created, err = payloadInt64(payload, "created"); err != nil {
		return MemoryRecord{}, err
	}
	if record.Updated, err = payloadInt64(payload, "updated"); err != nil {
		return MemoryRecord{}, err
	}
	if record.Active, err = payloadBool(payload, "active"); err != nil {
		return MemoryRecord{}, err
	}
	if _, ok := payload["message_id"]; ok {
		id, err := payloadInt64(payload, "message_id")
		if err != nil {
			return MemoryRecord{}, err
		}
		record.MessageID = &id
	}
	return record, nil
}

// encodeChunk serializes a document chunk into a generic payload map. An
// empty group key is stored as the sentinel.
func encodeChunk(chunk ChunkRecord, stringID string) map[string]any {
	groupKey := chunk.GroupKey
	if groupKey == "" {
		groupKey = DefaultGroupKey
	}
	return map[string]any{
		PayloadKeyPointID: stringID,
		"user_id":         chunk.UserID,
		"file_id":         chunk.FileID,
		"group_key":       groupKey,
		"file_type":       chunk.FileType,
		"chunk_index":     chunk.ChunkIndex,
		"start_line":      chunk.StartLine,
		"end_line":        chunk.EndLine,
		"text":            chunk.Text,
		"created":         chunk.Created,
	}
}

// decodeChunk is the inverse of encodeChunk.
func decodeChunk(payload map[string]any) (ChunkRecord, error) {
	var chunk ChunkRecord
	var err error

	if chunk.UserID, err = payloadInt64(payload, "user_id"); err != nil {
		return ChunkRecord{}, err
	}
	if chunk.FileID, err = payloadInt64(payload, "file_id"); err != nil {
		return ChunkRecord{}, err
	}
	if chunk.GroupKey, err = payloadString(payload, "group_key"); err != nil {
		return ChunkRecord{}, err
	}
	if chunk.FileType, err = payloadString(payload, "file_type"); err != nil {
		return ChunkRecord{}, err
	}
	if chunk.ChunkIndex, err = payloadInt64(payload, "chunk_index"); err != nil {
		return ChunkRecord{}, err
	}
	if chunk.StartLine, err = payloadInt64(payload, "start_line"); err != nil {
		return ChunkRecord{}, err
	}
	if chunk.EndLine, err = payloadInt64(payload, "end_line"); err != nil {
		return ChunkRecord{}, err
	}
	if chunk.Text, err = payloadString(payload, "text"); err != nil {
		return ChunkRecord{}, err
	}
	if chunk.Created, err = payloadInt64(payload, "created"); err != nil {
		return ChunkRecord{}, err
	}
	return chunk, nil
}

// stringIDFromPayload recovers the caller-visible string ID from a payload.
// If the reserved key is absent the numeric ID is rendered as a decimal
// string. That is a degraded but non-fatal path; it should not occur for
// points written by this layer.
func stringIDFromPayload(payload map[string]any, nativeID uint64) string {
	if id, ok := payload[PayloadKeyPointID].(string); ok && id != "" {
		return id
	}
	return strconv.FormatUint(nativeID, 10)
}

func payloadString(payload map[string]any, field string) (string, error) {
	v, ok := payload[field]
	if !ok {
		return "", fmt.Errorf("%w: missing field %q", ErrDecode, field)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: field %q has type %T, want string", ErrDecode, field, v)
	}
	return s, nil
}

func payloadInt64(payload map[string]any, field string) (int64, error) {
	v, ok := payload[field]
	if !ok {
		return 0, fmt.Errorf("%w: missing field %q", ErrDecode, field)
	}
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("%w: field %q has type %T, want integer", ErrDecode, field, v)
	}
}

func payloadBool(payload map[string]any, field string) (bool, error) {
	v, ok := payload[field]
	if !ok {
		return false, fmt.Errorf("%w: missing field %q", ErrDecode, field)
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: field %q has type %T, want bool", ErrDecode, field, v)
	}
	return b, nil
}
