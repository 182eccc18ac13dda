package qdrant

import (
	"github.com/qdrant/go-client/qdrant"
)

// toQdrantPayload converts a generic payload map to Qdrant protobuf values.
// Supported value types: string, bool, int, int64, float64, nil. Unsupported
// types are dropped rather than written with a lossy representation.
func toQdrantPayload(payload map[string]any) map[string]*qdrant.Value {
	if payload == nil {
		return nil
	}
	out := make(map[string]*qdrant.Value, len(payload))
	for k, v := range payload {
		switch val := v.(type) {
		case string:
			out[k] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: val}}
		case bool:
			out[k] = &qdrant.Value{Kind: &qdrant.Value_BoolValue{BoolValue: val}}
		case int:
			out[k] = &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(val)}}
		case int64:
			out[k] = &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: val}}
		case float64:
			out[k] = &qdrant.Value{Kind: &qdrant.Value_DoubleValue{DoubleValue: val}}
		case nil:
			out[k] = &qdrant.Value{Kind: &qdrant.Value_NullValue{NullValue: qdrant.NullValue_NULL_VALUE}}
		}
	}
	return out
}

// fromQdrantPayload converts Qdrant protobuf values back to a generic map.
// Integers come back as int64, doubles as float64. Null values are omitted.
func fromQdrantPayload(payload map[string]*qdrant.Value) map[string]any {
	if payload == nil {
		return nil
	}
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		switch val := v.Kind.(type) {
		case *qdrant.Value_StringValue:
			out[k] = val.StringValue
		case *qdrant.Value_BoolValue:
			out[k] = val.BoolValue
		case *qdrant.Value_IntegerValue:
			out[k] = val.IntegerValue
		case *qdrant.Value_DoubleValue:
			out[k] = val.DoubleValue
		}
	}
	return out
}

// toQdrantFilter converts a domain filter into a Qdrant conjunctive filter.
func toQdrantFilter(filter *Filter) *qdrant.Filter {
	if filter == nil || len(filter.Must) == 0 {
		return nil
	}
	conditions := make([]*qdrant.Condition, 0, len(filter.Must))
	for _, cond := range filter.Must {
		var match *qdrant.Match
		switch v := cond.Match.(type) {
		case string:
			match = &qdrant.Match{MatchValue: &qdrant.Match_Keyword{Keyword: v}}
		case int64:
			match = &qdrant.Match{MatchValue: &qdrant.Match_Integer{Integer: v}}
		case int:
			match = &qdrant.Match{MatchValue: &qdrant.Match_Integer{Integer: int64(v)}}
		case bool:
			match = &qdrant.Match{MatchValue: &qdrant.Match_Boolean{Boolean: v}}
		default:
			continue
		}
		conditions = append(conditions, &qdrant.Condition{
			ConditionOneOf: &qdrant.Condition_Field{
				Field: &qdrant.FieldCondition{
					Key:   cond.Field,
					Match: match,
				},
			},
		})
	}
	if len(conditions) == 0 {
		return nil
	}
	return &qdrant.Filter{Must: conditions}
}

// toQdrantFieldType maps the domain field index type to the engine enum.
func toQdrantFieldType(t FieldType) *qdrant.FieldType {
	switch t {
	case FieldTypeInteger:
		return qdrant.FieldType_FieldTypeInteger.Enum()
	case FieldTypeBool:
		return qdrant.FieldType_FieldTypeBool.Enum()
	default:
		return qdrant.FieldType_FieldTypeKeyword.Enum()
	}
}

// pointIDNum extracts the numeric ID from a Qdrant point ID. UUID IDs do not
// occur in collections managed by this layer; they map to zero.
func pointIDNum(id *qdrant.PointId) uint64 {
	if id == nil {
		return 0
	}
	if num, ok := id.PointIdOptions.(*qdrant.PointId_Num); ok {
		return num.Num
	}
	return 0
}

// fromQdrantRetrievedPoint converts a retrieved point, flattening the vector
// output when present.
func fromQdrantRetrievedPoint(p *qdrant.RetrievedPoint) *RetrievedPoint {
	out := &RetrievedPoint{
		ID:      pointIDNum(p.Id),
		Payload: fromQdrantPayload(p.Payload),
	}
	if vectors := p.GetVectors(); vectors != nil {
		if vec := vectors.GetVector(); vec != nil {
			out.Vector = vec.GetData()
		}
	}
	return out
}
