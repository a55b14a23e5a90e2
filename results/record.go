// Package results implements the post-processing pipeline applied to record
// lists returned by the graph client before they are rendered.
package results

import "strings"

// EmbeddingSuffix marks fields holding large vectors. They are excluded from
// every output form unless embeddings are explicitly requested.
const EmbeddingSuffix = "_embedding"

// Record is one search hit, stored fact, or entity returned by the graph.
type Record = map[string]any

// Simplify projects a record down to the minimal agent-facing field set.
// A key absent from the input stays absent from the output. summary is kept
// only when the record has no fact, so a record carries at most one of the
// two descriptions.
func Simplify(record Record) Record {
	simplified := Record{}

	if v, ok := record["name"]; ok {
		simplified["name"] = copyValue(v)
	}

	if v, ok := record["fact"]; ok {
		simplified["fact"] = copyValue(v)
	} else if v, ok := record["summary"]; ok {
		simplified["summary"] = copyValue(v)
	}

	if v, ok := record["group_id"]; ok {
		simplified["group_id"] = copyValue(v)
	}

	if v, ok := record["entity_type"]; ok {
		simplified["entity_type"] = copyValue(v)
	}

	if v, ok := record["score"]; ok {
		simplified["score"] = copyValue(v)
	}

	if v, ok := record["uuid"]; ok {
		simplified["uuid"] = copyValue(v)
	}

	return simplified
}

// StripEmbeddings returns a copy of the record without any top-level
// *_embedding field. When the record carries an attributes sub-map, embedding
// fields are removed from that map too; the recursion stops there.
func StripEmbeddings(record Record) Record {
	stripped := make(Record, len(record))

	for key, value := range record {
		if strings.HasSuffix(key, EmbeddingSuffix) {
			continue
		}

		if key == "attributes" {
			if attrs, ok := value.(map[string]any); ok {
				cleaned := make(map[string]any, len(attrs))
				for k, v := range attrs {
					if strings.HasSuffix(k, EmbeddingSuffix) {
						continue
					}
					cleaned[k] = copyValue(v)
				}
				stripped[key] = cleaned
				continue
			}
		}

		stripped[key] = copyValue(value)
	}

	return stripped
}

// copyValue deep-copies maps and slices so pipeline outputs never alias the
// input records' nested values. Scalars pass through.
func copyValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		copied := make(map[string]any, len(v))
		for key, item := range v {
			copied[key] = copyValue(item)
		}
		return copied
	case []any:
		copied := make([]any, 0, len(v))
		for _, item := range v {
			copied = append(copied, copyValue(item))
		}
		return copied
	}
	return value
}
