// Package format renders processed result lists for the terminal: compact
// JSON, newline-delimited JSON, a human-readable form, and CSV.
package format

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/w-h-a/graphiti/results"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrSerialization     = errors.New("value not serializable")
)

// Dumper is implemented by values that expose a structured form of
// themselves for serialization.
type Dumper interface {
	Dump() map[string]any
}

// Render serializes data in the requested format. Recognized formats are
// json, jsonc, jsonl, ndjson, pretty, and csv.
func Render(data any, format string) (string, error) {
	switch format {
	case "json", "jsonc":
		return renderJSON(data)
	case "jsonl", "ndjson":
		return renderJSONL(data)
	case "pretty":
		return renderPretty(data)
	case "csv":
		return renderCSV(data)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func renderJSON(data any) (string, error) {
	normalized, err := normalize(data)
	if err != nil {
		return "", err
	}
	encoded, err := json.Marshal(normalized)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return string(encoded), nil
}

func renderJSONL(data any) (string, error) {
	normalized, err := normalize(data)
	if err != nil {
		return "", err
	}

	items, ok := normalized.([]any)
	if !ok {
		items = []any{normalized}
	}

	lines := make([]string, 0, len(items))
	for _, item := range items {
		encoded, err := json.Marshal(item)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrSerialization, err)
		}
		lines = append(lines, string(encoded))
	}
	return strings.Join(lines, "\n"), nil
}

func renderPretty(data any) (string, error) {
	normalized, err := normalize(data)
	if err != nil {
		return "", err
	}

	items, ok := normalized.([]any)
	if !ok {
		return prettyItem(normalized), nil
	}

	if len(items) == 0 {
		return "No results found.", nil
	}

	if allSimplified(items) {
		lines := make([]string, 0, len(items))
		for _, item := range items {
			lines = append(lines, compactLine(item))
		}
		return strings.Join(lines, "\n"), nil
	}

	var out []string
	for i, item := range items {
		out = append(out, "")
		out = append(out, strings.Repeat("-", 50))
		out = append(out, fmt.Sprintf("Result %d", i+1))
		out = append(out, strings.Repeat("-", 50))
		out = append(out, prettyItem(item))
	}
	return strings.Join(out, "\n"), nil
}

// allSimplified reports whether every element looks like a simplified
// record: a mapping with at most 4 keys.
func allSimplified(items []any) bool {
	for _, item := range items {
		record, ok := item.(map[string]any)
		if !ok || len(record) > 4 {
			return false
		}
	}
	return true
}

func compactLine(item any) string {
	record, ok := item.(map[string]any)
	if !ok {
		return fmt.Sprint(item)
	}

	if fact, ok := record["fact"]; ok {
		return fmt.Sprintf("[%v] %v (%v)", record["name"], fact, record["group_id"])
	}
	if summary, ok := record["summary"]; ok {
		return fmt.Sprintf("[%v] %v: %v (%v)", record["entity_type"], record["name"], summary, record["group_id"])
	}

	encoded, err := json.Marshal(record)
	if err != nil {
		return fmt.Sprint(record)
	}
	return string(encoded)
}

func prettyItem(item any) string {
	record, ok := item.(map[string]any)
	if !ok {
		return fmt.Sprint(item)
	}

	keys := make([]string, 0, len(record))
	for key := range record {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		lines = append(lines, fmt.Sprintf("%s: %s", key, prettyValue(key, record[key])))
	}
	return strings.Join(lines, "\n")
}

func prettyValue(key string, value any) string {
	if strings.HasSuffix(key, results.EmbeddingSuffix) {
		return "<embedding vector>"
	}

	switch v := value.(type) {
	case []any:
		if len(v) > 10 {
			return fmt.Sprintf("[%d items]", len(v))
		}
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(encoded)
	case map[string]any:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(encoded)
	default:
		return fmt.Sprint(v)
	}
}

func renderCSV(data any) (string, error) {
	normalized, err := normalize(data)
	if err != nil {
		return "", err
	}

	items, ok := normalized.([]any)
	if !ok {
		items = []any{normalized}
	}
	if len(items) == 0 {
		return "", nil
	}

	flattened := make([]map[string]string, 0, len(items))
	for _, item := range items {
		record, ok := item.(map[string]any)
		if !ok {
			flattened = append(flattened, map[string]string{"value": fmt.Sprint(item)})
			continue
		}
		row := map[string]string{}
		for key, value := range record {
			if strings.HasSuffix(key, results.EmbeddingSuffix) {
				continue
			}
			switch value.(type) {
			case map[string]any, []any:
				encoded, err := json.Marshal(value)
				if err != nil {
					return "", fmt.Errorf("%w: %v", ErrSerialization, err)
				}
				row[key] = string(encoded)
			default:
				row[key] = fmt.Sprint(value)
			}
		}
		flattened = append(flattened, row)
	}

	// The first row's keys become the header, in sorted order. Later rows
	// missing a column render it empty; keys outside the header are dropped.
	header := make([]string, 0, len(flattened[0]))
	for key := range flattened[0] {
		header = append(header, key)
	}
	sort.Strings(header)

	var b strings.Builder
	writer := csv.NewWriter(&b)
	if err := writer.Write(header); err != nil {
		return "", fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	for _, row := range flattened {
		cells := make([]string, len(header))
		for i, column := range header {
			cells[i] = row[column]
		}
		if err := writer.Write(cells); err != nil {
			return "", fmt.Errorf("%w: %v", ErrSerialization, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return b.String(), nil
}

// normalize converts a value tree into plain JSON-encodable Go values,
// rendering temporal types as ISO-8601 strings along the way.
func normalize(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number:
		return v, nil
	case time.Time:
		return v.Format(time.RFC3339Nano), nil
	case dbtype.Date:
		return v.Time().Format("2006-01-02"), nil
	case dbtype.LocalDateTime:
		return v.Time().Format(time.RFC3339Nano), nil
	case dbtype.LocalTime:
		return v.Time().Format("15:04:05.999999999"), nil
	case dbtype.Time:
		return v.Time().Format(time.RFC3339Nano), nil
	case Dumper:
		return normalize(v.Dump())
	case map[string]any:
		normalized := make(map[string]any, len(v))
		for key, item := range v {
			n, err := normalize(item)
			if err != nil {
				return nil, err
			}
			normalized[key] = n
		}
		return normalized, nil
	case []any:
		normalized := make([]any, 0, len(v))
		for _, item := range v {
			n, err := normalize(item)
			if err != nil {
				return nil, err
			}
			normalized = append(normalized, n)
		}
		return normalized, nil
	}

	// Typed slices and string-keyed maps reduce to the cases above.
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]any, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items = append(items, rv.Index(i).Interface())
		}
		return normalize(items)
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			m := make(map[string]any, rv.Len())
			for _, key := range rv.MapKeys() {
				m[key.String()] = rv.MapIndex(key).Interface()
			}
			return normalize(m)
		}
	}

	if s, ok := value.(fmt.Stringer); ok {
		return s.String(), nil
	}

	return nil, fmt.Errorf("%w: type %T", ErrSerialization, value)
}
