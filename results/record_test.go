package results

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimplifyProjectsKnownFields(t *testing.T) {
	record := Record{
		"name":           "auth-service",
		"fact":           "auth-service depends on user-db",
		"group_id":       "project_x",
		"entity_type":    "Component",
		"score":          0.92,
		"uuid":           "u1",
		"created_at":     "2025-01-01T00:00:00Z",
		"fact_embedding": []float64{0.1, 0.2},
	}

	got := Simplify(record)

	assert.Equal(t, Record{
		"name":        "auth-service",
		"fact":        "auth-service depends on user-db",
		"group_id":    "project_x",
		"entity_type": "Component",
		"score":       0.92,
		"uuid":        "u1",
	}, got)
}

func TestSimplifyPreservesAbsence(t *testing.T) {
	got := Simplify(Record{"uuid": "u1"})

	require.Len(t, got, 1)
	assert.Equal(t, "u1", got["uuid"])
	_, hasName := got["name"]
	assert.False(t, hasName)
}

func TestSimplifyFactWinsOverSummary(t *testing.T) {
	got := Simplify(Record{"fact": "f", "summary": "s"})
	assert.Equal(t, "f", got["fact"])
	_, hasSummary := got["summary"]
	assert.False(t, hasSummary)

	got = Simplify(Record{"summary": "s"})
	assert.Equal(t, "s", got["summary"])
}

func TestStripEmbeddings(t *testing.T) {
	record := Record{
		"uuid":           "u1",
		"name_embedding": []float64{0.1},
		"fact_embedding": []float64{0.2},
		"attributes": map[string]any{
			"color":           "blue",
			"color_embedding": []float64{0.3},
		},
	}

	got := StripEmbeddings(record)

	assert.Equal(t, Record{
		"uuid": "u1",
		"attributes": map[string]any{
			"color": "blue",
		},
	}, got)

	// The input record is untouched.
	assert.Contains(t, record, "name_embedding")
	assert.Contains(t, record["attributes"].(map[string]any), "color_embedding")
}

func TestStripEmbeddingsStopsOneLevelDown(t *testing.T) {
	record := Record{
		"attributes": map[string]any{
			"nested": map[string]any{
				"deep_embedding": []float64{0.1},
			},
		},
	}

	got := StripEmbeddings(record)

	nested := got["attributes"].(map[string]any)["nested"].(map[string]any)
	assert.Contains(t, nested, "deep_embedding")
}

func TestStripEmbeddingsOutputDoesNotAliasInput(t *testing.T) {
	record := Record{
		"uuid":  "u1",
		"extra": map[string]any{"k": "v"},
		"tags":  []any{"a"},
		"attributes": map[string]any{
			"nested": map[string]any{"k": "v"},
		},
	}

	got := StripEmbeddings(record)

	got["extra"].(map[string]any)["k"] = "mutated"
	got["tags"].([]any)[0] = "mutated"
	got["attributes"].(map[string]any)["nested"].(map[string]any)["k"] = "mutated"

	assert.Equal(t, "v", record["extra"].(map[string]any)["k"])
	assert.Equal(t, "a", record["tags"].([]any)[0])
	assert.Equal(t, "v", record["attributes"].(map[string]any)["nested"].(map[string]any)["k"])
}

func TestSimplifyOutputDoesNotAliasInput(t *testing.T) {
	nested := map[string]any{"k": "v"}
	record := Record{"uuid": "u1", "fact": nested}

	got := Simplify(record)

	got["fact"].(map[string]any)["k"] = "mutated"
	assert.Equal(t, "v", nested["k"])
}

func TestStripEmbeddingsNonMapAttributes(t *testing.T) {
	got := StripEmbeddings(Record{"attributes": "opaque"})
	assert.Equal(t, "opaque", got["attributes"])
}
