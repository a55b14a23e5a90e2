package command

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/w-h-a/graphiti/graph"
	"github.com/w-h-a/graphiti/results"
)

func TestEpisodesAddInline(t *testing.T) {
	var gotParams graph.AddEpisodeParams
	client := &fakeClient{
		addEpisodeFn: func(ctx context.Context, params graph.AddEpisodeParams) (*graph.AddEpisodeResult, error) {
			gotParams = params
			return &graph.AddEpisodeResult{
				Episode: results.Record{
					"uuid":           "e1",
					"name":           params.Name,
					"name_embedding": []float64{0.1},
				},
			}, nil
		},
	}
	deps, stdout, _ := newTestDeps(client)

	cmd := &EpisodesAddCmd{
		Name:    "meeting notes",
		Content: "we decided to split the service",
		Source:  "text",
		GroupID: "project_x",
	}

	require.NoError(t, cmd.Run(deps))

	assert.Equal(t, "meeting notes", gotParams.Name)
	assert.Equal(t, "we decided to split the service", gotParams.Body)
	assert.Equal(t, graph.EpisodeTypeText, gotParams.Source)
	assert.Equal(t, "project_x", gotParams.GroupID)

	var rendered map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &rendered))
	episode := rendered["episode"].(map[string]any)
	assert.Equal(t, "e1", episode["uuid"])
	_, hasEmbedding := episode["name_embedding"]
	assert.False(t, hasEmbedding)
	assert.Equal(t, float64(0), rendered["nodes_created"])
}

func TestEpisodesAddFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "episode.txt")
	require.NoError(t, os.WriteFile(path, []byte("file content"), 0o644))

	var gotBody string
	client := &fakeClient{
		addEpisodeFn: func(ctx context.Context, params graph.AddEpisodeParams) (*graph.AddEpisodeResult, error) {
			gotBody = params.Body
			return &graph.AddEpisodeResult{Episode: results.Record{}}, nil
		},
	}
	deps, _, _ := newTestDeps(client)

	cmd := &EpisodesAddCmd{Name: "n", Content: "@" + path, Source: "text"}
	require.NoError(t, cmd.Run(deps))
	assert.Equal(t, "file content", gotBody)

	cmd = &EpisodesAddCmd{Name: "n", Content: path, Source: "text", FromFile: true}
	require.NoError(t, cmd.Run(deps))
	assert.Equal(t, "file content", gotBody)
}

func TestEpisodesAddMissingFile(t *testing.T) {
	deps, _, _ := newTestDeps(&fakeClient{})

	cmd := &EpisodesAddCmd{Name: "n", Content: "@/nonexistent/path", Source: "text"}

	err := cmd.Run(deps)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading file")
}

func TestEpisodesAddBadEntityTypesJSON(t *testing.T) {
	deps, _, _ := newTestDeps(&fakeClient{})

	cmd := &EpisodesAddCmd{Name: "n", Content: "c", Source: "text", EntityTypes: "{not json"}

	err := cmd.Run(deps)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entity types")
}

func TestEpisodesAddTimestampOverride(t *testing.T) {
	var gotTime time.Time
	client := &fakeClient{
		addEpisodeFn: func(ctx context.Context, params graph.AddEpisodeParams) (*graph.AddEpisodeResult, error) {
			gotTime = params.ReferenceTime
			return &graph.AddEpisodeResult{Episode: results.Record{}}, nil
		},
	}
	deps, _, _ := newTestDeps(client)

	cmd := &EpisodesAddCmd{Name: "n", Content: "c", Source: "text", Timestamp: "2025-02-03"}

	require.NoError(t, cmd.Run(deps))
	assert.Equal(t, time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC), gotTime)
}

func TestEpisodesGetUsesBeforeAsReference(t *testing.T) {
	var gotReference time.Time
	var gotLastN int
	var gotGroups []string
	client := &fakeClient{
		retrieveFn: func(ctx context.Context, referenceTime time.Time, lastN int, groupIDs []string) ([]results.Record, error) {
			gotReference = referenceTime
			gotLastN = lastN
			gotGroups = groupIDs
			return nil, nil
		},
	}
	deps, _, _ := newTestDeps(client)

	cmd := &EpisodesGetCmd{
		GroupID:     "project_x",
		LastN:       5,
		Before:      "2025-03-01",
		OutputFlags: defaultOutputFlags(),
	}

	require.NoError(t, cmd.Run(deps))

	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), gotReference)
	assert.Equal(t, 5, gotLastN)
	assert.Equal(t, []string{"project_x"}, gotGroups)
}

func TestEpisodesGetFiltersByAfter(t *testing.T) {
	client := &fakeClient{
		retrieveFn: func(ctx context.Context, referenceTime time.Time, lastN int, groupIDs []string) ([]results.Record, error) {
			return []results.Record{
				{"uuid": "e1", "name": "old", "valid_at": "2024-01-01T00:00:00Z"},
				{"uuid": "e2", "name": "new", "valid_at": "2025-06-01T00:00:00Z"},
				{"uuid": "e3", "name": "undated"},
			}, nil
		},
	}
	deps, stdout, _ := newTestDeps(client)

	cmd := &EpisodesGetCmd{
		LastN:       10,
		After:       "2025-01-01",
		OutputFlags: defaultOutputFlags(),
	}

	require.NoError(t, cmd.Run(deps))

	var rendered []map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &rendered))
	require.Len(t, rendered, 1)
	assert.Equal(t, "e2", rendered[0]["uuid"])
}

func TestEpisodesGetKeepsEpisodeBody(t *testing.T) {
	client := &fakeClient{
		retrieveFn: func(ctx context.Context, referenceTime time.Time, lastN int, groupIDs []string) ([]results.Record, error) {
			return []results.Record{
				{
					"uuid":           "e1",
					"name":           "n1",
					"content":        "the episode body",
					"source":         "text",
					"valid_at":       "2025-06-01T00:00:00Z",
					"name_embedding": []any{0.1},
				},
			}, nil
		},
	}
	deps, stdout, _ := newTestDeps(client)

	cmd := &EpisodesGetCmd{LastN: 10, OutputFlags: defaultOutputFlags()}

	require.NoError(t, cmd.Run(deps))

	var rendered []map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &rendered))
	require.Len(t, rendered, 1)
	assert.Equal(t, "the episode body", rendered[0]["content"])
	assert.Equal(t, "text", rendered[0]["source"])
	assert.Equal(t, "2025-06-01T00:00:00Z", rendered[0]["valid_at"])
	_, hasEmbedding := rendered[0]["name_embedding"]
	assert.False(t, hasEmbedding)
}

func TestEpisodesGetRejectsInvertedRange(t *testing.T) {
	deps, _, _ := newTestDeps(&fakeClient{})

	cmd := &EpisodesGetCmd{
		LastN:       10,
		After:       "2025-06-01",
		Before:      "2025-01-01",
		OutputFlags: defaultOutputFlags(),
	}

	require.Error(t, cmd.Run(deps))
}

func writeBulkFile(t *testing.T, items []map[string]any) string {
	t.Helper()
	data, err := json.Marshal(items)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "episodes.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestProcessBulkPartialFailure(t *testing.T) {
	client := &fakeClient{
		addEpisodeFn: func(ctx context.Context, params graph.AddEpisodeParams) (*graph.AddEpisodeResult, error) {
			if params.Name == "bad" {
				return nil, assert.AnError
			}
			return &graph.AddEpisodeResult{Episode: results.Record{}}, nil
		},
	}
	deps, stdout, stderr := newTestDeps(client)

	path := writeBulkFile(t, []map[string]any{
		{"name": "first", "content": "c1"},
		{"name": "bad", "content": "c2"},
		{"name": "third", "content": "c3"},
	})

	cmd := &EpisodesProcessBulkCmd{File: path, BatchSize: 2}

	require.NoError(t, cmd.Run(deps))

	var rendered map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &rendered))
	assert.Equal(t, float64(2), rendered["processed"])
	assert.Equal(t, float64(1), rendered["failed"])

	errs := rendered["errors"].([]any)
	require.Len(t, errs, 1)
	failure := errs[0].(map[string]any)
	assert.Equal(t, float64(1), failure["index"])
	assert.Equal(t, "bad", failure["name"])

	assert.Contains(t, stderr.String(), "Processing batch 1...")
	assert.Contains(t, stderr.String(), "Processing batch 2...")
}

func TestProcessBulkDryRun(t *testing.T) {
	client := &fakeClient{
		addEpisodeFn: func(ctx context.Context, params graph.AddEpisodeParams) (*graph.AddEpisodeResult, error) {
			t.Fatal("dry run must not ingest")
			return nil, nil
		},
	}
	deps, stdout, stderr := newTestDeps(client)

	path := writeBulkFile(t, []map[string]any{
		{"name": "ok", "content": "c"},
		{"name": "missing content"},
	})

	cmd := &EpisodesProcessBulkCmd{File: path, BatchSize: 10, DryRun: true}

	require.NoError(t, cmd.Run(deps))

	assert.Contains(t, stderr.String(), "Would process 2 episodes")
	assert.Contains(t, stderr.String(), "Episode 1 missing required fields")

	var rendered map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &rendered))
	assert.Equal(t, "dry_run", rendered["status"])
	assert.Equal(t, float64(2), rendered["episodes"])
}

func TestProcessBulkGroupOverride(t *testing.T) {
	var gotGroups []string
	client := &fakeClient{
		addEpisodeFn: func(ctx context.Context, params graph.AddEpisodeParams) (*graph.AddEpisodeResult, error) {
			gotGroups = append(gotGroups, params.GroupID)
			return &graph.AddEpisodeResult{Episode: results.Record{}}, nil
		},
	}
	deps, _, _ := newTestDeps(client)

	path := writeBulkFile(t, []map[string]any{
		{"name": "a", "content": "c", "group_id": "own_group"},
		{"name": "b", "content": "c"},
	})

	cmd := &EpisodesProcessBulkCmd{File: path, BatchSize: 10, GroupID: "forced"}
	require.NoError(t, cmd.Run(deps))
	assert.Equal(t, []string{"forced", "forced"}, gotGroups)

	gotGroups = nil
	cmd = &EpisodesProcessBulkCmd{File: path, BatchSize: 10}
	require.NoError(t, cmd.Run(deps))
	assert.Equal(t, []string{"own_group", ""}, gotGroups)
}

func TestProcessBulkRejectsBadBatchSize(t *testing.T) {
	deps, _, _ := newTestDeps(&fakeClient{})

	path := writeBulkFile(t, []map[string]any{
		{"name": "a", "content": "c"},
	})

	for _, size := range []int{0, -1} {
		cmd := &EpisodesProcessBulkCmd{File: path, BatchSize: size}
		err := cmd.Run(deps)
		require.Error(t, err, "batch size %d", size)
		assert.Contains(t, err.Error(), "batch-size must be at least 1")
	}
}

func TestProcessBulkRejectsNonArray(t *testing.T) {
	deps, _, _ := newTestDeps(&fakeClient{})

	path := filepath.Join(t.TempDir(), "episodes.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name": "one"}`), 0o644))

	cmd := &EpisodesProcessBulkCmd{File: path, BatchSize: 10}

	err := cmd.Run(deps)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JSON array")
}
