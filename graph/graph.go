// Package graph defines the client capability the CLI commands depend on.
// The storage, indexing, and ranking machinery lives behind this interface;
// providers only translate these operations into database calls.
package graph

import (
	"context"
	"time"

	"github.com/w-h-a/graphiti/results"
)

// EpisodeType describes the shape of an episode body.
type EpisodeType string

const (
	EpisodeTypeText    EpisodeType = "text"
	EpisodeTypeJSON    EpisodeType = "json"
	EpisodeTypeMessage EpisodeType = "message"
)

// SearchFilter narrows a search by type vocabulary and creation window.
// Type lists are expected in canonical casing (see the validate package).
type SearchFilter struct {
	EntityTypes   []string
	EdgeTypes     []string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

// SearchParams carries the optional knobs shared by the search operations.
type SearchParams struct {
	GroupIDs       []string
	NumResults     int
	CenterNodeUUID string
	Filter         *SearchFilter
}

// SearchConfig selects the retrieval method and reranking strategy for
// advanced search. The ranking itself is the database's job.
type SearchConfig struct {
	Method   string
	Reranker string
}

// Search recipes mirroring the upstream configuration presets.
var (
	EdgeHybridRRF              = SearchConfig{Method: "hybrid", Reranker: "rrf"}
	CombinedHybridCrossEncoder = SearchConfig{Method: "hybrid", Reranker: "cross_encoder"}
	EdgeHybridCrossEncoder     = SearchConfig{Method: "hybrid", Reranker: "cross_encoder"}
	EdgeHybridMMR              = SearchConfig{Method: "hybrid", Reranker: "mmr"}
)

// SearchResults is the advanced-search envelope. Edges may be empty, in
// which case providers fall back to node search and fill Nodes instead.
type SearchResults struct {
	Edges []results.Record
	Nodes []results.Record
}

// AddEpisodeParams describes one episode to ingest.
type AddEpisodeParams struct {
	Name              string
	Body              string
	SourceDescription string
	ReferenceTime     time.Time
	GroupID           string
	Source            EpisodeType
	EntityTypes       map[string]any
}

// AddEpisodeResult reports what an episode ingestion created.
type AddEpisodeResult struct {
	Episode results.Record
	Nodes   []results.Record
	Edges   []results.Record
}

// QueryResult holds the rows of a raw query, one record per row keyed by
// the returned column names.
type QueryResult struct {
	Records []results.Record
}

// Client is the graph capability consumed by the command handlers. The
// pipeline itself never needs a concrete implementation; commands can be
// fed literal record lists in tests.
type Client interface {
	Search(ctx context.Context, query string, params SearchParams) ([]results.Record, error)
	SearchAdvanced(ctx context.Context, query string, config SearchConfig, params SearchParams) (*SearchResults, error)
	AddEpisode(ctx context.Context, params AddEpisodeParams) (*AddEpisodeResult, error)
	RetrieveEpisodes(ctx context.Context, referenceTime time.Time, lastN int, groupIDs []string) ([]results.Record, error)
	BuildCommunities(ctx context.Context, groupIDs []string) error
	ExecuteQuery(ctx context.Context, cypher string, params map[string]any) (*QueryResult, error)
	Close(ctx context.Context) error
}
