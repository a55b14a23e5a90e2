package command

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/w-h-a/graphiti/graph"
	"github.com/w-h-a/graphiti/results"
	getsafe "github.com/w-h-a/graphiti/util/get_safe"
	"github.com/w-h-a/graphiti/validate"
)

// SearchCmd searches the knowledge graph. The search mode is selected from
// the options: reranking options mean advanced search, date filters mean
// temporal search, anything else is a basic search.
type SearchCmd struct {
	Query string `arg:"" help:"Search query."`

	GroupIDs    []string `short:"g" name:"group-ids" help:"Filter by group IDs."`
	EntityTypes []string `short:"e" name:"entity-types" help:"Entity types to include."`
	EdgeTypes   []string `short:"t" name:"edge-types" help:"Edge types to filter."`
	MaxResults  int      `short:"n" name:"max-results" default:"10" help:"Maximum results."`
	CenterNode  string   `name:"center-node" help:"UUID for centered search."`

	CreatedAfter  string `name:"created-after" help:"Filter by creation date."`
	CreatedBefore string `name:"created-before" help:"Filter by creation date."`
	Order         string `enum:"newest,oldest,relevance" default:"relevance" help:"Sort order."`

	Method   string `short:"m" enum:",bm25,semantic,hybrid,bfs" default:"" help:"Search method (advanced)."`
	Reranker string `short:"r" enum:",none,cross_encoder,mmr" default:"" help:"Reranking strategy (advanced)."`

	OutputFlags
}

func (c *SearchCmd) Run(deps *Deps) error {
	ctx := context.Background()

	entityTypes, err := validate.EntityTypes(c.EntityTypes)
	if err != nil {
		return err
	}

	edgeTypes, err := validate.EdgeTypes(c.EdgeTypes)
	if err != nil {
		return err
	}

	createdAfter, err := parseDateTime(c.CreatedAfter)
	if err != nil {
		return err
	}

	createdBefore, err := parseDateTime(c.CreatedBefore)
	if err != nil {
		return err
	}

	hasTemporal := createdAfter != nil || createdBefore != nil
	hasAdvanced := len(c.Method) > 0 || len(c.Reranker) > 0

	if hasTemporal {
		if err := validate.DateRange(createdAfter, createdBefore, "created"); err != nil {
			return err
		}
	}

	params := graph.SearchParams{
		GroupIDs:   groupIDsOrDefault(deps, c.GroupIDs),
		NumResults: c.MaxResults,
	}

	if entityTypes != nil || edgeTypes != nil || hasTemporal {
		params.Filter = &graph.SearchFilter{
			EntityTypes:   entityTypes,
			EdgeTypes:     edgeTypes,
			CreatedAfter:  createdAfter,
			CreatedBefore: createdBefore,
		}
	}

	client, err := deps.NewClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close(ctx)

	var records []results.Record

	if hasAdvanced {
		searchResults, err := client.SearchAdvanced(ctx, c.Query, c.searchConfig(), params)
		if err != nil {
			return err
		}
		records = searchResults.Edges
		if len(records) == 0 {
			records = searchResults.Nodes
		}
	} else {
		if !hasTemporal {
			params.CenterNodeUUID = c.CenterNode
		}
		records, err = client.Search(ctx, c.Query, params)
		if err != nil {
			return err
		}
	}

	deps.Logger.Debug("search finished",
		zap.String("query", c.Query),
		zap.Int("results", len(records)),
	)

	sortByAge(records, c.Order)

	return c.emit(deps, records)
}

func (c *SearchCmd) searchConfig() graph.SearchConfig {
	var cfg graph.SearchConfig
	switch c.Reranker {
	case "cross_encoder":
		cfg = graph.CombinedHybridCrossEncoder
	case "mmr":
		cfg = graph.EdgeHybridMMR
	default:
		cfg = graph.EdgeHybridRRF
	}
	if len(c.Method) > 0 {
		cfg.Method = c.Method
	}
	return cfg
}

// sortByAge reorders by created_at when an explicit age order is requested.
// Relevance order is whatever the client returned.
func sortByAge(records []results.Record, order string) {
	if order != "newest" && order != "oldest" {
		return
	}

	sort.SliceStable(records, func(i, j int) bool {
		left, right := createdAt(records[i]), createdAt(records[j])
		if order == "newest" {
			return left.After(right)
		}
		return left.Before(right)
	})
}

func createdAt(record results.Record) time.Time {
	return getsafe.Time(record, "created_at")
}
