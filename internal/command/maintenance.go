package command

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/w-h-a/graphiti/results"
	getsafe "github.com/w-h-a/graphiti/util/get_safe"
)

// BuildCommunitiesCmd triggers server-side community detection and reports
// the resulting community count.
type BuildCommunitiesCmd struct {
	GroupIDs  []string `short:"g" name:"group-ids" help:"Groups to process."`
	Algorithm string   `short:"a" enum:"label_propagation" default:"label_propagation" help:"Clustering algorithm."`
	Output    string   `short:"o" enum:"json,jsonc,jsonl,ndjson,pretty" default:"json" help:"Output format."`
}

func (c *BuildCommunitiesCmd) Run(deps *Deps) error {
	ctx := context.Background()

	groups := groupIDsOrDefault(deps, c.GroupIDs)

	client, err := deps.NewClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close(ctx)

	if err := client.BuildCommunities(ctx, groups); err != nil {
		return err
	}

	result, err := client.ExecuteQuery(ctx, `
		MATCH (c:Community)
		RETURN count(c) as community_count
	`, nil)
	if err != nil {
		return err
	}

	var count any = 0
	if len(result.Records) > 0 {
		count = result.Records[0]["community_count"]
	}

	return render(deps, map[string]any{
		"status":              "success",
		"communities_created": count,
		"group_ids":           groupsOrAll(groups),
	}, c.Output)
}

// ExportCmd dumps nodes and edges, with embeddings stripped by default.
type ExportCmd struct {
	GroupIDs          []string `short:"g" name:"group-ids" help:"Groups to export."`
	IncludeEmbeddings bool     `name:"include-embeddings" help:"Include embedding vectors."`
	OutputFile        string   `short:"o" name:"output-file" help:"Output file (default: stdout)."`
}

func (c *ExportCmd) Run(deps *Deps) error {
	ctx := context.Background()

	groups := groupIDsOrDefault(deps, c.GroupIDs)

	client, err := deps.NewClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close(ctx)

	nodesQuery := `
		MATCH (n)
		RETURN n
	`
	edgesQuery := `
		MATCH (a)-[r]->(b)
		RETURN a.uuid as source, b.uuid as target, r
	`
	params := map[string]any{}

	if groups != nil {
		nodesQuery = `
			MATCH (n)
			WHERE n.group_id IN $group_ids
			RETURN n
		`
		edgesQuery = `
			MATCH (a)-[r]->(b)
			WHERE a.group_id IN $group_ids OR b.group_id IN $group_ids
			RETURN a.uuid as source, b.uuid as target, r
		`
		params["group_ids"] = groups
	}

	nodesResult, err := client.ExecuteQuery(ctx, nodesQuery, params)
	if err != nil {
		return err
	}

	edgesResult, err := client.ExecuteQuery(ctx, edgesQuery, params)
	if err != nil {
		return err
	}

	nodes := make([]any, 0, len(nodesResult.Records))
	for _, record := range nodesResult.Records {
		node := getsafe.Metadata(record, "n")
		if node == nil {
			continue
		}
		if !c.IncludeEmbeddings {
			node = results.StripEmbeddings(node)
		}
		nodes = append(nodes, node)
	}

	edges := make([]any, 0, len(edgesResult.Records))
	for _, record := range edgesResult.Records {
		edge := getsafe.Metadata(record, "r")
		if edge == nil {
			continue
		}
		if !c.IncludeEmbeddings {
			edge = results.StripEmbeddings(edge)
		}
		edge["source"] = record["source"]
		edge["target"] = record["target"]
		edges = append(edges, edge)
	}

	envelope := map[string]any{
		"export_date":    time.Now().UTC(),
		"format_version": "1.0",
		"statistics": map[string]any{
			"nodes":  len(nodes),
			"edges":  len(edges),
			"groups": groupsOrAll(groups),
		},
		"nodes": nodes,
		"edges": edges,
	}

	deps.Logger.Debug("export assembled",
		zap.Int("nodes", len(nodes)),
		zap.Int("edges", len(edges)),
	)

	if len(c.OutputFile) == 0 {
		return render(deps, envelope, "json")
	}

	text, err := renderString(envelope)
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.OutputFile, []byte(text), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(deps.Stderr, "Exported to %s\n", c.OutputFile)
	return nil
}

// StatsCmd reports graph structure statistics.
type StatsCmd struct {
	GroupIDs []string `short:"g" name:"group-ids" help:"Groups to analyze."`
	Detailed bool     `short:"d" help:"Show detailed statistics."`
	Output   string   `short:"o" enum:"json,jsonc,jsonl,ndjson,pretty" default:"json" help:"Output format."`
}

func (c *StatsCmd) Run(deps *Deps) error {
	ctx := context.Background()

	groups := groupIDsOrDefault(deps, c.GroupIDs)
	params := map[string]any{"group_ids": nullable(groups)}

	client, err := deps.NewClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close(ctx)

	nodeTypes, err := client.ExecuteQuery(ctx, `
		MATCH (n)
		WHERE $group_ids IS NULL OR n.group_id IN $group_ids
		RETURN labels(n) as labels, count(n) as count
	`, params)
	if err != nil {
		return err
	}

	edgeTypes, err := client.ExecuteQuery(ctx, `
		MATCH ()-[r]->()
		WHERE $group_ids IS NULL OR
			(startNode(r).group_id IN $group_ids OR endNode(r).group_id IN $group_ids)
		RETURN type(r) as type, count(r) as count
	`, params)
	if err != nil {
		return err
	}

	groupStats, err := client.ExecuteQuery(ctx, `
		MATCH (n)
		WHERE n.group_id IS NOT NULL
		RETURN DISTINCT n.group_id as group_id, count(n) as node_count
		ORDER BY node_count DESC
	`, nil)
	if err != nil {
		return err
	}

	nodeCounts := map[string]any{}
	var totalNodes int64
	for _, record := range nodeTypes.Records {
		labels, _ := record["labels"].([]any)
		if len(labels) == 0 {
			continue
		}
		label := fmt.Sprint(labels[0])
		count := asCount(record["count"])
		nodeCounts[label] = count
		totalNodes += count
	}

	edgeCounts := map[string]any{}
	var totalEdges int64
	for _, record := range edgeTypes.Records {
		count := asCount(record["count"])
		edgeCounts[getsafe.String(record, "type")] = count
		totalEdges += count
	}

	groupCounts := map[string]any{}
	for _, record := range groupStats.Records {
		groupCounts[getsafe.String(record, "group_id")] = asCount(record["node_count"])
	}

	stats := map[string]any{
		"node_types": nodeCounts,
		"edge_types": edgeCounts,
		"groups":     groupCounts,
		"totals": map[string]any{
			"nodes":  totalNodes,
			"edges":  totalEdges,
			"groups": len(groupCounts),
		},
	}

	if c.Detailed {
		degrees, err := client.ExecuteQuery(ctx, `
			MATCH (n)
			WHERE $group_ids IS NULL OR n.group_id IN $group_ids
			WITH n, COUNT { (n)--() } as degree
			RETURN degree, count(n) as count
			ORDER BY degree DESC
			LIMIT 20
		`, params)
		if err != nil {
			return err
		}

		degreeDistribution := map[string]any{}
		for _, record := range degrees.Records {
			degreeDistribution[fmt.Sprint(record["degree"])] = asCount(record["count"])
		}
		stats["degree_distribution"] = degreeDistribution

		recent, err := client.ExecuteQuery(ctx, `
			MATCH (n)
			WHERE n.created_at IS NOT NULL AND
				($group_ids IS NULL OR n.group_id IN $group_ids)
			RETURN toString(date(n.created_at)) as date, count(n) as count
			ORDER BY date DESC
			LIMIT 7
		`, params)
		if err != nil {
			return err
		}

		recentActivity := map[string]any{}
		for _, record := range recent.Records {
			recentActivity[getsafe.String(record, "date")] = asCount(record["count"])
		}
		stats["recent_activity"] = recentActivity
	}

	return render(deps, stats, c.Output)
}

// ClearCmd deletes graph data, scoped to groups when given.
type ClearCmd struct {
	GroupIDs []string `short:"g" name:"group-ids" help:"Groups to clear (WARNING: destructive)."`
	Confirm  bool     `help:"Skip confirmation prompt."`
}

func (c *ClearCmd) Run(deps *Deps) error {
	ctx := context.Background()

	groups := groupIDsOrDefault(deps, c.GroupIDs)

	if !c.Confirm {
		if groups != nil {
			fmt.Fprintf(deps.Stdout, "This will DELETE all data in groups: %s\n", strings.Join(groups, ", "))
		} else {
			fmt.Fprintln(deps.Stdout, "This will DELETE THE ENTIRE GRAPH!")
		}
		fmt.Fprint(deps.Stdout, "Are you sure you want to continue? [y/N]: ")

		reader := bufio.NewReader(deps.Stdin)
		answer, _ := reader.ReadString('\n')
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer != "y" && answer != "yes" {
			fmt.Fprintln(deps.Stdout, "Aborted")
			return nil
		}
	}

	client, err := deps.NewClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close(ctx)

	if groups != nil {
		_, err := client.ExecuteQuery(ctx, `
			MATCH (n)
			WHERE n.group_id IN $group_ids
			DETACH DELETE n
		`, map[string]any{"group_ids": groups})
		if err != nil {
			return err
		}
		return render(deps, map[string]any{"cleared_groups": groups}, "json")
	}

	if _, err := client.ExecuteQuery(ctx, `MATCH (n) DETACH DELETE n`, nil); err != nil {
		return err
	}
	return render(deps, map[string]any{"status": "entire graph cleared"}, "json")
}

func groupsOrAll(groups []string) any {
	if groups == nil {
		return "all"
	}
	return groups
}

func nullable(groups []string) any {
	if len(groups) == 0 {
		return nil
	}
	return groups
}

func asCount(value any) int64 {
	switch v := value.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}
