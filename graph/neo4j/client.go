package neo4j

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
	"github.com/w-h-a/graphiti/graph"
	"github.com/w-h-a/graphiti/results"
)

const (
	edgeIndex = "edge_name_and_fact"
	nodeIndex = "node_name_and_summary"

	communityProjection = "graphiti_communities"
)

type neo4jClient struct {
	options graph.Options
	driver  neo4j.DriverWithContext
}

func (c *neo4jClient) Search(ctx context.Context, query string, params graph.SearchParams) ([]results.Record, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.options.Database,
	})
	defer session.Close(ctx)

	cypher := `
		CALL db.index.fulltext.queryRelationships($index, $query)
		YIELD relationship, score
		WHERE ($groupIds IS NULL OR relationship.group_id IN $groupIds)
		AND ($edgeTypes IS NULL OR relationship.name IN $edgeTypes)
		AND ($entityTypes IS NULL OR
			any(l IN labels(startNode(relationship)) WHERE l IN $entityTypes) OR
			any(l IN labels(endNode(relationship)) WHERE l IN $entityTypes))
		AND ($createdAfter IS NULL OR relationship.created_at >= $createdAfter)
		AND ($createdBefore IS NULL OR relationship.created_at <= $createdBefore)
	`

	queryParams := map[string]any{
		"index":  edgeIndex,
		"query":  query,
		"limit":  params.NumResults,
		"center": params.CenterNodeUUID,
	}
	bindFilter(queryParams, params)

	if len(params.CenterNodeUUID) > 0 {
		cypher += `
		WITH relationship, score, startNode(relationship) AS start
		MATCH (center {uuid: $center})
		OPTIONAL MATCH path = shortestPath((center)-[*..4]-(start))
		WITH relationship, score * (1.0 + CASE WHEN path IS NULL THEN 0.0 ELSE 1.0 / (1 + length(path)) END) AS score
		`
	}

	cypher += `
		RETURN relationship, score
		ORDER BY score DESC
		LIMIT $limit
	`

	result, err := session.Run(ctx, cypher, queryParams)
	if err != nil {
		return nil, err
	}

	return c.collectEdges(ctx, result)
}

func (c *neo4jClient) SearchAdvanced(ctx context.Context, query string, config graph.SearchConfig, params graph.SearchParams) (*graph.SearchResults, error) {
	// The reranking strategy itself is the database's concern; the config
	// decides whether node results participate at all.
	edges, err := c.Search(ctx, query, params)
	if err != nil {
		return nil, err
	}

	searchResults := &graph.SearchResults{Edges: edges}

	if len(edges) > 0 && config.Reranker != "cross_encoder" {
		return searchResults, nil
	}

	nodes, err := c.searchNodes(ctx, query, params)
	if err != nil {
		return nil, err
	}
	searchResults.Nodes = nodes

	return searchResults, nil
}

func (c *neo4jClient) searchNodes(ctx context.Context, query string, params graph.SearchParams) ([]results.Record, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.options.Database,
	})
	defer session.Close(ctx)

	cypher := `
		CALL db.index.fulltext.queryNodes($index, $query)
		YIELD node, score
		WHERE ($groupIds IS NULL OR node.group_id IN $groupIds)
		AND ($entityTypes IS NULL OR any(l IN labels(node) WHERE l IN $entityTypes))
		AND ($createdAfter IS NULL OR node.created_at >= $createdAfter)
		AND ($createdBefore IS NULL OR node.created_at <= $createdBefore)
		RETURN node, score
		ORDER BY score DESC
		LIMIT $limit
	`

	queryParams := map[string]any{
		"index": nodeIndex,
		"query": query,
		"limit": params.NumResults,
	}
	bindFilter(queryParams, params)

	result, err := session.Run(ctx, cypher, queryParams)
	if err != nil {
		return nil, err
	}

	var records []results.Record
	for result.Next(ctx) {
		if result.Err() != nil {
			return nil, result.Err()
		}
		records = append(records, c.nodeToRecord(result.Record()))
	}

	return records, result.Err()
}

func (c *neo4jClient) AddEpisode(ctx context.Context, params graph.AddEpisodeParams) (*graph.AddEpisodeResult, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.options.Database,
	})
	defer session.Close(ctx)

	var entityTypes string
	if params.EntityTypes != nil {
		encoded, err := json.Marshal(params.EntityTypes)
		if err != nil {
			return nil, fmt.Errorf("failed to encode entity types: %w", err)
		}
		entityTypes = string(encoded)
	}

	record, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		createEpisode := `
			MERGE (e:Episodic {uuid: $uuid})
			SET e.name = $name,
				e.content = $content,
				e.source = $source,
				e.source_description = $sourceDescription,
				e.group_id = $groupId,
				e.entity_types = $entityTypes,
				e.valid_at = $validAt,
				e.created_at = datetime()
			RETURN e
		`

		episodeParams := map[string]any{
			"uuid":              uuid.New().String(),
			"name":              params.Name,
			"content":           params.Body,
			"source":            string(params.Source),
			"sourceDescription": params.SourceDescription,
			"groupId":           params.GroupID,
			"entityTypes":       entityTypes,
			"validAt":           params.ReferenceTime,
		}

		result, err := tx.Run(ctx, createEpisode, episodeParams)
		if err != nil {
			return nil, err
		}

		row, err := result.Single(ctx)
		if err != nil {
			return nil, err
		}

		nodeVal, _ := row.Get("e")
		node, ok := nodeVal.(dbtype.Node)
		if !ok {
			return nil, fmt.Errorf("unexpected episode value %T", nodeVal)
		}

		return propsToRecord(node.Props), nil
	})
	if err != nil {
		return nil, err
	}

	// Entity and edge extraction from episode bodies happens upstream; the
	// client only persists the episode itself.
	return &graph.AddEpisodeResult{
		Episode: record.(results.Record),
		Nodes:   []results.Record{},
		Edges:   []results.Record{},
	}, nil
}

func (c *neo4jClient) RetrieveEpisodes(ctx context.Context, referenceTime time.Time, lastN int, groupIDs []string) ([]results.Record, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.options.Database,
	})
	defer session.Close(ctx)

	cypher := `
		MATCH (e:Episodic)
		WHERE e.valid_at <= $reference
		AND ($groupIds IS NULL OR e.group_id IN $groupIds)
		RETURN e
		ORDER BY e.valid_at DESC
		LIMIT $lastN
	`

	queryParams := map[string]any{
		"reference": referenceTime,
		"lastN":     lastN,
		"groupIds":  nullableStrings(groupIDs),
	}

	result, err := session.Run(ctx, cypher, queryParams)
	if err != nil {
		return nil, err
	}

	var records []results.Record
	for result.Next(ctx) {
		if result.Err() != nil {
			return nil, result.Err()
		}
		nodeVal, _ := result.Record().Get("e")
		if node, ok := nodeVal.(dbtype.Node); ok {
			records = append(records, propsToRecord(node.Props))
		}
	}
	if result.Err() != nil {
		return nil, result.Err()
	}

	// Most recent last, matching chronological reading order.
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}

	return records, nil
}

func (c *neo4jClient) BuildCommunities(ctx context.Context, groupIDs []string) error {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.options.Database,
	})
	defer session.Close(ctx)

	// Label propagation runs server-side through GDS; the client only
	// materializes the resulting Community nodes.
	statements := []string{
		fmt.Sprintf(`CALL gds.graph.drop('%s', false)`, communityProjection),
		fmt.Sprintf(`CALL gds.graph.project('%s', ['Entity'], ['RELATES_TO'])`, communityProjection),
		fmt.Sprintf(`CALL gds.labelPropagation.write('%s', {writeProperty: 'community_id'})`, communityProjection),
	}

	for _, statement := range statements {
		if _, err := session.Run(ctx, statement, nil); err != nil {
			return err
		}
	}

	groupCommunities := `
		MATCH (n:Entity)
		WHERE n.community_id IS NOT NULL
		AND ($groupIds IS NULL OR n.group_id IN $groupIds)
		WITH n.community_id AS cid, collect(n) AS members
		MERGE (c:Community {uuid: 'community-' + toString(cid)})
		SET c.size = size(members),
			c.group_id = members[0].group_id,
			c.created_at = coalesce(c.created_at, datetime())
		WITH c, members
		UNWIND members AS m
		MERGE (m)-[:BELONGS_TO_COMMUNITY]->(c)
	`

	if _, err := session.Run(ctx, groupCommunities, map[string]any{"groupIds": nullableStrings(groupIDs)}); err != nil {
		return err
	}

	_, err := session.Run(ctx, fmt.Sprintf(`CALL gds.graph.drop('%s', false)`, communityProjection), nil)
	return err
}

func (c *neo4jClient) ExecuteQuery(ctx context.Context, cypher string, params map[string]any) (*graph.QueryResult, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.options.Database,
	})
	defer session.Close(ctx)

	result, err := session.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}

	queryResult := &graph.QueryResult{}
	for result.Next(ctx) {
		if result.Err() != nil {
			return nil, result.Err()
		}
		row := result.Record()
		record := results.Record{}
		for i, key := range row.Keys {
			record[key] = flattenValue(row.Values[i])
		}
		queryResult.Records = append(queryResult.Records, record)
	}
	if result.Err() != nil {
		return nil, result.Err()
	}

	return queryResult, nil
}

func (c *neo4jClient) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

func (c *neo4jClient) collectEdges(ctx context.Context, result neo4j.ResultWithContext) ([]results.Record, error) {
	var records []results.Record
	for result.Next(ctx) {
		if result.Err() != nil {
			return nil, result.Err()
		}
		records = append(records, c.edgeToRecord(result.Record()))
	}
	return records, result.Err()
}

func (c *neo4jClient) edgeToRecord(row *neo4j.Record) results.Record {
	relVal, _ := row.Get("relationship")

	record := results.Record{}
	if rel, ok := relVal.(dbtype.Relationship); ok {
		record = propsToRecord(rel.Props)
		if _, ok := record["name"]; !ok {
			record["name"] = rel.Type
		}
	}

	if score, ok := row.Get("score"); ok {
		record["score"] = score
	}

	return record
}

func (c *neo4jClient) nodeToRecord(row *neo4j.Record) results.Record {
	nodeVal, _ := row.Get("node")

	record := results.Record{}
	if node, ok := nodeVal.(dbtype.Node); ok {
		record = propsToRecord(node.Props)
		for _, label := range node.Labels {
			if label != "Entity" {
				record["entity_type"] = label
				break
			}
		}
	}

	if score, ok := row.Get("score"); ok {
		record["score"] = score
	}

	return record
}

func (c *neo4jClient) configure(ctx context.Context) error {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.options.Database,
	})
	defer session.Close(ctx)

	statements := []string{
		fmt.Sprintf(`CREATE FULLTEXT INDEX %s IF NOT EXISTS FOR ()-[r:RELATES_TO]-() ON EACH [r.name, r.fact]`, edgeIndex),
		fmt.Sprintf(`CREATE FULLTEXT INDEX %s IF NOT EXISTS FOR (n:Entity) ON EACH [n.name, n.summary]`, nodeIndex),
		`CREATE INDEX episodic_group_id IF NOT EXISTS FOR (e:Episodic) ON (e.group_id)`,
		`CREATE INDEX episodic_valid_at IF NOT EXISTS FOR (e:Episodic) ON (e.valid_at)`,
	}

	for _, statement := range statements {
		if _, err := session.Run(ctx, statement, nil); err != nil {
			return err
		}
	}

	return nil
}

func bindFilter(queryParams map[string]any, params graph.SearchParams) {
	queryParams["groupIds"] = nullableStrings(params.GroupIDs)
	queryParams["entityTypes"] = nil
	queryParams["edgeTypes"] = nil
	queryParams["createdAfter"] = nil
	queryParams["createdBefore"] = nil

	if params.Filter == nil {
		return
	}

	if len(params.Filter.EntityTypes) > 0 {
		queryParams["entityTypes"] = params.Filter.EntityTypes
	}
	if len(params.Filter.EdgeTypes) > 0 {
		queryParams["edgeTypes"] = params.Filter.EdgeTypes
	}
	if params.Filter.CreatedAfter != nil {
		queryParams["createdAfter"] = *params.Filter.CreatedAfter
	}
	if params.Filter.CreatedBefore != nil {
		queryParams["createdBefore"] = *params.Filter.CreatedBefore
	}
}

func nullableStrings(values []string) any {
	if len(values) == 0 {
		return nil
	}
	return values
}

func propsToRecord(props map[string]any) results.Record {
	record := make(results.Record, len(props))
	for key, value := range props {
		record[key] = value
	}
	return record
}

// flattenValue reduces driver entity types to plain property maps so the
// formatting layer never sees bolt-specific containers.
func flattenValue(value any) any {
	switch v := value.(type) {
	case dbtype.Node:
		return map[string]any(propsToRecord(v.Props))
	case dbtype.Relationship:
		record := propsToRecord(v.Props)
		if _, ok := record["name"]; !ok {
			record["name"] = v.Type
		}
		return map[string]any(record)
	case []any:
		flattened := make([]any, 0, len(v))
		for _, item := range v {
			flattened = append(flattened, flattenValue(item))
		}
		return flattened
	default:
		return v
	}
}

func NewClient(opts ...graph.Option) (graph.Client, error) {
	options := graph.NewOptions(opts...)

	driver, err := neo4j.NewDriverWithContext(
		options.URI,
		neo4j.BasicAuth(options.Username, options.Password, ""),
	)
	if err != nil {
		return nil, err
	}

	c := &neo4jClient{
		options: options,
		driver:  driver,
	}

	if err := c.configure(options.Context); err != nil {
		return nil, err
	}

	return c, nil
}
