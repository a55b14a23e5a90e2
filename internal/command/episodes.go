package command

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/w-h-a/graphiti/graph"
	"github.com/w-h-a/graphiti/results"
	getsafe "github.com/w-h-a/graphiti/util/get_safe"
	"github.com/w-h-a/graphiti/validate"
)

// EpisodesAddCmd adds one episode. Content can be given inline, via
// --from-file, or with an @path argument.
type EpisodesAddCmd struct {
	Name    string `arg:"" help:"Episode name."`
	Content string `arg:"" help:"Episode content, or a file path with --from-file or an @ prefix."`

	Source      string `short:"s" enum:"text,json,message" default:"text" help:"Content source type."`
	GroupID     string `short:"g" name:"group-id" help:"Target group ID."`
	EntityTypes string `name:"entity-types" help:"Custom entity types as JSON."`
	Timestamp   string `help:"Override timestamp."`
	FromFile    bool   `short:"f" name:"from-file" help:"Read content from file."`
}

func (c *EpisodesAddCmd) Run(deps *Deps) error {
	ctx := context.Background()

	content := c.Content
	if c.FromFile || strings.HasPrefix(content, "@") {
		path := strings.TrimPrefix(content, "@")
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("error reading file: %w", err)
		}
		content = string(data)
	}

	var entityTypes map[string]any
	if len(c.EntityTypes) > 0 {
		if err := json.Unmarshal([]byte(c.EntityTypes), &entityTypes); err != nil {
			return fmt.Errorf("error parsing entity types JSON: %w", err)
		}
	}

	referenceTime := time.Now().UTC()
	if len(c.Timestamp) > 0 {
		parsed, err := parseDateTime(c.Timestamp)
		if err != nil {
			return err
		}
		referenceTime = *parsed
	}

	client, err := deps.NewClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close(ctx)

	result, err := client.AddEpisode(ctx, graph.AddEpisodeParams{
		Name:              c.Name,
		Body:              content,
		SourceDescription: c.Source,
		ReferenceTime:     referenceTime,
		GroupID:           c.GroupID,
		Source:            graph.EpisodeType(c.Source),
		EntityTypes:       entityTypes,
	})
	if err != nil {
		return err
	}

	deps.Logger.Debug("episode added", zap.String("name", c.Name))

	return render(deps, map[string]any{
		"episode":       results.StripEmbeddings(result.Episode),
		"nodes_created": len(result.Nodes),
		"edges_created": len(result.Edges),
	}, "json")
}

// EpisodesGetCmd retrieves recent episodes with filtering.
type EpisodesGetCmd struct {
	GroupID string `short:"g" name:"group-id" help:"Filter by group ID."`
	LastN   int    `short:"n" name:"last-n" default:"10" help:"Number of recent episodes."`
	After   string `help:"Episodes after date."`
	Before  string `help:"Episodes before date."`

	OutputFlags
}

func (c *EpisodesGetCmd) Run(deps *Deps) error {
	ctx := context.Background()

	after, err := parseDateTime(c.After)
	if err != nil {
		return err
	}

	before, err := parseDateTime(c.Before)
	if err != nil {
		return err
	}

	if err := validate.DateRange(after, before, "date range"); err != nil {
		return err
	}

	referenceTime := time.Now().UTC()
	if before != nil {
		referenceTime = *before
	}

	var groupIDs []string
	if len(c.GroupID) > 0 {
		groupIDs = []string{c.GroupID}
	}

	client, err := deps.NewClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close(ctx)

	episodes, err := client.RetrieveEpisodes(ctx, referenceTime, c.LastN, validate.GroupIDs(groupIDs))
	if err != nil {
		return err
	}

	if after != nil {
		filtered := make([]results.Record, 0, len(episodes))
		for _, episode := range episodes {
			validAt := getsafe.Time(episode, "valid_at")
			if !validAt.IsZero() && validAt.After(*after) {
				filtered = append(filtered, episode)
			}
		}
		episodes = filtered
	}

	// Episodes always render in full; the simplified projection is shaped
	// for search hits and would drop the episode body.
	c.FullOutput = true

	return c.emit(deps, episodes)
}

// EpisodesProcessBulkCmd ingests a JSON array of episodes with per-item
// failure accounting.
type EpisodesProcessBulkCmd struct {
	File string `arg:"" type:"existingfile" help:"JSON file holding an array of episodes."`

	GroupID   string `short:"g" name:"group-id" help:"Target group ID for all episodes."`
	BatchSize int    `short:"b" name:"batch-size" default:"10" help:"Processing batch size."`
	DryRun    bool   `name:"dry-run" help:"Validate without importing."`
}

func (c *EpisodesProcessBulkCmd) Run(deps *Deps) error {
	ctx := context.Background()

	if c.BatchSize < 1 {
		return fmt.Errorf("batch-size must be at least 1, got %d", c.BatchSize)
	}

	data, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("error reading file: %w", err)
	}

	var items []map[string]any
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("file must contain a JSON array of episodes: %w", err)
	}

	if c.DryRun {
		fmt.Fprintf(deps.Stderr, "Dry run: Would process %d episodes\n", len(items))
		for i, item := range items {
			if len(getsafe.String(item, "name")) == 0 || len(getsafe.String(item, "content")) == 0 {
				fmt.Fprintf(deps.Stderr, "Warning: Episode %d missing required fields\n", i)
			}
		}
		return render(deps, map[string]any{
			"status":   "dry_run",
			"episodes": len(items),
		}, "json")
	}

	client, err := deps.NewClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close(ctx)

	processed := 0
	failed := 0
	errors := []any{}

	for batchStart := 0; batchStart < len(items); batchStart += c.BatchSize {
		batchEnd := batchStart + c.BatchSize
		if batchEnd > len(items) {
			batchEnd = len(items)
		}
		fmt.Fprintf(deps.Stderr, "Processing batch %d...\n", batchStart/c.BatchSize+1)

		for i := batchStart; i < batchEnd; i++ {
			item := items[i]

			groupID := c.GroupID
			if len(groupID) == 0 {
				groupID = getsafe.String(item, "group_id")
			}

			source := getsafe.String(item, "source")
			if len(source) == 0 {
				source = "text"
			}

			_, err := client.AddEpisode(ctx, graph.AddEpisodeParams{
				Name:              getsafe.String(item, "name"),
				Body:              getsafe.String(item, "content"),
				SourceDescription: source,
				ReferenceTime:     time.Now().UTC(),
				GroupID:           groupID,
				Source:            graph.EpisodeType(source),
			})
			if err != nil {
				failed++
				name := getsafe.String(item, "name")
				if len(name) == 0 {
					name = "Unknown"
				}
				errors = append(errors, map[string]any{
					"index": i,
					"name":  name,
					"error": err.Error(),
				})
				continue
			}
			processed++
		}
	}

	return render(deps, map[string]any{
		"processed": processed,
		"failed":    failed,
		"errors":    errors,
	}, "json")
}
