// Package command implements the CLI command handlers: parse flags, call the
// graph client, run results through the pipeline, and print.
package command

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/w-h-a/graphiti/format"
	"github.com/w-h-a/graphiti/graph"
	"github.com/w-h-a/graphiti/internal/config"
	"github.com/w-h-a/graphiti/interpreter"
	"github.com/w-h-a/graphiti/results"
	"github.com/w-h-a/graphiti/validate"
)

// Deps carries everything a command handler needs. Tests substitute fake
// clients and in-memory writers.
type Deps struct {
	Config *config.Config
	Logger *zap.Logger

	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader

	NewClient      func(ctx context.Context) (graph.Client, error)
	NewInterpreter func(temperature float64) (interpreter.Interpreter, error)

	// HistoryFile and Binary override the query session's defaults.
	HistoryFile string
	Binary      string
}

// CLI is the full command tree parsed by kong.
type CLI struct {
	Debug bool `help:"Enable debug output."`

	Search      SearchCmd      `cmd:"" help:"Search the knowledge graph."`
	Episodes    EpisodesCmd    `cmd:"" help:"Episode management operations."`
	Maintenance MaintenanceCmd `cmd:"" help:"Graph maintenance and bulk operations."`
	Query       QueryCmd       `cmd:"" help:"Natural language interface to the graph."`
}

type EpisodesCmd struct {
	Add         EpisodesAddCmd         `cmd:"" help:"Add an episode to the knowledge graph."`
	Get         EpisodesGetCmd         `cmd:"" help:"Retrieve episodes with filtering."`
	ProcessBulk EpisodesProcessBulkCmd `cmd:"" name:"process-bulk" help:"Process multiple episodes from a JSON file."`
}

type MaintenanceCmd struct {
	BuildCommunities BuildCommunitiesCmd `cmd:"" name:"build-communities" help:"Build communities for knowledge organization."`
	Export           ExportCmd           `cmd:"" help:"Export knowledge graph data."`
	Stats            StatsCmd            `cmd:"" help:"Analyze graph structure and statistics."`
	Clear            ClearCmd            `cmd:"" help:"Clear graph data (WARNING: destructive operation)."`
}

// OutputFlags are the post-processing and rendering options shared by the
// search and episode-listing commands.
type OutputFlags struct {
	Output     string   `short:"o" enum:"json,jsonc,jsonl,ndjson,pretty,csv" default:"${output_default}" help:"Output format."`
	FullOutput bool     `name:"full-output" help:"Emit full records instead of the simplified projection."`
	MinScore   *float64 `name:"min-score" help:"Drop results scoring below this threshold."`
	Fields     []string `help:"Project records to the named fields."`
	IDsOnly    bool     `name:"ids-only" help:"Collapse results to their uuid values."`
	DistinctBy string   `name:"distinct-by" enum:",fact,uuid" default:"" help:"Deduplicate results by field, keeping first occurrences."`
	Page       int      `default:"1" help:"1-based result page."`
	PageSize   int      `name:"page-size" default:"0" help:"Page size; 0 returns all results."`
}

// emit runs the record list through the post-processing pipeline and prints
// it in the requested format.
func (f OutputFlags) emit(deps *Deps, records []results.Record) error {
	if f.MinScore != nil {
		if _, err := validate.Threshold(*f.MinScore, "min-score"); err != nil {
			return err
		}
	}

	if f.FullOutput {
		stripped := make([]results.Record, 0, len(records))
		for _, record := range records {
			stripped = append(stripped, results.StripEmbeddings(record))
		}
		records = stripped
	}

	processed := results.Process(records, results.Options{
		FullOutput: f.FullOutput,
		MinScore:   f.MinScore,
		DistinctBy: f.DistinctBy,
		Page:       f.Page,
		PageSize:   f.PageSize,
		Fields:     f.Fields,
		IDsOnly:    f.IDsOnly,
	})

	text, err := format.Render(processed, f.Output)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(deps.Stdout, text)
	return err
}

// render prints a single already-shaped value, used by commands whose result
// is a summary object rather than a record list.
func render(deps *Deps, data any, outputFormat string) error {
	text, err := format.Render(data, outputFormat)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(deps.Stdout, text)
	return err
}

func renderString(data any) (string, error) {
	return format.Render(data, "json")
}

// groupIDsOrDefault falls back to the configured default groups.
func groupIDsOrDefault(deps *Deps, groupIDs []string) []string {
	if len(groupIDs) == 0 && deps.Config != nil {
		groupIDs = deps.Config.Defaults.GroupIDs
	}
	return validate.GroupIDs(groupIDs)
}

var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseDateTime accepts the date and datetime forms the CLI documents.
func parseDateTime(value string) (*time.Time, error) {
	if len(value) == 0 {
		return nil, nil
	}
	for _, layout := range dateTimeLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return &parsed, nil
		}
	}
	return nil, fmt.Errorf("invalid date %q: expected formats %s", value, "2006-01-02[ 15:04:05] or RFC3339")
}
