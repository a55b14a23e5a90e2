package command

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/w-h-a/graphiti/query"
	"github.com/w-h-a/graphiti/validate"
)

// QueryCmd is the natural-language interface: free text in, an interpreted
// CLI command out, executed through the allow-listed runner.
type QueryCmd struct {
	Query string `arg:"" optional:"" help:"Natural language query."`

	Interactive  bool    `short:"i" help:"Interactive mode."`
	DryRun       bool    `short:"d" name:"dry-run" help:"Show command without executing."`
	Temperature  float64 `default:"0.2" help:"Model temperature (0.0-1.0)."`
	History      bool    `help:"Show query history."`
	ClearHistory bool    `name:"clear-history" help:"Clear query history."`
}

func (c *QueryCmd) Run(deps *Deps) error {
	var sessionOpts []query.SessionOption
	if len(deps.HistoryFile) > 0 {
		sessionOpts = append(sessionOpts, query.WithHistoryFile(deps.HistoryFile))
	}
	if len(deps.Binary) > 0 {
		sessionOpts = append(sessionOpts, query.WithExecutor(query.NewExecutor(query.WithBinary(deps.Binary))))
	}

	if c.ClearHistory {
		session := query.NewSession(nil, sessionOpts...)
		if err := session.ClearHistory(); err != nil {
			return err
		}
		fmt.Fprintln(deps.Stdout, "Query history cleared.")
		return nil
	}

	if c.History {
		session := query.NewSession(nil, sessionOpts...)
		fmt.Fprintln(deps.Stdout, session.History())
		return nil
	}

	if _, err := validate.Threshold(c.Temperature, "temperature"); err != nil {
		return err
	}

	interp, err := deps.NewInterpreter(c.Temperature)
	if err != nil {
		return err
	}

	session := query.NewSession(interp, sessionOpts...)

	ctx := context.Background()

	if c.Interactive {
		return c.runInteractive(ctx, deps, session)
	}

	// Without a query there is nothing to run; entering the interactive loop
	// implicitly would hang scripted invocations on stdin.
	if len(c.Query) == 0 {
		return fmt.Errorf("query argument is required unless --interactive is set")
	}

	return c.runSingle(ctx, deps, session, c.Query)
}

func (c *QueryCmd) runSingle(ctx context.Context, deps *Deps, session *query.Session, text string) error {
	fmt.Fprintf(deps.Stdout, "Processing: %s\n", text)

	command, success, output, err := session.Process(ctx, text, c.DryRun)
	if err != nil {
		return err
	}

	fmt.Fprintf(deps.Stdout, "\nCommand: %s\n", command)

	if !success {
		fmt.Fprintf(deps.Stderr, "\nError: %s\n", output)
		return nil
	}

	fmt.Fprintf(deps.Stdout, "\nOutput:\n%s\n", output)
	return nil
}

func (c *QueryCmd) runInteractive(ctx context.Context, deps *Deps, session *query.Session) error {
	fmt.Fprintln(deps.Stdout, "Graphiti Natural Language Interface")
	fmt.Fprintln(deps.Stdout, "Type 'exit' to quit, 'help' for tips")
	fmt.Fprintln(deps.Stdout)

	reader := bufio.NewReader(deps.Stdin)

	for {
		fmt.Fprint(deps.Stdout, "> ")

		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Fprintln(deps.Stdout, "\nGoodbye!")
			return nil
		}

		text := strings.TrimSpace(line)
		if len(text) == 0 {
			continue
		}

		switch strings.ToLower(text) {
		case "exit", "quit":
			fmt.Fprintln(deps.Stdout, "Goodbye!")
			return nil
		case "help":
			fmt.Fprintln(deps.Stdout, interactiveHelp)
			continue
		}

		if err := c.runSingle(ctx, deps, session, text); err != nil {
			fmt.Fprintf(deps.Stderr, "Error: %v\n", err)
		}
		fmt.Fprintln(deps.Stdout)
	}
}

const interactiveHelp = `
Query tips:

- "show me recent changes" - finds changes in the last 24 hours
- "find authentication components" - searches for specific entity types
- "what depends on UserService?" - explores relationships
- "get statistics" - shows graph statistics

Include time words (recent, yesterday, last week) for temporal queries.
Mention entity types (components, patterns, workflows) for filtering.
Ask about relationships (depends on, implements, belongs to).`
