package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/w-h-a/graphiti/graph"
	neo4jgraph "github.com/w-h-a/graphiti/graph/neo4j"
	"github.com/w-h-a/graphiti/internal/command"
	"github.com/w-h-a/graphiti/internal/config"
	"github.com/w-h-a/graphiti/internal/logger"
	"github.com/w-h-a/graphiti/interpreter"
	anthropicinterpreter "github.com/w-h-a/graphiti/interpreter/anthropic"
	googleinterpreter "github.com/w-h-a/graphiti/interpreter/google"
	openaiinterpreter "github.com/w-h-a/graphiti/interpreter/openai"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if len(cfg.OpenAIKey) == 0 {
		fmt.Fprintln(os.Stderr, "Warning: OPENAI_API_KEY not set, some operations may fail")
	}

	var cli command.CLI

	parsed := kong.Parse(&cli,
		kong.Name("graphiti"),
		kong.Description("Graphiti CLI provides direct access to knowledge graph operations."),
		kong.UsageOnError(),
		kong.Vars{"output_default": cfg.Defaults.Output},
	)

	log, err := logger.New(cli.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Interpreted natural-language commands re-invoke this binary.
	binary, _ := os.Executable()

	deps := &command.Deps{
		Config: cfg,
		Logger: log,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Stdin:  os.Stdin,
		Binary: binary,
		NewClient: func(ctx context.Context) (graph.Client, error) {
			return neo4jgraph.NewClient(
				graph.WithURI(cfg.Neo4jURI),
				graph.WithUsername(cfg.Neo4jUser),
				graph.WithPassword(cfg.Neo4jPassword),
			)
		},
		NewInterpreter: func(temperature float64) (interpreter.Interpreter, error) {
			opts := []interpreter.Option{
				interpreter.WithApiKey(cfg.InterpreterKey()),
				interpreter.WithModel(cfg.Interpreter.Model),
				interpreter.WithTemperature(temperature),
			}
			switch cfg.Interpreter.Provider {
			case "anthropic":
				return anthropicinterpreter.NewInterpreter(opts...), nil
			case "google":
				return googleinterpreter.NewInterpreter(opts...)
			default:
				return openaiinterpreter.NewInterpreter(opts...), nil
			}
		},
	}

	if err := parsed.Run(deps); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
