// Package query runs the natural-language layer: it turns free text into a
// CLI command through an interpreter and executes it behind an allow-list.
package query

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// AllowedCommands are the only command prefixes the executor will run.
// Anything else the interpreter produces is rejected before execution.
var AllowedCommands = []string{
	"graphiti search",
	"graphiti search temporal",
	"graphiti search advanced",
	"graphiti episodes get",
	"graphiti maintenance stats",
	"graphiti maintenance export",
	"graphiti maintenance build-communities",
}

type Executor struct {
	timeout time.Duration
	binary  string
}

type ExecutorOption func(*Executor)

// WithTimeout overrides the per-command wall-clock limit.
func WithTimeout(timeout time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.timeout = timeout
	}
}

// WithBinary substitutes the executable invoked in place of the command's
// leading word. Used to point at the current binary, and by tests.
func WithBinary(binary string) ExecutorOption {
	return func(e *Executor) {
		e.binary = binary
	}
}

func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs an interpreted command. It never returns an error; failures
// come back as (false, message) so an interactive session can keep going.
func (e *Executor) Execute(ctx context.Context, command string, dryRun bool) (bool, string) {
	if !e.isAllowed(command) {
		return false, fmt.Sprintf("Command not allowed: %s", command)
	}

	if dryRun {
		return true, fmt.Sprintf("[DRY RUN] Would execute: %s", command)
	}

	tokens, err := splitCommand(command)
	if err != nil {
		return false, fmt.Sprintf("Error executing command: %v", err)
	}
	if len(tokens) == 0 {
		return false, fmt.Sprintf("Command not allowed: %s", command)
	}

	name := tokens[0]
	if len(e.binary) > 0 {
		name = e.binary
	}

	cctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, name, tokens[1:]...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	if cctx.Err() == context.DeadlineExceeded {
		return false, fmt.Sprintf("Command timed out after %d seconds", int(e.timeout.Seconds()))
	}

	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			message := strings.TrimSpace(stderr.String())
			if len(message) == 0 {
				message = fmt.Sprintf("Command failed with exit code %d", exitErr.ExitCode())
			}
			return false, message
		}
		return false, fmt.Sprintf("Error executing command: %v", runErr)
	}

	return true, stdout.String()
}

func (e *Executor) isAllowed(command string) bool {
	for _, allowed := range AllowedCommands {
		if command == allowed {
			return true
		}
		if strings.HasPrefix(command, allowed+" ") {
			return true
		}
	}
	return false
}

// splitCommand tokenizes a command line, honoring single and double quotes.
func splitCommand(command string) ([]string, error) {
	var tokens []string
	var current strings.Builder
	var quote rune
	inToken := false

	for _, r := range command {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			inToken = true
		case r == ' ' || r == '\t':
			if inToken {
				tokens = append(tokens, current.String())
				current.Reset()
				inToken = false
			}
		default:
			current.WriteRune(r)
			inToken = true
		}
	}

	if quote != 0 {
		return nil, fmt.Errorf("unbalanced quote in command: %s", command)
	}
	if inToken {
		tokens = append(tokens, current.String())
	}

	return tokens, nil
}
