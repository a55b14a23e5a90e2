// Package interpreter translates natural-language queries into CLI commands
// through a remote language model.
package interpreter

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNoResponse is returned when the model produced no usable content. The
// session layer falls back to a basic search command in that case.
var ErrNoResponse = errors.New("no response from interpreter")

// Exchange is one past query/command pair, used as conversational context.
type Exchange struct {
	Query   string
	Command string
}

type Interpreter interface {
	Interpret(ctx context.Context, query string, history []Exchange) (string, error)
}

// BuildPrompt assembles the model prompt for a query, prefixing the most
// recent prior command when one exists.
func BuildPrompt(query string, history []Exchange) string {
	prompt := fmt.Sprintf("Natural language query: %s", query)

	for i := len(history) - 1; i >= 0; i-- {
		if strings.HasPrefix(history[i].Command, "graphiti") {
			prompt = fmt.Sprintf("Previous command: %s\n\n%s", history[i].Command, prompt)
			break
		}
	}

	return prompt
}

// Fallback is the command used when the model gives no answer.
func Fallback(query string) string {
	return fmt.Sprintf("graphiti search %q", query)
}
