package anthropic

import (
	"context"
	"fmt"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/w-h-a/graphiti/interpreter"
)

type anthropicInterpreter struct {
	options interpreter.Options
	client  *anthropic.Client
}

func (i *anthropicInterpreter) Interpret(ctx context.Context, query string, history []interpreter.Exchange) (string, error) {
	req := anthropic.MessageNewParams{
		Model:       anthropic.Model(i.options.Model),
		MaxTokens:   1024,
		Temperature: anthropic.Float(i.options.Temperature),
		System: []anthropic.TextBlockParam{
			{Text: i.options.SystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(interpreter.BuildPrompt(query, history))),
		},
	}

	rsp, err := i.client.Messages.New(ctx, req)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, content := range rsp.Content {
		if text, ok := content.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(text.Text)
		}
	}

	command := strings.TrimSpace(b.String())
	if len(command) == 0 {
		return "", fmt.Errorf("%w: anthropic returned empty content", interpreter.ErrNoResponse)
	}

	return command, nil
}

func NewInterpreter(opts ...interpreter.Option) interpreter.Interpreter {
	options := interpreter.NewOptions(opts...)

	i := &anthropicInterpreter{
		options: options,
	}

	client := anthropic.NewClient(
		anthropicopt.WithAPIKey(options.ApiKey),
	)

	i.client = &client

	return i
}
