package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/w-h-a/graphiti/interpreter"
)

type openAIInterpreter struct {
	options interpreter.Options
	client  *openai.Client
}

func (i *openAIInterpreter) Interpret(ctx context.Context, query string, history []interpreter.Exchange) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       i.options.Model,
		Temperature: float32(i.options.Temperature),
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: i.options.SystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: interpreter.BuildPrompt(query, history),
			},
		},
	}

	rsp, err := i.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}

	if len(rsp.Choices) == 0 {
		return "", fmt.Errorf("%w: openai returned no choices", interpreter.ErrNoResponse)
	}

	command := strings.TrimSpace(rsp.Choices[0].Message.Content)
	if len(command) == 0 {
		return "", fmt.Errorf("%w: openai returned empty content", interpreter.ErrNoResponse)
	}

	return command, nil
}

func NewInterpreter(opts ...interpreter.Option) interpreter.Interpreter {
	options := interpreter.NewOptions(opts...)

	i := &openAIInterpreter{
		options: options,
	}

	client := openai.NewClient(options.ApiKey)

	i.client = client

	return i
}
