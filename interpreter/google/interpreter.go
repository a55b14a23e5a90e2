package google

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/w-h-a/graphiti/interpreter"
	genaiopt "google.golang.org/api/option"
)

type googleInterpreter struct {
	options interpreter.Options
	client  *genai.Client
}

func (i *googleInterpreter) Interpret(ctx context.Context, query string, history []interpreter.Exchange) (string, error) {
	model := i.client.GenerativeModel(i.options.Model)
	model.SystemInstruction = genai.NewUserContent(genai.Text(i.options.SystemPrompt))
	temperature := float32(i.options.Temperature)
	model.Temperature = &temperature

	rsp, err := model.GenerateContent(ctx, genai.Text(interpreter.BuildPrompt(query, history)))
	if err != nil {
		return "", err
	}

	if len(rsp.Candidates) == 0 || rsp.Candidates[0].Content == nil || len(rsp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: google returned no candidates", interpreter.ErrNoResponse)
	}

	var b strings.Builder
	for _, part := range rsp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}

	command := strings.TrimSpace(b.String())
	if len(command) == 0 {
		return "", fmt.Errorf("%w: google returned empty content", interpreter.ErrNoResponse)
	}

	return command, nil
}

func NewInterpreter(opts ...interpreter.Option) (interpreter.Interpreter, error) {
	options := interpreter.NewOptions(opts...)

	client, err := genai.NewClient(
		options.Context,
		genaiopt.WithAPIKey(options.ApiKey),
	)
	if err != nil {
		return nil, err
	}

	return &googleInterpreter{
		options: options,
		client:  client,
	}, nil
}
