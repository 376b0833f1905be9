package answerer

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
)

// OpenAIGenerator generates answers with an OpenAI chat model.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator creates a generator for the given chat model.
func NewOpenAIGenerator(client *openai.Client, model string) *OpenAIGenerator {
	return &OpenAIGenerator{
		client: client,
		model:  model,
	}
}

// Generate sends the prompt as a single user message and returns the
// model output verbatim.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: openai.ChatModel(g.model),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
