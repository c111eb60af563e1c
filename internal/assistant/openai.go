package assistant

import (
	"context"
	"errors"
	"fmt"

	openaisdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const systemPrompt = `You are SentriX, an AI assistant specialized in supply chain risk intelligence.
You help users understand and analyze supply chain risks including:
- Political and geopolitical risks
- Schedule delays and delivery risks
- Tariff changes and trade policies
- Logistics disruptions

Always provide helpful, accurate information and guide users to use the appropriate
features for their queries. Be concise but informative.`

const DefaultModel = "gpt-4o-mini"

// OpenAICompleter answers through the chat completions API.
type OpenAICompleter struct {
	client openaisdk.Client
	model  string
}

func NewOpenAICompleter(apiKey, baseURL, model string) *OpenAICompleter {
	if model == "" {
		model = DefaultModel
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAICompleter{client: openaisdk.NewClient(opts...), model: model}
}

func (c *OpenAICompleter) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(system),
			openaisdk.UserMessage(user),
		},
		Model: openaisdk.ChatModel(c.model),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
