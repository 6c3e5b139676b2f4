package nlq

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/tripflow/flightfinder/pkg/logger"
)

// Formatter turns raw search results back into a conversational answer.
type Formatter struct {
	client openai.Client
	model  string
	logger *logger.Logger
}

// NewFormatter creates a formatter against the same endpoint family as
// the parser.
func NewFormatter(apiKey, baseURL, model string, log *logger.Logger) *Formatter {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Formatter{
		client: openai.NewClient(opts...),
		model:  model,
		logger: log.Named("nlq-formatter"),
	}
}

const formattingPrompt = `You are a helpful travel agent. The user asked:
"%s"

Here is the flight search result data in JSON:
%s

Summarize the top results conversationally in a few sentences. If no
flights were found or the data is incomplete, kindly let the user know.`

// Format summarizes payload (marshalled to JSON) as an answer to
// userQuery. Formatting is best-effort presentation: on failure the
// caller should fall back to structured output rather than fail the
// search.
func (f *Formatter) Format(ctx context.Context, userQuery string, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal result payload: %w", err)
	}

	completion, err := f.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: f.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(fmt.Sprintf(formattingPrompt, userQuery, string(data))),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}
