// Package nlq turns natural-language flight requests into structured
// queries using an OpenAI-compatible chat-completions endpoint (the base
// URL is configurable, so Groq-hosted models work unchanged).
package nlq

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/tripflow/flightfinder/pkg/logger"
)

// Parser extracts TripQuery fields from free-form text.
type Parser struct {
	client openai.Client
	model  string
	logger *logger.Logger
}

// NewParser creates a parser. baseURL may be empty to use the default
// OpenAI endpoint.
func NewParser(apiKey, baseURL, model string, log *logger.Logger) *Parser {
	if apiKey == "" {
		log.Warn("LLM API key is not set, query understanding will fail")
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &Parser{
		client: openai.NewClient(opts...),
		model:  model,
		logger: log.Named("nlq-parser"),
	}
}

const extractionPrompt = `Today's year is %d.

Extract structured flight info from the query below.
Return ONLY valid JSON in this format and nothing else (no markdown or extra explanation):

{
  "origin_city": "string",
  "destination_city": "string",
  "departure_date": "YYYY-MM-DD",
  "return_date": "YYYY-MM-DD or empty string if one-way",
  "passengers": number,
  "max_price": number or 0 if not specified,
  "trip_type": "roundtrip" or "one-way"
}

Query: %s`

// Parse extracts a TripQuery from userQuery. The result is normalized
// and validated; a reply the model could not ground in the query
// surfaces as ErrMissingFields.
func (p *Parser) Parse(ctx context.Context, userQuery string) (TripQuery, error) {
	prompt := fmt.Sprintf(extractionPrompt, time.Now().Year(), userQuery)

	completion, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: p.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(0.1),
		MaxTokens:   openai.Int(500),
	})
	if err != nil {
		return TripQuery{}, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return TripQuery{}, fmt.Errorf("chat completion returned no choices")
	}

	content := completion.Choices[0].Message.Content
	p.logger.Debug("Raw extraction output", logger.String("content", content))

	var query TripQuery
	if err := json.Unmarshal([]byte(extractJSON(content)), &query); err != nil {
		return TripQuery{}, fmt.Errorf("failed to parse extraction output as JSON: %w", err)
	}

	query.Normalize()
	if err := query.Validate(); err != nil {
		return TripQuery{}, err
	}

	p.logger.Info("Query understood",
		logger.String("origin", query.OriginCity),
		logger.String("destination", query.DestinationCity),
		logger.String("departure", query.DepartureDate),
		logger.Int("passengers", query.Passengers))

	return query, nil
}

// extractJSON strips markdown code fences and surrounding prose that
// models add despite instructions, keeping the outermost JSON object.
func extractJSON(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		if end := strings.LastIndex(content, "```"); end >= 0 {
			content = content[:end]
		}
		content = strings.TrimSpace(content)
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		return content[start : end+1]
	}
	return content
}
