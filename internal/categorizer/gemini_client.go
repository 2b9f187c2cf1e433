package categorizer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"fjacquet/txledger/internal/logging"
)

// GeminiClient implements AIClient with Google's Gemini models.
type GeminiClient struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	name    string
	timeout time.Duration
	logger  logging.Logger
}

// NewGeminiClient connects to the Gemini API.
func NewGeminiClient(ctx context.Context, apiKey, model string, timeout time.Duration, logger logging.Logger) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: API key not set")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{client: client, model: client.GenerativeModel(model), name: model, timeout: timeout, logger: logger}, nil
}

// ModelVersion returns the provenance tag of the configured model.
func (c *GeminiClient) ModelVersion() string {
	return "gemini-" + strings.TrimPrefix(c.name, "gemini-")
}

// Close releases the underlying client.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// Suggest asks the model to pick one of the offered categories.
func (c *GeminiClient) Suggest(ctx context.Context, req AIRequest) (AIAnswer, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.model.GenerateContent(ctx, genai.Text(buildPrompt(req)))
	if err != nil {
		return AIAnswer{}, fmt.Errorf("gemini API error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return AIAnswer{}, fmt.Errorf("no response from Gemini API")
	}

	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return AIAnswer{}, fmt.Errorf("unexpected Gemini response part %T", resp.Candidates[0].Content.Parts[0])
	}
	c.logger.Debug("Gemini answered", logging.Field{Key: "response", Value: string(text)})
	return parseAnswer(string(text))
}

func buildPrompt(req AIRequest) string {
	var cats strings.Builder
	for _, cat := range req.Categories {
		fmt.Fprintf(&cats, "- %s: %s\n", cat.ID, cat.Name)
	}
	return fmt.Sprintf(`Categorize the following financial transaction:
Description: %s
Type: %s

Choose exactly one of these categories (id: name):
%s
Respond with JSON only: {"category_id": "<id>", "confidence": <0..1>, "reasoning": "<one sentence>"}`,
		req.Description, req.Type, cats.String())
}

func parseAnswer(text string) (AIAnswer, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var answer AIAnswer
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &answer); err != nil {
		return AIAnswer{}, fmt.Errorf("parse Gemini answer: %w", err)
	}
	if answer.CategoryID == "" {
		return AIAnswer{}, fmt.Errorf("gemini answer without category_id")
	}
	return answer, nil
}
