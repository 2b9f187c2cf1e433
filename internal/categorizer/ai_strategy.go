package categorizer

import (
	"context"
	"fmt"
	"math"

	"fjacquet/txledger/internal/logging"
	"fjacquet/txledger/internal/models"
)

// CategoryLister lists the categories an organization may use.
type CategoryLister interface {
	ListCategories(ctx context.Context, orgID string) ([]models.Category, error)
}

// AIStrategy asks an AIClient to choose among the organization's categories.
type AIStrategy struct {
	client        AIClient
	categories    CategoryLister
	maxConfidence float64
	logger        logging.Logger
}

// NewAIStrategy creates a new AIStrategy. Returned confidences are clamped
// to [0, maxConfidence].
func NewAIStrategy(client AIClient, categories CategoryLister, maxConfidence float64, logger logging.Logger) *AIStrategy {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &AIStrategy{client: client, categories: categories, maxConfidence: maxConfidence, logger: logger}
}

// Name returns the name of this strategy.
func (s *AIStrategy) Name() string {
	return "AI"
}

// Categorize asks the model. Answers naming an unknown category are misses.
func (s *AIStrategy) Categorize(ctx context.Context, in Input) (Result, bool, error) {
	if in.Description == "" {
		return Result{}, false, nil
	}

	cats, err := s.categories.ListCategories(ctx, in.OrganizationID)
	if err != nil {
		return Result{}, false, err
	}
	if len(cats) == 0 {
		return Result{}, false, nil
	}

	answer, err := s.client.Suggest(ctx, AIRequest{Description: in.Description, Type: in.Type, Categories: cats})
	if err != nil {
		return Result{}, false, fmt.Errorf("AI suggestion: %w", err)
	}

	var chosen *models.Category
	for i := range cats {
		if cats[i].ID == answer.CategoryID {
			chosen = &cats[i]
			break
		}
	}
	if chosen == nil {
		s.logger.WithFields(
			logging.Field{Key: logging.FieldStrategy, Value: s.Name()},
			logging.Field{Key: logging.FieldCategory, Value: answer.CategoryID},
		).Warn("AI answered with an unknown category")
		return Result{}, false, nil
	}

	return Result{
		CategoryID:   chosen.ID,
		CategoryName: chosen.Name,
		Confidence:   math.Max(0, math.Min(s.maxConfidence, answer.Confidence)),
		Reasoning:    answer.Reasoning,
		Source:       models.SourceAI,
		ModelVersion: s.client.ModelVersion(),
	}, true, nil
}
