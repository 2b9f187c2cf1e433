package categorizer

import (
	"context"
	"errors"
	"fmt"

	"fjacquet/txledger/internal/ingesterror"
	"fjacquet/txledger/internal/logging"
	"fjacquet/txledger/internal/models"
)

// HistoryLookup finds the latest categorized transaction with an identical
// raw description.
type HistoryLookup interface {
	LatestCategorizedByDescription(ctx context.Context, orgID, description string) (*models.Transaction, error)
}

// HistoryStrategy adopts the category of the most recent transaction of the
// organization carrying exactly the same description.
type HistoryStrategy struct {
	lookup HistoryLookup
	logger logging.Logger
}

// NewHistoryStrategy creates a new HistoryStrategy.
func NewHistoryStrategy(lookup HistoryLookup, logger logging.Logger) *HistoryStrategy {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &HistoryStrategy{lookup: lookup, logger: logger}
}

// Name returns the name of this strategy.
func (s *HistoryStrategy) Name() string {
	return "History"
}

// Categorize looks up the previous transaction with the same description.
func (s *HistoryStrategy) Categorize(ctx context.Context, in Input) (Result, bool, error) {
	if in.Description == "" {
		return Result{}, false, nil
	}

	prev, err := s.lookup.LatestCategorizedByDescription(ctx, in.OrganizationID, in.Description)
	if errors.Is(err, ingesterror.ErrNotFound) {
		return Result{}, false, nil
	}
	if err != nil {
		return Result{}, false, err
	}

	s.logger.WithFields(
		logging.Field{Key: logging.FieldStrategy, Value: s.Name()},
		logging.Field{Key: logging.FieldCategory, Value: prev.CategoryID},
	).Debug("Reusing category of identical description")

	return Result{
		CategoryID:   prev.CategoryID,
		CostCenterID: prev.CostCenterID,
		Confidence:   1,
		Reasoning:    fmt.Sprintf("Same description as transaction %s", prev.ID),
		Source:       models.SourcePattern,
	}, true, nil
}
