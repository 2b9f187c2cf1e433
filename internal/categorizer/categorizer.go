// Package categorizer classifies transactions: direction through the
// TypeClassifier, and category through chained strategies (exact history,
// rule similarity, learned keyword frequency, AI).
package categorizer

import (
	"context"

	"fjacquet/txledger/internal/logging"
)

// Categorizer runs strategies in order and stops at the first one that
// finds a classification. A failing strategy is logged and skipped.
type Categorizer struct {
	strategies []Strategy
	logger     logging.Logger
}

// NewCategorizer creates a Categorizer over the given strategies.
func NewCategorizer(logger logging.Logger, strategies ...Strategy) *Categorizer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Categorizer{strategies: strategies, logger: logger}
}

// Strategies returns the configured strategy names in order.
func (c *Categorizer) Strategies() []string {
	names := make([]string, len(c.strategies))
	for i, s := range c.strategies {
		names[i] = s.Name()
	}
	return names
}

// Categorize returns the first classification found.
func (c *Categorizer) Categorize(ctx context.Context, in Input) (Result, bool) {
	return c.CategorizeWithResults(ctx, in).GetBestResult()
}

// CategorizeWithResults runs the chain and returns every attempt made.
func (c *Categorizer) CategorizeWithResults(ctx context.Context, in Input) StrategyResults {
	var results StrategyResults
	for _, strategy := range c.strategies {
		if ctx.Err() != nil {
			results.Results = append(results.Results, StrategyResult{Strategy: strategy.Name(), Error: ctx.Err()})
			break
		}

		res, found, err := strategy.Categorize(ctx, in)
		results.Results = append(results.Results, StrategyResult{
			Strategy: strategy.Name(),
			Result:   res,
			Found:    found,
			Error:    err,
		})
		if err != nil {
			c.logger.WithError(err).WithFields(
				logging.Field{Key: logging.FieldStrategy, Value: strategy.Name()},
				logging.Field{Key: logging.FieldOrganizationID, Value: in.OrganizationID},
			).Warn("Strategy failed, trying next")
			continue
		}
		if found {
			break
		}
	}

	c.logger.Debug("Categorization attempts",
		logging.Field{Key: logging.FieldOrganizationID, Value: in.OrganizationID},
		logging.Field{Key: logging.FieldTransactionID, Value: in.TransactionID},
		logging.Field{Key: logging.FieldOutcome, Value: results.Summary()})
	return results
}
