package categorizer

import (
	"context"
	"fmt"

	"fjacquet/txledger/internal/canonical"
	"fjacquet/txledger/internal/config"
	"fjacquet/txledger/internal/logging"
	"fjacquet/txledger/internal/models"
)

// RuleSource lists the rules that apply to a transaction type.
type RuleSource interface {
	RulesForType(ctx context.Context, orgID string, txType models.TransactionType, minConfidence float64, limit int) ([]models.Rule, error)
}

// RuleStrategy matches a description against the organization's pattern
// rules by token-set similarity.
type RuleStrategy struct {
	rules  RuleSource
	canon  *canonical.Canonicalizer
	params config.Classification
	logger logging.Logger
}

// NewRuleStrategy creates a new RuleStrategy.
func NewRuleStrategy(rules RuleSource, canon *canonical.Canonicalizer, params config.Classification, logger logging.Logger) *RuleStrategy {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &RuleStrategy{rules: rules, canon: canon, params: params, logger: logger}
}

// Name returns the name of this strategy.
func (s *RuleStrategy) Name() string {
	return "Rule"
}

// Categorize returns the first candidate rule, in descending confidence
// order, whose pattern is similar enough to the description.
func (s *RuleStrategy) Categorize(ctx context.Context, in Input) (Result, bool, error) {
	target := s.canon.Tokens(in.Description)
	if len(target) == 0 {
		return Result{}, false, nil
	}

	candidates, err := s.rules.RulesForType(ctx, in.OrganizationID, in.Type, s.params.RuleConfidenceFloor, s.params.RuleCandidateLimit)
	if err != nil {
		return Result{}, false, err
	}

	for _, rule := range candidates {
		sim := canonical.Similarity(target, s.canon.Tokens(rule.Pattern))
		if sim < s.params.SimilarityThreshold {
			continue
		}

		s.logger.WithFields(
			logging.Field{Key: logging.FieldStrategy, Value: s.Name()},
			logging.Field{Key: "rule_id", Value: rule.ID},
			logging.Field{Key: "similarity", Value: sim},
		).Debug("Rule matched")

		return Result{
			CategoryID:   rule.CategoryID,
			CostCenterID: rule.CostCenterID,
			Confidence:   rule.Confidence,
			Reasoning:    fmt.Sprintf("Matched rule %q (similarity %.2f)", rule.Pattern, sim),
			Source:       models.SourcePattern,
		}, true, nil
	}
	return Result{}, false, nil
}
