// Package suggest runs retrospective classification: it learns keyword
// frequencies from the organization's validated history and stores one
// advisory suggestion per requested transaction.
package suggest

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"fjacquet/txledger/internal/categorizer"
	"fjacquet/txledger/internal/config"
	"fjacquet/txledger/internal/ingesterror"
	"fjacquet/txledger/internal/logging"
	"fjacquet/txledger/internal/metrics"
	"fjacquet/txledger/internal/models"
)

// Store is the part of the ledger the generator needs.
type Store interface {
	ValidatedHistory(ctx context.Context, orgID string, limit int) ([]models.HistoryEntry, error)
	GetTransaction(ctx context.Context, orgID, id string) (*models.Transaction, error)
	InsertSuggestion(ctx context.Context, sg *models.Suggestion) error
}

// Generator produces suggestions. It keeps no state between calls: the
// frequency model is rebuilt from history on every Generate.
type Generator struct {
	store   Store
	params  config.Classification
	extra   []categorizer.Strategy
	metrics *metrics.Metrics
	logger  logging.Logger
	newID   func() string
}

// Option configures a Generator.
type Option func(*Generator)

// WithStrategy appends a provider consulted when the frequency model has no
// match, such as categorizer.AIStrategy.
func WithStrategy(s categorizer.Strategy) Option {
	return func(g *Generator) { g.extra = append(g.extra, s) }
}

// WithMetrics records suggestion outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Generator) { g.metrics = m }
}

// NewGenerator creates a Generator.
func NewGenerator(store Store, params config.Classification, logger logging.Logger, opts ...Option) *Generator {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	g := &Generator{
		store:  store,
		params: params,
		logger: logger.WithField(logging.FieldComponent, "suggest"),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate stores one suggestion per requested transaction id, including
// "no match" suggestions. Transactions are never modified. A failing row is
// logged and counted in Failed; only a failure to build the model aborts
// the run.
func (g *Generator) Generate(ctx context.Context, req models.BatchRequest) (models.BatchResult, error) {
	result := models.BatchResult{Suggestions: []models.Suggestion{}}
	if req.OrganizationID == "" {
		return result, &ingesterror.MalformedInputError{Field: "organizationId", Reason: "is required"}
	}

	log := g.logger.WithFields(
		logging.Field{Key: logging.FieldOrganizationID, Value: req.OrganizationID},
		logging.Field{Key: logging.FieldCount, Value: len(req.TransactionIDs)},
	)

	history, err := g.store.ValidatedHistory(ctx, req.OrganizationID, g.params.HistoryWindow)
	if err != nil {
		return result, fmt.Errorf("loading validated history: %w", err)
	}
	model := categorizer.BuildFrequencyModel(history, g.params)
	log.Debug("Frequency model built",
		logging.Field{Key: "history", Value: len(history)},
		logging.Field{Key: "keywords", Value: model.Size()})

	strategies := append([]categorizer.Strategy{categorizer.NewFrequencyStrategy(model, g.logger)}, g.extra...)
	chain := categorizer.NewCategorizer(g.logger, strategies...)

	result.Success = true
	for _, id := range req.TransactionIDs {
		if err := ctx.Err(); err != nil {
			result.Success = false
			log.WithError(err).Warn("Suggestion run interrupted",
				logging.Field{Key: "created", Value: result.SuggestionsCreated})
			return result, err
		}

		sg, err := g.suggest(ctx, chain, req.OrganizationID, id)
		if err != nil {
			result.Failed++
			g.metrics.ObserveSuggestion(metrics.OutcomeFailed, 0)
			log.WithError(err).Warn("Failed to create suggestion",
				logging.Field{Key: logging.FieldTransactionID, Value: id})
			continue
		}
		result.SuggestionsCreated++
		result.Suggestions = append(result.Suggestions, *sg)
		g.metrics.ObserveSuggestion(metrics.OutcomeCreated, sg.Confidence)
	}

	log.Info("Suggestions generated",
		logging.Field{Key: "created", Value: result.SuggestionsCreated},
		logging.Field{Key: "failed", Value: result.Failed})
	return result, nil
}

func (g *Generator) suggest(ctx context.Context, chain *categorizer.Categorizer, orgID, id string) (*models.Suggestion, error) {
	tx, err := g.store.GetTransaction(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	res, ok := chain.Categorize(ctx, categorizer.Input{
		OrganizationID: orgID,
		TransactionID:  tx.ID,
		Description:    tx.Description,
		Type:           tx.Type,
	})
	if !ok {
		res = categorizer.NoMatchResult(g.params)
	}

	sg := &models.Suggestion{
		ID:             g.newID(),
		TransactionID:  tx.ID,
		OrganizationID: orgID,
		CategoryID:     res.CategoryID,
		CostCenterID:   res.CostCenterID,
		Type:           tx.Type,
		Confidence:     res.Confidence,
		Reasoning:      res.Reasoning,
		ModelVersion:   res.ModelVersion,
		Source:         res.Source,
	}
	if err := g.store.InsertSuggestion(ctx, sg); err != nil {
		return nil, err
	}
	return sg, nil
}
