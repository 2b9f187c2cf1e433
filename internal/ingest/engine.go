// Package ingest turns raw upstream events into stored transactions,
// exactly once per real-world event.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"fjacquet/txledger/internal/accounts"
	"fjacquet/txledger/internal/canonical"
	"fjacquet/txledger/internal/categorizer"
	"fjacquet/txledger/internal/config"
	"fjacquet/txledger/internal/dedup"
	"fjacquet/txledger/internal/ingesterror"
	"fjacquet/txledger/internal/ledger"
	"fjacquet/txledger/internal/lexicon"
	"fjacquet/txledger/internal/logging"
	"fjacquet/txledger/internal/metrics"
	"fjacquet/txledger/internal/models"
)

// Store is the ledger surface the engine reads and writes.
type Store interface {
	accounts.Directory
	dedup.Lookup
	categorizer.HistoryLookup
	categorizer.RuleSource
	InsertTransaction(ctx context.Context, tx *models.Transaction) error
}

// Engine runs the ingestion pipeline: canonicalize, resolve the account,
// check for duplicates, infer the type, classify inline, persist.
//
// It holds no locks. Concurrent callers delivering the same event race on
// the ledger's uniqueness constraints and exactly one insert wins.
type Engine struct {
	store    Store
	canon    *canonical.Canonicalizer
	resolver *accounts.Resolver
	gate     *dedup.Gate
	types    *categorizer.TypeClassifier
	inline   *categorizer.Categorizer
	metrics  *metrics.Metrics
	logger   logging.Logger
	newID    func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithMetrics records ingest outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine wires an Engine over the ledger with the given data tables and
// classification constants.
func NewEngine(store Store, lex *lexicon.Lexicon, params config.Classification, logger logging.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	canon := canonical.New(lex.Stopwords)

	e := &Engine{
		store:    store,
		canon:    canon,
		resolver: accounts.NewResolver(store, logger),
		gate:     dedup.NewGate(store, logger),
		types:    categorizer.NewTypeClassifier(lex.InvoicePhrases),
		inline: categorizer.NewCategorizer(logger,
			categorizer.NewHistoryStrategy(store, logger),
			categorizer.NewRuleStrategy(store, canon, params, logger),
		),
		logger: logger.WithField(logging.FieldComponent, "ingest"),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Canonicalizer returns the canonicalizer used for descriptions and hashes.
func (e *Engine) Canonicalizer() *canonical.Canonicalizer {
	return e.canon
}

// Ingest processes one event. Duplicates and events without a bookable
// account are reported as skipped with a nil error. Malformed events and
// infrastructure failures are reported with status error and returned as
// *ingesterror.MalformedInputError or *ingesterror.PersistenceError.
func (e *Engine) Ingest(ctx context.Context, ev models.IngestEvent) (models.IngestResult, error) {
	start := time.Now()
	log := e.logger.WithFields(
		logging.Field{Key: logging.FieldOrganizationID, Value: ev.OrganizationID},
		logging.Field{Key: logging.FieldExternalID, Value: ev.ExternalID},
	)

	result, err := e.ingest(ctx, ev, log)

	e.metrics.ObserveIngest(string(result.Status), metricReason(result, err))
	log = log.WithFields(
		logging.Field{Key: logging.FieldStatus, Value: string(result.Status)},
		logging.Field{Key: logging.FieldTransactionID, Value: result.TransactionID},
		logging.Field{Key: logging.FieldDuration, Value: time.Since(start).Milliseconds()},
	)
	switch result.Status {
	case models.StatusSuccess:
		log.Info("Transaction ingested")
	case models.StatusSkipped:
		log.Info("Event skipped", logging.Field{Key: logging.FieldReason, Value: result.Reason})
	default:
		log.WithError(err).Warn("Event rejected")
	}
	return result, err
}

func (e *Engine) ingest(ctx context.Context, ev models.IngestEvent, log logging.Logger) (models.IngestResult, error) {
	orgID := strings.TrimSpace(ev.OrganizationID)
	if orgID == "" {
		return failed(&ingesterror.MalformedInputError{Field: "organizationId", Reason: "is required"})
	}
	description := strings.TrimSpace(ev.Description)
	if description == "" {
		return failed(&ingesterror.MalformedInputError{Field: "description", Reason: "is required"})
	}
	if n := utf8.RuneCountInString(description); n > ledger.MaxDescriptionLength {
		return failed(&ingesterror.MalformedInputError{Field: "description",
			Reason: fmt.Sprintf("is %d characters long, limit is %d", n, ledger.MaxDescriptionLength)})
	}
	externalID := strings.TrimSpace(ev.ExternalID)
	if n := utf8.RuneCountInString(externalID); n > ledger.MaxExternalIDLength {
		return failed(&ingesterror.MalformedInputError{Field: "externalId",
			Reason: fmt.Sprintf("is %d characters long, limit is %d", n, ledger.MaxExternalIDLength)})
	}
	if !ev.HasAmount() {
		return failed(&ingesterror.MalformedInputError{Field: "amount", Reason: "is required"})
	}
	day, err := canonical.Day(ev.Date)
	if err != nil {
		return failed(&ingesterror.MalformedInputError{Field: "date", Value: ev.Date, Reason: "unrecognized date"})
	}

	normalized := e.canon.Description(description)

	accountID, err := e.resolver.Resolve(ctx, orgID, ev.AccountRef)
	if err != nil {
		if ingesterror.IsAccountResolution(err) {
			return models.IngestResult{Status: models.StatusSkipped, Reason: models.ReasonNoAccountFound}, nil
		}
		return failed(err)
	}

	magnitude := canonical.Magnitude(ev.Amount)
	hash := canonical.Hash(day, magnitude, normalized, accountID)

	outcome, err := e.gate.Check(ctx, orgID, externalID, hash)
	if err != nil {
		return failed(err)
	}
	if outcome.IsDuplicate() {
		log.WithError(outcome.Err()).Debug("Duplicate event")
		return models.IngestResult{
			Status:        models.StatusSkipped,
			TransactionID: outcome.ExistingID,
			Reason:        string(outcome.Kind),
		}, nil
	}

	txType := e.types.Classify(ev.NormalizedIndicator(), ev.Amount, description)

	tx := &models.Transaction{
		ID:                    e.newID(),
		OrganizationID:        orgID,
		AccountID:             accountID,
		Date:                  day,
		Description:           description,
		NormalizedDescription: normalized,
		Amount:                magnitude,
		Type:                  txType,
		ExternalID:            externalID,
		CanonicalHash:         hash,
		ClassificationSource:  models.SourceNone,
		ValidationStatus:      models.StatusPendingValidation,
	}

	if res, ok := e.inline.Categorize(ctx, categorizer.Input{
		OrganizationID: orgID,
		Description:    description,
		Type:           txType,
	}); ok {
		tx.CategoryID = res.CategoryID
		tx.CostCenterID = res.CostCenterID
		tx.ClassificationSource = res.Source
		log.Debug("Classified inline",
			logging.Field{Key: logging.FieldCategory, Value: res.CategoryID},
			logging.Field{Key: logging.FieldConfidence, Value: res.Confidence})
	}

	if err := e.store.InsertTransaction(ctx, tx); err != nil {
		if dup, ok := ingesterror.AsDuplicate(err); ok {
			return models.IngestResult{
				Status:        models.StatusSkipped,
				TransactionID: e.existingID(ctx, dup.Key, orgID, externalID, hash, log),
				Reason:        dup.Reason(),
			}, nil
		}
		return failed(err)
	}
	return models.IngestResult{Status: models.StatusSuccess, TransactionID: tx.ID}, nil
}

// existingID finds the row that won an insert race, so a duplicate caught by
// the constraints reports the same transaction id as one caught by the gate.
// It returns "" when the lookup fails.
func (e *Engine) existingID(ctx context.Context, key ingesterror.DuplicateKey, orgID, externalID, hash string, log logging.Logger) string {
	var (
		id  string
		err error
	)
	if key == ingesterror.KeyExternalID {
		id, err = e.store.TransactionIDByExternalID(ctx, orgID, externalID)
	} else {
		id, err = e.store.TransactionIDByHash(ctx, orgID, hash)
	}
	if err != nil {
		log.WithError(err).Warn("Failed to look up the existing transaction of a duplicate")
		return ""
	}
	return id
}

// IngestBatch processes events one by one. A failing event never stops the
// batch; every event gets its own result.
func (e *Engine) IngestBatch(ctx context.Context, events []models.IngestEvent) ([]models.IngestResult, *models.IngestStats) {
	stats := models.NewIngestStats()
	results := make([]models.IngestResult, 0, len(events))
	for _, ev := range events {
		res, _ := e.Ingest(ctx, ev)
		results = append(results, res)
		stats.Record(res)
	}
	return results, stats
}

func failed(err error) (models.IngestResult, error) {
	var persistence *ingesterror.PersistenceError
	if !ingesterror.IsMalformed(err) && !errors.As(err, &persistence) {
		err = &ingesterror.PersistenceError{Op: "ingest", Err: err}
	}
	return models.IngestResult{Status: models.StatusError, Reason: err.Error()}, err
}

func metricReason(r models.IngestResult, err error) string {
	switch {
	case r.Status == models.StatusSkipped:
		return r.Reason
	case ingesterror.IsMalformed(err):
		return "malformed"
	case err != nil:
		return "persistence"
	}
	return ""
}
