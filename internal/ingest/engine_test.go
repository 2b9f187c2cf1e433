package ingest

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/txledger/internal/config"
	"fjacquet/txledger/internal/ingesterror"
	"fjacquet/txledger/internal/ledger"
	"fjacquet/txledger/internal/lexicon"
	"fjacquet/txledger/internal/logging"
	"fjacquet/txledger/internal/metrics"
	"fjacquet/txledger/internal/models"
)

const testOrg = "org-1"

func newTestStore(t *testing.T) *ledger.Store {
	t.Helper()
	ctx := context.Background()
	store, err := ledger.OpenMemory(ctx, logging.NewMockLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.UpsertAccount(ctx, &models.Account{ID: "acc-main", OrganizationID: testOrg, Name: "Main", Active: true, Default: true}))
	require.NoError(t, store.UpsertAccount(ctx, &models.Account{ID: "acc-card", OrganizationID: testOrg, Name: "Card", Active: true}))
	require.NoError(t, store.UpsertAccountMapping(ctx, &models.AccountMapping{OrganizationID: testOrg, ExternalRef: "bank-card-77", AccountID: "acc-card"}))
	return store
}

func newTestEngine(t *testing.T, store Store, opts ...Option) *Engine {
	t.Helper()
	lex, err := lexicon.Default()
	require.NoError(t, err)
	return NewEngine(store, lex, config.DefaultClassification(), logging.NewMockLogger(), opts...)
}

func event(externalID, amount, description string) models.IngestEvent {
	return models.IngestEvent{
		ExternalID:     externalID,
		Amount:         decimal.RequireFromString(amount),
		Description:    description,
		Date:           "2024-03-15T10:22:00-03:00",
		AccountRef:     "bank-main-01",
		OrganizationID: testOrg,
	}
}

func TestEngine_IngestNewTransaction(t *testing.T) {
	store := newTestStore(t)
	e := newTestEngine(t, store)
	ctx := context.Background()

	res, err := e.Ingest(ctx, event("ext-1", "-45.90", "PIX POSTO IPIRANGA 0423"))
	require.NoError(t, err)
	require.Equal(t, models.StatusSuccess, res.Status)
	require.NotEmpty(t, res.TransactionID)

	tx, err := store.GetTransaction(ctx, testOrg, res.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, "acc-main", tx.AccountID, "unmapped reference falls back to the default account")
	assert.Equal(t, "2024-03-15", tx.Date)
	assert.Equal(t, "posto ipiranga", tx.NormalizedDescription)
	assert.True(t, tx.Amount.Equal(decimal.RequireFromString("45.90")), "stored amount is a magnitude")
	assert.Equal(t, models.TypeExpense, tx.Type)
	assert.Equal(t, "ext-1", tx.ExternalID)
	assert.Len(t, tx.CanonicalHash, 64)
	assert.Equal(t, models.SourceNone, tx.ClassificationSource)
	assert.Empty(t, tx.CategoryID)
	assert.Equal(t, models.StatusPendingValidation, tx.ValidationStatus)
}

func TestEngine_Idempotent(t *testing.T) {
	store := newTestStore(t)
	e := newTestEngine(t, store)
	ctx := context.Background()

	first, err := e.Ingest(ctx, event("ext-1", "-45.90", "POSTO IPIRANGA"))
	require.NoError(t, err)
	require.Equal(t, models.StatusSuccess, first.Status)

	second, err := e.Ingest(ctx, event("ext-1", "-45.90", "POSTO IPIRANGA"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusSkipped, second.Status)
	assert.Equal(t, models.ReasonDuplicateID, second.Reason)
	assert.Equal(t, first.TransactionID, second.TransactionID)

	count, err := store.CountTransactions(ctx, testOrg)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestEngine_DuplicateHashUnderIDChurn(t *testing.T) {
	store := newTestStore(t)
	e := newTestEngine(t, store)
	ctx := context.Background()

	first, err := e.Ingest(ctx, event("sync-a-991", "-120.00", "POSTO IPIRANGA"))
	require.NoError(t, err)
	require.Equal(t, models.StatusSuccess, first.Status)

	// Same event re-delivered by another sync with a new id and noisier text.
	second, err := e.Ingest(ctx, event("webhook-b-17", "120", "PIX  Posto Ipiranga 0423"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusSkipped, second.Status)
	assert.Equal(t, models.ReasonDuplicateHash, second.Reason)

	third, err := e.Ingest(ctx, event("", "-120.00", "POSTO IPIRANGA"))
	require.NoError(t, err)
	assert.Equal(t, models.ReasonDuplicateHash, third.Reason)

	count, err := store.CountTransactions(ctx, testOrg)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestEngine_DifferentAccountIsNotDuplicate(t *testing.T) {
	store := newTestStore(t)
	e := newTestEngine(t, store)
	ctx := context.Background()

	_, err := e.Ingest(ctx, event("", "-10.00", "COFFEE"))
	require.NoError(t, err)

	ev := event("", "-10.00", "COFFEE")
	ev.AccountRef = "bank-card-77"
	res, err := e.Ingest(ctx, ev)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, res.Status)

	tx, err := store.GetTransaction(ctx, testOrg, res.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, "acc-card", tx.AccountID)
}

func TestEngine_TypeInference(t *testing.T) {
	store := newTestStore(t)
	e := newTestEngine(t, store)
	ctx := context.Background()

	tests := []struct {
		name      string
		ev        models.IngestEvent
		indicator string
		expected  models.TransactionType
	}{
		{"invoice payment is a transfer", event("t1", "-1500.00", "pagamento fatura cartao"), "", models.TypeTransfer},
		{"credit indicator", event("t2", "-5.00", "ESTORNO"), "CRDT", models.TypeIncome},
		{"positive amount", event("t3", "3000.00", "SALARIO"), "", models.TypeIncome},
		{"negative amount", event("t4", "-18.00", "PADARIA"), "", models.TypeExpense},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.ev.CreditDebitIndicator = tt.indicator
			res, err := e.Ingest(ctx, tt.ev)
			require.NoError(t, err)
			require.Equal(t, models.StatusSuccess, res.Status)

			tx, err := store.GetTransaction(ctx, testOrg, res.TransactionID)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, tx.Type)
		})
	}
}

func TestEngine_InlineClassification(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.UpsertRule(ctx, &models.Rule{
		ID: "rule-fuel", OrganizationID: testOrg, Pattern: "posto ipiranga",
		Type: models.TypeExpense, CategoryID: "cat-fuel", CostCenterID: "cc-car", Confidence: 0.9,
	}))
	require.NoError(t, store.UpsertRule(ctx, &models.Rule{
		ID: "rule-low", OrganizationID: testOrg, Pattern: "padaria",
		Type: models.TypeExpense, CategoryID: "cat-food", Confidence: 0.5,
	}))
	e := newTestEngine(t, store)

	res, err := e.Ingest(ctx, event("e1", "-45.90", "POSTO IPIRANGA"))
	require.NoError(t, err)
	tx, err := store.GetTransaction(ctx, testOrg, res.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, "cat-fuel", tx.CategoryID)
	assert.Equal(t, "cc-car", tx.CostCenterID)
	assert.Equal(t, models.SourcePattern, tx.ClassificationSource)
	assert.Equal(t, models.StatusPendingValidation, tx.ValidationStatus)

	res, err = e.Ingest(ctx, event("e2", "-8.00", "PADARIA"))
	require.NoError(t, err)
	tx, err = store.GetTransaction(ctx, testOrg, res.TransactionID)
	require.NoError(t, err)
	assert.Empty(t, tx.CategoryID, "rules below the confidence floor are ignored")
	assert.Equal(t, models.SourceNone, tx.ClassificationSource)

	// Exact description history wins over rules on the next delivery.
	require.NoError(t, store.UpsertRule(ctx, &models.Rule{
		ID: "rule-fuel", OrganizationID: testOrg, Pattern: "posto ipiranga",
		Type: models.TypeExpense, CategoryID: "cat-other", Confidence: 0.9,
	}))
	res, err = e.Ingest(ctx, event("e3", "-60.00", "POSTO IPIRANGA"))
	require.NoError(t, err)
	tx, err = store.GetTransaction(ctx, testOrg, res.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, "cat-fuel", tx.CategoryID)
}

func TestEngine_NoAccount(t *testing.T) {
	store, err := ledger.OpenMemory(context.Background(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	e := newTestEngine(t, store)

	res, err := e.Ingest(context.Background(), event("e1", "-1.00", "ANYTHING"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusSkipped, res.Status)
	assert.Equal(t, models.ReasonNoAccountFound, res.Reason)
}

func TestEngine_MalformedInput(t *testing.T) {
	store := newTestStore(t)
	e := newTestEngine(t, store)

	tests := []struct {
		name   string
		mutate func(*models.IngestEvent)
	}{
		{"missing organization", func(ev *models.IngestEvent) { ev.OrganizationID = " " }},
		{"missing description", func(ev *models.IngestEvent) { ev.Description = "" }},
		{"bad date", func(ev *models.IngestEvent) { ev.Date = "yesterday" }},
		{"missing amount", func(ev *models.IngestEvent) {
			*ev = decodeEvent(`{"description":"POSTO IPIRANGA","date":"2024-03-01","accountRef":"A","organizationId":"org-1"}`)
		}},
		{"null amount", func(ev *models.IngestEvent) {
			*ev = decodeEvent(`{"amount":null,"description":"POSTO IPIRANGA","date":"2024-03-01","organizationId":"org-1"}`)
		}},
		{"description too long", func(ev *models.IngestEvent) {
			ev.Description = strings.Repeat("é", ledger.MaxDescriptionLength+1)
		}},
		{"external id too long", func(ev *models.IngestEvent) {
			ev.ExternalID = strings.Repeat("x", ledger.MaxExternalIDLength+1)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := event("e1", "-1.00", "ANYTHING")
			tt.mutate(&ev)

			res, err := e.Ingest(context.Background(), ev)
			assert.True(t, ingesterror.IsMalformed(err))
			assert.Equal(t, models.StatusError, res.Status)
			assert.NotEmpty(t, res.Reason)
		})
	}

	count, err := store.CountTransactions(context.Background(), testOrg)
	require.NoError(t, err)
	assert.Zero(t, count, "rejected before any write")
}

func TestEngine_LimitsAreInclusive(t *testing.T) {
	e := newTestEngine(t, newTestStore(t))

	ev := event(strings.Repeat("x", ledger.MaxExternalIDLength), "-1.00", strings.Repeat("é", ledger.MaxDescriptionLength))
	res, err := e.Ingest(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, res.Status)
}

func TestEngine_ExplicitZeroAmountIsAccepted(t *testing.T) {
	e := newTestEngine(t, newTestStore(t))

	res, err := e.Ingest(context.Background(),
		decodeEvent(`{"amount":"0","description":"CARD CHECK","date":"2024-03-01","organizationId":"org-1"}`))
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, res.Status)
}

func decodeEvent(doc string) models.IngestEvent {
	var ev models.IngestEvent
	if err := json.Unmarshal([]byte(doc), &ev); err != nil {
		panic(err)
	}
	return ev
}

// blindStore hides existing rows from the dedup gate, so duplicates are
// only caught by the insert-time constraints.
type blindStore struct {
	*ledger.Store
}

func (blindStore) TransactionIDByExternalID(context.Context, string, string) (string, error) {
	return "", ingesterror.ErrNotFound
}

func (blindStore) TransactionIDByHash(context.Context, string, string) (string, error) {
	return "", ingesterror.ErrNotFound
}

func TestEngine_InsertTimeDuplicates(t *testing.T) {
	store := newTestStore(t)
	e := newTestEngine(t, blindStore{store})
	ctx := context.Background()

	_, err := e.Ingest(ctx, event("ext-1", "-45.90", "POSTO IPIRANGA"))
	require.NoError(t, err)

	res, err := e.Ingest(ctx, event("ext-1", "-99.00", "SOMETHING ELSE"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusSkipped, res.Status)
	assert.Equal(t, models.ReasonDuplicateID, res.Reason)

	res, err = e.Ingest(ctx, event("ext-2", "-45.90", "POSTO IPIRANGA"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusSkipped, res.Status)
	assert.Equal(t, models.ReasonDuplicateHash, res.Reason)
}

// lateStore hides existing rows until an insert has collided, as when a
// concurrent delivery commits between the gate check and the insert.
type lateStore struct {
	*ledger.Store
	collided bool
}

func (s *lateStore) TransactionIDByExternalID(ctx context.Context, orgID, externalID string) (string, error) {
	if !s.collided {
		return "", ingesterror.ErrNotFound
	}
	return s.Store.TransactionIDByExternalID(ctx, orgID, externalID)
}

func (s *lateStore) TransactionIDByHash(ctx context.Context, orgID, hash string) (string, error) {
	if !s.collided {
		return "", ingesterror.ErrNotFound
	}
	return s.Store.TransactionIDByHash(ctx, orgID, hash)
}

func (s *lateStore) InsertTransaction(ctx context.Context, tx *models.Transaction) error {
	err := s.Store.InsertTransaction(ctx, tx)
	if err != nil {
		s.collided = true
	}
	return err
}

func TestEngine_InsertTimeDuplicatesReportExistingID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := newTestEngine(t, store).Ingest(ctx, event("ext-1", "-45.90", "POSTO IPIRANGA"))
	require.NoError(t, err)

	tests := []struct {
		name       string
		ev         models.IngestEvent
		wantReason string
	}{
		{"same external id", event("ext-1", "-99.00", "SOMETHING ELSE"), models.ReasonDuplicateID},
		{"same content", event("ext-2", "-45.90", "POSTO IPIRANGA"), models.ReasonDuplicateHash},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, &lateStore{Store: store})

			res, err := e.Ingest(ctx, tt.ev)
			require.NoError(t, err)
			assert.Equal(t, models.StatusSkipped, res.Status)
			assert.Equal(t, tt.wantReason, res.Reason)
			assert.Equal(t, first.TransactionID, res.TransactionID)
		})
	}
}

func TestEngine_ConcurrentDeliveries(t *testing.T) {
	store := newTestStore(t)
	m := metrics.New()
	e := newTestEngine(t, store, WithMetrics(m))
	ctx := context.Background()

	const workers = 16
	results := make([]models.IngestResult, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Half the deliveries carry the bank id, half only the content.
			ev := event("", "-45.90", "POSTO IPIRANGA")
			if i%2 == 0 {
				ev.ExternalID = "ext-1"
			}
			results[i], _ = e.Ingest(ctx, ev)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, r := range results {
		switch r.Status {
		case models.StatusSuccess:
			successes++
		case models.StatusSkipped:
			assert.Contains(t, []string{models.ReasonDuplicateID, models.ReasonDuplicateHash}, r.Reason)
		default:
			t.Errorf("unexpected result %+v", r)
		}
	}
	assert.Equal(t, 1, successes)

	count, err := store.CountTransactions(ctx, testOrg)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestEngine_IngestBatch(t *testing.T) {
	e := newTestEngine(t, newTestStore(t))

	results, stats := e.IngestBatch(context.Background(), []models.IngestEvent{
		event("b1", "-10.00", "COFFEE"),
		event("b1", "-10.00", "COFFEE"),
		event("b2", "-12.00", ""),
		event("b3", "25.00", "REFUND"),
	})

	require.Len(t, results, 4)
	assert.Equal(t, models.StatusSuccess, results[0].Status)
	assert.Equal(t, models.StatusSkipped, results[1].Status)
	assert.Equal(t, models.StatusError, results[2].Status)
	assert.Equal(t, models.StatusSuccess, results[3].Status)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.Inserted)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 1, stats.Failed)
}
