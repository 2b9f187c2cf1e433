package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"fjacquet/txledger/internal/ingesterror"
	"fjacquet/txledger/internal/logging"
	"fjacquet/txledger/internal/models"
)

const transactionColumns = `id, organization_id, account_id, tx_date, description, normalized_description,
	amount, type, external_id, canonical_hash, category_id, cost_center_id,
	classification_source, validation_status, created_at`

// InsertTransaction stores a new transaction. Both uniqueness constraints
// guard the insert; a violation is returned as *ingesterror.DuplicateError
// naming the key, any other failure as *ingesterror.PersistenceError.
func (s *Store) InsertTransaction(ctx context.Context, tx *models.Transaction) error {
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = s.now().UTC()
	}

	query := `INSERT INTO transactions (` + transactionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		tx.ID,
		tx.OrganizationID,
		tx.AccountID,
		tx.Date,
		tx.Description,
		tx.NormalizedDescription,
		tx.Amount.Round(2),
		string(tx.Type),
		nullString(tx.ExternalID),
		tx.CanonicalHash,
		nullString(tx.CategoryID),
		nullString(tx.CostCenterID),
		string(tx.ClassificationSource),
		string(tx.ValidationStatus),
		nanos(tx.CreatedAt),
	)
	if err != nil {
		translated := translateInsertError("insert transaction", err)
		if dup, ok := ingesterror.AsDuplicate(translated); ok {
			s.logger.Debug("Insert rejected by uniqueness constraint",
				logging.Field{Key: logging.FieldOrganizationID, Value: tx.OrganizationID},
				logging.Field{Key: logging.FieldReason, Value: dup.Reason()})
		}
		return translated
	}
	return nil
}

// TransactionIDByExternalID returns the id of the transaction carrying the
// external id, or ingesterror.ErrNotFound.
func (s *Store) TransactionIDByExternalID(ctx context.Context, orgID, externalID string) (string, error) {
	return s.lookupID(ctx,
		`SELECT id FROM transactions WHERE organization_id = ? AND external_id = ?`,
		orgID, externalID)
}

// TransactionIDByHash returns the id of the transaction with the canonical
// hash, or ingesterror.ErrNotFound.
func (s *Store) TransactionIDByHash(ctx context.Context, orgID, hash string) (string, error) {
	return s.lookupID(ctx,
		`SELECT id FROM transactions WHERE organization_id = ? AND canonical_hash = ?`,
		orgID, hash)
}

func (s *Store) lookupID(ctx context.Context, query string, args ...any) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ingesterror.ErrNotFound
	}
	if err != nil {
		return "", &ingesterror.PersistenceError{Op: "lookup transaction", Err: err}
	}
	return id, nil
}

// LatestCategorizedByDescription returns the most recently stored transaction
// of the organization whose raw description equals description and which
// carries a category, or ingesterror.ErrNotFound.
func (s *Store) LatestCategorizedByDescription(ctx context.Context, orgID, description string) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE organization_id = ? AND description = ? AND category_id IS NOT NULL
		ORDER BY created_at DESC LIMIT 1`
	tx, err := scanTransaction(s.db.QueryRowContext(ctx, query, orgID, description))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ingesterror.ErrNotFound
	}
	if err != nil {
		return nil, &ingesterror.PersistenceError{Op: "history lookup", Err: err}
	}
	return tx, nil
}

// GetTransaction loads one transaction of the organization.
func (s *Store) GetTransaction(ctx context.Context, orgID, id string) (*models.Transaction, error) {
	return s.getTransaction(ctx, s.db, orgID, id)
}

func (s *Store) getTransaction(ctx context.Context, q execer, orgID, id string) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE organization_id = ? AND id = ?`
	tx, err := scanTransaction(q.QueryRowContext(ctx, query, orgID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", id, ingesterror.ErrNotFound)
	}
	if err != nil {
		return nil, &ingesterror.PersistenceError{Op: "get transaction", Err: err}
	}
	return tx, nil
}

// ValidatedHistory returns up to limit of the organization's most recent
// validated, categorized transactions, newest first, with category and cost
// center names resolved. Unknown ids fall back to the id itself.
func (s *Store) ValidatedHistory(ctx context.Context, orgID string, limit int) ([]models.HistoryEntry, error) {
	query := `SELECT t.id, t.normalized_description, t.category_id, COALESCE(c.name, t.category_id),
			COALESCE(t.cost_center_id, ''), COALESCE(cc.name, t.cost_center_id, '')
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		LEFT JOIN cost_centers cc ON cc.id = t.cost_center_id
		WHERE t.organization_id = ? AND t.validation_status = ? AND t.category_id IS NOT NULL
		ORDER BY t.created_at DESC
		LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, orgID, string(models.StatusValidated), limit)
	if err != nil {
		return nil, &ingesterror.PersistenceError{Op: "validated history", Err: err}
	}
	defer rows.Close()

	var history []models.HistoryEntry
	for rows.Next() {
		var h models.HistoryEntry
		if err := rows.Scan(&h.TransactionID, &h.NormalizedDescription, &h.CategoryID, &h.CategoryName,
			&h.CostCenterID, &h.CostCenterName); err != nil {
			return nil, &ingesterror.PersistenceError{Op: "validated history: scan", Err: err}
		}
		history = append(history, h)
	}
	if err := rows.Err(); err != nil {
		return nil, &ingesterror.PersistenceError{Op: "validated history: rows", Err: err}
	}
	return history, nil
}

// PendingTransactionIDs returns up to limit ids of the organization's
// transactions awaiting validation, oldest first.
func (s *Store) PendingTransactionIDs(ctx context.Context, orgID string, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM transactions WHERE organization_id = ? AND validation_status = ?
		ORDER BY created_at ASC LIMIT ?`,
		orgID, string(models.StatusPendingValidation), limit)
	if err != nil {
		return nil, &ingesterror.PersistenceError{Op: "pending transactions", Err: err}
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, &ingesterror.PersistenceError{Op: "pending transactions: scan", Err: err}
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, &ingesterror.PersistenceError{Op: "pending transactions: rows", Err: err}
	}
	return ids, nil
}

// CountTransactions returns the number of stored transactions of the organization.
func (s *Store) CountTransactions(ctx context.Context, orgID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE organization_id = ?`, orgID).Scan(&n)
	if err != nil {
		return 0, &ingesterror.PersistenceError{Op: "count transactions", Err: err}
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var (
		tx                     models.Transaction
		txType, source, status string
		externalID             sql.NullString
		categoryID             sql.NullString
		costCenterID           sql.NullString
		createdAt              int64
	)
	err := row.Scan(
		&tx.ID,
		&tx.OrganizationID,
		&tx.AccountID,
		&tx.Date,
		&tx.Description,
		&tx.NormalizedDescription,
		&tx.Amount,
		&txType,
		&externalID,
		&tx.CanonicalHash,
		&categoryID,
		&costCenterID,
		&source,
		&status,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	tx.Date = strings.TrimSpace(tx.Date)
	tx.Type = models.TransactionType(txType)
	tx.ExternalID = externalID.String
	tx.CategoryID = categoryID.String
	tx.CostCenterID = costCenterID.String
	tx.ClassificationSource = models.ClassificationSource(source)
	tx.ValidationStatus = models.ValidationStatus(status)
	tx.CreatedAt = fromNanos(createdAt)
	return &tx, nil
}
