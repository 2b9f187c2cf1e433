package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fjacquet/txledger/internal/ingesterror"
	"fjacquet/txledger/internal/logging"
	"fjacquet/txledger/internal/models"
)

const suggestionColumns = `id, transaction_id, organization_id, category_id, cost_center_id, type,
	confidence, reasoning, model_version, source, accepted, superseded_by, created_at`

// InsertSuggestion stores a suggestion and, in the same database
// transaction, marks older unresolved suggestions for the same transaction
// as superseded by it.
func (s *Store) InsertSuggestion(ctx context.Context, sg *models.Suggestion) error {
	if sg.CreatedAt.IsZero() {
		sg.CreatedAt = s.now().UTC()
	}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO suggestions (`+suggestionColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, NULL, ?)`,
			sg.ID,
			sg.TransactionID,
			sg.OrganizationID,
			nullString(sg.CategoryID),
			nullString(sg.CostCenterID),
			string(sg.Type),
			sg.Confidence,
			sg.Reasoning,
			sg.ModelVersion,
			string(sg.Source),
			nanos(sg.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("insert suggestion: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE suggestions SET superseded_by = ?
			WHERE organization_id = ? AND transaction_id = ? AND id <> ?
				AND accepted IS NULL AND superseded_by IS NULL`,
			sg.ID, sg.OrganizationID, sg.TransactionID, sg.ID)
		if err != nil {
			return fmt.Errorf("supersede suggestions: %w", err)
		}
		return nil
	})
	if err != nil {
		return &ingesterror.PersistenceError{Op: "store suggestion", Err: err}
	}
	return nil
}

// GetSuggestion loads one suggestion of the organization.
func (s *Store) GetSuggestion(ctx context.Context, orgID, id string) (*models.Suggestion, error) {
	return s.getSuggestion(ctx, s.db, orgID, id)
}

func (s *Store) getSuggestion(ctx context.Context, q execer, orgID, id string) (*models.Suggestion, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+suggestionColumns+` FROM suggestions WHERE organization_id = ? AND id = ?`, orgID, id)
	sg, err := scanSuggestion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("suggestion %s: %w", id, ingesterror.ErrNotFound)
	}
	if err != nil {
		return nil, &ingesterror.PersistenceError{Op: "get suggestion", Err: err}
	}
	return sg, nil
}

// SuggestionsForTransaction returns every suggestion recorded for a
// transaction, oldest first.
func (s *Store) SuggestionsForTransaction(ctx context.Context, orgID, transactionID string) ([]models.Suggestion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+suggestionColumns+` FROM suggestions
		WHERE organization_id = ? AND transaction_id = ? ORDER BY created_at ASC`,
		orgID, transactionID)
	if err != nil {
		return nil, &ingesterror.PersistenceError{Op: "list suggestions", Err: err}
	}
	defer rows.Close()

	var out []models.Suggestion
	for rows.Next() {
		sg, err := scanSuggestion(rows)
		if err != nil {
			return nil, &ingesterror.PersistenceError{Op: "list suggestions: scan", Err: err}
		}
		out = append(out, *sg)
	}
	if err := rows.Err(); err != nil {
		return nil, &ingesterror.PersistenceError{Op: "list suggestions: rows", Err: err}
	}
	return out, nil
}

// AcceptSuggestion applies a suggestion atomically: the transaction takes the
// suggested category, cost center, type and source and becomes validated,
// and the suggestion is marked accepted. A suggestion without a category
// keeps the transaction's current category and classification source; one
// without a cost center keeps the current cost center. It returns the
// updated transaction.
func (s *Store) AcceptSuggestion(ctx context.Context, orgID, suggestionID string) (*models.Transaction, error) {
	var updated *models.Transaction
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		sg, err := s.openSuggestion(ctx, tx, orgID, suggestionID)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE transactions SET category_id = COALESCE(?, category_id),
				cost_center_id = COALESCE(?, cost_center_id), type = ?,
				classification_source = CASE WHEN ? IS NULL THEN classification_source ELSE ? END,
				validation_status = ?
			WHERE organization_id = ? AND id = ?`,
			nullString(sg.CategoryID),
			nullString(sg.CostCenterID),
			string(sg.Type),
			nullString(sg.CategoryID),
			string(sg.Source),
			string(models.StatusValidated),
			orgID, sg.TransactionID)
		if err != nil {
			return &ingesterror.PersistenceError{Op: "apply suggestion", Err: err}
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE suggestions SET accepted = ? WHERE id = ?`, true, sg.ID); err != nil {
			return &ingesterror.PersistenceError{Op: "mark suggestion accepted", Err: err}
		}

		updated, err = s.getTransaction(ctx, tx, orgID, sg.TransactionID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Suggestion accepted",
		logging.Field{Key: logging.FieldOrganizationID, Value: orgID},
		logging.Field{Key: logging.FieldSuggestionID, Value: suggestionID},
		logging.Field{Key: logging.FieldTransactionID, Value: updated.ID})
	return updated, nil
}

// RejectSuggestion marks a suggestion rejected. The transaction stays
// pending and eligible for a later run.
func (s *Store) RejectSuggestion(ctx context.Context, orgID, suggestionID string) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		sg, err := s.openSuggestion(ctx, tx, orgID, suggestionID)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE suggestions SET accepted = ? WHERE id = ?`, false, sg.ID); err != nil {
			return &ingesterror.PersistenceError{Op: "mark suggestion rejected", Err: err}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Suggestion rejected",
		logging.Field{Key: logging.FieldOrganizationID, Value: orgID},
		logging.Field{Key: logging.FieldSuggestionID, Value: suggestionID})
	return nil
}

func (s *Store) openSuggestion(ctx context.Context, tx *sql.Tx, orgID, id string) (*models.Suggestion, error) {
	sg, err := s.getSuggestion(ctx, tx, orgID, id)
	if err != nil {
		return nil, err
	}
	if sg.IsResolved() || sg.SupersededBy != "" {
		return nil, fmt.Errorf("suggestion %s: %w", id, ErrSuggestionClosed)
	}
	return sg, nil
}

func scanSuggestion(row rowScanner) (*models.Suggestion, error) {
	var (
		sg             models.Suggestion
		txType, source string
		categoryID     sql.NullString
		costCenterID   sql.NullString
		accepted       sql.NullBool
		supersededBy   sql.NullString
		createdAt      int64
	)
	err := row.Scan(
		&sg.ID,
		&sg.TransactionID,
		&sg.OrganizationID,
		&categoryID,
		&costCenterID,
		&txType,
		&sg.Confidence,
		&sg.Reasoning,
		&sg.ModelVersion,
		&source,
		&accepted,
		&supersededBy,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	sg.CategoryID = categoryID.String
	sg.CostCenterID = costCenterID.String
	sg.Type = models.TransactionType(txType)
	sg.Source = models.ClassificationSource(source)
	if accepted.Valid {
		v := accepted.Bool
		sg.Accepted = &v
	}
	sg.SupersededBy = supersededBy.String
	sg.CreatedAt = fromNanos(createdAt)
	return &sg, nil
}
