package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"fjacquet/txledger/internal/ingesterror"
	"fjacquet/txledger/internal/models"
)

// upsertSQL renders an insert-or-update statement for the store's dialect.
func (s *Store) upsertSQL(table string, keys, columns []string) string {
	all := append(append([]string{}, keys...), columns...)
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(all)), ", ")
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(all, ", "), placeholders)

	sets := make([]string, len(columns))
	for i, c := range columns {
		if s.driver == DriverMySQL {
			sets[i] = fmt.Sprintf("%s = VALUES(%s)", c, c)
		} else {
			sets[i] = fmt.Sprintf("%s = excluded.%s", c, c)
		}
	}
	if s.driver == DriverMySQL {
		return insert + " ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
	}
	return insert + fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET %s", strings.Join(keys, ", "), strings.Join(sets, ", "))
}

func (s *Store) upsert(ctx context.Context, op, table string, keys, columns []string, args ...any) error {
	if _, err := s.db.ExecContext(ctx, s.upsertSQL(table, keys, columns), args...); err != nil {
		return &ingesterror.PersistenceError{Op: op, Err: err}
	}
	return nil
}

// UpsertAccount creates or updates an account.
func (s *Store) UpsertAccount(ctx context.Context, a *models.Account) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now().UTC()
	}
	return s.upsert(ctx, "upsert account", "accounts",
		[]string{"id"},
		[]string{"organization_id", "name", "is_active", "is_default", "created_at"},
		a.ID, a.OrganizationID, a.Name, a.Active, a.Default, nanos(a.CreatedAt))
}

// UpsertAccountMapping links an external reference to a local account.
func (s *Store) UpsertAccountMapping(ctx context.Context, m *models.AccountMapping) error {
	return s.upsert(ctx, "upsert account mapping", "account_mappings",
		[]string{"organization_id", "external_ref"},
		[]string{"account_id"},
		m.OrganizationID, m.ExternalRef, m.AccountID)
}

// UpsertCategory creates or renames a category.
func (s *Store) UpsertCategory(ctx context.Context, c *models.Category) error {
	return s.upsert(ctx, "upsert category", "categories",
		[]string{"id"},
		[]string{"organization_id", "name"},
		c.ID, c.OrganizationID, c.Name)
}

// UpsertCostCenter creates or renames a cost center.
func (s *Store) UpsertCostCenter(ctx context.Context, c *models.CostCenter) error {
	return s.upsert(ctx, "upsert cost center", "cost_centers",
		[]string{"id"},
		[]string{"organization_id", "name"},
		c.ID, c.OrganizationID, c.Name)
}

// UpsertRule creates or updates a classification rule.
func (s *Store) UpsertRule(ctx context.Context, r *models.Rule) error {
	return s.upsert(ctx, "upsert rule", "rules",
		[]string{"id"},
		[]string{"organization_id", "pattern", "type", "category_id", "cost_center_id", "confidence"},
		r.ID, r.OrganizationID, r.Pattern, string(r.Type), r.CategoryID, nullString(r.CostCenterID), r.Confidence)
}

// AccountIDByMapping returns the local account mapped to externalRef, or
// ingesterror.ErrNotFound. Mappings to inactive accounts are ignored.
func (s *Store) AccountIDByMapping(ctx context.Context, orgID, externalRef string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT m.account_id FROM account_mappings m
		JOIN accounts a ON a.id = m.account_id AND a.organization_id = m.organization_id
		WHERE m.organization_id = ? AND m.external_ref = ? AND a.is_active = ?`,
		orgID, externalRef, true).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ingesterror.ErrNotFound
	}
	if err != nil {
		return "", &ingesterror.PersistenceError{Op: "account mapping lookup", Err: err}
	}
	return id, nil
}

// DefaultAccountID returns the organization's active default account: an
// active account flagged default, otherwise the oldest active account.
// Returns ingesterror.ErrNotFound when the organization has no active account.
func (s *Store) DefaultAccountID(ctx context.Context, orgID string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM accounts WHERE organization_id = ? AND is_active = ?
		ORDER BY is_default DESC, created_at ASC, id ASC LIMIT 1`,
		orgID, true).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ingesterror.ErrNotFound
	}
	if err != nil {
		return "", &ingesterror.PersistenceError{Op: "default account lookup", Err: err}
	}
	return id, nil
}

// RulesForType returns rules visible to the organization (its own and the
// global ones) for the transaction type with confidence at least
// minConfidence, highest confidence first, at most limit rows.
func (s *Store) RulesForType(ctx context.Context, orgID string, txType models.TransactionType, minConfidence float64, limit int) ([]models.Rule, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, organization_id, pattern, type, category_id, COALESCE(cost_center_id, ''), confidence
		FROM rules
		WHERE (organization_id = ? OR organization_id = '') AND type = ? AND confidence >= ?
		ORDER BY confidence DESC, id ASC
		LIMIT ?`,
		orgID, string(txType), minConfidence, limit)
	if err != nil {
		return nil, &ingesterror.PersistenceError{Op: "rules lookup", Err: err}
	}
	defer rows.Close()

	var rules []models.Rule
	for rows.Next() {
		var r models.Rule
		var typ string
		if err := rows.Scan(&r.ID, &r.OrganizationID, &r.Pattern, &typ, &r.CategoryID, &r.CostCenterID, &r.Confidence); err != nil {
			return nil, &ingesterror.PersistenceError{Op: "rules lookup: scan", Err: err}
		}
		r.Type = models.TransactionType(typ)
		rules = append(rules, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &ingesterror.PersistenceError{Op: "rules lookup: rows", Err: err}
	}
	return rules, nil
}

// CategoryName returns a category's display name, or ingesterror.ErrNotFound.
func (s *Store) CategoryName(ctx context.Context, id string) (string, error) {
	return s.name(ctx, "categories", id)
}

// CostCenterName returns a cost center's display name, or ingesterror.ErrNotFound.
func (s *Store) CostCenterName(ctx context.Context, id string) (string, error) {
	return s.name(ctx, "cost_centers", id)
}

func (s *Store) name(ctx context.Context, table, id string) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx, `SELECT name FROM `+table+` WHERE id = ?`, id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ingesterror.ErrNotFound
	}
	if err != nil {
		return "", &ingesterror.PersistenceError{Op: "lookup " + table, Err: err}
	}
	return name, nil
}

// ListCategories returns the categories visible to the organization, by name.
func (s *Store) ListCategories(ctx context.Context, orgID string) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, organization_id, name FROM categories
		WHERE organization_id = ? OR organization_id = '' ORDER BY name ASC`, orgID)
	if err != nil {
		return nil, &ingesterror.PersistenceError{Op: "list categories", Err: err}
	}
	defer rows.Close()

	var out []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.OrganizationID, &c.Name); err != nil {
			return nil, &ingesterror.PersistenceError{Op: "list categories: scan", Err: err}
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, &ingesterror.PersistenceError{Op: "list categories: rows", Err: err}
	}
	return out, nil
}
