package ledger

import (
	"context"
	"fmt"
	"strings"

	"fjacquet/txledger/internal/logging"
)

// Column sizes, in characters, of the free-text fields written on ingest.
// Longer values are rejected by MySQL in strict mode.
const (
	MaxDescriptionLength = 512
	MaxExternalIDLength  = 255
)

type index struct {
	name    string
	columns string
}

type table struct {
	name       string
	definition []string
	indexes    []index
}

// Column types are limited to the subset MySQL and SQLite both accept.
// Dates are ISO strings, timestamps are unix nanoseconds.
var schema = []table{
	{
		name: "accounts",
		definition: []string{
			"id VARCHAR(64) NOT NULL PRIMARY KEY",
			"organization_id VARCHAR(64) NOT NULL",
			"name VARCHAR(255) NOT NULL",
			"is_active BOOLEAN NOT NULL DEFAULT TRUE",
			"is_default BOOLEAN NOT NULL DEFAULT FALSE",
			"created_at BIGINT NOT NULL",
		},
		indexes: []index{{"idx_accounts_org", "organization_id, is_active"}},
	},
	{
		name: "account_mappings",
		definition: []string{
			"organization_id VARCHAR(64) NOT NULL",
			"external_ref VARCHAR(255) NOT NULL",
			"account_id VARCHAR(64) NOT NULL",
			"PRIMARY KEY (organization_id, external_ref)",
		},
	},
	{
		name: "categories",
		definition: []string{
			"id VARCHAR(64) NOT NULL PRIMARY KEY",
			"organization_id VARCHAR(64) NOT NULL DEFAULT ''",
			"name VARCHAR(255) NOT NULL",
		},
	},
	{
		name: "cost_centers",
		definition: []string{
			"id VARCHAR(64) NOT NULL PRIMARY KEY",
			"organization_id VARCHAR(64) NOT NULL DEFAULT ''",
			"name VARCHAR(255) NOT NULL",
		},
	},
	{
		name: "rules",
		definition: []string{
			"id VARCHAR(64) NOT NULL PRIMARY KEY",
			"organization_id VARCHAR(64) NOT NULL DEFAULT ''",
			"pattern VARCHAR(255) NOT NULL",
			"type VARCHAR(16) NOT NULL",
			"category_id VARCHAR(64) NOT NULL",
			"cost_center_id VARCHAR(64) NULL",
			"confidence DOUBLE NOT NULL",
		},
		indexes: []index{{"idx_rules_type_confidence", "type, confidence"}},
	},
	{
		name: "transactions",
		definition: []string{
			"id VARCHAR(36) NOT NULL PRIMARY KEY",
			"organization_id VARCHAR(64) NOT NULL",
			"account_id VARCHAR(64) NOT NULL",
			"tx_date CHAR(10) NOT NULL",
			fmt.Sprintf("description VARCHAR(%d) NOT NULL", MaxDescriptionLength),
			fmt.Sprintf("normalized_description VARCHAR(%d) NOT NULL", MaxDescriptionLength),
			"amount DECIMAL(18,2) NOT NULL",
			"type VARCHAR(16) NOT NULL",
			fmt.Sprintf("external_id VARCHAR(%d) NULL", MaxExternalIDLength),
			"canonical_hash CHAR(64) NOT NULL",
			"category_id VARCHAR(64) NULL",
			"cost_center_id VARCHAR(64) NULL",
			"classification_source VARCHAR(16) NOT NULL",
			"validation_status VARCHAR(24) NOT NULL",
			"created_at BIGINT NOT NULL",
			"CONSTRAINT uq_tx_org_external_id UNIQUE (organization_id, external_id)",
			"CONSTRAINT uq_tx_org_canonical_hash UNIQUE (organization_id, canonical_hash)",
		},
		indexes: []index{
			{"idx_tx_org_description", "organization_id, description(191)"},
			{"idx_tx_org_status", "organization_id, validation_status, created_at"},
		},
	},
	{
		name: "suggestions",
		definition: []string{
			"id VARCHAR(36) NOT NULL PRIMARY KEY",
			"transaction_id VARCHAR(36) NOT NULL",
			"organization_id VARCHAR(64) NOT NULL",
			"category_id VARCHAR(64) NULL",
			"cost_center_id VARCHAR(64) NULL",
			"type VARCHAR(16) NOT NULL",
			"confidence DOUBLE NOT NULL",
			"reasoning TEXT NOT NULL",
			"model_version VARCHAR(64) NOT NULL",
			"source VARCHAR(16) NOT NULL",
			"accepted BOOLEAN NULL",
			"superseded_by VARCHAR(36) NULL",
			"created_at BIGINT NOT NULL",
		},
		indexes: []index{{"idx_suggestions_org_tx", "organization_id, transaction_id"}},
	},
}

// statements renders the schema for the store's driver. MySQL declares
// indexes inline because it lacks CREATE INDEX IF NOT EXISTS; SQLite has no
// prefix indexes.
func (s *Store) statements() []string {
	var stmts []string
	for _, t := range schema {
		defs := append([]string{}, t.definition...)
		var trailing []string
		for _, idx := range t.indexes {
			if s.driver == DriverMySQL {
				defs = append(defs, fmt.Sprintf("INDEX %s (%s)", idx.name, idx.columns))
				continue
			}
			trailing = append(trailing, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
				idx.name, t.name, stripPrefixLengths(idx.columns)))
		}

		create := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", t.name, strings.Join(defs, ",\n\t"))
		if s.driver == DriverMySQL {
			create += " ENGINE=InnoDB DEFAULT CHARSET=utf8mb4"
		}
		stmts = append(stmts, create)
		stmts = append(stmts, trailing...)
	}
	return stmts
}

// stripPrefixLengths turns "description(191)" into "description".
func stripPrefixLengths(columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if open := strings.Index(p, "("); open >= 0 {
			p = p[:open]
		}
		parts[i] = p
	}
	return strings.Join(parts, ", ")
}

// Migrate creates missing tables and indexes. It is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range s.statements() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	s.logger.Debug("Schema applied", logging.Field{Key: logging.FieldCount, Value: len(schema)})
	return nil
}
