package models

import "time"

// Rule maps a description fragment to a category/cost center pair for one
// transaction type. An empty OrganizationID makes the rule global.
type Rule struct {
	ID             string          `json:"id" yaml:"id"`
	OrganizationID string          `json:"organizationId" yaml:"organization_id"`
	Pattern        string          `json:"pattern" yaml:"pattern"`
	Type           TransactionType `json:"type" yaml:"type"`
	CategoryID     string          `json:"categoryId" yaml:"category_id"`
	CostCenterID   string          `json:"costCenterId" yaml:"cost_center_id"`
	Confidence     float64         `json:"confidence" yaml:"confidence"`
}

// Account is a local ledger account.
type Account struct {
	ID             string    `json:"id" yaml:"id"`
	OrganizationID string    `json:"organizationId" yaml:"organization_id"`
	Name           string    `json:"name" yaml:"name"`
	Active         bool      `json:"active" yaml:"active"`
	Default        bool      `json:"default" yaml:"default"`
	CreatedAt      time.Time `json:"createdAt" yaml:"-"`
}

// AccountMapping links an upstream account reference to a local account.
type AccountMapping struct {
	OrganizationID string `json:"organizationId" yaml:"organization_id"`
	ExternalRef    string `json:"externalRef" yaml:"external_ref"`
	AccountID      string `json:"accountId" yaml:"account_id"`
}

// Category is a named classification bucket.
type Category struct {
	ID             string `json:"id" yaml:"id"`
	OrganizationID string `json:"organizationId" yaml:"organization_id"`
	Name           string `json:"name" yaml:"name"`
}

// CostCenter is a named cost allocation bucket.
type CostCenter struct {
	ID             string `json:"id" yaml:"id"`
	OrganizationID string `json:"organizationId" yaml:"organization_id"`
	Name           string `json:"name" yaml:"name"`
}
