package models

import "time"

// Suggestion is an advisory classification for a transaction. It never
// mutates the ledger by itself; acceptance applies it.
type Suggestion struct {
	ID             string               `json:"id"`
	TransactionID  string               `json:"transactionId"`
	OrganizationID string               `json:"organizationId"`
	CategoryID     string               `json:"categoryId,omitempty"`
	CostCenterID   string               `json:"costCenterId,omitempty"`
	Type           TransactionType      `json:"type"`
	Confidence     float64              `json:"confidence"`
	Reasoning      string               `json:"reasoning"`
	ModelVersion   string               `json:"modelVersion"`
	Source         ClassificationSource `json:"source"`
	Accepted       *bool                `json:"accepted,omitempty"`
	SupersededBy   string               `json:"supersededBy,omitempty"`
	CreatedAt      time.Time            `json:"createdAt"`
}

// IsResolved reports whether the suggestion was accepted or rejected.
func (s Suggestion) IsResolved() bool {
	return s.Accepted != nil
}

// BatchRequest is the input of a batch classification run.
type BatchRequest struct {
	TransactionIDs []string `json:"transactionIds"`
	OrganizationID string   `json:"organizationId"`
}

// BatchResult is the outcome of a batch classification run. Partial failure
// is reported through Failed, Success is false only when the whole run could
// not start.
type BatchResult struct {
	Success            bool         `json:"success"`
	SuggestionsCreated int          `json:"suggestionsCreated"`
	Failed             int          `json:"failed"`
	Suggestions        []Suggestion `json:"suggestions"`
}
