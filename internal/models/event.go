package models

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Indicator values accepted in IngestEvent.CreditDebitIndicator.
const (
	IndicatorCredit = "CREDIT"
	IndicatorDebit  = "DEBIT"
)

// IngestEvent is a raw transaction event as delivered by an upstream source.
// Amount is signed; the sign is only used for type inference.
type IngestEvent struct {
	ExternalID           string          `json:"externalId,omitempty"`
	Amount               decimal.Decimal `json:"amount"`
	Description          string          `json:"description"`
	Date                 string          `json:"date"`
	AccountRef           string          `json:"accountRef"`
	CreditDebitIndicator string          `json:"creditDebitIndicator,omitempty"`
	OrganizationID       string          `json:"organizationId"`

	amountMissing bool
}

// UnmarshalJSON decodes an event and remembers whether the document carried
// an amount. An absent or null amount would otherwise decode to zero.
func (e *IngestEvent) UnmarshalJSON(data []byte) error {
	type plain IngestEvent
	aux := struct {
		*plain
		Amount *decimal.Decimal `json:"amount"`
	}{plain: (*plain)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	e.amountMissing = aux.Amount == nil
	if aux.Amount != nil {
		e.Amount = *aux.Amount
	}
	return nil
}

// HasAmount reports whether the event carries an amount. Events built in
// code always do; decoded ones only when the document had the field.
func (e IngestEvent) HasAmount() bool {
	return !e.amountMissing
}

// NormalizedIndicator returns the indicator in upper case, or "" when it is
// neither CREDIT nor DEBIT. CAMT style CRDT/DBIT codes are accepted as well.
func (e IngestEvent) NormalizedIndicator() string {
	switch strings.ToUpper(strings.TrimSpace(e.CreditDebitIndicator)) {
	case IndicatorCredit, "CRDT", "C":
		return IndicatorCredit
	case IndicatorDebit, "DBIT", "D":
		return IndicatorDebit
	}
	return ""
}

// IngestStatus is the outcome of a single ingest call.
type IngestStatus string

const (
	StatusSuccess IngestStatus = "success"
	StatusSkipped IngestStatus = "skipped"
	StatusError   IngestStatus = "error"
)

// Reasons reported with skipped outcomes.
const (
	ReasonDuplicateID    = "duplicate_id"
	ReasonDuplicateHash  = "duplicate_hash"
	ReasonNoAccountFound = "no_account_found"
)

// IngestResult is returned for every ingest call.
type IngestResult struct {
	Status        IngestStatus `json:"status"`
	TransactionID string       `json:"transactionId,omitempty"`
	Reason        string       `json:"reason,omitempty"`
}
