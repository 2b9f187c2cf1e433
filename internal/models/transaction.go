// Package models provides the data structures used throughout the application.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a ledger transaction.
type TransactionType string

const (
	TypeIncome     TransactionType = "income"
	TypeExpense    TransactionType = "expense"
	TypeTransfer   TransactionType = "transfer"
	TypeInvestment TransactionType = "investment"
	TypeRedemption TransactionType = "redemption"
)

// String returns the string representation of the transaction type
func (t TransactionType) String() string {
	return string(t)
}

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TypeIncome, TypeExpense, TypeTransfer, TypeInvestment, TypeRedemption:
		return true
	}
	return false
}

// ParseTransactionType converts a string into a TransactionType (case-insensitive).
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown transaction type %q", s)
	}
	return t, nil
}

// ClassificationSource records how a transaction acquired its category.
type ClassificationSource string

const (
	SourceNone        ClassificationSource = "none"
	SourcePattern     ClassificationSource = "pattern"
	SourceAI          ClassificationSource = "ai"
	SourceManual      ClassificationSource = "manual"
	SourceOpenFinance ClassificationSource = "open_finance"
)

// Valid reports whether s is one of the known classification sources.
func (s ClassificationSource) Valid() bool {
	switch s {
	case SourceNone, SourcePattern, SourceAI, SourceManual, SourceOpenFinance:
		return true
	}
	return false
}

// ValidationStatus tells whether a human confirmed the category assignment.
type ValidationStatus string

const (
	StatusPendingValidation ValidationStatus = "pending_validation"
	StatusValidated         ValidationStatus = "validated"
)

// Transaction is a stored ledger record.
//
// Amount is always a non-negative magnitude, the direction lives in Type.
// CanonicalHash and ExternalID are each unique per organization.
type Transaction struct {
	ID                    string               `json:"id"`
	OrganizationID        string               `json:"organizationId"`
	AccountID             string               `json:"accountId"`
	Date                  string               `json:"date"` // YYYY-MM-DD
	Description           string               `json:"description"`
	NormalizedDescription string               `json:"normalizedDescription"`
	Amount                decimal.Decimal      `json:"amount"`
	Type                  TransactionType      `json:"type"`
	ExternalID            string               `json:"externalId,omitempty"`
	CanonicalHash         string               `json:"canonicalHash"`
	CategoryID            string               `json:"categoryId,omitempty"`
	CostCenterID          string               `json:"costCenterId,omitempty"`
	ClassificationSource  ClassificationSource `json:"classificationSource"`
	ValidationStatus      ValidationStatus     `json:"validationStatus"`
	CreatedAt             time.Time            `json:"createdAt"`
}

// IsCategorized returns true if the transaction carries a category.
func (t Transaction) IsCategorized() bool {
	return t.CategoryID != ""
}

// HistoryEntry is a validated, categorized transaction projected for the
// frequency model, with category and cost center display names resolved.
type HistoryEntry struct {
	TransactionID         string
	NormalizedDescription string
	CategoryID            string
	CategoryName          string
	CostCenterID          string
	CostCenterName        string
}
