package categorizer

import (
	"context"

	"fjacquet/txledger/internal/models"
)

// Input is what a strategy knows about the transaction being classified.
type Input struct {
	OrganizationID string
	TransactionID  string // empty at ingest time, before the row exists
	Description    string // raw, as received
	Type           models.TransactionType
}

// Result is a proposed classification.
type Result struct {
	CategoryID     string
	CategoryName   string
	CostCenterID   string
	CostCenterName string
	Confidence     float64
	Reasoning      string
	Source         models.ClassificationSource
	ModelVersion   string
}

// Strategy is a classification provider. The inline classifier and the
// suggestion generator both chain strategies through a Categorizer, so any
// provider can be swapped without touching dedup or persistence.
type Strategy interface {
	// Categorize proposes a classification. The boolean reports whether the
	// strategy found one; a false result with a nil error is a plain miss.
	Categorize(ctx context.Context, in Input) (Result, bool, error)

	// Name returns the name of this strategy for logging and debugging purposes.
	Name() string
}
