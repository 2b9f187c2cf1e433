package categorizer

import (
	"context"

	"fjacquet/txledger/internal/models"
)

// AIRequest is what an AI provider sees of a transaction.
type AIRequest struct {
	Description string
	Type        models.TransactionType
	Categories  []models.Category
}

// AIAnswer is the provider's pick among AIRequest.Categories.
type AIAnswer struct {
	CategoryID string  `json:"category_id"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// AIClient defines the interface for AI-based categorization services.
type AIClient interface {
	// Suggest picks one of the offered categories for the transaction.
	Suggest(ctx context.Context, req AIRequest) (AIAnswer, error)

	// ModelVersion identifies the model for suggestion provenance.
	ModelVersion() string
}
