package categorizer

import (
	"strings"

	"github.com/shopspring/decimal"

	"fjacquet/txledger/internal/canonical"
	"fjacquet/txledger/internal/models"
)

// TypeClassifier infers the direction of a transaction.
type TypeClassifier struct {
	phrases [][]string
}

// NewTypeClassifier creates a TypeClassifier recognizing the given
// bill-payment phrases. Phrases are folded like descriptions, so accents and
// punctuation do not matter.
func NewTypeClassifier(invoicePhrases []string) *TypeClassifier {
	tc := &TypeClassifier{}
	for _, p := range invoicePhrases {
		words := strings.Fields(canonical.Fold(p))
		if len(words) > 0 {
			tc.phrases = append(tc.phrases, words)
		}
	}
	return tc
}

// Classify returns the transaction type. An explicit indicator (already
// normalized to CREDIT or DEBIT) wins over the amount sign; zero amounts
// count as expenses. A bill-payment phrase in the description overrides both
// and yields a transfer.
func (tc *TypeClassifier) Classify(indicator string, signedAmount decimal.Decimal, description string) models.TransactionType {
	if tc.IsInvoicePayment(description) {
		return models.TypeTransfer
	}

	switch indicator {
	case models.IndicatorCredit:
		return models.TypeIncome
	case models.IndicatorDebit:
		return models.TypeExpense
	}

	if signedAmount.IsPositive() {
		return models.TypeIncome
	}
	return models.TypeExpense
}

// IsInvoicePayment reports whether description contains one of the
// bill-payment phrases as a run of whole words.
func (tc *TypeClassifier) IsInvoicePayment(description string) bool {
	words := strings.Fields(canonical.Fold(description))
	for _, phrase := range tc.phrases {
		if containsRun(words, phrase) {
			return true
		}
	}
	return false
}

func containsRun(words, phrase []string) bool {
	if len(phrase) > len(words) {
		return false
	}
outer:
	for i := 0; i+len(phrase) <= len(words); i++ {
		for j, p := range phrase {
			if words[i+j] != p {
				continue outer
			}
		}
		return true
	}
	return false
}
