package categorizer

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"fjacquet/txledger/internal/lexicon"
	"fjacquet/txledger/internal/models"
)

func newTestTypeClassifier(t *testing.T) *TypeClassifier {
	t.Helper()
	lex, err := lexicon.Default()
	if err != nil {
		t.Fatalf("default lexicon: %v", err)
	}
	return NewTypeClassifier(lex.InvoicePhrases)
}

func TestTypeClassifier_Classify(t *testing.T) {
	tc := newTestTypeClassifier(t)

	tests := []struct {
		name        string
		indicator   string
		amount      string
		description string
		expected    models.TransactionType
	}{
		{"credit indicator beats negative sign", models.IndicatorCredit, "-10.00", "REFUND", models.TypeIncome},
		{"debit indicator beats positive sign", models.IndicatorDebit, "10.00", "COFFEE", models.TypeExpense},
		{"positive amount", "", "250.00", "SALARY", models.TypeIncome},
		{"negative amount", "", "-42.10", "POSTO IPIRANGA", models.TypeExpense},
		{"zero amount", "", "0", "ADJUSTMENT", models.TypeExpense},
		{"invoice phrase overrides sign", "", "-1500.00", "pagamento fatura cartao", models.TypeTransfer},
		{"invoice phrase overrides indicator", models.IndicatorCredit, "1500.00", "PAGAMENTO DE FATURA 0423", models.TypeTransfer},
		{"accented phrase", "", "-80.00", "Pagto Fatura Cartão", models.TypeTransfer},
		{"english phrase", "", "-300.00", "CREDIT-CARD PAYMENT THANK YOU", models.TypeTransfer},
		{"phrase words must be contiguous", "", "-20.00", "pagamento de luz fatura", models.TypeExpense},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tc.Classify(tt.indicator, decimal.RequireFromString(tt.amount), tt.description)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestTypeClassifier_IsInvoicePayment(t *testing.T) {
	tc := NewTypeClassifier([]string{"fatura cartão", "  "})

	assert.True(t, tc.IsInvoicePayment("PAG FATURA CARTAO 12/03"))
	assert.False(t, tc.IsInvoicePayment("faturacartao"))
	assert.False(t, tc.IsInvoicePayment(""))
}
