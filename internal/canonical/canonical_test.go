package canonical

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/txledger/internal/lexicon"
)

func newTestCanonicalizer(t *testing.T) *Canonicalizer {
	t.Helper()
	lex, err := lexicon.Default()
	require.NoError(t, err)
	return New(lex.Stopwords)
}

func TestDescription(t *testing.T) {
	c := newTestCanonicalizer(t)

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "case and short number", raw: "POSTO IPIRANGA 123", want: "posto ipiranga"},
		{name: "diacritics", raw: "Padaria São João", want: "padaria sao joao"},
		{name: "punctuation", raw: "UBEREATS *ORDER4471", want: "ubereats order4471"},
		{name: "stopwords", raw: "PIX RECEBIDO - Maria Souza", want: "maria souza"},
		{name: "long numbers kept", raw: "Boleto 123456789", want: "boleto 123456789"},
		{name: "whitespace collapsed", raw: "  Mercado   Livre\t", want: "mercado livre"},
		{name: "only noise", raw: "TED 12 - ref 9", want: ""},
		{name: "pagamento is not jargon", raw: "Pagamento Fatura Cartão", want: "pagamento fatura cartao"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Description(tt.raw))
		})
	}
}

func TestDescription_Equivalence(t *testing.T) {
	c := newTestCanonicalizer(t)

	variants := []string{
		"Café São Paulo 0042",
		"CAFE SAO PAULO",
		"cafe são paulo 7",
		"Café  Sao  Paulo 1234",
	}
	want := c.Description(variants[0])
	for _, v := range variants[1:] {
		assert.Equal(t, want, c.Description(v), v)
	}
}

func TestTokens_Distinct(t *testing.T) {
	c := newTestCanonicalizer(t)
	assert.Equal(t, []string{"uber", "trip"}, c.Tokens("Uber trip UBER 12"))
	assert.Empty(t, c.Tokens("pix 12"))
}

func TestDay(t *testing.T) {
	day, err := Day("2024-03-01T18:22:10Z")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", day)

	_, err = Day("")
	assert.Error(t, err)
}

func TestMagnitude(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"-45.00", "45.00"},
		{"45", "45.00"},
		{"-0.005", "0.01"},
		{"12.344", "12.34"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Magnitude(decimal.RequireFromString(tt.in))
			assert.Equal(t, tt.want, got.StringFixed(2))
		})
	}
}

func TestHash(t *testing.T) {
	c := newTestCanonicalizer(t)
	mag := Magnitude(decimal.RequireFromString("-45.00"))

	h1 := Hash("2024-03-01", mag, c.Description("POSTO IPIRANGA 123"), "acc-1")
	h2 := Hash("2024-03-01", Magnitude(decimal.RequireFromString("45")), c.Description("posto ipiranga"), "acc-1")

	assert.Len(t, h1, 64)
	assert.Equal(t, h1, h2, "sign, scale, case and short codes do not affect the hash")

	assert.NotEqual(t, h1, Hash("2024-03-02", mag, c.Description("POSTO IPIRANGA"), "acc-1"))
	assert.NotEqual(t, h1, Hash("2024-03-01", mag, c.Description("POSTO IPIRANGA"), "acc-2"))
	assert.NotEqual(t, h1, Hash("2024-03-01", Magnitude(decimal.RequireFromString("45.01")), c.Description("POSTO IPIRANGA"), "acc-1"))
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want float64
	}{
		{name: "identical", a: []string{"posto", "ipiranga"}, b: []string{"ipiranga", "posto"}, want: 1},
		{name: "partial", a: []string{"posto", "ipiranga", "centro"}, b: []string{"posto", "ipiranga"}, want: 2.0 / 3.0},
		{name: "disjoint", a: []string{"uber"}, b: []string{"netflix"}, want: 0},
		{name: "duplicates ignored", a: []string{"uber", "uber"}, b: []string{"uber"}, want: 1},
		{name: "empty", a: nil, b: nil, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Similarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestFold(t *testing.T) {
	assert.Equal(t, "pagamento de fatura 0042", Fold("PAGAMENTO DE FATURA - 0042"))
	assert.Equal(t, "credit card payment", Fold("Credit-Card  Payment!"))
	assert.Equal(t, "", Fold("  --  "))
}

func TestStripDiacritics(t *testing.T) {
	assert.Equal(t, "acao coracao muller", StripDiacritics("ação coração müller"))
}
