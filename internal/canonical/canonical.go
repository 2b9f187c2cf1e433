// Package canonical reduces raw transaction fields to the stable form used
// for duplicate detection and similarity scoring. Everything here is pure.
package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"fjacquet/txledger/internal/dateutils"
)

// HashVersion prefixes every hash input so the fingerprint scheme can evolve
// without colliding with stored values.
const HashVersion = "v1"

// Canonicalizer normalizes descriptions with a fixed stoplist.
type Canonicalizer struct {
	stopwords map[string]struct{}
}

// New creates a Canonicalizer. Stopwords are folded the same way as
// description tokens before comparison.
func New(stopwords []string) *Canonicalizer {
	set := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		for _, tok := range strings.Fields(Fold(w)) {
			set[tok] = struct{}{}
		}
	}
	return &Canonicalizer{stopwords: set}
}

// Description returns the canonical form of raw: lower-cased, diacritics
// removed, punctuation stripped, short numeric codes and stopwords dropped,
// single-spaced.
func (c *Canonicalizer) Description(raw string) string {
	return strings.Join(c.tokens(raw), " ")
}

// Tokens returns the distinct canonical tokens of raw in first-seen order.
func (c *Canonicalizer) Tokens(raw string) []string {
	all := c.tokens(raw)
	seen := make(map[string]struct{}, len(all))
	out := make([]string, 0, len(all))
	for _, tok := range all {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

// IsStopword reports whether the folded token is on the stoplist.
func (c *Canonicalizer) IsStopword(token string) bool {
	_, ok := c.stopwords[token]
	return ok
}

func (c *Canonicalizer) tokens(raw string) []string {
	var out []string
	for _, tok := range strings.Fields(StripDiacritics(strings.ToLower(raw))) {
		tok = alnumOnly(tok)
		if tok == "" || isShortNumber(tok) || c.IsStopword(tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// Day truncates a raw date to its calendar day (YYYY-MM-DD).
func Day(raw string) (string, error) {
	return dateutils.TruncateToDay(raw)
}

// Magnitude rounds amount to two decimals and drops the sign.
func Magnitude(amount decimal.Decimal) decimal.Decimal {
	return amount.Abs().Round(2)
}

// Hash fingerprints a transaction from its canonical day, magnitude,
// canonical description and resolved local account id.
func Hash(day string, magnitude decimal.Decimal, description, accountID string) string {
	input := strings.Join([]string{
		HashVersion,
		day,
		magnitude.StringFixed(2),
		description,
		accountID,
	}, "|")
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

// Similarity is |A∩B| / max(|A|,|B|) over two token sets. Duplicates within
// a slice are ignored. Two empty sets have similarity 0.
func Similarity(a, b []string) float64 {
	setA := toSet(a)
	setB := toSet(b)
	denom := len(setA)
	if len(setB) > denom {
		denom = len(setB)
	}
	if denom == 0 {
		return 0
	}
	common := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			common++
		}
	}
	return float64(common) / float64(denom)
}

// Fold lower-cases s, removes diacritics and turns every run of
// non-alphanumerics into a single space. Unlike Description it keeps numbers
// and stopwords, so it is used for phrase matching.
func Fold(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, StripDiacritics(strings.ToLower(s)))
	return strings.Join(strings.Fields(mapped), " ")
}

// StripDiacritics removes combining marks after canonical decomposition.
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func alnumOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

func isShortNumber(tok string) bool {
	if len(tok) == 0 || len(tok) > 4 {
		return false
	}
	for _, r := range tok {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func toSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}
