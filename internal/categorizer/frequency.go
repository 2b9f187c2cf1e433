package categorizer

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"fjacquet/txledger/internal/canonical"
	"fjacquet/txledger/internal/config"
	"fjacquet/txledger/internal/logging"
	"fjacquet/txledger/internal/models"
)

// FrequencyModelVersion tags suggestions produced by the frequency model.
const FrequencyModelVersion = "frequency-v1"

// keywordStat is what the model learned about one keyword.
type keywordStat struct {
	keyword        string
	count          int
	categoryID     string
	categoryName   string
	costCenterID   string
	costCenterName string
}

// FrequencyModel maps keywords of validated descriptions to how often they
// were seen and the category they were most recently filed under.
type FrequencyModel struct {
	keywords []*keywordStat // first-seen order
	index    map[string]*keywordStat
	params   config.Classification
}

// Match is the outcome of scoring a description against the model.
type Match struct {
	Keyword        string
	Count          int
	Score          float64
	Corroborated   bool
	CategoryID     string
	CategoryName   string
	CostCenterID   string
	CostCenterName string
	Confidence     float64
}

// BuildFrequencyModel learns keywords from history, which must be ordered
// newest first. Each keyword counts once per transaction and keeps the
// category of the first (most recent) transaction it was seen in.
func BuildFrequencyModel(history []models.HistoryEntry, params config.Classification) *FrequencyModel {
	m := &FrequencyModel{
		index:  make(map[string]*keywordStat),
		params: params,
	}

	for _, h := range history {
		seen := make(map[string]struct{})
		for _, kw := range strings.Fields(h.NormalizedDescription) {
			if utf8.RuneCountInString(kw) < params.MinKeywordLength {
				continue
			}
			if _, dup := seen[kw]; dup {
				continue
			}
			seen[kw] = struct{}{}

			stat, ok := m.index[kw]
			if !ok {
				stat = &keywordStat{
					keyword:        kw,
					categoryID:     h.CategoryID,
					categoryName:   h.CategoryName,
					costCenterID:   h.CostCenterID,
					costCenterName: h.CostCenterName,
				}
				m.index[kw] = stat
				m.keywords = append(m.keywords, stat)
			}
			stat.count++
		}
	}
	return m
}

// Size returns the number of distinct keywords learned.
func (m *FrequencyModel) Size() int {
	return len(m.keywords)
}

// Score finds the best keyword contained in the raw description. A keyword
// scores its count, multiplied by the positional bonus when it appears near
// the start of the description. Ties go to the higher count, then to the
// keyword learned first.
func (m *FrequencyModel) Score(description string) (Match, bool) {
	target := canonical.StripDiacritics(strings.ToLower(description))

	var best *keywordStat
	var bestScore float64
	var matched []*keywordStat
	for _, stat := range m.keywords {
		idx := strings.Index(target, stat.keyword)
		if idx < 0 {
			continue
		}
		matched = append(matched, stat)

		bonus := 1.0
		if utf8.RuneCountInString(target[:idx]) < m.params.PositionalBonusWindow {
			bonus = m.params.PositionalBonus
		}
		score := float64(stat.count) * bonus
		if best == nil || score > bestScore || (score == bestScore && stat.count > best.count) {
			best, bestScore = stat, score
		}
	}
	if best == nil {
		return Match{}, false
	}

	confidence := math.Min(m.params.MaxConfidence, m.params.BaseConfidence+float64(best.count)/m.params.CountScale)
	corroborated := false
	for _, other := range matched {
		if other != best && other.categoryID == best.categoryID {
			corroborated = true
			break
		}
	}
	if corroborated {
		confidence = math.Min(m.params.MaxConfidence, confidence+m.params.CorroborationBonus)
	}

	return Match{
		Keyword:        best.keyword,
		Count:          best.count,
		Score:          bestScore,
		Corroborated:   corroborated,
		CategoryID:     best.categoryID,
		CategoryName:   best.categoryName,
		CostCenterID:   best.costCenterID,
		CostCenterName: best.costCenterName,
		Confidence:     confidence,
	}, true
}

// Reasoning renders the human-readable explanation of a match.
func (mt Match) Reasoning() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Matched keyword %q found in %d similar transactions categorized as %q", mt.Keyword, mt.Count, mt.CategoryName)
	if mt.CostCenterID != "" {
		fmt.Fprintf(&sb, " with cost center %q", mt.CostCenterName)
	}
	if mt.Corroborated {
		sb.WriteString("; other keywords agree")
	}
	return sb.String()
}

// NoMatchResult is the suggestion made when no provider recognizes the
// description. It carries no category, so its source is none.
func NoMatchResult(params config.Classification) Result {
	return Result{
		Confidence:   params.NoMatchConfidence,
		Reasoning:    "No historical pattern found for this description",
		Source:       models.SourceNone,
		ModelVersion: FrequencyModelVersion,
	}
}

// FrequencyStrategy proposes categories from a FrequencyModel.
type FrequencyStrategy struct {
	model  *FrequencyModel
	logger logging.Logger
}

// NewFrequencyStrategy creates a strategy over a freshly built model.
func NewFrequencyStrategy(model *FrequencyModel, logger logging.Logger) *FrequencyStrategy {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &FrequencyStrategy{model: model, logger: logger}
}

// Name returns the name of this strategy.
func (s *FrequencyStrategy) Name() string {
	return "Frequency"
}

// Categorize scores the description against the model.
func (s *FrequencyStrategy) Categorize(_ context.Context, in Input) (Result, bool, error) {
	match, ok := s.model.Score(in.Description)
	if !ok {
		return Result{}, false, nil
	}

	s.logger.WithFields(
		logging.Field{Key: logging.FieldStrategy, Value: s.Name()},
		logging.Field{Key: logging.FieldTransactionID, Value: in.TransactionID},
		logging.Field{Key: "keyword", Value: match.Keyword},
		logging.Field{Key: logging.FieldConfidence, Value: match.Confidence},
	).Debug("Keyword matched")

	return Result{
		CategoryID:     match.CategoryID,
		CategoryName:   match.CategoryName,
		CostCenterID:   match.CostCenterID,
		CostCenterName: match.CostCenterName,
		Confidence:     match.Confidence,
		Reasoning:      match.Reasoning(),
		Source:         models.SourcePattern,
		ModelVersion:   FrequencyModelVersion,
	}, true, nil
}
