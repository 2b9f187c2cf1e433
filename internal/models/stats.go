package models

import (
	"fjacquet/txledger/internal/logging"
)

// IngestStats tracks outcomes of a multi-event ingest run (batch or file import).
type IngestStats struct {
	Total    int // Total number of events processed
	Inserted int // Number of events stored as new transactions
	Skipped  int // Number of duplicates or unresolvable accounts
	Failed   int // Number of malformed or failed events
}

// NewIngestStats creates an empty IngestStats.
func NewIngestStats() *IngestStats {
	return &IngestStats{}
}

// Record counts one result.
func (s *IngestStats) Record(r IngestResult) {
	s.Total++
	switch r.Status {
	case StatusSuccess:
		s.Inserted++
	case StatusSkipped:
		s.Skipped++
	default:
		s.Failed++
	}
}

// GetInsertRate returns the share of inserted events as a percentage.
func (s IngestStats) GetInsertRate() float64 {
	if s.Total == 0 {
		return 0.0
	}
	return float64(s.Inserted) / float64(s.Total) * 100.0
}

// LogSummary logs a summary of the run.
func (s IngestStats) LogSummary(logger logging.Logger, source string) {
	if logger == nil {
		return
	}

	logger.Info("Ingest summary",
		logging.Field{Key: logging.FieldSource, Value: source},
		logging.Field{Key: "total_events", Value: s.Total},
		logging.Field{Key: "inserted", Value: s.Inserted},
		logging.Field{Key: "skipped", Value: s.Skipped},
		logging.Field{Key: "failed", Value: s.Failed},
		logging.Field{Key: "insert_rate", Value: s.GetInsertRate()},
	)
}
