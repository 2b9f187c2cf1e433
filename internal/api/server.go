// Package api exposes the ingestion engine and the suggestion workflow over
// HTTP.
package api

import (
	"context"
	"net/http"

	"fjacquet/txledger/internal/logging"
	"fjacquet/txledger/internal/metrics"
	"fjacquet/txledger/internal/models"
)

// Ingester ingests events.
type Ingester interface {
	Ingest(ctx context.Context, ev models.IngestEvent) (models.IngestResult, error)
	IngestBatch(ctx context.Context, events []models.IngestEvent) ([]models.IngestResult, *models.IngestStats)
}

// SuggestionGenerator runs batch classification.
type SuggestionGenerator interface {
	Generate(ctx context.Context, req models.BatchRequest) (models.BatchResult, error)
}

// Reviewer applies human decisions on suggestions.
type Reviewer interface {
	AcceptSuggestion(ctx context.Context, orgID, suggestionID string) (*models.Transaction, error)
	RejectSuggestion(ctx context.Context, orgID, suggestionID string) error
}

// Pinger reports database health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds the HTTP handlers.
type Server struct {
	ingester  Ingester
	generator SuggestionGenerator
	reviewer  Reviewer
	db        Pinger
	metrics   *metrics.Metrics
	logger    logging.Logger
}

// NewServer creates a Server. m may be nil, in which case /metrics is not
// served.
func NewServer(ingester Ingester, generator SuggestionGenerator, reviewer Reviewer, db Pinger, m *metrics.Metrics, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Server{
		ingester:  ingester,
		generator: generator,
		reviewer:  reviewer,
		db:        db,
		metrics:   m,
		logger:    logger.WithField(logging.FieldComponent, "api"),
	}
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	s.route(mux, "POST /api/v1/ingest", s.handleIngest)
	s.route(mux, "POST /api/v1/ingest/batch", s.handleIngestBatch)
	s.route(mux, "POST /api/v1/classify", s.handleClassify)
	s.route(mux, "POST /api/v1/suggestions/{id}/accept", s.handleAccept)
	s.route(mux, "POST /api/v1/suggestions/{id}/reject", s.handleReject)
	s.route(mux, "GET /health", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	var h http.Handler = mux
	h = Logger(s.logger)(h)
	h = Recovery(s.logger)(h)
	h = RequestID(h)
	return h
}

func (s *Server) route(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, instrument(s.metrics, pattern, h))
}
