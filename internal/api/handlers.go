package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"fjacquet/txledger/internal/ingesterror"
	"fjacquet/txledger/internal/ledger"
	"fjacquet/txledger/internal/logging"
	"fjacquet/txledger/internal/models"
)

const (
	maxEventBody = 1 << 20
	maxBatchBody = 16 << 20
)

// organization returns the trusted header value, falling back to the body.
func organization(r *http.Request, fromBody string) string {
	if org := strings.TrimSpace(r.Header.Get(HeaderOrganizationID)); org != "" {
		return org
	}
	return strings.TrimSpace(fromBody)
}

func decode(w http.ResponseWriter, r *http.Request, limit int64, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// ingestStatus maps an ingest outcome to an HTTP status code.
func ingestStatus(res models.IngestResult, err error) int {
	switch {
	case res.Status == models.StatusSuccess:
		return http.StatusCreated
	case res.Status == models.StatusSkipped:
		return http.StatusOK
	case ingesterror.IsMalformed(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// handleIngest handles POST /api/v1/ingest
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var ev models.IngestEvent
	if !decode(w, r, maxEventBody, &ev) {
		return
	}
	ev.OrganizationID = organization(r, ev.OrganizationID)

	res, err := s.ingester.Ingest(r.Context(), ev)
	WriteJSON(w, ingestStatus(res, err), res)
}

// handleIngestBatch handles POST /api/v1/ingest/batch
func (s *Server) handleIngestBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrganizationID string               `json:"organizationId"`
		Events         []models.IngestEvent `json:"events"`
	}
	if !decode(w, r, maxBatchBody, &req) {
		return
	}

	org := organization(r, req.OrganizationID)
	for i := range req.Events {
		if org != "" {
			req.Events[i].OrganizationID = org
		}
	}

	results, stats := s.ingester.IngestBatch(r.Context(), req.Events)
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"results":  results,
		"total":    stats.Total,
		"inserted": stats.Inserted,
		"skipped":  stats.Skipped,
		"failed":   stats.Failed,
	})
}

// handleClassify handles POST /api/v1/classify
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req models.BatchRequest
	if !decode(w, r, maxBatchBody, &req) {
		return
	}
	req.OrganizationID = organization(r, req.OrganizationID)

	result, err := s.generator.Generate(r.Context(), req)
	switch {
	case ingesterror.IsMalformed(err):
		WriteError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		s.logger.WithError(err).Error("Batch classification failed",
			logging.Field{Key: logging.FieldOrganizationID, Value: req.OrganizationID})
		WriteJSON(w, http.StatusInternalServerError, result)
	default:
		WriteJSON(w, http.StatusOK, result)
	}
}

// handleAccept handles POST /api/v1/suggestions/{id}/accept
func (s *Server) handleAccept(w http.ResponseWriter, r *http.Request) {
	org := organization(r, "")
	if org == "" {
		WriteError(w, http.StatusBadRequest, HeaderOrganizationID+" header is required")
		return
	}

	tx, err := s.reviewer.AcceptSuggestion(r.Context(), org, r.PathValue("id"))
	if err != nil {
		s.writeReviewError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, tx)
}

// handleReject handles POST /api/v1/suggestions/{id}/reject
func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	org := organization(r, "")
	if org == "" {
		WriteError(w, http.StatusBadRequest, HeaderOrganizationID+" header is required")
		return
	}

	if err := s.reviewer.RejectSuggestion(r.Context(), org, r.PathValue("id")); err != nil {
		s.writeReviewError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}

func (s *Server) writeReviewError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ingesterror.ErrNotFound):
		WriteError(w, http.StatusNotFound, "Suggestion not found")
	case errors.Is(err, ledger.ErrSuggestionClosed):
		WriteError(w, http.StatusConflict, "Suggestion already resolved or superseded")
	default:
		s.logger.WithError(err).Error("Failed to apply suggestion decision")
		WriteError(w, http.StatusInternalServerError, "Failed to apply decision")
	}
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "database": err.Error()})
			return
		}
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
