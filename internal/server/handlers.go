package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/invopop/jsonschema"

	"github.com/ppiankov/symptia/internal/history"
	"github.com/ppiankov/symptia/internal/model"
	"github.com/ppiankov/symptia/internal/pipeline"
)

// ExtractResponse is the body of POST /api/extract
type ExtractResponse struct {
	Tags                 []model.SymptomTag   `json:"tags"`
	Context              model.SymptomContext `json:"context"`
	ExtractionConfidence float64              `json:"extraction_confidence"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleConditions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.pipeline.KnowledgeBase().Conditions())
}

func (s *Server) handleQuickPicks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"quick_picks": s.pipeline.KnowledgeBase().QuickPicks()})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeIntake(w, r)
	if !ok {
		return
	}

	report, err := s.pipeline.Analyze(r.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrUnknownQuickPick):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			writeError(w, http.StatusServiceUnavailable, err.Error())
		default:
			slog.ErrorContext(r.Context(), "analysis failed", "error", err)
			writeError(w, http.StatusInternalServerError, "analysis failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeIntake(w, r)
	if !ok {
		return
	}

	report, err := s.pipeline.Extract(in)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ExtractResponse{
		Tags:                 report.Tags,
		Context:              report.Context,
		ExtractionConfidence: report.ExtractionConfidence,
	})
}

func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	repo := s.pipeline.History()
	if repo == nil {
		writeError(w, http.StatusServiceUnavailable, "history is disabled")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	reports, err := repo.List(r.Context(), limit)
	if err != nil {
		slog.ErrorContext(r.Context(), "list analyses failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list analyses")
		return
	}
	if reports == nil {
		reports = []*model.Report{}
	}

	writeJSON(w, http.StatusOK, reports)
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	repo := s.pipeline.History()
	if repo == nil {
		writeError(w, http.StatusServiceUnavailable, "history is disabled")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid analysis ID")
		return
	}

	report, err := repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "get analysis failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load analysis")
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Schemas())
}

// Schemas describes the request and response bodies of the API
func Schemas() map[string]*jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	return map[string]*jsonschema.Schema{
		"intake":  reflector.Reflect(&model.Intake{}),
		"report":  reflector.Reflect(&model.Report{}),
		"extract": reflector.Reflect(&ExtractResponse{}),
	}
}

func decodeIntake(w http.ResponseWriter, r *http.Request) (model.Intake, bool) {
	var in model.Intake
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return in, false
	}
	return in, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
