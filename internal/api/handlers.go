package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/txreport/txreport/internal/logger"
	"github.com/txreport/txreport/internal/mailer"
	"github.com/txreport/txreport/internal/month"
	"github.com/txreport/txreport/internal/pipeline"
	"github.com/txreport/txreport/internal/report"
)

type runRequest struct {
	Month     string `json:"month"`
	Input     string `json:"input"`
	SendEmail bool   `json:"send_email"`
}

// RunResponse is the body of POST /run and GET /runs/{id}.
type RunResponse struct {
	ID          string          `json:"id"`
	Status      string          `json:"status"`
	ReportPath  string          `json:"report_path,omitempty"`
	SummaryPath string          `json:"summary_path,omitempty"`
	Metrics     *report.Summary `json:"metrics,omitempty"`
	Email       *mailer.Result  `json:"email,omitempty"`
	Error       string          `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	// A malformed body is treated like an empty one.
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req = runRequest{}
	}
	if _, err := month.Parse(req.Month); err != nil {
		writeError(w, http.StatusBadRequest, month.ErrInvalidFormat.Error())
		return
	}
	input := req.Input
	if input == "" {
		input = s.opts.DefaultInput
	}

	out, err := s.runner.ProcessMonth(r.Context(), pipeline.Request{
		Month:     req.Month,
		Input:     input,
		Output:    s.opts.Output,
		SendEmail: req.SendEmail,
	})

	resp := RunResponse{ID: out.RunID, Status: pipeline.StatusFailed}
	if resp.ID == "" {
		resp.ID = uuid.NewString()
	}
	if err != nil {
		log.Error().Err(err).Str("month", req.Month).Msg("run failed")
		resp.Error = err.Error()
		s.remember(resp)
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}

	resp.Status = out.Status
	resp.ReportPath = out.ReportPath
	resp.SummaryPath = out.SummaryPath
	resp.Metrics = &out.Summary
	resp.Email = out.Email
	s.remember(resp)

	status := http.StatusOK
	if resp.Status != pipeline.StatusCompleted {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	v, ok := s.runs.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) remember(resp RunResponse) {
	s.runs.Set(resp.ID, resp, cache.DefaultExpiration)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
