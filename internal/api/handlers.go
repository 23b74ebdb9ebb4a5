package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/leapstack-labs/leapgate/internal/analysis"
	"github.com/leapstack-labs/leapgate/internal/engine"
	"github.com/leapstack-labs/leapgate/internal/render"
	"github.com/leapstack-labs/leapgate/internal/schema"
	"github.com/leapstack-labs/leapgate/pkg/core"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Handlers provides the HTTP handlers of the gateway.
type Handlers struct {
	gateway Gateway
	logger  *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(gw Gateway, logger *slog.Logger) *Handlers {
	return &Handlers{gateway: gw, logger: logger}
}

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	SQL          string `json:"sql"`
	OutputFormat string `json:"output_format"`
	ChartType    string `json:"chart_type"`
	Title        string `json:"title"`
}

// AnalyzeRequest is the body of POST /analyze.
type AnalyzeRequest struct {
	SQL          string `json:"sql"`
	AnalysisType string `json:"analysis_type"`
	analysis.Params
}

type schemaResponse struct {
	Tables []schema.TableDescriptor `json:"tables"`
}

type analyzeResponse struct {
	Analysis map[string]any `json:"analysis"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	_ = writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Query executes SQL and writes the result as JSON, CSV or chart data.
func (h *Handlers) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	out, err := h.gateway.Query(r.Context(), engine.QueryRequest{
		SQL:       req.SQL,
		Format:    render.Format(req.OutputFormat),
		ChartType: req.ChartType,
		Title:     req.Title,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if out.Format == render.FormatCSV {
		w.Header().Set("Content-Type", out.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", out.Filename))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(out.Payload)
		return
	}
	h.respond(w, r, http.StatusOK, out.Data)
}

// Schema describes one table (table_name) or all tables.
func (h *Handlers) Schema(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	includeSample := strings.EqualFold(strings.TrimSpace(q.Get("include_sample")), "true")

	tables, err := h.gateway.Schema(r.Context(), q.Get("table_name"), includeSample)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, schemaResponse{Tables: tables})
}

// Analyze executes SQL and analyzes the result.
func (h *Handlers) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	result, err := h.gateway.Analyze(r.Context(), engine.AnalyzeRequest{
		SQL:    req.SQL,
		Mode:   analysis.Mode(req.AnalysisType),
		Params: req.Params,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, analyzeResponse{Analysis: result})
}

// fail logs err and reports it to the client as 400.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.WarnContext(r.Context(), "request failed",
		"request_id", middleware.GetReqID(r.Context()),
		"path", r.URL.Path,
		"error", err)
	_ = writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
}

// respond writes v as JSON. A value that cannot be encoded is reported
// through fail before anything is written.
func (h *Handlers) respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	if err := writeJSON(w, status, v); err != nil {
		h.fail(w, r, fmt.Errorf("failed to encode response: %w", err))
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return core.BadRequestf("invalid JSON body: %v", err)
	}
	return nil
}

// writeJSON encodes v before touching w, so an encoding error leaves the
// response unwritten.
func writeJSON(w http.ResponseWriter, status int, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(append(body, '\n'))
	return err
}
