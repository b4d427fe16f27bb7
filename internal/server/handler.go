package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/san-kum/vsmkit/internal/analyzer"
	"github.com/san-kum/vsmkit/internal/loop"
	"github.com/san-kum/vsmkit/internal/report"
	"github.com/san-kum/vsmkit/internal/storage"
	"github.com/san-kum/vsmkit/internal/vsmfile"
)

const MaxBodySize = 32 << 20

// TraceInput is one loop in a request: either a raw measurement-ordered
// trace, the text of a VSM export file, or an already split loop.
type TraceInput struct {
	Points      loop.Trace `json:"points,omitempty"`
	File        string     `json:"file,omitempty"`
	HeaderLines *int       `json:"header_lines,omitempty"`
	Up          loop.Trace `json:"up,omitempty"`
	Down        loop.Trace `json:"down,omitempty"`
}

type AnalyzeRequest struct {
	Name string `json:"name"`
	Axis string `json:"axis"`
	TraceInput
}

type SampleRequest struct {
	Name string      `json:"name"`
	Easy *TraceInput `json:"easy,omitempty"`
	Hard *TraceInput `json:"hard,omitempty"`
}

type SampleResponse struct {
	report.ExportSample
	RunID string `json:"run_id,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type Handler struct {
	Analyzer    *analyzer.Analyzer
	Store       *storage.Store
	HeaderLines int
	Logger      *slog.Logger
}

// NewHandler serves analyses with a. When st is non-nil, sample analyses
// requested with ?store=true are saved to it.
func NewHandler(a *analyzer.Analyzer, st *storage.Store, headerLines int) *Handler {
	return &Handler{Analyzer: a, Store: st, HeaderLines: headerLines, Logger: slog.Default()}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.HealthCheck)
	r.Post("/api/analyze", h.AnalyzeLoop)
	r.Post("/api/analyze/sample", h.AnalyzeSample)
	r.Post("/api/plot", h.PlotLoop)
	r.Get("/api/runs", h.ListRuns)
	r.Get("/api/runs/{id}", h.GetRun)
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("OK"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// raw returns the measurement-ordered trace of a raw or file input; split
// is true when the input carries pre-split branches instead.
func (h *Handler) raw(in TraceInput) (t loop.Trace, split bool, err error) {
	switch {
	case len(in.Points) > 0:
		return in.Points, false, nil
	case in.File != "":
		header := h.HeaderLines
		if in.HeaderLines != nil {
			header = *in.HeaderLines
		}
		t, err = vsmfile.Read(strings.NewReader(in.File), header)
		return t, false, err
	case len(in.Up) > 0 || len(in.Down) > 0:
		return nil, true, nil
	}
	return nil, false, errors.New("no loop data: set points, file, or up and down")
}

func (h *Handler) analyze(r *http.Request, in TraceInput, axis loop.Axis) (*analyzer.AxisResult, error) {
	t, split, err := h.raw(in)
	if err != nil {
		return nil, err
	}
	if split {
		res, _ := h.Analyzer.Analyze(r.Context(), loop.NewLoop(in.Up, in.Down), axis)
		return res, nil
	}
	res, _ := h.Analyzer.AnalyzeRaw(r.Context(), t, axis)
	return res, nil
}

// AnalyzeLoop analyses one loop. A loop that cannot be analysed is answered
// with 422 and the per-axis error in the body.
func (h *Handler) AnalyzeLoop(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	axis, err := loop.ParseAxis(req.Axis)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := h.analyze(r, req.TraceInput, axis)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	status := http.StatusOK
	if !res.OK() {
		h.Logger.Warn("analysis failed", "name", req.Name, "axis", axis, "err", res.Err)
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, report.NewExportAxis(res))
}

// AnalyzeSample analyses both axes of a sample. Per-axis failures are
// reported inside the body; the request itself succeeds.
func (h *Handler) AnalyzeSample(w http.ResponseWriter, r *http.Request) {
	var req SampleRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Easy == nil && req.Hard == nil {
		writeError(w, http.StatusBadRequest, errors.New("sample has no easy or hard loop"))
		return
	}

	sample := loop.Sample{Name: req.Name}
	inputs := map[loop.Axis]*TraceInput{loop.Easy: req.Easy, loop.Hard: req.Hard}
	var presplit []loop.Axis
	for axis, in := range inputs {
		if in == nil {
			continue
		}
		t, split, err := h.raw(*in)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("%s axis: %w", axis, err))
			return
		}
		if split {
			presplit = append(presplit, axis)
			continue
		}
		if axis == loop.Hard {
			sample.Hard = t
		} else {
			sample.Easy = t
		}
	}

	out := h.Analyzer.AnalyzeSample(r.Context(), sample)
	for _, axis := range presplit {
		in := inputs[axis]
		res, _ := h.Analyzer.Analyze(r.Context(), loop.NewLoop(in.Up, in.Down), axis)
		if axis == loop.Hard {
			out.Hard = res
		} else {
			out.Easy = res
		}
	}

	for _, res := range []*analyzer.AxisResult{out.Easy, out.Hard} {
		if res != nil && !res.OK() {
			h.Logger.Warn("analysis failed", "name", req.Name, "axis", res.Axis, "err", res.Err)
		}
	}

	resp := SampleResponse{ExportSample: report.NewExportSample(out)}
	if h.Store != nil && r.URL.Query().Get("store") == "true" {
		id, err := h.Store.Save(out, h.Analyzer.Options())
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Errorf("store run: %w", err))
			return
		}
		resp.RunID = id
	}
	writeJSON(w, http.StatusOK, resp)
}

// PlotLoop analyses one loop and answers with its PNG plot.
func (h *Handler) PlotLoop(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	axis, err := loop.ParseAxis(req.Axis)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	res, err := h.analyze(r, req.TraceInput, axis)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !res.OK() {
		writeError(w, http.StatusUnprocessableEntity, res.Err)
		return
	}

	name := req.Name
	if name == "" {
		name = "loop"
	}
	w.Header().Set("Content-Type", "image/png")
	if err := report.WritePNG(w, name, res); err != nil {
		h.Logger.Error("plot failed", "name", name, "err", err)
	}
}

func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		writeError(w, http.StatusNotFound, errors.New("no run store configured"))
		return
	}
	runs, err := h.Store.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		writeError(w, http.StatusNotFound, errors.New("no run store configured"))
		return
	}
	meta, err := h.Store.Load(chi.URLParam(r, "id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, storage.ErrRunNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}
