// Package server exposes the question-answering pipeline over HTTP.
//
// The package serves four endpoints:
//
//   - GET  /health        — readiness probe; 503 until the pipeline is ready.
//   - POST /process_audio — raw int16 PCM in, JSON answer envelope out.
//   - GET  /greet         — fixed greeting with synthesized audio.
//   - GET  /metrics       — Prometheus scrape endpoint.
//
// Error responses are JSON objects with a top-level "error" field. Pipeline
// failures are mapped to status codes by kind: malformed audio is a 400, a
// closed readiness gate is a 503, and a terminal stage failure is a 500.
package server

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/internal/observe"
	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/internal/pipeline"
)

// defaultMaxBodyBytes caps /process_audio request bodies. Sixty seconds of
// 16 kHz mono int16 PCM is under 2 MiB; 16 MiB leaves generous headroom.
const defaultMaxBodyBytes = 16 << 20

// Server routes HTTP requests to a [pipeline.Coordinator]. Safe for
// concurrent use.
type Server struct {
	coordinator *pipeline.Coordinator
	metrics     *observe.Metrics
	maxBody     int64
}

// Option customizes a [Server].
type Option func(*Server)

// WithMaxBodyBytes overrides the request body size limit for /process_audio.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// New creates a [Server] for the given coordinator. A nil metrics falls back
// to [observe.DefaultMetrics].
func New(coordinator *pipeline.Coordinator, metrics *observe.Metrics, opts ...Option) *Server {
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	s := &Server{
		coordinator: coordinator,
		metrics:     metrics,
		maxBody:     defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the full route tree wrapped in the observability
// middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /process_audio", s.handleProcessAudio)
	mux.HandleFunc("GET /greet", s.handleGreet)
	mux.Handle("GET /metrics", promhttp.Handler())
	return observe.Middleware(s.metrics)(mux)
}

// healthResponse is the /health body.
type healthResponse struct {
	Status       string `json:"status"`
	ModelsLoaded bool   `json:"models_loaded"`
}

// handleHealth reports pipeline readiness. Readiness is monotonic: once this
// returns 200 it never flips back to 503.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if !s.coordinator.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "loading", ModelsLoaded: false})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "healthy", ModelsLoaded: true})
}

// processEnvelope is the /process_audio wire shape. It extends the pipeline
// response with the synthesized audio as a hex string, null when no backend
// produced speech.
type processEnvelope struct {
	*pipeline.Response
	Audio *string `json:"audio"`
}

// handleProcessAudio answers one spoken question. The request body is raw
// little-endian int16 mono PCM.
func (s *Server) handleProcessAudio(w http.ResponseWriter, r *http.Request) {
	pcm, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body: "+err.Error())
		return
	}
	if len(pcm) == 0 {
		writeError(w, http.StatusBadRequest, "no audio data received")
		return
	}

	resp, err := s.coordinator.Process(r.Context(), pcm)
	if err != nil {
		s.writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope(resp))
}

// greetEnvelope is the /greet wire shape.
type greetEnvelope struct {
	Message string  `json:"message"`
	Audio   *string `json:"audio"`
}

// handleGreet returns the fixed greeting. Available before the pipeline is
// ready so the robot can announce itself during startup.
func (s *Server) handleGreet(w http.ResponseWriter, r *http.Request) {
	resp := s.coordinator.Greet(r.Context())
	writeJSON(w, http.StatusOK, greetEnvelope{
		Message: resp.Response,
		Audio:   hexAudio(resp.Audio),
	})
}

// writePipelineError maps a pipeline failure to an HTTP status and JSON error
// body.
func (s *Server) writePipelineError(w http.ResponseWriter, err error) {
	var ingestion *pipeline.IngestionError
	var stage *pipeline.StageError

	switch {
	case errors.Is(err, pipeline.ErrNotReady):
		writeError(w, http.StatusServiceUnavailable, "models not loaded on server")
	case errors.As(err, &ingestion):
		writeError(w, http.StatusBadRequest, ingestion.Error())
	case errors.As(err, &stage):
		writeError(w, http.StatusInternalServerError, stage.Reason)
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// envelope converts a pipeline response to its wire shape.
func envelope(resp *pipeline.Response) processEnvelope {
	return processEnvelope{
		Response: resp,
		Audio:    hexAudio(resp.Audio),
	}
}

// hexAudio encodes WAV bytes as a hex string, nil (JSON null) when absent.
func hexAudio(wav []byte) *string {
	if len(wav) == 0 {
		return nil
	}
	s := hex.EncodeToString(wav)
	return &s
}

// writeError writes a JSON error body with the given status.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeJSON encodes v as JSON and writes it with the given status code. On
// encoding failure it falls back to a plain-text 500 response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error":"encoding failure"}`, http.StatusInternalServerError)
	}
}
