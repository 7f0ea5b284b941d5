// Package api exposes the HTTP surface: media upload, job submission, status
// polling and result download.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dunamismax/subflow/internal/domain"
	"github.com/dunamismax/subflow/internal/id"
	"github.com/dunamismax/subflow/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Submissions are bounded; a media file larger than this is rejected
// up front rather than spooled to disk.
const maxUploadBytes = 2 << 30

type Dispatcher interface {
	Dispatch(jobID string, req domain.TranscribeRequest)
}

type Server struct {
	logger       *log.Logger
	jobStore     store.JobStore
	orchestrator Dispatcher
	uploadDir    string
	rateLimiter  RateLimiter
	metrics      *metrics
	tracer       trace.Tracer
	mux          *http.ServeMux
}

func NewServer(logger *log.Logger, jobStore store.JobStore, uploadDir string) *Server {
	s := &Server{
		logger:    logger,
		jobStore:  jobStore,
		uploadDir: uploadDir,
		metrics:   newMetrics(),
		tracer:    otel.Tracer("subflow/api"),
		mux:       http.NewServeMux(),
	}
	s.routes()
	return s
}

// SetOrchestrator binds the pipeline dispatcher. It is late-bound because the
// pipeline registers its metrics on this server's registry.
func (s *Server) SetOrchestrator(d Dispatcher) {
	s.orchestrator = d
}

// WithRateLimiter enables request throttling on mutating routes.
func (s *Server) WithRateLimiter(limiter RateLimiter) {
	s.rateLimiter = limiter
}

// Registry exposes the API's prometheus registry so other components (the
// pipeline) can register their collectors on the same /metrics endpoint.
func (s *Server) Registry() prometheus.Registerer {
	return s.metrics.registry
}

func (s *Server) Handler() http.Handler {
	return s.metrics.withHTTPMetrics(s.withTracing(s.withRateLimit(s.mux)))
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.Handle("GET /metrics", s.metrics.metricsHandler())
	s.mux.HandleFunc("POST /api/upload", s.handleUpload)
	s.mux.HandleFunc("POST /api/transcribe", s.handleTranscribe)
	s.mux.HandleFunc("GET /api/status/{jobID}", s.handleStatus)
	s.mux.HandleFunc("GET /api/download/{jobID}", s.handleDownload)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file field is required"})
		return
	}
	defer file.Close()

	fileID := id.New()
	filePath := filepath.Join(s.uploadDir, fileID+filepath.Ext(header.Filename))
	if err := s.saveUpload(file, filePath); err != nil {
		s.logger.Printf("save upload failed file_id=%s err=%v", fileID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to store uploaded file"})
		return
	}

	s.metrics.uploadsTotal.Inc()
	writeJSON(w, http.StatusOK, map[string]string{
		"file_id":           fileID,
		"file_path":         filePath,
		"original_filename": header.Filename,
	})
}

func (s *Server) saveUpload(file multipart.File, dest string) error {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create upload file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		os.Remove(dest)
		return fmt.Errorf("write upload file: %w", err)
	}
	return nil
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	req := domain.TranscribeRequest{
		FilePath:         strings.TrimSpace(r.FormValue("file_path")),
		Language:         strings.TrimSpace(r.FormValue("language")),
		Mode:             strings.ToLower(strings.TrimSpace(r.FormValue("mode"))),
		OriginalFilename: strings.TrimSpace(r.FormValue("original_filename")),
		WebhookURL:       strings.TrimSpace(r.FormValue("webhook_url")),
	}
	if raw := strings.TrimSpace(r.FormValue("words_per_line")); raw != "" {
		wordsPerLine, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "words_per_line must be an integer"})
			return
		}
		req.WordsPerLine = wordsPerLine
	}

	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if _, err := os.Stat(req.FilePath); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("media file is missing: %s", req.FilePath)})
		return
	}

	now := time.Now().UTC()
	job := domain.Job{
		ID:               id.New(),
		Status:           domain.JobStatusPending,
		Message:          "Queued",
		Progress:         0,
		Language:         req.Language,
		Mode:             req.Mode,
		WordsPerLine:     req.WordsPerLine,
		OriginalFilename: req.OriginalFilename,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if s.orchestrator == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "pipeline is unavailable"})
		return
	}

	if err := s.jobStore.Create(r.Context(), job); err != nil {
		s.logger.Printf("create job failed job_id=%s err=%v", job.ID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create job"})
		return
	}

	s.orchestrator.Dispatch(job.ID, req)
	s.metrics.jobsSubmitted.Inc()

	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": job.ID})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("jobID")
	job, ok, err := s.jobStore.Get(r.Context(), jobID)
	if err != nil {
		s.logger.Printf("fetch job failed job_id=%s err=%v", jobID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load job"})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("jobID")
	job, ok, err := s.jobStore.Get(r.Context(), jobID)
	if err != nil {
		s.logger.Printf("fetch job failed job_id=%s err=%v", jobID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load job"})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
		return
	}
	if job.Status != domain.JobStatusCompleted {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "job not completed"})
		return
	}
	if _, err := os.Stat(job.ResultPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "result file missing from storage"})
			return
		}
		s.logger.Printf("stat result failed job_id=%s err=%v", jobID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to read result"})
		return
	}

	downloadName := job.ResultName
	if downloadName == "" {
		downloadName = "subtitles.srt"
	}
	w.Header().Set("Content-Type", "application/x-subrip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", downloadName))
	http.ServeFile(w, r, job.ResultPath)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
