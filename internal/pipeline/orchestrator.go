// Package pipeline drives a job through its processing stages and owns the
// mapping of per-stage progress onto the job's overall progress bar.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dunamismax/subflow/internal/domain"
	"github.com/dunamismax/subflow/internal/store"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type AudioExtractor interface {
	ExtractAudio(ctx context.Context, source, dest string) error
}

type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, language, mode string, onProgress func(float64)) ([]domain.Segment, error)
}

type Formatter interface {
	Format(segments []domain.Segment, wordsPerLine int) string
}

// ResultArchiver optionally copies completed results to object storage.
type ResultArchiver interface {
	WriteObject(ctx context.Context, objectKey string, data []byte, contentType string) error
}

type WebhookSender interface {
	Send(ctx context.Context, endpoint, event string, payload any) error
}

// JobEvent is the payload delivered to a job's webhook endpoint on the
// job.completed and job.failed events.
type JobEvent struct {
	JobID      string    `json:"job_id"`
	Status     string    `json:"status"`
	Progress   int       `json:"progress"`
	ResultName string    `json:"result_name,omitempty"`
	Error      string    `json:"error,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Config struct {
	Logger        *log.Logger
	Jobs          store.JobStore
	Extractor     AudioExtractor
	Transcriber   Transcriber
	Formatter     Formatter
	WorkDir       string
	OutputDir     string
	MaxActiveJobs int
	Archiver      ResultArchiver
	Webhooks      WebhookSender
	Metrics       *Metrics
}

// Orchestrator runs one pipeline per submitted job in a background
// goroutine. Stages execute strictly sequentially within a job; concurrency
// exists only across jobs, bounded by a semaphore.
type Orchestrator struct {
	logger      *log.Logger
	jobs        store.JobStore
	extractor   AudioExtractor
	transcriber Transcriber
	formatter   Formatter
	workDir     string
	outputDir   string
	archiver    ResultArchiver
	webhooks    WebhookSender
	metrics     *Metrics
	tracer      trace.Tracer
	sem         chan struct{}
}

func NewOrchestrator(cfg Config) (*Orchestrator, error) {
	if cfg.Jobs == nil {
		return nil, fmt.Errorf("job store is required")
	}
	if cfg.Extractor == nil || cfg.Transcriber == nil || cfg.Formatter == nil {
		return nil, fmt.Errorf("all stage collaborators are required")
	}
	if strings.TrimSpace(cfg.OutputDir) == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = os.TempDir()
	}
	maxActive := cfg.MaxActiveJobs
	if maxActive < 1 {
		maxActive = 1
	}

	return &Orchestrator{
		logger:      cfg.Logger,
		jobs:        cfg.Jobs,
		extractor:   cfg.Extractor,
		transcriber: cfg.Transcriber,
		formatter:   cfg.Formatter,
		workDir:     cfg.WorkDir,
		outputDir:   cfg.OutputDir,
		archiver:    cfg.Archiver,
		webhooks:    cfg.Webhooks,
		metrics:     cfg.Metrics,
		tracer:      otel.Tracer("subflow/pipeline"),
		sem:         make(chan struct{}, maxActive),
	}, nil
}

// Dispatch starts the job's pipeline in the background and returns
// immediately. The job record must already exist in the store.
func (o *Orchestrator) Dispatch(jobID string, req domain.TranscribeRequest) {
	go o.run(context.Background(), jobID, req)
}

func (o *Orchestrator) run(ctx context.Context, jobID string, req domain.TranscribeRequest) {
	startedAt := time.Now()
	outcome := domain.JobStatusFailed

	ctx, span := o.tracer.Start(ctx, "pipeline.run", trace.WithSpanKind(trace.SpanKindInternal))
	span.SetAttributes(
		attribute.String("job.id", jobID),
		attribute.String("job.language", req.Language),
		attribute.String("job.mode", req.Mode),
	)
	defer span.End()

	if o.metrics != nil {
		defer func() {
			o.metrics.jobDuration.WithLabelValues(outcome).Observe(time.Since(startedAt).Seconds())
			o.metrics.jobsTotal.WithLabelValues(outcome).Inc()
		}()
	}

	// Nothing observes this goroutine; an escaped panic would silently drop
	// the job with no record of what happened.
	defer func() {
		if r := recover(); r != nil {
			span.SetStatus(codes.Error, "pipeline panicked")
			o.fail(ctx, jobID, req, fmt.Errorf("pipeline panicked: %v", r))
		}
	}()

	o.sem <- struct{}{}
	defer func() { <-o.sem }()
	if o.metrics != nil {
		o.metrics.activeJobs.Inc()
		defer o.metrics.activeJobs.Dec()
	}

	o.transition(ctx, jobID, domain.JobStatusProcessing, "Extracting audio...", progressExtracting)

	audioPath := filepath.Join(o.workDir, jobID+".wav")
	if err := o.extractor.ExtractAudio(ctx, req.FilePath, audioPath); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "extraction failed")
		o.fail(ctx, jobID, req, fmt.Errorf("extract audio: %w", err))
		return
	}
	defer os.Remove(audioPath)

	o.transition(ctx, jobID, domain.JobStatusProcessing, "Transcribing...", progressTranscribe)

	segments, err := o.transcriber.Transcribe(ctx, audioPath, req.Language, req.Mode, func(p float64) {
		if o.metrics != nil {
			o.metrics.progressEvents.Inc()
		}
		o.setProgress(ctx, jobID, mapTranscriptionProgress(p))
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transcription failed")
		o.fail(ctx, jobID, req, fmt.Errorf("transcribe: %w", err))
		return
	}

	o.transition(ctx, jobID, domain.JobStatusProcessing, "Generating subtitles...", progressFormatting)

	content := o.formatter.Format(segments, req.WordsPerLine)
	resultName := resultFilename(jobID, req.OriginalFilename)
	// The stored path always includes the job id so two jobs sharing an
	// original filename cannot collide on disk.
	resultDir := filepath.Join(o.outputDir, jobID)
	resultPath := filepath.Join(resultDir, resultName)

	if err := os.MkdirAll(resultDir, 0o755); err != nil {
		o.fail(ctx, jobID, req, fmt.Errorf("create result dir: %w", err))
		return
	}
	if err := os.WriteFile(resultPath, []byte(content), 0o644); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "result write failed")
		o.fail(ctx, jobID, req, fmt.Errorf("write result: %w", err))
		return
	}

	o.archive(ctx, jobID, resultName, content)

	job, err := o.jobs.Update(ctx, jobID, func(j *domain.Job) {
		if domain.IsTerminal(j.Status) {
			return
		}
		j.Status = domain.JobStatusCompleted
		j.Message = "Done"
		j.Progress = progressDone
		j.ResultPath = resultPath
		j.ResultName = resultName
	})
	if err != nil {
		o.logger.Printf("complete transition failed job_id=%s err=%v", jobID, err)
		return
	}

	outcome = domain.JobStatusCompleted
	span.SetStatus(codes.Ok, "completed")
	o.logger.Printf("job completed job_id=%s segments=%d result=%s", jobID, len(segments), resultPath)

	o.dispatchWebhook(ctx, req, "job.completed", JobEvent{
		JobID:      jobID,
		Status:     job.Status,
		Progress:   job.Progress,
		ResultName: job.ResultName,
		OccurredAt: job.UpdatedAt,
	})
}

// transition advances status, message and progress; terminal states absorb
// and progress never decreases.
func (o *Orchestrator) transition(ctx context.Context, jobID, status, message string, progress int) {
	_, err := o.jobs.Update(ctx, jobID, func(j *domain.Job) {
		if domain.IsTerminal(j.Status) {
			return
		}
		j.Status = status
		j.Message = message
		j.Progress = clampProgress(j.Progress, progress)
	})
	if err != nil {
		o.logger.Printf("transition failed job_id=%s status=%s err=%v", jobID, status, err)
	}
}

func (o *Orchestrator) setProgress(ctx context.Context, jobID string, progress int) {
	_, err := o.jobs.Update(ctx, jobID, func(j *domain.Job) {
		if domain.IsTerminal(j.Status) {
			return
		}
		j.Progress = clampProgress(j.Progress, progress)
	})
	if err != nil {
		o.logger.Printf("progress update failed job_id=%s err=%v", jobID, err)
	}
}

func (o *Orchestrator) fail(ctx context.Context, jobID string, req domain.TranscribeRequest, cause error) {
	o.logger.Printf("job failed job_id=%s err=%v", jobID, cause)
	job, err := o.jobs.Update(ctx, jobID, func(j *domain.Job) {
		if domain.IsTerminal(j.Status) {
			return
		}
		j.Status = domain.JobStatusFailed
		j.Message = cause.Error()
		j.Error = cause.Error()
	})
	if err != nil {
		o.logger.Printf("failed transition failed job_id=%s err=%v", jobID, err)
		return
	}

	o.dispatchWebhook(ctx, req, "job.failed", JobEvent{
		JobID:      jobID,
		Status:     job.Status,
		Progress:   job.Progress,
		Error:      job.Error,
		OccurredAt: job.UpdatedAt,
	})
}

func (o *Orchestrator) archive(ctx context.Context, jobID, resultName string, content string) {
	if o.archiver == nil {
		return
	}
	objectKey := fmt.Sprintf("results/%s/%s", jobID, resultName)
	if err := o.archiver.WriteObject(ctx, objectKey, []byte(content), "application/x-subrip"); err != nil {
		o.logger.Printf("result archive failed job_id=%s key=%s err=%v", jobID, objectKey, err)
	}
}

func (o *Orchestrator) dispatchWebhook(ctx context.Context, req domain.TranscribeRequest, event string, evt JobEvent) {
	if o.webhooks == nil || strings.TrimSpace(req.WebhookURL) == "" {
		return
	}
	if err := o.webhooks.Send(ctx, req.WebhookURL, event, evt); err != nil {
		o.logger.Printf("webhook delivery failed event=%s job_id=%s err=%v", event, evt.JobID, err)
	}
}

// resultFilename derives the download name from the original filename's stem
// when known, falling back to the job id.
func resultFilename(jobID, originalFilename string) string {
	stem := strings.TrimSpace(originalFilename)
	if stem != "" {
		stem = strings.TrimSuffix(filepath.Base(stem), filepath.Ext(stem))
	}
	if stem == "" {
		stem = jobID
	}
	return stem + ".srt"
}
