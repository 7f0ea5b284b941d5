package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dunamismax/subflow/internal/api"
	"github.com/dunamismax/subflow/internal/config"
	"github.com/dunamismax/subflow/internal/media"
	"github.com/dunamismax/subflow/internal/pipeline"
	"github.com/dunamismax/subflow/internal/ratelimit"
	"github.com/dunamismax/subflow/internal/storage"
	"github.com/dunamismax/subflow/internal/store"
	"github.com/dunamismax/subflow/internal/subtitle"
	"github.com/dunamismax/subflow/internal/telemetry"
	"github.com/dunamismax/subflow/internal/transcribe"
	"github.com/dunamismax/subflow/internal/webhook"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmsgprefix)

	ctx := context.Background()

	shutdownTracing, err := telemetry.SetupTracing(ctx, telemetry.TraceConfig{
		ServiceName:  cfg.Trace.ServiceName,
		Exporter:     cfg.Trace.Exporter,
		OTLPEndpoint: cfg.Trace.OTLPEndpoint,
		OTLPInsecure: cfg.Trace.OTLPInsecure,
	}, logger)
	if err != nil {
		logger.Fatalf("tracing setup failed: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Printf("tracing shutdown error: %v", err)
		}
	}()

	jobStore, err := store.NewFileJobStore(cfg.Pipeline.JobsFile, logger)
	if err != nil {
		logger.Fatalf("open job store: %v", err)
	}

	app := api.NewServer(logger, jobStore, cfg.Server.UploadDir)

	var archiver pipeline.ResultArchiver
	if cfg.Storage.ArchiveResults {
		storageClient, err := storage.NewClient(storage.Config{
			Endpoint: cfg.Storage.Endpoint,
			Access:   cfg.Storage.AccessKey,
			Secret:   cfg.Storage.SecretKey,
			Bucket:   cfg.Storage.Bucket,
			UseSSL:   cfg.Storage.UseSSL,
		})
		if err != nil {
			logger.Fatalf("storage client setup failed: %v", err)
		}
		bucketCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := storageClient.EnsureBucket(bucketCtx); err != nil {
			cancel()
			logger.Fatalf("ensure bucket %s: %v", storageClient.Bucket(), err)
		}
		cancel()
		archiver = storageClient
		logger.Printf("result archival enabled bucket=%s", storageClient.Bucket())
	}

	orchestrator, err := pipeline.NewOrchestrator(pipeline.Config{
		Logger:        logger,
		Jobs:          jobStore,
		Extractor:     media.NewExtractor(cfg.Pipeline.FFmpegBinary),
		Transcriber:   transcribe.NewService(transcribe.Config{Binary: cfg.Whisper.Binary, Model: cfg.Whisper.Model}),
		Formatter:     subtitle.SRTFormatter{},
		WorkDir:       cfg.Pipeline.WorkDir,
		OutputDir:     cfg.Pipeline.OutputDir,
		MaxActiveJobs: cfg.Pipeline.MaxActiveJobs,
		Archiver:      archiver,
		Webhooks:      webhook.NewClient(webhook.Config{SigningSecret: cfg.Webhook.SigningSecret}),
		Metrics:       pipeline.NewMetrics(app.Registry()),
	})
	if err != nil {
		logger.Fatalf("pipeline setup failed: %v", err)
	}
	app.SetOrchestrator(orchestrator)

	if cfg.RateLimit.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RateLimit.RedisAddr,
			Password: cfg.RateLimit.RedisPassword,
			DB:       cfg.RateLimit.RedisDB,
		})
		limiter, err := ratelimit.NewTokenBucket(rdb, cfg.RateLimit.Capacity, cfg.RateLimit.Window, "subflow:ratelimit")
		if err != nil {
			logger.Fatalf("rate limiter setup failed: %v", err)
		}
		app.WithRateLimiter(limiter)
		logger.Printf("rate limiting enabled capacity=%d window=%s", cfg.RateLimit.Capacity, cfg.RateLimit.Window)
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      app.Handler(),
		// Media uploads can run into the gigabytes, so the read timeout is
		// generous compared to the response side.
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Printf("listening on %s max_active_jobs=%d", cfg.Server.Addr, cfg.Pipeline.MaxActiveJobs)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Println("shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	}
}
