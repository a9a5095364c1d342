package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dkagawa/budgetline/internal/jobs"
	"github.com/dkagawa/budgetline/internal/jobs/inmemory"
	"github.com/dkagawa/budgetline/internal/logger"
	"github.com/dkagawa/budgetline/internal/pipeline"
)

func main() {
	var (
		artifactBucket = flag.String("artifact-bucket", os.Getenv("GCS_ARTIFACT_BUCKET"), "GCS bucket for run artifacts (or set GCS_ARTIFACT_BUCKET env)")
	)
	flag.Parse()

	// Initialize logger
	log := logger.NewWithLevel(os.Getenv("LOG_LEVEL"))

	// Initialize job store and queue
	// In production, this would be replaced with Cloud Tasks or Pub/Sub
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	log.Info().Msg("Starting worker service")

	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	budgetPipeline := pipeline.NewBudgetProcessingPipeline()

	// Create job handler that processes parse jobs
	handler := func(ctx context.Context, job jobs.Job) error {
		parseJob, ok := job.(*jobs.ParseBudgetJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log.Info().
			Str("job_id", parseJob.JobID).
			Str("document_id", parseJob.DocumentID).
			Str("gcs_uri", parseJob.GCSURI).
			Msg("Processing parse job")

		// Execute the pipeline
		state := &pipeline.PipelineState{
			Request: pipeline.ProcessRequest{
				DocumentID:     parseJob.DocumentID,
				GCSURI:         parseJob.GCSURI,
				VetoGCSURI:     parseJob.VetoGCSURI,
				ArtifactBucket: *artifactBucket,
			},
		}
		if err := budgetPipeline.Execute(logger.WithContext(ctx, log), state); err != nil {
			log.Error().
				Err(err).
				Str("job_id", parseJob.JobID).
				Str("document_id", parseJob.DocumentID).
				Msg("Pipeline execution failed")
			return err
		}

		log.Info().
			Str("job_id", parseJob.JobID).
			Str("document_id", state.DocumentID).
			Str("parse_run_id", state.ParseRunID).
			Int("records", len(state.Collections.PreVeto)).
			Msg("Pipeline execution completed successfully")

		return nil
	}

	// Start consuming jobs
	if err := jobQueue.Start(ctx, handler); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	log.Info().Msg("Worker service started, waiting for jobs...")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker service...")

	// Cancel context to stop workers
	cancel()

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop the queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}

	// Close the queue
	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Worker service exited")
}
