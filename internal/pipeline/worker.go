package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/andresuchdata/salesvelocity/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// Worker processes files for a specific pipeline
type Worker struct {
	pipeline   Pipeline
	config     PipelineConfig
	aggregator *StreamingAggregator
	flush      FlushFunc
	mu         sync.Mutex
}

// NewWorker creates a new pipeline worker. flush may be nil.
func NewWorker(pipeline Pipeline, config PipelineConfig, flush FlushFunc) *Worker {
	return &Worker{
		pipeline: pipeline,
		config:   config,
		flush:    flush,
	}
}

// ProcessBatch processes a batch of files for a specific date. Each file is an
// independent run: a failing file is recorded on its job and does not stop the others.
// The returned run is always non-nil; the error joins every failed file.
func (w *Worker) ProcessBatch(ctx context.Context, date time.Time, files []string) (*PipelineRun, error) {
	log := logger.Log.With().Str("pipeline", w.pipeline.Name()).Str("date", date.Format("2006-01-02")).Logger()
	log.Info().Int("files", len(files)).Msg("starting batch processing")

	run := &PipelineRun{
		PipelineName: w.pipeline.Name(),
		Date:         date,
		Status:       StatusProcessing,
		TotalFiles:   len(files),
		StartedAt:    time.Now(),
	}

	w.aggregator = NewStreamingAggregator(w.pipeline, w.config, date, w.flush)

	run.Jobs = make([]*FileJob, len(files))
	for i, file := range files {
		run.Jobs[i] = &FileJob{FilePath: file, Status: FileStatusQueued}
	}

	jobErr := w.processFilesParallel(ctx, run, run.Jobs)
	if ctx.Err() != nil {
		return w.finish(run, ctx.Err()), ctx.Err()
	}

	// Finalize aggregation (flush remaining buffer)
	if err := w.aggregator.Finalize(ctx); err != nil {
		err = fmt.Errorf("failed to finalize aggregation: %w", err)
		return w.finish(run, errors.Join(jobErr, err)), errors.Join(jobErr, err)
	}

	w.finish(run, jobErr)
	log.Info().
		Int("processed", run.ProcessedFiles).
		Int("failed", run.TotalFiles-run.ProcessedFiles).
		Int("rows", run.TotalRows).
		Msg("batch processing completed")

	return run, jobErr
}

func (w *Worker) finish(run *PipelineRun, err error) *PipelineRun {
	now := time.Now()
	run.CompletedAt = &now
	if err != nil {
		run.Status = StatusFailed
		run.ErrorMessage = err.Error()
	} else {
		run.Status = StatusCompleted
	}
	return run
}

// processFilesParallel processes files using a bounded pool of goroutines
func (w *Worker) processFilesParallel(ctx context.Context, run *PipelineRun, jobs []*FileJob) error {
	workerCount := w.config.WorkerCount
	if workerCount < 1 {
		workerCount = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount)

	var (
		errMu sync.Mutex
		errs  []error
	)
	for _, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := w.processFile(gctx, run, job); err != nil {
				errMu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", job.FilePath, err))
				errMu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return errors.Join(errs...)
}

// processFile processes a single file
func (w *Worker) processFile(ctx context.Context, run *PipelineRun, job *FileJob) error {
	startTime := time.Now()
	w.setJobStatus(job, FileStatusProcessing, nil)

	logger.Log.Debug().Str("pipeline", w.pipeline.Name()).Str("file", job.FilePath).Msg("processing file")

	// Validate file
	if err := w.pipeline.Validate(job.FilePath); err != nil {
		return w.markJobFailed(job, fmt.Errorf("validation failed: %w", err))
	}

	// Transform file
	rows, err := w.pipeline.Transform(ctx, job.FilePath)
	if err != nil {
		return w.markJobFailed(job, fmt.Errorf("transformation failed: %w", err))
	}

	// Add to aggregator buffer
	if err := w.aggregator.AddFileData(ctx, rows); err != nil {
		return w.markJobFailed(job, fmt.Errorf("aggregation failed: %w", err))
	}

	w.mu.Lock()
	job.Rows = len(rows)
	job.Duration = time.Since(startTime)
	run.ProcessedFiles++
	run.TotalRows += len(rows)
	w.mu.Unlock()
	w.setJobStatus(job, FileStatusCompleted, nil)

	logger.Log.Info().
		Str("pipeline", w.pipeline.Name()).
		Str("file", job.FilePath).
		Dur("duration", job.Duration).
		Int("rows", len(rows)).
		Msg("file completed")

	return nil
}

func (w *Worker) setJobStatus(job *FileJob, status FileJobStatus, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	job.Status = status
	if err != nil {
		job.ErrorMessage = err.Error()
	}
	if status == FileStatusCompleted || status == FileStatusFailed {
		now := time.Now()
		job.ProcessedAt = &now
	}
}

// markJobFailed marks a job as failed and returns err
func (w *Worker) markJobFailed(job *FileJob, err error) error {
	w.setJobStatus(job, FileStatusFailed, err)
	logger.Log.Error().Err(err).Str("pipeline", w.pipeline.Name()).Str("file", job.FilePath).Msg("file failed")
	return err
}
