package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/andresuchdata/salesvelocity/internal/pipeline"
	"github.com/andresuchdata/salesvelocity/internal/pipeline/sales_velocity"
	"github.com/andresuchdata/salesvelocity/internal/storage"
	"github.com/rs/zerolog/log"
)

var (
	// ErrStorageDisabled is returned when an ingest needs object storage but none is configured.
	ErrStorageDisabled = errors.New("object storage is not configured")
	// ErrBatchInProgress is returned when another batch is still running.
	ErrBatchInProgress = errors.New("a batch is already running")
)

// BatchOptions configures where batch runs read workbooks and write CSVs.
type BatchOptions struct {
	OutputDir     string
	DownloadDir   string
	InputPrefix   string
	PublishPrefix string // empty disables publishing
	Workers       int
	BatchSize     int
}

// RunSummary is the outcome of one snapshot date.
type RunSummary struct {
	Date           string   `json:"date"`
	Status         string   `json:"status"`
	TotalFiles     int      `json:"total_files"`
	ProcessedFiles int      `json:"processed_files"`
	TotalRows      int      `json:"total_rows"`
	FailedFiles    []string `json:"failed_files,omitempty"`
	Error          string   `json:"error,omitempty"`
}

// BatchResult describes a finished batch.
type BatchResult struct {
	Files     []string     `json:"files"`
	Runs      []RunSummary `json:"runs"`
	Published []string     `json:"published,omitempty"`
	Duration  string       `json:"duration"`
}

// BatchService runs the sales velocity pipeline over many workbooks, one run per snapshot date.
type BatchService struct {
	pipeline *sales_velocity.SalesVelocityPipeline
	store    storage.ObjectStorage
	opts     BatchOptions
	running  sync.Mutex
}

// NewBatchService creates a batch service. store may be nil when only local inputs are used.
func NewBatchService(cfg sales_velocity.Config, store storage.ObjectStorage, opts BatchOptions) *BatchService {
	return &BatchService{
		pipeline: sales_velocity.NewSalesVelocityPipeline(cfg),
		store:    store,
		opts:     opts,
	}
}

// Ingest downloads every workbook under prefix (the configured input prefix when empty)
// and processes them.
func (s *BatchService) Ingest(ctx context.Context, prefix string) (*BatchResult, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}
	if !s.running.TryLock() {
		return nil, ErrBatchInProgress
	}
	defer s.running.Unlock()

	if prefix == "" {
		prefix = s.opts.InputPrefix
	}

	downloadDir := s.opts.DownloadDir
	if downloadDir == "" {
		downloadDir = filepath.Join(os.TempDir(), "salesvelocity")
	}
	if err := os.MkdirAll(downloadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure download dir %s: %w", downloadDir, err)
	}

	log.Info().Str("prefix", prefix).Str("dir", downloadDir).Msg("sales velocity: downloading workbooks")
	files, err := storage.FetchPrefix(ctx, s.store, prefix, ".xlsx", downloadDir)
	if err != nil {
		return nil, fmt.Errorf("fetch workbooks under %q: %w", prefix, err)
	}

	return s.run(ctx, files)
}

// RunFiles processes local workbooks.
func (s *BatchService) RunFiles(ctx context.Context, files []string) (*BatchResult, error) {
	if !s.running.TryLock() {
		return nil, ErrBatchInProgress
	}
	defer s.running.Unlock()

	return s.run(ctx, files)
}

func (s *BatchService) run(ctx context.Context, files []string) (*BatchResult, error) {
	start := time.Now()
	result := &BatchResult{Files: files, Runs: []RunSummary{}}
	if len(files) == 0 {
		log.Info().Msg("sales velocity: no workbooks to process")
		result.Duration = time.Since(start).String()
		return result, nil
	}

	pipeCfg := pipeline.DefaultPipelineConfig(s.pipeline.Name())
	if s.opts.OutputDir != "" {
		pipeCfg.OutputDir = s.opts.OutputDir
	}
	if s.opts.Workers > 0 {
		pipeCfg.WorkerCount = s.opts.Workers
	}
	if s.opts.BatchSize > 0 {
		pipeCfg.BatchSize = s.opts.BatchSize
	}

	var (
		publishMu sync.Mutex
		flush     pipeline.FlushFunc
	)
	if s.store != nil && s.opts.PublishPrefix != "" {
		flush = func(ctx context.Context, table, csvPath string) error {
			key, err := storage.PublishFile(ctx, s.store, s.opts.PublishPrefix, table, csvPath)
			if err != nil {
				return err
			}
			publishMu.Lock()
			result.Published = appendUnique(result.Published, key)
			publishMu.Unlock()
			return nil
		}
	}

	runs, err := pipeline.NewOrchestrator(pipeCfg, flush).Run(ctx, s.pipeline, files)
	for _, run := range runs {
		summary := summarizeRun(run)
		result.Runs = append(result.Runs, summary)
		log.Info().
			Str("date", summary.Date).
			Str("status", summary.Status).
			Int("files", summary.TotalFiles).
			Int("processed", summary.ProcessedFiles).
			Int("rows", summary.TotalRows).
			Msg("sales velocity: batch run")
	}
	result.Duration = time.Since(start).String()

	return result, err
}

func summarizeRun(run *pipeline.PipelineRun) RunSummary {
	summary := RunSummary{
		Date:           run.Date.Format("2006-01-02"),
		Status:         string(run.Status),
		TotalFiles:     run.TotalFiles,
		ProcessedFiles: run.ProcessedFiles,
		TotalRows:      run.TotalRows,
		Error:          run.ErrorMessage,
	}
	for _, job := range run.Jobs {
		if job.Status == pipeline.FileStatusFailed {
			summary.FailedFiles = append(summary.FailedFiles, filepath.Base(job.FilePath))
		}
	}
	return summary
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
