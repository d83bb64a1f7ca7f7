package pipeline

import (
	"context"
	"time"
)

// Pipeline defines the interface that all data pipelines must implement
type Pipeline interface {
	// Name returns the unique identifier for this pipeline
	Name() string

	// Transform processes a single input file and returns the transformed data
	Transform(ctx context.Context, inputFile string) ([]TransformedRow, error)

	// GetOutputTables returns the tables the transformed rows are written to
	GetOutputTables() []OutputTable

	// GetSnapshotDate extracts the date from the filename
	GetSnapshotDate(filename string) (time.Time, error)

	// Validate checks if the input file is valid for this pipeline
	Validate(inputFile string) error
}

// OutputTable names an output table and fixes its column order.
type OutputTable struct {
	Name    string
	Columns []string
}

// TransformedRow represents a single row of transformed data destined for Table
type TransformedRow struct {
	Table string
	Data  map[string]interface{}
}

// PipelineConfig holds configuration for a pipeline instance
type PipelineConfig struct {
	Name           string
	BatchSize      int           // Number of files to buffer before flushing
	BatchSizeBytes int64         // Size in bytes to buffer before flushing
	FlushInterval  time.Duration // Max time to wait before flushing
	WorkerCount    int           // Number of concurrent workers
	OutputDir      string        // Directory for final aggregated CSVs
}

// DefaultPipelineConfig returns sensible defaults
func DefaultPipelineConfig(name string) PipelineConfig {
	return PipelineConfig{
		Name:           name,
		BatchSize:      5,
		BatchSizeBytes: 10 * 1024 * 1024, // 10MB
		FlushInterval:  5 * time.Minute,
		WorkerCount:    4,
		OutputDir:      "data/output/" + name,
	}
}

// PipelineStatus represents the current state of a pipeline run
type PipelineStatus string

const (
	StatusPending    PipelineStatus = "pending"
	StatusProcessing PipelineStatus = "processing"
	StatusCompleted  PipelineStatus = "completed"
	StatusFailed     PipelineStatus = "failed"
)

// FileJobStatus represents the state of a single file processing job
type FileJobStatus string

const (
	FileStatusQueued     FileJobStatus = "queued"
	FileStatusProcessing FileJobStatus = "processing"
	FileStatusCompleted  FileJobStatus = "completed"
	FileStatusFailed     FileJobStatus = "failed"
)

// PipelineRun tracks a single execution of a pipeline for a specific date
type PipelineRun struct {
	PipelineName   string
	Date           time.Time
	Status         PipelineStatus
	TotalFiles     int
	ProcessedFiles int
	TotalRows      int
	Jobs           []*FileJob
	StartedAt      time.Time
	CompletedAt    *time.Time
	ErrorMessage   string
}

// FileJob tracks the processing of a single file
type FileJob struct {
	FilePath     string
	Status       FileJobStatus
	Rows         int
	ErrorMessage string
	ProcessedAt  *time.Time
	Duration     time.Duration
}
