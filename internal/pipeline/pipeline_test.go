package pipeline

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePipeline emits one "items" row per file; files whose name contains "bad" fail.
type fakePipeline struct{}

func (fakePipeline) Name() string { return "fake" }

func (fakePipeline) GetOutputTables() []OutputTable {
	return []OutputTable{
		{Name: "items", Columns: []string{"source", "value"}},
		{Name: "totals", Columns: []string{"source", "count"}},
	}
}

func (fakePipeline) GetSnapshotDate(filename string) (time.Time, error) {
	base := filepath.Base(filename)
	if len(base) < 8 {
		return time.Time{}, errors.New("no date")
	}
	return time.Parse("20060102", base[:8])
}

func (fakePipeline) Validate(inputFile string) error {
	if strings.Contains(inputFile, "invalid") {
		return errors.New("invalid file")
	}
	return nil
}

func (fakePipeline) Transform(ctx context.Context, inputFile string) ([]TransformedRow, error) {
	if strings.Contains(inputFile, "bad") {
		return nil, errors.New("boom")
	}
	base := filepath.Base(inputFile)
	return []TransformedRow{
		{Table: "items", Data: map[string]interface{}{"source": base, "value": "1"}},
		{Table: "totals", Data: map[string]interface{}{"source": base, "count": 1}},
	}, nil
}

type flushRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *flushRecorder) flush(ctx context.Context, table, csvPath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, table+"="+filepath.Base(csvPath))
	return nil
}

func testConfig(t *testing.T) PipelineConfig {
	cfg := DefaultPipelineConfig("fake")
	cfg.OutputDir = t.TempDir()
	cfg.BatchSize = 100
	cfg.WorkerCount = 2
	return cfg
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestWorker_ProcessBatch(t *testing.T) {
	cfg := testConfig(t)
	rec := &flushRecorder{}
	w := NewWorker(fakePipeline{}, cfg, rec.flush)
	date := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	run, err := w.ProcessBatch(context.Background(), date, []string{"20240105_a.xlsx", "20240105_b.xlsx"})
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, run.Status)
	assert.Equal(t, 2, run.TotalFiles)
	assert.Equal(t, 2, run.ProcessedFiles)
	assert.Equal(t, 4, run.TotalRows)
	require.NotNil(t, run.CompletedAt)
	for _, job := range run.Jobs {
		assert.Equal(t, FileStatusCompleted, job.Status)
		assert.Equal(t, 2, job.Rows)
	}

	items := readCSV(t, filepath.Join(cfg.OutputDir, "items", "20240105.csv"))
	require.Len(t, items, 3)
	assert.Equal(t, []string{"source", "value"}, items[0])

	totals := readCSV(t, filepath.Join(cfg.OutputDir, "totals", "20240105.csv"))
	require.Len(t, totals, 3)
	assert.Equal(t, "1", totals[1][1])

	assert.ElementsMatch(t, []string{"items=20240105.csv", "totals=20240105.csv"}, rec.calls)
}

func TestWorker_FailedFileDoesNotStopOthers(t *testing.T) {
	cfg := testConfig(t)
	w := NewWorker(fakePipeline{}, cfg, nil)
	date := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	run, err := w.ProcessBatch(context.Background(), date, []string{
		"20240105_a.xlsx", "20240105_bad.xlsx", "20240105_invalid.xlsx",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "20240105_bad.xlsx")
	assert.Contains(t, err.Error(), "validation failed")

	assert.Equal(t, StatusFailed, run.Status)
	assert.Equal(t, 1, run.ProcessedFiles)
	assert.Equal(t, FileStatusCompleted, run.Jobs[0].Status)
	assert.Equal(t, FileStatusFailed, run.Jobs[1].Status)
	assert.Contains(t, run.Jobs[1].ErrorMessage, "boom")
	require.NotNil(t, run.Jobs[1].ProcessedAt)

	items := readCSV(t, filepath.Join(cfg.OutputDir, "items", "20240105.csv"))
	assert.Len(t, items, 2)
}

func TestWorker_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run, err := NewWorker(fakePipeline{}, testConfig(t), nil).
		ProcessBatch(ctx, time.Now(), []string{"20240105_a.xlsx"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusFailed, run.Status)
}

func TestOrchestrator_GroupsByDate(t *testing.T) {
	cfg := testConfig(t)
	o := NewOrchestrator(cfg, nil)

	runs, err := o.Run(context.Background(), fakePipeline{}, []string{
		"20240106_a.xlsx", "20240105_a.xlsx", "20240105_b.xlsx",
	})
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "2024-01-05", runs[0].Date.Format("2006-01-02"))
	assert.Equal(t, 2, runs[0].TotalFiles)
	assert.Equal(t, "2024-01-06", runs[1].Date.Format("2006-01-02"))
	assert.Equal(t, 1, runs[1].TotalFiles)

	assert.FileExists(t, filepath.Join(cfg.OutputDir, "items", "20240105.csv"))
	assert.FileExists(t, filepath.Join(cfg.OutputDir, "items", "20240106.csv"))
}

func TestOrchestrator_ContinuesAfterFailedDate(t *testing.T) {
	o := NewOrchestrator(testConfig(t), nil)

	runs, err := o.Run(context.Background(), fakePipeline{}, []string{
		"20240105_bad.xlsx", "20240106_a.xlsx",
	})
	require.Error(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, StatusFailed, runs[0].Status)
	assert.Equal(t, StatusCompleted, runs[1].Status)
}

func TestOrchestrator_BadFilename(t *testing.T) {
	_, err := NewOrchestrator(testConfig(t), nil).Run(context.Background(), fakePipeline{}, []string{"x.xlsx"})
	assert.Error(t, err)

	runs, err := NewOrchestrator(testConfig(t), nil).Run(context.Background(), fakePipeline{}, nil)
	assert.NoError(t, err)
	assert.Empty(t, runs)
}

func TestStreamingAggregator_AppendsAcrossFlushes(t *testing.T) {
	cfg := testConfig(t)
	cfg.BatchSize = 1
	date := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	rec := &flushRecorder{}
	sa := NewStreamingAggregator(fakePipeline{}, cfg, date, rec.flush)
	ctx := context.Background()

	rows, err := fakePipeline{}.Transform(ctx, "20240201_a.xlsx")
	require.NoError(t, err)
	require.NoError(t, sa.AddFileData(ctx, rows))

	files, size := sa.GetBufferStats()
	assert.Zero(t, files)
	assert.Zero(t, size)

	rows, err = fakePipeline{}.Transform(ctx, "20240201_b.xlsx")
	require.NoError(t, err)
	require.NoError(t, sa.AddFileData(ctx, rows))
	require.NoError(t, sa.Finalize(ctx))

	items := readCSV(t, sa.TablePath("items"))
	assert.Equal(t, [][]string{
		{"source", "value"},
		{"20240201_a.xlsx", "1"},
		{"20240201_b.xlsx", "1"},
	}, items)
	assert.Len(t, rec.calls, 4)
}

func TestStreamingAggregator_UnknownTable(t *testing.T) {
	sa := NewStreamingAggregator(fakePipeline{}, testConfig(t), time.Now(), nil)

	err := sa.AddFileData(context.Background(), []TransformedRow{{Table: "nope"}})
	assert.Error(t, err)
}

func TestStreamingAggregator_FlushCallbackError(t *testing.T) {
	cfg := testConfig(t)
	sa := NewStreamingAggregator(fakePipeline{}, cfg, time.Now(), func(ctx context.Context, table, csvPath string) error {
		return errors.New("upload failed")
	})
	ctx := context.Background()

	rows, err := fakePipeline{}.Transform(ctx, "20240201_a.xlsx")
	require.NoError(t, err)
	require.NoError(t, sa.AddFileData(ctx, rows))

	err = sa.Finalize(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upload failed")
}

func TestStreamingAggregator_FailedCallbackDoesNotDuplicateRows(t *testing.T) {
	cfg := testConfig(t)
	cfg.BatchSize = 1

	var calls int
	sa := NewStreamingAggregator(fakePipeline{}, cfg, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		func(ctx context.Context, table, csvPath string) error {
			calls++
			if calls == 1 {
				return errors.New("upload failed")
			}
			return nil
		})
	ctx := context.Background()

	rows, err := fakePipeline{}.Transform(ctx, "20240201_a.xlsx")
	require.NoError(t, err)
	require.Error(t, sa.AddFileData(ctx, rows))

	files, _ := sa.GetBufferStats()
	assert.Equal(t, 1, files, "only the unwritten totals table stays buffered")

	require.NoError(t, sa.Finalize(ctx))
	require.NoError(t, sa.Finalize(ctx))

	assert.Equal(t, [][]string{
		{"source", "value"},
		{"20240201_a.xlsx", "1"},
	}, readCSV(t, sa.TablePath("items")))
	assert.Equal(t, [][]string{
		{"source", "count"},
		{"20240201_a.xlsx", "1"},
	}, readCSV(t, sa.TablePath("totals")))

	files, size := sa.GetBufferStats()
	assert.Zero(t, files)
	assert.Zero(t, size)
}

func TestStreamingAggregator_WriteErrorKeepsRows(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()
	sa := NewStreamingAggregator(fakePipeline{}, cfg, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), nil)

	rows, err := fakePipeline{}.Transform(ctx, "20240201_a.xlsx")
	require.NoError(t, err)
	require.NoError(t, sa.AddFileData(ctx, rows))

	// a directory where the items CSV should go makes its write fail
	require.NoError(t, os.MkdirAll(sa.TablePath("items"), 0o755))
	require.Error(t, sa.Finalize(ctx))

	files, _ := sa.GetBufferStats()
	assert.Equal(t, 2, files)

	require.NoError(t, os.Remove(sa.TablePath("items")))
	require.NoError(t, sa.Finalize(ctx))
	assert.Len(t, readCSV(t, sa.TablePath("items")), 2)
	assert.Len(t, readCSV(t, sa.TablePath("totals")), 2)
}
