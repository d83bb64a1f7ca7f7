package pipeline

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/andresuchdata/salesvelocity/pkg/logger"
)

// FlushFunc is invoked after a table CSV has been written, e.g. to upload it.
type FlushFunc func(ctx context.Context, table, csvPath string) error

// StreamingAggregator buffers transformed data and flushes it in batches to one CSV per
// output table: OutputDir/<table>/<yyyymmdd>.csv. The first flush writes the header,
// later flushes of the same run append.
type StreamingAggregator struct {
	pipeline      Pipeline
	config        PipelineConfig
	date          time.Time
	tables        map[string]OutputTable
	buffer        [][]TransformedRow
	bufferSize    int64
	written       map[string]bool
	mu            sync.Mutex
	flushCallback FlushFunc
	lastFlush     time.Time
}

// NewStreamingAggregator creates a new streaming aggregator for a pipeline
func NewStreamingAggregator(
	pipeline Pipeline,
	config PipelineConfig,
	date time.Time,
	flushCallback FlushFunc,
) *StreamingAggregator {
	tables := make(map[string]OutputTable)
	for _, t := range pipeline.GetOutputTables() {
		tables[t.Name] = t
	}

	return &StreamingAggregator{
		pipeline:      pipeline,
		config:        config,
		date:          date,
		tables:        tables,
		buffer:        make([][]TransformedRow, 0, config.BatchSize),
		written:       make(map[string]bool),
		flushCallback: flushCallback,
		lastFlush:     time.Now(),
	}
}

// AddFileData adds transformed data from a single file to the buffer
func (sa *StreamingAggregator) AddFileData(ctx context.Context, rows []TransformedRow) error {
	sa.mu.Lock()
	defer sa.mu.Unlock()

	for _, row := range rows {
		if _, ok := sa.tables[row.Table]; !ok {
			return fmt.Errorf("unknown output table %q", row.Table)
		}
	}

	sa.buffer = append(sa.buffer, rows)

	// Rough estimate: 100 bytes per field
	for _, row := range rows {
		sa.bufferSize += int64(len(row.Data) * 100)
	}

	logger.Log.Debug().
		Str("pipeline", sa.pipeline.Name()).
		Int("files", len(sa.buffer)).
		Int64("bytes", sa.bufferSize).
		Msg("buffered file data")

	shouldFlush := (sa.config.BatchSize > 0 && len(sa.buffer) >= sa.config.BatchSize) ||
		(sa.config.BatchSizeBytes > 0 && sa.bufferSize >= sa.config.BatchSizeBytes) ||
		(sa.config.FlushInterval > 0 && time.Since(sa.lastFlush) >= sa.config.FlushInterval)

	if shouldFlush {
		return sa.flushLocked(ctx)
	}

	return nil
}

// Finalize flushes any remaining data
func (sa *StreamingAggregator) Finalize(ctx context.Context) error {
	sa.mu.Lock()
	defer sa.mu.Unlock()

	if len(sa.buffer) == 0 {
		logger.Log.Debug().Str("pipeline", sa.pipeline.Name()).Msg("no data to finalize")
		return nil
	}

	return sa.flushLocked(ctx)
}

// TablePath returns the CSV path of table for this aggregator's date.
func (sa *StreamingAggregator) TablePath(table string) string {
	return filepath.Join(sa.config.OutputDir, table, fmt.Sprintf("%s.csv", sa.date.Format("20060102")))
}

// flushLocked writes the current buffer to the table CSVs and triggers the callback.
// A table's rows leave the buffer once its CSV is written; on error only the tables
// not yet written are kept for the next flush, so no row is appended twice.
// Must be called with sa.mu locked
func (sa *StreamingAggregator) flushLocked(ctx context.Context) error {
	if len(sa.buffer) == 0 {
		return nil
	}

	byTable := make(map[string][]TransformedRow)
	for _, fileRows := range sa.buffer {
		for _, row := range fileRows {
			byTable[row.Table] = append(byTable[row.Table], row)
		}
	}

	names := make([]string, 0, len(byTable))
	for name := range byTable {
		names = append(names, name)
	}
	sort.Strings(names)

	sa.buffer = sa.buffer[:0]
	sa.bufferSize = 0

	for i, name := range names {
		rows := byTable[name]
		csvPath := sa.TablePath(name)
		if err := os.MkdirAll(filepath.Dir(csvPath), 0755); err != nil {
			sa.requeueLocked(names[i:], byTable)
			return fmt.Errorf("failed to create output directory: %w", err)
		}

		if err := sa.writeCSV(csvPath, sa.tables[name], rows, sa.written[name]); err != nil {
			sa.requeueLocked(names[i:], byTable)
			return fmt.Errorf("failed to write CSV for %s: %w", name, err)
		}
		sa.written[name] = true

		logger.Log.Info().
			Str("pipeline", sa.pipeline.Name()).
			Str("table", name).
			Int("rows", len(rows)).
			Str("path", csvPath).
			Msg("wrote table CSV")

		if sa.flushCallback != nil {
			if err := sa.flushCallback(ctx, name, csvPath); err != nil {
				sa.requeueLocked(names[i+1:], byTable)
				return fmt.Errorf("flush callback failed for %s: %w", name, err)
			}
		}
	}

	sa.lastFlush = time.Now()

	return nil
}

// requeueLocked puts the rows of tables that were not written back into the buffer.
func (sa *StreamingAggregator) requeueLocked(names []string, byTable map[string][]TransformedRow) {
	for _, name := range names {
		rows := byTable[name]
		sa.buffer = append(sa.buffer, rows)
		for _, row := range rows {
			sa.bufferSize += int64(len(row.Data) * 100)
		}
	}
}

// writeCSV writes rows in the table's column order, truncating the file unless appending.
func (sa *StreamingAggregator) writeCSV(path string, table OutputTable, rows []TransformedRow, appendRows bool) error {
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if appendRows {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	file, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if !appendRows {
		if err := writer.Write(table.Columns); err != nil {
			return err
		}
	}

	for _, row := range rows {
		record := make([]string, len(table.Columns))
		for i, col := range table.Columns {
			if val, ok := row.Data[col]; ok && val != nil {
				record[i] = fmt.Sprintf("%v", val)
			}
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// GetBufferStats returns current buffer statistics
func (sa *StreamingAggregator) GetBufferStats() (fileCount int, byteSize int64) {
	sa.mu.Lock()
	defer sa.mu.Unlock()
	return len(sa.buffer), sa.bufferSize
}
