package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"
)

// Orchestrator coordinates running a Pipeline over a set of local files grouped by snapshot date.
type Orchestrator struct {
	cfg   PipelineConfig
	flush FlushFunc
	makeW func(p Pipeline, cfg PipelineConfig, flush FlushFunc) *Worker
}

// NewOrchestrator creates a new Orchestrator. flush is called for every CSV the
// aggregator writes and may be nil.
func NewOrchestrator(cfg PipelineConfig, flush FlushFunc) *Orchestrator {
	return &Orchestrator{
		cfg:   cfg,
		flush: flush,
		makeW: NewWorker,
	}
}

// Run groups the provided files by snapshot date (using p.GetSnapshotDate) and
// runs a Worker batch for each date, oldest first. A failing date does not stop later ones.
func (o *Orchestrator) Run(ctx context.Context, p Pipeline, files []string) ([]*PipelineRun, error) {
	if len(files) == 0 {
		return nil, nil
	}

	// Group files by date
	byDate := make(map[time.Time][]string)
	for _, f := range files {
		date, err := p.GetSnapshotDate(f)
		if err != nil {
			return nil, fmt.Errorf("failed to get snapshot date for %s: %w", filepath.Base(f), err)
		}

		date = date.Truncate(24 * time.Hour)
		byDate[date] = append(byDate[date], f)
	}

	dates := make([]time.Time, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	worker := o.makeW(p, o.cfg, o.flush)

	var (
		runs []*PipelineRun
		errs []error
	)
	for _, date := range dates {
		run, err := worker.ProcessBatch(ctx, date, byDate[date])
		runs = append(runs, run)
		if err != nil {
			errs = append(errs, fmt.Errorf("batch for %s: %w", date.Format("2006-01-02"), err))
			if ctx.Err() != nil {
				break
			}
		}
	}

	return runs, errors.Join(errs...)
}
