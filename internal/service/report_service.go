package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/andresuchdata/salesvelocity/internal/cache"
	"github.com/andresuchdata/salesvelocity/internal/domain"
	"github.com/andresuchdata/salesvelocity/internal/pipeline/sales_velocity"
	"github.com/andresuchdata/salesvelocity/internal/workbook"
	"github.com/rs/zerolog/log"
)

var (
	// ErrInvalidWorkbook is returned when an upload is not a readable XLSX workbook.
	ErrInvalidWorkbook = errors.New("invalid workbook")
	// ErrReportNotFound is returned when a report id is unknown or has expired from the cache.
	ErrReportNotFound = errors.New("report not found")
)

// SheetNames overrides the configured sheet names; empty fields keep the configured value.
type SheetNames struct {
	Sales     string
	Profit    string
	Inventory string
}

// ReportView is a built report together with its cache identity.
type ReportView struct {
	ID     string         `json:"id"`
	Cached bool           `json:"cached"`
	Report *domain.Report `json:"-"`
}

type ReportService struct {
	cfg   sales_velocity.Config
	cache cache.ReportCache
}

func NewReportService(cfg sales_velocity.Config, cacheImpl cache.ReportCache) *ReportService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopReportCache()
	}
	return &ReportService{cfg: cfg, cache: cacheImpl}
}

// Build returns the report for an uploaded workbook, reusing a cached report for identical input.
func (s *ReportService) Build(ctx context.Context, content []byte, sheets SheetNames) (*ReportView, error) {
	cfg := s.configFor(sheets)
	key := cache.ReportKey(content, cfg)

	if report, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		return &ReportView{ID: key, Cached: true, Report: report}, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("sales velocity: cache get report failed")
	}

	wb, err := workbook.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	defer wb.Close()

	report, err := sales_velocity.BuildFromWorkbook(wb, cfg)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, report); err != nil {
		log.Warn().Err(err).Msg("sales velocity: cache set report failed")
	}

	log.Info().
		Str("report", key).
		Int("rows", len(report.Rows)).
		Int("statuses", len(report.Statuses)).
		Msg("sales velocity: report built")

	return &ReportView{ID: key, Report: report}, nil
}

// Get loads a previously built report by id.
func (s *ReportService) Get(ctx context.Context, id string) (*ReportView, error) {
	report, ok, err := s.cache.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrReportNotFound
	}
	return &ReportView{ID: id, Cached: true, Report: report}, nil
}

// Delete drops a cached report.
func (s *ReportService) Delete(ctx context.Context, id string) error {
	removed, err := s.cache.Invalidate(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return ErrReportNotFound
	}
	log.Info().Str("report", id).Msg("sales velocity: report invalidated")
	return nil
}

// Purge drops every cached report and returns how many were removed.
func (s *ReportService) Purge(ctx context.Context) (int, error) {
	n, err := s.cache.InvalidateAll(ctx)
	if err != nil {
		return 0, err
	}
	log.Info().Int("removed", n).Msg("sales velocity: report cache purged")
	return n, nil
}

func (s *ReportService) configFor(sheets SheetNames) sales_velocity.Config {
	cfg := s.cfg
	if sheets.Sales != "" {
		cfg.SalesSheet = sheets.Sales
	}
	if sheets.Profit != "" {
		cfg.ProfitSheet = sheets.Profit
	}
	if sheets.Inventory != "" {
		cfg.InventorySheet = sheets.Inventory
	}
	return cfg
}

// SalesDetail returns the sales detail view filtered by q.
func (v *ReportView) SalesDetail(q domain.ReportQuery) []domain.SalesDetail {
	return sales_velocity.FilterSalesDetails(sales_velocity.SalesDetails(v.Report.Velocity), q)
}

// InventoryStatus returns the inventory status view filtered by q.
func (v *ReportView) InventoryStatus(q domain.ReportQuery) []domain.InventoryStatus {
	return sales_velocity.FilterInventoryStatuses(v.Report.Statuses, q)
}

// SalesOptions lists the filter choices of the sales detail view.
func (v *ReportView) SalesOptions(asin string) domain.Options {
	return sales_velocity.SalesOptions(sales_velocity.SalesDetails(v.Report.Velocity), asin)
}

// InventoryOptions lists the filter choices of the inventory status view.
func (v *ReportView) InventoryOptions(asin string) domain.Options {
	return sales_velocity.InventoryOptions(v.Report.Statuses, asin)
}
