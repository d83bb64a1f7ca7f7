package sales_velocity

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/andresuchdata/salesvelocity/internal/domain"
	"github.com/andresuchdata/salesvelocity/internal/pipeline"
	"github.com/andresuchdata/salesvelocity/internal/workbook"
	"github.com/andresuchdata/salesvelocity/pkg/logger"
)

// LoadInput reads the three configured sheets from wb.
func LoadInput(wb *workbook.Workbook, cfg Config) (Input, error) {
	cfg = cfg.withDefaults()

	var in Input
	var err error
	if in.Sales, err = wb.Sheet(cfg.SalesSheet); err != nil {
		return Input{}, err
	}
	if in.Profit, err = wb.Sheet(cfg.ProfitSheet); err != nil {
		return Input{}, err
	}
	if in.Inventory, err = wb.Sheet(cfg.InventorySheet); err != nil {
		return Input{}, err
	}
	return in, nil
}

// Build runs every stage over in and returns the assembled report.
// It is a pure function of its inputs.
func Build(in Input, cfg Config) (*domain.Report, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sales, err := NormalizeSales(in.Sales)
	if err != nil {
		return nil, err
	}
	profit, err := NormalizeProfit(in.Profit)
	if err != nil {
		return nil, err
	}
	inventory, err := ReduceInventory(in.Inventory)
	if err != nil {
		return nil, err
	}

	logger.Log.Debug().
		Int("sales", len(sales)).
		Int("profit", len(profit)).
		Int("inventory", len(inventory)).
		Msg("normalized input sheets")

	combined, combineStats := Combine(sales, profit)
	velocity := EstimateVelocity(combined, cfg.VelocityWindow)
	trend := Smooth(combined, cfg.TrendWindow)
	statuses := ClassifyInventory(inventory, velocity, NewRestockCalculator(cfg.Thresholds))
	rows, reportStats := AssembleReport(trend, combined, velocity)

	joins := append([]domain.JoinStats{combineStats}, reportStats...)
	for _, s := range joins {
		logger.Log.Info().
			Str("join", s.Name).
			Int("left", s.Left).
			Int("right", s.Right).
			Int("matched", s.Matched).
			Int("dropped_left", s.DroppedLeft).
			Int("dropped_right", s.DroppedRight).
			Int("dropped", s.Dropped()).
			Msg("inner join")
	}

	return &domain.Report{
		Combined:  combined,
		Velocity:  velocity,
		Trend:     trend,
		Inventory: inventory,
		Statuses:  statuses,
		Rows:      rows,
		Joins:     joins,
	}, nil
}

// BuildFromWorkbook loads the configured sheets and builds the report.
func BuildFromWorkbook(wb *workbook.Workbook, cfg Config) (*domain.Report, error) {
	in, err := LoadInput(wb, cfg)
	if err != nil {
		return nil, err
	}
	return Build(in, cfg)
}

// SalesVelocityPipeline implements the generic pipeline.Pipeline interface for sales workbooks.
type SalesVelocityPipeline struct {
	config Config
}

// NewSalesVelocityPipeline creates a new sales velocity pipeline instance.
func NewSalesVelocityPipeline(cfg Config) *SalesVelocityPipeline {
	return &SalesVelocityPipeline{config: cfg.withDefaults()}
}

// Name returns the unique identifier of this pipeline.
func (p *SalesVelocityPipeline) Name() string {
	return "sales_velocity"
}

// GetOutputTables returns the views written per snapshot date.
func (p *SalesVelocityPipeline) GetOutputTables() []pipeline.OutputTable {
	return []pipeline.OutputTable{
		{Name: TableSalesDetail, Columns: []string{
			"source", "date", "asin", "product_name", "sales", "gross_profit",
		}},
		{Name: TableInventoryStatus, Columns: []string{
			"source", "date", "asin", "product_name", "total_on_hand", "sales",
			"daily_retail_rate", "days_of_inventory", "restocking_recommendation",
		}},
		{Name: TableSalesReport, Columns: []string{
			"source", "date", "asin", "product_name", "sales", "gross_profit",
			"daily_retail_rate", "sales_moving_average", "gross_profit_moving_average",
		}},
	}
}

// GetSnapshotDate takes the date from the filename prefix (InputDateFormat), falling
// back to the file's modification date when the name carries none.
func (p *SalesVelocityPipeline) GetSnapshotDate(filename string) (time.Time, error) {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	layout := p.config.InputDateFormat
	if len(base) >= len(layout) {
		if t, err := time.Parse(layout, base[:len(layout)]); err == nil {
			return t, nil
		}
	}

	info, err := os.Stat(filename)
	if err != nil {
		return time.Time{}, fmt.Errorf("filename %s has no %s date prefix and cannot be stat'ed: %w", filename, layout, err)
	}
	mod := info.ModTime()
	return time.Date(mod.Year(), mod.Month(), mod.Day(), 0, 0, 0, 0, time.UTC), nil
}

// Validate performs basic validation on the input file.
func (p *SalesVelocityPipeline) Validate(inputFile string) error {
	info, err := os.Stat(inputFile)
	if err != nil {
		return fmt.Errorf("cannot stat input file %s: %w", inputFile, err)
	}
	if info.IsDir() {
		return fmt.Errorf("input path %s is a directory, expected file", inputFile)
	}
	ext := strings.ToLower(filepath.Ext(inputFile))
	if ext != ".xlsx" {
		return fmt.Errorf("unsupported file extension %s for %s (only XLSX supported)", ext, inputFile)
	}
	return nil
}

// Transform builds the report of one workbook and flattens its views into table rows.
func (p *SalesVelocityPipeline) Transform(ctx context.Context, inputFile string) ([]pipeline.TransformedRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	wb, err := workbook.Open(inputFile)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	report, err := BuildFromWorkbook(wb, p.config)
	if err != nil {
		return nil, fmt.Errorf("failed to build report for %s: %w", filepath.Base(inputFile), err)
	}

	return ReportTableRows(filepath.Base(inputFile), report), nil
}

// ReportTableRows flattens the report views into rows tagged with their output table.
func ReportTableRows(source string, report *domain.Report) []pipeline.TransformedRow {
	details := SalesDetails(report.Velocity)
	out := make([]pipeline.TransformedRow, 0, len(details)+len(report.Statuses)+len(report.Rows))

	for _, d := range details {
		out = append(out, pipeline.TransformedRow{Table: TableSalesDetail, Data: map[string]interface{}{
			"source":       source,
			"date":         formatDate(d.Date),
			"asin":         d.ASIN,
			"product_name": d.ProductName,
			"sales":        formatNumber(d.Sales),
			"gross_profit": formatNumber(d.GrossProfit),
		}})
	}

	for _, s := range report.Statuses {
		out = append(out, pipeline.TransformedRow{Table: TableInventoryStatus, Data: map[string]interface{}{
			"source":                    source,
			"date":                      formatDate(s.Date),
			"asin":                      s.ASIN,
			"product_name":              s.ProductName,
			"total_on_hand":             formatNumber(s.TotalOnHand),
			"sales":                     s.Sales.String(),
			"daily_retail_rate":         s.DailyRetailRate.String(),
			"days_of_inventory":         s.DaysOfInventory.String(),
			"restocking_recommendation": string(s.RestockingRecommendation),
		}})
	}

	for _, r := range report.Rows {
		out = append(out, pipeline.TransformedRow{Table: TableSalesReport, Data: map[string]interface{}{
			"source":                      source,
			"date":                        formatDate(r.Date),
			"asin":                        r.ASIN,
			"product_name":                r.ProductName,
			"sales":                       formatNumber(r.Sales),
			"gross_profit":                formatNumber(r.GrossProfit),
			"daily_retail_rate":           formatNumber(r.DailyRetailRate),
			"sales_moving_average":        r.SalesMovingAverage.String(),
			"gross_profit_moving_average": r.GrossProfitMovingAverage.String(),
		}})
	}

	return out
}
