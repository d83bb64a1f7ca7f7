package sales_velocity

import (
	"fmt"

	"github.com/andresuchdata/salesvelocity/internal/workbook"
)

// Source column names. Matching is case-, space- and punctuation-insensitive.
const (
	ColumnASIN        = "ASIN"
	ColumnProductName = "Product Name"

	ColumnInventoryASIN        = "asin"
	ColumnInventoryName        = "product-name"
	ColumnAvailable            = "available"
	ColumnReservedFCTransfer   = "Reserved FC Transfer"
	ColumnReservedFCProcessing = "Reserved FC Processing"
)

// Output tables written by the pipeline.
const (
	TableSalesDetail     = "sales_detail"
	TableInventoryStatus = "inventory_status"
	TableSalesReport     = "sales_report"
)

// Thresholds are the inclusive upper bounds (in days of inventory) of each restocking bucket.
type Thresholds struct {
	UrgentDays      float64
	RestockSoonDays float64
	MonitorDays     float64
}

// Config holds configuration for the sales velocity pipeline
type Config struct {
	SalesSheet     string
	ProfitSheet    string
	InventorySheet string

	VelocityWindow int // trailing window of the daily retail rate
	TrendWindow    int // centered window of the moving averages, must be odd

	Thresholds Thresholds

	InputDateFormat string // Date layout of the filename prefix in batch mode
}

// DefaultConfig returns the default sheet names, windows and thresholds.
func DefaultConfig() Config {
	return Config{
		SalesSheet:     "Sales",
		ProfitSheet:    "Profit",
		InventorySheet: "Inventory",
		VelocityWindow: 5,
		TrendWindow:    7,
		Thresholds: Thresholds{
			UrgentDays:      20,
			RestockSoonDays: 80,
			MonitorDays:     100,
		},
		InputDateFormat: "20060102",
	}
}

// withDefaults fills zero values from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.SalesSheet == "" {
		c.SalesSheet = d.SalesSheet
	}
	if c.ProfitSheet == "" {
		c.ProfitSheet = d.ProfitSheet
	}
	if c.InventorySheet == "" {
		c.InventorySheet = d.InventorySheet
	}
	if c.VelocityWindow == 0 {
		c.VelocityWindow = d.VelocityWindow
	}
	if c.TrendWindow == 0 {
		c.TrendWindow = d.TrendWindow
	}
	if c.Thresholds == (Thresholds{}) {
		c.Thresholds = d.Thresholds
	}
	if c.InputDateFormat == "" {
		c.InputDateFormat = d.InputDateFormat
	}
	return c
}

// Validate checks window sizes and threshold ordering.
func (c Config) Validate() error {
	if c.VelocityWindow < 1 {
		return fmt.Errorf("velocity window must be at least 1, got %d", c.VelocityWindow)
	}
	if c.TrendWindow < 1 || c.TrendWindow%2 == 0 {
		return fmt.Errorf("trend window must be a positive odd number, got %d", c.TrendWindow)
	}
	t := c.Thresholds
	if t.UrgentDays < 0 || t.UrgentDays > t.RestockSoonDays || t.RestockSoonDays > t.MonitorDays {
		return fmt.Errorf("restock thresholds must satisfy 0 <= urgent <= restock soon <= monitor, got %v/%v/%v",
			t.UrgentDays, t.RestockSoonDays, t.MonitorDays)
	}
	return nil
}

// Input is the set of sheets one run consumes.
type Input struct {
	Sales     workbook.Sheet
	Profit    workbook.Sheet
	Inventory workbook.Sheet
}
