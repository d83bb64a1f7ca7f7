package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/andresuchdata/salesvelocity/internal/domain"
	"github.com/andresuchdata/salesvelocity/internal/pipeline/sales_velocity"
	"github.com/andresuchdata/salesvelocity/internal/workbook"
	"github.com/andresuchdata/salesvelocity/pkg/logger"
	"github.com/urfave/cli/v2"
)

func runReport(c *cli.Context) error {
	cfg := configFromFlags(c)

	q, err := domain.ParseReportQuery(c.String("asin"), c.String("date"))
	if err != nil {
		return err
	}

	path := c.String("file")
	wb, err := workbook.Open(path)
	if err != nil {
		return err
	}
	defer wb.Close()

	report, err := sales_velocity.BuildFromWorkbook(wb, cfg)
	if err != nil {
		return fmt.Errorf("failed to build report for %s: %w", filepath.Base(path), err)
	}

	outputDir := c.String("output-dir")
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	details := sales_velocity.FilterSalesDetails(sales_velocity.SalesDetails(report.Velocity), q)
	detailPath := filepath.Join(outputDir, sales_velocity.TableSalesDetail+".csv")
	if err := writeCSV(detailPath, salesDetailRecords(details)); err != nil {
		return err
	}

	statuses := sales_velocity.FilterInventoryStatuses(report.Statuses, q)
	statusPath := filepath.Join(outputDir, sales_velocity.TableInventoryStatus+".csv")
	if err := writeCSV(statusPath, inventoryStatusRecords(statuses)); err != nil {
		return err
	}

	if drrPath := c.String("drr-csv"); drrPath != "" {
		sheet := sales_velocity.PivotVelocity(report.Velocity)
		if err := writeCSV(drrPath, append([][]string{sheet.Header}, sheet.Rows...)); err != nil {
			return err
		}
		logger.Log.Info().Str("path", drrPath).Int("products", len(sheet.Rows)).Msg("wrote daily retail rate table")
	}

	counts := make(map[domain.Recommendation]int)
	for _, s := range statuses {
		counts[s.RestockingRecommendation]++
	}
	logger.Log.Info().
		Str("file", path).
		Int("sales_detail", len(details)).
		Int("inventory_status", len(statuses)).
		Int("urgent", counts[domain.RecommendationUrgent]).
		Int("restock_soon", counts[domain.RecommendationRestockSoon]).
		Int("no_sales_data", counts[domain.RecommendationNoSalesData]).
		Str("output_dir", outputDir).
		Msg("report written")

	return nil
}

func salesDetailRecords(rows []domain.SalesDetail) [][]string {
	out := [][]string{{"Date", "ASIN", "Product Name", "Sales", "Gross Profit"}}
	for _, r := range rows {
		out = append(out, []string{
			r.Date.Format("2006-01-02"),
			r.ASIN,
			r.ProductName,
			domain.Float(r.Sales).String(),
			domain.Float(r.GrossProfit).String(),
		})
	}
	return out
}

func inventoryStatusRecords(rows []domain.InventoryStatus) [][]string {
	out := [][]string{{
		"Date", "Total On Hand", "ASIN", "Product Name", "Sales",
		"Daily Retail Rate", "Days of Inventory", "Restocking Recommendation",
	}}
	for _, r := range rows {
		date := ""
		if !r.Date.IsZero() {
			date = r.Date.Format("2006-01-02")
		}
		out = append(out, []string{
			date,
			domain.Float(r.TotalOnHand).String(),
			r.ASIN,
			r.ProductName,
			r.Sales.String(),
			r.DailyRetailRate.String(),
			r.DaysOfInventory.String(),
			string(r.RestockingRecommendation),
		})
	}
	return out
}

func writeCSV(path string, records [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
