package sales_velocity

import (
	"testing"
	"time"

	"github.com/andresuchdata/salesvelocity/internal/domain"
	"github.com/andresuchdata/salesvelocity/internal/workbook"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("20060102", s)
	if err != nil {
		t.Fatalf("bad test date %q: %v", s, err)
	}
	return d
}

func wideSheet(name string, dates []string, rows ...[]string) workbook.Sheet {
	header := append([]string{"ASIN", "Product Name"}, dates...)
	return workbook.Sheet{Name: name, Header: header, Rows: rows}
}

func inventorySheet(rows ...[]string) workbook.Sheet {
	return workbook.Sheet{
		Name: "Inventory",
		Header: []string{
			"sku", "asin", "product-name", "snapshot-date",
			"available", "Reserved FC Transfer", "Reserved FC Processing",
		},
		Rows: rows,
	}
}

// series builds consecutive daily combined records for one ASIN starting on 2024-01-01.
func series(t *testing.T, asin string, sales []float64, profit []float64) []domain.CombinedRecord {
	t.Helper()
	start := day(t, "20240101")
	out := make([]domain.CombinedRecord, len(sales))
	for i := range sales {
		out[i] = domain.CombinedRecord{
			ASIN:        asin,
			ProductName: "Product " + asin,
			Date:        start.AddDate(0, 0, i),
			Sales:       sales[i],
		}
		if profit != nil {
			out[i].GrossProfit = profit[i]
		}
	}
	return out
}
