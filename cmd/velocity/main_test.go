package main

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, path string) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheets := []struct {
		name string
		rows [][]interface{}
	}{
		{"Sales", [][]interface{}{
			{"ASIN", "Product Name", "20240101", "20240102"},
			{"A1", "Widget", 10, 20},
			{"B2", "Gadget", 2, 2},
		}},
		{"Profit", [][]interface{}{
			{"ASIN", "Product Name", "20240101", "20240102"},
			{"A1", "Widget", 3, 4},
			{"B2", "Gadget", 1, 1},
		}},
		{"Inventory", [][]interface{}{
			{"sku", "asin", "product-name", "snapshot-date", "available", "Reserved FC Transfer", "Reserved FC Processing"},
			{"SKU-1", "A1", "Widget", "2024-01-02", 300, 0, 0},
			{"SKU-2", "B2", "Gadget", "2024-01-02", 100, 50, 50},
		}},
	}

	for i, s := range sheets {
		if i == 0 {
			require.NoError(t, f.SetSheetName(f.GetSheetName(0), s.name))
		} else {
			_, err := f.NewSheet(s.name)
			require.NoError(t, err)
		}
		for r, row := range s.rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(s.name, cell, &row))
		}
	}

	require.NoError(t, f.SaveAs(path))
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

func runApp(t *testing.T, args ...string) error {
	t.Helper()
	app := newApp()
	app.Writer = io.Discard
	app.ErrWriter = io.Discard
	return app.Run(append([]string{"velocity", "--log-level", "error"}, args...))
}

func TestReportCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "20240102_export.xlsx")
	writeWorkbook(t, input)
	out := filepath.Join(dir, "out")
	drr := filepath.Join(dir, "drr.csv")

	require.NoError(t, runApp(t, "report", "--file", input, "--output-dir", out, "--drr-csv", drr))

	details := readCSV(t, filepath.Join(out, "sales_detail.csv"))
	require.Len(t, details, 5)
	assert.Equal(t, []string{"Date", "ASIN", "Product Name", "Sales", "Gross Profit"}, details[0])
	assert.Equal(t, []string{"2024-01-01", "A1", "Widget", "10", "3"}, details[1])

	statuses := readCSV(t, filepath.Join(out, "inventory_status.csv"))
	require.Len(t, statuses, 3)
	assert.Equal(t, []string{"2024-01-02", "300", "A1", "Widget", "20", "15", "20", "Urgent Restock"}, statuses[1])
	assert.Equal(t, []string{"2024-01-02", "200", "B2", "Gadget", "2", "2", "100", "Monitor Inventory"}, statuses[2])

	assert.Equal(t, [][]string{
		{"ASIN", "Product Name", "20240101", "20240102"},
		{"A1", "Widget", "10", "15"},
		{"B2", "Gadget", "2", "2"},
	}, readCSV(t, drr))
}

func TestReportCommand_Filtered(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "20240102_export.xlsx")
	writeWorkbook(t, input)
	out := filepath.Join(dir, "out")

	require.NoError(t, runApp(t, "report", "--file", input, "--output-dir", out, "--asin", "B2", "--date", "20240101"))

	details := readCSV(t, filepath.Join(out, "sales_detail.csv"))
	require.Len(t, details, 2)
	assert.Equal(t, "B2", details[1][1])

	statuses := readCSV(t, filepath.Join(out, "inventory_status.csv"))
	assert.Len(t, statuses, 1)
}

func TestReportCommand_SchemaError(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "20240102_export.xlsx")
	writeWorkbook(t, input)

	err := runApp(t, "report", "--file", input, "--output-dir", dir, "--profit-sheet", "Margin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Margin")
}

func TestBatchCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	require.NoError(t, os.MkdirAll(in, 0o755))
	writeWorkbook(t, filepath.Join(in, "20240102_a.xlsx"))
	writeWorkbook(t, filepath.Join(in, "20240102_b.xlsx"))
	writeWorkbook(t, filepath.Join(in, "20240103_a.xlsx"))
	require.NoError(t, os.WriteFile(filepath.Join(in, "~$20240102_a.xlsx"), []byte("lock"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(in, "notes.txt"), []byte("x"), 0o644))
	out := filepath.Join(dir, "out")

	require.NoError(t, runApp(t, "batch", "--input-dir", in, "--output-dir", out, "--pipeline-workers", "2"))

	statuses := readCSV(t, filepath.Join(out, "inventory_status", "20240102.csv"))
	assert.Equal(t, "source", statuses[0][0])
	assert.Len(t, statuses, 1+2*2)

	report := readCSV(t, filepath.Join(out, "sales_report", "20240103.csv"))
	assert.Len(t, report, 1+4)

	assert.FileExists(t, filepath.Join(out, "sales_detail", "20240103.csv"))
}

func TestListWorkbooks(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.xlsx"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.XLSX"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.csv"), nil, 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "d.xlsx"), 0o755))

	files, err := listWorkbooks(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.XLSX"), filepath.Join(dir, "b.xlsx")}, files)

	_, err = listWorkbooks(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
