package sales_velocity

import (
	"fmt"

	"github.com/andresuchdata/salesvelocity/internal/domain"
	"github.com/andresuchdata/salesvelocity/internal/workbook"
)

var inventoryMeasureColumns = []string{
	ColumnAvailable,
	ColumnReservedFCTransfer,
	ColumnReservedFCProcessing,
}

// ReduceInventory collapses the inventory sheet into one on-hand total per ASIN.
// The capture date and the per-state columns are dropped; empty cells count as zero.
// Rows sharing an ASIN (e.g. one per SKU) are summed, keeping first-seen order.
func ReduceInventory(sheet workbook.Sheet) ([]domain.InventorySnapshot, error) {
	idxASIN := columnIndex(sheet.Header, ColumnInventoryASIN)
	if idxASIN < 0 {
		return nil, &domain.SchemaError{Sheet: sheet.Name, Column: ColumnInventoryASIN, Reason: "required identifier column missing"}
	}
	idxName := columnIndex(sheet.Header, ColumnInventoryName)

	measureIdx := make([]int, len(inventoryMeasureColumns))
	for i, col := range inventoryMeasureColumns {
		measureIdx[i] = columnIndex(sheet.Header, col)
		if measureIdx[i] < 0 {
			return nil, &domain.SchemaError{Sheet: sheet.Name, Column: col, Reason: "required quantity column missing"}
		}
	}

	var snapshots []domain.InventorySnapshot
	position := make(map[string]int)
	for i, record := range sheet.Rows {
		line := sheet.Line(i)
		asin := sheet.Cell(record, idxASIN)
		if asin == "" {
			return nil, &domain.SchemaError{Sheet: sheet.Name, Column: ColumnInventoryASIN, Row: line, Reason: "missing ASIN"}
		}

		total := 0.0
		for j, idx := range measureIdx {
			raw := sheet.Cell(record, idx)
			v, err := parseMeasure(raw)
			if err != nil {
				return nil, &domain.SchemaError{Sheet: sheet.Name, Column: inventoryMeasureColumns[j], Row: line,
					Reason: fmt.Sprintf("quantity %q is not numeric", raw)}
			}
			if v < 0 {
				return nil, &domain.SchemaError{Sheet: sheet.Name, Column: inventoryMeasureColumns[j], Row: line,
					Reason: fmt.Sprintf("quantity %s is negative", raw)}
			}
			total += v
		}

		if pos, ok := position[asin]; ok {
			snapshots[pos].TotalOnHand += total
			continue
		}
		position[asin] = len(snapshots)
		snapshots = append(snapshots, domain.InventorySnapshot{
			ASIN:        asin,
			ProductName: sheet.Cell(record, idxName),
			TotalOnHand: total,
		})
	}

	return snapshots, nil
}
