package sales_velocity

import (
	"fmt"
	"sort"
	"time"

	"github.com/andresuchdata/salesvelocity/internal/domain"
	"github.com/andresuchdata/salesvelocity/internal/workbook"
)

// longRow is one (product, date) cell of a wide sheet.
type longRow struct {
	ASIN        string
	ProductName string
	Date        time.Time
	Value       float64
}

type dateColumn struct {
	index  int
	header string
	date   time.Time
}

// melt reshapes a product-by-date sheet into one row per (product, date).
// Every column other than ASIN and Product Name must be a YYYYMMDD date.
func melt(sheet workbook.Sheet, valueName string, allowNegative bool) ([]longRow, error) {
	idxASIN, idxName := -1, -1
	dates := make([]dateColumn, 0, len(sheet.Header))
	seenDates := make(map[string]string)

	for i, h := range sheet.Header {
		switch normalizeColumnName(h) {
		case normalizeColumnName(ColumnASIN):
			if idxASIN >= 0 {
				return nil, &domain.SchemaError{Sheet: sheet.Name, Column: h, Reason: "duplicate identifier column"}
			}
			idxASIN = i
			continue
		case normalizeColumnName(ColumnProductName):
			if idxName >= 0 {
				return nil, &domain.SchemaError{Sheet: sheet.Name, Column: h, Reason: "duplicate identifier column"}
			}
			idxName = i
			continue
		}

		d, err := parseDateHeader(h)
		if err != nil {
			return nil, &domain.SchemaError{Sheet: sheet.Name, Column: h, Reason: "header is not a YYYYMMDD date"}
		}
		if prev, ok := seenDates[dateKey(d)]; ok {
			return nil, &domain.SchemaError{Sheet: sheet.Name, Column: h, Reason: fmt.Sprintf("duplicate date column (also %q)", prev)}
		}
		seenDates[dateKey(d)] = h
		dates = append(dates, dateColumn{index: i, header: h, date: d})
	}

	if idxASIN < 0 {
		return nil, &domain.SchemaError{Sheet: sheet.Name, Column: ColumnASIN, Reason: "required identifier column missing"}
	}
	if idxName < 0 {
		return nil, &domain.SchemaError{Sheet: sheet.Name, Column: ColumnProductName, Reason: "required identifier column missing"}
	}

	rows := make([]longRow, 0, len(sheet.Rows)*len(dates))
	seenASIN := make(map[string]int, len(sheet.Rows))
	for i, record := range sheet.Rows {
		line := sheet.Line(i)
		asin := sheet.Cell(record, idxASIN)
		if asin == "" {
			return nil, &domain.SchemaError{Sheet: sheet.Name, Column: ColumnASIN, Row: line, Reason: "missing ASIN"}
		}
		if first, ok := seenASIN[asin]; ok {
			return nil, &domain.SchemaError{Sheet: sheet.Name, Column: ColumnASIN, Row: line,
				Reason: fmt.Sprintf("duplicate ASIN %s (first seen on row %d)", asin, first)}
		}
		seenASIN[asin] = line

		name := sheet.Cell(record, idxName)
		for _, dc := range dates {
			raw := sheet.Cell(record, dc.index)
			v, err := parseMeasure(raw)
			if err != nil {
				return nil, &domain.SchemaError{Sheet: sheet.Name, Column: dc.header, Row: line,
					Reason: fmt.Sprintf("%s value %q is not numeric", valueName, raw)}
			}
			if v < 0 && !allowNegative {
				return nil, &domain.SchemaError{Sheet: sheet.Name, Column: dc.header, Row: line,
					Reason: fmt.Sprintf("%s value %s is negative", valueName, raw)}
			}
			rows = append(rows, longRow{ASIN: asin, ProductName: name, Date: dc.date, Value: v})
		}
	}

	return rows, nil
}

// NormalizeSales converts the wide sales sheet into sales records.
func NormalizeSales(sheet workbook.Sheet) ([]domain.SalesRecord, error) {
	rows, err := melt(sheet, "Sales", false)
	if err != nil {
		return nil, err
	}
	out := make([]domain.SalesRecord, len(rows))
	for i, r := range rows {
		out[i] = domain.SalesRecord{ASIN: r.ASIN, ProductName: r.ProductName, Date: r.Date, Sales: r.Value}
	}
	return out, nil
}

// NormalizeProfit converts the wide gross profit sheet into profit records.
func NormalizeProfit(sheet workbook.Sheet) ([]domain.ProfitRecord, error) {
	rows, err := melt(sheet, "Gross Profit", true)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ProfitRecord, len(rows))
	for i, r := range rows {
		out[i] = domain.ProfitRecord{ASIN: r.ASIN, ProductName: r.ProductName, Date: r.Date, GrossProfit: r.Value}
	}
	return out, nil
}

// pivot regroups long rows into a wide sheet: one row per ASIN in first-seen order,
// one column per date in ascending order. Missing cells are left empty.
func pivot(name string, rows []longRow) workbook.Sheet {
	var asins []string
	names := make(map[string]string)
	values := make(map[string]map[string]float64)
	dates := make(map[string]time.Time)

	for _, r := range rows {
		if _, ok := values[r.ASIN]; !ok {
			asins = append(asins, r.ASIN)
			names[r.ASIN] = r.ProductName
			values[r.ASIN] = make(map[string]float64)
		}
		values[r.ASIN][dateKey(r.Date)] = r.Value
		dates[dateKey(r.Date)] = r.Date
	}

	keys := make([]string, 0, len(dates))
	for k := range dates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	header := append([]string{ColumnASIN, ColumnProductName}, keys...)
	body := make([][]string, 0, len(asins))
	for _, asin := range asins {
		record := make([]string, len(header))
		record[0] = asin
		record[1] = names[asin]
		for i, k := range keys {
			if v, ok := values[asin][k]; ok {
				record[i+2] = formatNumber(v)
			}
		}
		body = append(body, record)
	}

	return workbook.Sheet{Name: name, Header: header, Rows: body}
}

// PivotSales turns sales records back into the wide sales layout.
func PivotSales(records []domain.SalesRecord) workbook.Sheet {
	rows := make([]longRow, len(records))
	for i, r := range records {
		rows[i] = longRow{ASIN: r.ASIN, ProductName: r.ProductName, Date: r.Date, Value: r.Sales}
	}
	return pivot("Sales", rows)
}

// PivotVelocity lays out the daily retail rate as a product-by-date sheet.
func PivotVelocity(records []domain.VelocityRecord) workbook.Sheet {
	rows := make([]longRow, len(records))
	for i, r := range records {
		rows[i] = longRow{ASIN: r.ASIN, ProductName: r.ProductName, Date: r.Date, Value: r.DailyRetailRate}
	}
	return pivot("Daily Retail Rate", rows)
}
