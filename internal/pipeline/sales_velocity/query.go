package sales_velocity

import (
	"time"

	"github.com/andresuchdata/salesvelocity/internal/domain"
)

// SalesDetails projects the velocity stream onto the sales detail view.
func SalesDetails(velocity []domain.VelocityRecord) []domain.SalesDetail {
	out := make([]domain.SalesDetail, len(velocity))
	for i, v := range velocity {
		out[i] = domain.SalesDetail{
			Date:        v.Date,
			ASIN:        v.ASIN,
			ProductName: v.ProductName,
			Sales:       v.Sales,
			GrossProfit: v.GrossProfit,
		}
	}
	return out
}

// FilterSalesDetails returns the rows matching q. The input is not modified.
func FilterSalesDetails(rows []domain.SalesDetail, q domain.ReportQuery) []domain.SalesDetail {
	out := make([]domain.SalesDetail, 0, len(rows))
	for _, r := range rows {
		if q.MatchASIN(r.ASIN) && q.MatchDate(r.Date) {
			out = append(out, r)
		}
	}
	return out
}

// FilterInventoryStatuses returns the statuses matching q. The input is not modified.
func FilterInventoryStatuses(rows []domain.InventoryStatus, q domain.ReportQuery) []domain.InventoryStatus {
	out := make([]domain.InventoryStatus, 0, len(rows))
	for _, r := range rows {
		if q.MatchASIN(r.ASIN) && q.MatchDate(r.Date) {
			out = append(out, r)
		}
	}
	return out
}

// SalesOptions lists the ASIN choices of the sales view and the dates available for asin.
func SalesOptions(rows []domain.SalesDetail, asin string) domain.Options {
	keys := make([]asinDate, len(rows))
	for i, r := range rows {
		keys[i] = asinDate{asin: r.ASIN, date: r.Date}
	}
	return buildOptions(keys, asin)
}

// InventoryOptions lists the ASIN choices of the inventory view and the dates available for asin.
func InventoryOptions(rows []domain.InventoryStatus, asin string) domain.Options {
	keys := make([]asinDate, len(rows))
	for i, r := range rows {
		keys[i] = asinDate{asin: r.ASIN, date: r.Date}
	}
	return buildOptions(keys, asin)
}

type asinDate struct {
	asin string
	date time.Time
}

func buildOptions(keys []asinDate, asin string) domain.Options {
	q, _ := domain.ParseReportQuery(asin, "")
	opts := domain.Options{
		ASINs: []string{domain.OptionAll},
		Dates: []string{domain.OptionAll},
	}

	seenASIN := make(map[string]bool)
	seenDate := make(map[string]bool)
	for _, k := range keys {
		if !seenASIN[k.asin] {
			seenASIN[k.asin] = true
			opts.ASINs = append(opts.ASINs, k.asin)
		}
		if !q.MatchASIN(k.asin) || k.date.IsZero() {
			continue
		}
		d := formatDate(k.date)
		if !seenDate[d] {
			seenDate[d] = true
			opts.Dates = append(opts.Dates, d)
		}
	}
	return opts
}
