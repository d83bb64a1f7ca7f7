package sales_velocity

import (
	"sort"
	"time"

	"github.com/andresuchdata/salesvelocity/internal/domain"
)

// recordKey is the (ASIN, Date) join key. Product names never take part in joins.
type recordKey struct {
	ASIN string
	Date string
}

func keyOf(asin string, date time.Time) recordKey {
	return recordKey{ASIN: asin, Date: dateKey(date)}
}

// Combine inner-joins sales and profit on (ASIN, Date). Dates present on only one
// side are dropped and counted in the returned stats. Output follows sales order;
// the product name is taken from the sales side.
func Combine(sales []domain.SalesRecord, profit []domain.ProfitRecord) ([]domain.CombinedRecord, domain.JoinStats) {
	stats := domain.JoinStats{Name: "sales_profit", Left: len(sales), Right: len(profit)}

	byKey := make(map[recordKey][]int, len(profit))
	for i, p := range profit {
		k := keyOf(p.ASIN, p.Date)
		byKey[k] = append(byKey[k], i)
	}

	used := make([]bool, len(profit))
	out := make([]domain.CombinedRecord, 0, len(sales))
	for _, s := range sales {
		matches := byKey[keyOf(s.ASIN, s.Date)]
		if len(matches) == 0 {
			stats.DroppedLeft++
			continue
		}
		for _, idx := range matches {
			used[idx] = true
			out = append(out, domain.CombinedRecord{
				ASIN:        s.ASIN,
				ProductName: s.ProductName,
				Date:        s.Date,
				Sales:       s.Sales,
				GrossProfit: profit[idx].GrossProfit,
			})
		}
	}

	for _, u := range used {
		if !u {
			stats.DroppedRight++
		}
	}
	stats.Matched = len(out)

	return out, stats
}

// groupByASIN returns the records ordered by (ASIN, Date), split into one slice per ASIN.
// Equal keys keep their input order.
func groupByASIN(records []domain.CombinedRecord) [][]domain.CombinedRecord {
	ordered := make([]domain.CombinedRecord, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].ASIN != ordered[j].ASIN {
			return ordered[i].ASIN < ordered[j].ASIN
		}
		return ordered[i].Date.Before(ordered[j].Date)
	})

	var groups [][]domain.CombinedRecord
	for start := 0; start < len(ordered); {
		end := start + 1
		for end < len(ordered) && ordered[end].ASIN == ordered[start].ASIN {
			end++
		}
		groups = append(groups, ordered[start:end])
		start = end
	}
	return groups
}
