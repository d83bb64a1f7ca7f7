package sales_velocity

import "github.com/andresuchdata/salesvelocity/internal/domain"

// Smooth computes centered moving averages of Sales and Gross Profit per ASIN.
// A value is defined only when the full window fits inside the product's series,
// so the first and last window/2 dates of each product are left undefined.
func Smooth(records []domain.CombinedRecord, window int) []domain.TrendRecord {
	if window < 1 {
		window = 1
	}
	half := window / 2

	out := make([]domain.TrendRecord, 0, len(records))
	for _, group := range groupByASIN(records) {
		for i, r := range group {
			tr := domain.TrendRecord{CombinedRecord: r}
			if i-half >= 0 && i+half < len(group) {
				var sales, profit float64
				for _, w := range group[i-half : i+half+1] {
					sales += w.Sales
					profit += w.GrossProfit
				}
				n := float64(2*half + 1)
				tr.SalesMovingAverage = domain.Float(roundRate(sales / n))
				tr.GrossProfitMovingAverage = domain.Float(roundRate(profit / n))
			}
			out = append(out, tr)
		}
	}
	return out
}
