package sales_velocity

import "github.com/andresuchdata/salesvelocity/internal/domain"

// AssembleReport inner-joins the trend, combined and velocity streams on (ASIN, Date)
// and keeps a single copy of the product name, sales and gross profit (taken from the
// trend stream). A key missing from any input drops the row.
func AssembleReport(trend []domain.TrendRecord, combined []domain.CombinedRecord, velocity []domain.VelocityRecord) ([]domain.ReportRow, []domain.JoinStats) {
	combinedIdx := make(map[recordKey][]int, len(combined))
	for i, c := range combined {
		k := keyOf(c.ASIN, c.Date)
		combinedIdx[k] = append(combinedIdx[k], i)
	}
	velocityIdx := make(map[recordKey][]int, len(velocity))
	for i, v := range velocity {
		k := keyOf(v.ASIN, v.Date)
		velocityIdx[k] = append(velocityIdx[k], i)
	}

	first := domain.JoinStats{Name: "trend_combined", Left: len(trend), Right: len(combined)}
	usedCombined := make([]bool, len(combined))

	// first pass: trend joined with combined
	type partial struct {
		trend domain.TrendRecord
		key   recordKey
	}
	var joined []partial
	for _, t := range trend {
		k := keyOf(t.ASIN, t.Date)
		matches := combinedIdx[k]
		if len(matches) == 0 {
			first.DroppedLeft++
			continue
		}
		for _, idx := range matches {
			usedCombined[idx] = true
			joined = append(joined, partial{trend: t, key: k})
		}
	}
	first.Matched = len(joined)
	first.DroppedRight = countUnused(usedCombined)

	second := domain.JoinStats{Name: "report_velocity", Left: len(joined), Right: len(velocity)}
	usedVelocity := make([]bool, len(velocity))

	rows := make([]domain.ReportRow, 0, len(joined))
	for _, p := range joined {
		matches := velocityIdx[p.key]
		if len(matches) == 0 {
			second.DroppedLeft++
			continue
		}
		for _, idx := range matches {
			usedVelocity[idx] = true
			rows = append(rows, domain.ReportRow{
				Date:                     p.trend.Date,
				ASIN:                     p.trend.ASIN,
				ProductName:              p.trend.ProductName,
				Sales:                    p.trend.Sales,
				GrossProfit:              p.trend.GrossProfit,
				DailyRetailRate:          velocity[idx].DailyRetailRate,
				SalesMovingAverage:       p.trend.SalesMovingAverage,
				GrossProfitMovingAverage: p.trend.GrossProfitMovingAverage,
			})
		}
	}
	second.Matched = len(rows)
	second.DroppedRight = countUnused(usedVelocity)

	return rows, []domain.JoinStats{first, second}
}

func countUnused(used []bool) int {
	n := 0
	for _, u := range used {
		if !u {
			n++
		}
	}
	return n
}
