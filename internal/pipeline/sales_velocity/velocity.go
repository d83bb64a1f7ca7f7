package sales_velocity

import "github.com/andresuchdata/salesvelocity/internal/domain"

// EstimateVelocity attaches the daily retail rate to every combined record: the mean
// Sales of the last `window` dates of the same ASIN (fewer at the start of a series),
// rounded to the nearest integer. Output is ordered by (ASIN, Date), one row per input row.
func EstimateVelocity(records []domain.CombinedRecord, window int) []domain.VelocityRecord {
	if window < 1 {
		window = 1
	}

	out := make([]domain.VelocityRecord, 0, len(records))
	for _, group := range groupByASIN(records) {
		for i, r := range group {
			start := i - window + 1
			if start < 0 {
				start = 0
			}
			sum := 0.0
			for _, w := range group[start : i+1] {
				sum += w.Sales
			}
			out = append(out, domain.VelocityRecord{
				CombinedRecord:  r,
				DailyRetailRate: roundRate(sum / float64(i+1-start)),
			})
		}
	}
	return out
}
