package sales_velocity

import "github.com/andresuchdata/salesvelocity/internal/domain"

// LatestVelocity picks the most recent velocity record of each ASIN.
// On equal dates the record appearing later wins.
func LatestVelocity(records []domain.VelocityRecord) map[string]domain.VelocityRecord {
	latest := make(map[string]domain.VelocityRecord)
	for _, r := range records {
		cur, ok := latest[r.ASIN]
		if !ok || !r.Date.Before(cur.Date) {
			latest[r.ASIN] = r
		}
	}
	return latest
}

// ClassifyInventory left-joins inventory with each ASIN's latest daily retail rate and
// classifies it. Every snapshot yields exactly one status, including products without sales.
func ClassifyInventory(inventory []domain.InventorySnapshot, velocity []domain.VelocityRecord, calc *RestockCalculator) []domain.InventoryStatus {
	latest := LatestVelocity(velocity)

	out := make([]domain.InventoryStatus, 0, len(inventory))
	for _, snap := range inventory {
		var rec *domain.VelocityRecord
		if v, ok := latest[snap.ASIN]; ok {
			rec = &v
		}
		out = append(out, calc.Calculate(snap, rec))
	}
	return out
}
