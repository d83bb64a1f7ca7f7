package sales_velocity

import "github.com/andresuchdata/salesvelocity/internal/domain"

// RestockCalculator derives days of inventory and the restocking recommendation
type RestockCalculator struct {
	thresholds Thresholds
}

// NewRestockCalculator creates a new restock calculator
func NewRestockCalculator(thresholds Thresholds) *RestockCalculator {
	return &RestockCalculator{
		thresholds: thresholds,
	}
}

// DaysOfInventory divides on-hand units by the rounded daily retail rate.
// A missing or non-positive rate has no defined cover.
func (rc *RestockCalculator) DaysOfInventory(totalOnHand float64, rate domain.NullFloat) domain.NullFloat {
	if !rate.Valid {
		return domain.NullFloat{}
	}
	r := roundRate(rate.Value)
	if r <= 0 {
		return domain.NullFloat{}
	}
	return domain.Float(totalOnHand / r)
}

// Recommend maps days of inventory to a label. Bounds are inclusive: a value on a
// threshold belongs to the more urgent bucket.
func (rc *RestockCalculator) Recommend(days domain.NullFloat) domain.Recommendation {
	switch {
	case !days.Valid:
		return domain.RecommendationNoSalesData
	case days.Value <= rc.thresholds.UrgentDays:
		return domain.RecommendationUrgent
	case days.Value <= rc.thresholds.RestockSoonDays:
		return domain.RecommendationRestockSoon
	case days.Value <= rc.thresholds.MonitorDays:
		return domain.RecommendationMonitor
	default:
		return domain.RecommendationSufficient
	}
}

// Calculate classifies one inventory snapshot against its latest velocity record (nil when
// the product has no sales history).
func (rc *RestockCalculator) Calculate(snapshot domain.InventorySnapshot, latest *domain.VelocityRecord) domain.InventoryStatus {
	status := domain.InventoryStatus{
		ASIN:        snapshot.ASIN,
		ProductName: snapshot.ProductName,
		TotalOnHand: snapshot.TotalOnHand,
	}

	if latest != nil {
		status.Date = latest.Date
		status.Sales = domain.Float(latest.Sales)
		status.DailyRetailRate = domain.Float(latest.DailyRetailRate)
		if latest.ProductName != "" {
			status.ProductName = latest.ProductName
		}
	}

	status.DaysOfInventory = rc.DaysOfInventory(status.TotalOnHand, status.DailyRetailRate)
	status.RestockingRecommendation = rc.Recommend(status.DaysOfInventory)

	return status
}
