package domain

// Recommendation is the restocking label derived from days of inventory.
type Recommendation string

const (
	RecommendationNoSalesData Recommendation = "No Sales Data"
	RecommendationUrgent      Recommendation = "Urgent Restock"
	RecommendationRestockSoon Recommendation = "Restock Soon"
	RecommendationMonitor     Recommendation = "Monitor Inventory"
	RecommendationSufficient  Recommendation = "Sufficient Inventory"
)

// Severity orders recommendations from most to least urgent. No Sales Data sorts last.
func (r Recommendation) Severity() int {
	switch r {
	case RecommendationUrgent:
		return 0
	case RecommendationRestockSoon:
		return 1
	case RecommendationMonitor:
		return 2
	case RecommendationSufficient:
		return 3
	default:
		return 4
	}
}
