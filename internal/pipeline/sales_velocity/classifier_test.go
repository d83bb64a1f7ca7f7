package sales_velocity

import (
	"testing"

	"github.com/andresuchdata/salesvelocity/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestockCalculator_Examples(t *testing.T) {
	calc := NewRestockCalculator(DefaultConfig().Thresholds)

	tests := []struct {
		name  string
		total float64
		rate  domain.NullFloat
		days  domain.NullFloat
		want  domain.Recommendation
	}{
		{"exactly twenty days", 1000, domain.Float(50), domain.Float(20), domain.RecommendationUrgent},
		{"ninety days", 8100, domain.Float(90), domain.Float(90), domain.RecommendationMonitor},
		{"zero rate", 1000, domain.Float(0), domain.NullFloat{}, domain.RecommendationNoSalesData},
		{"missing rate", 1000, domain.NullFloat{}, domain.NullFloat{}, domain.RecommendationNoSalesData},
		{"rate rounds to zero", 1000, domain.Float(0.4), domain.NullFloat{}, domain.RecommendationNoSalesData},
		{"rate rounded before division", 1000, domain.Float(49.6), domain.Float(20), domain.RecommendationUrgent},
		{"exactly eighty days", 800, domain.Float(10), domain.Float(80), domain.RecommendationRestockSoon},
		{"exactly one hundred days", 1000, domain.Float(10), domain.Float(100), domain.RecommendationMonitor},
		{"above one hundred days", 1010, domain.Float(10), domain.Float(101), domain.RecommendationSufficient},
		{"zero inventory with sales", 0, domain.Float(10), domain.Float(0), domain.RecommendationUrgent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days := calc.DaysOfInventory(tt.total, tt.rate)
			assert.Equal(t, tt.days, days)
			assert.Equal(t, tt.want, calc.Recommend(days))
		})
	}
}

func TestRestockCalculator_Boundaries(t *testing.T) {
	calc := NewRestockCalculator(DefaultConfig().Thresholds)

	assert.Equal(t, domain.RecommendationUrgent, calc.Recommend(domain.Float(20)))
	assert.Equal(t, domain.RecommendationRestockSoon, calc.Recommend(domain.Float(20.01)))
	assert.Equal(t, domain.RecommendationRestockSoon, calc.Recommend(domain.Float(80)))
	assert.Equal(t, domain.RecommendationMonitor, calc.Recommend(domain.Float(80.5)))
	assert.Equal(t, domain.RecommendationMonitor, calc.Recommend(domain.Float(100)))
	assert.Equal(t, domain.RecommendationSufficient, calc.Recommend(domain.Float(100.5)))
}

func TestRestockCalculator_MonotonicInRate(t *testing.T) {
	calc := NewRestockCalculator(DefaultConfig().Thresholds)

	prev := -1
	for rate := 200.0; rate >= 0; rate-- {
		rec := calc.Recommend(calc.DaysOfInventory(1000, domain.Float(rate)))
		assert.GreaterOrEqual(t, rec.Severity(), prev, "rate %v moved to a stricter bucket", rate)
		prev = rec.Severity()
	}
}

func TestLatestVelocity(t *testing.T) {
	velocity := []domain.VelocityRecord{
		{CombinedRecord: domain.CombinedRecord{ASIN: "A1", Date: day(t, "20240103")}, DailyRetailRate: 3},
		{CombinedRecord: domain.CombinedRecord{ASIN: "A1", Date: day(t, "20240101")}, DailyRetailRate: 1},
		{CombinedRecord: domain.CombinedRecord{ASIN: "B1", Date: day(t, "20240102")}, DailyRetailRate: 5},
		{CombinedRecord: domain.CombinedRecord{ASIN: "B1", Date: day(t, "20240102")}, DailyRetailRate: 6},
	}

	latest := LatestVelocity(velocity)
	require.Len(t, latest, 2)
	assert.Equal(t, 3.0, latest["A1"].DailyRetailRate)
	assert.Equal(t, 6.0, latest["B1"].DailyRetailRate)
}

func TestClassifyInventory(t *testing.T) {
	velocity := EstimateVelocity(series(t, "A1", []float64{10, 90}, nil), 5)
	inventory := []domain.InventorySnapshot{
		{ASIN: "A1", ProductName: "widget", TotalOnHand: 1000},
		{ASIN: "A2", ProductName: "Gadget", TotalOnHand: 500},
	}

	statuses := ClassifyInventory(inventory, velocity, NewRestockCalculator(DefaultConfig().Thresholds))
	require.Len(t, statuses, len(inventory))

	a1 := statuses[0]
	assert.Equal(t, "A1", a1.ASIN)
	assert.Equal(t, "Product A1", a1.ProductName)
	assert.Equal(t, day(t, "20240102"), a1.Date)
	assert.Equal(t, domain.Float(90), a1.Sales)
	assert.Equal(t, domain.Float(50), a1.DailyRetailRate)
	assert.Equal(t, domain.Float(20), a1.DaysOfInventory)
	assert.Equal(t, domain.RecommendationUrgent, a1.RestockingRecommendation)

	a2 := statuses[1]
	assert.Equal(t, "Gadget", a2.ProductName)
	assert.True(t, a2.Date.IsZero())
	assert.False(t, a2.Sales.Valid)
	assert.False(t, a2.DailyRetailRate.Valid)
	assert.False(t, a2.DaysOfInventory.Valid)
	assert.Equal(t, domain.RecommendationNoSalesData, a2.RestockingRecommendation)
}

func TestClassifyInventory_CustomThresholds(t *testing.T) {
	calc := NewRestockCalculator(Thresholds{UrgentDays: 5, RestockSoonDays: 10, MonitorDays: 15})
	velocity := EstimateVelocity(series(t, "A1", []float64{10}, nil), 5)

	statuses := ClassifyInventory([]domain.InventorySnapshot{{ASIN: "A1", TotalOnHand: 120}}, velocity, calc)
	require.Len(t, statuses, 1)
	assert.Equal(t, domain.Float(12), statuses[0].DaysOfInventory)
	assert.Equal(t, domain.RecommendationMonitor, statuses[0].RestockingRecommendation)
}
