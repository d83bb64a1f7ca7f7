package sales_velocity

import (
	"testing"

	"github.com/andresuchdata/salesvelocity/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembleReport(t *testing.T) {
	combined := series(t, "A1", []float64{10, 20, 30, 40, 50, 60, 70}, []float64{1, 2, 3, 4, 5, 6, 7})
	velocity := EstimateVelocity(combined, 5)
	trend := Smooth(combined, 7)

	rows, stats := AssembleReport(trend, combined, velocity)
	require.Len(t, rows, len(combined))
	require.Len(t, stats, 2)
	for _, s := range stats {
		assert.Zero(t, s.Dropped(), s.Name)
	}

	assert.Equal(t, domain.ReportRow{
		Date:                     day(t, "20240104"),
		ASIN:                     "A1",
		ProductName:              "Product A1",
		Sales:                    40,
		GrossProfit:              4,
		DailyRetailRate:          25,
		SalesMovingAverage:       domain.Float(40),
		GrossProfitMovingAverage: domain.Float(4),
	}, rows[3])
	assert.False(t, rows[0].SalesMovingAverage.Valid)
}

func TestAssembleReport_KeepsOneCanonicalCopy(t *testing.T) {
	combined := series(t, "A1", []float64{5}, []float64{2})
	trend := Smooth(combined, 7)
	trend[0].ProductName = "Widget"

	other := make([]domain.CombinedRecord, len(combined))
	copy(other, combined)
	other[0].ProductName = "WIDGET"
	velocity := EstimateVelocity(other, 5)

	rows, _ := AssembleReport(trend, other, velocity)
	require.Len(t, rows, 1)
	assert.Equal(t, "Widget", rows[0].ProductName)
	assert.Equal(t, 5.0, rows[0].Sales)
	assert.Equal(t, 2.0, rows[0].GrossProfit)
}

func TestAssembleReport_InnerJoinDropsMissingKeys(t *testing.T) {
	combined := series(t, "A1", []float64{1, 2, 3}, []float64{1, 2, 3})
	trend := Smooth(combined, 7)
	velocity := EstimateVelocity(combined[:2], 5)

	rows, stats := AssembleReport(trend, combined, velocity)
	require.Len(t, rows, 2)
	assert.Equal(t, domain.JoinStats{Name: "trend_combined", Left: 3, Right: 3, Matched: 3}, stats[0])
	assert.Equal(t, domain.JoinStats{Name: "report_velocity", Left: 3, Right: 2, Matched: 2, DroppedLeft: 1}, stats[1])
}

func TestFilterSalesDetails(t *testing.T) {
	velocity := EstimateVelocity(append(
		series(t, "A1", []float64{1, 2}, []float64{3, 4}),
		series(t, "B1", []float64{5}, []float64{6})...,
	), 5)
	details := SalesDetails(velocity)
	require.Len(t, details, 3)
	assert.Equal(t, domain.SalesDetail{
		Date: day(t, "20240101"), ASIN: "A1", ProductName: "Product A1", Sales: 1, GrossProfit: 3,
	}, details[0])

	all, err := domain.ParseReportQuery("All", "All")
	require.NoError(t, err)
	assert.Len(t, FilterSalesDetails(details, all), 3)

	q, err := domain.ParseReportQuery("A1", "20240102")
	require.NoError(t, err)
	filtered := FilterSalesDetails(details, q)
	require.Len(t, filtered, 1)
	assert.Equal(t, 2.0, filtered[0].Sales)

	q, err = domain.ParseReportQuery("", "2024-01-01")
	require.NoError(t, err)
	assert.Len(t, FilterSalesDetails(details, q), 2)
}

func TestFilterInventoryStatuses(t *testing.T) {
	statuses := []domain.InventoryStatus{
		{ASIN: "A1", Date: day(t, "20240102")},
		{ASIN: "A2"},
	}

	q, err := domain.ParseReportQuery("A2", "")
	require.NoError(t, err)
	filtered := FilterInventoryStatuses(statuses, q)
	require.Len(t, filtered, 1)
	assert.Equal(t, "A2", filtered[0].ASIN)
}

func TestOptions(t *testing.T) {
	details := SalesDetails(EstimateVelocity(append(
		series(t, "B1", []float64{1, 2}, nil),
		series(t, "A1", []float64{5}, nil)...,
	), 5))

	opts := SalesOptions(details, "All")
	assert.Equal(t, []string{"All", "A1", "B1"}, opts.ASINs)
	assert.Equal(t, []string{"All", "2024-01-01", "2024-01-02"}, opts.Dates)

	opts = SalesOptions(details, "A1")
	assert.Equal(t, []string{"All", "2024-01-01"}, opts.Dates)

	statuses := []domain.InventoryStatus{
		{ASIN: "Z9"},
		{ASIN: "A1", Date: day(t, "20240103")},
	}
	opts = InventoryOptions(statuses, "")
	assert.Equal(t, []string{"All", "Z9", "A1"}, opts.ASINs)
	assert.Equal(t, []string{"All", "2024-01-03"}, opts.Dates)
}
