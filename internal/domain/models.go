// internal/domain/models.go
package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// Product identifies a catalog item. Name is display-only and never a join key.
type Product struct {
	ASIN string `json:"asin"`
	Name string `json:"product_name"`
}

// SalesRecord is one (product, date) sales observation from the wide sales sheet.
type SalesRecord struct {
	ASIN        string    `json:"asin"`
	ProductName string    `json:"product_name"`
	Date        time.Time `json:"date"`
	Sales       float64   `json:"sales"`
}

// ProfitRecord is one (product, date) gross profit observation. Sign is unconstrained.
type ProfitRecord struct {
	ASIN        string    `json:"asin"`
	ProductName string    `json:"product_name"`
	Date        time.Time `json:"date"`
	GrossProfit float64   `json:"gross_profit"`
}

// CombinedRecord is a sales record that also has a profit observation for the same date.
type CombinedRecord struct {
	ASIN        string    `json:"asin"`
	ProductName string    `json:"product_name"`
	Date        time.Time `json:"date"`
	Sales       float64   `json:"sales"`
	GrossProfit float64   `json:"gross_profit"`
}

// InventorySnapshot is the current on-hand quantity of a product summed over
// the available, reserved-in-transfer and reserved-in-processing states.
type InventorySnapshot struct {
	ASIN        string  `json:"asin"`
	ProductName string  `json:"product_name,omitempty"` // display fallback for products without sales
	TotalOnHand float64 `json:"total_on_hand"`
}

// VelocityRecord carries the trailing daily retail rate (DRR) for the record's date.
type VelocityRecord struct {
	CombinedRecord
	DailyRetailRate float64 `json:"daily_retail_rate"`
}

// TrendRecord carries centered moving averages; edges of a product's series are undefined.
type TrendRecord struct {
	CombinedRecord
	SalesMovingAverage       NullFloat `json:"sales_moving_average"`
	GrossProfitMovingAverage NullFloat `json:"gross_profit_moving_average"`
}

// InventoryStatus is the restocking classification of one inventory snapshot.
// Date and Sales come from the latest velocity observation of the ASIN, if any;
// without one Date is zero and is omitted from JSON.
type InventoryStatus struct {
	Date                     time.Time      `json:"date"`
	ASIN                     string         `json:"asin"`
	ProductName              string         `json:"product_name"`
	TotalOnHand              float64        `json:"total_on_hand"`
	Sales                    NullFloat      `json:"sales"`
	DailyRetailRate          NullFloat      `json:"daily_retail_rate"`
	DaysOfInventory          NullFloat      `json:"days_of_inventory"`
	RestockingRecommendation Recommendation `json:"restocking_recommendation"`
}

// MarshalJSON leaves out date for statuses with no velocity observation.
func (s InventoryStatus) MarshalJSON() ([]byte, error) {
	type status InventoryStatus
	out := struct {
		status
		Date *time.Time `json:"date,omitempty"`
	}{status: status(s)}
	if !s.Date.IsZero() {
		out.Date = &s.Date
	}
	return json.Marshal(out)
}

// ReportRow is one denormalized (ASIN, Date) row of the assembled report.
type ReportRow struct {
	Date                     time.Time `json:"date"`
	ASIN                     string    `json:"asin"`
	ProductName              string    `json:"product_name"`
	Sales                    float64   `json:"sales"`
	GrossProfit              float64   `json:"gross_profit"`
	DailyRetailRate          float64   `json:"daily_retail_rate"`
	SalesMovingAverage       NullFloat `json:"sales_moving_average"`
	GrossProfitMovingAverage NullFloat `json:"gross_profit_moving_average"`
}

// SalesDetail is a row of the sales detail view.
type SalesDetail struct {
	Date        time.Time `json:"date"`
	ASIN        string    `json:"asin"`
	ProductName string    `json:"product_name"`
	Sales       float64   `json:"sales"`
	GrossProfit float64   `json:"gross_profit"`
}

// JoinStats records how many rows an inner join kept and dropped on each side.
type JoinStats struct {
	Name         string `json:"name"`
	Left         int    `json:"left"`
	Right        int    `json:"right"`
	Matched      int    `json:"matched"`
	DroppedLeft  int    `json:"dropped_left"`
	DroppedRight int    `json:"dropped_right"`
}

// Dropped is the total number of rows lost on either side of the join.
func (s JoinStats) Dropped() int {
	return s.DroppedLeft + s.DroppedRight
}

// Report is the full output of one pipeline run.
type Report struct {
	Combined  []CombinedRecord    `json:"combined"`
	Velocity  []VelocityRecord    `json:"velocity"`
	Trend     []TrendRecord       `json:"trend"`
	Inventory []InventorySnapshot `json:"inventory"`
	Statuses  []InventoryStatus   `json:"statuses"`
	Rows      []ReportRow         `json:"rows"`
	Joins     []JoinStats         `json:"joins"`
}

// NullFloat is a float64 that may be undefined.
type NullFloat struct {
	Value float64
	Valid bool
}

// Float returns a defined NullFloat.
func Float(v float64) NullFloat {
	return NullFloat{Value: v, Valid: true}
}

// String renders the value for tabular output; undefined values render empty.
func (n NullFloat) String() string {
	if !n.Valid {
		return ""
	}
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}

func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

func (n *NullFloat) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*n = NullFloat{}
		return nil
	}
	if err := json.Unmarshal(data, &n.Value); err != nil {
		return err
	}
	n.Valid = true
	return nil
}
