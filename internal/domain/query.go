package domain

import (
	"fmt"
	"strings"
	"time"
)

// OptionAll is the select-box value meaning "no filter".
const OptionAll = "All"

// ReportQuery selects rows of a report view. Empty ASIN or zero Date means All.
type ReportQuery struct {
	ASIN string
	Date time.Time
}

// ParseReportQuery builds a query from raw select-box values ("All" or empty means no filter).
// Dates are accepted as YYYY-MM-DD or YYYYMMDD.
func ParseReportQuery(asin, date string) (ReportQuery, error) {
	q := ReportQuery{}

	asin = strings.TrimSpace(asin)
	if asin != "" && !strings.EqualFold(asin, OptionAll) {
		q.ASIN = asin
	}

	date = strings.TrimSpace(date)
	if date == "" || strings.EqualFold(date, OptionAll) {
		return q, nil
	}
	for _, layout := range []string{"2006-01-02", "20060102"} {
		if t, err := time.Parse(layout, date); err == nil {
			q.Date = t
			return q, nil
		}
	}
	return q, fmt.Errorf("invalid date filter %q: expected YYYY-MM-DD or YYYYMMDD", date)
}

// MatchASIN reports whether asin passes the ASIN filter.
func (q ReportQuery) MatchASIN(asin string) bool {
	return q.ASIN == "" || q.ASIN == asin
}

// MatchDate reports whether d passes the date filter.
func (q ReportQuery) MatchDate(d time.Time) bool {
	return q.Date.IsZero() || q.Date.Equal(d)
}

// Options lists the selectable filter values: "All" followed by distinct values.
type Options struct {
	ASINs []string `json:"asins"`
	Dates []string `json:"dates"`
}
