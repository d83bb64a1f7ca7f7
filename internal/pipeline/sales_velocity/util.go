package sales_velocity

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const dateHeaderLayout = "20060102"

// roundRate rounds half to even (2.5 -> 2, 3.5 -> 4).
func roundRate(v float64) float64 {
	return math.RoundToEven(v)
}

// formatNumber renders a float without trailing zeros.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// dateKey identifies a calendar date independent of location.
func dateKey(t time.Time) string {
	return t.Format(dateHeaderLayout)
}

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

func normalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return columnNameSanitizer.Replace(name)
}

// columnIndex returns the position of the first header matching any of names, or -1.
func columnIndex(header []string, names ...string) int {
	targets := make(map[string]struct{}, len(names))
	for _, name := range names {
		targets[normalizeColumnName(name)] = struct{}{}
	}
	for i, h := range header {
		if _, ok := targets[normalizeColumnName(h)]; ok {
			return i
		}
	}
	return -1
}

// parseDateHeader parses an 8-digit YYYYMMDD column header.
func parseDateHeader(h string) (time.Time, error) {
	h = strings.TrimSpace(h)
	if len(h) != len(dateHeaderLayout) {
		return time.Time{}, fmt.Errorf("expected 8 digits")
	}
	for _, r := range h {
		if r < '0' || r > '9' {
			return time.Time{}, fmt.Errorf("expected 8 digits")
		}
	}
	return time.Parse(dateHeaderLayout, h)
}

// parseMeasure parses a numeric cell. Empty cells are zero; thousands separators are ignored.
func parseMeasure(raw string) (float64, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return 0, nil
	}
	v = strings.ReplaceAll(v, ",", "")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number")
	}
	return f, nil
}
