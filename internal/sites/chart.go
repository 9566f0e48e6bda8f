package sites

import (
	"encoding/json"

	"sitepulse/internal/db"
)

// ChartTimeLayout formats point timestamps (UTC, second precision).
const ChartTimeLayout = "2006-01-02 15:04:05"

type ChartPoint struct {
	X string  `json:"x"`
	Y float64 `json:"y"`
}

// ChartSeries is one metric's unit and its points in record order.
type ChartSeries struct {
	Unit   string       `json:"unit"`
	Values []ChartPoint `json:"values"`
}

// BuildChart groups history snapshots into one series per metric name.
//
// The unit of a series is taken from the first record that mentions the
// metric and is not changed by later records. A record contributes a
// point only when the metric's value is numeric; other values are skipped
// without affecting the record's remaining metrics.
func BuildChart(records []db.SiteAnalyticsHistory) map[string]*ChartSeries {
	chart := make(map[string]*ChartSeries)
	for _, rec := range records {
		ts := rec.CreatedAt.UTC().Format(ChartTimeLayout)
		for name, m := range rec.Analytics.Data() {
			series, ok := chart[name]
			if !ok {
				series = &ChartSeries{Unit: m.Unit, Values: []ChartPoint{}}
				chart[name] = series
			}
			y, ok := numeric(m.Value)
			if !ok {
				continue
			}
			series.Values = append(series.Values, ChartPoint{X: ts, Y: y})
		}
	}
	return chart
}

// numeric accepts JSON numbers and Go integer/float types. Booleans and
// numeric-looking strings are not numbers.
func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// countPoints totals the points across every series.
func countPoints(chart map[string]*ChartSeries) int {
	n := 0
	for _, s := range chart {
		n += len(s.Values)
	}
	return n
}
