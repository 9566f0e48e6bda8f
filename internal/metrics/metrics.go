package metrics

import (
	"bytes"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

var (
	SiteMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sitepulse",
			Name:      "site_mutations_total",
			Help:      "Committed site writes by operation.",
		},
		[]string{"op", "project"},
	)
	AnalyticsSnapshots = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sitepulse",
			Name:      "analytics_snapshots_total",
			Help:      "Analytics history rows written before an overwrite.",
		},
		[]string{"project"},
	)
	HistoryQueries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "sitepulse",
			Name:      "history_queries_total",
			Help:      "Analytics history reads.",
		},
	)
	ChartPoints = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "sitepulse",
			Name:      "chart_points",
			Help:      "Number of points across all series of a built chart.",
			Buckets:   []float64{0, 1, 5, 10, 50, 100, 500, 1000, 5000},
		},
	)

	registerOnce sync.Once
)

// Init registers the collectors with the default registry.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(SiteMutations, AnalyticsSnapshots, HistoryQueries, ChartPoints)
	})
}

// Encode gathers g and renders it in the text exposition format. When
// project is non-empty, families carrying a "project" label are narrowed
// to that project's series; families without the label are kept whole.
func Encode(g prometheus.Gatherer, project string) ([]byte, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, err
	}
	if project != "" {
		families = filterProject(families, project)
	}

	var buf bytes.Buffer
	enc := expfmt.NewEncoder(&buf, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// ContentType is the exposition format written by Encode.
func ContentType() string {
	return string(expfmt.NewFormat(expfmt.TypeTextPlain))
}

func filterProject(families []*dto.MetricFamily, project string) []*dto.MetricFamily {
	filtered := make([]*dto.MetricFamily, 0, len(families))
	for _, mf := range families {
		if !hasLabel(mf, "project") {
			filtered = append(filtered, mf)
			continue
		}

		var kept []*dto.Metric
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "project" && l.GetValue() == project {
					kept = append(kept, m)
					break
				}
			}
		}
		if len(kept) == 0 {
			continue
		}
		filtered = append(filtered, &dto.MetricFamily{
			Name:   mf.Name,
			Help:   mf.Help,
			Type:   mf.Type,
			Metric: kept,
		})
	}
	return filtered
}

func hasLabel(mf *dto.MetricFamily, name string) bool {
	for _, m := range mf.GetMetric() {
		for _, l := range m.GetLabel() {
			if l.GetName() == name {
				return true
			}
		}
	}
	return false
}
