package hdf5import

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts import activity. A nil *Metrics records nothing.
type Metrics struct {
	imports  *prometheus.CounterVec // Import calls by result
	imported prometheus.Counter     // Datasets emitted to documents
	skipped  prometheus.Counter     // Datasets skipped during traversal
	renamed  prometheus.Counter     // Datasets named after their full path
	paired   prometheus.Counter     // Error datasets attached to a series
}

// NewMetrics creates the import metrics and registers them with reg.
// A nil reg returns nil metrics.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		return nil, nil // Metrics disabled
	}

	m := &Metrics{
		imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hdf5import",
			Name:      "imports_total",
			Help:      "Total number of import calls by result",
		}, []string{"result"}),

		imported: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hdf5import",
			Name:      "datasets_imported_total",
			Help:      "Total number of datasets written to documents",
		}),

		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hdf5import",
			Name:      "datasets_skipped_total",
			Help:      "Total number of datasets skipped as unreadable or unsupported",
		}),

		renamed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hdf5import",
			Name:      "datasets_renamed_total",
			Help:      "Total number of datasets named after their full path to avoid a clash",
		}),

		paired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hdf5import",
			Name:      "error_bars_paired_total",
			Help:      "Total number of error datasets attached to a series",
		}),
	}

	for _, c := range []prometheus.Collector{m.imports, m.imported, m.skipped, m.renamed, m.paired} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) recordImport(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.imports.WithLabelValues(result).Inc()
}

func (m *Metrics) recordWalk(imported, skipped, renamed, paired int) {
	if m == nil {
		return
	}
	m.imported.Add(float64(imported))
	m.skipped.Add(float64(skipped))
	m.renamed.Add(float64(renamed))
	m.paired.Add(float64(paired))
}
