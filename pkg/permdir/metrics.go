package permdir

import "github.com/prometheus/client_golang/prometheus"

type metrics struct {
	fetches *prometheus.CounterVec
	heals   *prometheus.CounterVec
	clears  prometheus.Counter
}

// newMetrics registers the directory's counters on reg. A nil reg gets
// a private registry so tests can construct directories freely without
// default-registry collisions.
func newMetrics(reg prometheus.Registerer) *metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &metrics{
		fetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "permdir_fetches_total",
				Help: "Permission fetches by outcome.",
			},
			[]string{"outcome"},
		),
		heals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "permdir_reconcile_heals_total",
				Help: "Reconciliation self-heals by direction.",
			},
			[]string{"direction"},
		),
		clears: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "permdir_clears_total",
			Help: "Times the permission state was cleared.",
		}),
	}

	reg.MustRegister(m.fetches, m.heals, m.clears)
	return m
}
