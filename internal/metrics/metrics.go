package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	CasesCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scheduling",
			Name:      "cases_created_total",
			Help:      "Total number of cases materialized by the intake pipeline",
		},
		[]string{"source"},
	)

	AvailabilitySubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scheduling",
			Name:      "availability_submissions_total",
			Help:      "Total number of candidate availability submissions",
		},
		[]string{"outcome"},
	)

	AuthzDenials = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scheduling",
			Name:      "authz_denials_total",
			Help:      "Total number of authorization denials by reason",
		},
		[]string{"reason"},
	)
)

// Init registers business metrics with Prometheus
func Init() {
	prometheus.MustRegister(CasesCreated)
	prometheus.MustRegister(AvailabilitySubmissions)
	prometheus.MustRegister(AuthzDenials)
}
