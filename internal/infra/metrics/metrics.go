// Package metrics defines the Prometheus instrumentation for the auth flows.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics bundles the counters the usecase layer increments.
type Metrics struct {
	Registrations      *prometheus.CounterVec
	Logins             *prometheus.CounterVec
	TokenVerifications *prometheus.CounterVec
}

// New registers the counters on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the counters on the given registerer. Tests pass a fresh
// registry so repeated construction does not collide.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Registrations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fritime",
			Name:      "registrations_total",
			Help:      "User registration attempts by outcome.",
		}, []string{"outcome"}),
		Logins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fritime",
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		TokenVerifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fritime",
			Name:      "token_verifications_total",
			Help:      "Access token verifications by outcome.",
		}, []string{"outcome"}),
	}
}
