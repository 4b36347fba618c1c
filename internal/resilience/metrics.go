package resilience

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Breaker collectors, labelled by the guarded dependency (e.g. "chrome"). They stay
// nil, and breakers record nothing, until MustRegisterMetrics runs.
var (
	metricsOnce sync.Once

	BreakerState       *prometheus.GaugeVec
	BreakerTransitions *prometheus.CounterVec
	BreakerOpenedTotal *prometheus.CounterVec
)

// MustRegisterMetrics creates the breaker collectors under namespace and registers
// them with reg, or the default registerer when reg is nil. Later calls are no-ops.
func MustRegisterMetrics(namespace string, reg prometheus.Registerer) {
	metricsOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		BreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "breaker_state",
			Help:      "Current breaker state: 0=closed,1=open,2=half-open",
		}, []string{"target"})
		BreakerTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaker_transition_total",
			Help:      "Count of breaker state transitions",
		}, []string{"target", "from", "to"})
		BreakerOpenedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaker_open_total",
			Help:      "Number of times a breaker opened",
		}, []string{"target"})

		if err := reg.Register(BreakerState); err != nil {
			are, ok := err.(prometheus.AlreadyRegisteredError)
			if !ok {
				panic(err)
			}
			BreakerState = are.ExistingCollector.(*prometheus.GaugeVec)
		}
		if err := reg.Register(BreakerTransitions); err != nil {
			are, ok := err.(prometheus.AlreadyRegisteredError)
			if !ok {
				panic(err)
			}
			BreakerTransitions = are.ExistingCollector.(*prometheus.CounterVec)
		}
		if err := reg.Register(BreakerOpenedTotal); err != nil {
			are, ok := err.(prometheus.AlreadyRegisteredError)
			if !ok {
				panic(err)
			}
			BreakerOpenedTotal = are.ExistingCollector.(*prometheus.CounterVec)
		}
	})
}
