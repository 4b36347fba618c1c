package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// QuoteRecomputeTotal counts full totals recomputations.
	QuoteRecomputeTotal prometheus.Counter
	// QuoteRowMutationsTotal counts row edits by operation (add, update, remove, clear, import).
	QuoteRowMutationsTotal *prometheus.CounterVec
	// CatalogImportTotal counts catalog imports by file format and outcome.
	CatalogImportTotal *prometheus.CounterVec
	// InvoiceRenderTotal counts document renders by target and outcome.
	InvoiceRenderTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		QuoteRecomputeTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_recompute_total",
			Help:      "Number of times quote totals were recomputed from scratch.",
		})
		QuoteRowMutationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_row_mutations_total",
			Help:      "Count of quote row mutations by operation.",
		}, []string{"op"})
		CatalogImportTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_import_total",
			Help:      "Count of catalog imports by format and result.",
		}, []string{"format", "result"})
		InvoiceRenderTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoice_render_total",
			Help:      "Count of document renders by target and result.",
		}, []string{"target", "result"})

		mustRegisterCollector(reg, QuoteRecomputeTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				QuoteRecomputeTotal = v
			}
		})
		mustRegisterCollector(reg, QuoteRowMutationsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				QuoteRowMutationsTotal = v
			}
		})
		mustRegisterCollector(reg, CatalogImportTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CatalogImportTotal = v
			}
		})
		mustRegisterCollector(reg, InvoiceRenderTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				InvoiceRenderTotal = v
			}
		})
	})
}

// ObserveRecompute records a totals recomputation. It is a no-op before registration.
func ObserveRecompute() {
	if QuoteRecomputeTotal != nil {
		QuoteRecomputeTotal.Inc()
	}
}

// ObserveRowMutation records a row mutation.
func ObserveRowMutation(op string) {
	if QuoteRowMutationsTotal != nil {
		QuoteRowMutationsTotal.WithLabelValues(op).Inc()
	}
}

// ObserveCatalogImport records a catalog import outcome.
func ObserveCatalogImport(format, result string) {
	if CatalogImportTotal != nil {
		CatalogImportTotal.WithLabelValues(format, result).Inc()
	}
}

// ObserveRender records a document render outcome.
func ObserveRender(target, result string) {
	if InvoiceRenderTotal != nil {
		InvoiceRenderTotal.WithLabelValues(target, result).Inc()
	}
}
