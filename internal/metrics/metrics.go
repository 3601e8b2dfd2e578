package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics stores Prometheus collectors used across the service.
type Metrics struct {
	LikesTotal        *prometheus.CounterVec
	MatchesCreated    prometheus.Counter
	MessagesTotal     *prometheus.CounterVec
	RedemptionsTotal  *prometheus.CounterVec
	BoostsApplied     prometheus.Counter
	ActivationsTotal  *prometheus.CounterVec
	Errors            *prometheus.CounterVec
}

var (
	regOnce         sync.Once
	metricsInstance *Metrics
)

// Registry builds and registers the metrics singleton with optional namespace.
func Registry(namespace string) *Metrics {
	regOnce.Do(func() {
		metricsInstance = &Metrics{
			LikesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "likes_total",
				Help:      "Total like decisions recorded, by result (new or duplicate).",
			}, []string{"result"}),
			MatchesCreated: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "matches_created_total",
				Help:      "Total match records created from mutual likes.",
			}),
			MessagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "chat_messages_total",
				Help:      "Total chat send attempts, by outcome (sent, rejected).",
			}, []string{"outcome"}),
			RedemptionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "promo_redemptions_total",
				Help:      "Total promocode redemption attempts, by outcome.",
			}, []string{"outcome"}),
			BoostsApplied: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "boosts_applied_total",
				Help:      "Total boosts successfully applied.",
			}),
			ActivationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "payment_activations_total",
				Help:      "Total payment activations applied, by payment kind.",
			}, []string{"kind"}),
			Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total infrastructure errors grouped by component.",
			}, []string{"component"}),
		}

		prometheus.MustRegister(
			metricsInstance.LikesTotal,
			metricsInstance.MatchesCreated,
			metricsInstance.MessagesTotal,
			metricsInstance.RedemptionsTotal,
			metricsInstance.BoostsApplied,
			metricsInstance.ActivationsTotal,
			metricsInstance.Errors,
		)
	})
	return metricsInstance
}
