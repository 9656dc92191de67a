package keeper

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Verification result label values
const (
	resultAccepted = "accepted"
	resultRejected = "rejected"
)

// PricefeedMetrics holds all Prometheus metrics for the pricefeed module
type PricefeedMetrics struct {
	// Verification metrics
	Verifications   *prometheus.CounterVec
	Rejections      *prometheus.CounterVec
	PriceAge        *prometheus.GaugeVec
	ConfidenceRatio *prometheus.GaugeVec

	// Receiver metrics
	UpdatesPosted *prometheus.CounterVec
}

var (
	pricefeedMetricsOnce sync.Once
	pricefeedMetrics     *PricefeedMetrics
)

// NewPricefeedMetrics creates and registers pricefeed metrics (singleton pattern)
func NewPricefeedMetrics() *PricefeedMetrics {
	pricefeedMetricsOnce.Do(func() {
		pricefeedMetrics = &PricefeedMetrics{
			Verifications: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "pricefeed",
					Name:      "verifications_total",
					Help:      "Price verifications by feed and result",
				},
				[]string{"feed", "result"},
			),
			Rejections: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "pricefeed",
					Name:      "rejections_total",
					Help:      "Rejected price verifications by feed and error kind",
				},
				[]string{"feed", "reason"},
			),
			PriceAge: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Namespace: "paw",
					Subsystem: "pricefeed",
					Name:      "price_age_seconds",
					Help:      "Age of the last accepted price at verification time",
				},
				[]string{"feed"},
			),
			ConfidenceRatio: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Namespace: "paw",
					Subsystem: "pricefeed",
					Name:      "confidence_ratio_bps",
					Help:      "Confidence to price ratio of the last accepted price, in basis points",
				},
				[]string{"feed"},
			),
			UpdatesPosted: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "pricefeed",
					Name:      "updates_posted_total",
					Help:      "Price update accounts accepted by the receiver store",
				},
				[]string{"feed"},
			),
		}
	})
	return pricefeedMetrics
}
