// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Advisory intake metrics
	AdvisoriesReceived *prometheus.CounterVec
	AdvisoryDropped    *prometheus.CounterVec
	DecodeErrors       *prometheus.CounterVec
	DedupDuplicates    prometheus.Counter
	DedupEvictions     prometheus.Counter

	// Decision metrics
	TriggersFired    *prometheus.CounterVec
	DecisionsEmitted *prometheus.CounterVec
	Rejections       *prometheus.CounterVec
	Vetoes           *prometheus.CounterVec
	SizeVetoes       prometheus.Counter
	DecisionLatency  prometheus.Histogram
	SendErrors       prometheus.Counter

	// Position metrics
	OpenPositions    prometheus.Gauge
	CommittedSOL     prometheus.Gauge
	PositionsOpened  *prometheus.CounterVec
	PositionsClosed  *prometheus.CounterVec
	PositionsAbandon prometheus.Counter
	ExitsTriggered   *prometheus.CounterVec
	RealizedPnLSOL   prometheus.Counter
	RealizedLossSOL  prometheus.Counter

	// Cache metrics
	MintCacheSize      prometheus.Gauge
	WalletCacheSize    prometheus.Gauge
	CacheRefreshErrors *prometheus.CounterVec

	// Feed metrics
	PriceTicks        prometheus.Counter
	FeedSubscriptions prometheus.Gauge

	// Health metrics
	LastDecisionTimestamp prometheus.Gauge
	UptimeSeconds         prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "decision_core"
	}

	return &Metrics{
		// Advisory intake metrics
		AdvisoriesReceived: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bus",
			Name:      "advisories_received_total",
			Help:      "Total number of advisories decoded, by kind",
		}, []string{"kind"}),
		AdvisoryDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bus",
			Name:      "advisories_dropped_total",
			Help:      "Total number of advisories dropped before triggering, by cause",
		}, []string{"cause"}),
		DecodeErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bus",
			Name:      "decode_errors_total",
			Help:      "Total number of undecodable packets, by kind",
		}, []string{"kind"}),
		DedupDuplicates: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bus",
			Name:      "dedup_duplicates_total",
			Help:      "Total number of duplicate decisions suppressed",
		}),
		DedupEvictions: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bus",
			Name:      "dedup_evictions_total",
			Help:      "Total number of dedup entries evicted",
		}),

		// Decision metrics
		TriggersFired: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "decision",
			Name:      "triggers_fired_total",
			Help:      "Total number of triggers fired, by pathway",
		}, []string{"pathway"}),
		DecisionsEmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "decision",
			Name:      "emitted_total",
			Help:      "Total number of trade instructions sent, by pathway and side",
		}, []string{"pathway", "side"}),
		Rejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "decision",
			Name:      "rejections_total",
			Help:      "Total number of validation rejections, by reason",
		}, []string{"reason"}),
		Vetoes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "decision",
			Name:      "vetoes_total",
			Help:      "Total number of guardrail vetoes, by rule",
		}, []string{"rule"}),
		SizeVetoes: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "decision",
			Name:      "size_vetoes_total",
			Help:      "Total number of entries vetoed by sizing (portfolio heat)",
		}),
		DecisionLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "decision",
			Name:      "latency_seconds",
			Help:      "Advisory receipt to instruction send latency in seconds",
			Buckets:   []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1},
		}),
		SendErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "decision",
			Name:      "send_errors_total",
			Help:      "Total number of failed instruction sends",
		}),

		// Position metrics
		OpenPositions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "position",
			Name:      "open",
			Help:      "Current number of pending and live positions",
		}),
		CommittedSOL: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "position",
			Name:      "committed_sol",
			Help:      "SOL reserved by pending buys plus deployed in holdings",
		}),
		PositionsOpened: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "position",
			Name:      "opened_total",
			Help:      "Total number of positions opened, by pathway",
		}, []string{"pathway"}),
		PositionsClosed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "position",
			Name:      "closed_total",
			Help:      "Total number of positions closed, by pathway and outcome",
		}, []string{"pathway", "outcome"}),
		PositionsAbandon: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "position",
			Name:      "abandoned_total",
			Help:      "Total number of positions abandoned after repeated sell failures",
		}),
		ExitsTriggered: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "position",
			Name:      "exits_triggered_total",
			Help:      "Total number of exit instructions triggered, by reason",
		}, []string{"reason"}),
		RealizedPnLSOL: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "position",
			Name:      "realized_profit_sol_total",
			Help:      "Cumulative realized profit in SOL across winning closes",
		}),
		RealizedLossSOL: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "position",
			Name:      "realized_loss_sol_total",
			Help:      "Cumulative realized loss in SOL across losing closes",
		}),

		// Cache metrics
		MintCacheSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "mint_entries",
			Help:      "Current number of mints in the feature cache",
		}),
		WalletCacheSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "wallet_entries",
			Help:      "Current number of wallets in the feature cache",
		}),
		CacheRefreshErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "refresh_errors_total",
			Help:      "Total number of failed cache refreshes, by cache",
		}, []string{"cache"}),

		// Feed metrics
		PriceTicks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "price_ticks_total",
			Help:      "Total number of live price ticks applied",
		}),
		FeedSubscriptions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "subscriptions",
			Help:      "Current number of price feed subscriptions",
		}),

		// Health metrics
		LastDecisionTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_decision_timestamp",
			Help:      "Unix timestamp of the last emitted instruction",
		}),
		UptimeSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordAdvisory increments the received counter for an advisory kind.
func RecordAdvisory(kind string) {
	DefaultMetrics.AdvisoriesReceived.WithLabelValues(kind).Inc()
}

// RecordAdvisoryDropped counts an advisory discarded before triggering.
func RecordAdvisoryDropped(cause string) {
	DefaultMetrics.AdvisoryDropped.WithLabelValues(cause).Inc()
}

// RecordDecodeError counts an undecodable packet.
func RecordDecodeError(kind string) {
	DefaultMetrics.DecodeErrors.WithLabelValues(kind).Inc()
}

// RecordTrigger counts a fired trigger.
func RecordTrigger(pathway string) {
	DefaultMetrics.TriggersFired.WithLabelValues(pathway).Inc()
}

// RecordRejection counts a validation rejection by reason.
func RecordRejection(reason string) {
	DefaultMetrics.Rejections.WithLabelValues(reason).Inc()
}

// RecordVeto counts a guardrail veto by rule.
func RecordVeto(rule string) {
	DefaultMetrics.Vetoes.WithLabelValues(rule).Inc()
}

// RecordDecisionEmitted counts a sent instruction and stamps health.
func RecordDecisionEmitted(pathway, side string, latencySeconds float64, sentAtUnix int64) {
	DefaultMetrics.DecisionsEmitted.WithLabelValues(pathway, side).Inc()
	DefaultMetrics.DecisionLatency.Observe(latencySeconds)
	DefaultMetrics.LastDecisionTimestamp.Set(float64(sentAtUnix))
}

// RecordExit counts a triggered exit by reason.
func RecordExit(reason string) {
	DefaultMetrics.ExitsTriggered.WithLabelValues(reason).Inc()
}

// RecordClose counts a closed position and accumulates realized pnl.
func RecordClose(pathway string, pnlSOL float64) {
	outcome := "loss"
	if pnlSOL > 0 {
		outcome = "win"
	}
	DefaultMetrics.PositionsClosed.WithLabelValues(pathway, outcome).Inc()
	if pnlSOL >= 0 {
		DefaultMetrics.RealizedPnLSOL.Add(pnlSOL)
	} else {
		DefaultMetrics.RealizedLossSOL.Add(-pnlSOL)
	}
}

// UpdatePositionGauges refreshes the open-position and committed gauges.
func UpdatePositionGauges(open int, committedSOL float64) {
	DefaultMetrics.OpenPositions.Set(float64(open))
	DefaultMetrics.CommittedSOL.Set(committedSOL)
}

// UpdateCacheSizes refreshes the cache entry gauges.
func UpdateCacheSizes(mints, wallets int) {
	DefaultMetrics.MintCacheSize.Set(float64(mints))
	DefaultMetrics.WalletCacheSize.Set(float64(wallets))
}
