package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	ticksTotal     *prometheus.CounterVec
	barsClosed     *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	lastPrice      *prometheus.GaugeVec
	latency        *prometheus.HistogramVec
	reconnects     prometheus.Counter
	fallbacksTotal *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		ticksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradedeck_ticks_total",
				Help: "Total number of ticks received from the market stream",
			},
			[]string{"symbol"},
		),
		barsClosed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradedeck_bars_closed_total",
				Help: "Total number of candles closed and routed to a backend",
			},
			[]string{"backend", "timeframe"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradedeck_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tradedeck_last_price",
				Help: "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tradedeck_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		reconnects: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "tradedeck_stream_reconnects_total",
				Help: "Total number of market stream reconnects",
			},
		),
		fallbacksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradedeck_provider_fallbacks_total",
				Help: "Total number of REST quote requests served by the fallback provider",
			},
			[]string{"from", "to"},
		),
	}
}

// RecordTick records one inbound tick for a symbol.
func (r *Recorder) RecordTick(symbol string) {
	r.ticksTotal.WithLabelValues(symbol).Inc()
}

// RecordBarClosed records a closed candle routed to a backend.
func (r *Recorder) RecordBarClosed(backend, timeframe string) {
	r.barsClosed.WithLabelValues(backend, timeframe).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordReconnect records a stream reconnect.
func (r *Recorder) RecordReconnect() {
	r.reconnects.Inc()
}

// RecordFallback records a primary-to-secondary provider failover.
func (r *Recorder) RecordFallback(from, to string) {
	r.fallbacksTotal.WithLabelValues(from, to).Inc()
}
