// internal/utils/metrics/collector.go
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-arb/internal/dex"
	"github.com/rovshanmuradov/solana-arb/internal/engine"
	"github.com/rovshanmuradov/solana-arb/internal/program"
)

const namespace = "solana_arb"

// Collector records engine and client metrics on its own registry.
type Collector struct {
	registry *prometheus.Registry

	hops        *prometheus.CounterVec
	outcomes    *prometheus.CounterVec
	profit      prometheus.Histogram
	rpcLatency  *prometheus.HistogramVec
	submissions *prometheus.CounterVec
}

var _ engine.Observer = (*Collector)(nil)

// NewCollector creates a collector with all metrics registered.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		hops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hops_total",
			Help:      "Hops executed, by pool family, leg and status",
		}, []string{"pool", "leg", "status"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outcomes_total",
			Help:      "Chain outcomes, by hop count and result code",
		}, []string{"hops", "result"}),
		profit: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "profit_lamports",
			Help:      "Realized profit of accepted chains",
			Buckets:   prometheus.ExponentialBuckets(1_000, 4, 10),
		}),
		rpcLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_latency_seconds",
			Help:      "RPC call latency, by method",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Transactions simulated or sent, by mode and status",
		}, []string{"mode", "status"}),
	}

	c.registry.MustRegister(c.hops, c.outcomes, c.profit, c.rpcLatency, c.submissions)
	return c
}

// Registry exposes the underlying registry for exporters and tests.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// ObserveHop implements engine.Observer.
func (c *Collector) ObserveHop(pool dex.PoolType, leg dex.LegKind, err error) {
	c.hops.WithLabelValues(pool.String(), leg.String(), status(err)).Inc()
}

// ObserveOutcome implements engine.Observer.
func (c *Collector) ObserveOutcome(threeHop bool, profit uint64, err error) {
	hops := "2"
	if threeHop {
		hops = "3"
	}
	c.outcomes.WithLabelValues(hops, result(err)).Inc()
	if err == nil {
		c.profit.Observe(float64(profit))
	}
}

// RecordRPCLatency records the duration of one RPC call.
func (c *Collector) RecordRPCLatency(method string, duration time.Duration) {
	c.rpcLatency.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordSubmission counts a simulate or send attempt.
func (c *Collector) RecordSubmission(mode string, err error) {
	c.submissions.WithLabelValues(mode, status(err)).Inc()
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (c *Collector) Serve(ctx context.Context, addr string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Metrics exporter listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func status(err error) string {
	if err != nil {
		return "failed"
	}
	return "success"
}

func result(err error) string {
	if err == nil {
		return "ok"
	}
	if code, ok := program.CodeOf(err); ok {
		return code.Name()
	}
	return "error"
}
