package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ScopeGlobal = "global"
	ScopeStage  = "stage"
)

var (
	BetsSubmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "prode_bets_submitted_total",
		Help: "bets created or updated",
	})
	ResultsEntered = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "prode_results_entered_total",
		Help: "match results set or cleared",
	})
	RankingDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "prode_ranking_compute_seconds",
		Help:    "time spent loading bets and aggregating a ranking",
		Buckets: prometheus.DefBuckets,
	}, []string{"scope"})
	CacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "prode_ranking_cache_hits_total",
		Help: "rankings served from redis",
	})
	CacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "prode_ranking_cache_misses_total",
		Help: "rankings recomputed after a redis miss",
	})
)

func init() {
	prometheus.MustRegister(BetsSubmitted, ResultsEntered, RankingDuration, CacheHits, CacheMisses)
}

// ObserveRanking records the time since start under the given scope.
func ObserveRanking(scope string, start time.Time) {
	RankingDuration.WithLabelValues(scope).Observe(time.Since(start).Seconds())
}

type HealthFunc func(ctx context.Context) error

// StartMetricsServer поднимает отдельный сервер только для /metrics и /healthz.
func StartMetricsServer(port string, healthFn HealthFunc) *http.Server {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", HealthHandler(healthFn))

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}

	go func() {
		_ = srv.ListenAndServe()
	}()

	return srv
}

func HealthHandler(healthFn HealthFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()

		if err := healthFn(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(fmt.Sprintf("unhealthy: %v", err)))
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
