package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// イベント作成結果のラベル値
const (
	CreationSuccess    = "success"
	CreationConflict   = "conflict"
	CreationInvalid    = "invalid"
	CreationLockFailed = "lock_failed"
	CreationError      = "error"
)

// Metrics はアプリケーションのメトリクスを管理する
type Metrics struct {
	// HTTPリクエストの総数（method, path, status_code）
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPリクエストのレイテンシ（method, path）
	HTTPRequestDuration *prometheus.HistogramVec

	// イベント作成の試行数（status: success, conflict, invalid, lock_failed, error）
	EventCreationsTotal *prometheus.CounterVec

	// スケジュールロックの操作時間（operation: acquire/release, status: success/failed）
	ScheduleLockDuration *prometheus.HistogramVec

	// 競合チェック1回あたりの候補イベント数
	ConflictCandidates prometheus.Histogram

	// イベントキャッシュの参照結果（result: hit, miss, error）
	EventCacheLookups *prometheus.CounterVec

	// 監査で検出された重複ペア数
	ScheduleOverlaps prometheus.Gauge
}

// New は新しいMetricsインスタンスを作成し、デフォルトレジストリに登録する
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry は指定したレジストリにメトリクスを登録する
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		EventCreationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "event_creations_total",
				Help: "Total number of event creation attempts by outcome",
			},
			[]string{"status"},
		),
		ScheduleLockDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "schedule_lock_duration_seconds",
				Help:    "Time spent acquiring and releasing the schedule lock",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"operation", "status"},
		),
		ConflictCandidates: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "conflict_check_candidates",
				Help:    "Number of stored events returned by the candidate query per conflict check",
				Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
			},
		),
		EventCacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "event_cache_lookups_total",
				Help: "Event cache lookups by result",
			},
			[]string{"result"},
		),
		ScheduleOverlaps: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "schedule_overlapping_pairs",
				Help: "Overlapping event pairs found by the last schedule audit",
			},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.EventCreationsTotal,
		m.ScheduleLockDuration,
		m.ConflictCandidates,
		m.EventCacheLookups,
		m.ScheduleOverlaps,
	)

	return m
}
