// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// 認証サービス、タスクサービス、HTTPミドルウェアから利用する。
type MetricsCollector interface {
	RecordLoginSuccess()
	RecordLoginFailure(kind string)
	RecordKeyFetchLatency(duration time.Duration)
	RecordHTTPStatus(statusCode int)
	RecordRankedTasks(count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	loginSuccess    prometheus.Counter
	loginFail       *prometheus.CounterVec
	keyFetchLatency prometheus.Histogram
	httpStatus      *prometheus.CounterVec
	rankedTasks     prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		loginSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mossy_login_success_total",
			Help: "ログイン成功の合計数",
		}),
		loginFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mossy_login_fail_total",
			Help: "失敗種別ごとのログイン失敗数",
		}, []string{"kind"}),
		keyFetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mossy_key_fetch_latency_seconds",
			Help:    "Apple公開鍵セット取得のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mossy_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		rankedTasks: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mossy_ranked_tasks",
			Help:    "タスク一覧1回あたりの返却件数",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
		}),
	}

	reg.MustRegister(
		c.loginSuccess,
		c.loginFail,
		c.keyFetchLatency,
		c.httpStatus,
		c.rankedTasks,
	)

	return c
}

// RecordLoginSuccess はログイン成功を記録する。
func (c *Collector) RecordLoginSuccess() {
	c.loginSuccess.Inc()
}

// RecordLoginFailure はログイン失敗を種別付きで記録する。
func (c *Collector) RecordLoginFailure(kind string) {
	if kind == "" {
		kind = "unknown"
	}
	c.loginFail.WithLabelValues(kind).Inc()
}

// RecordKeyFetchLatency は鍵セット取得のレイテンシを記録する。
func (c *Collector) RecordKeyFetchLatency(duration time.Duration) {
	c.keyFetchLatency.Observe(duration.Seconds())
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRankedTasks はタスク一覧で返却した件数を記録する。
func (c *Collector) RecordRankedTasks(count int) {
	c.rankedTasks.Observe(float64(count))
}

// NopCollector は何も記録しないMetricsCollector。テストやメトリクス無効時に使う。
type NopCollector struct{}

func (NopCollector) RecordLoginSuccess()                 {}
func (NopCollector) RecordLoginFailure(string)           {}
func (NopCollector) RecordKeyFetchLatency(time.Duration) {}
func (NopCollector) RecordHTTPStatus(int)                {}
func (NopCollector) RecordRankedTasks(int)               {}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = NopCollector{}
)
