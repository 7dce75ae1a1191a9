// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector は認証フローのPrometheusメトリクスを収集する。
type Collector struct {
	loginSuccess      *prometheus.CounterVec
	loginFailure      *prometheus.CounterVec
	sessionLookups    *prometheus.CounterVec
	sessionsDestroyed prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		loginSuccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authgate_login_success_total",
			Help: "プロバイダー別のログイン成功数",
		}, []string{"provider"}),
		loginFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authgate_login_failure_total",
			Help: "プロバイダー・原因別のログイン失敗数",
		}, []string{"provider", "reason"}),
		sessionLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authgate_session_lookup_total",
			Help: "結果別のセッション解決数（hit/miss/error）",
		}, []string{"result"}),
		sessionsDestroyed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authgate_sessions_destroyed_total",
			Help: "破棄されたセッションの合計数",
		}),
	}

	reg.MustRegister(
		c.loginSuccess,
		c.loginFailure,
		c.sessionLookups,
		c.sessionsDestroyed,
	)

	return c
}

// RecordLoginSuccess はログイン成功を記録する。
func (c *Collector) RecordLoginSuccess(provider string) {
	c.loginSuccess.WithLabelValues(provider).Inc()
}

// RecordLoginFailure はログイン失敗を記録する。
func (c *Collector) RecordLoginFailure(provider string, reason string) {
	c.loginFailure.WithLabelValues(provider, reason).Inc()
}

// RecordSessionLookup はセッション解決の結果を記録する。
func (c *Collector) RecordSessionLookup(result string) {
	c.sessionLookups.WithLabelValues(result).Inc()
}

// RecordSessionDestroyed はセッション破棄を記録する。
func (c *Collector) RecordSessionDestroyed() {
	c.sessionsDestroyed.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
