// Package metrics はダッシュボードAPIのPrometheusメトリクスを提供する。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics はAPIが記録するメトリクスの集合。
type Metrics struct {
	// GuardDecisions は管理者ガードの判定結果ごとの件数。
	GuardDecisions *prometheus.CounterVec
	// NotificationsCreated はチャネル・配信状態ごとの通知作成件数。
	NotificationsCreated *prometheus.CounterVec
	// RequestDuration はルートごとのリクエスト処理時間。
	RequestDuration *prometheus.HistogramVec
}

// New はメトリクスを生成し、regに登録する。
// テストではprometheus.NewRegistry()を渡して重複登録を避ける。
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		GuardDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dashboard",
				Subsystem: "authz",
				Name:      "guard_decisions_total",
				Help:      "Admin guard decisions by result",
			},
			[]string{"result"},
		),
		NotificationsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dashboard",
				Subsystem: "notification",
				Name:      "created_total",
				Help:      "Notification records created by channel and initial delivery status",
			},
			[]string{"channel", "delivery_status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "dashboard",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.GuardDecisions, m.NotificationsCreated, m.RequestDuration)
	}
	return m
}

// Noop は登録を行わないメトリクスを返す。
func Noop() *Metrics {
	return New(nil)
}
