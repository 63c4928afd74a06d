// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層から利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordSignupOutcome(outcome string)
	RecordReconciliation(action string)
	RecordEmailDispatch(outcome string)
	RecordKVFallback(entity string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus     *prometheus.CounterVec
	signupOutcome  *prometheus.CounterVec
	reconciliation *prometheus.CounterVec
	emailDispatch  *prometheus.CounterVec
	kvFallback     *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		signupOutcome: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_signup_total",
			Help: "サインアップの結果別の合計数",
		}, []string{"outcome"}),
		reconciliation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_signup_reconciliation_total",
			Help: "孤児レコード整理のアクション別の合計数",
		}, []string{"action"}),
		emailDispatch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_email_dispatch_total",
			Help: "メール通知の結果別の合計数",
		}, []string{"outcome"}),
		kvFallback: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_kv_fallback_total",
			Help: "Key-Valueストアへのフォールバック発生数（エンティティ別）",
		}, []string{"entity"}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.signupOutcome,
		c.reconciliation,
		c.emailDispatch,
		c.kvFallback,
	)

	return c
}

// RecordHTTPStatus はHTTPレスポンスのステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordSignupOutcome はサインアップの結果を記録する。
// outcome: created, duplicate, validation_error, provider_error
func (c *Collector) RecordSignupOutcome(outcome string) {
	c.signupOutcome.WithLabelValues(outcome).Inc()
}

// RecordReconciliation は孤児レコード整理のアクションを記録する。
// action: deleted, renamed, rename_failed, table_missing
func (c *Collector) RecordReconciliation(action string) {
	c.reconciliation.WithLabelValues(action).Inc()
}

// RecordEmailDispatch はメール通知の結果を記録する。
// outcome: sent, skipped, failed
func (c *Collector) RecordEmailDispatch(outcome string) {
	c.emailDispatch.WithLabelValues(outcome).Inc()
}

// RecordKVFallback はKey-Valueストアへのフォールバック発生を記録する。
// entity: booking, bookings_read, purchases_read
func (c *Collector) RecordKVFallback(entity string) {
	c.kvFallback.WithLabelValues(entity).Inc()
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)

// NopCollector は何も記録しないMetricsCollector実装。テスト用。
type NopCollector struct{}

func (NopCollector) RecordHTTPStatus(int)       {}
func (NopCollector) RecordSignupOutcome(string) {}
func (NopCollector) RecordReconciliation(string) {}
func (NopCollector) RecordEmailDispatch(string) {}
func (NopCollector) RecordKVFallback(string)    {}

// compile-time interface check
var _ MetricsCollector = NopCollector{}
