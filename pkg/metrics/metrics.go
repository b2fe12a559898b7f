// Package metrics 汇总服务对外暴露的 Prometheus 指标
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// 分配运行结果标签
const (
	OutcomeOK       = "ok"
	OutcomePartial  = "partial"
	OutcomeRejected = "rejected"
	OutcomeBusy     = "busy"
	OutcomeError    = "error"
)

var (
	assignmentRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ta_assign_runs_total",
			Help: "Assignment engine runs by outcome",
		},
		[]string{"outcome"},
	)

	assignmentDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ta_assign_run_duration_seconds",
			Help:    "Wall time of one assignment engine run",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		},
	)

	assignmentCommits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ta_assign_commits_total",
			Help: "Committed TA-course pairs by scheduler pass",
		},
		[]string{"pass"},
	)

	unfilledPositions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ta_assign_unfilled_positions",
			Help: "Unfilled TA positions after the latest run",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ta_assign_http_requests_total",
			Help: "HTTP requests by route, method and status",
		},
		[]string{"route", "method", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ta_assign_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
)

// Register 注册全部指标
func Register(r prometheus.Registerer) {
	r.MustRegister(
		assignmentRuns,
		assignmentDuration,
		assignmentCommits,
		unfilledPositions,
		httpRequests,
		httpDuration,
	)
}

// RecordRun 记录一次分配运行
func RecordRun(outcome string, d time.Duration) {
	assignmentRuns.WithLabelValues(outcome).Inc()
	if outcome == OutcomeOK || outcome == OutcomePartial {
		assignmentDuration.Observe(d.Seconds())
	}
}

// RecordPlan 记录调度提交数与剩余缺口
func RecordPlan(pass1, pass2, unfilled int) {
	assignmentCommits.WithLabelValues("1").Add(float64(pass1))
	assignmentCommits.WithLabelValues("2").Add(float64(pass2))
	unfilledPositions.Set(float64(unfilled))
}

// RecordHTTP 记录一次 HTTP 请求
func RecordHTTP(route, method string, status int, d time.Duration) {
	httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(route, method).Observe(d.Seconds())
}
