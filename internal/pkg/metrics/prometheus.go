package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// 分析结果
const (
	OutcomeDone      = "done"
	OutcomeError     = "error"
	OutcomeAbandoned = "abandoned"
)

var (
	// 分析次数，outcome=done/error/abandoned
	AnalysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stampy_analyses_total",
			Help: "Analyses finished, by outcome",
		},
		[]string{"outcome"},
	)

	// 流事件数，state=streaming/citations/error/其他
	StreamEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stampy_stream_events_total",
			Help: "Decoded upstream stream events, by state",
		},
		[]string{"state"},
	)

	// 请求发出到收到第一条事件的耗时
	FirstEventLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stampy_first_event_seconds",
			Help:    "Time from request start to the first decoded stream event",
			Buckets: prometheus.DefBuckets,
		},
	)

	// 当前打开的弹窗数
	ActivePopups = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "stampy_active_popups",
			Help: "Popups currently attached to a page",
		},
	)
)

var registerOnce sync.Once

// Init 注册所有指标
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(AnalysesTotal)
		prometheus.MustRegister(StreamEventsTotal)
		prometheus.MustRegister(FirstEventLatency)
		prometheus.MustRegister(ActivePopups)
	})
}
