package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// 全局 Registry，供 API/CLI 注册与暴露
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	DefaultRegistry.MustRegister(
		PipelineDuration, PipelineTotal,
		StepDuration, StepSkippedTotal,
		CompletionDuration, CompletionErrorsTotal,
		RateLimitWait,
	)
}

// PipelineDuration 一次完整生成（规划+执行）的耗时（秒）
var PipelineDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "mailgenie_pipeline_duration_seconds",
		Help:    "邮件生成管线耗时（秒）",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	},
)

// PipelineTotal 管线运行次数（按结果）
var PipelineTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "mailgenie_pipeline_total",
		Help: "邮件生成管线运行次数",
	},
	[]string{"status"}, // success | planning_failed | step_failed | error
)

// StepDuration 单个步骤耗时（秒）
var StepDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "mailgenie_step_duration_seconds",
		Help:    "步骤执行耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"tool"},
)

// StepSkippedTotal 被跳过的未知工具步骤数
var StepSkippedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "mailgenie_step_skipped_total",
		Help: "计划中未知工具被跳过的次数",
	},
	[]string{"tool"},
)

// CompletionDuration 结构化补全调用耗时（秒）
var CompletionDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "mailgenie_completion_duration_seconds",
		Help:    "结构化补全调用耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"prompt", "provider"},
)

// CompletionErrorsTotal 补全失败次数
var CompletionErrorsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "mailgenie_completion_errors_total",
		Help: "结构化补全失败次数",
	},
	[]string{"prompt", "reason"}, // missing_output | transport | canceled
)

// RateLimitWait 等待 LLM 限流许可的耗时（秒）
var RateLimitWait = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "mailgenie_rate_limit_wait_seconds",
		Help:    "等待 LLM 限流许可的耗时（秒）",
		Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10, 30},
	},
	[]string{"provider"},
)

// WritePrometheus 将 Prometheus 文本格式写入 w（供 Hertz 等复用）
func WritePrometheus(w io.Writer) error {
	metrics, err := DefaultRegistry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range metrics {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
