package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 生成结果
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

var (
	documentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generation",
			Name:      "documents_total",
			Help:      "文档生成次数，按格式与结果区分。",
		},
		[]string{"format", "status"},
	)

	generationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "generation",
			Name:      "duration_seconds",
			Help:      "文档生成耗时（含写入存储）。",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"format"},
	)

	documentBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "generation",
			Name:      "document_bytes",
			Help:      "生成文档大小（字节）。",
			Buckets:   prometheus.ExponentialBuckets(4096, 4, 8),
		},
		[]string{"format"},
	)
)

// ObserveGeneration records one generation attempt. size is ignored for failures.
func ObserveGeneration(format string, err error, elapsed time.Duration, size int64) {
	status := StatusSuccess
	if err != nil {
		status = StatusFailure
	}
	documentsTotal.WithLabelValues(format, status).Inc()
	generationDuration.WithLabelValues(format).Observe(elapsed.Seconds())
	if err == nil && size > 0 {
		documentBytes.WithLabelValues(format).Observe(float64(size))
	}
}
