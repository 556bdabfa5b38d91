// Package metrics provides Prometheus collectors for extraction and conversion.
package metrics

import (
	"time"

	"github.com/hyperjump/extractify/internal/extract"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "extractify"

// Result label values.
const (
	ResultSuccess = "success"
	ResultDecode  = "decode_error"
	ResultColumns = "columns_error"
	ResultEmpty   = "empty"
	ResultError   = "error"
)

var (
	// ExtractTotal counts extraction calls.
	// Labels: result (success, decode_error, columns_error)
	ExtractTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extract",
			Name:      "total",
			Help:      "Total number of workbook extractions by result",
		},
		[]string{"result"},
	)

	// ExtractItemsTotal counts items returned by successful extractions.
	ExtractItemsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extract",
			Name:      "items_total",
			Help:      "Total number of items extracted",
		},
	)

	// ExtractDuration tracks how long extraction takes, decode included.
	ExtractDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "extract",
			Name:      "duration_seconds",
			Help:      "Duration of workbook extraction in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// ConvertTotal counts drop-folder and batch conversions.
	// Labels: result (success, empty, error)
	ConvertTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "convert",
			Name:      "total",
			Help:      "Total number of file conversions by result",
		},
		[]string{"result"},
	)
)

// ObserveExtract records one extraction that started at start.
func ObserveExtract(start time.Time, result string, items int) {
	ExtractDuration.Observe(time.Since(start).Seconds())
	ExtractTotal.WithLabelValues(result).Inc()
	if result == ResultSuccess {
		ExtractItemsTotal.Add(float64(items))
	}
}

// ExtractResult maps an Extract error to its result label.
func ExtractResult(err error) string {
	switch {
	case err == nil:
		return ResultSuccess
	case extract.IsDecodeError(err):
		return ResultDecode
	case extract.IsColumnsError(err):
		return ResultColumns
	default:
		return ResultError
	}
}
