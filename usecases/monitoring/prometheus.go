//                           _       _
// __      _____  __ ___   ___  __ _| |_ ___
// \ \ /\ / / _ \/ _` \ \ / / |/ _` | __/ _ \
//  \ V  V /  __/ (_| |\ V /| | (_| | ||  __/
//   \_/\_/ \___|\__,_| \_/ |_|\__,_|\__\___|
//
//  Copyright © 2016 - 2024 Weaviate B.V. All rights reserved.
//
//  CONTACT: hello@weaviate.io
//

package monitoring

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics are the collectors of a single merge run. A nil
// *PrometheusMetrics is valid and records nothing.
type PrometheusMetrics struct {
	Registry *prometheus.Registry

	InputFiles     prometheus.Gauge
	InputRows      prometheus.Gauge
	OutputBytes    prometheus.Gauge
	FilesCopied    prometheus.Counter
	RowsCopied     prometheus.Counter
	BytesCopied    prometheus.Counter
	BytesRead      prometheus.Counter
	FileCopyTime   prometheus.Histogram
	StageDurations *prometheus.GaugeVec
	Failures       *prometheus.CounterVec
	Succeeded      prometheus.Gauge
}

func NewPrometheusMetrics() *PrometheusMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		Registry: reg,
		InputFiles: factory.NewGauge(prometheus.GaugeOpts{
			Name: "memmap_merge_input_files",
			Help: "Number of input arrays resolved for the merge",
		}),
		InputRows: factory.NewGauge(prometheus.GaugeOpts{
			Name: "memmap_merge_input_rows",
			Help: "Total number of rows across all input arrays",
		}),
		OutputBytes: factory.NewGauge(prometheus.GaugeOpts{
			Name: "memmap_merge_output_bytes",
			Help: "Size of the allocated merged array in bytes",
		}),
		FilesCopied: factory.NewCounter(prometheus.CounterOpts{
			Name: "memmap_merge_files_copied_total",
			Help: "Number of input arrays fully copied into the output",
		}),
		RowsCopied: factory.NewCounter(prometheus.CounterOpts{
			Name: "memmap_merge_rows_copied_total",
			Help: "Number of rows copied into the output",
		}),
		BytesCopied: factory.NewCounter(prometheus.CounterOpts{
			Name: "memmap_merge_bytes_copied_total",
			Help: "Number of element bytes copied into the output",
		}),
		BytesRead: factory.NewCounter(prometheus.CounterOpts{
			Name: "memmap_merge_input_bytes_read_total",
			Help: "Number of bytes read from input files, headers included",
		}),
		FileCopyTime: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "memmap_merge_file_copy_duration_seconds",
			Help:    "Time to copy a single input array",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		StageDurations: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "memmap_merge_stage_duration_seconds",
			Help: "Wall time spent in each stage of the merge",
		}, []string{"stage"}),
		Failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "memmap_merge_failures_total",
			Help: "Failed merge runs by error kind",
		}, []string{"kind"}),
		Succeeded: factory.NewGauge(prometheus.GaugeOpts{
			Name: "memmap_merge_succeeded",
			Help: "1 if the last run completed, 0 otherwise",
		}),
	}
}

// WriteTextfile dumps all collectors in the prometheus text format, e.g.
// for the node exporter's textfile collector.
func (pm *PrometheusMetrics) WriteTextfile(path string) error {
	if pm == nil {
		return nil
	}
	return errors.Wrapf(prometheus.WriteToTextfile(path, pm.Registry), "write metrics to %s", path)
}
