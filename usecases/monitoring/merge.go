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

import "time"

// Inputs records the size of the resolved work.
func (pm *PrometheusMetrics) Inputs(files int, rows int64, outputBytes int64) {
	if pm == nil {
		return
	}

	pm.InputFiles.Set(float64(files))
	pm.InputRows.Set(float64(rows))
	pm.OutputBytes.Set(float64(outputBytes))
}

// Copied records one fully copied input array.
func (pm *PrometheusMetrics) Copied(rows, bytes int64, took time.Duration) {
	if pm == nil {
		return
	}

	pm.FilesCopied.Inc()
	pm.RowsCopied.Add(float64(rows))
	pm.BytesCopied.Add(float64(bytes))
	pm.FileCopyTime.Observe(took.Seconds())
}

// Read records bytes read from an input file.
func (pm *PrometheusMetrics) Read(n int64) {
	if pm == nil {
		return
	}

	pm.BytesRead.Add(float64(n))
}

// Stage records how long a stage of the run took.
func (pm *PrometheusMetrics) Stage(stage string, took time.Duration) {
	if pm == nil {
		return
	}

	pm.StageDurations.WithLabelValues(stage).Set(took.Seconds())
}

// Finished marks the outcome of the run. kind is empty on success.
func (pm *PrometheusMetrics) Finished(kind string) {
	if pm == nil {
		return
	}

	if kind == "" {
		pm.Succeeded.Set(1)
		return
	}
	pm.Succeeded.Set(0)
	pm.Failures.WithLabelValues(kind).Inc()
}
