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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeMetrics(t *testing.T) {
	pm := NewPrometheusMetrics()

	pm.Inputs(3, 10, 160)
	pm.Copied(2, 32, time.Millisecond)
	pm.Copied(8, 128, 2*time.Millisecond)
	pm.Stage("copy", time.Second)
	pm.Read(300)
	pm.Finished("")

	assert.Equal(t, float64(300), testutil.ToFloat64(pm.BytesRead))
	assert.Equal(t, float64(3), testutil.ToFloat64(pm.InputFiles))
	assert.Equal(t, float64(10), testutil.ToFloat64(pm.InputRows))
	assert.Equal(t, float64(2), testutil.ToFloat64(pm.FilesCopied))
	assert.Equal(t, float64(10), testutil.ToFloat64(pm.RowsCopied))
	assert.Equal(t, float64(160), testutil.ToFloat64(pm.BytesCopied))
	assert.Equal(t, float64(1), testutil.ToFloat64(pm.StageDurations.WithLabelValues("copy")))
	assert.Equal(t, float64(1), testutil.ToFloat64(pm.Succeeded))

	pm.Finished("write")
	assert.Equal(t, float64(0), testutil.ToFloat64(pm.Succeeded))
	assert.Equal(t, float64(1), testutil.ToFloat64(pm.Failures.WithLabelValues("write")))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var pm *PrometheusMetrics
	pm.Inputs(1, 1, 1)
	pm.Copied(1, 1, time.Second)
	pm.Read(1)
	pm.Stage("copy", time.Second)
	pm.Finished("")
	assert.NoError(t, pm.WriteTextfile(filepath.Join(t.TempDir(), "never.prom")))
}

func TestWriteTextfile(t *testing.T) {
	pm := NewPrometheusMetrics()
	pm.Inputs(2, 5, 80)

	path := filepath.Join(t.TempDir(), "merge.prom")
	require.NoError(t, pm.WriteTextfile(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "memmap_merge_input_rows 5")
}
