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

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var knownEnv = []string{
	"MEMMAP_ROOT", "MEMMAP_FILE_LIST", "MEMMAP_NESTED", "MEMMAP_PATTERN",
	"MEMMAP_EXCLUDE", "MEMMAP_OUT_DIR", "MEMMAP_DB_NAME", "MEMMAP_META_NAME",
	"MEMMAP_META_FORMAT", "MEMMAP_WORKERS", "MEMMAP_CHUNK_SIZE",
	"MEMMAP_KEEP_PARTIAL", "MEMMAP_NO_OVERWRITE", "MEMMAP_METRICS_FILE",
	"LOG_LEVEL", "LOG_FORMAT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range knownEnv {
		t.Setenv(k, "")
	}
}

func TestEnvironmentWorkers(t *testing.T) {
	factors := []struct {
		name        string
		workers     []string
		expected    int
		expectedErr bool
	}{
		{"Valid", []string{"4"}, 4, false},
		{"one per cpu", []string{"0"}, 0, false},
		{"not given", []string{}, DefaultWorkers, false},
		{"negative", []string{"-1"}, -1, true},
		{"not parsable", []string{"I'm not a number"}, -1, true},
	}
	for _, tt := range factors {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			if len(tt.workers) == 1 {
				t.Setenv("MEMMAP_WORKERS", tt.workers[0])
			}
			conf := Defaults()
			err := FromEnv(&conf)

			if tt.expectedErr {
				require.NotNil(t, err)
			} else {
				require.Nil(t, err)
				require.Equal(t, tt.expected, conf.Workers)
			}
		})
	}
}

func TestEnvironmentChunkSize(t *testing.T) {
	factors := []struct {
		name        string
		chunkSize   []string
		expected    int
		expectedErr bool
	}{
		{"Valid", []string{"65536"}, 65536, false},
		{"not given", []string{}, DefaultChunkSize, false},
		{"zero", []string{"0"}, -1, true},
		{"not parsable", []string{"4MiB"}, -1, true},
	}
	for _, tt := range factors {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			if len(tt.chunkSize) == 1 {
				t.Setenv("MEMMAP_CHUNK_SIZE", tt.chunkSize[0])
			}
			conf := Defaults()
			err := FromEnv(&conf)

			if tt.expectedErr {
				require.NotNil(t, err)
			} else {
				require.Nil(t, err)
				require.Equal(t, tt.expected, conf.ChunkSize)
			}
		})
	}
}

func TestEnvironmentStringsAndToggles(t *testing.T) {
	clearEnv(t)
	t.Setenv("MEMMAP_ROOT", "/data/embeddings")
	t.Setenv("MEMMAP_EXCLUDE", "*_shape.npy, tmp_*.npy,")
	t.Setenv("MEMMAP_NESTED", "on")
	t.Setenv("MEMMAP_NO_OVERWRITE", "true")
	t.Setenv("MEMMAP_KEEP_PARTIAL", "nope")
	t.Setenv("LOG_FORMAT", "json")

	conf := Defaults()
	require.Nil(t, FromEnv(&conf))

	assert.Equal(t, "/data/embeddings", conf.Root)
	assert.Equal(t, []string{"*_shape.npy", "tmp_*.npy"}, conf.Exclude)
	assert.True(t, conf.Nested)
	assert.False(t, conf.Overwrite)
	assert.False(t, conf.KeepPartial)
	assert.Equal(t, "json", conf.Logging.Format)
}
