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
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// FromEnv takes a *Config as it will respect initial config that has been
// provided by other means (e.g. a config file) and will only extend those that
// are set
func FromEnv(config *Config) error {
	if v := os.Getenv("MEMMAP_ROOT"); v != "" {
		config.Root = v
	}

	if v := os.Getenv("MEMMAP_FILE_LIST"); v != "" {
		config.FileList = v
	}

	if enabled(os.Getenv("MEMMAP_NESTED")) {
		config.Nested = true
	}

	if v := os.Getenv("MEMMAP_PATTERN"); v != "" {
		config.Pattern = v
	}

	if v := os.Getenv("MEMMAP_EXCLUDE"); v != "" {
		config.Exclude = splitList(v)
	}

	if v := os.Getenv("MEMMAP_OUT_DIR"); v != "" {
		config.OutDir = v
	}

	if v := os.Getenv("MEMMAP_DB_NAME"); v != "" {
		config.DBName = v
	}

	if v := os.Getenv("MEMMAP_META_NAME"); v != "" {
		config.MetaName = v
	}

	if v := os.Getenv("MEMMAP_META_FORMAT"); v != "" {
		config.MetaFormat = v
	}

	if v := os.Getenv("MEMMAP_WORKERS"); v != "" {
		asInt, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "parse MEMMAP_WORKERS as int")
		}
		if asInt < 0 {
			return errors.Errorf("MEMMAP_WORKERS must not be negative, got %d", asInt)
		}

		config.Workers = asInt
	}

	if v := os.Getenv("MEMMAP_CHUNK_SIZE"); v != "" {
		asInt, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "parse MEMMAP_CHUNK_SIZE as int")
		}
		if asInt <= 0 {
			return errors.Errorf("MEMMAP_CHUNK_SIZE must be positive, got %d", asInt)
		}

		config.ChunkSize = asInt
	}

	if enabled(os.Getenv("MEMMAP_KEEP_PARTIAL")) {
		config.KeepPartial = true
	}

	if enabled(os.Getenv("MEMMAP_NO_OVERWRITE")) {
		config.Overwrite = false
	}

	if v := os.Getenv("MEMMAP_METRICS_FILE"); v != "" {
		config.MetricsFile = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		config.Logging.Format = v
	}

	return nil
}

func enabled(value string) bool {
	switch strings.ToLower(value) {
	case "on", "enabled", "1", "true":
		return true
	default:
		return false
	}
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
