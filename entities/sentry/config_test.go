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

package sentry

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSentryEnabled(t *testing.T) {
	factors := []struct {
		name     string
		value    []string
		expected bool
	}{
		{"Valid: true", []string{"true"}, true},
		{"Valid: false", []string{"false"}, false},
		{"Valid: 1", []string{"1"}, true},
		{"Valid: 0", []string{"0"}, false},
		{"Valid: on", []string{"on"}, true},
		{"Valid: off", []string{"off"}, false},
		{"not given", []string{}, false},
	}
	for _, tt := range factors {
		t.Run(tt.name, func(t *testing.T) {
			if len(tt.value) == 1 {
				t.Setenv("SENTRY_ENABLED", tt.value[0])
				t.Setenv("SENTRY_DSN", "http://dsn")
			} else {
				t.Setenv("SENTRY_ENABLED", "")
			}
			Config = nil
			t.Cleanup(func() { Config = nil })

			conf, err := InitSentryConfig()
			require.Nil(t, err)
			require.Equal(t, tt.expected, conf.Enabled)
			require.Equal(t, tt.expected, Enabled())
		})
	}
}

func TestSentryConfig(t *testing.T) {
	type test struct {
		name           string
		vars           map[string]string
		expectErr      bool
		expectedConfig ConfigOpts
	}

	tests := []test{
		{
			name: "enabled, everything set",
			vars: map[string]string{
				"SENTRY_ENABLED":     "true",
				"SENTRY_DSN":         "http://dsn",
				"SENTRY_DEBUG":       "true",
				"SENTRY_ENVIRONMENT": "staging",
				"SENTRY_TAG_hello":   "world",
			},
			expectedConfig: ConfigOpts{
				Enabled:     true,
				DSN:         "http://dsn",
				Debug:       true,
				Environment: "staging",
				Tags: map[string]string{
					"hello": "world",
				},
			},
		},
		{
			name: "enabled, without optional vars",
			vars: map[string]string{
				"SENTRY_ENABLED": "true",
				"SENTRY_DSN":     "http://dsn",
			},
			expectedConfig: ConfigOpts{
				Enabled: true,
				DSN:     "http://dsn",
			},
		},
		{
			name: "enabled, no dsn",
			vars: map[string]string{
				"SENTRY_ENABLED": "true",
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SENTRY_DSN", "")
			t.Setenv("SENTRY_DEBUG", "")
			t.Setenv("SENTRY_ENVIRONMENT", "")
			for k, v := range tt.vars {
				t.Setenv(k, v)
			}
			Config = nil
			t.Cleanup(func() { Config = nil })

			conf, err := InitSentryConfig()
			if tt.expectErr {
				require.NotNil(t, err)
				return
			}
			require.Nil(t, err)
			require.Equal(t, tt.expectedConfig, *conf)
		})
	}
}

func TestSentryInitTwice(t *testing.T) {
	t.Setenv("SENTRY_ENABLED", "")
	Config = nil
	t.Cleanup(func() { Config = nil })

	_, err := InitSentryConfig()
	require.Nil(t, err)
	_, err = InitSentryConfig()
	require.NotNil(t, err)
}

func TestDisabledSentryIsNoop(t *testing.T) {
	Config = &ConfigOpts{}
	t.Cleanup(func() { Config = nil })

	require.Nil(t, Init("test"))
	Report(errors.New("boom"), time.Millisecond)
}
