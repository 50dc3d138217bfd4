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
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
)

// ConfigOpts all map to environment variables. For example:
//   - SENTRY_ENABLED=true -> ConfigOpts.Enabled=true
//   - SENTRY_TAG_team=audio -> ConfigOpts.Tags["team"]="audio"
type ConfigOpts struct {
	Enabled     bool              `json:"enabled" yaml:"enabled"`
	DSN         string            `json:"dsn" yaml:"dsn"`
	Debug       bool              `json:"debug" yaml:"debug"`
	Environment string            `json:"environment" yaml:"environment"`
	Tags        map[string]string `json:"tags" yaml:"tags"`
}

// Config Global Singleton that can be accessed from anywhere in the app. This
// is required because panic recovery can happen anywhere in the app.
var Config *ConfigOpts

// InitSentryConfig from environment. Errors if called more than once.
func InitSentryConfig() (*ConfigOpts, error) {
	if Config != nil {
		return nil, fmt.Errorf("sentry config already initialized")
	}

	c := &ConfigOpts{}
	c.Enabled = enabled(os.Getenv("SENTRY_ENABLED"))
	if !c.Enabled {
		Config = c
		return Config, nil
	}

	c.DSN = os.Getenv("SENTRY_DSN")
	if c.DSN == "" {
		return nil, fmt.Errorf("sentry enabled but no DSN provided")
	}
	c.Debug = enabled(os.Getenv("SENTRY_DEBUG"))
	c.Environment = os.Getenv("SENTRY_ENVIRONMENT")

	for _, kv := range os.Environ() {
		key, value, _ := strings.Cut(kv, "=")
		if name, ok := strings.CutPrefix(key, "SENTRY_TAG_"); ok && name != "" {
			if c.Tags == nil {
				c.Tags = map[string]string{}
			}
			c.Tags[name] = value
		}
	}

	Config = c
	return Config, nil
}

func Enabled() bool {
	if Config == nil {
		return false
	}
	return Config.Enabled
}

// Init starts the sentry client when reporting is enabled. It is a no-op
// otherwise.
func Init(release string) error {
	if !Enabled() {
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              Config.DSN,
		Debug:            Config.Debug,
		Environment:      Config.Environment,
		Release:          release,
		EnableTracing:    true,
		TracesSampleRate: 1.0,
	})
	if err != nil {
		return fmt.Errorf("init sentry: %w", err)
	}
	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTags(Config.Tags)
	})
	return nil
}

// Report sends err to sentry and waits up to timeout for delivery.
func Report(err error, timeout time.Duration) {
	if !Enabled() || err == nil {
		return
	}
	sentry.CaptureException(err)
	sentry.Flush(timeout)
}

func enabled(value string) bool {
	switch strings.ToLower(value) {
	case "1", "on", "true", "enabled":
		return true
	default:
		return false
	}
}
