//                           _       _
// __      _____  __ ___   ___  __ _| |_ ___
// \ \ /\ / / _ \/ _` \ \ / / |/ _` | __/ _ \
//  \ V  V /  __/ (_| |\ V /| | (_| | ||  __/
//   \_/\_/ \___|\__,_| \_/ |_|\__,_|\__\___|
//
//  Copyright © 2016 - 2025 Weaviate B.V. All rights reserved.
//
//  CONTACT: hello@weaviate.io
//

package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	flags "github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"

	enterrors "github.com/chymaera96/neural-music-fp/entities/errors"
	entsentry "github.com/chymaera96/neural-music-fp/entities/sentry"
	"github.com/chymaera96/neural-music-fp/usecases/config"
	"github.com/chymaera96/neural-music-fp/usecases/merge"
	"github.com/chymaera96/neural-music-fp/usecases/monitoring"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	var options config.Flags
	parser := flags.NewParser(&options, flags.Default)
	parser.Name = "memmap-merge"
	parser.ShortDescription = "merge .npy arrays into one memory-mapped array"

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return exitOK
		}
		return exitUsage
	}

	logger := logrus.New()
	logger.SetOutput(stderr)

	cfg, err := config.LoadConfig(&options, logger)
	if err != nil {
		logger.WithField("action", "startup").WithError(err).Error("invalid configuration")
		parser.WriteHelp(stderr)
		return exitUsage
	}
	configureLogger(logger, cfg.Logging)

	if entsentry.Config == nil {
		if _, err := entsentry.InitSentryConfig(); err != nil {
			logger.WithField("action", "startup").WithError(err).Error("invalid sentry configuration")
			return exitUsage
		}
		if err := entsentry.Init(parser.Name); err != nil {
			logger.WithField("action", "startup").WithError(err).Warn("error reporting disabled")
		}
	}

	runLogger := logger.WithField("run_id", uuid.New().String())
	metrics := monitoring.NewPrometheusMetrics()

	res, err := merge.New(cfg, runLogger, metrics).Run(ctx)
	if cfg.MetricsFile != "" {
		if werr := metrics.WriteTextfile(cfg.MetricsFile); werr != nil {
			runLogger.WithField("action", "metrics_export").
				WithField("path", cfg.MetricsFile).
				WithError(werr).
				Warn("could not write metrics file")
		}
	}
	if err != nil {
		entsentry.Report(err, 2*time.Second)
		if enterrors.IsUsage(err) {
			return exitUsage
		}
		return exitFailure
	}

	runLogger.WithField("action", "merge").
		WithField("files", len(res.Files)).
		WithField("rows", res.Rows).
		WithField("took", res.Took.String()).
		Info("merge complete")
	return exitOK
}

// configureLogger applies level and format, both already validated.
func configureLogger(logger *logrus.Logger, c config.Logging) {
	if level, err := logrus.ParseLevel(c.Level); err == nil {
		logger.SetLevel(level)
	}
	switch c.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	}
}
