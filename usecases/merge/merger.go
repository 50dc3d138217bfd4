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

package merge

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"

	"github.com/chymaera96/neural-music-fp/entities/concurrency"
	"github.com/chymaera96/neural-music-fp/entities/diskio"
	enterrors "github.com/chymaera96/neural-music-fp/entities/errors"
	entsentry "github.com/chymaera96/neural-music-fp/entities/sentry"
	"github.com/chymaera96/neural-music-fp/entities/shapemeta"
	"github.com/chymaera96/neural-music-fp/usecases/config"
	"github.com/chymaera96/neural-music-fp/usecases/discovery"
	"github.com/chymaera96/neural-music-fp/usecases/monitoring"
)

type State int32

const (
	Idle State = iota
	InputsResolved
	SchemaKnown
	OutputAllocated
	Copying
	Flushed
	MetadataWritten
	Done
	// Failed is terminal, a Merger is not reused after a failure.
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case InputsResolved:
		return "inputs_resolved"
	case SchemaKnown:
		return "schema_known"
	case OutputAllocated:
		return "output_allocated"
	case Copying:
		return "copying"
	case Flushed:
		return "flushed"
	case MetadataWritten:
		return "metadata_written"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Result summarizes a successful run.
type Result struct {
	Files      discovery.FileList
	Schema     Schema
	OutputPath string
	MetaPath   string
	Meta       shapemeta.Meta
	Rows       int64
	Took       time.Duration
}

// Merger runs one merge described by a Config. It is single use.
type Merger struct {
	cfg     config.Config
	logger  logrus.FieldLogger
	metrics *monitoring.PrometheusMetrics

	// ProgressInterval is how often progress is logged while copying. Zero
	// disables progress logging.
	ProgressInterval time.Duration

	running atomic.Bool
	state   atomic.Int32
	// copied is the number of output rows written so far, the offset of the
	// Copying state.
	copied atomic.Int64
	total  atomic.Int64
}

// New returns a Merger for cfg. metrics may be nil.
func New(cfg config.Config, logger logrus.FieldLogger, metrics *monitoring.PrometheusMetrics) *Merger {
	return &Merger{
		cfg:              cfg,
		logger:           logger,
		metrics:          metrics,
		ProgressInterval: 10 * time.Second,
	}
}

func (m *Merger) State() State {
	return State(m.state.Load())
}

// Progress returns rows copied so far and the total rows of the run.
func (m *Merger) Progress() (copied, total int64) {
	return m.copied.Load(), m.total.Load()
}

func (m *Merger) transition(to State) {
	from := State(m.state.Swap(int32(to)))
	m.logger.WithField("action", "merge_state").
		WithField("from", from.String()).
		WithField("state", to.String()).
		Debug("state changed")
}

// Run resolves, inspects, allocates, copies and finalizes. On failure the
// partially written output is removed unless KeepPartial is set, and the
// error is returned as is.
func (m *Merger) Run(ctx context.Context) (res Result, err error) {
	if !m.running.CompareAndSwap(false, true) {
		return Result{}, fmt.Errorf("merger already used, state %s", m.State())
	}

	var out *Output
	defer func() {
		if err == nil {
			return
		}
		if out != nil {
			if aerr := out.Abort(m.cfg.KeepPartial); aerr != nil {
				m.logger.WithField("action", "merge_cleanup").
					WithField("path", out.Path).
					WithError(aerr).
					Warn("could not remove partial output")
			}
		}
		m.fail(err)
	}()

	if err = m.cfg.Validate(); err != nil {
		return Result{}, err
	}
	format, err := shapemeta.ParseFormat(m.cfg.MetaFormat)
	if err != nil {
		return Result{}, enterrors.NewInvalidConfig("%v", err)
	}

	if entsentry.Enabled() {
		span := sentry.StartSpan(ctx, "memmap.merge",
			sentry.WithOpName("merge"),
			sentry.WithDescription("Merge npy arrays into one memory-mapped array"),
		)
		ctx = span.Context()
		span.SetData("output", m.cfg.OutputPath())
		span.SetData("workers", m.cfg.Workers)
		defer span.Finish()
	}

	started := time.Now()
	ctx = concurrency.CtxWithBudget(ctx, concurrency.Resolve(m.cfg.Workers, 0))

	stage := m.stageTimer("resolve")
	files, err := discovery.Resolve(ctx, m.cfg.Source(), m.logger)
	if err != nil {
		return Result{}, err
	}
	stage()
	m.transition(InputsResolved)

	stage = m.stageTimer("inspect")
	s, err := InspectSchema(ctx, files, m.logger)
	if err != nil {
		return Result{}, err
	}
	stage()
	m.total.Store(s.TotalRows)
	m.metrics.Inputs(len(files), s.TotalRows, s.TotalBytes())
	m.transition(SchemaKnown)

	stage = m.stageTimer("allocate")
	if exists, _ := diskio.FileExists(m.cfg.OutputPath()); exists && m.cfg.Overwrite {
		m.logger.WithField("action", "allocate_output").
			WithField("path", m.cfg.OutputPath()).
			Info("replacing existing output")
	}
	out, err = AllocateOutput(m.cfg.OutputPath(), s, m.cfg.Overwrite)
	if err != nil {
		return Result{}, err
	}
	stage()
	m.transition(OutputAllocated)

	stage = m.stageTimer("copy")
	m.transition(Copying)
	stopProgress := m.logProgress()
	rows, err := CopyAll(ctx, files, s, out, CopyOptions{
		ChunkSize: m.cfg.ChunkSize,
		Metrics:   m.metrics,
		Progress:  &m.copied,
	}, m.logger)
	stopProgress()
	if err != nil {
		return Result{}, err
	}
	stage()

	metaOpts := MetaOptions{Path: m.cfg.MetaPath(), Format: format}
	stage = m.stageTimer("finalize")
	meta, err := m.finalize(out, s, metaOpts)
	if err != nil {
		return Result{}, err
	}
	stage()

	m.transition(Done)
	m.metrics.Finished("")
	return Result{
		Files:      files,
		Schema:     s,
		OutputPath: out.Path,
		MetaPath:   metaOpts.path(out.Path),
		Meta:       meta,
		Rows:       rows,
		Took:       time.Since(started),
	}, nil
}

// finalize is Finalize split into the Flushed and MetadataWritten states.
func (m *Merger) finalize(out *Output, s Schema, opts MetaOptions) (shapemeta.Meta, error) {
	if err := out.Close(); err != nil {
		return shapemeta.Meta{}, err
	}
	m.transition(Flushed)

	meta, err := Finalize(out, s, opts, m.logger)
	if err != nil {
		return shapemeta.Meta{}, err
	}
	m.transition(MetadataWritten)
	return meta, nil
}

func (m *Merger) fail(err error) {
	m.transition(Failed)
	m.metrics.Finished(enterrors.Kind(err))
	m.logger.WithField("action", "merge").
		WithField("kind", enterrors.Kind(err)).
		WithError(err).
		Error("merge failed")
}

func (m *Merger) stageTimer(name string) func() {
	start := time.Now()
	return func() {
		m.metrics.Stage(name, time.Since(start))
	}
}

// logProgress logs copy progress until the returned func is called.
func (m *Merger) logProgress() func() {
	if m.ProgressInterval <= 0 {
		return func() {}
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	enterrors.GoWrapper(func() {
		defer wg.Done()
		t := time.NewTicker(m.ProgressInterval)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				copied, total := m.Progress()
				m.logger.WithField("action", "copy_progress").
					WithField("rows", copied).
					WithField("total", total).
					Infof("copied %d/%d rows", copied, total)
			}
		}
	}, m.logger)

	return func() {
		close(done)
		wg.Wait()
	}
}
