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
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/chymaera96/neural-music-fp/entities/concurrency"
	"github.com/chymaera96/neural-music-fp/entities/diskio"
	enterrors "github.com/chymaera96/neural-music-fp/entities/errors"
	"github.com/chymaera96/neural-music-fp/entities/npy"
	"github.com/chymaera96/neural-music-fp/usecases/discovery"
	"github.com/chymaera96/neural-music-fp/usecases/monitoring"
)

// CopyOptions tune CopyAll. The zero value copies in one goroutine with the
// default chunk size.
type CopyOptions struct {
	// ChunkSize bounds the bytes read per call, and so the memory used per
	// worker for C-ordered inputs.
	ChunkSize int
	Metrics   *monitoring.PrometheusMetrics
	// Progress, if set, is advanced by the number of rows of every file once
	// it is fully copied.
	Progress *atomic.Int64
}

const defaultChunkSize = 4 * 1024 * 1024

// CopyAll copies the element data of every input into its row range of the
// output and returns the number of rows written. Row i of input k lands on
// output row Offsets[k]+i. Inputs are copied by up to the context's
// concurrency budget of goroutines, each into its own disjoint range. The
// first failure stops the copy.
func CopyAll(ctx context.Context, files discovery.FileList, s Schema, out *Output,
	opts CopyOptions, logger logrus.FieldLogger,
) (int64, error) {
	if len(files) != len(s.Headers) {
		return 0, fmt.Errorf("schema describes %d files, got %d", len(s.Headers), len(files))
	}
	if opts.ChunkSize < 1 {
		opts.ChunkSize = defaultChunkSize
	}

	var written atomic.Int64
	workers := concurrency.Resolve(concurrency.BudgetFromCtx(ctx, 1), len(files))

	eg, gctx := enterrors.NewErrorGroupWithContextWrapper(ctx, logger, "copy_all")
	eg.SetLimit(workers)
	for i, path := range files {
		i, path := i, path
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			if err := copyOne(gctx, path, s, i, out, opts); err != nil {
				return err
			}
			rows := s.RowCounts[i]
			written.Add(rows)
			if opts.Progress != nil {
				opts.Progress.Add(rows)
			}
			opts.Metrics.Copied(rows, rows*s.RowBytes(), time.Since(start))

			logger.WithField("action", "copy_file").
				WithField("path", path).
				WithField("offset", s.Offsets[i]).
				WithField("rows", rows).
				Debug("copied input")
			return nil
		}, path)
	}
	if err := eg.Wait(); err != nil {
		return written.Load(), err
	}
	return written.Load(), nil
}

// copyOne streams the element data of input i into its output range.
func copyOne(ctx context.Context, path string, s Schema, i int, out *Output, opts CopyOptions) error {
	f, err := os.Open(path)
	if err != nil {
		return enterrors.NewUnreadableInput(path, err)
	}
	defer f.Close()

	r := bufio.NewReaderSize(diskio.NewMeteredReader(f, func(read, _ int64) {
		opts.Metrics.Read(read)
	}), 4096)
	h, err := npy.ReadHeader(r)
	if err != nil {
		return enterrors.NewUnreadableInput(path, err)
	}
	if probed := s.Headers[i]; !sameLayout(h, probed) {
		return enterrors.NewSchemaMismatch(path, fmt.Sprintf(
			"header changed since inspection: %v %s, was %v %s",
			h.Shape, h.DType.Descr(), probed.Shape, probed.DType.Descr()))
	}

	dst := out.rows(s, s.Offsets[i], s.RowCounts[i])
	if len(dst) == 0 {
		return nil
	}

	if h.FortranOrder && len(h.Shape) > 1 {
		src := make([]byte, len(dst))
		if _, err := io.ReadFull(r, src); err != nil {
			return enterrors.NewUnreadableInput(path, errors.Wrap(err, "read fortran ordered data"))
		}
		fortranToC(dst, src, h.Shape, h.DType.ItemSize())
		return nil
	}

	for off := 0; off < len(dst); off += opts.ChunkSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := off + opts.ChunkSize
		if end > len(dst) {
			end = len(dst)
		}
		if _, err := io.ReadFull(r, dst[off:end]); err != nil {
			return enterrors.NewUnreadableInput(path, errors.Wrapf(err, "read data at byte %d", off))
		}
	}
	return nil
}

func sameLayout(a, b npy.Header) bool {
	return a.DType.Equal(b.DType) && a.FortranOrder == b.FortranOrder &&
		a.DataOffset == b.DataOffset && equalInts(a.Shape, b.Shape)
}

// fortranToC reorders column-major src into row-major dst.
func fortranToC(dst, src []byte, shape []int, itemSize int) {
	n := len(shape)
	strides := make([]int, n)
	total := 1
	for k := 0; k < n; k++ {
		strides[k] = total
		total *= shape[k]
	}

	idx := make([]int, n)
	for c := 0; c < total; c++ {
		f := 0
		for k := 0; k < n; k++ {
			f += idx[k] * strides[k]
		}
		copy(dst[c*itemSize:(c+1)*itemSize], src[f*itemSize:(f+1)*itemSize])

		for k := n - 1; k >= 0; k-- {
			idx[k]++
			if idx[k] < shape[k] {
				break
			}
			idx[k] = 0
		}
	}
}
