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
	"math"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/chymaera96/neural-music-fp/entities/concurrency"
	enterrors "github.com/chymaera96/neural-music-fp/entities/errors"
	"github.com/chymaera96/neural-music-fp/entities/npy"
	"github.com/chymaera96/neural-music-fp/usecases/discovery"
)

// Schema is what a merge learns from the input headers before any element
// data is touched.
type Schema struct {
	DType    npy.DType
	RowShape []int
	// RowWidth is the number of elements per row, D for 2-d inputs.
	RowWidth int64

	Headers   []npy.Header
	RowCounts []int64
	// Offsets[i] is the first output row of input i.
	Offsets   []int64
	TotalRows int64
}

func (s Schema) RowBytes() int64 {
	return s.RowWidth * int64(s.DType.ItemSize())
}

func (s Schema) TotalBytes() int64 {
	return s.TotalRows * s.RowBytes()
}

// Shape is the logical shape of the merged array, (N, D) for 2-d inputs.
func (s Schema) Shape() []int64 {
	out := make([]int64, 0, len(s.RowShape)+1)
	out = append(out, s.TotalRows)
	for _, d := range s.RowShape {
		out = append(out, int64(d))
	}
	return out
}

func (s Schema) ShapeString() string {
	return formatShape(s.Shape())
}

// InspectSchema reads the header of every input. The first file fixes the
// element type and row shape; every other file must agree with it, all
// disagreements are reported together. Headers are probed by up to the
// context's concurrency budget of goroutines.
func InspectSchema(ctx context.Context, files discovery.FileList,
	logger logrus.FieldLogger,
) (Schema, error) {
	if len(files) == 0 {
		return Schema{}, enterrors.ErrNoInputsFound
	}

	headers := make([]npy.Header, len(files))
	workers := concurrency.Resolve(concurrency.BudgetFromCtx(ctx, 1), len(files))

	eg, gctx := enterrors.NewErrorGroupWithContextWrapper(ctx, logger, "inspect_schema")
	eg.SetLimit(workers)
	for i, path := range files {
		i, path := i, path
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			h, err := npy.ReadHeaderFile(path)
			if err != nil {
				return enterrors.NewUnreadableInput(path, err)
			}
			if len(h.Shape) == 0 {
				return enterrors.NewUnreadableInput(path, fmt.Errorf("0-d array has no rows"))
			}
			headers[i] = h
			return nil
		}, path)
	}
	if err := eg.Wait(); err != nil {
		return Schema{}, err
	}

	first := headers[0]
	s := Schema{
		DType:     first.DType,
		RowShape:  first.RowShape(),
		Headers:   headers,
		RowCounts: make([]int64, len(files)),
		Offsets:   make([]int64, len(files)),
	}
	s.RowWidth = product(s.RowShape)

	var mismatches *multierror.Error
	for i, h := range headers {
		if msg := s.mismatch(h); msg != "" {
			mismatches = multierror.Append(mismatches, enterrors.NewSchemaMismatch(files[i], msg))
			continue
		}
		if h.Rows() > math.MaxInt64-s.TotalRows {
			return Schema{}, enterrors.NewOutputAllocation(files[i],
				fmt.Errorf("total row count overflows after %d rows", s.TotalRows))
		}
		s.Offsets[i] = s.TotalRows
		s.RowCounts[i] = h.Rows()
		s.TotalRows += h.Rows()
	}
	if err := mismatches.ErrorOrNil(); err != nil {
		return Schema{}, err
	}
	if rb := s.RowBytes(); rb > 0 && s.TotalRows > math.MaxInt/rb {
		return Schema{}, enterrors.NewOutputAllocation(files[0],
			fmt.Errorf("%d rows of %d bytes exceed the addressable size", s.TotalRows, rb))
	}

	logger.WithField("action", "inspect_schema").
		WithField("files", len(files)).
		WithField("shape", s.ShapeString()).
		WithField("dtype", s.DType.Name()).
		Infof("Final memmap shape: %s, dtype=%s", s.ShapeString(), s.DType.Name())
	return s, nil
}

// mismatch describes how h disagrees with the schema, or returns "".
func (s Schema) mismatch(h npy.Header) string {
	if !h.DType.Equal(s.DType) {
		return fmt.Sprintf("dtype %s, expected %s", h.DType, s.DType)
	}
	rs := h.RowShape()
	if !equalInts(rs, s.RowShape) {
		return fmt.Sprintf("row shape %v, expected %v", rs, s.RowShape)
	}
	return ""
}

func product(shape []int) int64 {
	n := int64(1)
	for _, d := range shape {
		n *= int64(d)
	}
	return n
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func formatShape(shape []int64) string {
	out := "("
	for i, d := range shape {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprint(d)
	}
	if len(shape) == 1 {
		out += ","
	}
	return out + ")"
}
