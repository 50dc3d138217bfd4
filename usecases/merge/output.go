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
	"math"
	"os"

	"github.com/pkg/errors"

	"github.com/chymaera96/neural-music-fp/entities/diskio"
	enterrors "github.com/chymaera96/neural-music-fp/entities/errors"
	"github.com/chymaera96/neural-music-fp/usecases/mmap"
)

// Output is the merged array while it is being written: a preallocated
// file mapped read-write into memory.
type Output struct {
	Path string
	Size int64

	file *os.File
	data mmap.MMap
}

// AllocateOutput creates the output file at path with room for exactly the
// schema's total size and maps it. Without overwrite an existing file is an
// error. Any failure leaves no file behind.
func AllocateOutput(path string, s Schema, overwrite bool) (*Output, error) {
	flags := os.O_CREATE | os.O_RDWR | os.O_TRUNC
	if !overwrite {
		flags = os.O_CREATE | os.O_RDWR | os.O_EXCL
	}

	if rb := s.RowBytes(); s.TotalRows < 0 || (rb > 0 && s.TotalRows > math.MaxInt/rb) {
		return nil, enterrors.NewOutputAllocation(path,
			errors.Errorf("%d rows of %d bytes are not addressable", s.TotalRows, rb))
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, enterrors.NewOutputAllocation(path, err)
	}

	out := &Output{Path: path, Size: s.TotalBytes(), file: f}
	if err := mmap.Allocate(f, out.Size); err != nil {
		out.discard()
		return nil, enterrors.NewOutputAllocation(path, errors.Wrapf(err, "allocate %d bytes", out.Size))
	}

	if out.Size > 0 {
		data, err := mmap.MapRegion(f, int(out.Size), mmap.RDWR, 0, 0)
		if err != nil {
			out.discard()
			return nil, enterrors.NewOutputAllocation(path, errors.Wrap(err, "mmap"))
		}
		out.data = data
	}
	return out, nil
}

// rows returns the mapped bytes of output rows [from, from+n).
func (o *Output) rows(s Schema, from, n int64) []byte {
	rb := s.RowBytes()
	return o.data[from*rb : (from+n)*rb]
}

// Close flushes the mapping and the file to stable storage and releases
// both. The output is complete and durable once Close returns nil. Calling
// Close again only repeats the directory sync.
func (o *Output) Close() error {
	if o.data != nil {
		if err := o.data.Flush(); err != nil {
			return enterrors.NewWrite(o.Path, errors.Wrap(err, "msync"))
		}
		if err := o.data.Unmap(); err != nil {
			return enterrors.NewWrite(o.Path, errors.Wrap(err, "munmap"))
		}
		o.data = nil
	}
	if o.file != nil {
		if err := o.file.Sync(); err != nil {
			return enterrors.NewWrite(o.Path, errors.Wrap(err, "fsync"))
		}
		if err := o.file.Close(); err != nil {
			return enterrors.NewWrite(o.Path, errors.Wrap(err, "close"))
		}
		o.file = nil
	}
	if err := diskio.FsyncDir(o.Path); err != nil {
		return enterrors.NewWrite(o.Path, errors.Wrap(err, "fsync dir"))
	}
	return nil
}

// Abort releases the output without flushing. Unless keep is set the file
// is removed, so a failed run leaves no half written array behind.
func (o *Output) Abort(keep bool) error {
	if o.data != nil {
		o.data.Unmap()
		o.data = nil
	}
	if o.file != nil {
		o.file.Close()
		o.file = nil
	}
	if keep {
		return nil
	}
	if err := os.Remove(o.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (o *Output) discard() {
	o.Abort(false)
}
