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
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/chymaera96/neural-music-fp/entities/npy"
	"github.com/chymaera96/neural-music-fp/entities/shapemeta"
	"github.com/chymaera96/neural-music-fp/usecases/mmap"
)

// Merged is a finished merge mapped read-only.
type Merged struct {
	Path  string
	Shape []int64
	DType npy.DType

	rowBytes int64
	file     *os.File
	data     mmap.MMap
}

// OpenMerged maps the array described by the sidecar at metaPath. Json
// metadata names the output file and its dtype. The npy sidecar only holds
// the shape, so outputPath and dtype must be given for it; for json they
// are used where the metadata leaves a gap.
func OpenMerged(metaPath, outputPath string, dtype npy.DType) (*Merged, error) {
	meta, _, err := shapemeta.Load(metaPath)
	if err != nil {
		return nil, errors.Wrap(err, "load metadata")
	}

	if meta.Path != "" {
		outputPath = meta.Path
		if !filepath.IsAbs(outputPath) {
			outputPath = filepath.Join(filepath.Dir(metaPath), outputPath)
		}
	}
	if outputPath == "" {
		return nil, fmt.Errorf("metadata %s does not name the output file", metaPath)
	}
	if meta.DType != "" {
		dtype, err = npy.ParseName(meta.DType)
		if err != nil {
			return nil, errors.Wrapf(err, "metadata %s", metaPath)
		}
	}
	if dtype.ItemSize() == 0 {
		return nil, fmt.Errorf("metadata %s does not name the dtype", metaPath)
	}

	for _, d := range meta.Shape {
		if d < 0 {
			return nil, fmt.Errorf("metadata %s: negative dimension in %v", metaPath, meta.Shape)
		}
	}

	m := &Merged{
		Path:     outputPath,
		Shape:    meta.Shape,
		DType:    dtype,
		rowBytes: meta.RowWidth() * int64(dtype.ItemSize()),
	}
	want := meta.Rows() * m.rowBytes

	f, err := os.Open(outputPath)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.Size() != want {
		f.Close()
		return nil, fmt.Errorf("%s holds %d bytes, shape %v of %s needs %d",
			outputPath, info.Size(), meta.Shape, dtype.Name(), want)
	}

	m.file = f
	if want > 0 {
		m.data, err = mmap.MapRegion(f, int(want), mmap.RDONLY, 0, 0)
		if err != nil {
			f.Close()
			return nil, errors.Wrap(err, "mmap")
		}
	}
	return m, nil
}

func (m *Merged) Rows() int64 {
	if len(m.Shape) == 0 {
		return 0
	}
	return m.Shape[0]
}

// Row returns the raw bytes of row i. The slice aliases the mapping and is
// only valid until Close.
func (m *Merged) Row(i int64) ([]byte, error) {
	if i < 0 || i >= m.Rows() {
		return nil, fmt.Errorf("row %d out of range [0, %d)", i, m.Rows())
	}
	return m.data[i*m.rowBytes : (i+1)*m.rowBytes], nil
}

// Float32Row decodes row i of a float32 array in either byte order.
func (m *Merged) Float32Row(i int64) ([]float32, error) {
	if m.DType.Kind != 'f' || m.DType.ItemSize() != 4 {
		return nil, fmt.Errorf("array holds %s, not float32", m.DType.Str())
	}
	raw, err := m.Row(i)
	if err != nil {
		return nil, err
	}
	if m.DType.Order == npy.BigEndian {
		swapped := make([]byte, len(raw))
		for j := 0; j+4 <= len(raw); j += 4 {
			swapped[j], swapped[j+1], swapped[j+2], swapped[j+3] = raw[j+3], raw[j+2], raw[j+1], raw[j]
		}
		raw = swapped
	}
	return npy.BytesToFloat32s(raw)
}

func (m *Merged) Close() error {
	if m.data != nil {
		if err := m.data.Unmap(); err != nil {
			return err
		}
		m.data = nil
	}
	if m.file != nil {
		err := m.file.Close()
		m.file = nil
		return err
	}
	return nil
}
