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

// Package npy reads and writes the header of numpy's *.npy format. Element
// data is never interpreted, only located: callers copy it as raw bytes.
package npy

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/pkg/errors"
)

// Magic is the 6 byte prefix of every npy file.
var Magic = []byte{0x93, 'N', 'U', 'M', 'P', 'Y'}

// preamble is magic + version; the header length field follows.
const preamble = 8

// maxHeaderLen guards against corrupt length fields. numpy itself refuses
// headers larger than 10000 bytes by default.
const maxHeaderLen = 1 << 20

type Header struct {
	Major, Minor byte
	DType        DType
	FortranOrder bool
	Shape        []int
	// DataOffset is the number of bytes in front of the element data.
	DataOffset int64
}

// NumElements is the product of the shape, 1 for a scalar.
func (h Header) NumElements() int64 {
	n := int64(1)
	for _, d := range h.Shape {
		n *= int64(d)
	}
	return n
}

// DataSize is the number of element data bytes following the header.
func (h Header) DataSize() int64 {
	return h.NumElements() * int64(h.DType.ItemSize())
}

// Rows is the number of rows the array contributes to a merge. A one
// dimensional array is a single row.
func (h Header) Rows() int64 {
	switch len(h.Shape) {
	case 0:
		return 0
	case 1:
		return 1
	default:
		return int64(h.Shape[0])
	}
}

// RowShape is the shape of a single row.
func (h Header) RowShape() []int {
	switch len(h.Shape) {
	case 0:
		return nil
	case 1:
		return []int{h.Shape[0]}
	default:
		out := make([]int, len(h.Shape)-1)
		copy(out, h.Shape[1:])
		return out
	}
}

// ReadHeader consumes the preamble and header dictionary from r, leaving r
// positioned at the first element byte.
func ReadHeader(r io.Reader) (Header, error) {
	var pre [preamble]byte
	if _, err := io.ReadFull(r, pre[:]); err != nil {
		return Header{}, errors.Wrap(err, "read npy preamble")
	}
	if !bytes.Equal(pre[:len(Magic)], Magic) {
		return Header{}, errors.New("not an npy file: bad magic")
	}

	h := Header{Major: pre[6], Minor: pre[7]}

	var headerLen int64
	switch h.Major {
	case 1:
		var l [2]byte
		if _, err := io.ReadFull(r, l[:]); err != nil {
			return Header{}, errors.Wrap(err, "read npy header length")
		}
		headerLen = int64(binary.LittleEndian.Uint16(l[:]))
		h.DataOffset = preamble + 2 + headerLen
	case 2, 3:
		var l [4]byte
		if _, err := io.ReadFull(r, l[:]); err != nil {
			return Header{}, errors.Wrap(err, "read npy header length")
		}
		headerLen = int64(binary.LittleEndian.Uint32(l[:]))
		h.DataOffset = preamble + 4 + headerLen
	default:
		return Header{}, errors.Errorf("unsupported npy format version %d.%d", h.Major, h.Minor)
	}
	if headerLen > maxHeaderLen {
		return Header{}, errors.Errorf("npy header length %d exceeds limit", headerLen)
	}

	dict := make([]byte, headerLen)
	if _, err := io.ReadFull(r, dict); err != nil {
		return Header{}, errors.Wrap(err, "read npy header")
	}

	if err := h.parseDict(string(dict)); err != nil {
		return Header{}, err
	}
	return h, nil
}

func (h *Header) parseDict(src string) error {
	v, err := parseLiteral(src)
	if err != nil {
		return errors.Wrap(err, "parse npy header")
	}
	dict, ok := v.(map[string]interface{})
	if !ok {
		return errors.New("npy header is not a dict")
	}

	descr, ok := dict["descr"].(string)
	if !ok {
		return errors.New("npy header: missing or structured descr")
	}
	if h.DType, err = ParseDType(descr); err != nil {
		return errors.Wrap(err, "npy header")
	}

	if h.FortranOrder, ok = dict["fortran_order"].(bool); !ok {
		return errors.New("npy header: missing fortran_order")
	}

	shape, ok := dict["shape"].([]interface{})
	if !ok {
		return errors.New("npy header: missing shape")
	}
	h.Shape = make([]int, len(shape))
	for i, d := range shape {
		n, ok := d.(int64)
		if !ok || n < 0 || n > math.MaxInt {
			return errors.Errorf("npy header: invalid dimension %v", d)
		}
		h.Shape[i] = int(n)
	}

	// zero length dimensions are skipped so that every row is still
	// addressable when the array is empty
	size, empty := int64(h.DType.ItemSize()), false
	for _, d := range h.Shape {
		if d == 0 {
			empty = true
			continue
		}
		var ok bool
		if size, ok = mulInt64(size, int64(d)); !ok {
			return errors.Errorf("npy header: shape %v of %s overflows", h.Shape, h.DType.Name())
		}
	}
	if !empty && size > math.MaxInt64-h.DataOffset {
		return errors.Errorf("npy header: shape %v of %s overflows", h.Shape, h.DType.Name())
	}
	return nil
}

// mulInt64 multiplies two non-negative values, reporting false on overflow.
func mulInt64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxInt64/b {
		return 0, false
	}
	return a * b, true
}

// ReadHeaderFile reads only the header of the npy file at path and checks
// that the file is large enough to hold the data the header promises.
func ReadHeaderFile(path string) (Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, err
	}
	defer f.Close()

	h, err := ReadHeader(bufio.NewReaderSize(f, 4096))
	if err != nil {
		return Header{}, err
	}

	info, err := f.Stat()
	if err != nil {
		return Header{}, err
	}
	if want := h.DataOffset + h.DataSize(); info.Size() < want {
		return Header{}, fmt.Errorf("truncated npy file: %d bytes, header promises %d",
			info.Size(), want)
	}
	return h, nil
}
