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

package npy

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// headerAlign is the alignment of the element data, as required since
// numpy 1.9 for all format versions.
const headerAlign = 64

// EncodeHeader renders a complete header (preamble, length, dictionary and
// padding) for the given array description. Version 1.0 is used unless the
// dictionary does not fit into its 16 bit length field.
func EncodeHeader(dtype DType, fortranOrder bool, shape []int) []byte {
	dict := fmt.Sprintf("{'descr': '%s', 'fortran_order': %s, 'shape': %s, }",
		dtype.Descr(), pyBool(fortranOrder), pyTuple(shape))

	major, lenField := byte(1), 2
	if preamble+2+len(dict)+1 > math.MaxUint16 {
		major, lenField = 2, 4
	}

	total := preamble + lenField + len(dict) + 1
	if rem := total % headerAlign; rem != 0 {
		dict += strings.Repeat(" ", headerAlign-rem)
	}
	dict += "\n"

	out := make([]byte, 0, preamble+lenField+len(dict))
	out = append(out, Magic...)
	out = append(out, major, 0)
	if lenField == 2 {
		out = binary.LittleEndian.AppendUint16(out, uint16(len(dict)))
	} else {
		out = binary.LittleEndian.AppendUint32(out, uint32(len(dict)))
	}
	return append(out, dict...)
}

// Write writes a full npy file: the header followed by data, which must
// already be laid out in dtype's byte order.
func Write(w io.Writer, dtype DType, fortranOrder bool, shape []int, data []byte) error {
	h := Header{DType: dtype, Shape: shape}
	if int64(len(data)) != h.DataSize() {
		return errors.Errorf("data has %d bytes, shape %v of %s needs %d",
			len(data), shape, dtype.Name(), h.DataSize())
	}
	if _, err := w.Write(EncodeHeader(dtype, fortranOrder, shape)); err != nil {
		return errors.Wrap(err, "write npy header")
	}
	if _, err := w.Write(data); err != nil {
		return errors.Wrap(err, "write npy data")
	}
	return nil
}

// WriteFile writes a C-ordered npy file at path.
func WriteFile(path string, dtype DType, shape []int, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, dtype, false, shape, data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Int64sToBytes encodes values as little endian int64, i.e. as "<i8".
func Int64sToBytes(values []int64) []byte {
	out := make([]byte, 0, 8*len(values))
	for _, v := range values {
		out = binary.LittleEndian.AppendUint64(out, uint64(v))
	}
	return out
}

// BytesToInt64s decodes "<i8" data.
func BytesToInt64s(data []byte) ([]int64, error) {
	if len(data)%8 != 0 {
		return nil, errors.Errorf("%d bytes is not a multiple of 8", len(data))
	}
	out := make([]int64, len(data)/8)
	for i := range out {
		out[i] = int64(binary.LittleEndian.Uint64(data[i*8:]))
	}
	return out, nil
}

// Float32sToBytes encodes values as little endian float32, i.e. as "<f4".
func Float32sToBytes(values []float32) []byte {
	out := make([]byte, 0, 4*len(values))
	for _, v := range values {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(v))
	}
	return out
}

// BytesToFloat32s decodes "<f4" data.
func BytesToFloat32s(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, errors.Errorf("%d bytes is not a multiple of 4", len(data))
	}
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out, nil
}

func pyBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func pyTuple(shape []int) string {
	switch len(shape) {
	case 0:
		return "()"
	case 1:
		return "(" + strconv.Itoa(shape[0]) + ",)"
	}
	parts := make([]string, len(shape))
	for i, d := range shape {
		parts[i] = strconv.Itoa(d)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
