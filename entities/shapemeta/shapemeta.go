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

// Package shapemeta stores the shape and element type of a merged array.
// The merged file itself is raw row-major data without any header, so
// consumers need this sidecar to interpret it.
package shapemeta

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/chymaera96/neural-music-fp/entities/diskio"
	"github.com/chymaera96/neural-music-fp/entities/npy"
)

type Format string

const (
	// FormatNPY is a 1-d int64 npy array holding [N, D].
	FormatNPY Format = "npy"
	// FormatJSON is an object with path, shape and dtype.
	FormatJSON Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatNPY, FormatJSON:
		return f, nil
	case "":
		return FormatNPY, nil
	default:
		return "", fmt.Errorf("unknown metadata format %q, expected npy or json", s)
	}
}

type Meta struct {
	Path  string  `json:"path"`
	Shape []int64 `json:"shape"`
	DType string  `json:"dtype"`
}

// Rows is the number of rows N of the merged array.
func (m Meta) Rows() int64 {
	if len(m.Shape) == 0 {
		return 0
	}
	return m.Shape[0]
}

// RowWidth is the number of elements per row, D for a 2-d array.
func (m Meta) RowWidth() int64 {
	if len(m.Shape) == 0 {
		return 0
	}
	w := int64(1)
	for _, d := range m.Shape[1:] {
		w *= d
	}
	return w
}

// DefaultName derives the sidecar file name from the output file name,
// "db.mm" becomes "db_shape.npy" or "db_meta.json".
func DefaultName(outputName string, format Format) string {
	base := strings.TrimSuffix(filepath.Base(outputName), filepath.Ext(outputName))
	if format == FormatJSON {
		return base + "_meta.json"
	}
	return base + "_shape.npy"
}

// Encode renders m in the given format. The npy form has no room for the
// path or dtype, only the shape.
func Encode(m Meta, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		out, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return nil, errors.Wrap(err, "marshal metadata")
		}
		return append(out, '\n'), nil
	case FormatNPY:
		var buf bytes.Buffer
		err := npy.Write(&buf, npy.Int64, false, []int{len(m.Shape)}, npy.Int64sToBytes(m.Shape))
		if err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown metadata format %q", format)
	}
}

// Save atomically writes m to path.
func Save(path string, m Meta, format Format) error {
	data, err := Encode(m, format)
	if err != nil {
		return err
	}
	return diskio.WriteFileAtomic(path, data, 0o644)
}

// Load reads a sidecar written by Save, detecting the format from the
// content. Metadata loaded from the npy form only carries the shape.
func Load(path string) (Meta, Format, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Meta{}, "", err
	}

	if bytes.HasPrefix(raw, npy.Magic) {
		m, err := decodeNPY(raw)
		if err != nil {
			return Meta{}, "", errors.Wrapf(err, "decode %s", path)
		}
		return m, FormatNPY, nil
	}

	var m Meta
	if err := json.Unmarshal(raw, &m); err != nil {
		return Meta{}, "", errors.Wrapf(err, "decode %s", path)
	}
	if len(m.Shape) == 0 {
		return Meta{}, "", errors.Errorf("decode %s: missing shape", path)
	}
	return m, FormatJSON, nil
}

func decodeNPY(raw []byte) (Meta, error) {
	h, err := npy.ReadHeader(bytes.NewReader(raw))
	if err != nil {
		return Meta{}, err
	}
	if h.DType.Kind != 'i' || h.DType.ItemSize() != 8 || len(h.Shape) != 1 {
		return Meta{}, errors.Errorf("expected 1-d int64 shape array, got %v of %s",
			h.Shape, h.DType.Name())
	}
	end := h.DataOffset + h.DataSize()
	if int64(len(raw)) < end {
		return Meta{}, errors.New("truncated shape array")
	}
	data := raw[h.DataOffset:end]
	if h.DType.Order == npy.BigEndian {
		data = swap8(data)
	}
	shape, err := npy.BytesToInt64s(data)
	if err != nil {
		return Meta{}, err
	}
	if len(shape) == 0 {
		return Meta{}, errors.New("empty shape array")
	}
	return Meta{Shape: shape}, nil
}

func swap8(in []byte) []byte {
	out := make([]byte, len(in))
	for i := 0; i+8 <= len(in); i += 8 {
		for j := 0; j < 8; j++ {
			out[i+j] = in[i+7-j]
		}
	}
	return out
}
