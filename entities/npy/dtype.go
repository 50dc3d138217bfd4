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
	"fmt"
	"strconv"
	"strings"
)

const (
	LittleEndian  = '<'
	BigEndian     = '>'
	NotApplicable = '|'
	native        = '='
)

// DType is a fixed-width numpy element type as described by a header's
// descr string, e.g. "<f4" or "|u1".
type DType struct {
	Order byte
	Kind  byte
	// Count is the number written in the descr. It equals ItemSize for every
	// kind except unicode strings, which use four bytes per character.
	Count int
	// Unit is only set for datetime64 and timedelta64 kinds.
	Unit string
}

var (
	Float16 = DType{Order: LittleEndian, Kind: 'f', Count: 2}
	Float32 = DType{Order: LittleEndian, Kind: 'f', Count: 4}
	Float64 = DType{Order: LittleEndian, Kind: 'f', Count: 8}
	Int8    = DType{Order: NotApplicable, Kind: 'i', Count: 1}
	Int32   = DType{Order: LittleEndian, Kind: 'i', Count: 4}
	Int64   = DType{Order: LittleEndian, Kind: 'i', Count: 8}
	Uint8   = DType{Order: NotApplicable, Kind: 'u', Count: 1}
	Bool    = DType{Order: NotApplicable, Kind: 'b', Count: 1}
)

// ParseDType parses a simple (non-structured) numpy descr.
func ParseDType(descr string) (DType, error) {
	if len(descr) < 2 {
		return DType{}, fmt.Errorf("invalid descr %q", descr)
	}

	d := DType{}
	rest := descr
	switch descr[0] {
	case LittleEndian, BigEndian, NotApplicable, native:
		d.Order = descr[0]
		rest = descr[1:]
	default:
		d.Order = native
	}

	if len(rest) < 2 {
		return DType{}, fmt.Errorf("invalid descr %q", descr)
	}
	d.Kind = rest[0]
	rest = rest[1:]

	if i := strings.IndexByte(rest, '['); i >= 0 {
		if !strings.HasSuffix(rest, "]") || (d.Kind != 'M' && d.Kind != 'm') {
			return DType{}, fmt.Errorf("invalid descr %q", descr)
		}
		d.Unit = rest[i+1 : len(rest)-1]
		rest = rest[:i]
	}

	n, err := strconv.Atoi(rest)
	if err != nil || n <= 0 {
		return DType{}, fmt.Errorf("invalid item size in descr %q", descr)
	}
	d.Count = n

	switch d.Kind {
	case 'b':
		if n != 1 {
			return DType{}, fmt.Errorf("invalid bool descr %q", descr)
		}
	case 'i', 'u', 'f', 'c', 'S', 'U', 'V', 'M', 'm':
	default:
		return DType{}, fmt.Errorf("unsupported kind %q in descr %q", d.Kind, descr)
	}

	return d.normalize(), nil
}

// normalize resolves the native byte order and marks single byte types as
// order-less, which is how numpy itself writes them.
func (d DType) normalize() DType {
	if d.Order == native {
		d.Order = LittleEndian
	}
	switch d.Kind {
	case 'S', 'V', 'b':
		d.Order = NotApplicable
	case 'i', 'u':
		if d.Count == 1 {
			d.Order = NotApplicable
		}
	}
	return d
}

func (d DType) ItemSize() int {
	if d.Kind == 'U' {
		return d.Count * 4
	}
	return d.Count
}

// Descr returns the canonical descr string, as numpy writes it into headers.
func (d DType) Descr() string {
	s := string(d.Order) + string(d.Kind) + strconv.Itoa(d.Count)
	if d.Unit != "" {
		s += "[" + d.Unit + "]"
	}
	return s
}

// Name returns the numpy type name, e.g. "float32".
func (d DType) Name() string {
	bits := strconv.Itoa(d.ItemSize() * 8)
	switch d.Kind {
	case 'b':
		return "bool"
	case 'i':
		return "int" + bits
	case 'u':
		return "uint" + bits
	case 'f':
		return "float" + bits
	case 'c':
		return "complex" + bits
	case 'S':
		return "bytes" + bits
	case 'U':
		return "str" + bits
	case 'V':
		return "void" + bits
	case 'M':
		return "datetime64" + d.unitSuffix()
	case 'm':
		return "timedelta64" + d.unitSuffix()
	default:
		return d.Descr()
	}
}

func (d DType) unitSuffix() string {
	if d.Unit == "" {
		return ""
	}
	return "[" + d.Unit + "]"
}

func (d DType) Equal(other DType) bool {
	return d.normalize() == other.normalize()
}

func (d DType) String() string {
	return d.Name() + " (" + d.Descr() + ")"
}

// ParseName is the inverse of Name for little-endian types. A descr string
// is accepted as well, so "<f4" and "float32" give the same DType.
func ParseName(name string) (DType, error) {
	if name == "bool" {
		return Bool, nil
	}
	if (len(name) > 0 && !isLetter(name[0])) || strings.ContainsAny(name, "<>|=") {
		return ParseDType(name)
	}

	kinds := []struct {
		prefix string
		kind   byte
	}{
		// longest prefixes first, "uint" must not match as "int"
		{"timedelta64", 'm'},
		{"datetime64", 'M'},
		{"complex", 'c'},
		{"float", 'f'},
		{"bytes", 'S'},
		{"uint", 'u'},
		{"void", 'V'},
		{"int", 'i'},
		{"str", 'U'},
	}
	for _, k := range kinds {
		rest, ok := strings.CutPrefix(name, k.prefix)
		if !ok {
			continue
		}
		if k.kind == 'M' || k.kind == 'm' {
			return ParseDType("<" + string(k.kind) + "8" + rest)
		}
		bits, err := strconv.Atoi(rest)
		if err != nil || bits <= 0 || bits%8 != 0 {
			return DType{}, fmt.Errorf("invalid dtype name %q", name)
		}
		count := bits / 8
		if k.kind == 'U' {
			if count%4 != 0 {
				return DType{}, fmt.Errorf("invalid dtype name %q", name)
			}
			count /= 4
		}
		return ParseDType("<" + string(k.kind) + strconv.Itoa(count))
	}
	return DType{}, fmt.Errorf("unknown dtype name %q", name)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// Str mirrors numpy's str(dtype): the type name when the byte order is
// little endian or irrelevant, the descr otherwise, e.g. ">f4".
func (d DType) Str() string {
	if d.Order == BigEndian {
		return d.Descr()
	}
	return d.Name()
}
