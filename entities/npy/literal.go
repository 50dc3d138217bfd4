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
	"unicode"
)

// literalParser reads the subset of Python literal syntax numpy uses for the
// header dictionary: dicts, tuples, lists, quoted strings, ints and bools.
type literalParser struct {
	src string
	pos int
}

func parseLiteral(src string) (interface{}, error) {
	p := &literalParser{src: src}
	v, err := p.value()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf("trailing data")
	}
	return v, nil
}

func (p *literalParser) errorf(format string, a ...any) error {
	return fmt.Errorf("header literal at offset %d: %s", p.pos, fmt.Sprintf(format, a...))
}

func (p *literalParser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *literalParser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *literalParser) value() (interface{}, error) {
	p.skipSpace()
	switch c := p.peek(); {
	case c == '{':
		return p.dict()
	case c == '(':
		return p.sequence('(', ')')
	case c == '[':
		return p.sequence('[', ']')
	case c == '\'' || c == '"':
		return p.str()
	case c == '-' || (c >= '0' && c <= '9'):
		return p.integer()
	case c == 'T' || c == 'F':
		return p.boolean()
	case c == 0:
		return nil, p.errorf("unexpected end of input")
	default:
		return nil, p.errorf("unexpected character %q", c)
	}
}

func (p *literalParser) dict() (map[string]interface{}, error) {
	p.pos++ // {
	out := map[string]interface{}{}
	for {
		p.skipSpace()
		if p.peek() == '}' {
			p.pos++
			return out, nil
		}
		key, err := p.str()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.peek() != ':' {
			return nil, p.errorf("expected ':' after key %q", key)
		}
		p.pos++
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		out[key] = v
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case '}':
		default:
			return nil, p.errorf("expected ',' or '}' in dict")
		}
	}
}

func (p *literalParser) sequence(open, closing byte) ([]interface{}, error) {
	p.pos++ // open
	out := []interface{}{}
	for {
		p.skipSpace()
		if p.peek() == closing {
			p.pos++
			return out, nil
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case closing:
		default:
			return nil, p.errorf("expected ',' or %q in sequence opened by %q", closing, open)
		}
	}
}

func (p *literalParser) str() (string, error) {
	p.skipSpace()
	quote := p.peek()
	if quote != '\'' && quote != '"' {
		return "", p.errorf("expected quoted string")
	}
	end := strings.IndexByte(p.src[p.pos+1:], quote)
	if end < 0 {
		return "", p.errorf("unterminated string")
	}
	s := p.src[p.pos+1 : p.pos+1+end]
	p.pos += end + 2
	return s, nil
}

func (p *literalParser) integer() (int64, error) {
	start := p.pos
	if p.peek() == '-' {
		p.pos++
	}
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	// numpy on some platforms writes python 2 long literals, e.g. "3L"
	lit := p.src[start:p.pos]
	if p.peek() == 'L' {
		p.pos++
	}
	n, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		return 0, p.errorf("invalid integer %q", lit)
	}
	return n, nil
}

func (p *literalParser) boolean() (bool, error) {
	switch {
	case strings.HasPrefix(p.src[p.pos:], "True"):
		p.pos += len("True")
		return true, nil
	case strings.HasPrefix(p.src[p.pos:], "False"):
		p.pos += len("False")
		return false, nil
	default:
		return false, p.errorf("invalid boolean")
	}
}
