//                           _       _
// __      _____  __ ___   ___  __ _| |_ ___
// \ \ /\ / / _ \/ _` \ \ / / |/ _` | __/ _ \
//  \ V  V /  __/ (_| |\ V /| | (_| | ||  __/
//   \_/\_/ \___|\__,_| \_/ |_|\__,_|\__\___|
//
//  Copyright © 2016 - 2024 Weaviate B.V. All rights reserved.
//
//  CONTACT: hello@weaviate.io
//

package errors

import (
	"context"
	"errors"
	"fmt"
)

// Terminal failure kinds of a merge run. None of them is retried; callers
// match them with errors.Is after any amount of wrapping.
var (
	ErrNoInputsFound    = errors.New("no input files found")
	ErrUnreadableInput  = errors.New("unreadable input")
	ErrSchemaMismatch   = errors.New("schema mismatch")
	ErrOutputAllocation = errors.New("output allocation failed")
	ErrWrite            = errors.New("write failed")
	ErrInvalidConfig    = errors.New("invalid config")
)

func NewUnreadableInput(path string, err error) error {
	return fmt.Errorf("%s: %w: %w", path, ErrUnreadableInput, err)
}

func NewSchemaMismatch(path, msg string) error {
	return fmt.Errorf("%s: %w: %s", path, ErrSchemaMismatch, msg)
}

func NewOutputAllocation(path string, err error) error {
	return fmt.Errorf("%s: %w: %w", path, ErrOutputAllocation, err)
}

func NewWrite(path string, err error) error {
	return fmt.Errorf("%s: %w: %w", path, ErrWrite, err)
}

func NewInvalidConfig(format string, a ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, a...))
}

// IsUsage reports whether err should be answered with a usage message
// rather than a runtime failure.
func IsUsage(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}

// Kind returns a short label for the failure kind of err, suitable as a
// metric label. It is empty for a nil error.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoInputsFound):
		return "no_inputs_found"
	case errors.Is(err, ErrUnreadableInput):
		return "unreadable_input"
	case errors.Is(err, ErrSchemaMismatch):
		return "schema_mismatch"
	case errors.Is(err, ErrOutputAllocation):
		return "output_allocation"
	case errors.Is(err, ErrWrite):
		return "write"
	case errors.Is(err, ErrInvalidConfig):
		return "invalid_config"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "other"
	}
}
