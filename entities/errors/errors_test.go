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
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindsSurviveWrapping(t *testing.T) {
	cause := fmt.Errorf("disk on fire")

	tests := []struct {
		name string
		err  error
		kind error
	}{
		{"unreadable", NewUnreadableInput("a.npy", cause), ErrUnreadableInput},
		{"schema", NewSchemaMismatch("b.npy", "dtype float64 != float32"), ErrSchemaMismatch},
		{"allocation", NewOutputAllocation("db.mm", cause), ErrOutputAllocation},
		{"write", NewWrite("db.mm", cause), ErrWrite},
		{"config", NewInvalidConfig("missing %s", "--root"), ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("merge: %w", tt.err)
			assert.True(t, errors.Is(wrapped, tt.kind))
			assert.False(t, errors.Is(wrapped, ErrNoInputsFound))
		})
	}

	assert.True(t, errors.Is(NewWrite("db.mm", cause), cause))
	assert.True(t, IsUsage(NewInvalidConfig("x")))
	assert.False(t, IsUsage(NewWrite("db.mm", cause)))
}

func TestKind(t *testing.T) {
	assert.Equal(t, "", Kind(nil))
	assert.Equal(t, "no_inputs_found", Kind(fmt.Errorf("scan: %w", ErrNoInputsFound)))
	assert.Equal(t, "schema_mismatch", Kind(NewSchemaMismatch("x.npy", "width")))
	assert.Equal(t, "write", Kind(NewWrite("db.mm", errors.New("EIO"))))
	assert.Equal(t, "cancelled", Kind(fmt.Errorf("copy: %w", context.Canceled)))
	assert.Equal(t, "other", Kind(errors.New("surprise")))
}

func TestErrorGroupWrapperRecoversPanic(t *testing.T) {
	logger, hook := test.NewNullLogger()
	eg := NewErrorGroupWrapper(logger, "file-list")

	eg.Go(func() error { return nil })
	eg.Go(func() error { panic("boom") }, "worker-1")

	err := eg.Wait()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	require.NotEmpty(t, hook.AllEntries())
	assert.Equal(t, "error_group_recover", hook.LastEntry().Data["action"])
}

func TestErrorGroupWrapperReturnsFirstError(t *testing.T) {
	logger, _ := test.NewNullLogger()
	eg := NewErrorGroupWrapper(logger)
	eg.SetLimit(1)

	eg.Go(func() error { return ErrWrite })
	eg.Go(func() error { return nil })

	assert.ErrorIs(t, eg.Wait(), ErrWrite)
}
