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
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ErrorGroupWrapper embeds errgroup.Group and turns panics inside the
// goroutines into errors returned from Wait.
type ErrorGroupWrapper struct {
	*errgroup.Group
	logger logrus.FieldLogger

	mu          sync.Mutex
	returnError error
	variables   []interface{}
}

// NewErrorGroupWrapper creates a new ErrorGroupWrapper. vars are logged
// alongside any recovered panic.
func NewErrorGroupWrapper(logger logrus.FieldLogger, vars ...interface{}) *ErrorGroupWrapper {
	return &ErrorGroupWrapper{
		Group:     new(errgroup.Group),
		logger:    logger,
		variables: vars,
	}
}

// NewErrorGroupWithContextWrapper is like NewErrorGroupWrapper but the
// returned context is cancelled as soon as one goroutine fails.
func NewErrorGroupWithContextWrapper(ctx context.Context, logger logrus.FieldLogger,
	vars ...interface{},
) (*ErrorGroupWrapper, context.Context) {
	eg, ctx := errgroup.WithContext(ctx)
	return &ErrorGroupWrapper{
		Group:     eg,
		logger:    logger,
		variables: vars,
	}, ctx
}

// Go overrides the Go method to add panic recovery logic.
func (egw *ErrorGroupWrapper) Go(f func() error, localVars ...interface{}) {
	egw.Group.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				egw.logger.WithField("action", "error_group_recover").
					Errorf("Recovered from panic: %v, local variables %v, additional localVars %v",
						r, localVars, egw.variables)
				debug.PrintStack()
				err = fmt.Errorf("panic occurred: %v", r)
				egw.mu.Lock()
				egw.returnError = err
				egw.mu.Unlock()
			}
		}()
		return f()
	})
}

// Wait waits for all goroutines to finish and returns the first non-nil error.
func (egw *ErrorGroupWrapper) Wait() error {
	if err := egw.Group.Wait(); err != nil {
		return err
	}
	egw.mu.Lock()
	defer egw.mu.Unlock()
	return egw.returnError
}
