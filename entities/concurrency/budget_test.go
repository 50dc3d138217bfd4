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

package concurrency

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBudgetFromCtx(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, 3, BudgetFromCtx(ctx, 3))
	assert.Equal(t, 8, BudgetFromCtx(CtxWithBudget(ctx, 8), 3))
	assert.Equal(t, 3, BudgetFromCtx(CtxWithBudget(ctx, 0), 3))
}

func TestResolve(t *testing.T) {
	assert.Equal(t, 1, Resolve(1, 100))
	assert.Equal(t, 4, Resolve(4, 100))
	assert.Equal(t, 2, Resolve(4, 2))
	assert.Equal(t, 4, Resolve(4, 0))
	assert.Equal(t, min(NUMCPU, 1000), Resolve(0, 1000))
}
