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
	"runtime"
)

var NUMCPU = runtime.NumCPU()

type budgetKey struct{}

func (budgetKey) String() string {
	return "concurrency_budget"
}

func CtxWithBudget(ctx context.Context, budget int) context.Context {
	return context.WithValue(ctx, budgetKey{}, budget)
}

func BudgetFromCtx(ctx context.Context, fallback int) int {
	budget, ok := ctx.Value(budgetKey{}).(int)
	if !ok || budget < 1 {
		return fallback
	}

	return budget
}

// Resolve turns a configured worker count into a usable one: values below
// one mean "one per CPU", and there is never more work than items.
func Resolve(configured, items int) int {
	n := configured
	if n < 1 {
		n = NUMCPU
	}
	if items > 0 && n > items {
		n = items
	}
	if n < 1 {
		n = 1
	}
	return n
}
