// Package groutine starts named goroutines. Names show up as pprof labels and can be read
// back from the goroutine's context for logging.
package groutine

import (
	"context"
	"runtime/pprof"
)

type ctxKey string

const nameKey ctxKey = "goroutine_name"

// Go starts fn on a new goroutine labelled with name.
// A nil parent is treated as context.Background().
//
//	groutine.Go(ctx, "engine-loop", func(ctx context.Context) {
//	    // work
//	})
func Go(parent context.Context, name string, fn func(ctx context.Context)) {
	if parent == nil {
		parent = context.Background()
	}

	go pprof.Do(parent, pprof.Labels("goroutine_name", name), func(ctx context.Context) {
		fn(context.WithValue(ctx, nameKey, name))
	})
}

// Name returns the goroutine name stored in ctx, or "".
func Name(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if s, ok := ctx.Value(nameKey).(string); ok {
		return s
	}
	return ""
}
