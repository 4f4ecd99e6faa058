package services

import "context"

type contextKey string

const (
	itemIDKey contextKey = "item_id"
	runIDKey  contextKey = "run_id"
	cycleKey  contextKey = "cycle"
)

// WithItemID annotates context with the intake item identifier.
func WithItemID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, itemIDKey, id)
}

// ItemIDFromContext extracts the intake item identifier if present.
func ItemIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, itemIDKey)
}

// WithRunID annotates context with the cycle run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext returns the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, runIDKey)
}

// WithCycle annotates context with the pipeline cycle name.
func WithCycle(ctx context.Context, cycle string) context.Context {
	if cycle == "" {
		return ctx
	}
	return context.WithValue(ctx, cycleKey, cycle)
}

// CycleFromContext returns the cycle name if present.
func CycleFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, cycleKey)
}

func stringValue(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	if str, ok := ctx.Value(key).(string); ok && str != "" {
		return str, true
	}
	return "", false
}
