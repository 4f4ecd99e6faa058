package screening

import (
	"context"
	"errors"
	"time"

	"contentsbuilder/internal/services"
	"contentsbuilder/internal/services/gemini"
)

const (
	defaultRetryBaseDelay = time.Second
	defaultRetryMaxDelay  = 10 * time.Second
)

// RetryPolicy bounds how transport failures are retried.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

func (p RetryPolicy) attempts() int {
	if p.Attempts <= 0 {
		return 1
	}
	return p.Attempts
}

// delay returns how long to wait before the attempt after the given one, or
// false when err should not be retried.
func (p RetryPolicy) delay(ctx context.Context, err error, attempt int) (time.Duration, bool) {
	if attempt >= p.attempts() || err == nil {
		return 0, false
	}
	if ctx.Err() != nil {
		return 0, false
	}
	if !services.Retryable(err) {
		return 0, false
	}
	var transport *gemini.TransportError
	if errors.As(err, &transport) && transport.RetryAfter > 0 {
		return p.capDelay(transport.RetryAfter), true
	}
	return p.backoffDelay(attempt), true
}

func (p RetryPolicy) maxDelay() time.Duration {
	if p.MaxDelay > 0 {
		return p.MaxDelay
	}
	return defaultRetryMaxDelay
}

// attempt 1 -> base, attempt 2 -> base*2, attempt 3 -> base*4, capped at max.
func (p RetryPolicy) backoffDelay(attempt int) time.Duration {
	base := p.BaseDelay
	if base < 0 {
		base = defaultRetryBaseDelay
	}
	if base == 0 {
		return 0
	}
	limit := p.maxDelay()
	if attempt <= 0 {
		attempt = 1
	}
	delay := base
	for i := 1; i < attempt; i++ {
		if delay > limit/2 {
			delay = limit
			break
		}
		delay *= 2
	}
	return p.capDelay(delay)
}

func (p RetryPolicy) capDelay(delay time.Duration) time.Duration {
	if limit := p.maxDelay(); delay > limit {
		return limit
	}
	return delay
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
