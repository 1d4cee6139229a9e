package retryutil

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mazen160/go-random"
)

// Jitter sleeps for a random duration between min and max, honoring ctx
// cancellation. The registry intermittently flags sessions that act on a
// fixed cadence, so every inter-action pause goes through here.
func Jitter(ctx context.Context, min, max time.Duration) {
	span := int(max - min)
	offset := 0
	if span > 0 {
		var err error
		offset, err = random.IntRange(0, span)
		if err != nil {
			offset = span / 2
		}
	}
	select {
	case <-time.After(min + time.Duration(offset)):
	case <-ctx.Done():
	}
}

type Options struct {
	Attempts int
	// pause bounds between attempts
	MinDelay time.Duration
	MaxDelay time.Duration
}

// Do runs fn up to opts.Attempts times until it returns nil. fn is expected
// to perform its own success validation (re-acquire the control, re-apply,
// re-check), so a nil return means the postcondition holds, not merely that
// the action was issued. Returns the last error when attempts are exhausted.
func Do(ctx context.Context, opts Options, fn func(ctx context.Context) error) error {
	if opts.Attempts <= 0 {
		opts.Attempts = 3
	}

	var lastErr error
	for attempt := 1; attempt <= opts.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		slog.DebugContext(ctx, "retryable attempt failed",
			"attempt", attempt,
			"max_attempts", opts.Attempts,
			"err", lastErr,
		)
		if attempt < opts.Attempts {
			Jitter(ctx, opts.MinDelay, opts.MaxDelay)
		}
	}

	return fmt.Errorf("exhausted %d attempts: %w", opts.Attempts, lastErr)
}
