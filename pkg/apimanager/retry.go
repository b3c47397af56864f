package apimanager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// RetryManager wraps a Manager with wait-and-retry semantics. The core
// Manager never sleeps; this wrapper is where backoff policy lives for
// callers that would rather block than handle RateLimitError themselves.
//
// Rate-limit denials wait until the window resets. Transport failures
// optionally retry under a BackoffStrategy. Cache failures are never
// retried: they signal a local outage that waiting will not fix.
type RetryManager struct {
	mgr *Manager

	// MaxAttempts bounds total attempts per logical request. Defaults to 3.
	MaxAttempts int

	// Backoff, when set, enables retrying transport failures. Nil means
	// transport failures surface immediately.
	Backoff BackoffStrategy

	log *zap.Logger
}

// NewRetryManager wraps mgr. Logger may be nil.
func NewRetryManager(mgr *Manager, logger *zap.Logger) *RetryManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryManager{mgr: mgr, MaxAttempts: 3, log: logger}
}

// Request issues the logical request, sleeping through rate-limit windows
// and (optionally) backing off through transport failures, until it
// succeeds, attempts run out, or ctx is done.
func (r *RetryManager) Request(ctx context.Context, req Request) (*Result, error) {
	attempts := r.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		res, err := r.mgr.Request(ctx, req)
		if err == nil {
			return res, nil
		}
		lastErr = err

		var rle *RateLimitError
		var te *TransportError
		switch {
		case errors.As(err, &rle):
			r.log.Debug("waiting out quota window",
				zap.Duration("wait", rle.RetryAfter),
				zap.Int("attempt", attempt),
			)
			if err := sleepCtx(ctx, rle.RetryAfter); err != nil {
				return nil, err
			}
		case errors.As(err, &te) && r.Backoff != nil:
			wait := r.Backoff.Next(attempt)
			r.log.Debug("backing off after transport failure",
				zap.Duration("wait", wait),
				zap.Int("attempt", attempt),
			)
			if err := sleepCtx(ctx, wait); err != nil {
				return nil, err
			}
		default:
			return nil, err
		}
	}
	return nil, fmt.Errorf("apimanager: retries exhausted after %d attempts: %w", attempts, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
