package vcs

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/kilupskalvis/commitdiff/internal/models"
)

// RetryConfig configures retry behavior for transient query failures.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	JitterFraction float64 // 0.0 to 1.0
}

// DefaultRetryConfig returns sensible retry defaults.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:     2,
		InitialBackoff: 250 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		JitterFraction: 0.25,
	}
}

// RetryBackend wraps a Backend with retry on transient failures.
// Queries are read-only, so repeating one is always safe.
type RetryBackend struct {
	inner  Backend
	config *RetryConfig
}

// NewRetryBackend creates a RetryBackend around inner.
func NewRetryBackend(inner Backend, cfg *RetryConfig) *RetryBackend {
	if cfg == nil {
		cfg = DefaultRetryConfig()
	}
	return &RetryBackend{inner: inner, config: cfg}
}

// isTransient returns true for failures worth retrying. A backend that
// answered with a diagnostic will answer the same way again; only
// timeouts and failures to start the query are retried.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Reason == ReasonTimeout
	}
	return true
}

// backoff computes the delay for the given attempt with jitter.
func (rb *RetryBackend) backoff(attempt int) time.Duration {
	base := float64(rb.config.InitialBackoff) * math.Pow(2, float64(attempt))
	if base > float64(rb.config.MaxBackoff) {
		base = float64(rb.config.MaxBackoff)
	}
	jitter := base * rb.config.JitterFraction * (rand.Float64()*2 - 1) // +/- jitter
	d := time.Duration(base + jitter)
	if d < 0 {
		d = 0
	}
	return d
}

// sleep waits for the given duration or until the context is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// retry executes fn with retry logic. Only retries transient errors.
// The last QueryError is returned unwrapped so callers can still match it.
func (rb *RetryBackend) retry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= rb.config.MaxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !isTransient(lastErr) {
			return lastErr
		}
		if attempt < rb.config.MaxRetries {
			if err := sleep(ctx, rb.backoff(attempt)); err != nil {
				return lastErr
			}
		}
	}
	return lastErr
}

func (rb *RetryBackend) CommitInfo(ctx context.Context, ref string) (info *models.CommitInfo, err error) {
	err = rb.retry(ctx, func() error {
		info, err = rb.inner.CommitInfo(ctx, ref)
		return err
	})
	return
}

func (rb *RetryBackend) DiffStat(ctx context.Context, ref1, ref2 string) (stat string, err error) {
	err = rb.retry(ctx, func() error {
		stat, err = rb.inner.DiffStat(ctx, ref1, ref2)
		return err
	})
	return
}

func (rb *RetryBackend) ChangeList(ctx context.Context, ref1, ref2 string) (changes []models.FileChange, err error) {
	err = rb.retry(ctx, func() error {
		changes, err = rb.inner.ChangeList(ctx, ref1, ref2)
		return err
	})
	return
}

func (rb *RetryBackend) UnifiedDiff(ctx context.Context, ref1, ref2 string, opts DiffOptions) (patch string, err error) {
	err = rb.retry(ctx, func() error {
		patch, err = rb.inner.UnifiedDiff(ctx, ref1, ref2, opts)
		return err
	})
	return
}

func (rb *RetryBackend) RecentLog(ctx context.Context, count int) (entries []models.LogEntry, err error) {
	err = rb.retry(ctx, func() error {
		entries, err = rb.inner.RecentLog(ctx, count)
		return err
	})
	return
}
