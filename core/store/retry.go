package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/optimanage/core/logger"
	"github.com/kilianp07/optimanage/core/record"
)

// RetryConfig controls how transient store failures are retried.
type RetryConfig struct {
	MaxRetries int `json:"max_retries"`
	BackoffMS  int `json:"backoff_ms"`
}

// Retrying wraps a RecordStore and retries calls failing with ErrUnavailable
// using exponential backoff. Once retries are exhausted the last error is
// returned unchanged.
type Retrying struct {
	next       RecordStore
	maxRetries int
	backoff    time.Duration
	log        logger.Logger
	sleep      func(context.Context, time.Duration) error
}

// NewRetrying returns a retrying store. Zero values default to three retries
// and a 100ms initial backoff.
func NewRetrying(next RecordStore, cfg RetryConfig, log logger.Logger) *Retrying {
	r := &Retrying{
		next:       next,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		log:        log,
		sleep:      sleepCtx,
	}
	if r.maxRetries <= 0 {
		r.maxRetries = 3
	}
	if r.backoff <= 0 {
		r.backoff = 100 * time.Millisecond
	}
	return r
}

// Query implements RecordStore.
func (r *Retrying) Query(ctx context.Context, c Criteria, properties []string) ([]record.Record, error) {
	var out []record.Record
	err := r.do(ctx, "query", func() error {
		var err error
		out, err = r.next.Query(ctx, c, properties)
		return err
	})
	return out, err
}

// Fingerprint implements RecordStore.
func (r *Retrying) Fingerprint(ctx context.Context) (string, error) {
	var fp string
	err := r.do(ctx, "fingerprint", func() error {
		var err error
		fp, err = r.next.Fingerprint(ctx)
		return err
	})
	return fp, err
}

// Close closes the wrapped store when it supports it.
func (r *Retrying) Close() error {
	if c, ok := r.next.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

func (r *Retrying) do(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		err = fn()
		if err == nil || !errors.Is(err, ErrUnavailable) {
			return err
		}
		if attempt == r.maxRetries {
			break
		}
		if r.log != nil {
			r.log.Warnf("store %s attempt %d failed: %v", op, attempt+1, err)
		}
		if serr := r.sleep(ctx, r.backoff*time.Duration(1<<attempt)); serr != nil {
			return fmt.Errorf("store %s: %w", op, serr)
		}
	}
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
