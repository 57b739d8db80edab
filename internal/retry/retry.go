// Package retry provides a bounded fixed-interval polling loop for
// eventually-consistent reads.
package retry

import (
	"context"
	"errors"
	"time"
)

// ErrExhausted is returned when all attempts completed without the predicate
// succeeding. Callers that treat exhaustion as a soft outcome (e.g. "indexed
// later") should match it with errors.Is.
var ErrExhausted = errors.New("retry attempts exhausted")

// Poll invokes fn up to attempts times, waiting interval between attempts.
// fn returns (done, err): done=true stops the loop successfully; a non-nil
// err is remembered but does not stop the loop (transient read failures are
// expected while an indexer catches up). After the last attempt Poll returns
// ErrExhausted, wrapped around the last fn error if there was one.
func Poll(ctx context.Context, attempts int, interval time.Duration, fn func(ctx context.Context, attempt int) (bool, error)) error {
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		done, err := fn(ctx, attempt)
		if done {
			return nil
		}
		if err != nil {
			lastErr = err
		}
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
	if lastErr != nil {
		return errors.Join(ErrExhausted, lastErr)
	}
	return ErrExhausted
}
