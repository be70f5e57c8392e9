package codesearch

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// serverHintedBackOff waits at least as long as the server asked, capped at maxInterval.
type serverHintedBackOff struct {
	delegate    backoff.BackOff
	maxInterval time.Duration
	hint        time.Duration
}

func (hinted *serverHintedBackOff) NextBackOff() time.Duration {
	nextInterval := hinted.delegate.NextBackOff()
	if nextInterval == backoff.Stop {
		return backoff.Stop
	}

	hint := hinted.hint
	hinted.hint = 0
	if hint > hinted.maxInterval {
		hint = hinted.maxInterval
	}
	if hint > nextInterval {
		return hint
	}
	return nextInterval
}

func (hinted *serverHintedBackOff) Reset() {
	hinted.hint = 0
	hinted.delegate.Reset()
}

func (hinted *serverHintedBackOff) observe(rateLimitError RateLimitError) {
	hinted.hint = rateLimitError.RetryAfter
}

func newRetryBackOff(executionContext context.Context, policy RetryPolicy) (*serverHintedBackOff, backoff.BackOffContext) {
	exponentialBackOff := backoff.NewExponentialBackOff()
	exponentialBackOff.InitialInterval = policy.InitialInterval
	exponentialBackOff.MaxInterval = policy.MaxInterval
	exponentialBackOff.Multiplier = policy.Multiplier
	exponentialBackOff.RandomizationFactor = 0
	exponentialBackOff.MaxElapsedTime = 0

	var boundedBackOff backoff.BackOff = &backoff.StopBackOff{}
	if retryCount := policy.MaxAttempts - 1; retryCount > 0 {
		boundedBackOff = backoff.WithMaxRetries(exponentialBackOff, uint64(retryCount))
	}

	hintedBackOff := &serverHintedBackOff{delegate: boundedBackOff, maxInterval: policy.MaxInterval}
	return hintedBackOff, backoff.WithContext(hintedBackOff, executionContext)
}
