package downloader

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy controls how failed extractor calls are repeated
type RetryPolicy struct {
	Attempts      int
	MinDelay      time.Duration
	MaxDelay      time.Duration
	RateLimitWait time.Duration

	timer backoff.Timer
}

// classifiedBackOff waits RateLimitWait after a rate limited attempt and
// follows the exponential schedule otherwise.
type classifiedBackOff struct {
	exp           *backoff.ExponentialBackOff
	rateLimitWait time.Duration
	last          *Error
}

func (b *classifiedBackOff) NextBackOff() time.Duration {
	next := b.exp.NextBackOff()
	if b.last != nil && b.last.Kind == KindRateLimit && b.rateLimitWait > 0 {
		return b.rateLimitWait
	}
	return next
}

func (b *classifiedBackOff) Reset() {
	b.exp.Reset()
	b.last = nil
}

func (p RetryPolicy) exponential() *backoff.ExponentialBackOff {
	minDelay, maxDelay := p.MinDelay, p.MaxDelay
	if maxDelay < minDelay {
		maxDelay = minDelay
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = (minDelay + maxDelay) / 2
	if minDelay+maxDelay > 0 {
		exp.RandomizationFactor = float64(maxDelay-minDelay) / float64(maxDelay+minDelay)
	}
	exp.Multiplier = 2
	exp.MaxInterval = 3 * maxDelay
	exp.MaxElapsedTime = 0
	exp.Reset()
	return exp
}

// Do runs op until it succeeds, fails with a non-retryable error, the
// attempts are used up or ctx is done. notify is called before every wait.
// The returned error is always classified.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context) error, notify func(err *Error, wait time.Duration)) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	policy := &classifiedBackOff{exp: p.exponential(), rateLimitWait: p.RateLimitWait}
	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(attempts-1)), ctx)

	operation := func() error {
		err := op(ctx)
		if err == nil {
			return nil
		}

		classified := Classify(err)
		policy.last = classified
		if !classified.Retryable() || ctx.Err() != nil {
			return backoff.Permanent(classified)
		}
		return classified
	}

	var onRetry backoff.Notify
	if notify != nil {
		onRetry = func(err error, wait time.Duration) {
			notify(Classify(err), wait)
		}
	}

	if err := backoff.RetryNotifyWithTimer(operation, b, onRetry, p.timer); err != nil {
		return Classify(err)
	}
	return nil
}
