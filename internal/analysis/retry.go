package analysis

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/kiranshivaraju/projectlens/internal/ai"
)

// RetryPolicy bounds completion retries. Waits grow exponentially from
// InitialInterval by Multiplier with no jitter; MaxRetries counts retries
// after the first attempt.
type RetryPolicy struct {
	MaxRetries      int
	InitialInterval time.Duration
	Multiplier      float64
}

// DefaultRetryPolicy retries twice, after 1s and then 2s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 2, InitialInterval: time.Second, Multiplier: 2}
}

// Delays returns the wait before each retry, in order.
func (p RetryPolicy) Delays() []time.Duration {
	b := p.exponential()
	out := make([]time.Duration, 0, p.retries())
	for i := 0; i < p.retries(); i++ {
		out = append(out, b.NextBackOff())
	}
	return out
}

func (p RetryPolicy) retries() int {
	if p.MaxRetries < 0 {
		return 0
	}
	return p.MaxRetries
}

func (p RetryPolicy) exponential() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.Multiplier = p.Multiplier
	if b.Multiplier < 1 {
		b.Multiplier = 1
	}
	b.RandomizationFactor = 0
	b.MaxInterval = time.Hour
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// do runs op until it succeeds, fails with a non-retryable error, the
// retries run out or ctx ends. It returns the number of attempts made.
func (p RetryPolicy) do(ctx context.Context, op func(attempt int) (string, error), notify func(err error, next time.Duration)) (string, int, error) {
	attempts := 0
	b := backoff.WithContext(backoff.WithMaxRetries(p.exponential(), uint64(p.retries())), ctx)

	out, err := backoff.RetryNotifyWithData(func() (string, error) {
		attempts++
		s, err := op(attempts)
		if err != nil && !ai.IsRetryable(err) {
			return "", backoff.Permanent(err)
		}
		return s, err
	}, b, notify)
	return out, attempts, err
}
