package http

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/planetfederal/gsconfig/config"
	"github.com/planetfederal/gsconfig/transport"
)

var errRetryableStatus = errors.New("retryable status")

type retryPolicy struct {
	attempts int
	interval time.Duration
	statuses map[int]struct{}
}

func newRetryPolicy(cfg config.Retry) retryPolicy {
	policy := retryPolicy{
		attempts: cfg.Attempts,
		interval: time.Duration(cfg.BackoffFactor * float64(time.Second)),
		statuses: make(map[int]struct{}, len(cfg.Statuses)),
	}
	if policy.attempts < 1 {
		policy.attempts = 1
	}
	for _, status := range cfg.Statuses {
		policy.statuses[status] = struct{}{}
	}
	return policy
}

func (p retryPolicy) retryable(statusCode int) bool {
	_, found := p.statuses[statusCode]
	return found
}

func (p retryPolicy) backOff(ctx context.Context) backoff.BackOff {
	exponential := backoff.NewExponentialBackOff()
	exponential.InitialInterval = p.interval
	exponential.Multiplier = 2
	exponential.RandomizationFactor = 0
	exponential.MaxInterval = 2 * time.Minute
	exponential.MaxElapsedTime = 0

	return backoff.WithContext(backoff.WithMaxRetries(exponential, uint64(p.attempts-1)), ctx)
}

// run calls send until it returns a non-retryable status or the attempt budget
// is spent. The last response is returned even when its status was retryable.
func (p retryPolicy) run(
	ctx context.Context,
	send func() (*transport.Response, error),
	notify func(statusCode int, delay time.Duration),
) (*transport.Response, error) {
	var last *transport.Response
	operation := func() error {
		response, err := send()
		if err != nil {
			return backoff.Permanent(err)
		}
		last = response
		if p.retryable(response.StatusCode) {
			return errRetryableStatus
		}
		return nil
	}

	err := backoff.RetryNotify(operation, p.backOff(ctx), func(_ error, delay time.Duration) {
		if notify != nil && last != nil {
			notify(last.StatusCode, delay)
		}
	})
	switch {
	case err == nil, errors.Is(err, errRetryableStatus):
		return last, nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, transportError("request aborted while retrying", err)
	default:
		return nil, err
	}
}
