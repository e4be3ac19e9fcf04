// Package retry wraps calls to the payment gateway with a bounded retry loop.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/baharkarakas/insider-ledger/internal/gateway"
)

// Declined is returned when the operation was refused or never succeeded.
const Declined = "DECLINED"

type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	// Retryable reports whether err is worth another attempt. Nil means
	// only gateway.ErrTimeout is retried.
	Retryable func(err error) bool
}

func Default() Policy {
	return Policy{MaxAttempts: 3, Delay: 500 * time.Millisecond}
}

// Do calls op until it succeeds, fails terminally or attempts run out. The
// first successful result is returned verbatim; every other outcome is
// Declined. A cancelled context cuts the delay short but does not stop the
// loop; op sees the context and decides for itself.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) (string, error)) string {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = func(err error) bool { return errors.Is(err, gateway.ErrTimeout) }
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		res, err := op(ctx)
		if err == nil {
			return res
		}
		if !retryable(err) {
			return Declined
		}
		if attempt < attempts {
			p.sleep(ctx)
		}
	}
	return Declined
}

func (p Policy) sleep(ctx context.Context) {
	if p.Delay <= 0 {
		return
	}
	t := time.NewTimer(p.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
