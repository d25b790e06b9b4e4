// Package retry provides the bounded polling loop used wherever the
// orchestrator waits for an external condition (engine health, settle delays).
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrExhausted is returned when every attempt ran without the condition holding.
var ErrExhausted = errors.New("retry: attempts exhausted")

// ErrDeadline is returned when the overall deadline elapsed before success.
var ErrDeadline = errors.New("retry: deadline exceeded")

// Policy bounds a polling loop. MaxAttempts and Deadline may both be set;
// whichever is hit first stops the loop. Interval is slept between attempts
// only, never after the final one.
type Policy struct {
	Interval       time.Duration
	MaxAttempts    int
	Deadline       time.Duration
	AttemptTimeout time.Duration
	Clock          Clock
}

// Attempts returns a policy of n attempts spaced by interval.
func Attempts(n int, interval time.Duration) Policy {
	return Policy{Interval: interval, MaxAttempts: n}
}

func (p Policy) clock() Clock {
	if p.Clock == nil {
		return RealClock{}
	}
	return p.Clock
}

// WithClock returns a copy of p using c.
func (p Policy) WithClock(c Clock) Policy {
	p.Clock = c
	return p
}

// Budget is the worst-case wall time of the policy's sleeps.
func (p Policy) Budget() time.Duration {
	if p.Deadline > 0 {
		return p.Deadline
	}
	if p.MaxAttempts <= 1 {
		return 0
	}
	return time.Duration(p.MaxAttempts-1) * p.Interval
}

// Condition is evaluated once per attempt (1-based). Returning true stops the
// loop successfully; a non-nil error stops it immediately with that error.
type Condition func(ctx context.Context, attempt int) (bool, error)

// Poll evaluates fn until it reports true, returns an error, the attempts or
// deadline run out, or ctx is cancelled. It returns the number of attempts made.
func Poll(ctx context.Context, p Policy, fn Condition) (int, error) {
	if p.MaxAttempts <= 0 && p.Deadline <= 0 {
		p.MaxAttempts = 1
	}
	clk := p.clock()
	start := clk.Now()
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return attempt - 1, err
		}
		actx, cancel := ctx, context.CancelFunc(func() {})
		if p.AttemptTimeout > 0 {
			actx, cancel = context.WithTimeout(ctx, p.AttemptTimeout)
		}
		ok, err := fn(actx, attempt)
		cancel()
		if err != nil {
			return attempt, err
		}
		if ok {
			return attempt, nil
		}
		if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
			return attempt, fmt.Errorf("%w after %d attempts", ErrExhausted, attempt)
		}
		if p.Deadline > 0 && clk.Now().Sub(start)+p.Interval > p.Deadline {
			return attempt, fmt.Errorf("%w after %s", ErrDeadline, p.Deadline)
		}
		if p.Interval > 0 {
			select {
			case <-ctx.Done():
				return attempt, ctx.Err()
			case <-clk.After(p.Interval):
			}
		}
	}
}

// Sleep waits for d on clk or until ctx is done.
func Sleep(ctx context.Context, clk Clock, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	if clk == nil {
		clk = RealClock{}
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-clk.After(d):
		return nil
	}
}
