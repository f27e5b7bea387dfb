package resilience

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
)

// ErrChainExhausted is returned when every strategy in a chain failed or
// was skipped.
var ErrChainExhausted = eris.New("resilience: all strategies failed")

// Strategy is one step of an ordered fallback chain.
type Strategy[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, error)
	// Breaker is optional. An open breaker skips the strategy without
	// calling Run.
	Breaker *CircuitBreaker
}

// Attempt records what happened to one strategy during Chain.Run.
type Attempt struct {
	Name     string
	Err      error
	Skipped  bool
	Duration time.Duration
}

// Chain tries strategies in order, each under the same per-attempt timeout,
// and stops at the first success.
type Chain[T any] struct {
	strategies []Strategy[T]
	timeout    time.Duration
}

// NewChain builds a chain. A zero timeout leaves attempts bounded only by
// the caller's context.
func NewChain[T any](timeout time.Duration, strategies ...Strategy[T]) *Chain[T] {
	return &Chain[T]{strategies: strategies, timeout: timeout}
}

// Len returns the number of strategies.
func (c *Chain[T]) Len() int {
	return len(c.strategies)
}

// Run executes the chain. Attempts lists every strategy that was reached, in
// order, including the winning one with a nil Err. The returned error wraps
// ErrChainExhausted when nothing succeeded.
func (c *Chain[T]) Run(ctx context.Context) (T, []Attempt, error) {
	var zero T
	attempts := make([]Attempt, 0, len(c.strategies))

	for _, s := range c.strategies {
		if err := ctx.Err(); err != nil {
			return zero, attempts, eris.Wrap(err, "resilience: chain cancelled")
		}

		if s.Breaker != nil && !s.Breaker.Allow() {
			attempts = append(attempts, Attempt{Name: s.Name, Err: ErrCircuitOpen, Skipped: true})
			continue
		}

		start := time.Now()
		val, err := c.runOne(ctx, s)
		attempts = append(attempts, Attempt{Name: s.Name, Err: err, Duration: time.Since(start)})

		if s.Breaker != nil && ctx.Err() == nil {
			s.Breaker.Record(err)
		}
		if err == nil {
			return val, attempts, nil
		}
	}

	if len(attempts) > 0 {
		if last := attempts[len(attempts)-1].Err; last != nil {
			return zero, attempts, eris.Wrapf(ErrChainExhausted, "last error: %v", last)
		}
	}
	return zero, attempts, ErrChainExhausted
}

func (c *Chain[T]) runOne(ctx context.Context, s Strategy[T]) (T, error) {
	if c.timeout <= 0 {
		return s.Run(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return s.Run(attemptCtx)
}
