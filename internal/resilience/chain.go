// Package resilience provides the provider fallback chain and the circuit
// breaker that guards its entries.
//
// The central type is [Chain], an ordered list of capability-probed provider
// entries. Both the generation stage and the synthesis stage run the same
// mechanism, so their fallback policies are identical in shape and differ
// only in provider type. [CircuitBreaker] is the classic three-state breaker
// (closed → open → half-open); each chain entry carries its own so a backend
// that keeps failing is skipped quickly instead of re-timing-out on every
// request.
//
// All types are safe for concurrent use.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrExhausted is wrapped by the error returned when every entry in a
// [Chain] is skipped or fails.
var ErrExhausted = errors.New("all providers exhausted")

// Entry is one provider in a [Chain]: a name for logs and failure reports,
// the provider value, and an optional capability probe.
type Entry[T any] struct {
	// Name identifies the provider in logs and exhaustion reports.
	Name string

	// Value is the provider itself.
	Value T

	// Probe reports whether the provider is currently usable. It is
	// re-evaluated on every Run, so a provider that was down can recover
	// without a restart. A nil Probe means always usable.
	Probe func(ctx context.Context) error
}

// Failure records why one entry did not produce a result during a Run.
type Failure struct {
	// Provider is the entry name.
	Provider string

	// Reason is the probe or invoke error message.
	Reason string

	// Skipped is true when the entry was never invoked (probe false or
	// circuit open) — a skip does not count as a provider failure.
	Skipped bool
}

// ExhaustedError is returned by [Run] when no entry produced a result. It
// carries the per-provider reasons in chain order.
type ExhaustedError struct {
	Failures []Failure
}

// Error implements error.
func (e *ExhaustedError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		verb := "failed"
		if f.Skipped {
			verb = "skipped"
		}
		parts[i] = fmt.Sprintf("%s %s: %s", f.Provider, verb, f.Reason)
	}
	return "all providers exhausted: " + strings.Join(parts, "; ")
}

// Unwrap lets errors.Is(err, ErrExhausted) match.
func (e *ExhaustedError) Unwrap() error { return ErrExhausted }

// ChainConfig configures the per-entry circuit breaker created for each
// provider in a [Chain]. The zero value uses breaker defaults.
type ChainConfig struct {
	CircuitBreaker CircuitBreakerConfig
}

// chainEntry pairs a configured entry with its dedicated breaker.
type chainEntry[T any] struct {
	Entry[T]
	breaker *CircuitBreaker
}

// Chain is an ordered list of interchangeable providers tried in priority
// order until one succeeds. A Chain never retries the same entry within one
// Run; retry-on-transient-error is the provider's own concern.
type Chain[T any] struct {
	entries []chainEntry[T]
	cfg     ChainConfig
}

// NewChain creates a [Chain] from entries in priority order.
func NewChain[T any](cfg ChainConfig, entries ...Entry[T]) *Chain[T] {
	c := &Chain[T]{cfg: cfg}
	for _, e := range entries {
		c.Add(e)
	}
	return c
}

// Add appends an entry after all existing ones.
func (c *Chain[T]) Add(e Entry[T]) {
	cbCfg := c.cfg.CircuitBreaker
	cbCfg.Name = e.Name
	c.entries = append(c.entries, chainEntry[T]{
		Entry:   e,
		breaker: NewCircuitBreaker(cbCfg),
	})
}

// Names returns the entry names in chain order.
func (c *Chain[T]) Names() []string {
	names := make([]string, len(c.entries))
	for i, e := range c.entries {
		names[i] = e.Name
	}
	return names
}

// Run tries fn against each entry in order and returns the first success
// together with the winning provider's name.
//
// For each entry: the capability probe is checked first — a false probe (or
// an open circuit breaker) skips the entry without counting it as a failure.
// Otherwise fn is invoked once; on success Run returns immediately, on
// failure the reason is recorded and the next entry is tried. When every
// entry is skipped or fails, Run returns an [*ExhaustedError] carrying the
// per-provider reasons.
//
// Run is a package-level function because Go does not support method-level
// type parameters.
func Run[T, R any](ctx context.Context, c *Chain[T], fn func(ctx context.Context, v T) (R, error)) (R, string, error) {
	var zero R
	failures := make([]Failure, 0, len(c.entries))

	for i := range c.entries {
		entry := &c.entries[i]

		if entry.Probe != nil {
			if err := entry.Probe(ctx); err != nil {
				slog.Debug("skipping provider (probe failed)",
					"provider", entry.Name, "reason", err)
				failures = append(failures, Failure{
					Provider: entry.Name,
					Reason:   "probe: " + err.Error(),
					Skipped:  true,
				})
				continue
			}
		}

		var result R
		err := entry.breaker.Execute(func() error {
			var innerErr error
			result, innerErr = fn(ctx, entry.Value)
			return innerErr
		})
		if err == nil {
			return result, entry.Name, nil
		}

		if errors.Is(err, ErrCircuitOpen) {
			slog.Debug("skipping provider (circuit open)", "provider", entry.Name)
			failures = append(failures, Failure{
				Provider: entry.Name,
				Reason:   "circuit open",
				Skipped:  true,
			})
			continue
		}

		slog.Warn("provider failed, trying next",
			"provider", entry.Name, "error", err)
		failures = append(failures, Failure{
			Provider: entry.Name,
			Reason:   err.Error(),
		})
	}

	return zero, "", &ExhaustedError{Failures: failures}
}
