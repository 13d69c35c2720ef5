package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errTest = errors.New("test failure")

func okProbe(context.Context) error   { return nil }
func downProbe(context.Context) error { return errors.New("backend down") }

func TestRun_FirstHealthyWins(t *testing.T) {
	c := NewChain(ChainConfig{},
		Entry[string]{Name: "primary", Value: "primary", Probe: okProbe},
		Entry[string]{Name: "secondary", Value: "secondary", Probe: okProbe},
	)

	got, name, err := Run(context.Background(), c, func(_ context.Context, v string) (string, error) {
		return v, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "primary" || name != "primary" {
		t.Fatalf("got (%q, %q), want primary", got, name)
	}
}

func TestRun_ProbeFalseSkipsWithoutInvoking(t *testing.T) {
	invoked := map[string]int{}
	c := NewChain(ChainConfig{},
		Entry[string]{Name: "primary", Value: "primary", Probe: downProbe},
		Entry[string]{Name: "secondary", Value: "secondary", Probe: okProbe},
	)

	got, name, err := Run(context.Background(), c, func(_ context.Context, v string) (string, error) {
		invoked[v]++
		return v, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "secondary" || name != "secondary" {
		t.Fatalf("got (%q, %q), want secondary", got, name)
	}
	if invoked["primary"] != 0 {
		t.Fatal("primary was invoked despite a failing probe")
	}
}

func TestRun_FailureMovesToNext(t *testing.T) {
	c := NewChain(ChainConfig{},
		Entry[string]{Name: "primary", Value: "primary"},
		Entry[string]{Name: "secondary", Value: "secondary"},
	)

	invocations := 0
	got, name, err := Run(context.Background(), c, func(_ context.Context, v string) (string, error) {
		invocations++
		if v == "primary" {
			return "", errTest
		}
		return v, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "secondary" || name != "secondary" {
		t.Fatalf("got (%q, %q), want secondary", got, name)
	}
	if invocations != 2 {
		t.Fatalf("invocations = %d, want 2 (no retry of the same provider)", invocations)
	}
}

func TestRun_ExhaustedCarriesReasons(t *testing.T) {
	c := NewChain(ChainConfig{},
		Entry[string]{Name: "a", Value: "a", Probe: downProbe},
		Entry[string]{Name: "b", Value: "b"},
	)

	_, _, err := Run(context.Background(), c, func(_ context.Context, v string) (string, error) {
		return "", errTest
	})
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("err = %v, want ErrExhausted", err)
	}

	var ex *ExhaustedError
	if !errors.As(err, &ex) {
		t.Fatalf("err type = %T, want *ExhaustedError", err)
	}
	if len(ex.Failures) != 2 {
		t.Fatalf("failures = %d, want 2", len(ex.Failures))
	}
	if !ex.Failures[0].Skipped || ex.Failures[0].Provider != "a" {
		t.Fatalf("failure[0] = %+v, want skipped entry a", ex.Failures[0])
	}
	if ex.Failures[1].Skipped || ex.Failures[1].Reason != errTest.Error() {
		t.Fatalf("failure[1] = %+v, want invoke failure of b", ex.Failures[1])
	}
}

func TestRun_OpenBreakerSkipsProvider(t *testing.T) {
	c := NewChain(ChainConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 2, ResetTimeout: time.Hour},
	},
		Entry[string]{Name: "primary", Value: "primary"},
		Entry[string]{Name: "secondary", Value: "secondary"},
	)

	// Fail the primary enough to open its breaker.
	for range 2 {
		_, _, _ = Run(context.Background(), c, func(_ context.Context, v string) (string, error) {
			if v == "primary" {
				return "", errTest
			}
			return v, nil
		})
	}

	invoked := map[string]int{}
	_, name, err := Run(context.Background(), c, func(_ context.Context, v string) (string, error) {
		invoked[v]++
		return v, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "secondary" {
		t.Fatalf("winner = %q, want secondary (primary circuit open)", name)
	}
	if invoked["primary"] != 0 {
		t.Fatal("primary invoked despite open circuit")
	}
}

func TestRun_EmptyChainExhausts(t *testing.T) {
	c := NewChain[string](ChainConfig{})
	_, _, err := Run(context.Background(), c, func(_ context.Context, v string) (string, error) {
		return v, nil
	})
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("err = %v, want ErrExhausted", err)
	}
}
