package robot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeLink records every command byte and can fail a chosen write.
type fakeLink struct {
	mu        sync.Mutex
	writes    []byte
	failAt    int // 1-based write index that errors, 0 = never
	failErr   error
	callCount int
}

func (l *fakeLink) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.callCount++
	if l.failAt > 0 && l.callCount == l.failAt {
		return 0, l.failErr
	}
	l.writes = append(l.writes, p...)
	return len(p), nil
}

func (l *fakeLink) Close() error { return nil }

func (l *fakeLink) recorded() []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]byte, len(l.writes))
	copy(out, l.writes)
	return out
}

func runJaw(t *testing.T, link *fakeLink, cancelAfter time.Duration) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), cancelAfter)
	defer cancel()

	c := NewJawController(link, WithJawInterval(5*time.Millisecond))
	err := c.Run(ctx)

	if got := c.State(); got != JawIdle {
		t.Fatalf("state after Run = %v, want idle", got)
	}
	return err
}

func TestJaw_CancelDuringOpenWait(t *testing.T) {
	link := &fakeLink{}

	// One interval is 5ms; 7ms lands inside the second wait at the latest.
	if err := runJaw(t, link, 7*time.Millisecond); err != nil {
		t.Fatalf("Run: %v", err)
	}

	writes := link.recorded()
	if len(writes) < 2 {
		t.Fatalf("writes = %q, want at least open and neutral", writes)
	}
	if writes[0] != 'O' {
		t.Errorf("first command = %q, want 'O'", writes[0])
	}
	if writes[len(writes)-1] != 's' {
		t.Errorf("last command = %q, want neutral 's'", writes[len(writes)-1])
	}
}

func TestJaw_AlternatesOpenClose(t *testing.T) {
	link := &fakeLink{}

	if err := runJaw(t, link, 40*time.Millisecond); err != nil {
		t.Fatalf("Run: %v", err)
	}

	writes := link.recorded()
	if writes[len(writes)-1] != 's' {
		t.Fatalf("last command = %q, want 's'", writes[len(writes)-1])
	}
	cycle := writes[:len(writes)-1]
	if len(cycle) < 4 {
		t.Fatalf("only %d cycle commands in 40ms at 5ms interval", len(cycle))
	}
	for i, cmd := range cycle {
		want := byte('O')
		if i%2 == 1 {
			want = 'c'
		}
		if cmd != want {
			t.Fatalf("command %d = %q, want %q (sequence %q)", i, cmd, want, cycle)
		}
	}
}

func TestJaw_PreCancelledContext(t *testing.T) {
	link := &fakeLink{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewJawController(link, WithJawInterval(5*time.Millisecond))
	if err := c.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := c.State(); got != JawIdle {
		t.Fatalf("state = %v, want idle", got)
	}

	writes := link.recorded()
	if len(writes) != 1 || writes[0] != 's' {
		t.Fatalf("writes = %q, want just neutral", writes)
	}
}

func TestJaw_WriteErrorStillNeutral(t *testing.T) {
	for _, failAt := range []int{1, 2} { // open command, close command
		link := &fakeLink{failAt: failAt, failErr: errors.New("port gone")}

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		c := NewJawController(link, WithJawInterval(time.Millisecond))
		err := c.Run(ctx)
		cancel()

		if err == nil {
			t.Fatalf("failAt=%d: Run returned nil, want write error", failAt)
		}
		if got := c.State(); got != JawIdle {
			t.Fatalf("failAt=%d: state = %v, want idle", failAt, got)
		}
		writes := link.recorded()
		if len(writes) == 0 || writes[len(writes)-1] != 's' {
			t.Fatalf("failAt=%d: writes = %q, want trailing neutral", failAt, writes)
		}
	}
}

func TestJaw_NeutralWriteFailureReturnsIdle(t *testing.T) {
	// With the context already cancelled no cycle command is written, so the
	// first write is the neutral on the exit path.
	link := &fakeLink{failAt: 1, failErr: errors.New("port gone")}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewJawController(link, WithJawInterval(5*time.Millisecond))
	if err := c.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := c.State(); got != JawIdle {
		t.Fatalf("state = %v, want idle even when neutral write fails", got)
	}
}

func TestJaw_StateDuringCycle(t *testing.T) {
	link := &fakeLink{}
	ctx, cancel := context.WithCancel(context.Background())

	c := NewJawController(link, WithJawInterval(10*time.Millisecond))
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = c.Run(ctx)
	}()

	deadline := time.After(time.Second)
	for c.State() != JawCycling {
		select {
		case <-deadline:
			t.Fatal("controller never entered cycling state")
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	<-done
	if got := c.State(); got != JawIdle {
		t.Fatalf("state = %v, want idle", got)
	}
}
