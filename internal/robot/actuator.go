// Package robot contains the client-side controllers: audio capture and
// playback, the jaw actuator synchronizer, and the HTTP client talking to
// the question-answering server.
package robot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// Single-character jaw commands understood by the Arduino sketch.
const (
	cmdOpen    byte = 'O'
	cmdClose   byte = 'c'
	cmdNeutral byte = 's'
)

// DefaultJawInterval is the fixed open/close half-cycle duration. Mouth
// movement is only coarsely correlated with speech; timing is not derived
// from audio amplitude.
const DefaultJawInterval = 200 * time.Millisecond

// JawState is the controller's lifecycle state.
type JawState int

const (
	// JawIdle means no cycle is active and the neutral command was the last
	// one issued.
	JawIdle JawState = iota

	// JawCycling means Run is actively alternating open/close commands.
	JawCycling
)

// String implements fmt.Stringer.
func (s JawState) String() string {
	switch s {
	case JawIdle:
		return "idle"
	case JawCycling:
		return "cycling"
	default:
		return fmt.Sprintf("JawState(%d)", int(s))
	}
}

// JawController alternates open/close commands over the actuator link for
// the duration of audio playback. It owns the link exclusively while a cycle
// is active; no other component may write to it.
//
// Run guarantees that the neutral command is issued and the controller
// returns to [JawIdle] on every exit path, including write errors, so the
// jaw never remains open after audio ends.
type JawController struct {
	link     io.Writer
	interval time.Duration

	mu    sync.Mutex
	state JawState
}

// JawOption configures a [JawController].
type JawOption func(*JawController)

// WithJawInterval sets the open/close half-cycle duration.
// Default: [DefaultJawInterval].
func WithJawInterval(d time.Duration) JawOption {
	return func(c *JawController) {
		if d > 0 {
			c.interval = d
		}
	}
}

// NewJawController creates a controller writing to link. The link is not
// touched until Run is called.
func NewJawController(link io.Writer, opts ...JawOption) *JawController {
	c := &JawController{
		link:     link,
		interval: DefaultJawInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current lifecycle state.
func (c *JawController) State() JawState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *JawController) setState(s JawState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Run cycles the jaw until ctx is cancelled: open, wait one interval, close,
// wait one interval, repeat. Cancellation is cooperative and observed at
// each wait boundary, so the stop command lags the cancel by at most one
// interval.
//
// On return the neutral command has been written (best effort when the cycle
// itself failed) and the controller is [JawIdle]. A nil error means the
// cycle ran to cancellation; a non-nil error reports the write that broke
// the cycle.
func (c *JawController) Run(ctx context.Context) error {
	c.setState(JawCycling)
	defer func() {
		if _, err := c.link.Write([]byte{cmdNeutral}); err != nil {
			slog.Warn("jaw neutral command failed", "error", err)
		}
		c.setState(JawIdle)
	}()

	for {
		if err := c.writeCommand(ctx, cmdOpen); err != nil {
			return err
		}
		if err := c.wait(ctx); err != nil {
			return nil
		}
		if err := c.writeCommand(ctx, cmdClose); err != nil {
			return err
		}
		if err := c.wait(ctx); err != nil {
			return nil
		}
	}
}

// writeCommand sends one command byte unless ctx is already cancelled.
func (c *JawController) writeCommand(ctx context.Context, cmd byte) error {
	if err := ctx.Err(); err != nil {
		return nil
	}
	if _, err := c.link.Write([]byte{cmd}); err != nil {
		return fmt.Errorf("robot: jaw command %q: %w", cmd, err)
	}
	return nil
}

// wait blocks for one interval or until cancellation, whichever comes first.
// Returns ctx.Err() on cancellation.
func (c *JawController) wait(ctx context.Context) error {
	timer := time.NewTimer(c.interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
