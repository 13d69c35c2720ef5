// Package espeak provides the OS-native last entry of the synthesis chain:
// the espeak-ng command-line synthesizer writing a WAV file to stdout. The
// voice is robotic but the binary is installed on practically every Linux
// host, making it the backend of last resort when neither Piper nor the
// Edge service is reachable.
package espeak

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/pkg/audio"
	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/pkg/provider/tts"
)

// DefaultBinary is the synthesizer executable probed on PATH.
const DefaultBinary = "espeak-ng"

// Compile-time interface assertion.
var _ tts.Provider = (*Provider)(nil)

// Provider implements tts.Provider by shelling out to espeak-ng.
type Provider struct {
	binary string
	voice  string
	wpm    int
}

// Option is a functional option for Provider.
type Option func(*Provider)

// WithBinary overrides the executable name or path. Default: espeak-ng.
func WithBinary(bin string) Option {
	return func(p *Provider) {
		p.binary = bin
	}
}

// WithVoice sets the espeak voice (e.g. "en-gb").
func WithVoice(voice string) Option {
	return func(p *Provider) {
		p.voice = voice
	}
}

// WithWPM sets the speaking rate in words per minute. Default: 150, the
// rate the original deployment configured on its desktop engine.
func WithWPM(wpm int) Option {
	return func(p *Provider) {
		p.wpm = wpm
	}
}

// New creates an espeak-ng Provider.
func New(opts ...Option) *Provider {
	p := &Provider{binary: DefaultBinary, wpm: 150}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Synthesize implements tts.Provider: run espeak-ng with --stdout and
// capture the WAV it writes.
func (p *Provider) Synthesize(ctx context.Context, text string) (*tts.Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("espeak: empty text")
	}

	args := []string{"--stdout", "-s", strconv.Itoa(p.wpm)}
	if p.voice != "" {
		args = append(args, "-v", p.voice)
	}

	cmd := exec.CommandContext(ctx, p.binary, args...)
	cmd.Stdin = strings.NewReader(text)

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("espeak: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	wav := out.Bytes()
	_, info, err := audio.DecodeWAV(wav)
	if err != nil {
		return nil, fmt.Errorf("espeak: invalid WAV output: %w", err)
	}

	return &tts.Result{
		WAV:        wav,
		SampleRate: info.SampleRate,
		Channels:   info.Channels,
	}, nil
}

// Name implements tts.Provider.
func (p *Provider) Name() string { return "espeak" }

// Healthy implements tts.Provider by checking the binary exists on PATH.
func (p *Provider) Healthy(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := exec.LookPath(p.binary); err != nil {
		return fmt.Errorf("espeak: %w", err)
	}
	return nil
}
