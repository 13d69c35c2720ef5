package robot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/pkg/audio"
)

// PlaybackBackend plays one complete WAV clip, blocking until the audio has
// fully drained or ctx is cancelled.
type PlaybackBackend interface {
	Name() string
	Play(ctx context.Context, wav []byte) error
}

// Playback tries an ordered list of backends per clip: the in-process oto
// device first, then whichever system players were found on PATH at
// construction time. The first backend to succeed wins.
type Playback struct {
	backends []PlaybackBackend
}

// systemPlayers are probed on PATH in order. Each receives the WAV path as
// its final argument.
var systemPlayers = [][]string{
	{"aplay"},
	{"paplay"},
	{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"},
}

// NewPlayback builds the backend list. A non-empty preferred name keeps only
// that backend ("oto", "aplay", "paplay", "ffplay"); otherwise all available
// backends are kept in default order.
func NewPlayback(preferred string) (*Playback, error) {
	var backends []PlaybackBackend

	if preferred == "" || preferred == "oto" {
		backends = append(backends, &otoBackend{})
	}
	for _, argv := range systemPlayers {
		if preferred != "" && preferred != argv[0] {
			continue
		}
		if _, err := exec.LookPath(argv[0]); err != nil {
			continue
		}
		backends = append(backends, &execBackend{argv: argv})
	}

	if len(backends) == 0 {
		return nil, fmt.Errorf("robot: no playback backend available (preferred %q)", preferred)
	}
	return &Playback{backends: backends}, nil
}

// Backends returns the names of the configured backends in try order.
func (p *Playback) Backends() []string {
	names := make([]string, len(p.backends))
	for i, b := range p.backends {
		names[i] = b.Name()
	}
	return names
}

// Play renders wav through the first backend that succeeds. It blocks until
// playback completes; cancellation of ctx stops the active backend.
func (p *Playback) Play(ctx context.Context, wav []byte) error {
	var errs []error
	for _, b := range p.backends {
		err := b.Play(ctx, wav)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		slog.Warn("playback backend failed", "backend", b.Name(), "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", b.Name(), err))
	}
	return fmt.Errorf("robot: all playback backends failed: %w", errors.Join(errs...))
}

// otoBackend plays through the process-wide oto audio device. The device is
// opened on first use with the format of the first clip; later clips are
// converted to that format, since oto allows only one context per process.
type otoBackend struct {
	ctx        *oto.Context
	sampleRate int
	channels   int
}

func (b *otoBackend) Name() string { return "oto" }

func (b *otoBackend) Play(ctx context.Context, wav []byte) error {
	pcm, info, err := audio.DecodeWAV(wav)
	if err != nil {
		return err
	}

	if b.ctx == nil {
		otoCtx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   info.SampleRate,
			ChannelCount: info.Channels,
			Format:       oto.FormatSignedInt16LE,
		})
		if err != nil {
			return fmt.Errorf("open audio device: %w", err)
		}
		select {
		case <-ready:
		case <-ctx.Done():
			return ctx.Err()
		}
		b.ctx = otoCtx
		b.sampleRate = info.SampleRate
		b.channels = info.Channels
	}

	pcm = b.convert(pcm, info)

	player := b.ctx.NewPlayer(bytes.NewReader(pcm))
	defer player.Close()
	player.Play()

	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
	return nil
}

// convert adapts a clip to the device format chosen at first play.
func (b *otoBackend) convert(pcm []byte, info audio.WAVInfo) []byte {
	if info.Channels == 2 && b.channels == 1 {
		pcm = audio.StereoToMono(pcm)
		info.Channels = 1
	}
	if info.Channels == 1 && info.SampleRate != b.sampleRate {
		pcm = audio.ResampleMono16(pcm, info.SampleRate, b.sampleRate)
	}
	if info.Channels == 1 && b.channels == 2 {
		pcm = audio.MonoToStereo(pcm)
	}
	return pcm
}

// execBackend shells out to a system audio player with the clip written to a
// temp file.
type execBackend struct {
	argv []string
}

func (b *execBackend) Name() string { return b.argv[0] }

func (b *execBackend) Play(ctx context.Context, wav []byte) error {
	f, err := os.CreateTemp("", "robot-clip-*.wav")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(wav); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	args := append(append([]string(nil), b.argv[1:]...), f.Name())
	cmd := exec.CommandContext(ctx, b.argv[0], args...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", b.argv[0], err)
	}
	return nil
}
