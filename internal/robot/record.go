package robot

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/pkg/audio"
)

// DefaultRecordSeconds is how long one question recording lasts.
const DefaultRecordSeconds = 5 * time.Second

// Recorder captures raw little-endian int16 PCM from the default capture
// device via arecord.
type Recorder struct {
	sampleRate int
	channels   int
	duration   time.Duration
	device     string
}

// RecorderOption configures a [Recorder].
type RecorderOption func(*Recorder)

// WithRecordDuration sets how long Record captures.
// Default: [DefaultRecordSeconds].
func WithRecordDuration(d time.Duration) RecorderOption {
	return func(r *Recorder) {
		if d > 0 {
			r.duration = d
		}
	}
}

// WithRecordDevice selects an ALSA capture device (arecord -D).
func WithRecordDevice(device string) RecorderOption {
	return func(r *Recorder) {
		r.device = device
	}
}

// NewRecorder creates a recorder producing PCM in the format the server
// ingests. Non-positive sample rate or channels fall back to 16 kHz mono.
func NewRecorder(sampleRate, channels int, opts ...RecorderOption) *Recorder {
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	if channels <= 0 {
		channels = 1
	}
	r := &Recorder{
		sampleRate: sampleRate,
		channels:   channels,
		duration:   DefaultRecordSeconds,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record captures one clip and returns the raw PCM bytes.
func (r *Recorder) Record(ctx context.Context) ([]byte, error) {
	args := []string{
		"-q",
		"-f", "S16_LE",
		"-r", strconv.Itoa(r.sampleRate),
		"-c", strconv.Itoa(r.channels),
		"-d", strconv.Itoa(int(r.duration.Round(time.Second) / time.Second)),
		"-t", "raw",
	}
	if r.device != "" {
		args = append(args, "-D", r.device)
	}

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, "arecord", args...)
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("robot: arecord: %w", err)
	}
	if out.Len() == 0 {
		return nil, fmt.Errorf("robot: arecord produced no audio")
	}
	return out.Bytes(), nil
}

// ReadClip loads PCM from a file instead of the microphone. WAV files are
// unwrapped to their PCM payload; any other extension is treated as raw
// little-endian int16 PCM.
func ReadClip(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("robot: read clip: %w", err)
	}
	if strings.HasSuffix(strings.ToLower(path), ".wav") {
		pcm, _, err := audio.DecodeWAV(data)
		if err != nil {
			return nil, fmt.Errorf("robot: %s: %w", path, err)
		}
		return pcm, nil
	}
	return data, nil
}
