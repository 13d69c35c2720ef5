// Package audio provides the normalized audio frame used by the question
// pipeline plus PCM and WAV helpers shared by the server and the robot client.
//
// Ingestion is the single conversion boundary: raw little-endian int16 PCM
// bytes arriving over the wire are decoded exactly once by [DecodePCM16] into
// a mono float32 [Frame] with samples in [-1, 1]. Every stage after ingestion
// operates on that normalized form.
package audio

import (
	"errors"
	"fmt"
	"math"
)

// Errors returned by [DecodePCM16]. Both indicate a client fault (malformed
// request body), not a server condition.
var (
	ErrEmptyAudio     = errors.New("audio: empty PCM data")
	ErrMisalignedData = errors.New("audio: PCM byte count is not a multiple of the sample size")
)

// Frame is a normalized audio buffer: mono float32 samples in [-1, 1] at a
// known sample rate. Frames are immutable by convention — stages read them,
// never modify them.
type Frame struct {
	// Samples holds normalized mono samples in [-1, 1].
	Samples []float32

	// SampleRate in Hz. The pipeline standard is 16000.
	SampleRate int

	// Channels is always 1 after ingestion; kept explicit so downstream
	// consumers never have to assume.
	Channels int
}

// Duration returns the frame length in seconds.
func (f Frame) Duration() float64 {
	if f.SampleRate <= 0 {
		return 0
	}
	return float64(len(f.Samples)) / float64(f.SampleRate)
}

// DecodePCM16 decodes raw little-endian signed 16-bit PCM into a normalized
// [Frame]. If channels > 1 the input is treated as interleaved and only
// channel 0 is kept, matching how the server has always downmixed incoming
// audio. The returned frame has exactly one sample per input frame-slot.
//
// Returns [ErrEmptyAudio] for an empty buffer and [ErrMisalignedData] when
// the byte count does not divide evenly into int16 samples.
func DecodePCM16(data []byte, sampleRate, channels int) (Frame, error) {
	if len(data) == 0 {
		return Frame{}, ErrEmptyAudio
	}
	if len(data)%2 != 0 {
		return Frame{}, ErrMisalignedData
	}
	if sampleRate <= 0 {
		return Frame{}, fmt.Errorf("audio: invalid sample rate %d", sampleRate)
	}
	if channels <= 0 {
		channels = 1
	}

	totalSamples := len(data) / 2
	step := channels
	samples := make([]float32, 0, totalSamples/step)
	for i := 0; i+1 < len(data); i += 2 * step {
		s := int16(data[i]) | int16(data[i+1])<<8
		samples = append(samples, float32(s)/32768.0)
	}

	return Frame{
		Samples:    samples,
		SampleRate: sampleRate,
		Channels:   1,
	}, nil
}

// EncodePCM16 converts a normalized frame back to raw little-endian int16
// PCM bytes, clamping out-of-range samples. It is the inverse of
// [DecodePCM16] for mono input (modulo int16 quantization).
func EncodePCM16(frame Frame) []byte {
	out := make([]byte, len(frame.Samples)*2)
	for i, s := range frame.Samples {
		if s > 1.0 {
			s = 1.0
		} else if s < -1.0 {
			s = -1.0
		}
		v := int16(s * 32767)
		out[i*2] = byte(v)
		out[i*2+1] = byte(v >> 8)
	}
	return out
}

// RMS returns the root-mean-square energy of the frame, useful for detecting
// near-silent recordings before wasting a transcription round trip.
func (f Frame) RMS() float64 {
	if len(f.Samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range f.Samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(f.Samples)))
}
