// Package edge provides a TTS provider backed by Microsoft Edge's online
// neural voices via github.com/wujunwei928/edge-tts-go. It is the
// platform-generic middle entry of the synthesis chain: no local model is
// needed, only network reachability.
//
// Edge TTS returns MP3 audio; this package decodes it with
// github.com/hajimehoshi/go-mp3 and re-wraps the PCM in the WAV container
// the rest of the system speaks.
package edge

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	mp3 "github.com/hajimehoshi/go-mp3"
	"github.com/wujunwei928/edge-tts-go/edge_tts"

	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/pkg/audio"
	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/pkg/provider/tts"
)

// DefaultVoice is the voice used when none is configured.
const DefaultVoice = "en-GB-SoniaNeural"

// Compile-time interface assertion.
var _ tts.Provider = (*Provider)(nil)

// Provider implements tts.Provider using Edge's online TTS service.
type Provider struct {
	voice string
}

// New creates an Edge TTS Provider. An empty voice selects DefaultVoice.
func New(voice string) *Provider {
	if voice == "" {
		voice = DefaultVoice
	}
	return &Provider{voice: voice}
}

// Synthesize implements tts.Provider: synthesize MP3 via the Edge service,
// decode to PCM, wrap as WAV.
func (p *Provider) Synthesize(ctx context.Context, text string) (*tts.Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("edge tts: empty text")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	communicate, err := edge_tts.NewCommunicate(text, edge_tts.SetVoice(p.voice))
	if err != nil {
		return nil, fmt.Errorf("edge tts: create communicator: %w", err)
	}

	mp3Data, err := communicate.Stream()
	if err != nil {
		return nil, fmt.Errorf("edge tts: synthesis failed: %w", err)
	}

	pcm, sampleRate, err := decodeMP3(mp3Data)
	if err != nil {
		return nil, fmt.Errorf("edge tts: %w", err)
	}

	// go-mp3 always emits 16-bit stereo.
	wav, err := audio.EncodeWAV(pcm, sampleRate, 2)
	if err != nil {
		return nil, fmt.Errorf("edge tts: wrap wav: %w", err)
	}

	return &tts.Result{
		WAV:        wav,
		SampleRate: sampleRate,
		Channels:   2,
	}, nil
}

// Name implements tts.Provider.
func (p *Provider) Name() string { return "edge" }

// Healthy implements tts.Provider. The Edge service has no liveness
// endpoint short of synthesizing, so the probe only reports a cancelled
// context; real failures surface through the chain's failure accounting.
func (p *Provider) Healthy(ctx context.Context) error {
	return ctx.Err()
}

// decodeMP3 decodes MP3 data to raw little-endian int16 stereo PCM.
func decodeMP3(data []byte) ([]byte, int, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("decode mp3: %w", err)
	}
	pcm, err := io.ReadAll(dec)
	if err != nil {
		return nil, 0, fmt.Errorf("read decoded pcm: %w", err)
	}
	if len(pcm) == 0 {
		return nil, 0, fmt.Errorf("decoded mp3 is empty")
	}
	return pcm, dec.SampleRate(), nil
}
