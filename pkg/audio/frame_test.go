package audio

import (
	"errors"
	"testing"
)

func pcmBytes(samples ...int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		out[i*2] = byte(s)
		out[i*2+1] = byte(s >> 8)
	}
	return out
}

func TestDecodePCM16_Normalizes(t *testing.T) {
	in := pcmBytes(0, 16384, -16384, 32767, -32768)
	frame, err := DecodePCM16(in, 16000, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frame.Samples) != 5 {
		t.Fatalf("sample count = %d, want 5", len(frame.Samples))
	}
	if frame.Channels != 1 || frame.SampleRate != 16000 {
		t.Fatalf("format = %d ch %d Hz, want 1 ch 16000 Hz", frame.Channels, frame.SampleRate)
	}
	for i, s := range frame.Samples {
		if s < -1.0 || s > 1.0 {
			t.Fatalf("sample %d = %f out of [-1, 1]", i, s)
		}
	}
	if frame.Samples[0] != 0 {
		t.Fatalf("samples[0] = %f, want 0", frame.Samples[0])
	}
	if frame.Samples[1] != 0.5 {
		t.Fatalf("samples[1] = %f, want 0.5", frame.Samples[1])
	}
	if frame.Samples[4] != -1.0 {
		t.Fatalf("samples[4] = %f, want -1.0", frame.Samples[4])
	}
}

func TestDecodePCM16_StereoKeepsFirstChannel(t *testing.T) {
	// Interleaved L R L R: left = 100, 300; right = 200, 400.
	in := pcmBytes(100, 200, 300, 400)
	frame, err := DecodePCM16(in, 16000, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frame.Samples) != 2 {
		t.Fatalf("sample count = %d, want 2", len(frame.Samples))
	}
	if frame.Channels != 1 {
		t.Fatalf("channels = %d, want 1 after downmix", frame.Channels)
	}
	want0 := float32(100) / 32768.0
	if frame.Samples[0] != want0 {
		t.Fatalf("samples[0] = %f, want %f (left channel)", frame.Samples[0], want0)
	}
}

func TestDecodePCM16_Empty(t *testing.T) {
	_, err := DecodePCM16(nil, 16000, 1)
	if !errors.Is(err, ErrEmptyAudio) {
		t.Fatalf("err = %v, want ErrEmptyAudio", err)
	}
}

func TestDecodePCM16_OddByteCount(t *testing.T) {
	_, err := DecodePCM16([]byte{0x01, 0x02, 0x03}, 16000, 1)
	if !errors.Is(err, ErrMisalignedData) {
		t.Fatalf("err = %v, want ErrMisalignedData", err)
	}
}

func TestEncodePCM16_RoundTrip(t *testing.T) {
	in := pcmBytes(0, 1000, -1000, 12345, -12345)
	frame, err := DecodePCM16(in, 16000, 1)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	out := EncodePCM16(frame)
	if len(out) != len(in) {
		t.Fatalf("round-trip length = %d, want %d", len(out), len(in))
	}
	for i := range in {
		diff := int(in[i]) - int(out[i])
		if diff < -1 || diff > 1 {
			t.Fatalf("byte %d diverged: in=%d out=%d", i, in[i], out[i])
		}
	}
}

func TestFrameDuration(t *testing.T) {
	frame := Frame{Samples: make([]float32, 16000), SampleRate: 16000, Channels: 1}
	if d := frame.Duration(); d != 1.0 {
		t.Fatalf("duration = %f, want 1.0", d)
	}
}

func TestRMS_SilenceIsZero(t *testing.T) {
	frame := Frame{Samples: make([]float32, 100), SampleRate: 16000, Channels: 1}
	if rms := frame.RMS(); rms != 0 {
		t.Fatalf("rms = %f, want 0 for silence", rms)
	}
}
