package audio

import "testing"

func TestStereoToMono(t *testing.T) {
	// Two stereo frames: (100, 200) and (-100, -200).
	in := pcmBytes(100, 200, -100, -200)
	out := StereoToMono(in)
	if len(out) != 4 {
		t.Fatalf("output length = %d, want 4", len(out))
	}
	s0 := int16(out[0]) | int16(out[1])<<8
	s1 := int16(out[2]) | int16(out[3])<<8
	if s0 != 150 {
		t.Fatalf("sample 0 = %d, want 150", s0)
	}
	if s1 != -150 {
		t.Fatalf("sample 1 = %d, want -150", s1)
	}
}

func TestMonoToStereo(t *testing.T) {
	in := pcmBytes(42)
	out := MonoToStereo(in)
	if len(out) != 4 {
		t.Fatalf("output length = %d, want 4", len(out))
	}
	l := int16(out[0]) | int16(out[1])<<8
	r := int16(out[2]) | int16(out[3])<<8
	if l != 42 || r != 42 {
		t.Fatalf("L/R = %d/%d, want 42/42", l, r)
	}
}

func TestResampleMono16_Identity(t *testing.T) {
	in := pcmBytes(1, 2, 3, 4)
	out := ResampleMono16(in, 16000, 16000)
	if &out[0] != &in[0] {
		t.Fatal("same-rate resample should return input unchanged")
	}
}

func TestResampleMono16_Downsample(t *testing.T) {
	in := make([]byte, 16000*2)
	out := ResampleMono16(in, 16000, 8000)
	if len(out) != 8000*2 {
		t.Fatalf("output = %d bytes, want %d", len(out), 8000*2)
	}
}

func TestResampleMono16_Upsample(t *testing.T) {
	in := pcmBytes(0, 100)
	out := ResampleMono16(in, 8000, 16000)
	if len(out) != 8 {
		t.Fatalf("output = %d bytes, want 8", len(out))
	}
	// Interpolated midpoint between 0 and 100 should land strictly between.
	mid := int16(out[2]) | int16(out[3])<<8
	if mid <= 0 || mid >= 100 {
		t.Fatalf("interpolated sample = %d, want within (0, 100)", mid)
	}
}
