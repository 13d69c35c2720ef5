package piper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/pkg/audio"
)

func TestSynthesize(t *testing.T) {
	wav, err := audio.EncodeWAV(make([]byte, 22050*2), 22050, 1)
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		var req synthesisRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Text != "om shanti" {
			t.Errorf("text = %q", req.Text)
		}
		if req.LengthScale != 1.4 {
			t.Errorf("length_scale = %f, want 1.4", req.LengthScale)
		}
		w.Header().Set("Content-Type", "audio/wav")
		w.Write(wav)
	}))
	defer srv.Close()

	p := New(srv.URL, WithLengthScale(1.4))
	res, err := p.Synthesize(context.Background(), "om shanti")
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if res.SampleRate != 22050 || res.Channels != 1 {
		t.Fatalf("format = %d Hz %d ch", res.SampleRate, res.Channels)
	}
	if len(res.WAV) != len(wav) {
		t.Fatalf("wav length = %d, want %d", len(res.WAV), len(wav))
	}
}

func TestSynthesize_EmptyText(t *testing.T) {
	p := New("http://localhost:1")
	if _, err := p.Synthesize(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty text")
	}
}

func TestSynthesize_BadWAV(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not a wav"))
	}))
	defer srv.Close()

	p := New(srv.URL)
	if _, err := p.Synthesize(context.Background(), "hello"); err == nil {
		t.Fatal("expected error for invalid WAV payload")
	}
}

func TestHealthy_Unreachable(t *testing.T) {
	p := New("http://localhost:1")
	if err := p.Healthy(context.Background()); err == nil {
		t.Fatal("expected error for unreachable server")
	}
}
