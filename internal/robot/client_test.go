package robot

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClient_Ask(t *testing.T) {
	wav := []byte("RIFFfake")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/process_audio" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"transcription":"what is dharma","response":"Dharma is duty.","formatted_response":"=== AI Response ===","response_raw":"Dharma is duty. [id=3]","audio":%q}`,
			hex.EncodeToString(wav))
	}))
	defer srv.Close()

	answer, err := NewClient(srv.URL).Ask(context.Background(), []byte{0, 1})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if answer.Transcription != "what is dharma" {
		t.Errorf("transcription = %q", answer.Transcription)
	}
	if answer.Response != "Dharma is duty." {
		t.Errorf("response = %q", answer.Response)
	}
	if string(answer.Audio) != "RIFFfake" {
		t.Errorf("audio = %q", answer.Audio)
	}
}

func TestClient_AskNullAudio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"transcription":"q","response":"a","audio":null}`)
	}))
	defer srv.Close()

	answer, err := NewClient(srv.URL).Ask(context.Background(), []byte{0, 1})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if answer.Audio != nil {
		t.Fatalf("audio = %v, want nil", answer.Audio)
	}
}

func TestClient_AskServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":"transcription_failed"}`)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Ask(context.Background(), []byte{0, 1})
	if err == nil {
		t.Fatal("Ask returned nil error on 500")
	}
	if !strings.Contains(err.Error(), "transcription_failed") {
		t.Fatalf("err = %v, want server reason included", err)
	}
}

func TestClient_Greet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/greet" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"message":"Om Namah Shivaya","audio":null}`)
	}))
	defer srv.Close()

	answer, err := NewClient(srv.URL).Greet(context.Background())
	if err != nil {
		t.Fatalf("Greet: %v", err)
	}
	if answer.Response != "Om Namah Shivaya" {
		t.Fatalf("response = %q", answer.Response)
	}
}

func TestClient_Healthy(t *testing.T) {
	ready := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if !ready {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, `{"status":"loading","models_loaded":false}`)
			return
		}
		fmt.Fprint(w, `{"status":"healthy","models_loaded":true}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if ok, err := c.Healthy(context.Background()); err != nil || ok {
		t.Fatalf("Healthy before ready = (%v, %v), want (false, nil)", ok, err)
	}
	ready = true
	if ok, err := c.Healthy(context.Background()); err != nil || !ok {
		t.Fatalf("Healthy after ready = (%v, %v), want (true, nil)", ok, err)
	}
}

// stubBackend lets the fallback order be observed without real audio devices.
type stubBackend struct {
	name  string
	err   error
	calls int
}

func (s *stubBackend) Name() string { return s.name }

func (s *stubBackend) Play(context.Context, []byte) error {
	s.calls++
	return s.err
}

func TestPlayback_FallsThroughBackends(t *testing.T) {
	broken := &stubBackend{name: "broken", err: errors.New("device busy")}
	working := &stubBackend{name: "working"}
	p := &Playback{backends: []PlaybackBackend{broken, working}}

	if err := p.Play(context.Background(), []byte("RIFF")); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if broken.calls != 1 || working.calls != 1 {
		t.Fatalf("calls = (%d, %d), want (1, 1)", broken.calls, working.calls)
	}
}

func TestPlayback_AllBackendsFail(t *testing.T) {
	a := &stubBackend{name: "a", err: errors.New("no device")}
	b := &stubBackend{name: "b", err: errors.New("no binary")}
	p := &Playback{backends: []PlaybackBackend{a, b}}

	err := p.Play(context.Background(), []byte("RIFF"))
	if err == nil {
		t.Fatal("Play returned nil with every backend failing")
	}
	if !strings.Contains(err.Error(), "no device") || !strings.Contains(err.Error(), "no binary") {
		t.Fatalf("err = %v, want both backend reasons", err)
	}
}

func TestPlayback_CancelledContextStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := &stubBackend{name: "a", err: errors.New("interrupted")}
	b := &stubBackend{name: "b"}
	p := &Playback{backends: []PlaybackBackend{a, b}}

	if err := p.Play(ctx, []byte("RIFF")); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if b.calls != 0 {
		t.Fatal("next backend tried after cancellation")
	}
}
