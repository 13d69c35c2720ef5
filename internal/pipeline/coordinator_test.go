package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/internal/corpus"
	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/internal/index"
	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/internal/resilience"
	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/internal/transcript"
	asrmock "github.com/Raghuram-sekar/Amrita-Humanoid-Robot/pkg/provider/asr/mock"
	embmock "github.com/Raghuram-sekar/Amrita-Humanoid-Robot/pkg/provider/embeddings/mock"
	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/pkg/provider/llm"
	llmmock "github.com/Raghuram-sekar/Amrita-Humanoid-Robot/pkg/provider/llm/mock"
	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/pkg/provider/tts"
	ttsmock "github.com/Raghuram-sekar/Amrita-Humanoid-Robot/pkg/provider/tts/mock"
)

// dutyVec marks the "duty" verse; questions about duty embed near it.
func embedFn(text string) []float32 {
	if strings.Contains(strings.ToLower(text), "duty") {
		return []float32{1, 0, 0}
	}
	return []float32{0, 1, 0}
}

func testIndex(t *testing.T) *index.Flat {
	t.Helper()
	idx, err := index.Build([]corpus.Entry{
		{ID: 0, Chapter: 2, Verse: "47", Translation: "You have the right to perform your duty, not the fruits.", Embedding: []float32{1, 0, 0}},
		{ID: 1, Chapter: 2, Verse: "20", Translation: "For the soul there is neither birth nor death.", Embedding: []float32{0, 1, 0}},
	}, "test-model")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return idx
}

type fixture struct {
	coordinator *Coordinator
	asr         *asrmock.Provider
	llm         *llmmock.Provider
	tts         *ttsmock.Provider
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		asr: &asrmock.Provider{Text: "what is my duty"},
		llm: &llmmock.Provider{ID: "primary", Response: "Do your duty without attachment [id=0]."},
		tts: &ttsmock.Provider{ID: "voice", Result: &tts.Result{WAV: []byte("RIFFfake"), SampleRate: 22050, Channels: 1}},
	}

	genChain := resilience.NewChain(resilience.ChainConfig{},
		resilience.Entry[llm.Provider]{Name: "primary", Value: f.llm})
	ttsChain := resilience.NewChain(resilience.ChainConfig{},
		resilience.Entry[tts.Provider]{Name: "voice", Value: f.tts})

	f.coordinator = NewCoordinator(CoordinatorConfig{
		Transcription: &TranscriptionStage{ASR: f.asr, Corrector: transcript.NewCorrector(nil, nil)},
		Retrieval:     &RetrievalStage{Embedder: &embmock.Provider{Dims: 3, Fn: embedFn}, Searcher: testIndex(t), TopK: 2},
		Generation:    &GenerationStage{Chain: genChain},
		Synthesis:     &SynthesisStage{Chain: ttsChain},
	})
	return f
}

// validPCM returns a small non-empty int16 buffer.
func validPCM() []byte {
	return []byte{0x00, 0x10, 0x00, 0xF0, 0x34, 0x12, 0xCC, 0xED}
}

func TestProcess_NotReady(t *testing.T) {
	f := newFixture(t)
	_, err := f.coordinator.Process(context.Background(), validPCM())
	if !errors.Is(err, ErrNotReady) {
		t.Fatalf("err = %v, want ErrNotReady", err)
	}
	if f.asr.Calls() != 0 {
		t.Fatal("transcription ran while not ready")
	}
}

func TestProcess_EmptyAudio(t *testing.T) {
	f := newFixture(t)
	f.coordinator.SetReady()

	_, err := f.coordinator.Process(context.Background(), nil)
	var ie *IngestionError
	if !errors.As(err, &ie) {
		t.Fatalf("err = %v, want *IngestionError", err)
	}
	if f.asr.Calls() != 0 {
		t.Fatal("transcription ran on empty audio")
	}
}

func TestProcess_HappyPath(t *testing.T) {
	f := newFixture(t)
	f.coordinator.SetReady()

	resp, err := f.coordinator.Process(context.Background(), validPCM())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if resp.Transcription != "what is my duty" {
		t.Errorf("transcription = %q", resp.Transcription)
	}
	if strings.Contains(resp.Response, "id=") {
		t.Errorf("cleaned response still carries citations: %q", resp.Response)
	}
	if !strings.Contains(resp.ResponseRaw, "[id=0]") {
		t.Errorf("raw response lost citations: %q", resp.ResponseRaw)
	}
	// The duty verse must be the top source in the formatted view.
	if !strings.Contains(resp.FormattedResponse, "(id=0, score=") {
		t.Errorf("formatted response missing top verse: %q", resp.FormattedResponse)
	}
	if first := strings.Index(resp.FormattedResponse, "(id=0"); first > strings.Index(resp.FormattedResponse, "(id=1") {
		t.Errorf("duty verse not ranked first:\n%s", resp.FormattedResponse)
	}
	if string(resp.Audio) != "RIFFfake" {
		t.Errorf("audio = %q", resp.Audio)
	}
	if resp.Farewell {
		t.Error("farewell set on a normal question")
	}
}

func TestProcess_ExitPhraseSkipsGeneration(t *testing.T) {
	f := newFixture(t)
	f.asr.Text = "thank you, that is all"
	f.coordinator.SetReady()

	resp, err := f.coordinator.Process(context.Background(), validPCM())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !resp.Farewell {
		t.Fatal("farewell not detected")
	}
	if f.llm.Calls() != 0 {
		t.Fatal("generation ran for an exit phrase")
	}
	if resp.Audio == nil {
		t.Fatal("farewell was not synthesized")
	}
	if !strings.Contains(resp.Response, "Om Shanti") {
		t.Fatalf("farewell text = %q", resp.Response)
	}
}

func TestProcess_SynthesisExhaustionDegrades(t *testing.T) {
	f := newFixture(t)
	f.tts.SynthesizeErr = errors.New("no voice")
	f.coordinator.SetReady()

	resp, err := f.coordinator.Process(context.Background(), validPCM())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if resp.Audio != nil {
		t.Fatalf("audio = %v, want nil", resp.Audio)
	}
	if resp.Response == "" {
		t.Fatal("text answer missing in degraded response")
	}
}

func TestProcess_EmptyTranscriptionFails(t *testing.T) {
	f := newFixture(t)
	f.asr.Text = "   "
	f.coordinator.SetReady()

	_, err := f.coordinator.Process(context.Background(), validPCM())
	var se *StageError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StageError", err)
	}
	if se.Stage != StageTranscription || se.Reason != "transcription_failed" {
		t.Fatalf("stage error = %+v", se)
	}
}

func TestProcess_EmbeddingFailureFails(t *testing.T) {
	f := newFixture(t)
	f.coordinator.SetReady()
	f.coordinator.retrieval.Embedder = &embmock.Provider{EmbedErr: errors.New("backend down")}

	_, err := f.coordinator.Process(context.Background(), validPCM())
	var se *StageError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StageError", err)
	}
	if se.Stage != StageRetrieval || se.Reason != "embedding_failed" {
		t.Fatalf("stage error = %+v", se)
	}
}

func TestProcess_GenerationFallsBackToSecondProvider(t *testing.T) {
	f := newFixture(t)
	f.llm.CompleteErr = errors.New("model crashed")

	fallback := &llmmock.Provider{ID: "canned", Response: "A canned but serviceable answer."}
	f.coordinator.generation.Chain = resilience.NewChain(resilience.ChainConfig{},
		resilience.Entry[llm.Provider]{Name: "primary", Value: f.llm},
		resilience.Entry[llm.Provider]{Name: "canned", Value: fallback})
	f.coordinator.SetReady()

	resp, err := f.coordinator.Process(context.Background(), validPCM())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if resp.Response != "A canned but serviceable answer." {
		t.Fatalf("response = %q", resp.Response)
	}
}

func TestGreet(t *testing.T) {
	f := newFixture(t)

	resp := f.coordinator.Greet(context.Background())
	if resp.Response != "Om Namah Shivaya" {
		t.Fatalf("greeting = %q", resp.Response)
	}
	if resp.Audio == nil {
		t.Fatal("greeting was not synthesized")
	}
}
