package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/internal/index"
	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/internal/resilience"
	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/internal/transcript"
	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/pkg/audio"
	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/pkg/provider/asr"
	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/pkg/provider/embeddings"
	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/pkg/provider/llm"
	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/pkg/provider/tts"
)

// TranscriptionStage converts an audio frame to text through the ASR
// provider, then runs the optional vocabulary corrector over the result.
type TranscriptionStage struct {
	ASR       asr.Provider
	Corrector *transcript.Corrector
}

// Run transcribes frame. An engine error or a blank transcription is a
// terminal [StageError] with reason "transcription_failed".
func (s *TranscriptionStage) Run(ctx context.Context, frame audio.Frame) (string, error) {
	text, err := s.ASR.Transcribe(ctx, frame)
	if err != nil {
		return "", &StageError{Stage: StageTranscription, Reason: "transcription_failed", Err: err}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", &StageError{Stage: StageTranscription, Reason: "transcription_failed",
			Err: errors.New("empty transcription")}
	}

	if s.Corrector != nil {
		corrected, corrections := s.Corrector.Correct(text)
		for _, c := range corrections {
			slog.Debug("transcript term corrected",
				"original", c.Original, "corrected", c.Corrected, "confidence", c.Confidence)
		}
		text = corrected
	}
	return text, nil
}

// RetrievalStage embeds the question and looks up the nearest verses.
type RetrievalStage struct {
	Embedder embeddings.Provider
	Searcher index.Searcher
	TopK     int
}

// Run returns the top-K matches for question. An embedding failure is a
// terminal [StageError] with reason "embedding_failed"; an empty result is a
// valid degraded path and generation proceeds ungrounded.
func (s *RetrievalStage) Run(ctx context.Context, question string) ([]index.Match, error) {
	vec, err := s.Embedder.Embed(ctx, question)
	if err != nil {
		return nil, &StageError{Stage: StageRetrieval, Reason: "embedding_failed", Err: err}
	}

	matches, err := s.Searcher.Search(ctx, vec, s.TopK)
	if err != nil {
		return nil, &StageError{Stage: StageRetrieval, Reason: "search_failed", Err: err}
	}
	return matches, nil
}

// GenerationOutput is the raw model text plus its cleaned rendition with
// citation markers stripped.
type GenerationOutput struct {
	Raw      string
	Cleaned  string
	Provider string
}

// GenerationStage builds the grounded prompt and runs the generation
// fallback chain. The last chain entry is a canned provider that never
// fails, so exhaustion here indicates a configuration defect.
type GenerationStage struct {
	Chain           *resilience.Chain[llm.Provider]
	MaxContextChars int
	Temperature     float64
	MaxTokens       int
}

// Run generates a grounded answer to question from matches.
func (s *GenerationStage) Run(ctx context.Context, question string, matches []index.Match) (GenerationOutput, error) {
	prompt := BuildPrompt(question, matches, s.MaxContextChars)

	raw, provider, err := resilience.Run(ctx, s.Chain,
		func(ctx context.Context, p llm.Provider) (string, error) {
			return p.Complete(ctx, llm.Request{
				SystemPrompt: systemPrompt,
				UserPrompt:   prompt,
				Temperature:  s.Temperature,
				MaxTokens:    s.MaxTokens,
			})
		})
	if err != nil {
		return GenerationOutput{}, &StageError{Stage: StageGeneration, Reason: "generation_exhausted", Err: err}
	}

	return GenerationOutput{
		Raw:      raw,
		Cleaned:  Strip(raw),
		Provider: provider,
	}, nil
}

// SynthesisStage runs the synthesis fallback chain. Unlike generation there
// is no guaranteed-success provider: chain exhaustion degrades to an absent
// result instead of failing the request.
type SynthesisStage struct {
	Chain *resilience.Chain[tts.Provider]
}

// Run renders text to speech. A nil result with empty provider name means
// every synthesis backend was unavailable.
func (s *SynthesisStage) Run(ctx context.Context, text string) (*tts.Result, string) {
	result, provider, err := resilience.Run(ctx, s.Chain,
		func(ctx context.Context, p tts.Provider) (*tts.Result, error) {
			return p.Synthesize(ctx, text)
		})
	if err != nil {
		slog.Warn("speech synthesis unavailable, returning text-only response", "error", err)
		return nil, ""
	}
	return result, provider
}
