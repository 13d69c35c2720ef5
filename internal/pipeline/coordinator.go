package pipeline

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/internal/index"
	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/internal/observe"
	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/pkg/audio"
	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/pkg/provider/tts"
)

// ExitPhrases end the conversation: a transcription containing one of these
// gets a farewell instead of a retrieval-grounded answer.
var ExitPhrases = []string{"thank you", "thanks", "that's all", "nothing else", "goodbye"}

// Farewell and greeting texts spoken by the robot.
const (
	farewellText = "Thank you for seeking Gita wisdom. May you find peace and fulfillment on your spiritual journey. Om Shanti!"
	greetingText = "Om Namah Shivaya"
)

// Response is the envelope returned for one processed question. Immutable
// after assembly.
type Response struct {
	// Transcription is the (corrected) recognized question.
	Transcription string `json:"transcription"`

	// Response is the cleaned natural-speech answer, citation markers
	// stripped.
	Response string `json:"response"`

	// FormattedResponse is the display variant with source verses and their
	// citation IDs kept for traceability.
	FormattedResponse string `json:"formatted_response"`

	// Audio is the synthesized WAV, nil when every synthesis backend was
	// unavailable.
	Audio []byte `json:"-"`

	// ResponseRaw is the unmodified model output, useful for debugging.
	ResponseRaw string `json:"response_raw"`

	// Farewell is true when the question matched an exit phrase.
	Farewell bool `json:"-"`
}

// Coordinator sequences the four pipeline stages for one request:
// ingestion, transcription, retrieval, generation, synthesis, assembly.
//
// A single Coordinator serves all requests concurrently; the stages only
// touch process-wide read-only state. The readiness gate starts closed and
// opens exactly once via [Coordinator.SetReady] — requests arriving before
// that are rejected with [ErrNotReady] without entering the pipeline.
type Coordinator struct {
	transcription *TranscriptionStage
	retrieval     *RetrievalStage
	generation    *GenerationStage
	synthesis     *SynthesisStage

	metrics      *observe.Metrics
	sampleRate   int
	channels     int
	stageTimeout time.Duration

	ready atomic.Bool
}

// CoordinatorConfig wires a [Coordinator].
type CoordinatorConfig struct {
	Transcription *TranscriptionStage
	Retrieval     *RetrievalStage
	Generation    *GenerationStage
	Synthesis     *SynthesisStage

	// Metrics defaults to [observe.DefaultMetrics].
	Metrics *observe.Metrics

	// SampleRate and Channels describe the raw PCM the transport accepts.
	// Defaults: 16000 Hz mono.
	SampleRate int
	Channels   int

	// StageTimeout bounds each stage individually so one hung provider
	// cannot stall a request forever. Defaults to 60s.
	StageTimeout time.Duration
}

// NewCoordinator builds a [Coordinator] with the gate closed.
func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	if cfg.Metrics == nil {
		cfg.Metrics = observe.DefaultMetrics()
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	if cfg.StageTimeout <= 0 {
		cfg.StageTimeout = 60 * time.Second
	}
	return &Coordinator{
		transcription: cfg.Transcription,
		retrieval:     cfg.Retrieval,
		generation:    cfg.Generation,
		synthesis:     cfg.Synthesis,
		metrics:       cfg.Metrics,
		sampleRate:    cfg.SampleRate,
		channels:      cfg.Channels,
		stageTimeout:  cfg.StageTimeout,
	}
}

// SetReady opens the readiness gate. Readiness is monotonic, there is no way
// to close the gate again.
func (c *Coordinator) SetReady() {
	c.ready.Store(true)
}

// Ready reports whether the gate is open.
func (c *Coordinator) Ready() bool {
	return c.ready.Load()
}

// Process answers one spoken question from raw little-endian int16 PCM.
//
// Stage failures (transcription, embedding) abort the run and surface as a
// [*StageError]; malformed audio surfaces as [*IngestionError]; a closed
// gate as [ErrNotReady]. Exhausted synthesis is not an error, the response
// just carries no audio.
func (c *Coordinator) Process(ctx context.Context, pcm []byte) (*Response, error) {
	if !c.Ready() {
		return nil, ErrNotReady
	}

	started := time.Now()
	log := observe.Logger(ctx)

	frame, err := audio.DecodePCM16(pcm, c.sampleRate, c.channels)
	if err != nil {
		return nil, &IngestionError{Err: err}
	}
	log.Debug("audio ingested", "samples", len(frame.Samples), "duration", frame.Duration())

	question, err := c.timedTranscribe(ctx, frame)
	if err != nil {
		c.metrics.RecordQuestion(ctx, "failed", false)
		return nil, err
	}
	log.Info("question transcribed", "text", question)

	if isExitPhrase(question) {
		resp := c.assembleFarewell(ctx, question)
		c.metrics.PipelineDuration.Record(ctx, time.Since(started).Seconds())
		c.metrics.RecordQuestion(ctx, "farewell", resp.Audio != nil)
		return resp, nil
	}

	matches, err := c.timedRetrieve(ctx, question)
	if err != nil {
		c.metrics.RecordQuestion(ctx, "failed", false)
		return nil, err
	}
	log.Debug("verses retrieved", "count", len(matches))

	output, err := c.timedGenerate(ctx, question, matches)
	if err != nil {
		c.metrics.RecordQuestion(ctx, "failed", false)
		return nil, err
	}
	log.Info("answer generated", "provider", output.Provider, "chars", len(output.Cleaned))

	result, provider := c.timedSynthesize(ctx, output.Cleaned)
	if result != nil {
		log.Debug("speech synthesized", "provider", provider, "bytes", len(result.WAV))
	}

	resp := &Response{
		Transcription:     question,
		Response:          output.Cleaned,
		FormattedResponse: FormatResponse(output.Cleaned, matches),
		Audio:             audioBytes(result),
		ResponseRaw:       output.Raw,
	}
	c.metrics.PipelineDuration.Record(ctx, time.Since(started).Seconds())
	c.metrics.RecordQuestion(ctx, "answered", resp.Audio != nil)
	return resp, nil
}

// Greet returns the fixed greeting, synthesized when possible. Available
// before the gate opens so the robot can announce itself during startup.
func (c *Coordinator) Greet(ctx context.Context) *Response {
	result, _ := c.timedSynthesize(ctx, greetingText)
	return &Response{
		Transcription: "",
		Response:      greetingText,
		Audio:         audioBytes(result),
	}
}

// assembleFarewell builds the exit-phrase response without touching the
// retrieval or generation stages.
func (c *Coordinator) assembleFarewell(ctx context.Context, question string) *Response {
	result, _ := c.timedSynthesize(ctx, farewellText)
	return &Response{
		Transcription:     question,
		Response:          farewellText,
		FormattedResponse: FormatResponse(farewellText, nil),
		Audio:             audioBytes(result),
		ResponseRaw:       farewellText,
		Farewell:          true,
	}
}

func (c *Coordinator) timedTranscribe(ctx context.Context, frame audio.Frame) (string, error) {
	ctx, span := observe.StartSpan(ctx, "pipeline."+StageTranscription)
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, c.stageTimeout)
	defer cancel()

	start := time.Now()
	text, err := c.transcription.Run(ctx, frame)
	c.metrics.RecordStage(ctx, StageTranscription, time.Since(start))
	return text, err
}

func (c *Coordinator) timedRetrieve(ctx context.Context, question string) ([]index.Match, error) {
	ctx, span := observe.StartSpan(ctx, "pipeline."+StageRetrieval)
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, c.stageTimeout)
	defer cancel()

	start := time.Now()
	matches, err := c.retrieval.Run(ctx, question)
	c.metrics.RecordStage(ctx, StageRetrieval, time.Since(start))
	return matches, err
}

func (c *Coordinator) timedGenerate(ctx context.Context, question string, matches []index.Match) (GenerationOutput, error) {
	ctx, span := observe.StartSpan(ctx, "pipeline."+StageGeneration)
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, c.stageTimeout)
	defer cancel()

	start := time.Now()
	out, err := c.generation.Run(ctx, question, matches)
	c.metrics.RecordStage(ctx, StageGeneration, time.Since(start))
	return out, err
}

func (c *Coordinator) timedSynthesize(ctx context.Context, text string) (*tts.Result, string) {
	ctx, span := observe.StartSpan(ctx, "pipeline."+StageSynthesis)
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, c.stageTimeout)
	defer cancel()

	start := time.Now()
	result, provider := c.synthesis.Run(ctx, text)
	c.metrics.RecordStage(ctx, StageSynthesis, time.Since(start))
	return result, provider
}

func isExitPhrase(transcription string) bool {
	lower := strings.ToLower(transcription)
	for _, phrase := range ExitPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func audioBytes(result *tts.Result) []byte {
	if result == nil {
		return nil
	}
	return result.WAV
}
