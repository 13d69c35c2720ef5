// Command gitagptd is the question-answering server: it transcribes spoken
// questions, retrieves the most relevant verses, generates a grounded answer,
// and synthesizes it to speech for the robot client.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/internal/config"
	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/internal/corpus"
	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/internal/index"
	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/internal/observe"
	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/internal/pipeline"
	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/internal/resilience"
	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/internal/server"
	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/internal/transcript"
	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/pkg/provider/asr/whisper"
	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/pkg/provider/embeddings"
	ollamaembed "github.com/Raghuram-sekar/Amrita-Humanoid-Robot/pkg/provider/embeddings/ollama"
	oaembed "github.com/Raghuram-sekar/Amrita-Humanoid-Robot/pkg/provider/embeddings/openai"
	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/pkg/provider/llm"
	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/pkg/provider/llm/anyllm"
	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/pkg/provider/llm/canned"
	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/pkg/provider/tts"
	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/pkg/provider/tts/edge"
	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/pkg/provider/tts/espeak"
	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/pkg/provider/tts/piper"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gitagptd: %v\n", err)
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	slog.SetDefault(newLogger(cfg.Server.LogLevel))
	slog.Info("gitagptd starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"corpus_backend", cfg.Corpus.Backend,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "gitagptd"})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	// ── Providers ─────────────────────────────────────────────────────────────
	asrProvider := buildASR(cfg)
	embedder, err := buildEmbedder(cfg.Providers.Embeddings)
	if err != nil {
		slog.Error("failed to create embeddings provider", "err", err)
		return 1
	}
	genChain, err := buildGenerationChain(cfg)
	if err != nil {
		slog.Error("failed to build generation chain", "err", err)
		return 1
	}
	ttsChain, err := buildSynthesisChain(cfg)
	if err != nil {
		slog.Error("failed to build synthesis chain", "err", err)
		return 1
	}

	// ── Pipeline ──────────────────────────────────────────────────────────────
	// The retrieval searcher is filled in once the index is built; until then
	// the readiness gate keeps every request out of the pipeline.
	retrieval := &pipeline.RetrievalStage{Embedder: embedder, TopK: cfg.Corpus.TopK}
	coordinator := pipeline.NewCoordinator(pipeline.CoordinatorConfig{
		Transcription: &pipeline.TranscriptionStage{
			ASR:       asrProvider,
			Corrector: transcript.NewCorrector(nil, nil),
		},
		Retrieval: retrieval,
		Generation: &pipeline.GenerationStage{
			Chain:           genChain,
			MaxContextChars: cfg.Providers.Generation.MaxContextChars,
			Temperature:     cfg.Providers.Generation.Temperature,
			MaxTokens:       cfg.Providers.Generation.MaxTokens,
		},
		Synthesis:  &pipeline.SynthesisStage{Chain: ttsChain},
		Metrics:    metrics,
		SampleRate: cfg.Audio.SampleRate,
		Channels:   cfg.Audio.Channels,
	})

	// ── HTTP server ───────────────────────────────────────────────────────────
	// Serving starts before the index build so /health answers 503 during
	// initialization and /greet works immediately.
	httpServer := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           server.New(coordinator, metrics).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", cfg.Server.ListenAddr)
		errCh <- httpServer.ListenAndServe()
	}()

	// ── Corpus and index ──────────────────────────────────────────────────────
	searcher, closeStore, err := buildSearcher(ctx, cfg, embedder)
	if err != nil {
		slog.Error("failed to build verse index", "err", err)
		return 1
	}
	defer closeStore()

	retrieval.Searcher = searcher
	coordinator.SetReady()
	slog.Info("pipeline ready")

	select {
	case err := <-errCh:
		slog.Error("http server error", "err", err)
		return 1
	case <-ctx.Done():
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	slog.Info("shutdown signal received, stopping…")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// loadConfig reads the YAML file, tolerating a missing file by falling back
// to defaults.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg = config.Default()
		if verr := config.Validate(cfg); verr != nil {
			return nil, verr
		}
		return cfg, nil
	}
	return cfg, err
}

// ── Provider wiring ───────────────────────────────────────────────────────────

func buildASR(cfg *config.Config) *whisper.Provider {
	var opts []whisper.Option
	if cfg.Providers.ASR.Language != "" {
		opts = append(opts, whisper.WithLanguage(cfg.Providers.ASR.Language))
	}
	if cfg.Providers.ASR.Timeout > 0 {
		opts = append(opts, whisper.WithTimeout(cfg.Providers.ASR.Timeout))
	}
	return whisper.New(cfg.Providers.ASR.BaseURL, opts...)
}

func buildEmbedder(entry config.ProviderEntry) (embeddings.Provider, error) {
	switch entry.Name {
	case "ollama":
		return ollamaembed.New(entry.BaseURL, entry.Model)
	case "openai":
		var opts []oaembed.Option
		if entry.BaseURL != "" {
			opts = append(opts, oaembed.WithBaseURL(entry.BaseURL))
		}
		return oaembed.New(entry.APIKey, entry.Model, opts...)
	default:
		return nil, fmt.Errorf("unknown embeddings provider %q", entry.Name)
	}
}

func buildLLM(entry config.ProviderEntry) (llm.Provider, error) {
	switch entry.Name {
	case "ollama":
		var opts []anyllmlib.Option
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return anyllm.NewOllama(entry.Model, opts...)
	case "openai":
		var opts []anyllmlib.Option
		if entry.APIKey != "" {
			opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
		}
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return anyllm.NewOpenAI(entry.Model, opts...)
	case "canned":
		return canned.New(canned.DefaultResponse), nil
	default:
		return nil, fmt.Errorf("unknown generation provider %q", entry.Name)
	}
}

func buildTTS(entry config.ProviderEntry) (tts.Provider, error) {
	switch entry.Name {
	case "piper":
		var opts []piper.Option
		return piper.New(entry.BaseURL, opts...), nil
	case "edge":
		return edge.New(entry.Voice), nil
	case "espeak":
		var opts []espeak.Option
		if entry.Voice != "" {
			opts = append(opts, espeak.WithVoice(entry.Voice))
		}
		return espeak.New(opts...), nil
	default:
		return nil, fmt.Errorf("unknown synthesis provider %q", entry.Name)
	}
}

func chainConfig(cfg *config.Config, name string) resilience.ChainConfig {
	return resilience.ChainConfig{
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Name:         name,
			MaxFailures:  cfg.Providers.Breaker.MaxFailures,
			ResetTimeout: cfg.Providers.Breaker.ResetTimeout,
			HalfOpenMax:  cfg.Providers.Breaker.HalfOpenMax,
		},
	}
}

func buildGenerationChain(cfg *config.Config) (*resilience.Chain[llm.Provider], error) {
	chain := resilience.NewChain[llm.Provider](chainConfig(cfg, "generation"))
	for _, entry := range cfg.Providers.Generation.Chain {
		p, err := buildLLM(entry)
		if err != nil {
			return nil, err
		}
		chain.Add(resilience.Entry[llm.Provider]{Name: entry.Name, Value: p, Probe: p.Healthy})
		slog.Info("generation provider configured", "name", entry.Name, "model", p.ModelID())
	}
	return chain, nil
}

func buildSynthesisChain(cfg *config.Config) (*resilience.Chain[tts.Provider], error) {
	chain := resilience.NewChain[tts.Provider](chainConfig(cfg, "synthesis"))
	for _, entry := range cfg.Providers.Synthesis.Chain {
		p, err := buildTTS(entry)
		if err != nil {
			return nil, err
		}
		chain.Add(resilience.Entry[tts.Provider]{Name: entry.Name, Value: p, Probe: p.Healthy})
		slog.Info("synthesis provider configured", "name", entry.Name)
	}
	return chain, nil
}

// ── Corpus and index ──────────────────────────────────────────────────────────

// buildSearcher loads the verse corpus and returns the configured retrieval
// backend: the in-memory index with a gob snapshot cache, or pgvector.
func buildSearcher(ctx context.Context, cfg *config.Config, embedder embeddings.Provider) (index.Searcher, func(), error) {
	noop := func() {}

	switch cfg.Corpus.Backend {
	case config.BackendCSV:
		entries, err := corpus.LoadCSV(cfg.Corpus.CSVPath)
		if err != nil {
			return nil, noop, err
		}
		slog.Info("corpus loaded", "path", cfg.Corpus.CSVPath, "entries", len(entries))

		flat, err := index.LoadOrBuild(ctx, entries, embedder, cfg.Corpus.SnapshotPath)
		if err != nil {
			return nil, noop, err
		}
		slog.Info("verse index ready", "entries", flat.Len(), "model", flat.ModelID())
		return flat, noop, nil

	case config.BackendPostgres:
		store, err := corpus.NewStore(ctx, cfg.Corpus.PostgresDSN, embedder.Dimensions())
		if err != nil {
			return nil, noop, err
		}
		closeStore := func() { store.Close() }

		if cfg.Corpus.CSVPath != "" {
			if err := seedStore(ctx, store, embedder, cfg.Corpus.CSVPath); err != nil {
				closeStore()
				return nil, noop, err
			}
		}

		pg := index.NewPG(store.Pool())
		if err := pg.EnsurePopulated(ctx); err != nil {
			closeStore()
			return nil, noop, err
		}
		slog.Info("verse index ready", "backend", "postgres")
		return pg, closeStore, nil

	default:
		return nil, noop, fmt.Errorf("unknown corpus backend %q", cfg.Corpus.Backend)
	}
}

// seedStore fills an empty entries table from the CSV corpus, embedding all
// translations in one batch.
func seedStore(ctx context.Context, store *corpus.Store, embedder embeddings.Provider, csvPath string) error {
	n, err := store.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	entries, err := corpus.LoadCSV(csvPath)
	if err != nil {
		return err
	}
	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.Translation
	}
	slog.Info("seeding verse store", "entries", len(entries))
	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed corpus: %w", err)
	}
	for i := range entries {
		entries[i].Embedding = vectors[i]
	}
	return index.Seed(ctx, store, entries)
}

// ── Logger ────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
