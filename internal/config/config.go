// Package config provides the configuration schema and loader for the
// GitaGPT server and the robot client.
package config

import "time"

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// CorpusBackend selects where verses and their embeddings are kept.
type CorpusBackend string

const (
	// BackendCSV loads the corpus from a CSV file and serves retrieval from
	// an in-memory index with a gob snapshot cache.
	BackendCSV CorpusBackend = "csv"

	// BackendPostgres keeps verses and embeddings in a pgvector-enabled
	// PostgreSQL database.
	BackendPostgres CorpusBackend = "postgres"
)

// IsValid reports whether b is a recognised corpus backend.
func (b CorpusBackend) IsValid() bool {
	return b == BackendCSV || b == BackendPostgres
}

// Config is the root configuration, typically loaded from a YAML file via
// [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Audio     AudioConfig     `yaml:"audio"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Providers ProvidersConfig `yaml:"providers"`
	Robot     RobotConfig     `yaml:"robot"`
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":5000").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// ShutdownTimeout bounds graceful shutdown on SIGINT/SIGTERM.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// AudioConfig describes the raw PCM format the server accepts.
type AudioConfig struct {
	// SampleRate of the incoming PCM in Hz.
	SampleRate int `yaml:"sample_rate"`

	// Channels of the incoming PCM. Multichannel input is downmixed to the
	// first channel at ingestion.
	Channels int `yaml:"channels"`
}

// CorpusConfig selects the verse corpus source and retrieval parameters.
type CorpusConfig struct {
	// Backend selects the storage backend.
	Backend CorpusBackend `yaml:"backend"`

	// CSVPath is the verse CSV, required for the csv backend and used to
	// seed an empty database for the postgres backend.
	CSVPath string `yaml:"csv_path"`

	// SnapshotPath caches the built in-memory index. Empty disables caching.
	SnapshotPath string `yaml:"snapshot_path"`

	// PostgresDSN is the connection string for the postgres backend.
	PostgresDSN string `yaml:"postgres_dsn"`

	// TopK is the number of verses retrieved per question.
	TopK int `yaml:"top_k"`
}

// ProviderEntry configures one backend in a provider chain.
type ProviderEntry struct {
	// Name selects the implementation (e.g., "ollama", "piper", "canned").
	Name string `yaml:"name"`

	// BaseURL overrides the implementation's default endpoint.
	BaseURL string `yaml:"base_url"`

	// Model selects a model within the provider where applicable.
	Model string `yaml:"model"`

	// APIKey authenticates hosted providers.
	APIKey string `yaml:"api_key"`

	// Voice selects a synthesis voice where applicable.
	Voice string `yaml:"voice"`
}

// ASRConfig configures the single speech-recognition backend.
type ASRConfig struct {
	// BaseURL of the whisper-server instance.
	BaseURL string `yaml:"base_url"`

	// Language hint passed to the recogniser.
	Language string `yaml:"language"`

	// Timeout bounds one transcription call.
	Timeout time.Duration `yaml:"timeout"`
}

// GenerationConfig configures the generation fallback chain.
type GenerationConfig struct {
	// Chain lists providers in priority order. A "canned" entry is appended
	// automatically when missing so the chain can never be exhausted.
	Chain []ProviderEntry `yaml:"chain"`

	// Temperature for sampling.
	Temperature float64 `yaml:"temperature"`

	// MaxTokens caps the generated answer length.
	MaxTokens int `yaml:"max_tokens"`

	// MaxContextChars caps the retrieved-verse context in the prompt.
	MaxContextChars int `yaml:"max_context_chars"`
}

// SynthesisConfig configures the synthesis fallback chain.
type SynthesisConfig struct {
	// Chain lists providers in priority order. Unlike generation, the chain
	// may be exhausted; the response then carries no audio.
	Chain []ProviderEntry `yaml:"chain"`
}

// BreakerConfig tunes the per-provider circuit breakers.
type BreakerConfig struct {
	MaxFailures  int           `yaml:"max_failures"`
	ResetTimeout time.Duration `yaml:"reset_timeout"`
	HalfOpenMax  int           `yaml:"half_open_max"`
}

// ProvidersConfig groups all pipeline provider settings.
type ProvidersConfig struct {
	ASR        ASRConfig        `yaml:"asr"`
	Embeddings ProviderEntry    `yaml:"embeddings"`
	Generation GenerationConfig `yaml:"generation"`
	Synthesis  SynthesisConfig  `yaml:"synthesis"`
	Breaker    BreakerConfig    `yaml:"circuit_breaker"`
}

// RobotConfig holds the robot client settings.
type RobotConfig struct {
	// ServerURL is the base URL of the GitaGPT server.
	ServerURL string `yaml:"server_url"`

	// SerialPort is the jaw actuator device. Empty means autoprobe.
	SerialPort string `yaml:"serial_port"`

	// BaudRate of the actuator link.
	BaudRate int `yaml:"baud_rate"`

	// JawInterval is the fixed open/close cycle half-period.
	JawInterval time.Duration `yaml:"jaw_interval"`

	// RecordSeconds is how long one question recording lasts.
	RecordSeconds int `yaml:"record_seconds"`

	// PlaybackBackend pins an audio output backend. Empty means autoprobe.
	PlaybackBackend string `yaml:"playback_backend"`
}

// Known provider names per chain kind, checked by [Validate].
var (
	knownEmbeddings = []string{"ollama", "openai"}
	knownGeneration = []string{"ollama", "openai", "canned"}
	knownSynthesis  = []string{"piper", "edge", "espeak"}
)

// Default returns the configuration used when no file is supplied: local
// whisper-server and Ollama, CSV corpus, the piper → edge → espeak voice
// chain, and the robot client pointed at localhost.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:      ":5000",
			LogLevel:        LogInfo,
			ShutdownTimeout: 10 * time.Second,
		},
		Audio: AudioConfig{
			SampleRate: 16000,
			Channels:   1,
		},
		Corpus: CorpusConfig{
			Backend:      BackendCSV,
			CSVPath:      "bhagavad_gita_verses.csv",
			SnapshotPath: "cache/index.gob",
			TopK:         3,
		},
		Providers: ProvidersConfig{
			ASR: ASRConfig{
				BaseURL:  "http://127.0.0.1:8178",
				Language: "en",
				Timeout:  60 * time.Second,
			},
			Embeddings: ProviderEntry{
				Name:  "ollama",
				Model: "nomic-embed-text",
			},
			Generation: GenerationConfig{
				Chain: []ProviderEntry{
					{Name: "ollama", Model: "gemma3:1b"},
					{Name: "canned"},
				},
				Temperature:     0.7,
				MaxTokens:       200,
				MaxContextChars: 2000,
			},
			Synthesis: SynthesisConfig{
				Chain: []ProviderEntry{
					{Name: "piper", BaseURL: "http://127.0.0.1:5001"},
					{Name: "edge"},
					{Name: "espeak"},
				},
			},
			Breaker: BreakerConfig{
				MaxFailures:  5,
				ResetTimeout: 30 * time.Second,
				HalfOpenMax:  3,
			},
		},
		Robot: RobotConfig{
			ServerURL:     "http://127.0.0.1:5000",
			BaudRate:      9600,
			JawInterval:   200 * time.Millisecond,
			RecordSeconds: 5,
		},
	}
}
