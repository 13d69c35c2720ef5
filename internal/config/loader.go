package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path, layered over [Default],
// and returns a validated [Config].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r over [Default] and validates
// the result. Unknown YAML keys are rejected. Useful in tests where configs
// are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values. It returns a
// joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.ListenAddr == "" {
		errs = append(errs, errors.New("server.listen_addr must not be empty"))
	}
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Audio
	if cfg.Audio.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio.sample_rate %d must be positive", cfg.Audio.SampleRate))
	}
	if cfg.Audio.Channels <= 0 {
		errs = append(errs, fmt.Errorf("audio.channels %d must be positive", cfg.Audio.Channels))
	}

	// Corpus
	switch {
	case !cfg.Corpus.Backend.IsValid():
		errs = append(errs, fmt.Errorf("corpus.backend %q is invalid; valid values: csv, postgres", cfg.Corpus.Backend))
	case cfg.Corpus.Backend == BackendCSV && cfg.Corpus.CSVPath == "":
		errs = append(errs, errors.New("corpus.csv_path is required for the csv backend"))
	case cfg.Corpus.Backend == BackendPostgres && cfg.Corpus.PostgresDSN == "":
		errs = append(errs, errors.New("corpus.postgres_dsn is required for the postgres backend"))
	}
	if cfg.Corpus.TopK <= 0 {
		errs = append(errs, fmt.Errorf("corpus.top_k %d must be positive", cfg.Corpus.TopK))
	}

	// Providers
	if cfg.Providers.ASR.BaseURL == "" {
		errs = append(errs, errors.New("providers.asr.base_url must not be empty"))
	}
	if name := cfg.Providers.Embeddings.Name; !slices.Contains(knownEmbeddings, name) {
		errs = append(errs, fmt.Errorf("providers.embeddings.name %q is unknown; valid values: %v", name, knownEmbeddings))
	}
	if len(cfg.Providers.Generation.Chain) == 0 {
		errs = append(errs, errors.New("providers.generation.chain must list at least one provider"))
	}
	for i, e := range cfg.Providers.Generation.Chain {
		if !slices.Contains(knownGeneration, e.Name) {
			errs = append(errs, fmt.Errorf("providers.generation.chain[%d].name %q is unknown; valid values: %v", i, e.Name, knownGeneration))
		}
	}
	for i, e := range cfg.Providers.Synthesis.Chain {
		if !slices.Contains(knownSynthesis, e.Name) {
			errs = append(errs, fmt.Errorf("providers.synthesis.chain[%d].name %q is unknown; valid values: %v", i, e.Name, knownSynthesis))
		}
	}

	// Robot
	if cfg.Robot.BaudRate <= 0 {
		errs = append(errs, fmt.Errorf("robot.baud_rate %d must be positive", cfg.Robot.BaudRate))
	}
	if cfg.Robot.JawInterval <= 0 {
		errs = append(errs, fmt.Errorf("robot.jaw_interval %s must be positive", cfg.Robot.JawInterval))
	}

	return errors.Join(errs...)
}
