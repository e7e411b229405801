// Package config provides configuration management for the pipeline tools.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrNoCorpora                = errors.New("at least one corpus is required")
	ErrCorpusMissingName        = errors.New("corpus name is required")
	ErrCorpusMissingLocation    = errors.New("either file, url or s3 location is required")
	ErrInvalidCorpusFormat      = errors.New("corpus format must be one of: jsonl, json, csv")
	ErrNoEnabledCorpora         = errors.New("at least one corpus must be enabled")
	ErrInvalidPlaceholder       = errors.New("extraction.placeholder must contain only A-Z, 0-9 and underscore")
	ErrInvalidContext           = errors.New("extraction.context must be 'sentence' or 'full'")
	ErrInvalidLengthBounds      = errors.New("extraction.min_length cannot exceed extraction.max_length")
	ErrMissingFakePIIFile       = errors.New("fake_pii.file is required")
	ErrInvalidCount             = errors.New("generation.count must be at least 1")
	ErrInvalidLowerCaseRatio    = errors.New("generation.lower_case_ratio must be between 0.0 and 1.0")
	ErrInvalidScheme            = errors.New("generation.scheme must be one of: BILOU, BIO, IO")
	ErrInvalidMaxAttempts       = errors.New("retry.max_attempts must be at least 1")
	ErrInvalidInitialDelay      = errors.New("retry.initial_delay_ms must be non-negative")
	ErrInvalidBackoffMultiplier = errors.New("retry.backoff_multiplier must be >= 1.0")
	ErrInvalidTimeout           = errors.New("retry.timeout_sec must be at least 1")
	ErrMissingOutputPath        = errors.New("output.base_path or output.path is required")
	ErrInvalidOutputFormat      = errors.New("output.format must be 'json' or 'jsonl'")
	ErrInvalidLogLevel          = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrLabelStudioMissingURL    = errors.New("label_studio.url is required when upload is enabled")
	ErrLabelStudioMissingID     = errors.New("label_studio.project_id is required when upload is enabled")
)

var placeholderPattern = regexp.MustCompile(`^[A-Z][A-Z_0-9]*$`)

// Config represents the complete pipeline configuration.
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
	Features FeaturesConfig `yaml:"features"`
	Advanced AdvancedConfig `yaml:"advanced"`
}

// PipelineConfig contains the settings for the extraction and generation
// stages.
type PipelineConfig struct {
	Corpora    []CorpusConfig   `yaml:"corpora"`
	Extraction ExtractionConfig `yaml:"extraction"`
	FakePII    FakePIIConfig    `yaml:"fake_pii"`
	Generation GenerationConfig `yaml:"generation"`
	Output     OutputConfig     `yaml:"output"`
	Logging    LoggingConfig    `yaml:"logging"`
	Retry      RetryPolicy      `yaml:"retry"`
}

// CorpusConfig represents one annotated corpus source.
type CorpusConfig struct {
	Name       string   `yaml:"name"`
	File       string   `yaml:"file"`
	URL        string   `yaml:"url"`
	S3         string   `yaml:"s3"`
	BackupURLs []string `yaml:"backup_urls"`
	Format     string   `yaml:"format"`
	Enabled    bool     `yaml:"enabled"`
}

// IsLocalFile returns true if this corpus is read from a local file.
func (s *CorpusConfig) IsLocalFile() bool {
	return s.File != ""
}

// GetSource returns the primary location of the corpus.
func (s *CorpusConfig) GetSource() string {
	if s.IsLocalFile() {
		return s.File
	}

	if s.S3 != "" {
		return s.S3
	}

	return s.URL
}

// GetAllLocations returns the primary location followed by the backups.
func (s *CorpusConfig) GetAllLocations() []string {
	locations := []string{s.GetSource()}
	locations = append(locations, s.BackupURLs...)

	return locations
}

// ExtractionConfig controls how templates are cut out of corpus rows.
type ExtractionConfig struct {
	Placeholder string `yaml:"placeholder"`
	Context     string `yaml:"context"`
	MinLength   int    `yaml:"min_length"`
	MaxLength   int    `yaml:"max_length"`
	Dedupe      bool   `yaml:"dedupe"`
}

// FakePIIConfig locates the fake identity records and their filters.
type FakePIIConfig struct {
	File          string   `yaml:"file"`
	AddressesFile string   `yaml:"addresses_file"`
	IgnoreTypes   []string `yaml:"ignore_types"`
	Genders       []string `yaml:"genders"`
	NameSets      []string `yaml:"namesets"`
}

// GenerationConfig controls the synthetic sample generator.
type GenerationConfig struct {
	Count           int     `yaml:"count"`
	LowerCaseRatio  float64 `yaml:"lower_case_ratio"`
	IncludeMetadata bool    `yaml:"include_metadata"`
	DictionaryFile  string  `yaml:"dictionary_file"`
	SpanToTag       bool    `yaml:"span_to_tag"`
	Scheme          string  `yaml:"scheme"`
	Seed            int64   `yaml:"seed"`
}

// RetryPolicy defines retry behavior for remote fetches.
type RetryPolicy struct {
	MaxAttempts       int     `yaml:"max_attempts"`
	InitialDelayMs    int     `yaml:"initial_delay_ms"`
	MaxDelayMs        int     `yaml:"max_delay_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
	TimeoutSec        int     `yaml:"timeout_sec"`
}

// OutputConfig defines output behavior.
type OutputConfig struct {
	BasePath     string `yaml:"base_path"`
	Format       string `yaml:"format"`
	Path         string `yaml:"path"`
	PrettyPrint  bool   `yaml:"pretty_print"`
	CreateBackup bool   `yaml:"create_backup"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level"`
	Format       string `yaml:"format"`
	SampleEvery  int    `yaml:"sample_every"`
	ShowProgress bool   `yaml:"show_progress"`
}

// LabelStudioConfig locates the annotation project datasets are pushed to.
type LabelStudioConfig struct {
	Enabled   bool   `yaml:"enabled"`
	URL       string `yaml:"url"`
	TokenEnv  string `yaml:"token_env"`
	ProjectID int    `yaml:"project_id"`
	BatchSize int    `yaml:"batch_size"`
}

// FeaturesConfig contains feature flags.
type FeaturesConfig struct {
	LabelStudio      LabelStudioConfig `yaml:"label_studio"`
	StrictValidation bool              `yaml:"strict_validation"`
	EmbedManifest    bool              `yaml:"embed_manifest"`
}

// S3Config holds object store access for s3:// corpus locations. An empty
// endpoint means the AWS default resolver; a custom endpoint switches to
// path-style addressing for MinIO compatibility.
type S3Config struct {
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
}

// AdvancedConfig contains advanced settings.
type AdvancedConfig struct {
	S3                         S3Config `yaml:"s3"`
	BufferSizeKb               int      `yaml:"buffer_size_kb"`
	ContinueOnValidationErrors bool     `yaml:"continue_on_validation_errors"`
	SaveFailedRows             bool     `yaml:"save_failed_rows"`
	SortSpans                  bool     `yaml:"sort_spans"`
}

// LoadConfig loads configuration from YAML file.
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// SaveConfig saves configuration to YAML file.
func (c *Config) SaveConfig(filepath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	// Check corpus sources
	if len(c.Pipeline.Corpora) == 0 {
		return ErrNoCorpora
	}

	validFormats := map[string]bool{"jsonl": true, "json": true, "csv": true}
	enabledCount := 0

	for i, src := range c.Pipeline.Corpora {
		if src.Name == "" {
			return fmt.Errorf("%w: corpus[%d]", ErrCorpusMissingName, i)
		}

		if src.File == "" && src.URL == "" && src.S3 == "" {
			return fmt.Errorf("%w: corpus[%d]", ErrCorpusMissingLocation, i)
		}

		if !validFormats[src.Format] {
			return fmt.Errorf("%w: corpus[%d]", ErrInvalidCorpusFormat, i)
		}

		if src.Enabled {
			enabledCount++
		}
	}

	if enabledCount == 0 {
		return ErrNoEnabledCorpora
	}

	// Validate extraction config
	if !placeholderPattern.MatchString(c.Pipeline.Extraction.Placeholder) {
		return ErrInvalidPlaceholder
	}

	if c.Pipeline.Extraction.Context != "sentence" && c.Pipeline.Extraction.Context != "full" {
		return ErrInvalidContext
	}

	if c.Pipeline.Extraction.MaxLength > 0 && c.Pipeline.Extraction.MinLength > c.Pipeline.Extraction.MaxLength {
		return ErrInvalidLengthBounds
	}

	// Validate fake PII config
	if c.Pipeline.FakePII.File == "" {
		return ErrMissingFakePIIFile
	}

	// Validate generation config
	if c.Pipeline.Generation.Count < 1 {
		return ErrInvalidCount
	}

	if c.Pipeline.Generation.LowerCaseRatio < 0.0 || c.Pipeline.Generation.LowerCaseRatio > 1.0 {
		return ErrInvalidLowerCaseRatio
	}

	validSchemes := map[string]bool{"BILOU": true, "BIO": true, "IO": true}
	if !validSchemes[strings.ToUpper(c.Pipeline.Generation.Scheme)] {
		return ErrInvalidScheme
	}

	// Validate retry policy
	if c.Pipeline.Retry.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	if c.Pipeline.Retry.InitialDelayMs < 0 {
		return ErrInvalidInitialDelay
	}

	if c.Pipeline.Retry.BackoffMultiplier < 1.0 {
		return ErrInvalidBackoffMultiplier
	}

	if c.Pipeline.Retry.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	// Validate output config
	if c.Pipeline.Output.BasePath == "" && c.Pipeline.Output.Path == "" {
		return ErrMissingOutputPath
	}

	if c.Pipeline.Output.Format != "json" && c.Pipeline.Output.Format != "jsonl" {
		return ErrInvalidOutputFormat
	}

	// Validate logging config
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Pipeline.Logging.Level] {
		return ErrInvalidLogLevel
	}

	// Validate upload target
	if c.Features.LabelStudio.Enabled {
		if c.Features.LabelStudio.URL == "" {
			return ErrLabelStudioMissingURL
		}

		if c.Features.LabelStudio.ProjectID < 1 {
			return ErrLabelStudioMissingID
		}
	}

	return nil
}

// GetEnabledCorpora returns only enabled corpus sources.
func (c *Config) GetEnabledCorpora() []CorpusConfig {
	var enabled []CorpusConfig

	for _, src := range c.Pipeline.Corpora {
		if src.Enabled {
			enabled = append(enabled, src)
		}
	}

	return enabled
}

// GetScheme returns the labeling scheme in canonical upper-case form.
func (c *Config) GetScheme() string {
	return strings.ToUpper(c.Pipeline.Generation.Scheme)
}

// GetRetryDelay calculates exponential backoff delay for attempt number.
func (rp *RetryPolicy) GetRetryDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}

	delayMs := float64(rp.InitialDelayMs)
	for i := 1; i < attempt; i++ {
		delayMs *= rp.BackoffMultiplier
	}

	// Cap at max delay
	if int(delayMs) > rp.MaxDelayMs {
		delayMs = float64(rp.MaxDelayMs)
	}

	return time.Duration(int(delayMs)) * time.Millisecond
}

// GetTimeout returns the timeout duration.
func (rp *RetryPolicy) GetTimeout() time.Duration {
	return time.Duration(rp.TimeoutSec) * time.Second
}

// GetOutputPath follows structure: {base_path}/{corpus}/{scheme}/dataset.{format}.
func (c *Config) GetOutputPath(corpusName string) string {
	if c.Pipeline.Output.BasePath != "" {
		return fmt.Sprintf("%s/%s/%s/dataset.%s",
			c.Pipeline.Output.BasePath,
			corpusName,
			strings.ToLower(c.GetScheme()),
			c.Pipeline.Output.Format,
		)
	}
	// Fallback to explicit path if specified
	return c.Pipeline.Output.Path
}

// GetTemplatesPath returns where extracted templates are written for a corpus.
func (c *Config) GetTemplatesPath(corpusName string) string {
	if c.Pipeline.Output.BasePath != "" {
		return fmt.Sprintf("%s/%s/templates.txt", c.Pipeline.Output.BasePath, corpusName)
	}

	return "templates.txt"
}

// GetValuesPath returns where extracted entity values are written for a corpus.
func (c *Config) GetValuesPath(corpusName string) string {
	if c.Pipeline.Output.BasePath != "" {
		return fmt.Sprintf("%s/%s/values.csv", c.Pipeline.Output.BasePath, corpusName)
	}

	return "values.csv"
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Corpora: %d, Count: %d, Scheme: %s, Output: %s}",
		len(c.Pipeline.Corpora),
		c.Pipeline.Generation.Count,
		c.GetScheme(),
		c.Pipeline.Output.BasePath,
	)
}
