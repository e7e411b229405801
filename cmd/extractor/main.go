// Package main provides the extractor command-line tool that turns annotated
// corpora into placeholder templates and value pools.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"piigen/internal/config"
	"piigen/internal/corpus"
	"piigen/internal/extractor"
	"piigen/internal/fetch"
	"piigen/internal/logger"
)

func main() {
	// Define command-line flags
	configFile := flag.String("config", "", "Path to YAML configuration file")
	inputFile := flag.String("input", "", "Corpus file to extract from (overrides config)")
	format := flag.String("format", "jsonl", "Corpus format for -input (jsonl, json or csv)")
	outputDir := flag.String("output", "", "Output base directory (overrides config)")
	placeholder := flag.String("placeholder", "", "Placeholder for untyped spans (overrides config)")
	contextMode := flag.String("context", "", "Template context: 'sentence' or 'full' (overrides config)")
	showValidation := flag.Bool("validate", false, "Print per-row validation details")
	showUsage := flag.Bool("help", false, "Show usage information")

	flag.Parse()

	if *showUsage {
		printUsage()
		os.Exit(0)
	}

	// Load .env if present so S3 credentials can live next to the config.
	_ = godotenv.Load()

	cfg := loadConfig(*configFile, *inputFile, *format, *outputDir)

	// CLI overrides on top of whatever config was loaded
	if *placeholder != "" {
		cfg.Pipeline.Extraction.Placeholder = *placeholder
	}

	if *contextMode != "" {
		cfg.Pipeline.Extraction.Context = *contextMode
	}

	if *outputDir != "" {
		cfg.Pipeline.Output.BasePath = *outputDir
	}

	logr := logger.NewLoggerWithFormat(cfg.Pipeline.Logging.Level, cfg.Pipeline.Logging.Format)

	printHeader(cfg)

	fetcher := fetch.New(logr, &cfg.Pipeline.Retry, cfg.Advanced.S3, cfg.Advanced.BufferSizeKb)
	reader := corpus.NewReaderWithBuffer(logr, cfg.Advanced.BufferSizeKb)
	validator := corpus.NewValidatorWithOptions(cfg.Advanced.SortSpans, cfg.Advanced.ContinueOnValidationErrors)

	ext := extractor.New(logr, extractor.Options{
		Placeholder: cfg.Pipeline.Extraction.Placeholder,
		Context:     cfg.Pipeline.Extraction.Context,
		MinLength:   cfg.Pipeline.Extraction.MinLength,
		MaxLength:   cfg.Pipeline.Extraction.MaxLength,
		Dedupe:      cfg.Pipeline.Extraction.Dedupe,
	})

	enabled := cfg.GetEnabledCorpora()
	fmt.Printf("🚀 Processing %d enabled corpora...\n", len(enabled))

	ctx := context.Background()
	failures := 0

	for i := range enabled {
		src := &enabled[i]

		fmt.Printf("\n----------------------------------------------------------------\n")
		fmt.Printf("📦 Corpus %d/%d: %s\n", i+1, len(enabled), src.Name)

		if err := runCorpus(ctx, cfg, src, fetcher, reader, validator, ext, *showValidation); err != nil {
			fmt.Printf("⚠️  Skipping corpus %s: %v\n", src.Name, err)

			failures++
		}
	}

	if failures > 0 {
		fmt.Printf("\n⚠️  Extraction finished with %d failed corpora\n", failures)
		os.Exit(1)
	}

	fmt.Println("\n✨ Extraction complete!")
}

func runCorpus(
	ctx context.Context,
	cfg *config.Config,
	src *config.CorpusConfig,
	fetcher *fetch.Fetcher,
	reader *corpus.Reader,
	validator *corpus.Validator,
	ext *extractor.Extractor,
	showValidation bool,
) error {
	fmt.Printf("⏳ Fetching: %s\n", src.GetSource())

	data, location, err := fetcher.FetchSource(ctx, src)
	if err != nil {
		return err
	}

	fmt.Printf("✅ Fetched %d bytes from %s\n", len(data), location)

	rows, err := reader.Load(data, src.Format, src.Name)
	if err != nil {
		return err
	}

	labeled, dropped := reader.FilterLabeled(rows)
	fmt.Printf("📊 Loaded %d rows (%d unlabeled dropped)\n", len(rows), dropped)

	fmt.Println("\n🔍 Validating span invariants...")

	valResult := validator.ValidateRows(labeled)

	if showValidation {
		valResult.PrintWarnings()
		valResult.PrintErrors()
	}

	fmt.Printf("%s\n", valResult)

	if !valResult.IsValid && cfg.Features.StrictValidation {
		return fmt.Errorf("corpus %s failed validation in strict mode", src.Name)
	}

	fmt.Println("\n✂️  Extracting templates...")

	result := ext.Extract(valResult.Valid)

	templatesPath := cfg.GetTemplatesPath(src.Name)
	if err := extractor.WriteTemplates(templatesPath, result.Templates); err != nil {
		return err
	}

	fmt.Printf("✅ Wrote %d templates to: %s\n", len(result.Templates), templatesPath)

	valuesPath := cfg.GetValuesPath(src.Name)
	if err := extractor.WriteValues(valuesPath, result.Values); err != nil {
		return err
	}

	fmt.Printf("✅ Wrote %d values to: %s\n", len(result.Values), valuesPath)

	fmt.Printf("\n📈 Summary:\n")
	fmt.Printf("  Rows processed: %d\n", result.Report.RowsProcessed)
	fmt.Printf("  Spans replaced: %d\n", result.Report.SpansReplaced)
	fmt.Printf("  Templates emitted: %d (deduped: %d, too short: %d, too long: %d)\n",
		result.Report.TemplatesEmitted,
		result.Report.TemplatesDeduped,
		result.Report.TemplatesTooShort,
		result.Report.TemplatesTooLong,
	)

	return nil
}

func loadConfig(configFile, inputFile, format, outputDir string) *config.Config {
	if configFile != "" {
		fmt.Printf("⚙️  Loading configuration from: %s\n", configFile)

		cfg, err := config.LoadConfig(configFile)
		if err != nil {
			log.Fatalf("❌ Failed to load config: %v\n", err)
		}

		fmt.Printf("✅ Configuration loaded: %s\n\n", cfg)

		return cfg
	}

	if inputFile != "" {
		fmt.Println("⚙️  Using command-line arguments")
		fmt.Println()

		return createConfigFromCLI(inputFile, format, outputDir)
	}

	// Try to load default config
	defaultConfig := "configs/piigen.yaml"
	if _, statErr := os.Stat(defaultConfig); statErr == nil {
		fmt.Printf("⚙️  Loading default configuration: %s\n", defaultConfig)

		cfg, err := config.LoadConfig(defaultConfig)
		if err != nil {
			log.Fatalf("❌ Failed to load default config: %v\n", err)
		}

		fmt.Printf("✅ Configuration loaded: %s\n\n", cfg)

		return cfg
	}

	log.Fatal("❌ Please provide -config file or -input flag, or place configs/piigen.yaml in working directory")

	return nil
}

// createConfigFromCLI creates a config from CLI arguments.
func createConfigFromCLI(inputFile, format, outputDir string) *config.Config {
	if outputDir == "" {
		outputDir = "data"
	}

	return &config.Config{
		Pipeline: config.PipelineConfig{
			Corpora: []config.CorpusConfig{
				{
					Name:    "cli",
					File:    inputFile,
					Format:  format,
					Enabled: true,
				},
			},
			Extraction: config.ExtractionConfig{
				Placeholder: "ADDRESS",
				Context:     "sentence",
				Dedupe:      true,
			},
			FakePII: config.FakePIIConfig{
				File: "data/fake_pii.csv",
			},
			Generation: config.GenerationConfig{
				Count:          1500,
				LowerCaseRatio: 0.05,
				Scheme:         "BILOU",
			},
			Output: config.OutputConfig{
				BasePath:    outputDir,
				Format:      "json",
				PrettyPrint: true,
			},
			Logging: config.LoggingConfig{
				Level:  "info",
				Format: "text",
			},
			Retry: config.RetryPolicy{
				MaxAttempts:       3,
				InitialDelayMs:    500,
				MaxDelayMs:        30000,
				BackoffMultiplier: 2.0,
				TimeoutSec:        30,
			},
		},
		Advanced: config.AdvancedConfig{
			BufferSizeKb: 4096,
		},
	}
}

func printHeader(cfg *config.Config) {
	fmt.Println("✂️  PIIGen Template Extractor")
	fmt.Printf("Enabled corpora: %d\n", len(cfg.GetEnabledCorpora()))
	fmt.Printf("Context: %s | Placeholder: %s | Dedupe: %v\n",
		cfg.Pipeline.Extraction.Context,
		cfg.Pipeline.Extraction.Placeholder,
		cfg.Pipeline.Extraction.Dedupe,
	)
	fmt.Printf("Output: %s\n", cfg.Pipeline.Output.BasePath)
	fmt.Println()
}

func printUsage() {
	fmt.Println("Usage: ./bin/extractor [OPTIONS]")
	fmt.Println()
	fmt.Println("Modes:")
	fmt.Println("  1. Config-based:   ./bin/extractor -config configs/piigen.yaml")
	fmt.Println("  2. Default config: ./bin/extractor (reads configs/piigen.yaml if exists)")
	fmt.Println("  3. CLI arguments:  ./bin/extractor -input corpus.jsonl -output data")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  ./bin/extractor -config configs/piigen.yaml")
	fmt.Println("  ./bin/extractor -input data/enron_labeled.jsonl -context sentence -output data")
	fmt.Println("  ./bin/extractor -config configs/piigen.yaml -validate")
}
