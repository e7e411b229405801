// Package main provides the unified worker command that combines corpus
// ingestion, template extraction, sample generation and dataset upload.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/joho/godotenv"

	"piigen/internal/config"
	"piigen/internal/corpus"
	"piigen/internal/dataset"
	"piigen/internal/extractor"
	"piigen/internal/fakepii"
	"piigen/internal/fetch"
	"piigen/internal/generator"
	"piigen/internal/labelstudio"
	"piigen/internal/logger"
	"piigen/internal/models"
	"piigen/internal/tagging"
	"piigen/internal/templates"
	"piigen/pkg/manifest"
)

type corpusResult struct {
	name      string
	templates int
	generated int
	uploaded  int
	output    string
}

func main() {
	// 1. Define Command-Line Flags
	// ---------------------------
	configFile := flag.String("config", "", "Path to YAML configuration file (default: configs/piigen.yaml)")
	corpusOnly := flag.String("corpus", "", "Process a single corpus by name")
	count := flag.Int("count", 0, "Samples to generate per corpus (overrides config)")
	seed := flag.Int64("seed", 0, "Random seed (overrides config)")
	skipUpload := flag.Bool("skip-upload", false, "Skip the Label Studio upload phase")

	flag.Parse()

	_ = godotenv.Load()

	// Load Configuration
	path := *configFile
	if path == "" {
		path = "configs/piigen.yaml"
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		fmt.Printf("❌ Failed to load config %s: %v\n", path, err)
		flag.PrintDefaults()
		os.Exit(1)
	}

	if *count > 0 {
		cfg.Pipeline.Generation.Count = *count
	}

	if *seed != 0 {
		cfg.Pipeline.Generation.Seed = *seed
	}

	// Initialize Logger
	log := logger.NewLoggerWithFormat(cfg.Pipeline.Logging.Level, cfg.Pipeline.Logging.Format)

	// Validate Inputs
	corpora := selectCorpora(cfg, *corpusOnly)
	if len(corpora) == 0 {
		log.Error("No enabled corpus matches, check the corpora section of the config")
		os.Exit(1)
	}

	runSeed := cfg.Pipeline.Generation.Seed
	if runSeed == 0 {
		runSeed = time.Now().UnixNano()
	}

	log.Info("🚀 Starting PIIGen Worker Pipeline")
	log.Info(fmt.Sprintf("📍 Corpora: %d enabled", len(corpora)))
	log.Info(fmt.Sprintf("🎯 Output: %s (%s format)", cfg.Pipeline.Output.BasePath, cfg.Pipeline.Output.Format))
	log.Info(fmt.Sprintf("🎲 Seed: %d", runSeed))

	startTime := time.Now()
	ctx := context.Background()

	// Shared services and inputs
	fetcher := fetch.New(log, &cfg.Pipeline.Retry, cfg.Advanced.S3, cfg.Advanced.BufferSizeKb)
	reader := corpus.NewReaderWithBuffer(log, cfg.Advanced.BufferSizeKb)
	validator := corpus.NewValidatorWithOptions(cfg.Advanced.SortSpans, cfg.Advanced.ContinueOnValidationErrors)

	records, err := fakepii.LoadFile(cfg.Pipeline.FakePII.File)
	if err != nil {
		log.Error(fmt.Sprintf("❌ Failed to load identity records: %v", err))
		os.Exit(1)
	}

	tables, err := fakepii.LoadTables()
	if err != nil {
		log.Error(fmt.Sprintf("❌ Failed to load reference tables: %v", err))
		os.Exit(1)
	}

	scheme, err := tagging.ParseScheme(cfg.GetScheme())
	if err != nil {
		log.Error(fmt.Sprintf("❌ Invalid labeling scheme: %v", err))
		os.Exit(1)
	}

	var (
		results  []corpusResult
		failures int
	)

	for i, src := range corpora {
		log.Info(fmt.Sprintf("📦 Corpus %d/%d: %s", i+1, len(corpora), src.Name))

		res, runErr := runCorpus(ctx, cfg, log, fetcher, reader, validator, records, tables, scheme, runSeed, &src, *skipUpload)
		if runErr != nil {
			log.Error(fmt.Sprintf("❌ Corpus %s failed: %v", src.Name, runErr))
			failures++

			continue
		}

		results = append(results, *res)
	}

	// Final Report
	// ------------
	log.Info("✨ Pipeline Complete!")
	fmt.Println("\n------------------------------------------------")
	fmt.Printf("📊 Summary Report\n")
	fmt.Println("------------------------------------------------")
	fmt.Printf("Seed: %d\n", runSeed)

	for _, res := range results {
		fmt.Printf("%s: %d templates, %d samples -> %s\n", res.name, res.templates, res.generated, res.output)

		if res.uploaded > 0 {
			fmt.Printf("  Uploaded %d tasks to Label Studio\n", res.uploaded)
		}
	}

	if failures > 0 {
		fmt.Printf("⚠️  Corpora failed: %d\n", failures)
	}

	fmt.Printf("Total Duration: %v\n", time.Since(startTime))
	fmt.Println("------------------------------------------------")

	if failures > 0 {
		os.Exit(1)
	}
}

// runCorpus walks one corpus through every phase. Each corpus reseeds from the
// shared run seed, so its dataset matches a standalone generator run with the
// same seed.
func runCorpus(
	ctx context.Context,
	cfg *config.Config,
	log *logger.Logger,
	fetcher *fetch.Fetcher,
	reader *corpus.Reader,
	validator *corpus.Validator,
	records []fakepii.Record,
	tables *fakepii.Tables,
	scheme tagging.Scheme,
	runSeed int64,
	src *config.CorpusConfig,
	skipUpload bool,
) (*corpusResult, error) {
	// 2. Ingestion (Fetch & Validate)
	// -------------------------------
	log.Info("Phase 1: Ingestion (Fetching & Validating)...")

	phaseStart := time.Now()

	data, location, err := fetcher.FetchSource(ctx, src)
	if err != nil {
		return nil, err
	}

	log.Info(fmt.Sprintf("✅ Fetched %d bytes from %s in %v", len(data), location, time.Since(phaseStart)))

	rows, err := reader.Load(data, src.Format, src.Name)
	if err != nil {
		return nil, err
	}

	labeled, dropped := reader.FilterLabeled(rows)
	if dropped > 0 {
		log.Info(fmt.Sprintf("ℹ️  Dropped %d unlabeled rows", dropped))
	}

	valResult := validator.ValidateRows(labeled)
	if !valResult.IsValid {
		valResult.PrintErrors()

		if cfg.Features.StrictValidation {
			return nil, fmt.Errorf("corpus %s failed validation in strict mode", src.Name)
		}

		log.Warn(fmt.Sprintf("⚠️  Continuing with %d valid rows", len(valResult.Valid)))
	}

	// 3. Extraction (Templates & Values)
	// ----------------------------------
	log.Info("Phase 2: Extraction (Templates & Values)...")

	phaseStart = time.Now()

	ext := extractor.New(log, extractor.Options{
		Placeholder: cfg.Pipeline.Extraction.Placeholder,
		Context:     cfg.Pipeline.Extraction.Context,
		MinLength:   cfg.Pipeline.Extraction.MinLength,
		MaxLength:   cfg.Pipeline.Extraction.MaxLength,
		Dedupe:      cfg.Pipeline.Extraction.Dedupe,
	})

	extraction := ext.Extract(valResult.Valid)

	templatesPath := cfg.GetTemplatesPath(src.Name)
	if err := extractor.WriteTemplates(templatesPath, extraction.Templates); err != nil {
		return nil, err
	}

	valuesPath := cfg.GetValuesPath(src.Name)
	if err := extractor.WriteValues(valuesPath, extraction.Values); err != nil {
		return nil, err
	}

	log.Info(fmt.Sprintf("✅ Extracted %d templates and %d values in %v", len(extraction.Templates), len(extraction.Values), time.Since(phaseStart)))

	// 4. Generation (Fill & Tag)
	// --------------------------
	log.Info("Phase 3: Generation (Filling & Tagging)...")

	phaseStart = time.Now()

	rng := rand.New(rand.NewSource(runSeed))
	faker := gofakeit.New(uint64(runSeed))

	pools, err := extractor.ReadValues(valuesPath)
	if err != nil {
		return nil, err
	}

	preparer := fakepii.NewPreparer(fakepii.PrepOptions{
		IgnoreTypes: toSet(cfg.Pipeline.FakePII.IgnoreTypes),
		RealValues:  pools,
	}, fakepii.NewExtender(rng, faker, tables), log)

	prepped, err := preparer.Prep(records)
	if err != nil {
		return nil, err
	}

	store, err := fakepii.NewStore(prepped)
	if err != nil {
		return nil, err
	}

	tmpls, err := templates.ParseAll(extraction.Templates)
	if err != nil {
		return nil, err
	}

	gen, err := generator.New(log, generator.Options{
		Count:           cfg.Pipeline.Generation.Count,
		LowerCaseRatio:  cfg.Pipeline.Generation.LowerCaseRatio,
		IncludeMetadata: cfg.Pipeline.Generation.IncludeMetadata,
		Genders:         cfg.Pipeline.FakePII.Genders,
		NameSets:        cfg.Pipeline.FakePII.NameSets,
		SpanToTag:       cfg.Pipeline.Generation.SpanToTag,
		Scheme:          scheme,
		Seed:            runSeed,
	}, tmpls, store, rng)
	if err != nil {
		return nil, err
	}

	if cfg.Pipeline.Generation.DictionaryFile != "" {
		vocab, vocabErr := generator.LoadVocabulary(cfg.Pipeline.Generation.DictionaryFile)
		if vocabErr != nil {
			log.Warn(fmt.Sprintf("⚠️  Could not load vocabulary: %v", vocabErr))
		} else {
			gen.SetVocabulary(vocab)
		}
	}

	genResult, err := gen.Generate()
	if err != nil {
		return nil, err
	}

	log.Info(fmt.Sprintf("✅ Generated %d samples in %v", genResult.Report.Generated, time.Since(phaseStart)))

	// Write the dataset with its manifest
	content, err := dataset.CanonicalContent(genResult.Samples)
	if err != nil {
		return nil, err
	}

	templatesHash, err := manifest.HashFile(templatesPath)
	if err != nil {
		return nil, err
	}

	fakePIIHash, err := manifest.HashFile(cfg.Pipeline.FakePII.File)
	if err != nil {
		return nil, err
	}

	sourceHashes := map[string]string{
		templatesPath:             templatesHash,
		cfg.Pipeline.FakePII.File: fakePIIHash,
	}

	m := manifest.Build(content, len(genResult.Samples), runSeed, sourceHashes)

	writer := dataset.NewWriter(log, dataset.Options{
		Format:        cfg.Pipeline.Output.Format,
		PrettyPrint:   cfg.Pipeline.Output.PrettyPrint,
		CreateBackup:  cfg.Pipeline.Output.CreateBackup,
		EmbedManifest: cfg.Features.EmbedManifest,
	})

	outputPath := cfg.GetOutputPath(src.Name)
	if err := writer.Write(outputPath, genResult.Samples, m); err != nil {
		return nil, err
	}

	log.Info(fmt.Sprintf("💾 Saved dataset to: %s", outputPath))

	res := &corpusResult{
		name:      src.Name,
		templates: len(extraction.Templates),
		generated: genResult.Report.Generated,
		output:    outputPath,
	}

	// 5. Synchronization (Label Studio)
	// ---------------------------------
	ls := cfg.Features.LabelStudio
	if !ls.Enabled || skipUpload {
		return res, nil
	}

	log.Info("Phase 4: Synchronization (Uploading)...")

	token := os.Getenv(ls.TokenEnv)
	if token == "" {
		log.Warn(fmt.Sprintf("⚠️  %s is not set, skipping upload", ls.TokenEnv))

		return res, nil
	}

	uploaded, err := uploadSamples(ctx, log, ls, token, genResult.Samples)
	if err != nil {
		return nil, err
	}

	res.uploaded = uploaded

	return res, nil
}

func uploadSamples(ctx context.Context, log *logger.Logger, ls config.LabelStudioConfig, token string, samples []models.InputSample) (int, error) {
	uploader := labelstudio.NewUploader(ls.URL, token, ls.BatchSize, log)

	result, err := uploader.Upload(ctx, ls.ProjectID, samples)
	if err != nil {
		return 0, err
	}

	for _, uploadErr := range result.Errors {
		log.Warn(fmt.Sprintf("⚠️  Upload error: %v", uploadErr))
	}

	log.Info(fmt.Sprintf("✅ Uploaded %d tasks in %d batches", result.Created, result.Batches))

	return result.Created, nil
}

func selectCorpora(cfg *config.Config, only string) []config.CorpusConfig {
	enabled := cfg.GetEnabledCorpora()
	if only == "" {
		return enabled
	}

	for _, src := range enabled {
		if src.Name == only {
			return []config.CorpusConfig{src}
		}
	}

	return nil
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))

	for _, v := range values {
		set[strings.TrimSpace(v)] = true
	}

	return set
}
