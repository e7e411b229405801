// Package main provides the generator command-line tool that renders labeled
// synthetic samples from templates and fake identity records.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/joho/godotenv"

	"piigen/internal/config"
	"piigen/internal/dataset"
	"piigen/internal/extractor"
	"piigen/internal/fakepii"
	"piigen/internal/generator"
	"piigen/internal/logger"
	"piigen/internal/models"
	"piigen/internal/tagging"
	"piigen/internal/templates"
	"piigen/pkg/manifest"
)

func main() {
	// Define command-line flags
	configFile := flag.String("config", "", "Path to YAML configuration file")
	templatesFile := flag.String("templates", "", "Templates file (overrides config)")
	fakePIIFile := flag.String("fake-pii", "", "Fake identity records file (overrides config)")
	valuesFile := flag.String("values", "", "Extracted values CSV for real-value pools (optional)")
	corpusName := flag.String("corpus", "", "Corpus name for config-derived paths")
	count := flag.Int("count", 0, "Number of samples to generate (overrides config)")
	outputFile := flag.String("output", "", "Dataset output path (overrides config)")
	seed := flag.Int64("seed", 0, "Random seed, 0 seeds from current time (overrides config)")
	scheme := flag.String("scheme", "", "Token labeling scheme: BILOU, BIO or IO (overrides config)")
	showUsage := flag.Bool("help", false, "Show usage information")

	flag.Parse()

	if *showUsage {
		printUsage()
		os.Exit(0)
	}

	_ = godotenv.Load()

	cfg := loadConfig(*configFile)

	// CLI overrides on top of whatever config was loaded
	if *templatesFile == "" {
		*templatesFile = cfg.GetTemplatesPath(resolveCorpusName(cfg, *corpusName))
	}

	if *fakePIIFile == "" {
		*fakePIIFile = cfg.Pipeline.FakePII.File
	}

	if *count > 0 {
		cfg.Pipeline.Generation.Count = *count
	}

	if *seed != 0 {
		cfg.Pipeline.Generation.Seed = *seed
	}

	if *scheme != "" {
		cfg.Pipeline.Generation.Scheme = *scheme
	}

	if *outputFile == "" {
		*outputFile = cfg.GetOutputPath(resolveCorpusName(cfg, *corpusName))
	}

	logr := logger.NewLoggerWithFormat(cfg.Pipeline.Logging.Level, cfg.Pipeline.Logging.Format)

	printHeader(cfg, *templatesFile, *fakePIIFile, *outputFile)

	startTime := time.Now()

	// One seeded stream drives preparation and sampling, so a fixed seed
	// reproduces the whole dataset.
	runSeed := cfg.Pipeline.Generation.Seed
	if runSeed == 0 {
		runSeed = time.Now().UnixNano()
	}

	rng := rand.New(rand.NewSource(runSeed))
	faker := gofakeit.New(uint64(runSeed))

	fmt.Printf("🎲 Seed: %d\n\n", runSeed)

	// Phase 1: load inputs
	fmt.Println("Phase 1: Loading templates and identities...")

	tmpls, err := templates.Load(*templatesFile)
	if err != nil {
		log.Fatalf("❌ Failed to load templates: %v\n", err)
	}

	fmt.Printf("✅ Loaded %d templates from: %s\n", len(tmpls), *templatesFile)

	records, err := fakepii.LoadFile(*fakePIIFile)
	if err != nil {
		log.Fatalf("❌ Failed to load identity records: %v\n", err)
	}

	fmt.Printf("✅ Loaded %d identity records from: %s\n", len(records), *fakePIIFile)

	// Phase 2: derive entities
	fmt.Println("\nPhase 2: Preparing identity records...")

	tables, err := fakepii.LoadTables()
	if err != nil {
		log.Fatalf("❌ Failed to load reference tables: %v\n", err)
	}

	pools := loadRealValues(cfg, *valuesFile, *corpusName)

	if cfg.Pipeline.FakePII.AddressesFile != "" {
		addresses, addrErr := loadAddresses(cfg.Pipeline.FakePII.AddressesFile)
		if addrErr != nil {
			fmt.Printf("⚠️  Could not load addresses file: %v\n", addrErr)
		} else {
			if pools == nil {
				pools = make(map[string][]string)
			}

			pools["ADDRESS"] = append(pools["ADDRESS"], addresses...)
		}
	}

	if len(pools) > 0 {
		fmt.Printf("📎 Real-value pools: %d entity types\n", len(pools))
	}

	preparer := fakepii.NewPreparer(fakepii.PrepOptions{
		IgnoreTypes: toSet(cfg.Pipeline.FakePII.IgnoreTypes),
		RealValues:  pools,
	}, fakepii.NewExtender(rng, faker, tables), logr)

	prepped, err := preparer.Prep(records)
	if err != nil {
		log.Fatalf("❌ Failed to prepare identity records: %v\n", err)
	}

	store, err := fakepii.NewStore(prepped)
	if err != nil {
		log.Fatalf("❌ Failed to build identity store: %v\n", err)
	}

	fmt.Printf("✅ Identity store ready: %d records, %d entity columns\n", store.Len(), len(store.Columns()))

	// Phase 3: generate
	fmt.Println("\nPhase 3: Generating samples...")

	tagScheme, err := tagging.ParseScheme(cfg.GetScheme())
	if err != nil {
		log.Fatalf("❌ Invalid labeling scheme: %v\n", err)
	}

	gen, err := generator.New(logr, generator.Options{
		Count:           cfg.Pipeline.Generation.Count,
		LowerCaseRatio:  cfg.Pipeline.Generation.LowerCaseRatio,
		IncludeMetadata: cfg.Pipeline.Generation.IncludeMetadata,
		Genders:         cfg.Pipeline.FakePII.Genders,
		NameSets:        cfg.Pipeline.FakePII.NameSets,
		SpanToTag:       cfg.Pipeline.Generation.SpanToTag,
		Scheme:          tagScheme,
		Seed:            runSeed,
	}, tmpls, store, rng)
	if err != nil {
		log.Fatalf("❌ Failed to create generator: %v\n", err)
	}

	if cfg.Pipeline.Generation.DictionaryFile != "" {
		vocab, vocabErr := generator.LoadVocabulary(cfg.Pipeline.Generation.DictionaryFile)
		if vocabErr != nil {
			fmt.Printf("⚠️  Could not load vocabulary: %v\n", vocabErr)
		} else {
			gen.SetVocabulary(vocab)
			fmt.Printf("📖 Vocabulary loaded: %d words\n", vocab.Len())
		}
	}

	result, err := gen.Generate()
	if err != nil {
		log.Fatalf("❌ Generation failed: %v\n", err)
	}

	fmt.Printf("✅ Generated %d samples in %v\n", result.Report.Generated, time.Since(startTime))

	// Phase 4: write dataset
	fmt.Println("\nPhase 4: Writing dataset...")

	m, err := buildManifest(result.Samples, runSeed, *templatesFile, *fakePIIFile)
	if err != nil {
		log.Fatalf("❌ Failed to build manifest: %v\n", err)
	}

	writer := dataset.NewWriter(logr, dataset.Options{
		Format:        cfg.Pipeline.Output.Format,
		PrettyPrint:   cfg.Pipeline.Output.PrettyPrint,
		CreateBackup:  cfg.Pipeline.Output.CreateBackup,
		EmbedManifest: cfg.Features.EmbedManifest,
	})

	if err := writer.Write(*outputFile, result.Samples, m); err != nil {
		log.Fatalf("❌ Failed to write dataset: %v\n", err)
	}

	fmt.Printf("✅ Saved to: %s\n", *outputFile)

	// Final report
	stats := dataset.Collect(result.Samples)

	fmt.Println("\n------------------------------------------------")
	fmt.Println("📊 Summary Report")
	fmt.Println("------------------------------------------------")
	fmt.Printf("%s\n", stats)
	fmt.Printf("Dataset hash: %s\n", m.Hash)
	fmt.Printf("Total Duration: %v\n", time.Since(startTime))
	fmt.Println()
	fmt.Print(stats.RenderTable())
	fmt.Println("------------------------------------------------")
}

// buildManifest hashes the dataset content together with its input files.
func buildManifest(samples []models.InputSample, seed int64, inputs ...string) (*manifest.Manifest, error) {
	content, err := dataset.CanonicalContent(samples)
	if err != nil {
		return nil, err
	}

	sourceHashes := make(map[string]string, len(inputs))

	for _, input := range inputs {
		hash, hashErr := manifest.HashFile(input)
		if hashErr != nil {
			return nil, hashErr
		}

		sourceHashes[input] = hash
	}

	return manifest.Build(content, len(samples), seed, sourceHashes), nil
}

// loadRealValues loads the extractor's values CSV if one is configured or
// present at the config-derived path.
func loadRealValues(cfg *config.Config, valuesFile, corpusName string) map[string][]string {
	path := valuesFile
	if path == "" {
		path = cfg.GetValuesPath(resolveCorpusName(cfg, corpusName))

		if _, err := os.Stat(path); err != nil {
			return nil
		}
	}

	pools, err := extractor.ReadValues(path)
	if err != nil {
		fmt.Printf("⚠️  Could not load values file %s: %v\n", path, err)

		return nil
	}

	return pools
}

// loadAddresses reads a curated address list, one address per line.
func loadAddresses(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var addresses []string

	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		addresses = append(addresses, line)
	}

	return addresses, nil
}

// resolveCorpusName picks the corpus whose derived paths are used: the -corpus
// flag if given, otherwise the first enabled corpus.
func resolveCorpusName(cfg *config.Config, override string) string {
	if override != "" {
		return override
	}

	enabled := cfg.GetEnabledCorpora()
	if len(enabled) > 0 {
		return enabled[0].Name
	}

	return "default"
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))

	for _, v := range values {
		set[strings.TrimSpace(v)] = true
	}

	return set
}

func loadConfig(configFile string) *config.Config {
	path := configFile
	if path == "" {
		path = "configs/piigen.yaml"

		if _, err := os.Stat(path); err != nil {
			log.Fatal("❌ Please provide -config file or place configs/piigen.yaml in working directory")
		}

		fmt.Printf("⚙️  Loading default configuration: %s\n", path)
	} else {
		fmt.Printf("⚙️  Loading configuration from: %s\n", path)
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v\n", err)
	}

	fmt.Printf("✅ Configuration loaded: %s\n\n", cfg)

	return cfg
}

func printHeader(cfg *config.Config, templatesFile, fakePIIFile, outputFile string) {
	fmt.Println("🧬 PIIGen Sample Generator")
	fmt.Printf("Templates: %s\n", templatesFile)
	fmt.Printf("Identities: %s\n", fakePIIFile)
	fmt.Printf("Count: %d | Lowercase ratio: %.2f | Scheme: %s\n",
		cfg.Pipeline.Generation.Count,
		cfg.Pipeline.Generation.LowerCaseRatio,
		cfg.GetScheme(),
	)
	fmt.Printf("Output: %s (%s format)\n", outputFile, cfg.Pipeline.Output.Format)
	fmt.Println()
}

func printUsage() {
	fmt.Println("Usage: ./bin/generator [OPTIONS]")
	fmt.Println()
	fmt.Println("Modes:")
	fmt.Println("  1. Config-based:   ./bin/generator -config configs/piigen.yaml")
	fmt.Println("  2. Default config: ./bin/generator (reads configs/piigen.yaml if exists)")
	fmt.Println("  3. Overrides:      ./bin/generator -config configs/piigen.yaml -count 5000 -seed 42")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  ./bin/generator -config configs/piigen.yaml")
	fmt.Println("  ./bin/generator -config configs/piigen.yaml -corpus enron -count 3000")
	fmt.Println("  ./bin/generator -templates data/enron/templates.txt -fake-pii data/fake_pii.csv -output dataset.json")
}
