package integration

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"

	"piigen/internal/corpus"
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

const flowSeed = 1234

// runPipeline walks the fixture corpus through extraction and generation the
// way the worker does: fetch, validate, extract, prepare, generate.
func runPipeline(t *testing.T) []models.InputSample {
	t.Helper()

	log := logger.NewLogger("error")

	// 1. Ingestion
	reader := corpus.NewReader(log)

	rows, err := reader.LoadFile(filepath.Join("..", "fixtures", "corpus.jsonl"))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	labeled, _ := reader.FilterLabeled(rows)

	valResult := corpus.NewValidator().ValidateRows(labeled)
	if !valResult.IsValid {
		t.Fatalf("Fixture corpus failed validation: %v", valResult.Errors)
	}

	// 2. Extraction
	ext := extractor.New(log, extractor.Options{Context: "sentence", MinLength: 4, Dedupe: true})
	extraction := ext.Extract(valResult.Valid)

	tmpls, err := templates.ParseAll(extraction.Templates)
	if err != nil {
		t.Fatalf("ParseAll failed: %v", err)
	}

	// 3. Generation
	rng := rand.New(rand.NewSource(flowSeed))
	faker := gofakeit.New(flowSeed)

	records, err := fakepii.LoadFile(filepath.Join("..", "fixtures", "identities.csv"))
	if err != nil {
		t.Fatalf("LoadFile identities failed: %v", err)
	}

	tables, err := fakepii.LoadTables()
	if err != nil {
		t.Fatalf("LoadTables failed: %v", err)
	}

	preparer := fakepii.NewPreparer(fakepii.PrepOptions{}, fakepii.NewExtender(rng, faker, tables), log)

	prepped, err := preparer.Prep(records)
	if err != nil {
		t.Fatalf("Prep failed: %v", err)
	}

	store, err := fakepii.NewStore(prepped)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	gen, err := generator.New(log, generator.Options{
		Count:           20,
		LowerCaseRatio:  0.1,
		IncludeMetadata: true,
		SpanToTag:       true,
		Scheme:          tagging.SchemeBILOU,
		Seed:            flowSeed,
	}, tmpls, store, rng)
	if err != nil {
		t.Fatalf("generator.New failed: %v", err)
	}

	result, err := gen.Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	return result.Samples
}

func TestWorkerFlow_GeneratesValidDataset(t *testing.T) {
	samples := runPipeline(t)

	if len(samples) != 20 {
		t.Fatalf("Expected 20 samples, got %d", len(samples))
	}

	// Every generated sample must satisfy the same span invariants as a
	// real labeled corpus.
	validator := corpus.NewValidator()

	for i := range samples {
		sample := &samples[i]

		if err := validator.ValidateSpans(sample.FullText, sample.Spans); err != nil {
			t.Errorf("Sample %d has invalid spans: %v", i, err)
		}

		if len(sample.Tokens) != len(sample.Tags) {
			t.Errorf("Sample %d has %d tokens but %d tags", i, len(sample.Tokens), len(sample.Tags))
		}
	}

	// 4. Emission and read-back
	log := logger.NewLogger("error")
	outPath := filepath.Join(t.TempDir(), "dataset.json")

	content, err := dataset.CanonicalContent(samples)
	if err != nil {
		t.Fatalf("CanonicalContent failed: %v", err)
	}

	m := manifest.Build(content, len(samples), flowSeed, nil)

	writer := dataset.NewWriter(log, dataset.Options{Format: "json", EmbedManifest: true})
	if err := writer.Write(outPath, samples, m); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	readBack, readManifest, err := dataset.Read(outPath)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if len(readBack) != len(samples) {
		t.Errorf("Expected %d samples after read-back, got %d", len(samples), len(readBack))
	}

	if readManifest == nil {
		t.Fatal("Expected embedded manifest, got nil")
	}

	roundTrip, err := dataset.CanonicalContent(readBack)
	if err != nil {
		t.Fatalf("CanonicalContent failed: %v", err)
	}

	if err := readManifest.Verify(roundTrip); err != nil {
		t.Errorf("Manifest verification failed after read-back: %v", err)
	}
}

func TestWorkerFlow_Deterministic(t *testing.T) {
	first := runPipeline(t)
	second := runPipeline(t)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Same seed produced different datasets (-first +second):\n%s", diff)
	}
}
