// Package main provides the inspect command-line tool for checking corpus
// files and generated datasets without modifying them.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"piigen/internal/corpus"
	"piigen/internal/dataset"
	"piigen/internal/logger"
	"piigen/internal/models"
	"piigen/pkg/manifest"
)

// maxReportedErrors caps the per-sample error listing so a broken dataset does
// not flood the terminal.
const maxReportedErrors = 10

func main() {
	corpusPath := flag.String("corpus", "", "Path to a labeled corpus file to validate")
	datasetPath := flag.String("dataset", "", "Path to a generated dataset to verify")
	format := flag.String("format", "", "Corpus format: json, jsonl or csv (default: from extension)")
	strict := flag.Bool("strict", false, "Exit non-zero on warnings as well as errors")
	flag.Parse()

	if *corpusPath == "" && *datasetPath == "" {
		fmt.Println("Usage: inspect -corpus <path> | -dataset <path>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	logr := logger.NewLogger("warn")

	failed := false

	if *corpusPath != "" {
		if !inspectCorpus(logr, *corpusPath, *format, *strict) {
			failed = true
		}
	}

	if *datasetPath != "" {
		if !inspectDataset(*datasetPath) {
			failed = true
		}
	}

	if failed {
		os.Exit(1)
	}
}

// inspectCorpus validates the span invariants of a labeled corpus and prints
// the validation report.
func inspectCorpus(logr *logger.Logger, path, format string, strict bool) bool {
	fmt.Printf("📂 Reading corpus: %s\n", path)

	reader := corpus.NewReader(logr)

	var (
		rows []models.CorpusRow
		err  error
	)

	if format == "" {
		rows, err = reader.LoadFile(path)
	} else {
		var data []byte

		data, err = os.ReadFile(path)
		if err == nil {
			rows, err = reader.Load(data, format, path)
		}
	}

	if err != nil {
		log.Fatalf("❌ Failed to load corpus: %v\n", err)
	}

	labeled, dropped := reader.FilterLabeled(rows)

	fmt.Printf("🔍 Loaded %d rows (%d labeled, %d unlabeled)\n", len(rows), len(labeled), dropped)

	// Collect every row error instead of stopping at the first bad row.
	validator := corpus.NewValidatorWithOptions(false, true)
	result := validator.ValidateRows(labeled)

	fmt.Println(result)
	result.PrintErrors()
	result.PrintWarnings()

	if !result.IsValid {
		fmt.Println("❌ Corpus validation failed")

		return false
	}

	if strict && len(result.Warnings) > 0 {
		fmt.Println("❌ Corpus has warnings and -strict is set")

		return false
	}

	fmt.Println("✅ Corpus validation passed")

	return true
}

// inspectDataset checks a generated dataset: its manifest hash, the span
// invariants of every sample and the token/tag alignment.
func inspectDataset(path string) bool {
	fmt.Printf("📂 Reading dataset: %s\n", path)

	samples, m, err := dataset.Read(path)
	if err != nil {
		log.Fatalf("❌ Failed to load dataset: %v\n", err)
	}

	fmt.Printf("🔍 Loaded %d samples\n", len(samples))

	ok := verifyManifest(path, samples, m)

	if !verifySamples(samples) {
		ok = false
	}

	stats := dataset.Collect(samples)
	fmt.Println()
	fmt.Print(stats.RenderTable())

	if ok {
		fmt.Println("✅ Dataset checks passed")
	} else {
		fmt.Println("❌ Dataset checks failed")
	}

	return ok
}

// verifyManifest checks the dataset content against its embedded or sidecar
// manifest. A missing manifest is reported but does not fail the inspection.
func verifyManifest(path string, samples []models.InputSample, m *manifest.Manifest) bool {
	if m == nil {
		var err error

		m, err = dataset.ReadManifest(path)
		if err != nil {
			if errors.Is(err, manifest.ErrNoManifest) {
				fmt.Println("ℹ️  No manifest found, skipping hash verification")

				return true
			}

			fmt.Printf("❌ Failed to read manifest: %v\n", err)

			return false
		}
	}

	content, err := dataset.CanonicalContent(samples)
	if err != nil {
		fmt.Printf("❌ Failed to canonicalize dataset: %v\n", err)

		return false
	}

	if err := m.Verify(content); err != nil {
		fmt.Printf("❌ Manifest verification failed: %v\n", err)

		return false
	}

	fmt.Printf("✅ Manifest verified (seed %d, %d samples, hash %.12s...)\n", m.Seed, m.SampleCount, m.Hash)

	return true
}

// verifySamples applies the corpus span invariants to every generated sample
// and checks that token and tag sequences line up.
func verifySamples(samples []models.InputSample) bool {
	validator := corpus.NewValidator()

	reported := 0
	failures := 0

	for i := range samples {
		sample := &samples[i]

		if err := validator.ValidateSpans(sample.FullText, sample.Spans); err != nil {
			failures++

			if reported < maxReportedErrors {
				fmt.Printf("  ❌ Sample %d: %v\n", i, err)
				reported++
			}

			continue
		}

		if len(sample.Tags) > 0 && len(sample.Tags) != len(sample.Tokens) {
			failures++

			if reported < maxReportedErrors {
				fmt.Printf("  ❌ Sample %d: %d tokens but %d tags\n", i, len(sample.Tokens), len(sample.Tags))
				reported++
			}
		}
	}

	if failures > 0 {
		if failures > reported {
			fmt.Printf("  ... and %d more\n", failures-reported)
		}

		fmt.Printf("❌ %d of %d samples failed span checks\n", failures, len(samples))

		return false
	}

	fmt.Printf("✅ All %d samples pass span checks\n", len(samples))

	return true
}
