// Package main provides the uploader command-line tool for syncing generated
// datasets to Label Studio.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"piigen/internal/dataset"
	"piigen/internal/labelstudio"
	"piigen/internal/logger"
	"piigen/internal/models"
	"piigen/pkg/manifest"
)

func main() {
	_ = godotenv.Load()

	// Command line flags
	inputFile := flag.String("input", "", "Path to dataset file (required)")
	baseURL := flag.String("url", "http://localhost:8080", "Label Studio base URL")
	token := flag.String("token", os.Getenv("LABEL_STUDIO_TOKEN"), "API token for authentication")
	projectID := flag.Int("project", 0, "Label Studio project ID (required)")
	batchSize := flag.Int("batch-size", 0, "Tasks per import request (default 100)")
	skipVerify := flag.Bool("skip-verify", false, "Skip manifest hash verification")

	flag.Parse()

	// Validate required flags
	if *inputFile == "" || *projectID == 0 {
		fmt.Println("Error: --input and --project flags are required")
		fmt.Println("Usage: uploader --input <path> --project <id> [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger("info")
	log.Info(fmt.Sprintf("Starting uploader: input=%s, url=%s, project=%d", *inputFile, *baseURL, *projectID))

	if *token == "" {
		log.Warn("No API token provided (set LABEL_STUDIO_TOKEN or -token), attempting upload anyway")
	}

	// Load dataset
	samples, m, err := dataset.Read(*inputFile)
	if err != nil {
		log.Error(fmt.Sprintf("Failed to load dataset: %v", err))
		os.Exit(1)
	}

	log.Info(fmt.Sprintf("Loaded dataset: samples=%d", len(samples)))

	// Verify provenance before pushing anything out
	if !*skipVerify {
		if verifyErr := verifyDataset(*inputFile, samples, m); verifyErr != nil {
			log.Error(fmt.Sprintf("Dataset verification failed: %v", verifyErr))
			os.Exit(1)
		}
	}

	// Upload
	uploader := labelstudio.NewUploader(*baseURL, *token, *batchSize, log)

	result, err := uploader.Upload(context.Background(), *projectID, samples)
	if err != nil {
		log.Error(fmt.Sprintf("Upload failed: %v", err))
		os.Exit(1)
	}

	// Report results
	log.Info(fmt.Sprintf("Upload complete: created=%d, batches=%d, errors=%d",
		result.Created, result.Batches, len(result.Errors)))

	if len(result.Errors) > 0 {
		log.Warn(fmt.Sprintf("Some batches failed to upload: count=%d", len(result.Errors)))

		for _, uploadErr := range result.Errors {
			fmt.Printf("  - %v\n", uploadErr)
		}

		os.Exit(1)
	}

	fmt.Printf("\n✓ Successfully uploaded %d tasks to project %d\n", result.Created, *projectID)
}

// verifyDataset checks the dataset content against its manifest hash. A
// dataset without a manifest passes; a manifest that does not match fails.
func verifyDataset(path string, samples []models.InputSample, m *manifest.Manifest) error {
	if m == nil {
		var err error

		m, err = dataset.ReadManifest(path)
		if err != nil {
			if errors.Is(err, manifest.ErrNoManifest) {
				return nil
			}

			return err
		}
	}

	content, err := dataset.CanonicalContent(samples)
	if err != nil {
		return err
	}

	return m.Verify(content)
}
