package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"piigen/internal/config"
	"piigen/internal/corpus"
	"piigen/internal/fetch"
	"piigen/internal/logger"
)

func testRetryPolicy() *config.RetryPolicy {
	return &config.RetryPolicy{
		MaxAttempts:       2,
		InitialDelayMs:    1,
		MaxDelayMs:        5,
		BackoffMultiplier: 2.0,
		TimeoutSec:        5,
	}
}

func TestIngestion_LocalFile(t *testing.T) {
	// Path to fixture
	fixturePath := filepath.Join("..", "fixtures", "corpus.jsonl")

	log := logger.NewLogger("error")
	fetcher := fetch.New(log, testRetryPolicy(), config.S3Config{}, 64)

	src := &config.CorpusConfig{
		Name:    "fixture",
		File:    fixturePath,
		Format:  "jsonl",
		Enabled: true,
	}

	// Run Fetch (simulating what 'extractor' cmd does with a file corpus)
	data, location, err := fetcher.FetchSource(context.Background(), src)
	if err != nil {
		t.Fatalf("FetchSource failed: %v", err)
	}

	if location != fixturePath {
		t.Errorf("Expected location %s, got %s", fixturePath, location)
	}

	// Load and filter rows
	reader := corpus.NewReader(log)

	rows, err := reader.Load(data, src.Format, src.Name)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(rows) != 4 {
		t.Fatalf("Expected 4 rows, got %d", len(rows))
	}

	labeled, dropped := reader.FilterLabeled(rows)
	if len(labeled) != 3 || dropped != 1 {
		t.Errorf("Expected 3 labeled rows and 1 dropped, got %d and %d", len(labeled), dropped)
	}

	if labeled[0].Spans[0].EntityValue != "Laura Chen" {
		t.Errorf("Expected first span value 'Laura Chen', got '%s'", labeled[0].Spans[0].EntityValue)
	}
}

func TestIngestion_HTTPFallback(t *testing.T) {
	fixturePath := filepath.Join("..", "fixtures", "corpus.jsonl")

	content, err := os.ReadFile(fixturePath)
	if err != nil {
		t.Fatalf("Failed to read fixture: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(content)
	}))
	defer server.Close()

	log := logger.NewLogger("error")
	fetcher := fetch.New(log, testRetryPolicy(), config.S3Config{}, 64)

	// Primary file location is gone, so the fetch falls through to the URL.
	src := &config.CorpusConfig{
		Name:    "fixture",
		File:    filepath.Join(t.TempDir(), "missing.jsonl"),
		URL:     server.URL,
		Format:  "jsonl",
		Enabled: true,
	}

	data, location, err := fetcher.FetchSource(context.Background(), src)
	if err != nil {
		t.Fatalf("FetchSource failed: %v", err)
	}

	if location != server.URL {
		t.Errorf("Expected fallback to %s, got %s", server.URL, location)
	}

	rows, err := corpus.NewReader(log).Load(data, "jsonl", "fixture")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(rows) != 4 {
		t.Errorf("Expected 4 rows, got %d", len(rows))
	}
}
