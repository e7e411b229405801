// Package main provides the seed command-line tool for post-deploy dataset
// upload. It waits for Label Studio to become healthy, runs the worker to
// produce datasets, then uploads one dataset per corpus.
package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"piigen/internal/config"
)

// ANSI color codes for terminal output.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
)

// Config holds the seeder configuration.
type Config struct {
	LabelStudioURL string
	Token          string
	HealthTimeout  time.Duration
	BinDir         string
	ConfigPath     string
}

func logInfo(msg string) {
	fmt.Printf("%s[SEEDER]%s %s\n", colorGreen, colorReset, msg)
}

func logWarn(msg string) {
	fmt.Printf("%s[SEEDER]%s %s\n", colorYellow, colorReset, msg)
}

func logError(msg string) {
	fmt.Printf("%s[SEEDER]%s %s\n", colorRed, colorReset, msg)
}

func main() {
	// Parse configuration from flags and environment
	cfg := parseConfig()

	// Check required environment variables
	if cfg.Token == "" {
		logError("LABEL_STUDIO_TOKEN must be set")
		os.Exit(1)
	}

	// Wait for Label Studio
	if !waitForLabelStudio(cfg) {
		logError("Aborting seeding - Label Studio not available")
		os.Exit(1)
	}

	// Run the worker to produce per-corpus datasets
	logInfo("Running worker...")
	if err := runWorker(cfg); err != nil {
		logError(fmt.Sprintf("Worker failed: %v", err))
		os.Exit(1)
	}

	// Upload the dataset of every enabled corpus
	uploadDatasets(cfg)

	logInfo("===========================================")
	logInfo("Seeding complete!")
	logInfo("===========================================")
}

func parseConfig() Config {
	lsURL := flag.String("url", "", "Label Studio URL (default: LABEL_STUDIO_URL or http://localhost:8080)")
	healthTimeout := flag.Duration("health-timeout", 120*time.Second, "Health check timeout")
	binDir := flag.String("bin-dir", "./bin", "Directory containing binaries")
	configPath := flag.String("config", "./configs/piigen.yaml", "Pipeline config path")
	flag.Parse()

	// Resolve Label Studio URL with fallback
	url := *lsURL
	if url == "" {
		url = os.Getenv("LABEL_STUDIO_URL")
	}
	if url == "" {
		url = "http://localhost:8080"
	}

	return Config{
		LabelStudioURL: url,
		Token:          os.Getenv("LABEL_STUDIO_TOKEN"),
		HealthTimeout:  *healthTimeout,
		BinDir:         *binDir,
		ConfigPath:     *configPath,
	}
}

func waitForLabelStudio(cfg Config) bool {
	startTime := time.Now()
	logInfo(fmt.Sprintf("Waiting for Label Studio at %s...", cfg.LabelStudioURL))

	client := &http.Client{Timeout: 5 * time.Second}

	for {
		resp, err := client.Get(cfg.LabelStudioURL + "/health")
		if err == nil {
			statusCode := resp.StatusCode
			// Close body immediately after reading status
			if closeErr := resp.Body.Close(); closeErr != nil {
				logWarn(fmt.Sprintf("Failed to close response body: %v", closeErr))
			}
			if statusCode >= 200 && statusCode < 400 {
				logInfo(fmt.Sprintf("Label Studio is ready! (HTTP %d)", statusCode))

				// Verify the API accepts the token before pushing data
				if waitForAPI(cfg, client) {
					return true
				}
				logWarn("API not ready after initial wait, continuing to retry...")
			}
		}

		elapsed := time.Since(startTime)
		if elapsed >= cfg.HealthTimeout {
			logError(fmt.Sprintf("Label Studio failed to start within %v", cfg.HealthTimeout))
			return false
		}

		fmt.Print(".")
		time.Sleep(2 * time.Second)
	}
}

// waitForAPI verifies the projects API responds with the configured token.
func waitForAPI(cfg Config, client *http.Client) bool {
	for i := 0; i < 5; i++ {
		req, err := http.NewRequest(http.MethodGet, cfg.LabelStudioURL+"/api/projects", nil)
		if err != nil {
			continue
		}
		req.Header.Set("Authorization", "Token "+cfg.Token)

		resp, err := client.Do(req)
		if err != nil {
			time.Sleep(2 * time.Second)
			continue
		}

		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()

		if resp.StatusCode == http.StatusOK {
			logInfo("Projects API is ready")
			return true
		}

		logWarn(fmt.Sprintf("API not ready (attempt %d/5, HTTP %d), waiting...", i+1, resp.StatusCode))
		time.Sleep(3 * time.Second)
	}

	return false
}

func runWorker(cfg Config) error {
	workerPath := filepath.Join(cfg.BinDir, "worker")

	// Upload runs separately per corpus below, so the worker skips it.
	cmd := exec.Command(workerPath, "-config", cfg.ConfigPath, "-skip-upload")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd.Run()
}

func uploadDatasets(cfg Config) {
	pipeline, err := config.LoadConfig(cfg.ConfigPath)
	if err != nil {
		logError(fmt.Sprintf("Failed to load pipeline config: %v", err))
		return
	}

	projectID := pipeline.Features.LabelStudio.ProjectID
	if projectID < 1 {
		logWarn("No Label Studio project configured, skipping uploads")
		return
	}

	for _, src := range pipeline.GetEnabledCorpora() {
		datasetPath := pipeline.GetOutputPath(src.Name)

		if _, err := os.Stat(datasetPath); os.IsNotExist(err) {
			logWarn(fmt.Sprintf("Dataset not found for %s, skipping: %s", src.Name, datasetPath))
			continue
		}

		logInfo(fmt.Sprintf("Uploading %s dataset...", src.Name))

		if err := runUploader(cfg, datasetPath, projectID); err != nil {
			logError(fmt.Sprintf("Failed to upload %s dataset: %v", src.Name, err))
		}
	}
}

func runUploader(cfg Config, inputPath string, projectID int) error {
	uploaderPath := filepath.Join(cfg.BinDir, "uploader")

	args := []string{
		"--input", inputPath,
		"--url", cfg.LabelStudioURL,
		"--token", cfg.Token,
		"--project", strconv.Itoa(projectID),
	}

	cmd := exec.Command(uploaderPath, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	// Use Run() instead of CombinedOutput() since we already set Stdout/Stderr
	return cmd.Run()
}
