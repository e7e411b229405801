// Package labelstudio pushes generated datasets into a Label Studio project
// as pre-annotated tasks for human review.
package labelstudio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"piigen/internal/logger"
)

// Client errors.
var (
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	ErrMissingURL           = errors.New("label studio url is required")
)

// Task is one import item: the text under annotation plus the spans the
// generator already knows, attached as predictions.
type Task struct {
	Data        TaskData     `json:"data"`
	Predictions []Prediction `json:"predictions,omitempty"`
}

// TaskData carries the annotated text and its provenance.
type TaskData struct {
	Text string            `json:"text"`
	Meta map[string]string `json:"meta,omitempty"`
}

// Prediction groups the span results of one model run.
type Prediction struct {
	ModelVersion string   `json:"model_version,omitempty"`
	Result       []Result `json:"result"`
}

// Result is a single span in Label Studio's region format.
type Result struct {
	Value SpanValue `json:"value"`
	From  string    `json:"from_name"`
	To    string    `json:"to_name"`
	Type  string    `json:"type"`
}

// SpanValue holds the character range and label of one region.
type SpanValue struct {
	Start  int      `json:"start"`
	End    int      `json:"end"`
	Text   string   `json:"text"`
	Labels []string `json:"labels"`
}

// ImportResponse is the import endpoint's summary of what was created.
type ImportResponse struct {
	TaskCount       int `json:"task_count"`
	AnnotationCount int `json:"annotation_count"`
	PredictionCount int `json:"prediction_count"`
}

// Client defines the interface for the Label Studio import API.
type Client interface {
	ImportTasks(ctx context.Context, projectID int, tasks []Task) (*ImportResponse, error)
}

// Ensure HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)

// HTTPClient talks to the Label Studio REST API with token authentication.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     *logger.Logger
}

// NewHTTPClient creates a client for the given Label Studio instance.
func NewHTTPClient(baseURL, token string, log *logger.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: log,
	}
}

// ImportTasks imports a batch of tasks into the project.
func (c *HTTPClient) ImportTasks(ctx context.Context, projectID int, tasks []Task) (*ImportResponse, error) {
	if c.baseURL == "" {
		return nil, ErrMissingURL
	}

	jsonBody, err := json.Marshal(tasks)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tasks: %w", err)
	}

	url := fmt.Sprintf("%s/api/projects/%d/import", c.baseURL, projectID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close response body: %w", closeErr)
		}
	}()

	// Limit response size to 10MB
	reader := io.LimitReader(resp.Body, 10*1024*1024)

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		if c.logger != nil {
			c.logger.Error("Label Studio import failed", "status", resp.StatusCode, "body", string(body))
		}

		return nil, fmt.Errorf("%w: %d: %s", ErrUnexpectedStatusCode, resp.StatusCode, string(body))
	}

	var importResp ImportResponse
	if err := json.Unmarshal(body, &importResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &importResp, nil
}
