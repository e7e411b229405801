package labelstudio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"piigen/internal/logger"
	"piigen/internal/models"
)

var ErrBatchRejected = errors.New("batch rejected")

// MockClient implements the Client interface for testing.
type MockClient struct {
	ImportFunc func(ctx context.Context, projectID int, tasks []Task) (*ImportResponse, error)
}

func (m *MockClient) ImportTasks(ctx context.Context, projectID int, tasks []Task) (*ImportResponse, error) {
	if m.ImportFunc != nil {
		return m.ImportFunc(ctx, projectID, tasks)
	}

	return &ImportResponse{TaskCount: len(tasks)}, nil
}

func makeSamples(n int) []models.InputSample {
	samples := make([]models.InputSample, 0, n)

	for i := 0; i < n; i++ {
		text := fmt.Sprintf("Message %d from Ana Costa.", i)
		start := len(text) - len("Ana Costa.")

		samples = append(samples, models.InputSample{
			FullText: text,
			Spans: []models.Span{
				{EntityType: "PERSON", EntityValue: "Ana Costa", StartPosition: start, EndPosition: start + 9},
			},
		})
	}

	return samples
}

func TestTaskFromSample(t *testing.T) {
	sample := &models.InputSample{
		FullText: "Ana Costa lives in Porto.",
		Spans: []models.Span{
			{EntityType: "PERSON", EntityValue: "Ana Costa", StartPosition: 0, EndPosition: 9},
			{EntityType: "LOCATION", EntityValue: "Porto", StartPosition: 19, EndPosition: 24},
		},
		Metadata: &models.SampleMetadata{Gender: "female", NameSet: "Portuguese"},
	}

	want := Task{
		Data: TaskData{
			Text: "Ana Costa lives in Porto.",
			Meta: map[string]string{"gender": "female", "nameset": "Portuguese"},
		},
		Predictions: []Prediction{
			{
				ModelVersion: modelVersion,
				Result: []Result{
					{
						Value: SpanValue{Start: 0, End: 9, Text: "Ana Costa", Labels: []string{"PERSON"}},
						From:  fromName,
						To:    toName,
						Type:  resultType,
					},
					{
						Value: SpanValue{Start: 19, End: 24, Text: "Porto", Labels: []string{"LOCATION"}},
						From:  fromName,
						To:    toName,
						Type:  resultType,
					},
				},
			},
		},
	}

	if diff := cmp.Diff(want, TaskFromSample(sample)); diff != "" {
		t.Errorf("TaskFromSample() mismatch (-want +got):\n%s", diff)
	}
}

func TestTaskFromSampleWithoutSpans(t *testing.T) {
	task := TaskFromSample(&models.InputSample{FullText: "No entities here."})

	if len(task.Predictions) != 0 {
		t.Errorf("TaskFromSample() predictions = %d, want none", len(task.Predictions))
	}

	if task.Data.Text != "No entities here." {
		t.Errorf("TaskFromSample() text = %q", task.Data.Text)
	}
}

func TestUpload(t *testing.T) {
	var (
		mu         sync.Mutex
		batchSizes []int
		projectIDs []int
	)

	mockClient := &MockClient{
		ImportFunc: func(_ context.Context, projectID int, tasks []Task) (*ImportResponse, error) {
			mu.Lock()
			defer mu.Unlock()

			batchSizes = append(batchSizes, len(tasks))
			projectIDs = append(projectIDs, projectID)

			return &ImportResponse{TaskCount: len(tasks), PredictionCount: len(tasks)}, nil
		},
	}

	uploader := NewUploaderWithClient(mockClient, 10, logger.NewLogger("error"))

	result, err := uploader.Upload(context.Background(), 7, makeSamples(25))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if result.Created != 25 {
		t.Errorf("Created = %d, want 25", result.Created)
	}

	if result.Batches != 3 {
		t.Errorf("Batches = %d, want 3", result.Batches)
	}

	if len(result.Errors) != 0 {
		t.Errorf("Errors = %v, want none", result.Errors)
	}

	total := 0
	for i, size := range batchSizes {
		total += size

		if projectIDs[i] != 7 {
			t.Errorf("batch %d used project %d, want 7", i, projectIDs[i])
		}
	}

	if total != 25 {
		t.Errorf("batches delivered %d tasks, want 25", total)
	}
}

func TestUploadCollectsBatchErrors(t *testing.T) {
	mockClient := &MockClient{
		ImportFunc: func(_ context.Context, _ int, tasks []Task) (*ImportResponse, error) {
			// The 25-sample upload below ends with one short batch of 5.
			if len(tasks) == 5 {
				return nil, ErrBatchRejected
			}

			return &ImportResponse{TaskCount: len(tasks)}, nil
		},
	}

	uploader := NewUploaderWithClient(mockClient, 10, logger.NewLogger("error"))

	result, err := uploader.Upload(context.Background(), 7, makeSamples(25))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if result.Created != 20 {
		t.Errorf("Created = %d, want 20", result.Created)
	}

	if result.Batches != 3 {
		t.Errorf("Batches = %d, want 3", result.Batches)
	}

	if len(result.Errors) != 1 || !errors.Is(result.Errors[0], ErrBatchRejected) {
		t.Errorf("Errors = %v, want one ErrBatchRejected", result.Errors)
	}
}

func TestHTTPClientImportTasks(t *testing.T) {
	var (
		gotPath  string
		gotAuth  string
		gotTasks []Task
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")

		if err := json.NewDecoder(r.Body).Decode(&gotTasks); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"task_count": 2, "annotation_count": 0, "prediction_count": 2}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "secret-token", logger.NewLogger("error"))

	samples := makeSamples(2)
	tasks := []Task{TaskFromSample(&samples[0]), TaskFromSample(&samples[1])}

	resp, err := client.ImportTasks(context.Background(), 42, tasks)
	if err != nil {
		t.Fatalf("ImportTasks() error = %v", err)
	}

	if resp.TaskCount != 2 {
		t.Errorf("TaskCount = %d, want 2", resp.TaskCount)
	}

	if gotPath != "/api/projects/42/import" {
		t.Errorf("request path = %q, want /api/projects/42/import", gotPath)
	}

	if gotAuth != "Token secret-token" {
		t.Errorf("Authorization = %q, want token header", gotAuth)
	}

	if len(gotTasks) != 2 {
		t.Fatalf("server received %d tasks, want 2", len(gotTasks))
	}

	if len(gotTasks[0].Predictions) != 1 {
		t.Errorf("task 0 predictions = %d, want 1", len(gotTasks[0].Predictions))
	}
}

func TestHTTPClientImportTasksBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail": "project not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "secret-token", logger.NewLogger("error"))

	_, err := client.ImportTasks(context.Background(), 42, []Task{})
	if !errors.Is(err, ErrUnexpectedStatusCode) {
		t.Fatalf("ImportTasks() error = %v, want ErrUnexpectedStatusCode", err)
	}
}
