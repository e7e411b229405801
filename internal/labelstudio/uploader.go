package labelstudio

import (
	"context"
	"sync"

	"piigen/internal/logger"
	"piigen/internal/models"
)

// Labeling interface constants. The from/to names must match the project's
// labeling config (a Labels control named "label" over a Text object named
// "text").
const (
	fromName   = "label"
	toName     = "text"
	resultType = "labels"

	modelVersion = "piigen-synthetic"

	defaultBatchSize     = 100
	maxConcurrentUploads = 5
)

// Uploader imports generated samples into a Label Studio project.
type Uploader struct {
	client    Client
	logger    *logger.Logger
	batchSize int
}

// NewUploader creates an uploader talking to a real Label Studio instance.
func NewUploader(baseURL, token string, batchSize int, log *logger.Logger) *Uploader {
	return NewUploaderWithClient(NewHTTPClient(baseURL, token, log), batchSize, log)
}

// NewUploaderWithClient creates an uploader with a custom client (useful for testing).
func NewUploaderWithClient(client Client, batchSize int, log *logger.Logger) *Uploader {
	if batchSize < 1 {
		batchSize = defaultBatchSize
	}

	return &Uploader{
		client:    client,
		logger:    log,
		batchSize: batchSize,
	}
}

// UploadResult contains the results of an upload operation.
type UploadResult struct {
	Errors  []error
	Created int
	Batches int
}

// TaskFromSample converts one generated sample into an import task. Spans
// ride along as a prediction so reviewers start from pre-filled regions.
func TaskFromSample(sample *models.InputSample) Task {
	task := Task{
		Data: TaskData{Text: sample.FullText},
	}

	if sample.Metadata != nil {
		task.Data.Meta = map[string]string{}

		if sample.Metadata.Gender != "" {
			task.Data.Meta["gender"] = sample.Metadata.Gender
		}

		if sample.Metadata.NameSet != "" {
			task.Data.Meta["nameset"] = sample.Metadata.NameSet
		}
	}

	if len(sample.Spans) == 0 {
		return task
	}

	results := make([]Result, 0, len(sample.Spans))

	for _, span := range sample.Spans {
		results = append(results, Result{
			Value: SpanValue{
				Start:  span.StartPosition,
				End:    span.EndPosition,
				Text:   span.EntityValue,
				Labels: []string{span.EntityType},
			},
			From: fromName,
			To:   toName,
			Type: resultType,
		})
	}

	task.Predictions = []Prediction{
		{
			ModelVersion: modelVersion,
			Result:       results,
		},
	}

	return task
}

// Upload converts the samples into tasks and imports them in batches.
// Batches run concurrently; failures are collected per batch rather than
// aborting the whole upload.
func (u *Uploader) Upload(ctx context.Context, projectID int, samples []models.InputSample) (*UploadResult, error) {
	result := &UploadResult{}

	tasks := make([]Task, 0, len(samples))
	for i := range samples {
		tasks = append(tasks, TaskFromSample(&samples[i]))
	}

	totalBatches := (len(tasks) + u.batchSize - 1) / u.batchSize
	u.logger.Info("Starting dataset upload", "tasks", len(tasks), "batches", totalBatches)

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		sem = make(chan struct{}, maxConcurrentUploads)
	)

	for start := 0; start < len(tasks); start += u.batchSize {
		end := min(start+u.batchSize, len(tasks))

		wg.Add(1)

		go func(batch []Task, num int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			resp, err := u.client.ImportTasks(ctx, projectID, batch)

			mu.Lock()
			defer mu.Unlock()

			result.Batches++

			if err != nil {
				u.logger.Error("Failed to import batch", "batch", num, "error", err)
				result.Errors = append(result.Errors, err)

				return
			}

			result.Created += resp.TaskCount

			u.logger.Info("Upload progress", "batches", result.Batches, "total", totalBatches, "created", result.Created)
		}(tasks[start:end], start/u.batchSize+1)
	}

	wg.Wait()

	return result, nil
}
