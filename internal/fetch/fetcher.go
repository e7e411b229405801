// Package fetch resolves corpus locations into raw bytes. Local paths are
// read directly, http(s) locations are downloaded with retry and backoff,
// and s3:// locations go through the AWS SDK.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"piigen/internal/config"
	"piigen/internal/logger"
)

// Fetcher errors.
var (
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	ErrBodyTooLarge         = errors.New("response body exceeds buffer limit")
	ErrNoLocations          = errors.New("corpus has no locations")
	ErrAllLocationsFailed   = errors.New("all corpus locations failed")
	ErrBadS3Location        = errors.New("s3 location must look like s3://bucket/key")
)

const (
	defaultBufferKb = 4096
	userAgent       = "piigen-fetch/1.0"
)

// ObjectStore is the slice of the S3 API the fetcher needs. The real client
// satisfies it; tests substitute their own.
type ObjectStore interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Fetcher downloads corpus payloads with config-driven retry logic.
type Fetcher struct {
	client       *http.Client
	store        ObjectStore
	retryPolicy  *config.RetryPolicy
	s3cfg        config.S3Config
	log          *logger.Logger
	bufferSizeKb int
}

// New creates a fetcher. The S3 client is only built if an s3:// location is
// actually fetched, so local and HTTP pipelines never touch AWS credentials.
func New(log *logger.Logger, retryPolicy *config.RetryPolicy, s3cfg config.S3Config, bufferSizeKb int) *Fetcher {
	if bufferSizeKb < 1 {
		bufferSizeKb = defaultBufferKb
	}

	return &Fetcher{
		client: &http.Client{
			Timeout: retryPolicy.GetTimeout(),
		},
		retryPolicy:  retryPolicy,
		s3cfg:        s3cfg,
		log:          log,
		bufferSizeKb: bufferSizeKb,
	}
}

// SetObjectStore injects a prebuilt S3 client, replacing the lazy default.
func (f *Fetcher) SetObjectStore(store ObjectStore) {
	f.store = store
}

// Fetch resolves a single location. The scheme picks the transport: s3://
// goes to the object store, http:// and https:// are downloaded, and
// anything else is treated as a local file path.
func (f *Fetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	switch {
	case strings.HasPrefix(location, "s3://"):
		return f.fetchS3(ctx, location)
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		return f.fetchHTTP(ctx, location)
	default:
		return f.fetchFile(location)
	}
}

// FetchSource tries every location of a corpus in order, primary first and
// backups after, and returns the first payload that loads together with the
// location that served it.
func (f *Fetcher) FetchSource(ctx context.Context, src *config.CorpusConfig) ([]byte, string, error) {
	locations := src.GetAllLocations()
	if len(locations) == 0 || locations[0] == "" {
		return nil, "", fmt.Errorf("%w: %s", ErrNoLocations, src.Name)
	}

	var lastErr error

	for _, location := range locations {
		if location == "" {
			continue
		}

		body, err := f.Fetch(ctx, location)
		if err == nil {
			return body, location, nil
		}

		lastErr = err

		f.log.Warn("Corpus location failed, trying next", "corpus", src.Name, "location", location, "error", err)
	}

	return nil, "", fmt.Errorf("%w: %s: %v", ErrAllLocationsFailed, src.Name, lastErr)
}

func (f *Fetcher) fetchFile(path string) ([]byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read local file %s: %w", path, err)
	}

	return content, nil
}

func (f *Fetcher) fetchHTTP(ctx context.Context, url string) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= f.retryPolicy.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := f.waitRetry(ctx, attempt); err != nil {
				return nil, err
			}
		}

		body, statusCode, err := f.download(ctx, url)
		if err == nil {
			return body, nil
		}

		lastErr = fmt.Errorf("request failed (attempt %d/%d): %w", attempt, f.retryPolicy.MaxAttempts, err)

		// A status the server will keep returning is not worth retrying.
		if statusCode != 0 && !isRetryableStatus(statusCode) {
			break
		}

		if attempt < f.retryPolicy.MaxAttempts {
			f.log.Warn("Download failed, retrying", "url", url, "attempt", attempt, "error", err)
		}
	}

	return nil, lastErr
}

// waitRetry sleeps for the backoff delay of the given attempt, aborting
// early when the context is cancelled.
func (f *Fetcher) waitRetry(ctx context.Context, attempt int) error {
	delay := f.retryPolicy.GetRetryDelay(attempt)
	if delay <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

func (f *Fetcher) download(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, err
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, resp.StatusCode)
	}

	// bufferSizeKb is in KB, convert to bytes. Reading one byte past the
	// limit distinguishes a truncated payload from one that just fits.
	limit := int64(f.bufferSizeKb) * 1024

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	if int64(len(body)) > limit {
		return nil, resp.StatusCode, fmt.Errorf("%w: %d KB", ErrBodyTooLarge, f.bufferSizeKb)
	}

	return body, resp.StatusCode, nil
}

func (f *Fetcher) fetchS3(ctx context.Context, location string) ([]byte, error) {
	bucket, key, err := splitS3Location(location)
	if err != nil {
		return nil, err
	}

	store, err := f.objectStore(ctx)
	if err != nil {
		return nil, err
	}

	out, err := store.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", bucket, key, err)
	}

	defer func() {
		_ = out.Body.Close()
	}()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read s3 object body: %w", err)
	}

	return body, nil
}

// objectStore returns the injected S3 client or builds one from the ambient
// AWS configuration on first use.
func (f *Fetcher) objectStore(ctx context.Context) (ObjectStore, error) {
	if f.store != nil {
		return f.store, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(f.s3cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	opts := []func(*s3.Options){}

	if f.s3cfg.Endpoint != "" {
		endpoint := f.s3cfg.Endpoint
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = &endpoint
			// Path-style addressing for MinIO and other S3-compatible stores.
			o.UsePathStyle = true
		})
	}

	f.store = s3.NewFromConfig(awsCfg, opts...)

	return f.store, nil
}

func splitS3Location(location string) (string, string, error) {
	trimmed := strings.TrimPrefix(location, "s3://")

	bucket, key, found := strings.Cut(trimmed, "/")
	if !found || bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: %q", ErrBadS3Location, location)
	}

	return bucket, key, nil
}

// isRetryableStatus determines if a download should be retried based on the
// HTTP status code.
func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusServiceUnavailable: // 503
		return true
	case http.StatusGatewayTimeout: // 504
		return true
	case http.StatusTooManyRequests: // 429
		return true
	case http.StatusRequestTimeout: // 408
		return true
	}

	return false
}
