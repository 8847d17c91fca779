// Package transcribeapi calls the speech-to-text HTTP backend: it posts a
// WAV file as multipart/form-data, retries transient failures with
// exponential backoff, and decodes the verbose_json response into a
// transcript.Transcript.
package transcribeapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/ghardin1314/scribe/internal/errors"
	"github.com/ghardin1314/scribe/internal/httpclient"
	"github.com/ghardin1314/scribe/internal/transcript"
)

// maxAttempts bounds the total number of POSTs for one file, including
// the first attempt.
const maxAttempts = 3

// initialBackoff and backoffMultiplier produce the 2s, 4s retry delays
// required for attempts 1 and 2 (there is no delay after the final
// attempt, since it either succeeds or gives up).
const initialBackoff = 2 * time.Second
const backoffMultiplier = 2.0

// Config selects the backend endpoint and model.
type Config struct {
	APIURL string // required; callers pass LocalURL(port) when no remote endpoint is configured
	APIKey string // Authorization: Bearer; empty when talking to a local server
	Model  string
}

// Client posts WAV files to a transcription backend.
type Client struct {
	http *httpclient.Client
	cfg  Config
}

// New creates a Client. httpClient may be shared across multiple
// transcribeapi.Client instances (it is safe for concurrent use).
func New(httpClient *httpclient.Client, cfg Config) *Client {
	return &Client{http: httpClient, cfg: cfg}
}

// LocalURL returns the endpoint used when no --api-url is configured: a
// locally-running transcription server compatible with the same wire
// contract, addressed by --local-port.
func LocalURL(port int) string {
	return fmt.Sprintf("http://127.0.0.1:%d", port)
}

// ApiError is returned when the backend responds with a non-retryable
// status, or a retryable one that never succeeds within maxAttempts.
type ApiError struct {
	Status int
	Body   string
}

func (e *ApiError) Error() string {
	return fmt.Sprintf("transcription api error %d: %s", e.Status, e.Body)
}

// Transcribe posts the WAV file at path to the configured backend and
// returns its parsed transcript. Retries HTTP 429 and 5xx responses with
// exponential backoff (2s, 4s), up to maxAttempts total attempts.
func (c *Client) Transcribe(ctx context.Context, path string) (*transcript.Transcript, error) {
	url := c.cfg.APIURL
	if url == "" {
		return nil, errors.New(fmt.Errorf("no transcription endpoint configured")).
			Component("transcribeapi").Category(errors.CategoryAPIFatal).Build()
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initialBackoff
	bo.Multiplier = backoffMultiplier
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0
	// NewExponentialBackOff already reset the current interval to its own
	// default; reset again so the first delay starts at initialBackoff.
	bo.Reset()

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		t, retryable, err := c.post(ctx, url, path)
		if err == nil {
			return t, nil
		}
		lastErr = err
		if !retryable || attempt == maxAttempts {
			break
		}

		delay := bo.NextBackOff()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, errors.New(lastErr).Component("transcribeapi").
		Category(errors.CategoryAPIFatal).Context("path", path).Context("attempts", maxAttempts).Build()
}

// post performs one multipart POST attempt. retryable indicates whether
// the caller should back off and try again on error.
func (c *Client) post(ctx context.Context, url, path string) (t *transcript.Transcript, retryable bool, err error) {
	body, contentType, err := buildMultipartBody(path, c.cfg.Model)
	if err != nil {
		return nil, false, fmt.Errorf("building multipart body for %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Content-Type", contentType)
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, true, fmt.Errorf("posting to transcription backend: %w", err)
	}
	defer resp.Body.Close()

	respBody, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, true, fmt.Errorf("reading transcription response: %w", readErr)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		parsed, err := transcript.Decode(respBody)
		if err != nil {
			return nil, false, errors.New(err).Component("transcribeapi").
				Category(errors.CategoryParse).Context("path", path).Build()
		}
		return parsed, false, nil
	}

	apiErr := &ApiError{Status: resp.StatusCode, Body: string(respBody)}
	retryableStatus := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
	return nil, retryableStatus, apiErr
}

// buildMultipartBody assembles the request body: the WAV file under
// "file", plus model, response_format=verbose_json, and two
// timestamp_granularities[] fields (word, segment).
func buildMultipartBody(path, model string) (io.Reader, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", err
	}

	if err := w.WriteField("model", model); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("response_format", "verbose_json"); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("timestamp_granularities[]", "word"); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("timestamp_granularities[]", "segment"); err != nil {
		return nil, "", err
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return &buf, w.FormDataContentType(), nil
}
