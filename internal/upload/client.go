// Package upload sends measurement batches to the ingest endpoint over HTTP.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/alexanderramin/dftlog/internal/domain"
)

// BatchPath is where the ingest receiver accepts record batches.
const BatchPath = "/api/measurements/batch"

// BatchRequest is the JSON body sent to POST BatchPath.
type BatchRequest struct {
	Records []domain.MeasurementRecord `json:"records"`
}

// BatchResponse is the JSON body returned by POST BatchPath.
type BatchResponse struct {
	Success bool   `json:"success"`
	Count   int    `json:"count"`
	Error   string `json:"error,omitempty"`
}

// HTTPUploader posts record batches to an ingest receiver.
type HTTPUploader struct {
	baseURL  string
	timeout  time.Duration
	http     *http.Client
	observer Observer
}

// NewHTTPUploader creates an uploader for baseURL. An empty baseURL yields an
// uploader whose every call fails with ErrNotConfigured.
func NewHTTPUploader(baseURL string, timeout time.Duration, observer Observer) *HTTPUploader {
	if observer == nil {
		observer = NoopObserver{}
	}
	return &HTTPUploader{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
			},
		},
		observer: observer,
	}
}

// Upload sends the whole batch in one request. Any failure, including a
// response that reports partial acceptance, fails the batch.
func (u *HTTPUploader) Upload(ctx context.Context, records []domain.MeasurementRecord) (int, error) {
	if u.baseURL == "" {
		return 0, ErrNotConfigured
	}
	start := time.Now()

	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	resp, err := u.doRequest(ctx, BatchRequest{Records: records})
	if err == nil && resp.Count != len(records) {
		err = fmt.Errorf("%w: accepted %d of %d record(s)", ErrRejected, resp.Count, len(records))
	}

	event := CallEvent{Records: len(records), LatencyMs: time.Since(start).Milliseconds()}
	if err == nil {
		event.Success = true
		event.Accepted = resp.Count
		u.observer.OnUploadComplete(event)
		return resp.Count, nil
	}

	switch {
	case ctx.Err() != nil:
		err = ErrTimeout
	case isConnectionError(err):
		err = fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	event.ErrorCode = errorCode(err)
	u.observer.OnUploadComplete(event)
	return 0, err
}

func (u *HTTPUploader) doRequest(ctx context.Context, body BatchRequest) (*BatchResponse, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+BatchPath, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := u.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	var resp BatchResponse
	decodeErr := json.Unmarshal(respBody, &resp)

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		msg := strings.TrimSpace(string(respBody))
		if decodeErr == nil && resp.Error != "" {
			msg = resp.Error
		}
		return nil, fmt.Errorf("%w: status %d: %s", ErrRejected, httpResp.StatusCode, msg)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decoding response: %w", decodeErr)
	}
	if !resp.Success {
		return nil, fmt.Errorf("%w: %s", ErrRejected, resp.Error)
	}
	return &resp, nil
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var netErr *net.OpError
	return errors.As(err, &netErr)
}

func errorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "TIMEOUT"
	case errors.Is(err, ErrUnavailable):
		return "UNAVAILABLE"
	case errors.Is(err, ErrRejected):
		return "REJECTED"
	default:
		return "UNKNOWN"
	}
}
