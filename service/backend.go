package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tabular-review/gateway/config"
	"github.com/tabular-review/gateway/model"
	"github.com/tabular-review/gateway/pkg/retry"
)

// Backend is the client for the upstream extraction API. It is constructed
// once and injected into handlers; it holds no per-request state.
type Backend struct {
	baseURL       string
	client        *http.Client
	timeout       time.Duration // default request class
	slowTimeout   time.Duration // dashboard aggregation class
	uploadTimeout time.Duration
	retryPolicy   retry.Policy
}

func NewBackend(cfg *config.BackendConfig) *Backend {
	return &Backend{
		baseURL:       cfg.URL,
		client:        &http.Client{},
		timeout:       time.Duration(cfg.TimeoutSeconds) * time.Second,
		slowTimeout:   time.Duration(cfg.SlowTimeoutSeconds) * time.Second,
		uploadTimeout: time.Duration(cfg.UploadTimeoutSeconds) * time.Second,
		retryPolicy: retry.Policy{
			MaxAttempts: cfg.MaxAttempts,
			BaseDelay:   time.Second,
			MaxDelay:    5 * time.Second,
		},
	}
}

// BaseURL returns the resolved upstream base URL.
func (b *Backend) BaseURL() string {
	return b.baseURL
}

// fetchList issues one authenticated GET for a JSON array. Timeouts cancel
// only this call, never the caller's aggregate. attempts > 1 applies the
// shared backoff policy.
func fetchList[T any](ctx context.Context, b *Backend, path, token string, timeout time.Duration, attempts int) ([]T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	build := func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, b.baseURL+path, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	policy := b.retryPolicy
	policy.MaxAttempts = attempts

	resp, err := retry.Do(ctx, b.client, build, policy)
	if err != nil {
		return nil, upstreamFailure(path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{Endpoint: path, Message: "Failed to read response.", Detail: err.Error()}
	}

	return decodeList[T](path, body)
}

// decodeList parses a JSON array defensively: an empty body is an empty
// list, a malformed body is an error string rather than a panic.
func decodeList[T any](path string, body []byte) ([]T, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return []T{}, nil
	}

	var out []T
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &UpstreamError{
			Endpoint: path,
			Message:  "Unexpected response format.",
			Detail:   err.Error(),
		}
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func upstreamFailure(path string, err error) error {
	var statusErr *retry.StatusError
	if errors.As(err, &statusErr) {
		return &UpstreamError{
			Endpoint: path,
			Status:   statusErr.Status,
			Message:  normalizeStatus(statusErr.Status, statusErr.RetryAfter),
			Detail:   statusErr.Error(),
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &UpstreamError{Endpoint: path, Message: "The request timed out.", Detail: err.Error()}
	}
	return &UpstreamError{Endpoint: path, Message: "The service could not be reached.", Detail: Redact(err.Error())}
}

// Folders fetches all folders for the caller.
func (b *Backend) Folders(ctx context.Context, token string) ([]model.Folder, error) {
	return fetchList[model.Folder](ctx, b, "/api/folders/", token, b.timeout, 1)
}

// Files fetches the caller's files, optionally scoped to a folder, with
// pagination passed through to the upstream API.
func (b *Backend) Files(ctx context.Context, token, folderID string, page, limit int) ([]model.File, error) {
	q := url.Values{}
	if folderID != "" {
		q.Set("folder_id", folderID)
	}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	path := "/api/files/"
	if encoded := q.Encode(); encoded != "" {
		path += "?" + encoded
	}
	return fetchList[model.File](ctx, b, path, token, b.timeout, 1)
}

// Reviews fetches all reviews for the caller.
func (b *Backend) Reviews(ctx context.Context, token string) ([]model.Review, error) {
	return fetchList[model.Review](ctx, b, "/api/reviews/", token, b.timeout, 1)
}

// Dashboard-class variants: the longer timeout and the shared retry policy
// apply, since the dashboard tolerates slow upstream aggregation.

func (b *Backend) FoldersRetried(ctx context.Context, token string) ([]model.Folder, error) {
	return fetchList[model.Folder](ctx, b, "/api/folders/", token, b.slowTimeout, b.retryPolicy.MaxAttempts)
}

func (b *Backend) FilesRetried(ctx context.Context, token string) ([]model.File, error) {
	return fetchList[model.File](ctx, b, "/api/files/", token, b.slowTimeout, b.retryPolicy.MaxAttempts)
}

func (b *Backend) ReviewsRetried(ctx context.Context, token string) ([]model.Review, error) {
	return fetchList[model.Review](ctx, b, "/api/reviews/", token, b.slowTimeout, b.retryPolicy.MaxAttempts)
}

// Health probes the upstream health endpoint.
func (b *Backend) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/api/health", nil)
	if err != nil {
		return err
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return upstreamFailure("/api/health", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &UpstreamError{
			Endpoint: "/api/health",
			Status:   resp.StatusCode,
			Message:  normalizeStatus(resp.StatusCode, ""),
		}
	}
	return nil
}

// ProxyResponse carries an upstream status and body straight back to the
// browser for pass-through endpoints.
type ProxyResponse struct {
	Status int
	Body   []byte
}

// postJSON forwards a JSON payload, sanitizing every string field first.
func (b *Backend) postJSON(ctx context.Context, path, token string, payload any) (*ProxyResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	// Round-trip through generic JSON so the sanitizer sees every string
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("failed to prepare request: %w", err)
	}
	clean, err := json.Marshal(Sanitize(generic))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, bytes.NewReader(clean))
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, upstreamFailure(path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{Endpoint: path, Message: "Failed to read response.", Detail: err.Error()}
	}

	return &ProxyResponse{Status: resp.StatusCode, Body: body}, nil
}

// CreateColumn forwards a column-creation request for a review.
func (b *Backend) CreateColumn(ctx context.Context, token, reviewID string, payload any) (*ProxyResponse, error) {
	return b.postJSON(ctx, "/api/reviews/"+url.PathEscape(reviewID)+"/columns", token, payload)
}

// Register forwards a registration request to the upstream auth endpoint.
func (b *Backend) Register(ctx context.Context, payload any) (*ProxyResponse, error) {
	return b.postJSON(ctx, "/api/auth/register", "", payload)
}

// Login forwards a login request to the upstream auth endpoint.
func (b *Backend) Login(ctx context.Context, payload any) (*ProxyResponse, error) {
	return b.postJSON(ctx, "/api/auth/login", "", payload)
}

// ForwardUpload streams a multipart body to the upstream upload endpoint.
// The inbound Content-Type header is passed through unchanged so the
// multipart boundary survives; the body is never buffered or rewritten.
func (b *Backend) ForwardUpload(ctx context.Context, token, contentType string, body io.Reader) (*ProxyResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, b.uploadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/api/files/upload", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, upstreamFailure("/api/files/upload", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{Endpoint: "/api/files/upload", Message: "Failed to read response.", Detail: err.Error()}
	}

	return &ProxyResponse{Status: resp.StatusCode, Body: respBody}, nil
}

// UploadErrorMessage extracts a client-facing message from an upstream
// error body: a JSON "detail" field when present, the raw text otherwise.
func UploadErrorMessage(body []byte, status int) string {
	var parsed struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Detail != "" {
			return Redact(parsed.Detail)
		}
		if parsed.Error != "" {
			return Redact(parsed.Error)
		}
	}
	if text := bytes.TrimSpace(body); len(text) > 0 && len(text) <= 512 {
		return Redact(string(text))
	}
	return normalizeStatus(status, "")
}
