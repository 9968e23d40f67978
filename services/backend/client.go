package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/upb/sketch-gateway/models"
	"go.uber.org/zap"
)

const (
	defaultBaseURL        = "http://localhost:8000"
	defaultHealthTimeout  = 2 * time.Second
	defaultRequestTimeout = 120 * time.Second

	// maxErrorBody caps how much of a failed response is kept in BackendError
	maxErrorBody = 4096
)

// Config holds the connection settings for the generation backend
type Config struct {
	BaseURL        string
	HealthTimeout  time.Duration
	RequestTimeout time.Duration
}

// HealthStatus is the result of a single liveness probe
type HealthStatus struct {
	Healthy    bool      `json:"healthy"`
	Outcome    Outcome   `json:"outcome"`
	StatusCode int       `json:"statusCode,omitempty"`
	CheckedAt  time.Time `json:"checkedAt"`
	Deadline   time.Time `json:"deadline"`
	LatencyMs  int64     `json:"latencyMs"`
	Detail     string    `json:"detail,omitempty"`
}

// Client issues HTTP calls to the generation backend
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new backend client
func NewClient(config Config, logger *zap.Logger) *Client {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	if config.HealthTimeout <= 0 {
		config.HealthTimeout = defaultHealthTimeout
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = defaultRequestTimeout
	}

	return &Client{
		config: config,
		// Deadlines are carried by the request context, one per call
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// BaseURL returns the backend base URL
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// Call performs a single request against a relative backend endpoint and
// returns the raw JSON body. A timeout <= 0 uses the configured request timeout.
func (c *Client) Call(ctx context.Context, method, endpoint string, body interface{}, timeout time.Duration) (json.RawMessage, error) {
	if err := validateEndpoint(endpoint); err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = c.config.RequestTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal backend request: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	startTime := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		reason := classify(err)
		c.logger.Debug("backend call failed",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.String("reason", string(reason)),
			zap.Error(err))
		return nil, &UnavailableError{Reason: reason, Err: err}
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &UnavailableError{Reason: classify(err), Err: fmt.Errorf("failed to read backend response: %w", err)}
	}

	c.logger.Debug("backend call completed",
		zap.String("method", method),
		zap.String("endpoint", endpoint),
		zap.Int("status", httpResp.StatusCode),
		zap.Duration("latency", time.Since(startTime)))

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, &BackendError{Status: httpResp.StatusCode, Body: truncate(respBody)}
	}

	if len(bytes.TrimSpace(respBody)) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid(respBody) {
		return nil, fmt.Errorf("%w: %s", ErrMalformedResponse, truncate(respBody))
	}

	return json.RawMessage(respBody), nil
}

// Stream posts body to a relative endpoint and hands back the open response
// body for the caller to relay. The request timeout covers the whole stream
// and is released when the returned body is closed.
func (c *Client) Stream(ctx context.Context, endpoint string, body interface{}) (io.ReadCloser, error) {
	if err := validateEndpoint(endpoint); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal backend request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create backend request: %w", err)
	}
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		cancel()
		reason := classify(err)
		c.logger.Debug("backend stream failed to open",
			zap.String("endpoint", endpoint),
			zap.String("reason", string(reason)),
			zap.Error(err))
		return nil, &UnavailableError{Reason: reason, Err: err}
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		defer cancel()
		defer httpResp.Body.Close()
		respBody, _ := io.ReadAll(io.LimitReader(httpResp.Body, maxErrorBody))
		return nil, &BackendError{Status: httpResp.StatusCode, Body: truncate(respBody)}
	}

	c.logger.Debug("backend stream opened",
		zap.String("endpoint", endpoint),
		zap.String("content_type", httpResp.Header.Get("Content-Type")))

	return &streamBody{ReadCloser: httpResp.Body, cancel: cancel}, nil
}

// streamBody releases the stream deadline together with the body
type streamBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *streamBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

// Probe checks GET /health within the health timeout and classifies the result.
// It never returns an error; failures are reported through the outcome.
func (c *Client) Probe(ctx context.Context) HealthStatus {
	checkedAt := time.Now()
	status := HealthStatus{
		CheckedAt: checkedAt,
		Deadline:  checkedAt.Add(c.config.HealthTimeout),
	}

	ctx, cancel := context.WithDeadline(ctx, status.Deadline)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/health", nil)
	if err != nil {
		status.Outcome = OutcomeError
		status.Detail = err.Error()
		return status
	}

	resp, err := c.httpClient.Do(req)
	status.LatencyMs = time.Since(checkedAt).Milliseconds()
	if err != nil {
		status.Outcome = classify(err)
		status.Detail = err.Error()
		c.logger.Debug("backend health probe failed",
			zap.String("outcome", string(status.Outcome)),
			zap.Error(err))
		return status
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))

	status.StatusCode = resp.StatusCode
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		status.Outcome = OutcomeBadStatus
		return status
	}

	status.Healthy = true
	status.Outcome = OutcomeHealthy
	return status
}

// HealthCheck reports backend liveness. Any failure collapses to false.
func (c *Client) HealthCheck(ctx context.Context) bool {
	return c.Probe(ctx).Healthy
}

// ListGenerations reads the generation history, forwarding the raw query string verbatim
func (c *Client) ListGenerations(ctx context.Context, rawQuery string) (*models.HistoryResponse, error) {
	endpoint := "/generations"
	if rawQuery != "" {
		endpoint += "?" + rawQuery
	}

	raw, err := c.Call(ctx, http.MethodGet, endpoint, nil, 0)
	if err != nil {
		return nil, err
	}

	var history models.HistoryResponse
	if err := json.Unmarshal(raw, &history); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if history.Generations == nil {
		history.Generations = []models.HistoryEntry{}
	}
	return &history, nil
}

// ListStyles reads the styles the backend can generate with
func (c *Client) ListStyles(ctx context.Context) (*models.StylesResponse, error) {
	raw, err := c.Call(ctx, http.MethodGet, "/styles", nil, 0)
	if err != nil {
		return nil, err
	}

	var styles models.StylesResponse
	if err := json.Unmarshal(raw, &styles); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if styles.Styles == nil {
		styles.Styles = []models.Style{}
	}
	return &styles, nil
}

// Generate asks the backend to run the generation pipeline
func (c *Client) Generate(ctx context.Context, req models.GenerationRequest) (*models.GenerationResult, error) {
	raw, err := c.Call(ctx, http.MethodPost, "/generate", req, 0)
	if err != nil {
		return nil, err
	}

	var resp models.GenerateResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if !resp.Success {
		return nil, rejected(resp.Error, "GENERATION_ERROR")
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("%w: success without data", ErrMalformedResponse)
	}

	return resp.Data, nil
}

// Refine asks the backend to rework previously generated sketches
func (c *Client) Refine(ctx context.Context, req models.RefineRequest) (*models.GenerationResult, error) {
	raw, err := c.Call(ctx, http.MethodPost, "/refine", req, 0)
	if err != nil {
		return nil, err
	}

	var resp models.GenerateResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if !resp.Success {
		return nil, rejected(resp.Error, "REFINE_ERROR")
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("%w: success without data", ErrMalformedResponse)
	}

	return resp.Data, nil
}

// GenerateStream opens the backend's server-sent event stream for a generation
func (c *Client) GenerateStream(ctx context.Context, req models.GenerationRequest) (io.ReadCloser, error) {
	return c.Stream(ctx, "/generate-stream", req)
}

// SubmitFeedback records designer feedback for a session
func (c *Client) SubmitFeedback(ctx context.Context, req models.FeedbackRequest) (*models.FeedbackResponse, error) {
	raw, err := c.Call(ctx, http.MethodPost, "/feedback", req, 0)
	if err != nil {
		return nil, err
	}

	var resp models.FeedbackResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if !resp.Success {
		return nil, rejected(resp.Error, "FEEDBACK_ERROR")
	}
	return &resp, nil
}

// SummarizeFeedback asks the backend to summarize the feedback of a session
func (c *Client) SummarizeFeedback(ctx context.Context, req models.SummarizeRequest) (*models.SummarizeResponse, error) {
	raw, err := c.Call(ctx, http.MethodPost, "/feedback/summarize", req, 0)
	if err != nil {
		return nil, err
	}

	var resp models.SummarizeResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if !resp.Success {
		return nil, rejected(resp.Error, "SUMMARIZE_ERROR")
	}
	return &resp, nil
}

// rejected converts a {"success": false} body into a BackendError
func rejected(body *models.ErrorBody, fallbackCode string) *BackendError {
	backendErr := &BackendError{Status: http.StatusOK, Code: fallbackCode, Body: "backend reported failure"}
	if body != nil {
		if body.Code != "" {
			backendErr.Code = body.Code
		}
		backendErr.Body = body.Message
	}
	return backendErr
}

// validateEndpoint rejects absolute URLs and protocol-relative paths
func validateEndpoint(endpoint string) error {
	if !strings.HasPrefix(endpoint, "/") || strings.HasPrefix(endpoint, "//") {
		return fmt.Errorf("%w: %q", ErrInvalidEndpoint, endpoint)
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.IsAbs() || u.Host != "" {
		return fmt.Errorf("%w: %q", ErrInvalidEndpoint, endpoint)
	}
	return nil
}

func truncate(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorBody {
		return text[:maxErrorBody]
	}
	return text
}
