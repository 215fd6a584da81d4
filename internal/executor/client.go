package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultURL is the workflow run endpoint the operator talks to out of the box.
const DefaultURL = "https://www.sim.ai/api/workflows/0f32eaf4-001f-4283-b574-0a618a8b9cd1/run"

// ErrorPrefix marks assistant content produced by a failed exchange.
const ErrorPrefix = "Error: "

type Client struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// NewClient builds a client for the executor at url. The http.Client carries
// no timeout of its own; callers bound a request with their context if at all.
func NewClient(url string, logger *slog.Logger) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{
		url:    url,
		client: &http.Client{},
		logger: logger,
	}
}

type request struct {
	Input string `json:"input"`
}

// Outcome is the text to show for one exchange.
type Outcome struct {
	Content string
	Failed  bool
	Elapsed time.Duration
}

// Execute sends task to the executor and maps the reply to display text.
// Failures come back as an Outcome with Failed set and Content prefixed
// with "Error: "; Execute never returns an error.
func (c *Client) Execute(ctx context.Context, task string, requestID string) Outcome {
	start := time.Now()
	content, err := c.exchange(ctx, task, requestID)
	elapsed := time.Since(start)

	if err != nil {
		c.logger.Warn("executor request failed", "request_id", requestID, "error", err, "elapsed", elapsed)
		return Outcome{Content: errorContent(err), Failed: true, Elapsed: elapsed}
	}
	c.logger.Info("executor request completed", "request_id", requestID, "elapsed", elapsed, "bytes", len(content))
	return Outcome{Content: content, Elapsed: elapsed}
}

func (c *Client) exchange(ctx context.Context, task string, requestID string) (string, error) {
	body, err := json.Marshal(request{Input: task})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("executor returned %d: %s", resp.StatusCode, snippet(respBody))
	}

	return ExtractContent(respBody)
}

// ExtractContent picks the display text out of an executor reply, in order:
// output.content, then content, then the whole body pretty-printed.
func ExtractContent(body []byte) (string, error) {
	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}

	if obj, ok := data.(map[string]any); ok {
		if output, ok := obj["output"].(map[string]any); ok {
			if s, ok := output["content"].(string); ok && s != "" {
				return s, nil
			}
		}
		if s, ok := obj["content"].(string); ok && s != "" {
			return s, nil
		}
	}

	// Indent the raw bytes so the executor's key order survives.
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(body), "", "  "); err != nil {
		return "", fmt.Errorf("format response: %w", err)
	}
	return buf.String(), nil
}

func errorContent(err error) string {
	msg := "Unknown"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return ErrorPrefix + msg
}

func snippet(b []byte) string {
	const limit = 200
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}
