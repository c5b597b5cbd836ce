// Package textgen implements report.Generator against an OpenAI-compatible
// Responses API.
package textgen

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/okian/pitchlog/internal/domain/report"
	"github.com/okian/pitchlog/pkg/logger"
	"github.com/okian/pitchlog/pkg/metrics"
	"github.com/okian/pitchlog/pkg/resilience"
)

const (
	defaultBaseURL     = "https://api.openai.com"
	defaultModel       = "gpt-4o-mini"
	defaultTemperature = 0.2
	defaultTimeout     = 30 * time.Second
	defaultMaxRetries  = 2
	defaultBackoff     = time.Second
	maxBackoff         = 10 * time.Second
	maxBodyBytes       = 4 << 20
	responsesPath      = "/v1/responses"
)

// errTransient marks failures worth retrying and counting against the breaker.
var errTransient = crerr.New("textgen transient failure")

// Client calls the Responses API. It is safe for concurrent use.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	maxRetries  int
	backoff     time.Duration
	breaker     *resilience.Breaker
	logger      logger.Logger
}

var _ report.Generator = (*Client)(nil)

// New creates a Client. A missing API key is not an error here; Generate
// reports report.ErrNotConfigured instead.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:     defaultBaseURL,
		model:       defaultModel,
		temperature: defaultTemperature,
		maxRetries:  defaultMaxRetries,
		backoff:     defaultBackoff,
		logger:      logger.Get().Named("textgen"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if c.breaker == nil {
		c.breaker = resilience.NewBreaker()
	}
	return c
}

type inputMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responsesRequest struct {
	Model       string         `json:"model"`
	Input       []inputMessage `json:"input"`
	Temperature float64        `json:"temperature"`
}

type responsesResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Role    string `json:"role,omitempty"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text,omitempty"`
		} `json:"content,omitempty"`
	} `json:"output"`
}

// HTTPError is a non-2xx answer from the API.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return "textgen http " + strconv.Itoa(e.StatusCode) + ": " + e.Body
}

// Generate sends the prompts and returns the trimmed assistant text.
func (c *Client) Generate(ctx context.Context, system, user string) (string, error) {
	if c.apiKey == "" {
		return "", crerr.Wrap(report.ErrNotConfigured, "textgen api key is missing")
	}

	if err := c.breaker.Allow(); err != nil {
		c.logger.Warn(ctx, "textgen circuit breaker rejected request", logger.String("state", string(c.breaker.State())))
		return "", crerr.Wrap(err, "text generation temporarily unavailable")
	}

	raw, err := c.post(ctx, responsesRequest{
		Model: c.model,
		Input: []inputMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: c.temperature,
	})
	if err != nil {
		if crerr.Is(err, errTransient) {
			c.breaker.Failure()
		} else {
			c.breaker.Success()
		}
		return "", err
	}
	c.breaker.Success()

	var resp responsesResponse
	if err := sonic.Unmarshal(raw, &resp); err != nil {
		return "", crerr.Wrapf(err, "decode responses payload")
	}
	text := strings.TrimSpace(extractOutputText(&resp))
	if text == "" {
		return "", crerr.New("no output_text found in response")
	}
	return text, nil
}

// post performs the request with retries on transport errors, 429 and 5xx.
func (c *Client) post(ctx context.Context, body responsesRequest) ([]byte, error) {
	payload, err := sonic.Marshal(body)
	if err != nil {
		return nil, crerr.Wrapf(err, "encode responses request")
	}

	backoff := c.backoff
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			metrics.RecordTextgenRetry()
			c.logger.Warn(ctx, "textgen request retrying",
				logger.Int("attempt", attempt),
				logger.Int("max_retries", c.maxRetries),
				logger.Error(lastErr),
			)
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, crerr.Wrapf(ctx.Err(), "textgen retry aborted")
			case <-timer.C:
			}
			backoff = min(backoff*2, maxBackoff)
		}

		raw, err := c.doOnce(ctx, payload)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if !crerr.Is(err, errTransient) || ctx.Err() != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) doOnce(ctx context.Context, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+responsesPath, bytes.NewReader(payload))
	if err != nil {
		return nil, crerr.Wrapf(err, "build request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordTextgenRequest("error")
		if ctx.Err() != nil {
			return nil, crerr.Wrapf(err, "send request")
		}
		return nil, crerr.Mark(crerr.Wrapf(err, "send request"), errTransient)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		metrics.RecordTextgenRequest("error")
		return nil, crerr.Mark(crerr.Wrapf(err, "read response body"), errTransient)
	}

	metrics.RecordTextgenRequest(statusClass(resp.StatusCode))
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return raw, nil
	}

	httpErr := &HTTPError{StatusCode: resp.StatusCode, Body: abbreviate(raw)}
	if isRetryableStatus(resp.StatusCode) {
		return nil, crerr.Mark(httpErr, errTransient)
	}
	return nil, httpErr
}

func extractOutputText(resp *responsesResponse) string {
	var out strings.Builder
	for _, item := range resp.Output {
		if item.Type != "message" || item.Role != "assistant" {
			continue
		}
		for _, part := range item.Content {
			if part.Type == "output_text" {
				out.WriteString(part.Text)
			}
		}
	}
	return out.String()
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

func statusClass(code int) string {
	switch {
	case code == http.StatusTooManyRequests:
		return "429"
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	default:
		return "2xx"
	}
}

func abbreviate(raw []byte) string {
	const limit = 512
	s := strings.TrimSpace(string(raw))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
