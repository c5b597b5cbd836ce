package seeder

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/okian/pitchlog/internal/domain/analytics"
)

// Client talks to a running pitchlog service.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a Client for baseURL.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{baseURL: baseURL, http: httpClient}
}

// Health checks that the service answers on /healthz.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/healthz", "", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return crerr.Newf("healthz returned status %d", resp.StatusCode)
	}
	return nil
}

// PostMatch submits m under the idempotency key and reports the outcome.
func (c *Client) PostMatch(ctx context.Context, key string, m matchPayload) (string, error) {
	body, err := sonic.Marshal(m)
	if err != nil {
		return outcomeFailed, fmt.Errorf("marshal match: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/matches", key, body)
	if err != nil {
		return outcomeFailed, err
	}
	data, err := readResponseBody(resp)
	if err != nil {
		return outcomeFailed, err
	}

	switch resp.StatusCode {
	case http.StatusCreated:
		return outcomeCreated, nil
	case http.StatusOK:
		var ack matchAck
		if err := sonic.Unmarshal(data, &ack); err == nil && ack.Duplicate {
			return outcomeDuplicate, nil
		}
		return outcomeFailed, crerr.Newf("unexpected 200 response: %s", data)
	default:
		return outcomeFailed, crerr.Newf("match rejected with status %d: %s", resp.StatusCode, bytes.TrimSpace(data))
	}
}

// Analytics fetches the summary over the last matches.
func (c *Client) Analytics(ctx context.Context, last int) (analytics.Summary, error) {
	resp, err := c.do(ctx, http.MethodGet, "/analytics?last="+strconv.Itoa(last), "", nil)
	if err != nil {
		return analytics.Summary{}, err
	}
	data, err := readResponseBody(resp)
	if err != nil {
		return analytics.Summary{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return analytics.Summary{}, crerr.Newf("analytics returned status %d: %s", resp.StatusCode, bytes.TrimSpace(data))
	}

	var summary analytics.Summary
	if err := sonic.Unmarshal(data, &summary); err != nil {
		return analytics.Summary{}, fmt.Errorf("decode analytics: %w", err)
	}
	return summary, nil
}

func (c *Client) do(ctx context.Context, method, path, key string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, crerr.Wrapf(err, "%s %s", method, path)
	}
	return resp, nil
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return data, nil
}
