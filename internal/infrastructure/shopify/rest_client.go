package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"shopsync/internal/domain"
)

// ErrEdgeResponse marks a 2xx reply whose body is not the expected JSON,
// typically an HTML page served by an intermediary. It is retryable.
var ErrEdgeResponse = errors.New("edge returned non-JSON response")

// APIError is a non-2xx reply from the Admin API.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("shopify api error: status %d: %s", e.Status, e.Detail)
}

// Retryable reports whether the status is worth another attempt. Client
// errors other than rate limiting are permanent.
func (e *APIError) Retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

const (
	maxAttempts  = 3
	retryBackoff = 2 * time.Second
)

// RestClient talks to the Shopify Admin REST API with per-instance
// credentials. It retries connection failures, rate limits, server errors
// and edge responses a bounded number of times.
type RestClient struct {
	http    *http.Client
	logger  zerolog.Logger
	backoff time.Duration
}

func NewRestClient(timeout time.Duration, logger zerolog.Logger) *RestClient {
	return &RestClient{
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "shopify_rest").Logger(),
		backoff: retryBackoff,
	}
}

// get performs one GET with retries and returns the decoded body plus the
// Link header used for cursor pagination.
func (c *RestClient) get(ctx context.Context, inst *domain.Instance, path string, params url.Values) ([]byte, string, error) {
	endpoint := inst.BaseURL() + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		body, link, err := c.do(ctx, inst, http.MethodGet, endpoint, nil)
		if err == nil {
			return body, link, nil
		}
		lastErr = err

		// Only the caller's own cancellation stops retries. A per-request
		// client timeout also surfaces as context.DeadlineExceeded but the
		// caller's context is still live, so it is retried like any other
		// connection failure.
		var apiErr *APIError
		switch {
		case errors.As(err, &apiErr) && !apiErr.Retryable():
			return nil, "", err
		case ctx.Err() != nil:
			return nil, "", err
		}

		if attempt < maxAttempts {
			c.logger.Warn().Err(err).
				Str("shop", inst.ShopName()).
				Str("path", path).
				Int("attempt", attempt).
				Msg("request failed, retrying")
			select {
			case <-ctx.Done():
				return nil, "", ctx.Err()
			case <-time.After(c.backoff):
			}
		}
	}
	return nil, "", fmt.Errorf("request failed after %d attempts: %w", maxAttempts, lastErr)
}

func (c *RestClient) do(ctx context.Context, inst *domain.Instance, method, endpoint string, payload []byte) ([]byte, string, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range inst.Headers() {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("connection to shopify failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := strings.TrimSpace(string(body))
		if len(detail) > 512 {
			detail = detail[:512]
		}
		return nil, "", &APIError{Status: resp.StatusCode, Detail: detail}
	}

	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "application/json") {
		return nil, "", fmt.Errorf("%w: content-type %q", ErrEdgeResponse, ct)
	}

	return body, resp.Header.Get("Link"), nil
}

// nextPageInfo extracts the rel="next" cursor from a Link header. Empty when
// the last page has been reached.
func nextPageInfo(link string) string {
	for _, part := range strings.Split(link, ",") {
		if !strings.Contains(part, `rel="next"`) {
			continue
		}
		start := strings.Index(part, "<")
		end := strings.Index(part, ">")
		if start < 0 || end < 0 || end <= start {
			continue
		}
		u, err := url.Parse(part[start+1 : end])
		if err != nil {
			continue
		}
		return u.Query().Get("page_info")
	}
	return ""
}

// FetchPages walks a paginated list endpoint, handing each page to fn
// before the next one is requested. The first request carries the caller's
// filters; once a cursor is issued, subsequent requests carry only the
// cursor, since Shopify rejects filters alongside page_info. A fetch error
// on a later page is returned with earlier pages already delivered, so
// callers keep whatever they committed for them.
func (c *RestClient) FetchPages(ctx context.Context, inst *domain.Instance, path, envelope string, params map[string]string, fn func(page []json.RawMessage) error) error {
	query := url.Values{}
	for k, v := range params {
		query.Set(k, v)
	}

	total := 0
	for {
		body, link, err := c.get(ctx, inst, path, query)
		if err != nil {
			return err
		}

		page, err := decodeEnvelope(body, envelope)
		if err != nil {
			return fmt.Errorf("failed to decode %s page: %w", envelope, err)
		}
		if len(page) == 0 {
			break
		}
		if err := fn(page); err != nil {
			return err
		}
		total += len(page)

		cursor := nextPageInfo(link)
		if cursor == "" {
			break
		}
		query = url.Values{}
		query.Set("page_info", cursor)
	}

	c.logger.Debug().
		Str("shop", inst.ShopName()).
		Str("path", path).
		Int("records", total).
		Msg("fetched all pages")
	return nil
}

// FetchAll drains a list endpoint into memory. Callers that can make
// progress on partial results should use FetchPages instead.
func (c *RestClient) FetchAll(ctx context.Context, inst *domain.Instance, path, envelope string, params map[string]string) ([]json.RawMessage, error) {
	var records []json.RawMessage
	err := c.FetchPages(ctx, inst, path, envelope, params, func(page []json.RawMessage) error {
		records = append(records, page...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// FetchOne reads a single-object endpoint.
func (c *RestClient) FetchOne(ctx context.Context, inst *domain.Instance, path, envelope string) (json.RawMessage, error) {
	body, _, err := c.get(ctx, inst, path, nil)
	if err != nil {
		return nil, err
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", envelope, err)
	}
	raw, ok := wrapper[envelope]
	if !ok {
		return nil, fmt.Errorf("response missing %q envelope", envelope)
	}
	return raw, nil
}

func decodeEnvelope(body []byte, envelope string) ([]json.RawMessage, error) {
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, err
	}
	raw, ok := wrapper[envelope]
	if !ok {
		return nil, nil
	}
	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, err
	}
	return records, nil
}
