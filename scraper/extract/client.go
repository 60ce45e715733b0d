// Package extract talks to the page-extraction service: a URL plus a
// directive go in, normalized JSON comes out. The client never interprets
// the directive; it forwards it verbatim.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"realestate-scraper/utils"
)

// Directive tells the extraction service what to pull from a page. It is
// either a natural-language instruction or a structural selector set.
type Directive interface {
	payload() any
}

// PromptDirective is an opaque natural-language extraction instruction.
type PromptDirective string

func (d PromptDirective) payload() any { return string(d) }

// SelectorDirective is a structural extraction spec: one object per element
// matching BaseSelector, with each field read from its own selector. An
// empty BaseSelector targets the whole page as a single detail object.
type SelectorDirective struct {
	BaseSelector string            `json:"baseSelector,omitempty"`
	Fields       map[string]string `json:"fields"`
}

func (d SelectorDirective) payload() any { return d }

// Result kinds.
type Kind int

const (
	KindListings Kind = iota
	KindDetail
)

// Result is the tagged union an extraction call produces: either an array
// of listing objects (possibly empty) or a single detail object. Callers
// check Kind before touching the payload.
type Result struct {
	Kind     Kind
	Listings []map[string]any
	Detail   map[string]any
}

// Error is an extraction failure carrying the upstream message. It covers
// transport failures, non-2xx responses, service-reported errors and
// malformed payload shapes alike.
type Error struct {
	URL     string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("extraction of %s failed: %s", e.URL, e.Message)
}

// Client calls the extraction service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	retry   *utils.RetryConfig
	logger  *utils.Logger
}

// NewClient creates a Client for the service at baseURL.
func NewClient(baseURL string, maxRetries int, logger *utils.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 120 * time.Second},
		retry: &utils.RetryConfig{
			MaxAttempts: maxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
		logger: logger,
	}
}

type scrapeRequest struct {
	URL    string `json:"url"`
	Prompt any    `json:"prompt"`
}

type scrapeResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// Extract sends the URL and directive to the service and validates the
// response shape. A listing extraction yields an array (empty is valid);
// a detail extraction yields a single non-null object. Anything else comes
// back as *Error — never a partially-shaped result.
func (c *Client) Extract(ctx context.Context, url string, directive Directive) (*Result, error) {
	body, err := json.Marshal(scrapeRequest{URL: url, Prompt: directive.payload()})
	if err != nil {
		return nil, &Error{URL: url, Message: fmt.Sprintf("encode request: %v", err)}
	}

	var resp scrapeResponse
	err = c.retry.Do(ctx, "extract "+url, func() error {
		return c.post(ctx, body, &resp)
	})
	if err != nil {
		return nil, &Error{URL: url, Message: err.Error()}
	}

	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "extraction service reported failure without a message"
		}
		return nil, &Error{URL: url, Message: msg}
	}

	return parseData(url, resp.Data)
}

func (c *Client) post(ctx context.Context, body []byte, out *scrapeResponse) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/scrape", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("transport: %w", err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return fmt.Errorf("service returned %d: %s", httpResp.StatusCode, truncateBody(raw))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("malformed response body: %w", err)
	}
	return nil
}

// parseData classifies the payload as listings or a detail object.
func parseData(url string, data json.RawMessage) (*Result, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, &Error{URL: url, Message: "extraction returned no data"}
	}

	switch trimmed[0] {
	case '[':
		var listings []map[string]any
		if err := json.Unmarshal(trimmed, &listings); err != nil {
			return nil, &Error{URL: url, Message: fmt.Sprintf("listing payload is not an array of objects: %v", err)}
		}
		return &Result{Kind: KindListings, Listings: listings}, nil
	case '{':
		var detail map[string]any
		if err := json.Unmarshal(trimmed, &detail); err != nil {
			return nil, &Error{URL: url, Message: fmt.Sprintf("detail payload is not an object: %v", err)}
		}
		return &Result{Kind: KindDetail, Detail: detail}, nil
	default:
		return nil, &Error{URL: url, Message: "extraction returned neither an array nor an object"}
	}
}

func truncateBody(b []byte) string {
	const max = 200
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
