package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pairing-gallery/internal/model"
)

const DefaultTimeout = 10 * time.Second

// Client talks to the painting API (/api/index, /api/painting/{id}).
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		UserAgent: "pairing-gallery",
	}
}

// FetchIndex returns one page of painting summaries. Pages start at 1.
func (c *Client) FetchIndex(ctx context.Context, page, limit int) (model.IndexPage, error) {
	if page < 1 {
		return model.IndexPage{}, fmt.Errorf("api: page must be >= 1, got %d", page)
	}
	if limit < 1 {
		return model.IndexPage{}, fmt.Errorf("api: limit must be >= 1, got %d", limit)
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	var out model.IndexPage
	if err := c.getJSON(ctx, "/api/index?"+q.Encode(), &out); err != nil {
		return model.IndexPage{}, err
	}
	return out, nil
}

// FetchPaintingDetail returns the full painting (with pairings) and its image url.
func (c *Client) FetchPaintingDetail(ctx context.Context, id int) (model.PaintingDetail, error) {
	var out model.PaintingDetail
	if err := c.getJSON(ctx, "/api/painting/"+strconv.Itoa(id), &out); err != nil {
		return model.PaintingDetail{}, err
	}
	return out, nil
}

// Ping checks the service healthcheck endpoint.
func (c *Client) Ping(ctx context.Context) error {
	resp, u, err := c.do(ctx, "/healthcheck")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{URL: u, StatusCode: resp.StatusCode}
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	resp, u, err := c.do(ctx, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{URL: u, StatusCode: resp.StatusCode, Message: readMessage(resp.Body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &TransportError{Op: "decode", URL: u, Err: err}
	}
	return nil
}

func (c *Client) do(ctx context.Context, path string) (*http.Response, string, error) {
	if c.BaseURL == "" {
		return nil, path, &TransportError{Op: "GET", URL: path, Err: fmt.Errorf("no API base url configured")}
	}
	u := c.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, u, &TransportError{Op: "GET", URL: u, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	hc := c.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, u, &TransportError{Op: "GET", URL: u, Err: err}
	}
	return resp, u, nil
}

// readMessage extracts {"message": "..."} from an error body, if present.
func readMessage(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, 64*1024))
	if err != nil || len(b) == 0 {
		return ""
	}
	var body struct {
		Message string `json:"message"`
		Detail  any    `json:"detail"`
	}
	if err := json.Unmarshal(b, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if s, ok := body.Detail.(string); ok {
			return s
		}
	}
	return strings.TrimSpace(string(b))
}
