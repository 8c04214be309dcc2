// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package api talks to the video Q&A backend: streamed and one-shot chat
// answers plus the topic and video browse endpoints.
package api

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
	"golang.org/x/time/rate"

	"github.com/pdiddy/citechat/internal/httputil"
	"github.com/pdiddy/citechat/pkg/types"
)

const (
	defaultBaseURL = "http://localhost:8000"
	defaultTopK    = 5

	// DefaultTopicLimit and DefaultVideoLimit are the page sizes used when
	// a browse call passes a zero limit.
	DefaultTopicLimit = 50
	DefaultVideoLimit = 20

	// maxErrorBody bounds how much of a failed response is kept for the
	// error message.
	maxErrorBody = 512
)

// ErrNotFound matches a StatusError for a 404 response.
var ErrNotFound = errors.New("not found")

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Status     string
	Detail     string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s: backend returned %s", e.Endpoint, e.Status)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Client is a backend API client. It is safe for concurrent use.
type Client struct {
	baseURL    string
	cfg        types.ClientConfig
	httpClient *http.Client
	// streamClient has no overall timeout; streams are bounded by ctx.
	streamClient *http.Client
	token        string
	limiter      *rate.Limiter
	log          zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for every request.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
		c.streamClient = hc
	}
}

// WithToken sends "Authorization: Bearer <token>" on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New returns a Client for the backend described by cfg.
func New(cfg types.ClientConfig, opts ...Option) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	if cfg.TopK <= 0 {
		cfg.TopK = defaultTopK
	}

	c := &Client{
		baseURL:      base,
		cfg:          cfg,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		streamClient: &http.Client{},
		log:          zerolog.Nop(),
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// Query asks a question and waits for the complete answer.
func (c *Client) Query(ctx context.Context, query string) (*types.QueryResponse, error) {
	var out types.QueryResponse
	body := types.ChatRequest{Query: query, TopK: c.cfg.TopK}
	if err := c.doJSON(ctx, c.httpClient, http.MethodPost, "/chat/query", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Topics lists indexed topic segments.
func (c *Client) Topics(ctx context.Context, page types.Page) ([]types.TopicSummary, error) {
	var out []types.TopicSummary
	path := "/browse/topics?" + pageQuery(page, DefaultTopicLimit)
	if err := c.doJSON(ctx, c.httpClient, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Topic fetches one topic with its summary text.
func (c *Client) Topic(ctx context.Context, id string) (*types.TopicDetail, error) {
	var out types.TopicDetail
	if err := c.doJSON(ctx, c.httpClient, http.MethodGet, "/browse/topics/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Videos lists indexed videos.
func (c *Client) Videos(ctx context.Context, page types.Page) ([]types.VideoSummary, error) {
	var out []types.VideoSummary
	path := "/browse/videos?" + pageQuery(page, DefaultVideoLimit)
	if err := c.doJSON(ctx, c.httpClient, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Video fetches one video with its topic segments.
func (c *Client) Video(ctx context.Context, id string) (*types.VideoDetail, error) {
	var out types.VideoDetail
	if err := c.doJSON(ctx, c.httpClient, http.MethodGet, "/browse/videos/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func pageQuery(p types.Page, defaultLimit int) string {
	limit := p.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	offset := p.Offset
	if offset < 0 {
		offset = 0
	}
	return url.Values{
		"limit":  {fmt.Sprintf("%d", limit)},
		"offset": {fmt.Sprintf("%d", offset)},
	}.Encode()
}

// doJSON sends an optional JSON body and decodes a JSON response into out.
func (c *Client) doJSON(ctx context.Context, hc *http.Client, method, path string, in, out any) error {
	resp, err := c.send(ctx, hc, method, path, in, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decoding response: %w", method, path, err)
	}
	return nil
}

// send performs a request with pacing and retry and returns the response
// only when its status is 2xx.
func (c *Client) send(ctx context.Context, hc *http.Client, method, path string, in any, accept string) (*http.Response, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", accept)
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	resp, err := httputil.DoWithRetry(ctx, hc, req, c.cfg.MaxRetries, func(attempt, maxRetries, status int, wait time.Duration) {
		c.log.Warn().
			Str("path", path).
			Int("status", status).
			Int("attempt", attempt).
			Int("max_retries", maxRetries).
			Dur("wait", wait).
			Msg("backend busy, retrying")
	})
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("backend request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, &StatusError{
			Endpoint:   method + " " + path,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Detail:     errorDetail(resp.Body),
		}
	}
	return resp, nil
}

// errorDetail extracts a human message from an error body: FastAPI's
// {"detail": ...} when present, otherwise the trimmed text.
func errorDetail(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	var fe struct {
		Detail any `json:"detail"`
	}
	if json.Unmarshal(data, &fe) == nil && fe.Detail != nil {
		if s, ok := fe.Detail.(string); ok {
			return s
		}
		if b, err := json.Marshal(fe.Detail); err == nil {
			return string(b)
		}
	}
	return strings.TrimSpace(string(data))
}
