// Package remote delegates analysis of one language to an HTTP analyzer
// service exposing POST /analyze and GET /health.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ziadkadry99/mcporch/internal/analysis"
)

// maxResponseBytes bounds how much of a collaborator response is read.
const maxResponseBytes = 8 << 20

// Client is an analysis.Analyzer backed by a remote analyzer service.
type Client struct {
	language string
	endpoint string
	http     *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// New creates a client for language served at endpoint, for example
// "http://localhost:8080".
func New(language, endpoint string, opts ...Option) *Client {
	c := &Client{
		language: language,
		endpoint: strings.TrimRight(endpoint, "/"),
		http:     &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Language() string { return c.language }

func (c *Client) Strategy() analysis.Strategy { return analysis.StrategyRemote }

// Endpoint returns the base URL of the collaborator.
func (c *Client) Endpoint() string { return c.endpoint }

type analyzeRequest struct {
	Code string `json:"code"`
}

// analyzeResponse is either a record or {"error": "..."}.
type analyzeResponse struct {
	analysis.Record
	Error string `json:"error,omitempty"`
}

// Analyze posts source to the collaborator. A 2xx body carrying an error
// field is a parse error; any other failure to get a record is a transport
// error, and an expired context is a timeout.
func (c *Client) Analyze(ctx context.Context, source string) (*analysis.Record, error) {
	body, err := json.Marshal(analyzeRequest{Code: source})
	if err != nil {
		return nil, analysis.NewInternalError("encoding analyze request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, analysis.NewTransportError(c.language, "building request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.requestError(ctx, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, c.requestError(ctx, err)
	}

	var out analyzeResponse
	decodeErr := json.Unmarshal(data, &out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := strings.TrimSpace(string(data))
		if decodeErr == nil && out.Error != "" {
			detail = out.Error
		}
		return nil, analysis.NewTransportError(c.language,
			fmt.Sprintf("analyzer returned status %d: %s", resp.StatusCode, detail), nil)
	}
	if decodeErr != nil {
		return nil, analysis.NewTransportError(c.language, "decoding analyzer response", decodeErr)
	}
	if out.Error != "" {
		return nil, analysis.NewParseError(c.language, out.Error, nil)
	}

	rec := out.Record
	return &rec, nil
}

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status  string `json:"status"`
	Service string `json:"service,omitempty"`
}

// Health probes GET /health on the collaborator.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/health", nil)
	if err != nil {
		return nil, analysis.NewTransportError(c.language, "building request", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.requestError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, analysis.NewTransportError(c.language,
			fmt.Sprintf("health check returned status %d", resp.StatusCode), nil)
	}

	var hs HealthStatus
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&hs); err != nil {
		return nil, analysis.NewTransportError(c.language, "decoding health response", err)
	}
	return &hs, nil
}

func (c *Client) requestError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return analysis.NewTimeoutError(c.language, err)
	}
	return analysis.NewTransportError(c.language, "contacting analyzer at "+c.endpoint, err)
}
