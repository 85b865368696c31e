// Package gateway is a small client for the Ollama inference server.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// GatewayError wraps every failure talking to the inference server.
type GatewayError struct {
	Op         string
	StatusCode int    // 0 when no response was received
	Body       string // truncated response body for non-2xx replies
	Err        error
}

func (e *GatewayError) Error() string {
	var b strings.Builder
	b.WriteString("gateway ")
	b.WriteString(e.Op)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
		if e.Body != "" {
			b.WriteString(": ")
			b.WriteString(e.Body)
		}
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *GatewayError) Unwrap() error { return e.Err }

// IsGatewayError reports whether err came from the gateway client.
func IsGatewayError(err error) bool {
	var ge *GatewayError
	return errors.As(err, &ge)
}

// ProvisionWarning means a pull completed without reporting success.
type ProvisionWarning struct {
	Model  string
	Status string
}

func (w *ProvisionWarning) Error() string {
	return fmt.Sprintf("pull %s finished with status %q", w.Model, w.Status)
}

// Options are the sampling parameters sent with every generate call.
type Options struct {
	Temperature float64 `json:"temperature"`
	TopK        int     `json:"top_k"`
	TopP        float64 `json:"top_p"`
	NumPredict  int     `json:"num_predict"`
}

// DefaultOptions returns the sampling defaults used for assistant replies.
func DefaultOptions() Options {
	return Options{Temperature: 0.7, TopK: 40, TopP: 0.9, NumPredict: 2048}
}

// Config configures a Client. Zero durations take package defaults.
type Config struct {
	BaseURL        string
	Timeout        time.Duration // generate, pull and list
	HealthTimeout  time.Duration
	ConnectTimeout time.Duration
	Options        *Options
	Logger         *zerolog.Logger
	HTTPClient     *http.Client
}

const (
	defaultBaseURL        = "http://localhost:11434"
	defaultTimeout        = 300 * time.Second
	defaultHealthTimeout  = 5 * time.Second
	defaultConnectTimeout = 5 * time.Second
	maxErrorBody          = 4096
)

// Client is safe for concurrent use.
type Client struct {
	baseURL       string
	timeout       time.Duration
	healthTimeout time.Duration
	opts          Options
	http          *http.Client
	log           zerolog.Logger
}

func New(cfg Config) *Client {
	c := &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		timeout:       cfg.Timeout,
		healthTimeout: cfg.HealthTimeout,
		opts:          DefaultOptions(),
		http:          cfg.HTTPClient,
		log:           zerolog.Nop(),
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if c.healthTimeout <= 0 {
		c.healthTimeout = defaultHealthTimeout
	}
	if cfg.Options != nil {
		c.opts = *cfg.Options
	}
	if cfg.Logger != nil {
		c.log = cfg.Logger.With().Str("component", "gateway").Logger()
	}
	if c.http == nil {
		connect := cfg.ConnectTimeout
		if connect <= 0 {
			connect = defaultConnectTimeout
		}
		tr := &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   connect,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		}
		// Deadlines come from the per-call context, not the client.
		c.http = &http.Client{Transport: tr, Timeout: 0}
	}
	return c
}

// BaseURL returns the server address the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

type generateRequest struct {
	Model   string  `json:"model"`
	Prompt  string  `json:"prompt"`
	Stream  bool    `json:"stream"`
	Options Options `json:"options"`
}

type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// FormatPrompt renders the system/user prompt the way the assistant models
// expect it.
func FormatPrompt(system, user string) string {
	return "System: " + system + "\n\nHuman: " + user + "\n\nAssistant:"
}

// Generate runs a single non-streaming completion.
func (c *Client) Generate(ctx context.Context, model, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	var out generateResponse
	start := time.Now()
	err := c.do(ctx, "generate", http.MethodPost, "/api/generate", generateRequest{
		Model:   model,
		Prompt:  FormatPrompt(system, user),
		Stream:  false,
		Options: c.opts,
	}, &out)
	if err != nil {
		return "", err
	}
	c.log.Debug().Str("model", model).Dur("dur", time.Since(start)).Int("chars", len(out.Response)).Msg("generate done")
	return out.Response, nil
}

type pullRequest struct {
	Name   string `json:"name"`
	Stream bool   `json:"stream"`
}

type pullResponse struct {
	Status string `json:"status"`
}

// EnsureModel asks the server to pull name. A pull that completes with a
// status other than "success" is reported as a warning, not an error.
func (c *Client) EnsureModel(ctx context.Context, name string) (*ProvisionWarning, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	c.log.Info().Str("model", name).Msg("pulling model")
	var out pullResponse
	if err := c.do(ctx, "pull", http.MethodPost, "/api/pull", pullRequest{Name: name, Stream: false}, &out); err != nil {
		return nil, err
	}
	if out.Status != "success" {
		w := &ProvisionWarning{Model: name, Status: out.Status}
		c.log.Warn().Str("model", name).Str("status", out.Status).Msg("model pull did not report success")
		return w, nil
	}
	c.log.Info().Str("model", name).Msg("model ready")
	return nil, nil
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// ListModels returns the names of models installed on the server.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	var out tagsResponse
	if err := c.do(ctx, "list", http.MethodGet, "/api/tags", nil, &out); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(out.Models))
	for _, m := range out.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// IsAvailable reports whether any installed model name starts with prefix.
// Listing failures count as unavailable.
func (c *Client) IsAvailable(ctx context.Context, prefix string) bool {
	names, err := c.ListModels(ctx)
	if err != nil {
		c.log.Warn().Err(err).Str("prefix", prefix).Msg("model availability check failed")
		return false
	}
	for _, n := range names {
		if strings.HasPrefix(n, prefix) {
			return true
		}
	}
	return false
}

// HealthCheck probes the server with the short health timeout.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return &GatewayError{Op: "health", Err: err}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return &GatewayError{Op: "health", Err: transportErr(ctx, err)}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &GatewayError{Op: "health", StatusCode: resp.StatusCode}
	}
	return nil
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return &GatewayError{Op: op, Err: err}
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &GatewayError{Op: op, Err: err}
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return &GatewayError{Op: op, Err: transportErr(ctx, err)}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &GatewayError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctx.Err() != nil {
			return &GatewayError{Op: op, Err: ctx.Err()}
		}
		return &GatewayError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// transportErr prefers the context error so callers can match on
// context.Canceled and context.DeadlineExceeded.
func transportErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}
