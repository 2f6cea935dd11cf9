package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultModel       = "gpt-3.5-turbo-instruct"
	DefaultMaxTokens   = 50
	DefaultTemperature = 0.5
	DefaultTimeout     = 30 * time.Second
)

type completionRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
}

// Client talks to an OpenAI-compatible text completion endpoint.
// A single Propose issues exactly one HTTP request.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64

	http           *fasthttp.Client
	defaultTimeout time.Duration
	logger         *zap.Logger
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u = strings.TrimSpace(u); u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func WithModel(m string) Option {
	return func(c *Client) {
		if m = strings.TrimSpace(m); m != "" {
			c.model = m
		}
	}
}

func WithMaxTokens(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

func WithTemperature(t float64) Option {
	return func(c *Client) {
		if t >= 0 {
			c.temperature = t
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.defaultTimeout = d
		}
	}
}

func WithMaxConnsPerHost(n int) Option {
	return func(c *Client) { c.http.MaxConnsPerHost = n }
}

// WithDial replaces the dialer, mostly for in-memory tests.
func WithDial(d fasthttp.DialFunc) Option {
	return func(c *Client) { c.http.Dial = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func NewClient(apiKey string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("llm: api key is required")
	}
	c := &Client{
		baseURL:        DefaultBaseURL,
		apiKey:         apiKey,
		model:          DefaultModel,
		maxTokens:      DefaultMaxTokens,
		temperature:    DefaultTemperature,
		http:           &fasthttp.Client{MaxConnsPerHost: 64},
		defaultTimeout: DefaultTimeout,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Model() string { return c.model }

type rawResult struct {
	status int
	body   []byte
	err    error
}

// Propose sends prompt and returns the first completion's text, trimmed.
// Any failure is an *UpstreamError. Cancelling ctx abandons the call.
func (c *Client) Propose(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(completionRequest{
		Model:       c.model,
		Prompt:      prompt,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", &UpstreamError{Detail: "marshal request", Err: err}
	}
	if err := ctx.Err(); err != nil {
		return "", ctxError(err)
	}

	deadline := c.computeDeadline(ctx)
	done := make(chan rawResult, 1)
	go func() {
		done <- c.do(payload, deadline)
	}()

	var res rawResult
	select {
	case <-ctx.Done():
		return "", ctxError(ctx.Err())
	case res = <-done:
	}

	if res.err != nil {
		timeout := errors.Is(res.err, fasthttp.ErrTimeout) || errors.Is(res.err, fasthttp.ErrDialTimeout)
		return "", &UpstreamError{Detail: "request failed", Timeout: timeout, Err: res.err}
	}
	if res.status < 200 || res.status >= 300 {
		return "", &UpstreamError{Detail: truncate(string(res.body), 512), Status: res.status}
	}

	var out completionResponse
	if err := json.Unmarshal(res.body, &out); err != nil {
		return "", &UpstreamError{Detail: "decode response", Err: err}
	}
	if len(out.Choices) == 0 {
		return "", &UpstreamError{Detail: "no choices in response"}
	}
	text := strings.TrimSpace(out.Choices[0].Text)
	if text == "" {
		return "", &UpstreamError{Detail: "empty completion"}
	}
	c.logger.Debug("llm_completion", zap.String("model", c.model), zap.String("text", text))
	return text, nil
}

// do owns the pooled request/response so an abandoned call still releases them.
func (c *Client) do(payload []byte, deadline time.Time) rawResult {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(fasthttp.MethodPost)
	req.SetRequestURI(c.baseURL + "/completions")
	req.Header.SetContentType("application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.SetBody(payload)

	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return rawResult{err: err}
	}
	body := append([]byte(nil), resp.Body()...)
	return rawResult{status: resp.StatusCode(), body: body}
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func ctxError(err error) *UpstreamError {
	return &UpstreamError{
		Detail:  fmt.Sprintf("call abandoned: %v", err),
		Timeout: errors.Is(err, context.DeadlineExceeded),
		Err:     err,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
