package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"contentsbuilder/internal/logging"
)

const (
	// DefaultBaseURL is the public v1beta models endpoint.
	DefaultBaseURL     = "https://generativelanguage.googleapis.com/v1beta/models"
	DefaultTemperature = 0.7
	jsonMimeType       = "application/json"
	defaultHTTPTimeout = 60 * time.Second
	maxResponseBytes   = 8 << 20
)

// AuthMode selects how the API key travels with the request.
type AuthMode string

const (
	// AuthQuery sends the key as the ?key= query parameter.
	AuthQuery AuthMode = "query"
	// AuthHeader sends the key in the x-goog-api-key header.
	AuthHeader AuthMode = "header"
)

// Config captures the runtime settings required to talk to Gemini.
type Config struct {
	APIKey         string
	BaseURL        string
	Temperature    float64
	TimeoutSeconds int
	AuthMode       AuthMode
}

// DefaultHTTPTimeout returns the timeout used when TimeoutSeconds is unset.
func DefaultHTTPTimeout() time.Duration {
	return defaultHTTPTimeout
}

// Generator is the capability the screening cycle depends on.
type Generator interface {
	GenerateText(ctx context.Context, model, systemInstruction, prompt string, jsonMode bool) (string, error)
}

// Client wraps the generateContent API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger attaches a logger for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient constructs a client using the supplied configuration. A zero
// Temperature selects DefaultTemperature.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			Temperature:    cfg.Temperature,
			TimeoutSeconds: cfg.TimeoutSeconds,
			AuthMode:       AuthMode(strings.ToLower(strings.TrimSpace(string(cfg.AuthMode)))),
		},
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = DefaultBaseURL
	}
	if client.cfg.Temperature == 0 {
		client.cfg.Temperature = DefaultTemperature
	}
	if client.cfg.AuthMode == "" {
		client.cfg.AuthMode = AuthQuery
	}
	return client
}

// GenerateText issues one generateContent call and returns the candidate
// text. In JSON mode the endpoint is asked for application/json output.
func (c *Client) GenerateText(ctx context.Context, model, systemInstruction, prompt string, jsonMode bool) (string, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		return "", errors.New("gemini generate: model required")
	}
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("gemini generate: prompt required")
	}
	if c.cfg.APIKey == "" {
		return "", errors.New("gemini generate: api key required")
	}

	payload := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature: c.cfg.Temperature,
		},
	}
	if strings.TrimSpace(systemInstruction) != "" {
		payload.SystemInstruction = &content{Role: "system", Parts: []part{{Text: systemInstruction}}}
	}
	if jsonMode {
		payload.GenerationConfig.ResponseMimeType = jsonMimeType
	}

	started := time.Now()
	resp, body, err := c.send(ctx, model, payload)
	if err != nil {
		return "", err
	}
	text, finishReason := candidateText(resp)
	if strings.TrimSpace(text) == "" {
		empty := &EmptyResponseError{FinishReason: finishReason, Snippet: summarizeSnippet(string(body))}
		if resp.PromptFeedback != nil {
			empty.BlockReason = resp.PromptFeedback.BlockReason
		}
		return "", empty
	}
	c.logger.Debug("gemini response received",
		logging.String(logging.FieldModel, model),
		logging.Bool("json_mode", jsonMode),
		logging.String("finish_reason", finishReason),
		logging.Duration("elapsed", time.Since(started)),
	)
	return text, nil
}

type healthResponse struct {
	OK bool `json:"ok"`
}

// HealthCheck issues a JSON-mode ping to verify the key and model are usable.
func (c *Client) HealthCheck(ctx context.Context, model string) error {
	parsed, err := GenerateStructured[healthResponse](ctx, c, model, "You must respond with JSON only.", `Respond with {"ok":true}`)
	if err != nil {
		return fmt.Errorf("gemini health: %w", err)
	}
	if !parsed.OK {
		return errors.New("gemini health: unexpected response")
	}
	return nil
}

// candidateText concatenates the text parts of the first candidate.
func candidateText(resp generateResponse) (string, string) {
	if len(resp.Candidates) == 0 {
		return "", ""
	}
	first := resp.Candidates[0]
	var b strings.Builder
	for _, p := range first.Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String(), strings.TrimSpace(first.FinishReason)
}

func (c *Client) endpoint(model string) (string, error) {
	base, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return "", fmt.Errorf("gemini request: build url: %w", err)
	}
	base = base.JoinPath(model + ":generateContent")
	if c.cfg.AuthMode == AuthQuery {
		q := base.Query()
		q.Set("key", c.cfg.APIKey)
		base.RawQuery = q.Encode()
	}
	return base.String(), nil
}

func (c *Client) send(ctx context.Context, model string, payload generateRequest) (generateResponse, []byte, error) {
	var decoded generateResponse
	endpoint, err := c.endpoint(model)
	if err != nil {
		return decoded, nil, err
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return decoded, nil, fmt.Errorf("gemini request: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return decoded, nil, fmt.Errorf("gemini request: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.AuthMode == AuthHeader {
		req.Header.Set("x-goog-api-key", c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decoded, nil, &TransportError{Err: redactKey(err, c.cfg.APIKey)}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return decoded, nil, &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := ParseRetryAfter(resp.Header.Get("Retry-After"))
		return decoded, body, &TransportError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			RetryAfter: retryAfter,
		}
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return decoded, body, &TransportError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			Err:        fmt.Errorf("decode response: %w", err),
		}
	}
	if decoded.Error != nil {
		return decoded, body, &TransportError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			Err:        fmt.Errorf("api error %d %s: %s", decoded.Error.Code, decoded.Error.Status, strings.TrimSpace(decoded.Error.Message)),
		}
	}
	return decoded, body, nil
}

// redactKey strips the API key from url.Error messages, which embed the
// full request URL in query auth mode.
func redactKey(err error, key string) error {
	if key == "" || !strings.Contains(err.Error(), key) {
		return err
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &url.Error{Op: urlErr.Op, URL: strings.ReplaceAll(urlErr.URL, key, "REDACTED"), Err: urlErr.Err}
	}
	return errors.New(strings.ReplaceAll(err.Error(), key, "REDACTED"))
}
