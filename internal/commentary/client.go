// Package commentary requests natural language commentary on a forecast from an OpenAI
// compatible chat-completion API such as Groq
package commentary

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aouyang1/go-revenue-forecaster/internal/metrics"
	"github.com/aouyang1/go-revenue-forecaster/internal/pipeline"
	"github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel   = "llama3-8b-8192"
	DefaultTimeout = 60 * time.Second

	// maxErrorBody bounds how much of a failed response body is kept
	maxErrorBody = 4096
)

var (
	ErrMissingAPIKey = errors.New("missing api key")
	ErrEmptyResponse = errors.New("chat completion returned no choices")
)

// APIError is returned when the chat-completion endpoint responds with a non 2xx status
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("chat completion returned status %d: %s", e.StatusCode, e.Body)
}

// Options configures a Client
type Options struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	// RequestsPerMinute paces outbound requests. 0 disables pacing.
	RequestsPerMinute int
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Client sends a single non-streaming chat completion per forecast
type Client struct {
	apiKey  string
	baseURL string
	model   string

	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New creates a client. The api key is required.
func New(opt Options, logger *slog.Logger, m *metrics.Metrics) (*Client, error) {
	if opt.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if opt.BaseURL == "" {
		opt.BaseURL = DefaultBaseURL
	}
	if opt.Model == "" {
		opt.Model = DefaultModel
	}
	if opt.Timeout <= 0 {
		opt.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opt.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opt.RequestsPerMinute)), 1)
	}

	return &Client{
		apiKey:  opt.APIKey,
		baseURL: strings.TrimRight(opt.BaseURL, "/"),
		model:   opt.Model,
		client:  &http.Client{Timeout: opt.Timeout},
		limiter: limiter,
		logger:  logger,
		metrics: m,
	}, nil
}

// Comment embeds the horizon in the prompt and returns the assistant message unmodified
func (c *Client) Comment(ctx context.Context, horizon []pipeline.ForecastPoint) (string, error) {
	prompt, err := BuildPrompt(horizon)
	if err != nil {
		return "", err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("unable to wait for rate limiter, %w", err)
	}

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: SystemMessage},
			{Role: "user", Content: prompt},
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("unable to marshal chat request, %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("unable to create chat request, %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.RecordCommentaryRequest("error")
		return "", fmt.Errorf("unable to call chat completion endpoint, %w", err)
	}
	defer resp.Body.Close()
	c.metrics.RecordCommentaryRequest(statusClass(resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("unable to decode chat response, %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	c.logger.Debug("received commentary",
		"model", c.model,
		"points", len(horizon),
		"latency", time.Since(start),
	)
	return chatResp.Choices[0].Message.Content, nil
}

func statusClass(code int) string {
	return fmt.Sprintf("%dxx", code/100)
}
