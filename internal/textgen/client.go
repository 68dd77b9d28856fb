// Package textgen is the client of the remote text generation service
// (the ai-chat function) used by the coach chat.
package textgen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/2beens/fitmate/internal/profile"
	"github.com/2beens/fitmate/internal/telemetry/metrics"
	"github.com/2beens/fitmate/internal/telemetry/tracing"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
)

const (
	chatPath = "/functions/v1/ai-chat"

	DefaultTimeout          = 20 * time.Second
	DefaultFailureThreshold = 3
	DefaultOpenTimeout      = 30 * time.Second

	maxErrorBodyLen = 200
)

var ErrEmptyResponse = errors.New("text generation returned no response")

type chatRequest struct {
	Message  string              `json:"message"`
	UserData profile.UserProfile `json:"userData"`
}

type chatResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

type ClientParams struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// FailureThreshold consecutive failures open the breaker for OpenTimeout.
	FailureThreshold uint32
	OpenTimeout      time.Duration
	MetricsManager   *metrics.Manager
	// HTTPClient overrides the default traced client, mostly for tests.
	HTTPClient *http.Client
}

type Client struct {
	baseURL        string
	apiKey         string
	httpClient     *http.Client
	circuitBreaker *gobreaker.CircuitBreaker[string]
	metricsManager *metrics.Manager
}

func NewClient(params ClientParams) *Client {
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	failureThreshold := params.FailureThreshold
	if failureThreshold == 0 {
		failureThreshold = DefaultFailureThreshold
	}
	openTimeout := params.OpenTimeout
	if openTimeout <= 0 {
		openTimeout = DefaultOpenTimeout
	}

	httpClient := params.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	cbSettings := gobreaker.Settings{
		Name:        "textgen",
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warnf("circuit breaker [%s]: %s -> %s", name, from, to)
		},
	}

	return &Client{
		baseURL:        strings.TrimSuffix(params.BaseURL, "/"),
		apiKey:         params.APIKey,
		httpClient:     httpClient,
		circuitBreaker: gobreaker.NewCircuitBreaker[string](cbSettings),
		metricsManager: params.MetricsManager,
	}
}

// Generate asks the remote service for a reply to message. Any non 2xx status,
// malformed body or empty response is an error; so is an open breaker.
func (c *Client) Generate(ctx context.Context, message string, p profile.UserProfile) (_ string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "textgen.generate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if c.metricsManager != nil {
		defer func(begin time.Time) {
			c.metricsManager.HistTextGenDuration.Observe(time.Since(begin).Seconds())
		}(time.Now())
	}

	response, err := c.circuitBreaker.Execute(func() (string, error) {
		return c.generate(ctx, message, p)
	})
	span.SetAttributes(attribute.String("textgen.breaker.state", c.circuitBreaker.State().String()))
	if err != nil {
		return "", err
	}
	return response, nil
}

func (c *Client) generate(ctx context.Context, message string, p profile.UserProfile) (string, error) {
	reqBody, err := json.Marshal(chatRequest{
		Message:  message,
		UserData: p,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatPath, bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request [%s]: %w", requestID, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read chat response [%s]: %w", requestID, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("chat request [%s]: status %d: %s", requestID, resp.StatusCode, truncate(string(body), maxErrorBodyLen))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("unmarshal chat response [%s]: %w", requestID, err)
	}
	if chatResp.Response == "" {
		if chatResp.Error != "" {
			return "", fmt.Errorf("%w: %s", ErrEmptyResponse, chatResp.Error)
		}
		return "", ErrEmptyResponse
	}

	return chatResp.Response, nil
}

// truncate cuts s to at most n bytes without splitting a multi-byte rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
