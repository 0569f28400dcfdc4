package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"staybook/pkg/logger"
	"staybook/pkg/metrics"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

var (
	// ErrBackendUnavailable is returned while the circuit breaker is open.
	ErrBackendUnavailable = errors.New("backend temporarily unavailable")

	errServerStatus = errors.New("backend returned a server error")
)

var retryableStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

type Config struct {
	BaseURL            string
	Timeout            time.Duration
	RateLimit          int
	Burst              int
	MaxRetries         int
	RetryDelay         time.Duration
	BreakerFailures    int
	BreakerOpenTimeout time.Duration
}

type HttpClient struct {
	BaseURL    string
	HTTPClient *http.Client

	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	maxRetries int
	retryDelay time.Duration
	metrics    *metrics.Metrics
	log        *logger.Logger
}

func NewHttpClient(cfg Config, log *logger.Logger, m *metrics.Metrics) *HttpClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 20
	}
	if cfg.Burst <= 0 {
		cfg.Burst = cfg.RateLimit
	}
	if cfg.BreakerFailures <= 0 {
		cfg.BreakerFailures = 5
	}

	c := &HttpClient{
		BaseURL: cfg.BaseURL,
		HTTPClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst),
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		metrics:    m,
		log:        log,
	}

	failures := uint32(cfg.BreakerFailures)
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "hotel-backend",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("Circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
			if m != nil {
				m.BreakerState.WithLabelValues(name).Set(float64(to))
			}
		},
	})

	return c
}

type Response struct {
	*http.Response
	Body []byte
}

func (r *Response) DecodeJSON(target any) error {
	return json.Unmarshal(r.Body, target)
}

func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (c *HttpClient) GET(ctx context.Context, path string) (*Response, error) {
	return c.request(ctx, http.MethodGet, path, nil)
}

func (c *HttpClient) POST(ctx context.Context, path string, body any) (*Response, error) {
	return c.request(ctx, http.MethodPost, path, body)
}

func (c *HttpClient) PATCH(ctx context.Context, path string, body any) (*Response, error) {
	return c.request(ctx, http.MethodPatch, path, body)
}

func (c *HttpClient) DELETE(ctx context.Context, path string) (*Response, error) {
	return c.request(ctx, http.MethodDelete, path, nil)
}

func (c *HttpClient) request(ctx context.Context, method, path string, body any) (*Response, error) {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = data
	}

	// Only reads are retried. Creating a booking twice is worse than failing once.
	attempts := 1
	if method == http.MethodGet {
		attempts += c.maxRetries
	}

	var resp *Response
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay * time.Duration(attempt)
			c.log.Debug("Retrying backend request",
				"method", method,
				"path", path,
				"attempt", attempt,
				"delay", delay,
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		resp, err = c.execute(ctx, method, path, payload)
		if !c.shouldRetry(ctx, resp, err) {
			break
		}
	}

	if err != nil && !errors.Is(err, errServerStatus) {
		return nil, err
	}
	return resp, nil
}

func (c *HttpClient) shouldRetry(ctx context.Context, resp *Response, err error) bool {
	if ctx.Err() != nil || errors.Is(err, ErrBackendUnavailable) {
		return false
	}
	if resp != nil {
		return retryableStatus[resp.StatusCode]
	}
	return err != nil
}

// execute runs one round trip through the limiter and the breaker. Responses
// below 500 count as breaker successes so 4xx answers never trip it.
func (c *HttpClient) execute(ctx context.Context, method, path string, payload []byte) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	result, err := c.breaker.Execute(func() (any, error) {
		resp, err := c.do(ctx, method, path, payload)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			return resp, errServerStatus
		}
		return resp, nil
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrBackendUnavailable
	}

	resp, _ := result.(*Response)
	return resp, err
}

func (c *HttpClient) do(ctx context.Context, method, path string, payload []byte) (*Response, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := BearerToken(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	c.observe(method, resp, start)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		Response: resp,
		Body:     respBody,
	}, nil
}

func (c *HttpClient) observe(method string, resp *http.Response, start time.Time) {
	if c.metrics == nil {
		return
	}
	status := "error"
	if resp != nil {
		status = strconv.Itoa(resp.StatusCode)
	}
	c.metrics.BackendRequests.WithLabelValues(method, status).Inc()
	c.metrics.BackendDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
}

// WaitForHealthy polls the backend until it answers or maxWait elapses.
func (c *HttpClient) WaitForHealthy(ctx context.Context, path string, maxWait time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, maxWait)
	defer cancel()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		resp, err := c.do(ctx, http.MethodGet, path, nil)
		if err == nil && resp.StatusCode < 500 {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("backend did not become healthy within %v", maxWait)
		case <-ticker.C:
		}
	}
}
