// Package api binds the resource call contract to the lead-generation REST
// backend. Every method returns a resource.Result: a transport failure is
// the returned error, a refusal by the backend is a Result with Success=false.
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
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robby/leadgen/internal/auth"
	"github.com/robby/leadgen/internal/resource"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leadgen_api_requests_total",
		Help: "Total backend requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "leadgen_api_request_duration_seconds",
		Help:    "Backend request duration in seconds by endpoint",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leadgen_api_errors_total",
		Help: "Total backend errors by class",
	}, []string{"class"})
)

// DefaultBaseURL is the backend address used when none is configured.
const DefaultBaseURL = "http://localhost:5000/api"

// UnauthorizedMessage is the rejection text for a 401 response.
const UnauthorizedMessage = "Unauthorized: check your API token"

// Config holds the client configuration.
type Config struct {
	// BaseURL is the API root, e.g. http://localhost:5000/api.
	BaseURL string

	// Timeout bounds each HTTP round trip.
	Timeout time.Duration

	// UserAgent is sent with every request.
	UserAgent string

	// Tokens resolves the bearer credential per call. Nil sends no credential.
	Tokens auth.TokenProvider
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		Timeout:   30 * time.Second,
		UserAgent: "leadgen/0.1",
	}
}

// Client is the lead-generation backend client.
type Client struct {
	httpClient *http.Client
	base       *url.URL
	config     Config
	logger     zerolog.Logger
}

// New creates a client. The base URL must be absolute.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultConfig().UserAgent
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		base:       base,
		config:     cfg,
		logger:     log.With().Str("component", "api-client").Logger(),
	}, nil
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// request describes one backend call. endpoint is the path template used
// as the metrics label; path is the concrete path.
type request struct {
	method   string
	endpoint string
	path     string
	query    url.Values
	body     any
}

// envelope is the optional {success, data, message, error} wrapper the
// backend may put around a payload.
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

// do performs req and decodes the response into a Result.
func do[T any](ctx context.Context, c *Client, req request) (resource.Result[T], error) {
	var zero resource.Result[T]

	httpReq, requestID, err := c.newRequest(ctx, req)
	if err != nil {
		return zero, err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	elapsed := time.Since(start)
	requestDuration.WithLabelValues(req.endpoint).Observe(elapsed.Seconds())

	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		requestsTotal.WithLabelValues(req.endpoint, "network_error").Inc()
		c.logger.Debug().
			Err(err).
			Str("endpoint", req.endpoint).
			Dur("duration", elapsed).
			Str("request_id", requestID).
			Msg("Request failed")
		return zero, &Error{Endpoint: req.endpoint, Class: ErrorClassNetwork, Err: err}
	}
	defer resp.Body.Close()

	requestsTotal.WithLabelValues(req.endpoint, strconv.Itoa(resp.StatusCode)).Inc()
	c.logger.Debug().
		Str("endpoint", req.endpoint).
		Str("method", req.method).
		Int("status_code", resp.StatusCode).
		Dur("duration", elapsed).
		Str("request_id", requestID).
		Msg("Request completed")

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return zero, &Error{Endpoint: req.endpoint, StatusCode: resp.StatusCode, Class: ErrorClassNetwork, Err: err}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		class := classifyStatus(resp.StatusCode)
		errorsTotal.WithLabelValues(string(class)).Inc()
		return resource.Result[T]{Success: false, Error: rejectionMessage(resp.StatusCode, body)}, nil
	}

	return decode[T](req.endpoint, resp.StatusCode, body)
}

func (c *Client) newRequest(ctx context.Context, req request) (*http.Request, string, error) {
	u := *c.base
	u.Path = c.base.Path + req.path
	if len(req.query) > 0 {
		u.RawQuery = req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return nil, "", fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("X-Request-ID", requestID)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.config.UserAgent)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	if c.config.Tokens != nil {
		token, err := c.config.Tokens.GetToken()
		switch {
		case err == nil:
			httpReq.Header.Set("Authorization", "Bearer "+token)
		case errors.Is(err, auth.ErrNoToken):
		default:
			return nil, "", fmt.Errorf("resolve token: %w", err)
		}
	}
	return httpReq, requestID, nil
}

// decode maps a 2xx body to a Result. A body that is an envelope with
// success=false is a rejection; an envelope with data unwraps to it;
// anything else is the payload itself.
func decode[T any](endpoint string, status int, body []byte) (resource.Result[T], error) {
	var res resource.Result[T]
	if len(bytes.TrimSpace(body)) == 0 {
		res.Success = true
		return res, nil
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Success != nil {
		if !*env.Success {
			errorsTotal.WithLabelValues(string(ErrorClassRejected)).Inc()
			return resource.Result[T]{Success: false, Message: env.Message, Error: env.Error}, nil
		}
		if len(env.Data) > 0 {
			body = env.Data
		}
	}

	if err := json.Unmarshal(body, &res.Data); err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		return resource.Result[T]{}, &Error{Endpoint: endpoint, StatusCode: status, Class: ErrorClassDecode, Err: err}
	}
	res.Success = true
	res.Message = env.Message
	return res, nil
}

// rejectionMessage picks the message of a 4xx/5xx body: a fixed text for
// 401, else its error field, then its message field, then the status text.
func rejectionMessage(status int, body []byte) string {
	if status == http.StatusUnauthorized {
		return UnauthorizedMessage
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil {
		if env.Error != "" {
			return env.Error
		}
		if env.Message != "" {
			return env.Message
		}
	}
	return fmt.Sprintf("Request failed with status %d (%s)", status, http.StatusText(status))
}

// reject carries a failed Result over to another payload type.
func reject[T, U any](res resource.Result[U]) resource.Result[T] {
	return resource.Result[T]{Success: false, Message: res.Message, Error: res.Error}
}
