// Package client provides the Thema customer API client: authentication,
// master data loading, query expansion and batch data fetching.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Sternrassler/thema-client/pkg/batch"
	"github.com/Sternrassler/thema-client/pkg/cache"
	"github.com/Sternrassler/thema-client/pkg/catalog"
	"github.com/Sternrassler/thema-client/pkg/result"
	"github.com/Sternrassler/thema-client/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for API calls.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thema_requests_total",
		Help: "Total API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "thema_request_duration_seconds",
		Help:    "API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thema_errors_total",
		Help: "Total API errors by class",
	}, []string{"class"})
)

// DefaultBaseURL is the customer API root.
const DefaultBaseURL = "https://portal.thema.no/customer-api"

// Client is the main Thema API client. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	session    *session.Session
	catalogs   *catalog.Store
	batch      *batch.Orchestrator
	config     Config
	logger     zerolog.Logger

	// rejected accumulates the rejection ledgers of every Fetch
	rejected *result.Ledger

	closeOnce sync.Once
	closed    chan struct{}
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the customer API
	BaseURL string

	// Credentials for /authenticate
	Username string
	Password string

	// HTTPTimeout bounds a single HTTP exchange
	HTTPTimeout time.Duration

	// Token timing
	TokenValidity     time.Duration
	TokenSafetyMargin time.Duration

	// Concurrency
	MaxConcurrency  int           // Data requests in flight per Fetch
	InstanceTimeout time.Duration // Per data request, including a re-login

	// Redis client for the master data snapshot cache (optional)
	Redis *redis.Client

	// MasterDataTTL is how long cached master data snapshots live
	MasterDataTTL time.Duration

	// AllEditions expands an absent edition to every edition instead of
	// the newest one
	AllEditions bool

	// Logger (default: global logger with component=thema-client)
	Logger *zerolog.Logger
}

// DefaultConfig returns a default configuration for the given account.
func DefaultConfig(username, password string) Config {
	return Config{
		BaseURL:           DefaultBaseURL,
		Username:          username,
		Password:          password,
		HTTPTimeout:       60 * time.Second,
		TokenValidity:     session.DefaultValidityWindow,
		TokenSafetyMargin: session.DefaultSafetyMargin,
		MaxConcurrency:    4,
		InstanceTimeout:   2 * time.Minute,
		MasterDataTTL:     catalog.DefaultSnapshotTTL,
	}
}

// New creates a new Thema client. No request is made until first use.
func New(cfg Config) (*Client, error) {
	if cfg.Username == "" {
		return nil, fmt.Errorf("username is required")
	}

	if cfg.Password == "" {
		return nil, fmt.Errorf("password is required")
	}

	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("base url must be an absolute http(s) url (got %q)", cfg.BaseURL)
	}

	if cfg.MaxConcurrency < 1 {
		return nil, fmt.Errorf("max_concurrency must be >= 1 (got %d)", cfg.MaxConcurrency)
	}

	if cfg.TokenValidity <= 0 {
		cfg.TokenValidity = session.DefaultValidityWindow
	}
	if cfg.TokenSafetyMargin < 0 || cfg.TokenSafetyMargin >= cfg.TokenValidity {
		return nil, fmt.Errorf("token_safety_margin must be within [0, %s) (got %s)", cfg.TokenValidity, cfg.TokenSafetyMargin)
	}

	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 60 * time.Second
	}

	// Initialize logger
	logger := log.With().Str("component", "thema-client").Logger()
	if cfg.Logger != nil {
		logger = cfg.Logger.With().Str("component", "thema-client").Logger()
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		config:   cfg,
		logger:   logger,
		rejected: result.NewLedger(),
		closed:   make(chan struct{}),
	}

	c.session = session.New(session.AuthenticatorFunc(c.authenticate), session.Config{
		ValidityWindow: cfg.TokenValidity,
		SafetyMargin:   cfg.TokenSafetyMargin,
	}, logger.With().Str("component", "session").Logger())

	storeCfg := catalog.StoreConfig{
		TTL:     cfg.MasterDataTTL,
		BaseURL: c.baseURL,
		Account: cfg.Username,
	}
	if cfg.Redis != nil {
		storeCfg.Cache = cache.NewManager(cfg.Redis)
	}
	c.catalogs = catalog.NewStore(c, storeCfg, logger.With().Str("component", "catalog").Logger())

	c.batch = batch.New(c, batch.Config{
		MaxConcurrency: cfg.MaxConcurrency,
		Timeout:        cfg.InstanceTimeout,
		Abort:          isFatal,
	}, logger.With().Str("component", "batch").Logger())

	return c, nil
}

// Do executes req, recording metrics. Non-success statuses are returned as
// responses; only transport failures are errors.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	endpoint := req.URL.Path
	if c.isClosed() {
		return nil, ErrClosed
	}

	// Start request timing
	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("method", req.Method).
		Msg("Executing API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		return nil, fmt.Errorf("%s %s: %w", req.Method, endpoint, err)
	}

	requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
	if resp.StatusCode >= 300 {
		errClass := classifyStatus(resp.StatusCode)
		errorsTotal.WithLabelValues(string(errClass)).Inc()
		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("API request error")
	}
	return resp, nil
}

// call sends a request with an optional bearer token and JSON body and
// returns the status and the full response body.
func (c *Client) call(ctx context.Context, method, path, token string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return resp.StatusCode, nil, fmt.Errorf("read %s response: %w", path, err)
	}
	return resp.StatusCode, data, nil
}

// authenticate performs the login exchange.
func (c *Client) authenticate(ctx context.Context) (string, error) {
	creds := map[string]string{
		"username": c.config.Username,
		"password": c.config.Password,
	}
	status, body, err := c.call(ctx, http.MethodPost, "/authenticate", "", creds)
	if err != nil {
		return "", err
	}

	switch {
	case status == http.StatusUnauthorized:
		c.logger.Error().
			Str("username", c.config.Username).
			Msg("The given combination of username and password does not have access")
		return "", newAPIError("authorization token", status, body)
	case status < 200 || status >= 300:
		return "", newAPIError("authorization token", status, body)
	}

	var payload struct {
		JWT string `json:"jwt"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode authentication response: %w", err)
	}
	return payload.JWT, nil
}

// Session returns the credential session.
func (c *Client) Session() *session.Session {
	return c.session
}

// Close marks the client closed. Further calls fail with ErrClosed.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.httpClient.CloseIdleConnections()
	})
	return nil
}

func (c *Client) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
