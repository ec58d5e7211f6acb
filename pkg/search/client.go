package search

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/opensearch-project/opensearch-go/v4"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/platinummonkey/eventdash/pkg/observability"
	"github.com/platinummonkey/eventdash/pkg/retry"
)

// maxErrorBody bounds how much of an error response is kept in StatusError
const maxErrorBody = 4096

// Config configures the cluster connection
type Config struct {
	Addresses          []string      `yaml:"addresses"`
	Username           string        `yaml:"username"`
	Password           string        `yaml:"password"`
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	Retry              retry.Config  `yaml:"retry"`
}

// Client executes searches against OpenSearch with retry, tracing and metrics
type Client struct {
	os             *opensearch.Client
	retry          retry.Config
	requestTimeout time.Duration
	metrics        *observability.Metrics
	log            *logrus.Logger
	tracer         trace.Tracer
	meterProvider  metric.MeterProvider
	duration       metric.Float64Histogram
}

// Option configures a Client
type Option func(*Client)

// WithMetrics records search metrics
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the logger
func WithLogger(log *logrus.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithMeterProvider exports search durations through mp instead of the
// global meter provider
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *Client) { c.meterProvider = mp }
}

// NewClient creates a client for the given cluster
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if len(cfg.Addresses) == 0 {
		return nil, errors.New("search: at least one address is required")
	}

	base := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		base.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for self-signed dev clusters
	}

	osClient, err := opensearch.NewClient(opensearch.Config{
		Addresses:    cfg.Addresses,
		Username:     cfg.Username,
		Password:     cfg.Password,
		Transport:    otelhttp.NewTransport(base),
		DisableRetry: true,
	})
	if err != nil {
		return nil, fmt.Errorf("search: failed to create client: %w", err)
	}

	c := &Client{
		os:             osClient,
		retry:          cfg.Retry,
		requestTimeout: cfg.RequestTimeout,
		tracer:         otel.Tracer("eventdash/search"),
		meterProvider:  otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logrus.New()
	}

	c.duration, err = c.meterProvider.Meter("eventdash/search").Float64Histogram(
		"search.client.duration",
		metric.WithDescription("Search request duration in seconds, including retries"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("search: failed to create duration histogram: %w", err)
	}

	return c, nil
}

// Search runs req, retrying transient failures with exponential backoff
func (c *Client) Search(ctx context.Context, req Request) (*Response, error) {
	operation := req.Operation
	if operation == "" {
		operation = "search"
	}

	ctx, span := c.tracer.Start(ctx, "search."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "opensearch"),
			attribute.String("search.index", req.Index),
		),
	)
	defer span.End()

	body, err := json.Marshal(req.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "encode request")
		return nil, fmt.Errorf("search %s: failed to encode request: %w", operation, err)
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.requestTimeout
	}

	policy := retry.NewPolicy(c.retry)
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		c.metrics.ObserveRetry(operation)
		span.AddEvent("retry", trace.WithAttributes(attribute.Int("attempt", attempt)))
		c.log.WithFields(logrus.Fields{
			"operation": operation,
			"attempt":   attempt,
			"delay":     delay.String(),
		}).WithError(err).Warn("Search failed, retrying")
	}

	start := time.Now()
	var resp *Response
	err = policy.Do(ctx, func(ctx context.Context) error {
		var attemptErr error
		resp, attemptErr = c.do(ctx, req, body, timeout)
		return attemptErr
	})
	elapsed := time.Since(start)
	c.metrics.ObserveSearch(operation, elapsed, err)
	c.duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.Bool("error", err != nil),
	))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		return nil, fmt.Errorf("search %s: %w", operation, err)
	}

	span.SetAttributes(
		attribute.Int64("search.hits.total", resp.Hits.Total.Value),
		attribute.Int("search.took_ms", resp.Took),
	)
	return resp, nil
}

// do performs one attempt
func (c *Client) do(parent context.Context, req Request, body []byte, timeout time.Duration) (*Response, error) {
	ctx := parent
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, timeout)
		defer cancel()
	}

	path := "/" + url.PathEscape(req.Index) + "/_search"
	if req.Size != nil {
		path += "?size=" + strconv.Itoa(*req.Size)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := c.os.Perform(httpReq)
	if err != nil {
		if ctxErr := parent.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		// a per-attempt timeout is retried like any transport failure
		return nil, retry.Transient(err)
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		statusErr := &StatusError{StatusCode: res.StatusCode, Body: string(raw)}
		if statusErr.Temporary() {
			return nil, retry.Transient(statusErr)
		}
		return nil, statusErr
	}

	var out Response
	dec := json.NewDecoder(res.Body)
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &out, nil
}

// Ping checks that the cluster answers its root endpoint
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "/", nil)
	if err != nil {
		return err
	}
	res, err := c.os.Perform(req)
	if err != nil {
		return fmt.Errorf("search: ping failed: %w", err)
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)

	if res.StatusCode >= http.StatusBadRequest {
		return &StatusError{StatusCode: res.StatusCode}
	}
	return nil
}
