package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"

	"github.com/platinummonkey/eventdash/pkg/gauges"
	"github.com/platinummonkey/eventdash/pkg/observability"
)

// DefaultURL is the user search endpoint of the management API
const DefaultURL = "https://api.descope.com/v1/mgmt/user/search"

const (
	gaugeName  = "identity_users"
	gaugeLabel = "Identity Users"
)

// Config configures the identity provider client
type Config struct {
	URL     string        `yaml:"url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

// UserCounts is the number of registered users and of users created in a period
type UserCounts struct {
	TotalUsers int64 `json:"total_users"`
	NewSignups int64 `json:"new_signups"`
}

// Client queries the identity provider's user search API
type Client struct {
	url     string
	http    *http.Client
	metrics *observability.Metrics
	log     *logrus.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. Authentication is then the
// caller's responsibility.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithMetrics records external request metrics
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the logger
func WithLogger(log *logrus.Logger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient creates a client. The token is sent as a bearer token.
func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	var transport http.RoundTripper = otelhttp.NewTransport(http.DefaultTransport)
	if cfg.Token != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"}),
			Base:   transport,
		}
	}

	c := &Client{
		url:  cfg.URL,
		http: &http.Client{Transport: transport, Timeout: cfg.Timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logrus.New()
	}
	if cfg.Token == "" {
		c.log.Warn("Identity provider token is not set, requests will be unauthenticated")
	}
	return c
}

type searchResponse struct {
	Users []struct {
		CreatedTime int64 `json:"createdTime"`
	} `json:"users"`
}

// Counts returns user counts. New signups are users created within the
// period, both ends inclusive, and are only counted for a bounded period.
// Any failure is logged and yields zero counts along with the error.
func (c *Client) Counts(ctx context.Context, period gauges.Period) (UserCounts, error) {
	counts, err := c.fetch(ctx, period)
	if err != nil {
		c.log.WithError(err).Error("Error fetching identity provider users")
		return UserCounts{}, err
	}
	return counts, nil
}

func (c *Client) fetch(ctx context.Context, period gauges.Period) (UserCounts, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader([]byte("{}")))
	if err != nil {
		return UserCounts{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveExternal("identity", 0, err)
		return UserCounts{}, fmt.Errorf("identity: request failed: %w", err)
	}
	defer resp.Body.Close()
	c.metrics.ObserveExternal("identity", resp.StatusCode, nil)

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return UserCounts{}, fmt.Errorf("identity: unexpected status %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return UserCounts{}, fmt.Errorf("identity: failed to decode response: %w", err)
	}

	counts := UserCounts{TotalUsers: int64(len(body.Users))}
	if period.Bounded() {
		start, end := period.Start.UnixMilli(), period.End.UnixMilli()
		for _, u := range body.Users {
			if u.CreatedTime >= start && u.CreatedTime <= end {
				counts.NewSignups++
			}
		}
		c.log.WithField("period", period.String()).Infof("Found %d new identity provider users", counts.NewSignups)
	}

	c.log.Infof("Found %d total identity provider users", counts.TotalUsers)
	return counts, nil
}

// Name implements gauges.Gauge
func (c *Client) Name() string { return gaugeName }

// Label implements gauges.Labeled
func (c *Client) Label() string { return gaugeLabel }

// Compute implements gauges.Gauge. The value is the total user count.
func (c *Client) Compute(ctx context.Context, period gauges.Period) gauges.Result {
	counts, err := c.Counts(ctx, period)
	if err != nil {
		res := gauges.ErrorResult(gaugeLabel, err)
		res.Details = map[string]int64{"total_users": 0, "new_signups": 0}
		return res
	}

	return gauges.Result{
		Value:       counts.TotalUsers,
		Label:       gaugeLabel,
		Description: "Users registered with the identity provider",
		Details: map[string]int64{
			"total_users": counts.TotalUsers,
			"new_signups": counts.NewSignups,
		},
	}
}
