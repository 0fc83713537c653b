// Package catalog is a client for the Piped-compatible catalog API.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/podtube-cli/podtube/constant"
	"github.com/podtube-cli/podtube/key"
	"github.com/podtube-cli/podtube/log"
	"github.com/podtube-cli/podtube/network"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"
)

const (
	defaultRateLimit = 5
	defaultBurst     = 5
)

// Options configure a Client. Zero values fall back to defaults.
type Options struct {
	Instance   string
	HTTPClient *http.Client
	RateLimit  rate.Limit
	Burst      int

	// CacheListings keeps featured and newest responses on disk.
	CacheListings bool
}

// Client talks to a single catalog instance.
type Client struct {
	base          string
	http          *http.Client
	limiter       *rate.Limiter
	cacheListings bool
}

// New creates a client for the given options.
func New(opts Options) *Client {
	base := strings.TrimRight(strings.TrimSpace(opts.Instance), "/")
	if base == "" {
		base = constant.DefaultCatalogInstance
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = network.Client()
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}
	if opts.Burst <= 0 {
		opts.Burst = defaultBurst
	}

	return &Client{
		base:          base,
		http:          opts.HTTPClient,
		limiter:       rate.NewLimiter(opts.RateLimit, opts.Burst),
		cacheListings: opts.CacheListings,
	}
}

// NewFromConfig creates a client for the configured instance.
func NewFromConfig() *Client {
	return New(Options{
		Instance:      viper.GetString(key.CatalogInstance),
		RateLimit:     rate.Limit(viper.GetFloat64(key.CatalogRateLimit)),
		CacheListings: viper.GetInt(key.CatalogCacheTTL) > 0,
	})
}

// Instance returns the base URL requests are sent to.
func (c *Client) Instance() string {
	return c.base
}

// StatusError is returned when the catalog answers with a non-success status.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("catalog returned status %d", e.Code)
	}
	return fmt.Sprintf("catalog returned status %d: %s", e.Code, e.Message)
}

// IsNotFound reports whether err is a 404 from the catalog.
func IsNotFound(err error) bool {
	var s *StatusError
	return errors.As(err, &s) && s.Code == http.StatusNotFound
}

func (c *Client) get(ctx context.Context, path string, params url.Values, v any) error {
	u, err := url.Parse(c.base + path)
	if err != nil {
		return fmt.Errorf("invalid catalog url: %w", err)
	}
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	log.WithField("url", u.String()).Debugf("catalog request")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))

	var failure struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &failure) == nil {
		msg = failure.Message
		if msg == "" {
			msg = failure.Error
		}
	}

	return &StatusError{Code: resp.StatusCode, Message: msg}
}
