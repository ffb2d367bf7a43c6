// Package geo resolves an IP address to a coarse city/country location
// through an ip-api compatible HTTP service.
package geo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// DefaultBaseURL is the public ip-api JSON endpoint
const DefaultBaseURL = "http://ip-api.com/json"

// maxResponseBytes caps how much of a lookup response is read
const maxResponseBytes = 16 << 10

var (
	// ErrLookupFailed wraps every network, status or decoding failure
	ErrLookupFailed = errors.New("geolocation lookup failed")

	// ErrLookupSkipped is returned for addresses that are never sent to the service
	ErrLookupSkipped = errors.New("geolocation skipped")
)

// Location is the subset of geolocation data kept on an attempt
type Location struct {
	City    string `json:"city"`
	Country string `json:"country"`
}

// Locator looks up the location of an IP address
type Locator interface {
	Lookup(ctx context.Context, ip string) (Location, error)
}

// Config holds geolocation client settings
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client queries GET <BaseURL>/<ip>?fields=city,country
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient creates a new geolocation client
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	return &Client{
		baseURL:    baseURL,
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Lookup resolves ip. Every failure is returned wrapped in ErrLookupFailed;
// callers treat it as "no location data".
func (c *Client) Lookup(ctx context.Context, ip string) (Location, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL + "/" + url.PathEscape(ip) + "?fields=city,country"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Location{}, fmt.Errorf("%w: build request: %v", ErrLookupFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Location{}, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return Location{}, fmt.Errorf("%w: status %d", ErrLookupFailed, resp.StatusCode)
	}

	var loc Location
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&loc); err != nil {
		return Location{}, fmt.Errorf("%w: decode response: %v", ErrLookupFailed, err)
	}

	return loc, nil
}

// Disabled is a Locator that never returns location data
type Disabled struct{}

// Lookup always reports an empty location
func (Disabled) Lookup(context.Context, string) (Location, error) {
	return Location{}, nil
}
