// Package plextv talks to the plex.tv directory API: PIN-based token
// exchange and the resource listing used for server discovery.
package plextv

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mochan-b/plex-volumio/internal/domain/plex"
)

const (
	// DefaultBaseURL is the plex.tv API base URL.
	DefaultBaseURL = "https://plex.tv"

	// DefaultProduct identifies this integration to plex.tv.
	DefaultProduct = "PlexVolumio"

	// DefaultTimeout for directory API requests.
	DefaultTimeout = 15 * time.Second
)

// Client is an authenticated plex.tv directory API client. Every request
// carries the client-identifier header pair.
type Client struct {
	baseURL    string
	clientID   string
	product    string
	httpClient *http.Client
}

// Option is a functional option for configuring the client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (useful for testing).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithProduct sets the product name sent in request headers.
func WithProduct(product string) Option {
	return func(c *Client) {
		c.product = product
	}
}

// NewClient creates a plex.tv client. clientID is the stable
// X-Plex-Client-Identifier for this installation.
func NewClient(clientID string, opts ...Option) *Client {
	c := &Client{
		baseURL:  DefaultBaseURL,
		clientID: clientID,
		product:  DefaultProduct,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Pin is one pending PIN exchange: the user enters Code at plex.tv/link,
// the integration polls by ID until an auth token appears.
type Pin struct {
	ID        int    `json:"id"`
	Code      string `json:"code"`
	AuthToken string `json:"authToken"`
}

// Resource is one entry of the plex.tv resource listing. Only entries whose
// Provides includes "server" are media servers.
type Resource struct {
	Name             string               `json:"name"`
	ClientIdentifier string               `json:"clientIdentifier"`
	Provides         string               `json:"provides"`
	AccessToken      string               `json:"accessToken"`
	Connections      []ResourceConnection `json:"connections"`
}

// ResourceConnection is one candidate network endpoint for a resource.
type ResourceConnection struct {
	URI      string `json:"uri"`
	Protocol string `json:"protocol"`
	Address  string `json:"address"`
	Port     int    `json:"port"`
	Local    bool   `json:"local"`
	Relay    bool   `json:"relay"`
}

// CreatePin starts a new PIN exchange.
func (c *Client) CreatePin(ctx context.Context) (*Pin, error) {
	var pin Pin
	if err := c.do(ctx, http.MethodPost, "/api/v2/pins", url.Values{"strong": {"true"}}, "", &pin); err != nil {
		return nil, fmt.Errorf("create pin: %w", err)
	}
	log.Debug().Int("id", pin.ID).Str("code", pin.Code).Msg("Created plex.tv PIN")
	return &pin, nil
}

// CheckPin polls a pending PIN. The returned token is empty while the user
// has not linked yet.
func (c *Client) CheckPin(ctx context.Context, pinID int) (string, error) {
	var pin Pin
	if err := c.do(ctx, http.MethodGet, "/api/v2/pins/"+strconv.Itoa(pinID), nil, "", &pin); err != nil {
		return "", fmt.Errorf("check pin: %w", err)
	}
	return pin.AuthToken, nil
}

// Resources lists the account's resources, including per-server access
// tokens and connection candidates.
func (c *Client) Resources(ctx context.Context, authToken string) ([]Resource, error) {
	var resources []Resource
	params := url.Values{
		"includeHttps": {"1"},
		"includeRelay": {"0"},
	}
	if err := c.do(ctx, http.MethodGet, "/api/v2/resources", params, authToken, &resources); err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	return resources, nil
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, authToken string, out any) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Plex-Client-Identifier", c.clientID)
	req.Header.Set("X-Plex-Product", c.product)
	if authToken != "" {
		req.Header.Set("X-Plex-Token", authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", plex.ErrConnection, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return plex.ErrAuth
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &plex.ServerError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", plex.ErrConnection, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: parse response: %v", plex.ErrConnection, err)
	}
	return nil
}
