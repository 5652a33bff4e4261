// Package pms is the authenticated request layer over a Plex Media Server's
// catalog endpoints. It returns the server's container envelopes unchanged;
// normalization into domain records happens one layer up.
package pms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mochan-b/plex-volumio/internal/domain/plex"
)

// DefaultTimeout is the fixed per-request timeout. Expiry surfaces as a
// connection error; nothing here retries.
const DefaultTimeout = 30 * time.Second

// Plex item type codes used by section listing and search endpoints.
const (
	TypeArtist = 8
	TypeAlbum  = 9
	TypeTrack  = 10
)

// Client issues catalog requests against the active media server
// connection. The connection is read from the store on every request, so a
// server switch takes effect immediately.
type Client struct {
	conns      *plex.ConnectionStore
	httpClient *http.Client
}

// Option is a functional option for configuring the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// NewClient creates a catalog client over the active connection store.
func NewClient(conns *plex.ConnectionStore, opts ...Option) *Client {
	c := &Client{
		conns: conns,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Page selects a window of a paginated listing. Sort is an optional
// "field:direction" directive passed through to the server.
type Page struct {
	Offset int
	Limit  int
	Sort   string
}

// Container is the MediaContainer envelope every catalog endpoint returns.
// TotalSize is only populated on paginated requests.
type Container struct {
	Size      int         `json:"size"`
	TotalSize int         `json:"totalSize"`
	Offset    int         `json:"offset"`
	Directory []Directory `json:"Directory"`
	Metadata  []Metadata  `json:"Metadata"`
}

// Directory is a library section entry.
type Directory struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

// Metadata is one catalog item in raw server form.
type Metadata struct {
	RatingKey        string  `json:"ratingKey"`
	Key              string  `json:"key"`
	Title            string  `json:"title"`
	Type             string  `json:"type"`
	ParentTitle      string  `json:"parentTitle"`
	GrandparentTitle string  `json:"grandparentTitle"`
	Thumb            string  `json:"thumb"`
	Index            int     `json:"index"`
	Year             int     `json:"year"`
	Duration         int     `json:"duration"` // milliseconds
	LeafCount        int     `json:"leafCount"`
	Media            []Media `json:"Media"`
}

// Media is one media rendition of an item.
type Media struct {
	Part []Part `json:"Part"`
}

// Part is one file of a rendition; Key is its opaque location.
type Part struct {
	Key string `json:"key"`
}

type envelope struct {
	MediaContainer Container `json:"MediaContainer"`
}

// Sections lists the server's library sections.
func (c *Client) Sections(ctx context.Context) (*Container, error) {
	return c.get(ctx, "/library/sections", nil, Page{})
}

// SectionItems lists items of one type (artist, album, track) under a
// library section.
func (c *Client) SectionItems(ctx context.Context, sectionID string, itemType int, page Page) (*Container, error) {
	params := url.Values{"type": {strconv.Itoa(itemType)}}
	return c.get(ctx, "/library/sections/"+sectionID+"/all", params, page)
}

// Children lists the items under an opaque collection key, e.g. the tracks
// of an album or the albums of an artist.
func (c *Client) Children(ctx context.Context, key string, page Page) (*Container, error) {
	return c.get(ctx, key, nil, page)
}

// Playlists lists the server's audio playlists.
func (c *Client) Playlists(ctx context.Context, page Page) (*Container, error) {
	params := url.Values{"playlistType": {"audio"}}
	return c.get(ctx, "/playlists", params, page)
}

// PlaylistItems lists the items of a playlist by its opaque items key.
func (c *Client) PlaylistItems(ctx context.Context, key string, page Page) (*Container, error) {
	return c.get(ctx, key, nil, page)
}

// Metadata fetches a single item by rating key.
func (c *Client) Metadata(ctx context.Context, ratingKey string) (*Container, error) {
	return c.get(ctx, "/library/metadata/"+ratingKey, nil, Page{})
}

// Search searches a section for items of one type.
func (c *Client) Search(ctx context.Context, sectionID string, itemType int, query string) (*Container, error) {
	params := url.Values{
		"type":  {strconv.Itoa(itemType)},
		"query": {query},
	}
	return c.get(ctx, "/library/sections/"+sectionID+"/search", params, Page{})
}

// get performs one authenticated catalog request and classifies failures:
// 401 is an authentication error, any other non-2xx a server error, and
// transport or parse failures connection errors.
func (c *Client) get(ctx context.Context, path string, params url.Values, page Page) (*Container, error) {
	conn, ok := c.conns.Get()
	if !ok {
		return nil, fmt.Errorf("%w: no active media server connection", plex.ErrConnection)
	}

	if params == nil {
		params = url.Values{}
	}
	if page.Limit > 0 {
		params.Set("X-Plex-Container-Start", strconv.Itoa(page.Offset))
		params.Set("X-Plex-Container-Size", strconv.Itoa(page.Limit))
	}
	if page.Sort != "" {
		params.Set("sort", page.Sort)
	}
	params.Set("X-Plex-Token", conn.Token)

	sep := "?"
	for _, r := range path {
		if r == '?' {
			sep = "&"
			break
		}
	}
	reqURL := conn.BaseURL() + path + sep + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", plex.ErrConnection, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, plex.ErrAuth
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &plex.ServerError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", plex.ErrConnection, err)
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: parse response: %v", plex.ErrConnection, err)
	}
	return &env.MediaContainer, nil
}
