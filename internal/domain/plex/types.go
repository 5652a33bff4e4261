package plex

import (
	"fmt"
	"sync"
)

// Connection is the one long-lived record of the integration: which media
// server to talk to and with what credential. The token is a bearer secret
// and must never reach a log or UI surface unredacted (see RedactToken).
type Connection struct {
	Host   string
	Port   int
	Token  string
	UseTLS bool
}

// BaseURL returns the http(s)://host:port prefix for this connection.
func (c Connection) BaseURL() string {
	scheme := "http"
	if c.UseTLS {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.Host, c.Port)
}

// Protocol returns "https" or "http" matching the connection transport.
func (c Connection) Protocol() string {
	if c.UseTLS {
		return "https"
	}
	return "http"
}

// ConnectionStore holds the active connection. Replacement is atomic: a
// request in flight observes either the old or the new connection, never a
// mix. Written only by the explicit apply-connection action.
type ConnectionStore struct {
	mu   sync.RWMutex
	conn Connection
	set  bool
}

// Get returns the current connection and whether one has been applied.
func (s *ConnectionStore) Get() (Connection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn, s.set
}

// Set replaces the active connection.
func (s *ConnectionStore) Set(conn Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn = conn
	s.set = true
}

// Clear drops the active connection.
func (s *ConnectionStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn = Connection{}
	s.set = false
}

// Normalized catalog records. All keys are opaque server-relative location
// strings; none of these are cached across requests.

// Library is a music section of the media server.
type Library struct {
	ID    string
	Title string
}

// Artist is an artist entry within a library.
type Artist struct {
	RatingKey   string
	Title       string
	ChildrenKey string // location of the artist's albums
	ArtKey      string
}

// Album is an album entry.
type Album struct {
	RatingKey   string
	Title       string
	Artist      string
	ChildrenKey string // location of the album's tracks
	ArtKey      string
	Year        int
}

// Playlist is an audio playlist.
type Playlist struct {
	RatingKey string
	Title     string
	ItemsKey  string // location of the playlist's items
	Count     int
}

// Track is a single playable item. MediaKey is the opaque location of its
// primary media part; empty means the server has no file for it.
type Track struct {
	RatingKey string
	Title     string
	Artist    string
	Album     string
	ArtKey    string
	MediaKey  string
	Duration  int // seconds
	Index     int // track number within the album
}
