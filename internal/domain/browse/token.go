// Package browse turns opaque navigation tokens into browse pages. The
// whole cursor state (collection, offset, sort) lives inside the token, so
// every page is derivable from the URI a client re-submits; no server-side
// session backs any of it.
package browse

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Scheme prefixes every navigation token.
const Scheme = "plex://"

// ErrBadToken means an incoming token matches no known route shape. This is
// a compatibility or programming problem, not a transient condition.
var ErrBadToken = errors.New("browse: unrecognized navigation token")

// Route identifies what a token points at.
type Route string

const (
	RouteRoot            Route = ""
	RouteArtists         Route = "artists"
	RouteAlbums          Route = "albums"
	RoutePlaylists       Route = "playlists"
	RouteArtist          Route = "artist"
	RouteAlbum           Route = "album"
	RoutePlaylist        Route = "playlist"
	RouteTrack           Route = "track"
	RouteShuffleAlbum    Route = "shuffle/album"
	RouteShufflePlaylist Route = "shuffle/playlist"
)

// routesWithKey are the routes that carry an opaque location key segment.
var routesWithKey = map[Route]bool{
	RouteArtist:          true,
	RouteAlbum:           true,
	RoutePlaylist:        true,
	RouteTrack:           true,
	RouteShuffleAlbum:    true,
	RouteShufflePlaylist: true,
}

// Cursor places a page within an ordered set of collections. An empty Key
// means the first collection in catalog order.
type Cursor struct {
	Key    string
	Offset int
}

// Sort is a sort directive carried through paging round trips.
type Sort struct {
	Field     string
	Direction string
}

// String renders the directive in the server's "field:direction" form.
func (s Sort) String() string {
	return s.Field + ":" + s.Direction
}

// Token is the decoded form of a navigation token. A token with no cursor
// means "start of first collection, default order".
type Token struct {
	Route  Route
	Key    string // opaque location key for item routes
	Cursor *Cursor
	Sort   *Sort
}

// String encodes the token as an opaque ASCII string safe to embed in a UI
// URI path. Location keys are always emitted percent-encoded; the legacy
// double-underscore form is accepted on decode only.
func (t Token) String() string {
	var b strings.Builder
	b.WriteString(Scheme)
	b.WriteString(string(t.Route))
	if routesWithKey[t.Route] {
		b.WriteString("/")
		b.WriteString(url.QueryEscape(t.Key))
	}
	if t.Cursor != nil {
		if t.Cursor.Key != "" {
			b.WriteString("@in=")
			b.WriteString(url.QueryEscape(t.Cursor.Key))
		}
		b.WriteString("@offset=")
		b.WriteString(strconv.Itoa(t.Cursor.Offset))
	}
	if t.Sort != nil {
		b.WriteString("@sort=")
		b.WriteString(url.QueryEscape(t.Sort.String()))
	}
	return b.String()
}

// ParseToken decodes a navigation token. Tokens that do not match any route
// shape return ErrBadToken.
func ParseToken(raw string) (Token, error) {
	rest, ok := strings.CutPrefix(raw, Scheme)
	if !ok {
		return Token{}, fmt.Errorf("%w: %q", ErrBadToken, raw)
	}

	segments := strings.Split(rest, "@")
	path := segments[0]
	path = strings.TrimSuffix(path, "/")

	tok, err := parsePath(path)
	if err != nil {
		return Token{}, fmt.Errorf("%w: %q", ErrBadToken, raw)
	}

	for _, directive := range segments[1:] {
		name, value, found := strings.Cut(directive, "=")
		if !found {
			return Token{}, fmt.Errorf("%w: %q", ErrBadToken, raw)
		}
		switch name {
		case "in":
			key, err := url.QueryUnescape(value)
			if err != nil {
				return Token{}, fmt.Errorf("%w: %q", ErrBadToken, raw)
			}
			if tok.Cursor == nil {
				tok.Cursor = &Cursor{}
			}
			tok.Cursor.Key = key
		case "offset":
			offset, err := strconv.Atoi(value)
			if err != nil || offset < 0 {
				return Token{}, fmt.Errorf("%w: %q", ErrBadToken, raw)
			}
			if tok.Cursor == nil {
				tok.Cursor = &Cursor{}
			}
			tok.Cursor.Offset = offset
		case "sort":
			decoded, err := url.QueryUnescape(value)
			if err != nil {
				return Token{}, fmt.Errorf("%w: %q", ErrBadToken, raw)
			}
			field, direction, found := strings.Cut(decoded, ":")
			if !found || field == "" || direction == "" {
				return Token{}, fmt.Errorf("%w: %q", ErrBadToken, raw)
			}
			tok.Sort = &Sort{Field: field, Direction: direction}
		default:
			return Token{}, fmt.Errorf("%w: %q", ErrBadToken, raw)
		}
	}

	return tok, nil
}

func parsePath(path string) (Token, error) {
	if path == "" {
		return Token{Route: RouteRoot}, nil
	}

	switch Route(path) {
	case RouteArtists, RouteAlbums, RoutePlaylists:
		return Token{Route: Route(path)}, nil
	}

	for _, route := range []Route{RouteShuffleAlbum, RouteShufflePlaylist} {
		if seg, ok := strings.CutPrefix(path, string(route)+"/"); ok {
			key, err := decodeKey(seg)
			if err != nil {
				return Token{}, err
			}
			return Token{Route: route, Key: key}, nil
		}
	}

	name, seg, found := strings.Cut(path, "/")
	if !found {
		return Token{}, errors.New("no route")
	}
	route := Route(name)
	if !routesWithKey[route] {
		return Token{}, errors.New("no route")
	}
	key, err := decodeKey(seg)
	if err != nil {
		return Token{}, err
	}
	return Token{Route: route, Key: key}, nil
}

// decodeKey decodes an opaque location key segment. Two encodings coexist:
// the percent-encoded form all new tokens use, and a legacy form that
// substitutes "__" for "/". The legacy form is only recognized for keys
// rooted at "/", i.e. segments starting with "__"; anything else would be
// ambiguous with percent-encoded keys.
func decodeKey(seg string) (string, error) {
	if seg == "" {
		return "", errors.New("empty key")
	}
	if strings.HasPrefix(seg, "__") {
		return strings.ReplaceAll(seg, "__", "/"), nil
	}
	return url.QueryUnescape(seg)
}
