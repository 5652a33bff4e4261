package browse

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mochan-b/plex-volumio/internal/domain/catalog"
	"github.com/mochan-b/plex-volumio/internal/domain/plex"
	"github.com/mochan-b/plex-volumio/internal/domain/volumio"
	"github.com/mochan-b/plex-volumio/internal/infra/pms"
)

const (
	// ServiceName tags every browse item for the Volumio UI.
	ServiceName = "plex"

	// DefaultPageSize is how many items one page of a collection carries.
	DefaultPageSize = 100
)

var listViews = []string{"list", "grid"}

// Catalog is the facade surface the navigator consumes. *catalog.Service
// implements it.
type Catalog interface {
	Libraries(ctx context.Context) ([]plex.Library, error)
	Artists(ctx context.Context, libraryID string, page pms.Page) (catalog.Page[plex.Artist], error)
	Albums(ctx context.Context, libraryID string, page pms.Page) (catalog.Page[plex.Album], error)
	ArtistAlbums(ctx context.Context, childrenKey string) ([]plex.Album, error)
	AlbumTracks(ctx context.Context, childrenKey string) ([]plex.Track, error)
	Playlists(ctx context.Context, page pms.Page) (catalog.Page[plex.Playlist], error)
	PlaylistTracks(ctx context.Context, itemsKey string, page pms.Page) (catalog.Page[plex.Track], error)
	PlayableTrack(ctx context.Context, ratingKey string) (plex.Track, error)
	SearchTracks(ctx context.Context, libraryID, query string) ([]plex.Track, error)
}

// Navigator resolves navigation tokens into browse pages. It is stateless:
// every page is a deterministic function of the token, the catalog and the
// active connection (shuffle pages excepted).
type Navigator struct {
	catalog   Catalog
	conns     *plex.ConnectionStore
	pageSize  int
	transcode plex.TranscodeOptions

	// rand.Rand is not safe for concurrent use and browse calls arrive on
	// one goroutine per client, so shuffles serialize on rngMu.
	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option is a functional option for configuring the navigator.
type Option func(*Navigator)

// WithPageSize sets the collection page size.
func WithPageSize(n int) Option {
	return func(nav *Navigator) {
		if n > 0 {
			nav.pageSize = n
		}
	}
}

// WithTranscode makes resolved tracks request transcoded delivery.
func WithTranscode(opts plex.TranscodeOptions) Option {
	return func(nav *Navigator) {
		nav.transcode = opts
	}
}

// WithRand sets the random source used by shuffle pages.
func WithRand(rng *rand.Rand) Option {
	return func(nav *Navigator) {
		nav.rng = rng
	}
}

// NewNavigator creates a navigator over a catalog facade and the active
// connection store.
func NewNavigator(cat Catalog, conns *plex.ConnectionStore, opts ...Option) *Navigator {
	nav := &Navigator{
		catalog:  cat,
		conns:    conns,
		pageSize: DefaultPageSize,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	for _, opt := range opts {
		opt(nav)
	}

	return nav
}

// Browse resolves a navigation token into a page. Gateway errors propagate
// unchanged; only unrecognized token shapes add ErrBadToken.
func (n *Navigator) Browse(ctx context.Context, uri string) (*volumio.BrowseResult, error) {
	tok, err := ParseToken(uri)
	if err != nil {
		return nil, err
	}

	switch tok.Route {
	case RouteRoot:
		return n.rootPage(), nil
	case RouteArtists:
		return n.artistsPage(ctx, tok)
	case RouteAlbums:
		return n.albumsPage(ctx, tok)
	case RoutePlaylists:
		return n.playlistsPage(ctx, tok)
	case RouteArtist:
		return n.artistPage(ctx, tok)
	case RouteAlbum:
		return n.albumPage(ctx, tok)
	case RoutePlaylist:
		return n.playlistPage(ctx, tok)
	case RouteShuffleAlbum:
		return n.shuffleAlbumPage(ctx, tok)
	case RouteShufflePlaylist:
		return n.shufflePlaylistPage(ctx, tok)
	default:
		return nil, fmt.Errorf("%w: %q is not a browsable route", ErrBadToken, uri)
	}
}

// ResolveTrack turns a leaf track token into its authenticated playable URL
// for the playback collaborator.
func (n *Navigator) ResolveTrack(ctx context.Context, uri string) (string, plex.Track, error) {
	tok, err := ParseToken(uri)
	if err != nil {
		return "", plex.Track{}, err
	}
	if tok.Route != RouteTrack {
		return "", plex.Track{}, fmt.Errorf("%w: %q is not a track token", ErrBadToken, uri)
	}

	conn, err := n.connection()
	if err != nil {
		return "", plex.Track{}, err
	}
	track, err := n.catalog.PlayableTrack(ctx, tok.Key)
	if err != nil {
		return "", plex.Track{}, err
	}

	playURL := plex.PlayableURL(conn, track.MediaKey, n.transcode)
	log.Debug().Str("track", track.Title).Str("url", plex.RedactToken(playURL)).Msg("Resolved track")
	return playURL, track, nil
}

// Search finds tracks matching a query across all music libraries.
func (n *Navigator) Search(ctx context.Context, query string) (*volumio.BrowseResult, error) {
	conn, err := n.connection()
	if err != nil {
		return nil, err
	}
	libraries, err := n.catalog.Libraries(ctx)
	if err != nil {
		return nil, err
	}

	var items []volumio.BrowseItem
	for _, lib := range libraries {
		tracks, err := n.catalog.SearchTracks(ctx, lib.ID, query)
		if err != nil {
			return nil, err
		}
		for _, track := range tracks {
			items = append(items, trackItem(conn, track))
		}
	}

	return &volumio.BrowseResult{
		Navigation: volumio.Navigation{
			Lists: []volumio.BrowseList{
				{Title: "Plex Tracks", AvailableListView: []string{"list"}, Items: items},
			},
		},
	}, nil
}

func (n *Navigator) connection() (plex.Connection, error) {
	conn, ok := n.conns.Get()
	if !ok {
		return plex.Connection{}, fmt.Errorf("%w: no active media server connection", plex.ErrConnection)
	}
	return conn, nil
}

// rootPage is the static top-level menu; no fetch.
func (n *Navigator) rootPage() *volumio.BrowseResult {
	items := []volumio.BrowseItem{
		{Service: ServiceName, Type: "folder", Title: "Artists", URI: Token{Route: RouteArtists}.String(), Icon: "fa-microphone"},
		{Service: ServiceName, Type: "folder", Title: "Albums", URI: Token{Route: RouteAlbums}.String(), Icon: "fa-dot-circle-o"},
		{Service: ServiceName, Type: "folder", Title: "Playlists", URI: Token{Route: RoutePlaylists}.String(), Icon: "fa-list-ol"},
	}
	return &volumio.BrowseResult{
		Navigation: volumio.Navigation{
			Lists: []volumio.BrowseList{
				{Title: "Plex", AvailableListView: listViews, Items: items},
			},
		},
	}
}

// collectionCursor resolves a token's cursor against the ordered library
// list: no cursor means the first library, offset 0, default order.
func collectionCursor(tok Token, libraries []plex.Library) (plex.Library, int, int, error) {
	if len(libraries) == 0 {
		return plex.Library{}, -1, 0, nil
	}
	if tok.Cursor == nil || tok.Cursor.Key == "" {
		offset := 0
		if tok.Cursor != nil {
			offset = tok.Cursor.Offset
		}
		return libraries[0], 0, offset, nil
	}
	for i, lib := range libraries {
		if lib.ID == tok.Cursor.Key {
			return lib, i, tok.Cursor.Offset, nil
		}
	}
	return plex.Library{}, -1, 0, fmt.Errorf("%w: unknown collection %q", ErrBadToken, tok.Cursor.Key)
}

// pagingItems builds the "previous page" and "load more" entries for a
// collection page, carrying the incoming sort directive verbatim. Load more
// stays inside the collection while pages remain, then rolls over to the
// next library; it disappears once everything after the cursor is
// exhausted.
func (n *Navigator) pagingItems(route Route, lib plex.Library, libIndex, offset, totalSize int, libraries []plex.Library, sort *Sort) []volumio.BrowseItem {
	var items []volumio.BrowseItem

	if offset > 0 {
		prevOffset := offset - n.pageSize
		if prevOffset < 0 {
			prevOffset = 0
		}
		prev := Token{Route: route, Cursor: &Cursor{Key: lib.ID, Offset: prevOffset}, Sort: sort}
		items = append(items, volumio.BrowseItem{
			Service: ServiceName,
			Type:    "folder",
			Title:   "Previous",
			URI:     prev.String(),
			Icon:    "fa-arrow-up",
		})
	}

	nextOffset := offset + n.pageSize
	switch {
	case nextOffset < totalSize:
		more := Token{Route: route, Cursor: &Cursor{Key: lib.ID, Offset: nextOffset}, Sort: sort}
		items = append(items, volumio.BrowseItem{
			Service: ServiceName,
			Type:    "folder",
			Title:   "Load more",
			URI:     more.String(),
			Icon:    "fa-arrow-down",
		})
	case libIndex >= 0 && libIndex+1 < len(libraries):
		// Rollover does not prefetch sizes, so this link can land on an
		// empty page when every remaining library is empty.
		next := libraries[libIndex+1]
		more := Token{Route: route, Cursor: &Cursor{Key: next.ID, Offset: 0}, Sort: sort}
		items = append(items, volumio.BrowseItem{
			Service: ServiceName,
			Type:    "folder",
			Title:   "Load more",
			URI:     more.String(),
			Icon:    "fa-arrow-down",
		})
	}
	return items
}

func (n *Navigator) artistsPage(ctx context.Context, tok Token) (*volumio.BrowseResult, error) {
	conn, err := n.connection()
	if err != nil {
		return nil, err
	}
	libraries, err := n.catalog.Libraries(ctx)
	if err != nil {
		return nil, err
	}
	lib, libIndex, offset, err := collectionCursor(tok, libraries)
	if err != nil {
		return nil, err
	}
	if libIndex < 0 {
		return emptyPage("Artists"), nil
	}

	page, err := n.catalog.Artists(ctx, lib.ID, pms.Page{Offset: offset, Limit: n.pageSize, Sort: sortString(tok)})
	if err != nil {
		return nil, err
	}

	var items []volumio.BrowseItem
	for _, artist := range page.Items {
		items = append(items, volumio.BrowseItem{
			Service:  ServiceName,
			Type:     "folder",
			Title:    artist.Title,
			AlbumArt: plex.ResourceURL(conn, artist.ArtKey),
			URI:      Token{Route: RouteArtist, Key: artist.ChildrenKey}.String(),
		})
	}
	items = append(items, n.pagingItems(RouteArtists, lib, libIndex, offset, page.TotalSize, libraries, tok.Sort)...)

	return &volumio.BrowseResult{
		Navigation: volumio.Navigation{
			PrevURI: Token{Route: RouteRoot}.String(),
			Lists: []volumio.BrowseList{
				{Title: lib.Title + " — Artists", AvailableListView: listViews, Items: items},
			},
		},
	}, nil
}

func (n *Navigator) albumsPage(ctx context.Context, tok Token) (*volumio.BrowseResult, error) {
	conn, err := n.connection()
	if err != nil {
		return nil, err
	}
	libraries, err := n.catalog.Libraries(ctx)
	if err != nil {
		return nil, err
	}
	lib, libIndex, offset, err := collectionCursor(tok, libraries)
	if err != nil {
		return nil, err
	}
	if libIndex < 0 {
		return emptyPage("Albums"), nil
	}

	page, err := n.catalog.Albums(ctx, lib.ID, pms.Page{Offset: offset, Limit: n.pageSize, Sort: sortString(tok)})
	if err != nil {
		return nil, err
	}

	var items []volumio.BrowseItem
	for _, album := range page.Items {
		items = append(items, albumItem(conn, album))
	}
	items = append(items, n.pagingItems(RouteAlbums, lib, libIndex, offset, page.TotalSize, libraries, tok.Sort)...)

	return &volumio.BrowseResult{
		Navigation: volumio.Navigation{
			PrevURI: Token{Route: RouteRoot}.String(),
			Lists: []volumio.BrowseList{
				{Title: lib.Title + " — Albums", AvailableListView: listViews, Items: items},
			},
		},
	}, nil
}

func (n *Navigator) playlistsPage(ctx context.Context, tok Token) (*volumio.BrowseResult, error) {
	if _, err := n.connection(); err != nil {
		return nil, err
	}
	offset := 0
	if tok.Cursor != nil {
		offset = tok.Cursor.Offset
	}

	page, err := n.catalog.Playlists(ctx, pms.Page{Offset: offset, Limit: n.pageSize})
	if err != nil {
		return nil, err
	}

	var items []volumio.BrowseItem
	for _, playlist := range page.Items {
		items = append(items, volumio.BrowseItem{
			Service: ServiceName,
			Type:    "playlist",
			Title:   playlist.Title,
			URI:     Token{Route: RoutePlaylist, Key: playlist.ItemsKey}.String(),
			Icon:    "fa-list-ol",
		})
	}

	// A playlist listing has no sibling collections, so paging never
	// rolls over.
	if offset > 0 {
		prevOffset := offset - n.pageSize
		if prevOffset < 0 {
			prevOffset = 0
		}
		prev := Token{Route: RoutePlaylists, Cursor: &Cursor{Offset: prevOffset}}
		items = append(items, volumio.BrowseItem{
			Service: ServiceName, Type: "folder", Title: "Previous", URI: prev.String(), Icon: "fa-arrow-up",
		})
	}
	if nextOffset := offset + n.pageSize; nextOffset < page.TotalSize {
		more := Token{Route: RoutePlaylists, Cursor: &Cursor{Offset: nextOffset}}
		items = append(items, volumio.BrowseItem{
			Service: ServiceName, Type: "folder", Title: "Load more", URI: more.String(), Icon: "fa-arrow-down",
		})
	}

	return &volumio.BrowseResult{
		Navigation: volumio.Navigation{
			PrevURI: Token{Route: RouteRoot}.String(),
			Lists: []volumio.BrowseList{
				{Title: "Playlists", AvailableListView: listViews, Items: items},
			},
		},
	}, nil
}

func (n *Navigator) artistPage(ctx context.Context, tok Token) (*volumio.BrowseResult, error) {
	conn, err := n.connection()
	if err != nil {
		return nil, err
	}
	albums, err := n.catalog.ArtistAlbums(ctx, tok.Key)
	if err != nil {
		return nil, err
	}

	var items []volumio.BrowseItem
	for _, album := range albums {
		items = append(items, albumItem(conn, album))
	}

	return &volumio.BrowseResult{
		Navigation: volumio.Navigation{
			PrevURI: Token{Route: RouteArtists}.String(),
			Lists: []volumio.BrowseList{
				{Title: "Albums", AvailableListView: listViews, Items: items},
			},
		},
	}, nil
}

func (n *Navigator) albumPage(ctx context.Context, tok Token) (*volumio.BrowseResult, error) {
	conn, err := n.connection()
	if err != nil {
		return nil, err
	}
	tracks, err := n.catalog.AlbumTracks(ctx, tok.Key)
	if err != nil {
		return nil, err
	}

	items := []volumio.BrowseItem{{
		Service: ServiceName,
		Type:    "folder",
		Title:   "Shuffle",
		URI:     Token{Route: RouteShuffleAlbum, Key: tok.Key}.String(),
		Icon:    "fa-random",
	}}
	for _, track := range tracks {
		items = append(items, trackItem(conn, track))
	}

	return &volumio.BrowseResult{
		Navigation: volumio.Navigation{
			PrevURI: Token{Route: RouteAlbums}.String(),
			Lists: []volumio.BrowseList{
				{AvailableListView: []string{"list"}, Items: items},
			},
		},
	}, nil
}

func (n *Navigator) playlistPage(ctx context.Context, tok Token) (*volumio.BrowseResult, error) {
	conn, err := n.connection()
	if err != nil {
		return nil, err
	}
	offset := 0
	if tok.Cursor != nil {
		offset = tok.Cursor.Offset
	}

	page, err := n.catalog.PlaylistTracks(ctx, tok.Key, pms.Page{Offset: offset, Limit: n.pageSize})
	if err != nil {
		return nil, err
	}

	var items []volumio.BrowseItem
	if offset == 0 {
		items = append(items, volumio.BrowseItem{
			Service: ServiceName,
			Type:    "folder",
			Title:   "Shuffle",
			URI:     Token{Route: RouteShufflePlaylist, Key: tok.Key}.String(),
			Icon:    "fa-random",
		})
	}
	for _, track := range page.Items {
		items = append(items, trackItem(conn, track))
	}

	if offset > 0 {
		prevOffset := offset - n.pageSize
		if prevOffset < 0 {
			prevOffset = 0
		}
		prev := Token{Route: RoutePlaylist, Key: tok.Key, Cursor: &Cursor{Offset: prevOffset}}
		items = append(items, volumio.BrowseItem{
			Service: ServiceName, Type: "folder", Title: "Previous", URI: prev.String(), Icon: "fa-arrow-up",
		})
	}
	if nextOffset := offset + n.pageSize; nextOffset < page.TotalSize {
		more := Token{Route: RoutePlaylist, Key: tok.Key, Cursor: &Cursor{Offset: nextOffset}}
		items = append(items, volumio.BrowseItem{
			Service: ServiceName, Type: "folder", Title: "Load more", URI: more.String(), Icon: "fa-arrow-down",
		})
	}

	return &volumio.BrowseResult{
		Navigation: volumio.Navigation{
			PrevURI: Token{Route: RoutePlaylists}.String(),
			Lists: []volumio.BrowseList{
				{AvailableListView: []string{"list"}, Items: items},
			},
		},
	}, nil
}

func (n *Navigator) shuffleAlbumPage(ctx context.Context, tok Token) (*volumio.BrowseResult, error) {
	conn, err := n.connection()
	if err != nil {
		return nil, err
	}
	tracks, err := n.catalog.AlbumTracks(ctx, tok.Key)
	if err != nil {
		return nil, err
	}
	n.shuffleTracks(tracks)
	return shuffledPage(conn, tracks, Token{Route: RouteAlbum, Key: tok.Key}), nil
}

func (n *Navigator) shufflePlaylistPage(ctx context.Context, tok Token) (*volumio.BrowseResult, error) {
	conn, err := n.connection()
	if err != nil {
		return nil, err
	}
	// Full unpaginated fetch; shuffle pages carry no further pagination.
	page, err := n.catalog.PlaylistTracks(ctx, tok.Key, pms.Page{})
	if err != nil {
		return nil, err
	}
	n.shuffleTracks(page.Items)
	return shuffledPage(conn, page.Items, Token{Route: RoutePlaylist, Key: tok.Key}), nil
}

// shuffleTracks applies a Fisher-Yates permutation; every ordering is
// equally likely.
func (n *Navigator) shuffleTracks(tracks []plex.Track) {
	n.rngMu.Lock()
	defer n.rngMu.Unlock()
	n.rng.Shuffle(len(tracks), func(i, j int) {
		tracks[i], tracks[j] = tracks[j], tracks[i]
	})
}

func shuffledPage(conn plex.Connection, tracks []plex.Track, prev Token) *volumio.BrowseResult {
	var items []volumio.BrowseItem
	for _, track := range tracks {
		items = append(items, trackItem(conn, track))
	}
	return &volumio.BrowseResult{
		Navigation: volumio.Navigation{
			PrevURI: prev.String(),
			Lists: []volumio.BrowseList{
				{Title: "Shuffled", AvailableListView: []string{"list"}, Items: items},
			},
		},
	}
}

func emptyPage(title string) *volumio.BrowseResult {
	return &volumio.BrowseResult{
		Navigation: volumio.Navigation{
			PrevURI: Token{Route: RouteRoot}.String(),
			Lists: []volumio.BrowseList{
				{Title: title, AvailableListView: listViews, Items: []volumio.BrowseItem{}},
			},
		},
	}
}

func albumItem(conn plex.Connection, album plex.Album) volumio.BrowseItem {
	return volumio.BrowseItem{
		Service:  ServiceName,
		Type:     "album",
		Title:    album.Title,
		Artist:   album.Artist,
		AlbumArt: plex.ResourceURL(conn, album.ArtKey),
		URI:      Token{Route: RouteAlbum, Key: album.ChildrenKey}.String(),
		Year:     album.Year,
	}
}

func trackItem(conn plex.Connection, track plex.Track) volumio.BrowseItem {
	return volumio.BrowseItem{
		Service:     ServiceName,
		Type:        "song",
		Title:       track.Title,
		Artist:      track.Artist,
		Album:       track.Album,
		AlbumArt:    plex.ResourceURL(conn, track.ArtKey),
		URI:         Token{Route: RouteTrack, Key: track.RatingKey}.String(),
		Duration:    track.Duration,
		TrackNumber: track.Index,
	}
}

func sortString(tok Token) string {
	if tok.Sort == nil {
		return ""
	}
	return tok.Sort.String()
}
