// Package catalog composes the media-server gateway with record
// normalization into typed, page-returning catalog operations. It owns no
// state and caches nothing across calls.
package catalog

import (
	"context"
	"fmt"

	"github.com/mochan-b/plex-volumio/internal/domain/plex"
	"github.com/mochan-b/plex-volumio/internal/infra/pms"
)

// Gateway is the catalog request surface this facade composes. *pms.Client
// implements it.
type Gateway interface {
	Sections(ctx context.Context) (*pms.Container, error)
	SectionItems(ctx context.Context, sectionID string, itemType int, page pms.Page) (*pms.Container, error)
	Children(ctx context.Context, key string, page pms.Page) (*pms.Container, error)
	Playlists(ctx context.Context, page pms.Page) (*pms.Container, error)
	PlaylistItems(ctx context.Context, key string, page pms.Page) (*pms.Container, error)
	Metadata(ctx context.Context, ratingKey string) (*pms.Container, error)
	Search(ctx context.Context, sectionID string, itemType int, query string) (*pms.Container, error)
}

// Page is one window of a paginated listing plus the metadata needed to
// compute whether more pages exist.
type Page[T any] struct {
	Items     []T
	TotalSize int
	Offset    int
}

// Service is the catalog facade.
type Service struct {
	gw Gateway
}

// NewService creates a catalog facade over a gateway.
func NewService(gw Gateway) *Service {
	return &Service{gw: gw}
}

// Libraries lists the server's music libraries in catalog order.
func (s *Service) Libraries(ctx context.Context) ([]plex.Library, error) {
	container, err := s.gw.Sections(ctx)
	if err != nil {
		return nil, err
	}
	var libraries []plex.Library
	for _, dir := range container.Directory {
		if dir.Type != "artist" {
			continue
		}
		libraries = append(libraries, toLibrary(dir))
	}
	return libraries, nil
}

// Artists lists one page of a library's artists.
func (s *Service) Artists(ctx context.Context, libraryID string, page pms.Page) (Page[plex.Artist], error) {
	container, err := s.gw.SectionItems(ctx, libraryID, pms.TypeArtist, page)
	if err != nil {
		return Page[plex.Artist]{}, err
	}
	result := Page[plex.Artist]{TotalSize: container.TotalSize, Offset: page.Offset}
	for _, md := range container.Metadata {
		result.Items = append(result.Items, toArtist(md))
	}
	return result, nil
}

// Albums lists one page of a library's albums.
func (s *Service) Albums(ctx context.Context, libraryID string, page pms.Page) (Page[plex.Album], error) {
	container, err := s.gw.SectionItems(ctx, libraryID, pms.TypeAlbum, page)
	if err != nil {
		return Page[plex.Album]{}, err
	}
	result := Page[plex.Album]{TotalSize: container.TotalSize, Offset: page.Offset}
	for _, md := range container.Metadata {
		result.Items = append(result.Items, toAlbum(md))
	}
	return result, nil
}

// ArtistAlbums lists the albums under an artist's opaque children key.
func (s *Service) ArtistAlbums(ctx context.Context, childrenKey string) ([]plex.Album, error) {
	container, err := s.gw.Children(ctx, childrenKey, pms.Page{})
	if err != nil {
		return nil, err
	}
	var albums []plex.Album
	for _, md := range container.Metadata {
		albums = append(albums, toAlbum(md))
	}
	return albums, nil
}

// AlbumTracks lists the tracks under an album's opaque children key.
func (s *Service) AlbumTracks(ctx context.Context, childrenKey string) ([]plex.Track, error) {
	container, err := s.gw.Children(ctx, childrenKey, pms.Page{})
	if err != nil {
		return nil, err
	}
	var tracks []plex.Track
	for _, md := range container.Metadata {
		tracks = append(tracks, toTrack(md))
	}
	return tracks, nil
}

// Playlists lists one page of the server's audio playlists.
func (s *Service) Playlists(ctx context.Context, page pms.Page) (Page[plex.Playlist], error) {
	container, err := s.gw.Playlists(ctx, page)
	if err != nil {
		return Page[plex.Playlist]{}, err
	}
	result := Page[plex.Playlist]{TotalSize: container.TotalSize, Offset: page.Offset}
	for _, md := range container.Metadata {
		result.Items = append(result.Items, toPlaylist(md))
	}
	return result, nil
}

// PlaylistTracks lists one page of a playlist's items.
func (s *Service) PlaylistTracks(ctx context.Context, itemsKey string, page pms.Page) (Page[plex.Track], error) {
	container, err := s.gw.PlaylistItems(ctx, itemsKey, page)
	if err != nil {
		return Page[plex.Track]{}, err
	}
	result := Page[plex.Track]{TotalSize: container.TotalSize, Offset: page.Offset}
	for _, md := range container.Metadata {
		result.Items = append(result.Items, toTrack(md))
	}
	return result, nil
}

// PlayableTrack fetches a single track and requires it to have an
// underlying media file. A track with none is a normal condition (deleted
// or unavailable file) and maps to plex.ErrNotFound, never to a transport
// error.
func (s *Service) PlayableTrack(ctx context.Context, ratingKey string) (plex.Track, error) {
	container, err := s.gw.Metadata(ctx, ratingKey)
	if err != nil {
		return plex.Track{}, err
	}
	if len(container.Metadata) == 0 {
		return plex.Track{}, fmt.Errorf("%w: track %s", plex.ErrNotFound, ratingKey)
	}
	track := toTrack(container.Metadata[0])
	if track.MediaKey == "" {
		return plex.Track{}, fmt.Errorf("%w: track %s has no media parts", plex.ErrNotFound, ratingKey)
	}
	return track, nil
}

// SearchTracks searches a library for tracks matching a query.
func (s *Service) SearchTracks(ctx context.Context, libraryID, query string) ([]plex.Track, error) {
	container, err := s.gw.Search(ctx, libraryID, pms.TypeTrack, query)
	if err != nil {
		return nil, err
	}
	var tracks []plex.Track
	for _, md := range container.Metadata {
		tracks = append(tracks, toTrack(md))
	}
	return tracks, nil
}
