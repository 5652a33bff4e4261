package catalog

import (
	"github.com/mochan-b/plex-volumio/internal/domain/plex"
	"github.com/mochan-b/plex-volumio/internal/infra/pms"
)

// Flat mapping from raw container entries to normalized records.

func toLibrary(dir pms.Directory) plex.Library {
	return plex.Library{
		ID:    dir.Key,
		Title: dir.Title,
	}
}

func toArtist(md pms.Metadata) plex.Artist {
	return plex.Artist{
		RatingKey:   md.RatingKey,
		Title:       md.Title,
		ChildrenKey: md.Key,
		ArtKey:      md.Thumb,
	}
}

func toAlbum(md pms.Metadata) plex.Album {
	return plex.Album{
		RatingKey:   md.RatingKey,
		Title:       md.Title,
		Artist:      md.ParentTitle,
		ChildrenKey: md.Key,
		ArtKey:      md.Thumb,
		Year:        md.Year,
	}
}

func toPlaylist(md pms.Metadata) plex.Playlist {
	return plex.Playlist{
		RatingKey: md.RatingKey,
		Title:     md.Title,
		ItemsKey:  md.Key,
		Count:     md.LeafCount,
	}
}

func toTrack(md pms.Metadata) plex.Track {
	track := plex.Track{
		RatingKey: md.RatingKey,
		Title:     md.Title,
		Artist:    md.GrandparentTitle,
		Album:     md.ParentTitle,
		ArtKey:    md.Thumb,
		Duration:  md.Duration / 1000,
		Index:     md.Index,
	}
	if len(md.Media) > 0 && len(md.Media[0].Part) > 0 {
		track.MediaKey = md.Media[0].Part[0].Key
	}
	return track
}
