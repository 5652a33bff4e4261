package socketio

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zishang520/socket.io/servers/socket/v3"

	"github.com/mochan-b/plex-volumio/internal/domain/browse"
	"github.com/mochan-b/plex-volumio/internal/domain/plex"
)

const browseTimeout = 30 * time.Second

// registerBrowseHandlers registers the library browsing and playback events.
func (s *Server) registerBrowseHandlers(client *socket.Socket, clientID string) {
	client.On("getBrowseSources", func(args ...any) {
		log.Debug().Str("id", clientID).Msg("getBrowseSources")
		sources := []map[string]interface{}{
			{
				"name":        "Plex",
				"uri":         browse.Token{Route: browse.RouteRoot}.String(),
				"plugin_type": "music_service",
				"plugin_name": browse.ServiceName,
				"albumart":    "/albumart?sourceicon=music_service/plex/plexicon.svg",
			},
		}
		client.Emit("pushBrowseSources", sources)
	})

	client.On("browseLibrary", func(args ...any) {
		uri, ok := uriArg(args)
		if !ok {
			log.Warn().Str("id", clientID).Msg("browseLibrary without uri")
			return
		}
		log.Debug().Str("id", clientID).Str("uri", uri).Msg("browseLibrary")

		ctx, cancel := context.WithTimeout(context.Background(), browseTimeout)
		defer cancel()

		result, err := s.nav.Browse(ctx, uri)
		if err != nil {
			s.pushBrowseError(client, uri, err)
			return
		}
		client.Emit("pushBrowseLibrary", result)
	})

	client.On("search", func(args ...any) {
		query, ok := searchArg(args)
		if !ok {
			log.Warn().Str("id", clientID).Msg("search without query")
			return
		}
		log.Debug().Str("id", clientID).Str("query", query).Msg("search")

		ctx, cancel := context.WithTimeout(context.Background(), browseTimeout)
		defer cancel()

		result, err := s.nav.Search(ctx, query)
		if err != nil {
			s.pushBrowseError(client, query, err)
			return
		}
		client.Emit("pushBrowseLibrary", result)
	})

	// replaceAndPlay and addPlay both resolve a leaf track and hand the
	// stream URL to MPD.
	playTrack := func(event string) func(args ...any) {
		return func(args ...any) {
			uri, ok := uriArg(args)
			if !ok {
				log.Warn().Str("id", clientID).Str("event", event).Msg("play request without uri")
				return
			}
			log.Debug().Str("id", clientID).Str("uri", uri).Msg(event)

			ctx, cancel := context.WithTimeout(context.Background(), browseTimeout)
			defer cancel()

			streamURL, track, err := s.nav.ResolveTrack(ctx, uri)
			if err != nil {
				s.pushBrowseError(client, uri, err)
				return
			}
			if err := s.player.PlayStream(streamURL); err != nil {
				log.Error().Err(err).Str("track", track.Title).Msg("MPD playback failed")
				s.pushToast(client, "error", "Playback failed", track.Title)
				return
			}
			s.BroadcastState()
		}
	}
	client.On("replaceAndPlay", playTrack("replaceAndPlay"))
	client.On("addPlay", playTrack("addPlay"))
}

// pushBrowseError reports a browse failure to the client as a toast.
func (s *Server) pushBrowseError(client *socket.Socket, uri string, err error) {
	log.Error().Err(err).Str("uri", uri).Msg("Browse failed")

	title := "Plex"
	message := "Something went wrong. Please try again."
	switch {
	case errors.Is(err, plex.ErrAuth):
		message = "Not authorized. Please log in to Plex again."
	case errors.Is(err, plex.ErrConnection):
		message = "Cannot reach the Plex server."
	case errors.Is(err, plex.ErrNotFound):
		message = "This item is no longer available."
	case errors.Is(err, browse.ErrBadToken):
		message = "This location cannot be opened."
	}
	s.pushToast(client, "error", title, message)
}

func (s *Server) pushToast(client *socket.Socket, level, title, message string) {
	client.Emit("pushToastMessage", map[string]interface{}{
		"type":    level,
		"title":   title,
		"message": message,
	})
}

// searchArg extracts the query from a Volumio search payload, which nests
// it under value.
func searchArg(args []any) (string, bool) {
	if len(args) == 0 {
		return "", false
	}
	switch v := args[0].(type) {
	case string:
		return v, v != ""
	case map[string]interface{}:
		if query, ok := v["value"].(string); ok && query != "" {
			return query, true
		}
	}
	return "", false
}

// uriArg extracts the uri field from a Volumio event payload. The UI sends
// either a bare string or an object with a uri key (replaceAndPlay nests it
// under item).
func uriArg(args []any) (string, bool) {
	if len(args) == 0 {
		return "", false
	}
	switch v := args[0].(type) {
	case string:
		return v, v != ""
	case map[string]interface{}:
		if uri, ok := v["uri"].(string); ok && uri != "" {
			return uri, true
		}
		if item, ok := v["item"].(map[string]interface{}); ok {
			if uri, ok := item["uri"].(string); ok && uri != "" {
				return uri, true
			}
		}
	}
	return "", false
}
