// Package player exposes playback control and Volumio-compatible state over
// the MPD daemon.
package player

import (
	"github.com/fhs/gompd/v2/mpd"

	mpdclient "github.com/mochan-b/plex-volumio/internal/infra/mpd"
)

// Service handles player operations.
type Service struct {
	mpd *mpdclient.Client
}

// NewService creates a new player service.
func NewService(client *mpdclient.Client) *Service {
	return &Service{mpd: client}
}

// GetState returns the current player state in Volumio-compatible format.
func (s *Service) GetState() (map[string]interface{}, error) {
	status, err := s.mpd.Status()
	if err != nil {
		return nil, err
	}

	song, err := s.mpd.CurrentSong()
	if err != nil {
		// Not fatal, there may be nothing playing.
		song = mpd.Attrs{}
	}

	return BuildState(status, song), nil
}

// PlayStream replaces the queue with one stream URL and starts playback.
func (s *Service) PlayStream(streamURL string) error {
	return s.mpd.PlayURL(streamURL)
}

// QueueStreams replaces the queue with several stream URLs and starts
// playback at the first.
func (s *Service) QueueStreams(streamURLs []string) error {
	return s.mpd.QueueURLs(streamURLs)
}

// Play starts or resumes playback.
func (s *Service) Play() error { return s.mpd.Play(-1) }

// Pause pauses playback.
func (s *Service) Pause() error { return s.mpd.Pause(true) }

// Stop stops playback.
func (s *Service) Stop() error { return s.mpd.Stop() }

// Next skips to the next track.
func (s *Service) Next() error { return s.mpd.Next() }

// Previous skips to the previous track.
func (s *Service) Previous() error { return s.mpd.Previous() }

// ClearQueue clears the playback queue.
func (s *Service) ClearQueue() error { return s.mpd.Clear() }
