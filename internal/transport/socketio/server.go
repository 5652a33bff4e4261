// Package socketio provides the Socket.io server the Volumio UI talks to.
package socketio

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zishang520/socket.io/servers/socket/v3"
	"github.com/zishang520/socket.io/v3/pkg/types"

	"github.com/mochan-b/plex-volumio/internal/config"
	"github.com/mochan-b/plex-volumio/internal/domain/browse"
	"github.com/mochan-b/plex-volumio/internal/domain/player"
	"github.com/mochan-b/plex-volumio/internal/domain/plex"
	"github.com/mochan-b/plex-volumio/internal/infra/mpd"
	"github.com/mochan-b/plex-volumio/internal/infra/plextv"
)

const (
	maxExternalClients = 8
	broadcastWindow    = 150 * time.Millisecond
)

// Server handles Socket.io connections and events.
type Server struct {
	io        *socket.Server
	nav       *browse.Navigator
	player    *player.Service
	mpdClient *mpd.Client
	session   *plextv.LoginSession
	conns     *plex.ConnectionStore
	cfg       *config.Config
	limiter   *ConnectionLimiter
	debouncer *BroadcastDebouncer

	mu      sync.RWMutex
	clients map[string]*socket.Socket
}

// NewServer creates a new Socket.io server.
func NewServer(nav *browse.Navigator, mpdClient *mpd.Client, session *plextv.LoginSession, conns *plex.ConnectionStore, cfg *config.Config) (*Server, error) {
	opts := socket.DefaultServerOptions()
	opts.SetPingTimeout(20 * time.Second)
	opts.SetPingInterval(25 * time.Second)
	opts.SetCors(&types.Cors{
		Origin:      "*",
		Credentials: true,
	})

	server := socket.NewServer(nil, opts)

	s := &Server{
		io:        server,
		nav:       nav,
		player:    player.NewService(mpdClient),
		mpdClient: mpdClient,
		session:   session,
		conns:     conns,
		cfg:       cfg,
		limiter:   NewConnectionLimiter(maxExternalClients),
		clients:   make(map[string]*socket.Socket),
	}
	s.debouncer = NewBroadcastDebouncer(broadcastWindow, s.BroadcastState)

	s.setupHandlers()

	return s, nil
}

// setupHandlers registers all Socket.io event handlers.
func (s *Server) setupHandlers() {
	s.io.On("connection", func(clients ...any) {
		client := clients[0].(*socket.Socket)
		clientID := string(client.Id())

		remoteIP := ""
		if client.Handshake() != nil {
			remoteIP = client.Handshake().Address
		}
		_, evicted := s.limiter.TryAdd(clientID, remoteIP)
		if evicted != "" {
			s.mu.RLock()
			old := s.clients[evicted]
			s.mu.RUnlock()
			if old != nil {
				log.Warn().Str("id", evicted).Msg("Evicting oldest external client")
				old.Disconnect(true)
			}
		}

		log.Info().Str("id", clientID).Str("addr", remoteIP).Msg("Client connected")

		s.mu.Lock()
		s.clients[clientID] = client
		s.mu.Unlock()

		go func() {
			time.Sleep(100 * time.Millisecond)
			s.pushState(client)
		}()

		client.On("disconnect", func(args ...any) {
			reason := ""
			if len(args) > 0 {
				if r, ok := args[0].(string); ok {
					reason = r
				}
			}
			log.Info().Str("id", clientID).Str("reason", reason).Msg("Client disconnected")

			s.limiter.Remove(clientID)
			s.mu.Lock()
			delete(s.clients, clientID)
			s.mu.Unlock()
		})

		client.On("getState", func(args ...any) {
			log.Debug().Str("id", clientID).Msg("getState")
			s.pushState(client)
		})

		client.On("play", func(args ...any) {
			log.Debug().Str("id", clientID).Msg("play")
			if err := s.player.Play(); err != nil {
				log.Error().Err(err).Msg("Play failed")
			}
		})

		client.On("pause", func(args ...any) {
			log.Debug().Str("id", clientID).Msg("pause")
			if err := s.player.Pause(); err != nil {
				log.Error().Err(err).Msg("Pause failed")
			}
		})

		client.On("stop", func(args ...any) {
			log.Debug().Str("id", clientID).Msg("stop")
			if err := s.player.Stop(); err != nil {
				log.Error().Err(err).Msg("Stop failed")
			}
		})

		client.On("next", func(args ...any) {
			log.Debug().Str("id", clientID).Msg("next")
			if err := s.player.Next(); err != nil {
				log.Error().Err(err).Msg("Next failed")
			}
		})

		client.On("prev", func(args ...any) {
			log.Debug().Str("id", clientID).Msg("prev")
			if err := s.player.Previous(); err != nil {
				log.Error().Err(err).Msg("Previous failed")
			}
		})

		client.On("clearQueue", func(args ...any) {
			log.Debug().Str("id", clientID).Msg("clearQueue")
			if err := s.player.ClearQueue(); err != nil {
				log.Error().Err(err).Msg("ClearQueue failed")
			}
		})

		s.registerBrowseHandlers(client, clientID)
		s.registerPlexHandlers(client, clientID)
	})
}

// pushState sends the current playback state to a client.
func (s *Server) pushState(client *socket.Socket) {
	client.Emit("pushState", s.playbackState())
}

// playbackState assembles a Volumio state payload from MPD.
func (s *Server) playbackState() map[string]interface{} {
	state, err := s.player.GetState()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to get player state")
		return map[string]interface{}{
			"service": browse.ServiceName,
			"status":  player.StatusStop,
		}
	}
	return state
}

// BroadcastState sends the playback state to all connected clients.
func (s *Server) BroadcastState() {
	s.io.Emit("pushState", s.playbackState())
}

// StartMPDWatcher starts watching MPD for changes and broadcasts updates.
// Bursts of subsystem events are debounced into a single broadcast.
func (s *Server) StartMPDWatcher(ctx context.Context) error {
	subsystems := []string{"player", "mixer", "playlist", "options"}
	events, err := s.mpdClient.Watch(subsystems...)
	if err != nil {
		return err
	}

	go func() {
		log.Info().Strs("subsystems", subsystems).Msg("MPD watcher started")
		for {
			select {
			case <-ctx.Done():
				s.debouncer.Stop()
				log.Info().Msg("MPD watcher stopped")
				return
			case subsystem, ok := <-events:
				if !ok {
					log.Warn().Msg("MPD watcher channel closed")
					return
				}
				log.Debug().Str("subsystem", subsystem).Msg("MPD subsystem changed")
				s.debouncer.Trigger()
			}
		}
	}()

	return nil
}

// ServeHTTP implements http.Handler for the Socket.io server.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.io.ServeHandler(nil).ServeHTTP(w, r)
}

// Close closes the Socket.io server.
func (s *Server) Close() error {
	s.debouncer.Stop()
	s.io.Close(nil)
	return nil
}
