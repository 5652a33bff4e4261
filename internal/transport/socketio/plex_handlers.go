package socketio

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zishang520/socket.io/servers/socket/v3"

	"github.com/mochan-b/plex-volumio/internal/config"
	"github.com/mochan-b/plex-volumio/internal/domain/plex"
	"github.com/mochan-b/plex-volumio/internal/infra/plextv"
)

const (
	loginPollInterval = 2 * time.Second
	loginPollTimeout  = 5 * time.Minute
)

// registerPlexHandlers registers the plex.tv login and server selection
// events.
func (s *Server) registerPlexHandlers(client *socket.Socket, clientID string) {
	client.On("plexLogin", func(args ...any) {
		log.Info().Str("id", clientID).Msg("plexLogin")

		ctx, cancel := context.WithTimeout(context.Background(), browseTimeout)
		defer cancel()

		code, err := s.session.Begin(ctx)
		if err != nil {
			if errors.Is(err, plextv.ErrLoginInProgress) {
				s.pushToast(client, "info", "Plex", "A login attempt is already in progress.")
				return
			}
			log.Error().Err(err).Msg("PIN request failed")
			s.pushToast(client, "error", "Plex", "Could not start the login. Check your network.")
			return
		}

		client.Emit("plexLoginPin", map[string]interface{}{
			"code": code,
			"url":  "https://plex.tv/link",
		})

		go s.pollLogin(client)
	})

	client.On("plexCancelLogin", func(args ...any) {
		log.Info().Str("id", clientID).Msg("plexCancelLogin")
		s.session.Cancel()
	})

	client.On("plexGetConnections", func(args ...any) {
		log.Debug().Str("id", clientID).Msg("plexGetConnections")
		s.pushConnectionOptions(client)
	})

	client.On("plexSelectConnection", func(args ...any) {
		value, ok := valueArg(args)
		if !ok {
			log.Warn().Str("id", clientID).Msg("plexSelectConnection without value")
			return
		}
		log.Info().Str("id", clientID).Str("value", value).Msg("plexSelectConnection")

		conn, err := s.session.Connection(value)
		if err != nil {
			log.Error().Err(err).Msg("Connection selection failed")
			s.pushToast(client, "error", "Plex", "This server can no longer be selected.")
			return
		}
		s.applyConnection(conn, value)
		s.pushToast(client, "success", "Plex", "Connected to your Plex server.")
	})

	client.On("plexLogout", func(args ...any) {
		log.Info().Str("id", clientID).Msg("plexLogout")
		s.session.Cancel()
		s.conns.Clear()
		s.cfg.Plex.ClearCredentials()
		if err := config.Save(s.cfg); err != nil {
			log.Error().Err(err).Msg("Failed to persist logout")
		}
	})
}

// pollLogin polls the pending PIN until the user links or the attempt times
// out, then pushes the ranked server connections.
func (s *Server) pollLogin(client *socket.Socket) {
	deadline := time.Now().Add(loginPollTimeout)
	ticker := time.NewTicker(loginPollInterval)
	defer ticker.Stop()

	for range ticker.C {
		if time.Now().After(deadline) {
			s.session.Cancel()
			s.pushToast(client, "warning", "Plex", "Login timed out. Please try again.")
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), browseTimeout)
		done, err := s.session.Poll(ctx)
		cancel()
		if err != nil {
			if errors.Is(err, plextv.ErrNoPendingLogin) {
				return
			}
			log.Warn().Err(err).Msg("PIN poll failed")
			continue
		}
		if done {
			client.Emit("plexLoginSuccess", map[string]interface{}{})
			s.pushConnectionOptions(client)
			return
		}
	}
}

// pushConnectionOptions emits the ranked list of server connections the user
// can pick from.
func (s *Server) pushConnectionOptions(client *socket.Socket) {
	options, err := s.session.Options()
	if err != nil {
		if errors.Is(err, plex.ErrNoServers) {
			s.pushToast(client, "warning", "Plex", "Your account has no media servers.")
			client.Emit("plexConnections", []plextv.ConnectionOption{})
			return
		}
		log.Error().Err(err).Msg("Connection listing failed")
		s.pushToast(client, "error", "Plex", "Could not list your servers.")
		return
	}
	client.Emit("plexConnections", options)
}

// applyConnection swaps the active connection and persists it so a restart
// reconnects without another login.
func (s *Server) applyConnection(conn plex.Connection, optionValue string) {
	s.conns.Set(conn)

	serverID, _, _, _, err := plextv.ParseOptionValue(optionValue)
	if err == nil {
		s.cfg.Plex.ServerID = serverID
	}
	s.cfg.Plex.Token = conn.Token
	s.cfg.Plex.Host = conn.Host
	s.cfg.Plex.Port = conn.Port
	s.cfg.Plex.UseTLS = conn.UseTLS
	if err := config.Save(s.cfg); err != nil {
		log.Error().Err(err).Msg("Failed to persist connection")
	}
	log.Info().Str("host", conn.Host).Int("port", conn.Port).Bool("tls", conn.UseTLS).Msg("Active server connection applied")
}

// valueArg extracts the value field from an event payload.
func valueArg(args []any) (string, bool) {
	if len(args) == 0 {
		return "", false
	}
	switch v := args[0].(type) {
	case string:
		return v, v != ""
	case map[string]interface{}:
		if value, ok := v["value"].(string); ok && value != "" {
			return value, true
		}
	}
	return "", false
}
