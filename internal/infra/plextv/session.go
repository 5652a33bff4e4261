package plextv

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/mochan-b/plex-volumio/internal/domain/plex"
)

// ErrLoginInProgress is returned by Begin while a previous PIN exchange on
// the same session has not finished. Overlapping attempts are rejected
// rather than silently replaced.
var ErrLoginInProgress = errors.New("plextv: a login attempt is already in progress")

// ErrNoPendingLogin is returned by Poll when Begin has not been called.
var ErrNoPendingLogin = errors.New("plextv: no login attempt in progress")

// LoginSession owns the state of one login attempt: the pending PIN, then
// the account token and the discovered resources. It is a plain value owned
// by the caller, not module state; one session serves one login flow.
type LoginSession struct {
	client *Client

	mu        sync.Mutex
	pin       *Pin
	token     string
	resources []Resource
}

// NewLoginSession creates a session bound to a plex.tv client.
func NewLoginSession(client *Client) *LoginSession {
	return &LoginSession{client: client}
}

// Begin starts a PIN exchange and returns the code the user must enter at
// plex.tv/link.
func (s *LoginSession) Begin(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pin != nil {
		return "", ErrLoginInProgress
	}

	pin, err := s.client.CreatePin(ctx)
	if err != nil {
		return "", err
	}
	s.pin = pin
	s.token = ""
	s.resources = nil
	return pin.Code, nil
}

// Poll checks the pending PIN once. When the user has linked, the session
// fetches the resource list, keeps it, and reports done. The PIN exchange
// itself performs no extra network calls beyond the poll and the one
// resource fetch.
func (s *LoginSession) Poll(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pin == nil {
		return false, ErrNoPendingLogin
	}

	token, err := s.client.CheckPin(ctx, s.pin.ID)
	if err != nil {
		return false, err
	}
	if token == "" {
		return false, nil
	}

	resources, err := s.client.Resources(ctx, token)
	if err != nil {
		return false, err
	}

	s.token = token
	s.resources = resources
	s.pin = nil
	log.Info().Int("resources", len(resources)).Msg("plex.tv login complete")
	return true, nil
}

// Cancel abandons any pending PIN exchange.
func (s *LoginSession) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pin = nil
}

// Options ranks the discovered servers' connections. Only valid after Poll
// reported done.
func (s *LoginSession) Options() ([]ConnectionOption, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == "" {
		return nil, ErrNoPendingLogin
	}
	return ResolveConnections(s.resources)
}

// Connection turns a selected option value into an applicable connection,
// looking up the matching server's access token.
func (s *LoginSession) Connection(value string) (plex.Connection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	serverID, host, port, protocol, err := ParseOptionValue(value)
	if err != nil {
		return plex.Connection{}, err
	}
	for _, res := range s.resources {
		if res.ClientIdentifier != serverID {
			continue
		}
		return plex.Connection{
			Host:   host,
			Port:   port,
			Token:  res.AccessToken,
			UseTLS: protocol == "https",
		}, nil
	}
	return plex.Connection{}, fmt.Errorf("%w: server %s not in discovered resources", plex.ErrNoServers, serverID)
}
