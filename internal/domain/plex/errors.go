package plex

import (
	"errors"
	"fmt"
)

// Error taxonomy for talking to a Plex media server. Callers branch on these
// with errors.Is / errors.As to decide user-facing wording: a rejected token
// means "log in again", a transport failure means "check the address".
var (
	// ErrAuth means the server rejected the access token (HTTP 401).
	ErrAuth = errors.New("plex: authentication rejected")

	// ErrConnection covers transport failures, timeouts and unparsable
	// response bodies. The address itself may be wrong.
	ErrConnection = errors.New("plex: connection failed")

	// ErrNotFound means a referenced item resolved to no playable media.
	ErrNotFound = errors.New("plex: no playable media")

	// ErrNoServers means the plex.tv account has no resource that
	// provides a media server. Distinct from ErrConnection so the UI can
	// tell "nothing registered" apart from "plex.tv unreachable".
	ErrNoServers = errors.New("plex: no media server found")
)

// ServerError is any non-2xx catalog response other than 401.
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("plex: server returned status %d", e.StatusCode)
}

// IsServerError reports whether err wraps a ServerError and returns it.
func IsServerError(err error) (*ServerError, bool) {
	var se *ServerError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
