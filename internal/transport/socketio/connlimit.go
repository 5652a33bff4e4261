package socketio

import (
	"net"
	"strings"
	"sync"
)

// ConnectionLimiter caps the number of concurrent non-loopback clients.
// Loopback connections (the local UI) are always admitted. When a new
// external client would exceed the cap, the oldest external one is evicted.
type ConnectionLimiter struct {
	mu          sync.Mutex
	maxExternal int
	entries     []limiterEntry // insertion order, oldest first
}

type limiterEntry struct {
	clientID string
	external bool
}

// NewConnectionLimiter creates a limiter that allows up to maxExternal
// concurrent non-loopback connections.
func NewConnectionLimiter(maxExternal int) *ConnectionLimiter {
	return &ConnectionLimiter{maxExternal: maxExternal}
}

// TryAdd registers a connection. It returns whether the connection is
// admitted and the ID of any evicted client (empty if none). Registering an
// already-tracked ID is a no-op.
func (cl *ConnectionLimiter) TryAdd(clientID, remoteIP string) (allowed bool, evictedID string) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	for _, e := range cl.entries {
		if e.clientID == clientID {
			return true, ""
		}
	}

	external := !isLocalIP(remoteIP)
	cl.entries = append(cl.entries, limiterEntry{clientID: clientID, external: external})
	if !external {
		return true, ""
	}

	count := 0
	for _, e := range cl.entries {
		if e.external {
			count++
		}
	}
	if count <= cl.maxExternal {
		return true, ""
	}

	for i, e := range cl.entries {
		if e.external {
			evictedID = e.clientID
			cl.entries = append(cl.entries[:i], cl.entries[i+1:]...)
			break
		}
	}
	return true, evictedID
}

// Remove unregisters a connection when a client disconnects.
func (cl *ConnectionLimiter) Remove(clientID string) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	for i, e := range cl.entries {
		if e.clientID == clientID {
			cl.entries = append(cl.entries[:i], cl.entries[i+1:]...)
			return
		}
	}
}

// isLocalIP reports whether the address is loopback. Handshake addresses
// may carry a port or an IPv6 mapped prefix.
func isLocalIP(addr string) bool {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	addr = strings.TrimPrefix(addr, "::ffff:")
	ip := net.ParseIP(addr)
	return ip != nil && ip.IsLoopback()
}
