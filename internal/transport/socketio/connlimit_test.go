package socketio

import (
	"fmt"
	"testing"
)

func TestConnectionLimiterLoopbackAlwaysAllowed(t *testing.T) {
	cl := NewConnectionLimiter(1)

	for i := 0; i < 10; i++ {
		allowed, evicted := cl.TryAdd(fmt.Sprintf("local-%d", i), "127.0.0.1")
		if !allowed {
			t.Errorf("loopback connection %d should be allowed", i)
		}
		if evicted != "" {
			t.Errorf("loopback connection %d should not evict anyone, got %s", i, evicted)
		}
	}
}

func TestConnectionLimiterIPv6LoopbackAllowed(t *testing.T) {
	cl := NewConnectionLimiter(1)

	allowed, evicted := cl.TryAdd("ipv6-local", "::1")
	if !allowed || evicted != "" {
		t.Errorf("IPv6 loopback: allowed=%v evicted=%q", allowed, evicted)
	}
}

func TestConnectionLimiterEvictsOldestExternal(t *testing.T) {
	cl := NewConnectionLimiter(1)

	if _, evicted := cl.TryAdd("ext-1", "192.168.1.100"); evicted != "" {
		t.Errorf("first external evicted %q", evicted)
	}
	allowed, evicted := cl.TryAdd("ext-2", "192.168.1.101")
	if !allowed {
		t.Error("second external connection should be admitted")
	}
	if evicted != "ext-1" {
		t.Errorf("expected eviction of ext-1, got %q", evicted)
	}

	// Loopback clients never count against the cap.
	if _, evicted := cl.TryAdd("local-1", "127.0.0.1"); evicted != "" {
		t.Errorf("loopback evicted %q", evicted)
	}
}

func TestConnectionLimiterRemoveFreesSlot(t *testing.T) {
	cl := NewConnectionLimiter(1)

	cl.TryAdd("ext-1", "192.168.1.100")
	cl.Remove("ext-1")

	if _, evicted := cl.TryAdd("ext-2", "192.168.1.101"); evicted != "" {
		t.Errorf("eviction after removal freed a slot: %q", evicted)
	}
}

func TestConnectionLimiterDuplicateAddIsIdempotent(t *testing.T) {
	cl := NewConnectionLimiter(1)

	cl.TryAdd("ext-1", "192.168.1.100")
	allowed, evicted := cl.TryAdd("ext-1", "192.168.1.100")
	if !allowed || evicted != "" {
		t.Errorf("duplicate add: allowed=%v evicted=%q", allowed, evicted)
	}
}

func TestConnectionLimiterRemoveNonexistent(t *testing.T) {
	NewConnectionLimiter(1).Remove("nonexistent")
}

func TestIsLocalIP(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{"127.0.0.1", true},
		{"::1", true},
		{"127.0.0.1:51234", true},
		{"::ffff:127.0.0.1", true},
		{"192.168.1.100", false},
		{"10.0.0.1:80", false},
		{"0.0.0.0", false},
	}

	for _, tc := range tests {
		if got := isLocalIP(tc.addr); got != tc.want {
			t.Errorf("isLocalIP(%q) = %v, want %v", tc.addr, got, tc.want)
		}
	}
}
