package plex_test

import (
	"fmt"
	"testing"

	"github.com/mochan-b/plex-volumio/internal/domain/plex"
)

func TestIsNoisyAddress(t *testing.T) {
	tests := []struct {
		name string
		host string
		want bool
	}{
		{name: "loopback", host: "127.0.0.1", want: true},
		{name: "loopback high", host: "127.255.0.9", want: true},
		{name: "link-local", host: "169.254.10.20", want: true},
		{name: "docker bridge start", host: "172.16.0.1", want: true},
		{name: "docker bridge middle", host: "172.17.0.5", want: true},
		{name: "docker bridge end", host: "172.31.255.254", want: true},
		{name: "just below bridge block", host: "172.15.0.1", want: false},
		{name: "just above bridge block", host: "172.32.0.1", want: false},
		{name: "lan address", host: "192.168.1.50", want: false},
		{name: "private ten", host: "10.0.0.5", want: false},
		{name: "public", host: "203.0.113.9", want: false},
		{name: "dashed bridge hostname", host: "172-17-0-5.example.plex.direct", want: true},
		{name: "dashed loopback hostname", host: "127-0-0-1.example.plex.direct", want: true},
		{name: "dashed lan hostname", host: "192-168-1-50.example.plex.direct", want: false},
		{name: "plain hostname", host: "myserver.local", want: false},
		{name: "hostname with dashes but not an address", host: "my-cool-server.example.com", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := plex.IsNoisyAddress(tt.host); got != tt.want {
				t.Errorf("IsNoisyAddress(%q) = %v, want %v", tt.host, got, tt.want)
			}
		})
	}
}

// Dashed hostnames must classify exactly like the address they encode.
func TestIsNoisyAddressDashedAgreesWithDecoded(t *testing.T) {
	addrs := [][4]int{
		{127, 0, 0, 1},
		{169, 254, 1, 1},
		{172, 16, 0, 1},
		{172, 20, 30, 40},
		{10, 0, 0, 5},
		{192, 168, 1, 50},
		{8, 8, 8, 8},
	}
	for _, a := range addrs {
		plain := fmt.Sprintf("%d.%d.%d.%d", a[0], a[1], a[2], a[3])
		dashed := fmt.Sprintf("%d-%d-%d-%d.example.plex.direct", a[0], a[1], a[2], a[3])
		if plex.IsNoisyAddress(dashed) != plex.IsNoisyAddress(plain) {
			t.Errorf("IsNoisyAddress(%q) disagrees with IsNoisyAddress(%q)", dashed, plain)
		}
	}
}

func TestDecodeDashedHost(t *testing.T) {
	tests := []struct {
		host    string
		decoded string
		ok      bool
	}{
		{host: "10-0-0-5.example.plex.direct", decoded: "10.0.0.5", ok: true},
		{host: "192-168-1-50.abc.plex.direct", decoded: "192.168.1.50", ok: true},
		{host: "myserver.example.com", ok: false},
		{host: "a-b-c-d.example.com", ok: false},
		{host: "10-0-0-5", ok: false},
		{host: "1-2-3.example.com", ok: false},
	}

	for _, tt := range tests {
		decoded, ok := plex.DecodeDashedHost(tt.host)
		if ok != tt.ok || decoded != tt.decoded {
			t.Errorf("DecodeDashedHost(%q) = (%q, %v), want (%q, %v)", tt.host, decoded, ok, tt.decoded, tt.ok)
		}
	}
}

func TestScoreHost(t *testing.T) {
	tests := []struct {
		host string
		want int
	}{
		{host: "192.168.0.10", want: 0},
		{host: "192.168.1.50", want: 1},
		{host: "192.168.64.2", want: 64},
		{host: "192.168.255.1", want: 255},
		{host: "10.0.0.5", want: 300},
		{host: "10.255.1.1", want: 300},
		{host: "203.0.113.9", want: 400},
		{host: "myserver.plex.direct", want: 400},
	}

	for _, tt := range tests {
		if got := plex.ScoreHost(tt.host); got != tt.want {
			t.Errorf("ScoreHost(%q) = %d, want %d", tt.host, got, tt.want)
		}
	}
}

// Score is monotonically non-decreasing in the third octet for 192.168/16,
// and every 192.168 host beats 10/8, which beats symbolic names.
func TestScoreHostOrdering(t *testing.T) {
	prev := -1
	for octet := 0; octet <= 255; octet++ {
		score := plex.ScoreHost(fmt.Sprintf("192.168.%d.1", octet))
		if score < prev {
			t.Fatalf("score decreased at third octet %d: %d < %d", octet, score, prev)
		}
		prev = score
	}
	if ten := plex.ScoreHost("10.1.2.3"); ten != 300 {
		t.Errorf("ScoreHost(10.1.2.3) = %d, want 300", ten)
	}
	if sym := plex.ScoreHost("host.example.com"); sym != 400 {
		t.Errorf("ScoreHost(symbolic) = %d, want 400", sym)
	}
}
