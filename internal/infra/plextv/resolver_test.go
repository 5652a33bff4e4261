package plextv_test

import (
	"errors"
	"testing"

	"github.com/mochan-b/plex-volumio/internal/domain/plex"
	"github.com/mochan-b/plex-volumio/internal/infra/plextv"
)

func serverResource(name, id string, conns ...plextv.ResourceConnection) plextv.Resource {
	return plextv.Resource{
		Name:             name,
		ClientIdentifier: id,
		Provides:         "server",
		AccessToken:      "token-" + id,
		Connections:      conns,
	}
}

func TestResolveConnectionsNoServers(t *testing.T) {
	resources := []plextv.Resource{
		{Name: "Controller", ClientIdentifier: "c1", Provides: "controller"},
		{Name: "Player", ClientIdentifier: "p1", Provides: "client,player"},
	}

	_, err := plextv.ResolveConnections(resources)
	if !errors.Is(err, plex.ErrNoServers) {
		t.Fatalf("err = %v, want ErrNoServers", err)
	}
}

func TestResolveConnectionsRanksAndDedupes(t *testing.T) {
	// One server advertising a bridge-network duplicate, a real LAN
	// address and a remote address. The bridge entry must disappear and
	// the LAN entry must rank first.
	res := serverResource("Living Room", "srv1",
		plextv.ResourceConnection{
			URI: "http://172.17.0.5:32400", Protocol: "http",
			Address: "172.17.0.5", Port: 32400, Local: true,
		},
		plextv.ResourceConnection{
			URI: "http://192.168.1.50:32400", Protocol: "http",
			Address: "192.168.1.50", Port: 32400, Local: true,
		},
		plextv.ResourceConnection{
			URI: "http://203.0.113.9:32400", Protocol: "http",
			Address: "203.0.113.9", Port: 32400, Local: false,
		},
	)

	options, err := plextv.ResolveConnections([]plextv.Resource{res})
	if err != nil {
		t.Fatalf("ResolveConnections: %v", err)
	}
	if len(options) != 2 {
		t.Fatalf("got %d options, want 2: %+v", len(options), options)
	}
	if options[0].Value != "srv1|192.168.1.50|32400|http" {
		t.Errorf("first option = %q, want the LAN host", options[0].Value)
	}
	if options[1].Value != "srv1|203.0.113.9|32400|http" {
		t.Errorf("second option = %q, want the remote host", options[1].Value)
	}
	if options[0].Label != "Living Room — local HTTP (192.168.1.50:32400)" {
		t.Errorf("unexpected label: %q", options[0].Label)
	}
}

func TestResolveConnectionsDedupKeepsLowestScore(t *testing.T) {
	// Two local http candidates for the same server: the dedup key is
	// (server, scope, protocol), so only the better-scored host survives.
	res := serverResource("Attic", "srv1",
		plextv.ResourceConnection{
			URI: "http://192.168.64.2:32400", Protocol: "http",
			Address: "192.168.64.2", Port: 32400, Local: true,
		},
		plextv.ResourceConnection{
			URI: "http://192.168.1.10:32400", Protocol: "http",
			Address: "192.168.1.10", Port: 32400, Local: true,
		},
	)

	options, err := plextv.ResolveConnections([]plextv.Resource{res})
	if err != nil {
		t.Fatalf("ResolveConnections: %v", err)
	}
	if len(options) != 1 {
		t.Fatalf("got %d options, want 1", len(options))
	}
	if options[0].Value != "srv1|192.168.1.10|32400|http" {
		t.Errorf("surviving option = %q, want the low third-octet host", options[0].Value)
	}
}

func TestResolveConnectionsDropsEncryptedBareIP(t *testing.T) {
	res := serverResource("Bare", "srv1",
		plextv.ResourceConnection{
			URI: "https://192.168.1.50:32400", Protocol: "https",
			Address: "192.168.1.50", Port: 32400, Local: true,
		},
		plextv.ResourceConnection{
			URI: "https://192-168-1-50.x.plex.direct:32400", Protocol: "https",
			Address: "192.168.1.50", Port: 32400, Local: true,
		},
	)

	options, err := plextv.ResolveConnections([]plextv.Resource{res})
	if err != nil {
		t.Fatalf("ResolveConnections: %v", err)
	}
	for _, opt := range options {
		if opt.Value == "srv1|192.168.1.50|32400|https" {
			t.Errorf("encrypted bare-IP candidate survived: %+v", options)
		}
	}
}

func TestResolveConnectionsRecoversHiddenPlain(t *testing.T) {
	tests := []struct {
		name        string
		uri         string
		wantPlainAt string // empty means no plain option must appear
	}{
		{
			name:        "bridge address stays suppressed",
			uri:         "https://172-17-0-5.example.plex.direct:32400",
			wantPlainAt: "",
		},
		{
			name:        "usable address is recovered",
			uri:         "https://10-0-0-5.example.plex.direct:32400",
			wantPlainAt: "srv1|10.0.0.5|32400|http",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := serverResource("Hidden", "srv1",
				plextv.ResourceConnection{
					URI: tt.uri, Protocol: "https",
					Port: 32400, Local: true,
				},
			)

			options, err := plextv.ResolveConnections([]plextv.Resource{res})
			if tt.wantPlainAt == "" {
				// The bridge candidate is dropped entirely and the
				// fallback has no plain candidates to offer.
				if err != nil {
					t.Fatalf("ResolveConnections: %v", err)
				}
				for _, opt := range options {
					if opt.Value == "srv1|172.17.0.5|32400|http" {
						t.Errorf("plain option synthesized from noisy address: %+v", options)
					}
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveConnections: %v", err)
			}
			found := false
			for _, opt := range options {
				if opt.Value == tt.wantPlainAt {
					found = true
				}
			}
			if !found {
				t.Errorf("expected synthesized plain option %q, got %+v", tt.wantPlainAt, options)
			}
		})
	}
}

func TestResolveConnectionsFallback(t *testing.T) {
	// Every candidate is filtered (noisy plain host, encrypted bare IP).
	// The fallback re-emits the raw unencrypted candidates.
	res := serverResource("Filtered", "srv1",
		plextv.ResourceConnection{
			URI: "http://172.17.0.5:32400", Protocol: "http",
			Address: "172.17.0.5", Port: 32400, Local: true,
		},
		plextv.ResourceConnection{
			URI: "https://203.0.113.9:32400", Protocol: "https",
			Address: "203.0.113.9", Port: 32400, Local: false,
		},
	)

	options, err := plextv.ResolveConnections([]plextv.Resource{res})
	if err != nil {
		t.Fatalf("ResolveConnections: %v", err)
	}
	if len(options) != 1 {
		t.Fatalf("got %d options, want the fallback plain candidate: %+v", len(options), options)
	}
	if options[0].Value != "srv1|172.17.0.5|32400|http" {
		t.Errorf("fallback option = %q", options[0].Value)
	}
}

func TestResolveConnectionsPrefersURIOverAddressFields(t *testing.T) {
	res := serverResource("URI", "srv1",
		plextv.ResourceConnection{
			URI:      "https://10-0-0-5.example.plex.direct:32401",
			Protocol: "https",
			Address:  "10.0.0.5",
			Port:     32400,
			Local:    true,
		},
	)

	options, err := plextv.ResolveConnections([]plextv.Resource{res})
	if err != nil {
		t.Fatalf("ResolveConnections: %v", err)
	}
	found := false
	for _, opt := range options {
		if opt.Value == "srv1|10-0-0-5.example.plex.direct|32401|https" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected the URI hostname and port to win, got %+v", options)
	}
}

func TestParseOptionValue(t *testing.T) {
	serverID, host, port, protocol, err := plextv.ParseOptionValue("srv1|192.168.1.50|32400|http")
	if err != nil {
		t.Fatalf("ParseOptionValue: %v", err)
	}
	if serverID != "srv1" || host != "192.168.1.50" || port != 32400 || protocol != "http" {
		t.Errorf("got (%s, %s, %d, %s)", serverID, host, port, protocol)
	}

	for _, bad := range []string{"", "a|b|c", "a|b|notaport|http", "a|b|32400|gopher"} {
		if _, _, _, _, err := plextv.ParseOptionValue(bad); err == nil {
			t.Errorf("ParseOptionValue(%q) should fail", bad)
		}
	}
}
