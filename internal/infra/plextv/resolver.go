package plextv

import (
	"fmt"
	"net"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mochan-b/plex-volumio/internal/domain/plex"
)

// ConnectionOption is one ranked connection choice presented to the user.
// Value encodes everything needed to re-select the connection later.
type ConnectionOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// candidate is one parsed {server, connection} pair. Ephemeral: built fresh
// on every resolve pass.
type candidate struct {
	serverID   string
	serverName string
	host       string
	port       int
	protocol   string
	local      bool
	order      int
}

func (c candidate) scope() string {
	if c.local {
		return "local"
	}
	return "remote"
}

// ResolveConnections ranks the connection candidates of every
// server-providing resource into a deduplicated option list. Returns
// plex.ErrNoServers when no resource provides a server, so the caller can
// message that distinctly from a transport failure.
func ResolveConnections(resources []Resource) ([]ConnectionOption, error) {
	servers := serverResources(resources)
	if len(servers) == 0 {
		return nil, plex.ErrNoServers
	}

	var all []candidate
	for _, res := range servers {
		for _, conn := range res.Connections {
			c, ok := parseCandidate(res, conn)
			if !ok {
				continue
			}
			c.order = len(all)
			all = append(all, c)
		}
	}

	kept := filterCandidates(all)
	kept = recoverHiddenPlain(kept)

	// Stable sort keeps discovery order among equal scores.
	sort.SliceStable(kept, func(i, j int) bool {
		return plex.ScoreHost(kept[i].host) < plex.ScoreHost(kept[j].host)
	})

	options := dedupeAndLabel(kept)
	if len(options) > 0 {
		return options, nil
	}

	// Everything was filtered away. Fall back to the raw unencrypted
	// candidates so the caller is never left without a choice when any
	// plain connection exists.
	log.Warn().Msg("All connection candidates filtered, falling back to unencrypted list")
	var fallback []candidate
	for _, c := range all {
		if c.protocol == "http" {
			fallback = append(fallback, c)
		}
	}
	return dedupeAndLabel(fallback), nil
}

// serverResources keeps only resources that provide a media server.
func serverResources(resources []Resource) []Resource {
	var servers []Resource
	for _, res := range resources {
		for _, p := range strings.Split(res.Provides, ",") {
			if strings.TrimSpace(p) == "server" {
				servers = append(servers, res)
				break
			}
		}
	}
	return servers
}

// parseCandidate extracts {protocol, host, port}, preferring the
// connection's URI since it carries the exact hostname needed for TLS name
// matching. Falls back to the address/port fields.
func parseCandidate(res Resource, conn ResourceConnection) (candidate, bool) {
	c := candidate{
		serverID:   res.ClientIdentifier,
		serverName: res.Name,
		protocol:   strings.ToLower(conn.Protocol),
		local:      conn.Local,
		host:       conn.Address,
		port:       conn.Port,
	}

	if conn.URI != "" {
		if u, err := url.Parse(conn.URI); err == nil && u.Hostname() != "" {
			c.host = u.Hostname()
			if u.Scheme != "" {
				c.protocol = strings.ToLower(u.Scheme)
			}
			if p := u.Port(); p != "" {
				if port, err := strconv.Atoi(p); err == nil {
					c.port = port
				}
			}
		}
	}

	if c.host == "" || c.port == 0 {
		return candidate{}, false
	}
	if c.protocol != "http" && c.protocol != "https" {
		return candidate{}, false
	}
	return c, true
}

// filterCandidates drops noisy hosts and encrypted candidates with a bare
// numeric host. TLS needs a name-matching hostname; a bare IP cannot
// satisfy that for the plex.direct certificates.
func filterCandidates(candidates []candidate) []candidate {
	var kept []candidate
	for _, c := range candidates {
		if plex.IsNoisyAddress(c.host) {
			log.Debug().Str("host", c.host).Msg("Dropping noisy connection candidate")
			continue
		}
		if c.protocol == "https" && net.ParseIP(c.host) != nil {
			log.Debug().Str("host", c.host).Msg("Dropping encrypted candidate with bare IP host")
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// recoverHiddenPlain synthesizes an unencrypted candidate for every local
// encrypted candidate whose hostname dash-encodes a usable IPv4 address.
// Some servers only advertise the encrypted form even when the plain port
// is reachable; without this, local plain discovery silently fails.
func recoverHiddenPlain(candidates []candidate) []candidate {
	out := candidates
	for _, c := range candidates {
		if !c.local || c.protocol != "https" {
			continue
		}
		decoded, ok := plex.DecodeDashedHost(c.host)
		if !ok || plex.IsNoisyAddress(decoded) {
			continue
		}
		plain := c
		plain.host = decoded
		plain.protocol = "http"
		plain.order = len(out)
		out = append(out, plain)
	}
	return out
}

// dedupeAndLabel keeps the first (best-ranked) candidate per
// (server, scope, protocol) key and renders options. The key deliberately
// excludes the port: when a server listens on two ports for the same scheme
// the better-ranked one wins.
func dedupeAndLabel(candidates []candidate) []ConnectionOption {
	seen := make(map[string]bool)
	var options []ConnectionOption
	for _, c := range candidates {
		key := c.serverID + "|" + c.scope() + "|" + c.protocol
		if seen[key] {
			continue
		}
		seen[key] = true
		options = append(options, ConnectionOption{
			Value: fmt.Sprintf("%s|%s|%d|%s", c.serverID, c.host, c.port, c.protocol),
			Label: fmt.Sprintf("%s — %s %s (%s:%d)",
				c.serverName, c.scope(), strings.ToUpper(c.protocol), c.host, c.port),
		})
	}
	return options
}

// ParseOptionValue decodes a ConnectionOption value back into its parts.
func ParseOptionValue(value string) (serverID, host string, port int, protocol string, err error) {
	parts := strings.Split(value, "|")
	if len(parts) != 4 {
		return "", "", 0, "", fmt.Errorf("malformed connection value %q", value)
	}
	port, err = strconv.Atoi(parts[2])
	if err != nil {
		return "", "", 0, "", fmt.Errorf("malformed port in connection value %q", value)
	}
	if parts[3] != "http" && parts[3] != "https" {
		return "", "", 0, "", fmt.Errorf("malformed protocol in connection value %q", value)
	}
	return parts[0], parts[1], port, parts[3], nil
}
