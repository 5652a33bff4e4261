// Package plex holds the domain core of the Plex integration: connection
// records, catalog records, network address classification and stream URL
// construction.
package plex

import (
	"net"
	"strings"
)

// Address blocks that show up in plex.tv connection listings but almost
// never are the host a user wants: loopback, link-local and the
// virtualization bridge range Docker and friends hand out.
var noisyBlocks = []net.IPNet{
	{IP: net.IPv4(127, 0, 0, 0).To4(), Mask: net.CIDRMask(8, 32)},
	{IP: net.IPv4(169, 254, 0, 0).To4(), Mask: net.CIDRMask(16, 32)},
	{IP: net.IPv4(172, 16, 0, 0).To4(), Mask: net.CIDRMask(12, 32)},
}

// Host preference scores. Lower sorts first. 192.168/16 hosts score by
// their third octet instead, so a router-assigned 192.168.1.x beats the
// 192.168.64.x a VM bridge invented.
const (
	scorePrivate10 = 300
	scoreSymbolic  = 400
)

// IsNoisyAddress reports whether host is a loopback, link-local or
// virtualization-bridge address. Hostnames that embed an IPv4 address in
// dash form before the first dot (the plex.direct convention,
// "10-0-0-5.example.plex.direct") are decoded and re-checked, so a bridge
// address cannot hide inside a hostname.
func IsNoisyAddress(host string) bool {
	ip := net.ParseIP(host)
	if ip == nil {
		if decoded, ok := DecodeDashedHost(host); ok {
			return IsNoisyAddress(decoded)
		}
		return false
	}
	v4 := ip.To4()
	if v4 == nil {
		return ip.IsLoopback() || ip.IsLinkLocalUnicast()
	}
	for _, block := range noisyBlocks {
		if block.Contains(v4) {
			return true
		}
	}
	return false
}

// DecodeDashedHost converts a hostname whose first label dash-encodes an
// IPv4 address ("a-b-c-d.suffix") back to "a.b.c.d". Returns false when the
// first label is not exactly four numeric parts.
func DecodeDashedHost(host string) (string, bool) {
	label, _, found := strings.Cut(host, ".")
	if !found {
		return "", false
	}
	parts := strings.Split(label, "-")
	if len(parts) != 4 {
		return "", false
	}
	candidate := strings.Join(parts, ".")
	ip := net.ParseIP(candidate)
	if ip == nil || ip.To4() == nil {
		return "", false
	}
	return candidate, true
}

// ScoreHost assigns a sort preference to a candidate host, lower being more
// preferred. 192.168.0.0/16 addresses score by their third octet, 10.0.0.0/8
// addresses score a fixed 300, everything else (symbolic hostnames included)
// scores 400. Ties are for the caller's stable sort to break.
func ScoreHost(host string) int {
	ip := net.ParseIP(host)
	if ip == nil {
		return scoreSymbolic
	}
	v4 := ip.To4()
	if v4 == nil {
		return scoreSymbolic
	}
	if v4[0] == 192 && v4[1] == 168 {
		return int(v4[2])
	}
	if v4[0] == 10 {
		return scorePrivate10
	}
	return scoreSymbolic
}
