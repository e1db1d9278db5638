package geolib

import (
	"net"
	"strings"
)

// ValidAddress reports whether an address is worth sending to the
// providers. Loopback, private, link-local and unique-local addresses
// never have useful geolocation, as well as placeholder values some
// proxies put into their headers.
//
// The function is pure: no network, no cache, safe for concurrent use.
func ValidAddress(addr string) bool {
	addr = strings.TrimSpace(addr)

	switch strings.ToLower(addr) {
	case "", "unknown", "localhost":
		return false
	}

	if !strings.ContainsAny(addr, ".:") {
		return false
	}

	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}

	return usableIP(ip)
}

// usableIP filters out 10/8, 172.16/12, 192.168/16, fc00::/7
// (IsPrivate), 127/8 and ::1 (IsLoopback) and fe80::/10
// (IsLinkLocalUnicast).
func usableIP(ip net.IP) bool {
	switch {
	case ip.IsUnspecified(),
		ip.IsLoopback(),
		ip.IsPrivate(),
		ip.IsLinkLocalUnicast(),
		ip.IsLinkLocalMulticast():
		return false
	}

	return true
}
