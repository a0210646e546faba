package clicks

import (
	"encoding/binary"
	"net"
	"strconv"
	"strings"
)

// ClientIP picks the client address: the first X-Forwarded-For entry, then
// X-Real-IP, then the transport peer address. A port is dropped from any of them.
func ClientIP(forwardedFor, realIP, remoteAddr string) string {
	if forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")

		return stripPort(strings.TrimSpace(first))
	}

	if realIP = strings.TrimSpace(realIP); realIP != "" {
		return stripPort(realIP)
	}

	return stripPort(remoteAddr)
}

// stripPort accepts "ip", "ip:port" and "[ipv6]:port".
func stripPort(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}

	return strings.TrimSuffix(strings.TrimPrefix(addr, "["), "]")
}

// Anonymize zeroes the last IPv4 octet or keeps the first four IPv6 groups,
// e.g. 2001:db8:85a3:0:0:0:0:1 becomes 2001:db8:85a3:0::. Only the anonymized
// form is ever persisted; anything that is not an address yields "".
func Anonymize(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ""
	}

	if v4 := parsed.To4(); v4 != nil {
		return v4.Mask(net.CIDRMask(24, 32)).String()
	}

	v6 := parsed.To16()
	groups := make([]string, 4)

	for i := range groups {
		groups[i] = strconv.FormatUint(uint64(binary.BigEndian.Uint16(v6[2*i:])), 16)
	}

	return strings.Join(groups, ":") + "::"
}

func isLoopback(ip string) bool {
	parsed := net.ParseIP(ip)

	return parsed != nil && parsed.IsLoopback()
}
