// Package identity derives the stable per-device terminal identifier.
package identity

import (
	"crypto/md5"
	"fmt"
	"net"
	"os"
	"strings"
)

// TerminalID derives a terminal identifier from the hostname and the primary
// non-loopback MAC address. The result is stable for a given machine and is
// persisted to config after first generation, so it never changes
// spontaneously even if interface ordering does.
func TerminalID() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	sum := md5.Sum([]byte(hostname + "-" + MACAddress()))
	return "T-" + strings.ToUpper(fmt.Sprintf("%x", sum)[:8])
}

// MACAddress returns the hardware address of the first non-loopback interface
// with a non-zero MAC, or "unknown" when none is found.
func MACAddress() string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "unknown"
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		mac := iface.HardwareAddr.String()
		if mac == "" || mac == "00:00:00:00:00:00" {
			continue
		}
		return mac
	}
	return "unknown"
}
