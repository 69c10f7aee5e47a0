// Package netutil discovers the public address of the host.
package netutil

import (
	"errors"
	"net"
)

// ErrNoPublicIP is returned when no interface carries a public address.
var ErrNoPublicIP = errors.New("no public ip address found")

// FindPublicIP returns the first globally routable, non-private address
// assigned to an interface of this host. IPv4 is preferred.
func FindPublicIP() (net.IP, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, err
	}
	return firstPublic(addrs)
}

func firstPublic(addrs []net.Addr) (net.IP, error) {
	var v6 net.IP
	for _, addr := range addrs {
		var ip net.IP
		switch a := addr.(type) {
		case *net.IPNet:
			ip = a.IP
		case *net.IPAddr:
			ip = a.IP
		default:
			continue
		}
		if !IsPublic(ip) {
			continue
		}
		if ip.To4() != nil {
			return ip, nil
		}
		if v6 == nil {
			v6 = ip
		}
	}
	if v6 != nil {
		return v6, nil
	}
	return nil, ErrNoPublicIP
}

// IsPublic reports whether ip is globally routable and not in a private range.
func IsPublic(ip net.IP) bool {
	if ip == nil {
		return false
	}
	return ip.IsGlobalUnicast() && !ip.IsPrivate()
}
