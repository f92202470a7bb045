// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package deploy

import (
	"net"
	"os"
)

// ExternalIPv4 returns an IPv4 address of this host that a remote peer can
// reach. The first interface address outside 127.0.0.0/8 wins. If none
// qualifies the address the local host name resolves to is used.
func ExternalIPv4() (net.IP, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, err
	}
	if ip := firstExternalIPv4(addrs); ip != nil {
		return ip, nil
	}
	return localHostIPv4()
}

func firstExternalIPv4(addrs []net.Addr) net.IP {
	for _, addr := range addrs {
		var ip net.IP
		switch v := addr.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		ip4 := ip.To4()
		if ip4 == nil || ip4[0] == 127 {
			continue
		}
		return ip4
	}
	return nil
}

func localHostIPv4() (net.IP, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, err
	}
	ips, err := net.LookupIP(host)
	if err != nil {
		return nil, err
	}
	for _, ip := range ips {
		if ip4 := ip.To4(); ip4 != nil {
			return ip4, nil
		}
	}
	return net.IPv4(127, 0, 0, 1).To4(), nil
}
