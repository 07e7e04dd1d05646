package netaddr

import (
	"net"

	"github.com/pkg/errors"
)

// to allow testing
var interfaceAddrs = net.InterfaceAddrs

// FirstIPv4 returns the first non-loopback IPv4 address of the local host.
func FirstIPv4() (net.IP, error) {
	addrs, err := interfaceAddrs()
	if err != nil {
		return nil, errors.Wrap(err, "unable to list interface addresses")
	}
	return firstIPv4(addrs)
}

func firstIPv4(addrs []net.Addr) (net.IP, error) {
	for _, addr := range addrs {
		var ip net.IP
		switch v := addr.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if ip == nil || ip.IsLoopback() {
			continue
		}
		if ip4 := ip.To4(); ip4 != nil {
			return ip4, nil
		}
	}
	return nil, errors.New("no non-loopback IPv4 address found")
}
