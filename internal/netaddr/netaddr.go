// Package netaddr lists the local interface addresses a sender can bind.
package netaddr

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"slices"
)

// ErrNoAddress means no interface has a usable address.
var ErrNoAddress = errors.New("no interface address")

// All returns the address of every interface. With sorted, IPv4 comes
// before IPv6 and each family is in ascending order.
func All(sorted bool) ([]netip.Addr, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, fmt.Errorf("get interface addresses: %w", err)
	}
	return fromNetAddrs(addrs, sorted), nil
}

func fromNetAddrs(addrs []net.Addr, sorted bool) []netip.Addr {
	out := make([]netip.Addr, 0, len(addrs))
	for _, a := range addrs {
		var ip net.IP
		switch v := a.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		default:
			continue
		}
		addr, ok := netip.AddrFromSlice(ip)
		if !ok {
			continue
		}
		out = append(out, addr.Unmap())
	}
	if sorted {
		slices.SortFunc(out, func(a, b netip.Addr) int { return a.Compare(b) })
	}
	return out
}

// Preferred picks the first address that is neither loopback nor
// link-local, falling back to the first address at all.
func Preferred(addrs []netip.Addr) (netip.Addr, error) {
	if len(addrs) == 0 {
		return netip.Addr{}, ErrNoAddress
	}
	for _, a := range addrs {
		if !a.IsLoopback() && !a.IsLinkLocalUnicast() && !a.IsUnspecified() {
			return a, nil
		}
	}
	return addrs[0], nil
}
