// Package dns defines the name-resolution capability the client resources
// hold a reference to. The resources bundle never resolves names itself.
package dns

import (
	"context"
	"fmt"
	"net"
)

// Resolver resolves a hostname to network addresses.
type Resolver interface {
	Resolve(ctx context.Context, host string) ([]net.IP, error)
}

// SystemResolver resolves through the operating system resolver.
type SystemResolver struct {
	r *net.Resolver
}

// Compile-time interface check.
var _ Resolver = (*SystemResolver)(nil)

// System returns a resolver backed by net.DefaultResolver.
func System() *SystemResolver {
	return &SystemResolver{r: net.DefaultResolver}
}

// Resolve returns the addresses for host. Literal IP addresses are
// returned as-is without a lookup.
func (s *SystemResolver) Resolve(ctx context.Context, host string) ([]net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		return []net.IP{ip}, nil
	}

	addrs, err := s.r.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", host, err)
	}

	ips := make([]net.IP, 0, len(addrs))
	for _, a := range addrs {
		ips = append(ips, a.IP)
	}
	return ips, nil
}

// StaticResolver serves fixed answers, for tests and air-gapped setups.
type StaticResolver map[string][]net.IP

// Compile-time interface check.
var _ Resolver = StaticResolver(nil)

// Resolve returns the configured addresses for host.
func (s StaticResolver) Resolve(_ context.Context, host string) ([]net.IP, error) {
	ips, ok := s[host]
	if !ok {
		return nil, fmt.Errorf("resolve %s: no static entry", host)
	}
	return ips, nil
}
