package dns_test

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanyejingyu/lettuce-core/pkg/lettuce/dns"
)

func TestSystemResolverLiteralAddress(t *testing.T) {
	r := dns.System()

	ips, err := r.Resolve(context.Background(), "127.0.0.1")
	require.NoError(t, err)
	require.Len(t, ips, 1)
	assert.True(t, ips[0].Equal(net.ParseIP("127.0.0.1")))

	ips, err = r.Resolve(context.Background(), "::1")
	require.NoError(t, err)
	require.Len(t, ips, 1)
	assert.True(t, ips[0].Equal(net.ParseIP("::1")))
}

func TestStaticResolver(t *testing.T) {
	r := dns.StaticResolver{
		"redis.internal": {net.ParseIP("10.0.0.1"), net.ParseIP("10.0.0.2")},
	}

	ips, err := r.Resolve(context.Background(), "redis.internal")
	require.NoError(t, err)
	assert.Len(t, ips, 2)

	_, err = r.Resolve(context.Background(), "unknown.internal")
	assert.Error(t, err)
}
