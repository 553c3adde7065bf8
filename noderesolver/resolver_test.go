package noderesolver

import (
	"errors"
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func srvRecord(target string, port, priority, weight uint16) *dns.SRV {
	return &dns.SRV{
		Hdr:      dns.RR_Header{Name: ServiceName + ".zksensor.tech.", Rrtype: dns.TypeSRV, Class: dns.ClassINET},
		Priority: priority,
		Weight:   weight,
		Port:     port,
		Target:   target,
	}
}

func TestRegistryEndpoints(t *testing.T) {
	r := New("")
	r.exchange = func(msg *dns.Msg, addr string) (*dns.Msg, error) {
		require.Len(t, msg.Question, 1)
		assert.Equal(t, "_fides-registry._tcp.zksensor.tech.", msg.Question[0].Name)
		assert.Equal(t, uint16(dns.TypeSRV), msg.Question[0].Qtype)
		assert.Equal(t, DefaultResolverAddr, addr)

		reply := new(dns.Msg)
		reply.SetReply(msg)
		reply.Answer = []dns.RR{
			srvRecord("backup.zksensor.tech.", 8080, 10, 5),
			srvRecord("primary.zksensor.tech.", 8080, 0, 10),
			srvRecord("secondary.zksensor.tech.", 9090, 0, 5),
		}
		return reply, nil
	}

	endpoints, err := r.RegistryEndpoints("zksensor.tech")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"primary.zksensor.tech:8080",
		"secondary.zksensor.tech:9090",
		"backup.zksensor.tech:8080",
	}, endpoints)
}

func TestRegistryEndpointsEmpty(t *testing.T) {
	r := New("")
	r.exchange = func(msg *dns.Msg, addr string) (*dns.Msg, error) {
		reply := new(dns.Msg)
		reply.SetReply(msg)
		return reply, nil
	}

	_, err := r.RegistryEndpoints("zksensor.tech")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no registry endpoints")
}

func TestRegistryEndpointsExchangeError(t *testing.T) {
	r := New("10.0.0.1:53")
	r.exchange = func(msg *dns.Msg, addr string) (*dns.Msg, error) {
		assert.Equal(t, "10.0.0.1:53", addr)
		return nil, errors.New("i/o timeout")
	}

	_, err := r.RegistryEndpoints("zksensor.tech")
	require.Error(t, err)
}
