// Package noderesolver discovers registry API endpoints of IoT nodes through
// DNS SRV records. A node operating at example.com publishes its endpoints
// under _fides-registry._tcp.example.com.
package noderesolver

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/miekg/dns"

	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/interfaces"
)

// ServiceName is the SRV service prefix under which nodes publish their
// registry endpoints.
const ServiceName = "_fides-registry._tcp"

// DefaultResolverAddr is the systemd-resolved stub listener.
const DefaultResolverAddr = "127.0.0.53:53"

// Resolver queries DNS for node registry endpoints.
type Resolver struct {
	resolverAddr string
	exchange     func(msg *dns.Msg, addr string) (*dns.Msg, error)
}

// New creates a resolver querying the given DNS server address. An empty
// address selects DefaultResolverAddr.
func New(resolverAddr string) *Resolver {
	if resolverAddr == "" {
		resolverAddr = DefaultResolverAddr
	}

	client := new(dns.Client)
	return &Resolver{
		resolverAddr: resolverAddr,
		exchange: func(msg *dns.Msg, addr string) (*dns.Msg, error) {
			in, _, err := client.Exchange(msg, addr)
			return in, err
		},
	}
}

// RegistryEndpoints resolves a node domain to its registry API endpoints as
// host:port strings, ordered by SRV priority then descending weight.
func (r *Resolver) RegistryEndpoints(domain interfaces.NodeDomainName) ([]string, error) {
	msg := new(dns.Msg)
	msg.Id = dns.Id()
	msg.RecursionDesired = true
	msg.Question = []dns.Question{{
		Name:   dns.Fqdn(ServiceName + "." + domain.String()),
		Qtype:  dns.TypeSRV,
		Qclass: dns.ClassINET,
	}}

	in, err := r.exchange(msg, r.resolverAddr)
	if err != nil {
		return nil, fmt.Errorf("SRV lookup for %s failed: %w", domain, err)
	}

	records := make([]*dns.SRV, 0, len(in.Answer))
	for _, answer := range in.Answer {
		if srv, ok := answer.(*dns.SRV); ok {
			records = append(records, srv)
		}
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no registry endpoints published for %s", domain)
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Priority != records[j].Priority {
			return records[i].Priority < records[j].Priority
		}
		return records[i].Weight > records[j].Weight
	})

	endpoints := make([]string, 0, len(records))
	for _, srv := range records {
		host := strings.TrimSuffix(srv.Target, ".")
		endpoints = append(endpoints, host+":"+strconv.Itoa(int(srv.Port)))
	}

	return endpoints, nil
}
