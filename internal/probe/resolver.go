package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// Resolver looks up the address and canonical name of a candidate.
type Resolver interface {
	LookupIPv4(ctx context.Context, host string) (string, error)
	LookupCNAME(ctx context.Context, host string) (string, error)
}

var errNoAddress = errors.New("no IPv4 address")

// SystemResolver uses the host's resolver configuration.
type SystemResolver struct {
	Resolver *net.Resolver
	Timeout  time.Duration
}

func (r SystemResolver) resolver() *net.Resolver {
	if r.Resolver != nil {
		return r.Resolver
	}
	return net.DefaultResolver
}

func (r SystemResolver) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.Timeout > 0 {
		return context.WithTimeout(ctx, r.Timeout)
	}
	return ctx, func() {}
}

func (r SystemResolver) LookupIPv4(ctx context.Context, host string) (string, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	ips, err := r.resolver().LookupIP(ctx, "ip4", host)
	if err != nil {
		return "", err
	}
	if len(ips) == 0 {
		return "", errNoAddress
	}
	return ips[0].String(), nil
}

func (r SystemResolver) LookupCNAME(ctx context.Context, host string) (string, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	cname, err := r.resolver().LookupCNAME(ctx, host)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(cname, "."), nil
}

// DNSResolver queries the given servers directly, in order, until one
// answers.
type DNSResolver struct {
	servers []string
	client  *dns.Client
}

func NewDNSResolver(servers []string, timeout time.Duration) *DNSResolver {
	norm := make([]string, 0, len(servers))
	for _, s := range servers {
		if _, _, err := net.SplitHostPort(s); err != nil {
			s = net.JoinHostPort(s, "53")
		}
		norm = append(norm, s)
	}
	return &DNSResolver{servers: norm, client: &dns.Client{Timeout: timeout}}
}

func (r *DNSResolver) query(ctx context.Context, host string, qtype uint16) (*dns.Msg, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(host), qtype)
	msg.RecursionDesired = true

	var lastErr error
	for _, srv := range r.servers {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		resp, _, err := r.client.ExchangeContext(ctx, msg, srv)
		if err == nil && resp != nil {
			if resp.Rcode == dns.RcodeSuccess {
				return resp, nil
			}
			lastErr = fmt.Errorf("rcode %s", dns.RcodeToString[resp.Rcode])
			continue
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("no dns servers configured")
	}
	return nil, lastErr
}

func (r *DNSResolver) LookupIPv4(ctx context.Context, host string) (string, error) {
	msg, err := r.query(ctx, host, dns.TypeA)
	if err != nil {
		return "", err
	}
	for _, rr := range msg.Answer {
		if a, ok := rr.(*dns.A); ok {
			return a.A.String(), nil
		}
	}
	return "", errNoAddress
}

// LookupCNAME follows the CNAME chain in the A answer and returns its end,
// or host itself when there is no alias.
func (r *DNSResolver) LookupCNAME(ctx context.Context, host string) (string, error) {
	msg, err := r.query(ctx, host, dns.TypeA)
	if err != nil {
		return "", err
	}
	if len(msg.Answer) == 0 {
		return "", errNoAddress
	}
	name := dns.Fqdn(host)
	for hops := 0; hops < 8; hops++ {
		next := ""
		for _, rr := range msg.Answer {
			if c, ok := rr.(*dns.CNAME); ok && strings.EqualFold(c.Hdr.Name, name) {
				next = c.Target
				break
			}
		}
		if next == "" {
			break
		}
		name = next
	}
	return strings.TrimSuffix(name, "."), nil
}
