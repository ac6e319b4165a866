package dns

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/miekg/dns"
)

// ErrNoSuchHost is returned when a server answers NXDOMAIN
var ErrNoSuchHost = errors.New("no such host")

// Resolver implements service.DNSResolver
type Resolver struct {
	servers []string
	timeout time.Duration
	client  *dns.Client
}

// Config holds DNS resolver configuration
type Config struct {
	Servers []string
	Timeout time.Duration
}

// NewResolver creates a new DNS resolver
func NewResolver(config Config) *Resolver {
	if len(config.Servers) == 0 {
		config.Servers = []string{
			"8.8.8.8:53",
			"8.8.4.4:53",
			"1.1.1.1:53",
			"1.0.0.1:53",
		}
	}
	if config.Timeout <= 0 {
		config.Timeout = 3 * time.Second
	}

	return &Resolver{
		servers: config.Servers,
		timeout: config.Timeout,
		client: &dns.Client{
			Timeout: config.Timeout,
		},
	}
}

// Resolve returns the A records of domain. NXDOMAIN maps to ErrNoSuchHost.
func (r *Resolver) Resolve(ctx context.Context, domain string) ([]string, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(domain), dns.TypeA)
	msg.RecursionDesired = true

	var lastErr error
	var response *dns.Msg

	// Try each DNS server
	for _, server := range r.servers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		queryCtx, cancel := context.WithTimeout(ctx, r.timeout)
		resp, _, err := r.client.ExchangeContext(queryCtx, msg, server)
		cancel()

		if err == nil && resp != nil {
			response = resp
			break
		}
		lastErr = err
	}

	if response == nil {
		if lastErr == nil {
			lastErr = errors.New("no response from any DNS server")
		}
		return nil, fmt.Errorf("resolve %s: %w", domain, lastErr)
	}

	switch response.Rcode {
	case dns.RcodeSuccess:
	case dns.RcodeNameError:
		return nil, fmt.Errorf("resolve %s: %w", domain, ErrNoSuchHost)
	default:
		return nil, fmt.Errorf("resolve %s: %s", domain, dns.RcodeToString[response.Rcode])
	}

	var ips []string
	for _, answer := range response.Answer {
		if a, ok := answer.(*dns.A); ok {
			ips = append(ips, a.A.String())
		}
	}
	return ips, nil
}
