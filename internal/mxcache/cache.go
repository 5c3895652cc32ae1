// Package mxcache resolves a domain's mail exchangers through a fixed
// public resolver and caches the ordered result for the lifetime of the
// cache instance. Concurrent first lookups for the same domain are
// collapsed into one DNS query.
package mxcache

import (
	"context"
	"errors"
	"net"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bitinho/mailscout/types"
)

// ErrNoMX is returned when a domain resolves but has no MX records.
var ErrNoMX = errors.New("mxcache: domain has no MX records")

// DefaultNameservers are the public resolvers queried instead of the host
// OS configuration, so local misconfiguration or firewalling does not skew
// results.
var DefaultNameservers = []string{"8.8.8.8:53", "8.8.4.4:53"}

// DefaultTimeout bounds one MX lookup.
const DefaultTimeout = 6 * time.Second

// Config configures the resolver behind the cache.
type Config struct {
	// Nameservers in host:port form. Default: DefaultNameservers.
	Nameservers []string
	// Timeout for one lookup. Default: DefaultTimeout.
	Timeout time.Duration
}

// Resolver is the MX lookup dependency, injectable for testing.
type Resolver interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, name string) ([]*net.MX, error)

func (f ResolverFunc) LookupMX(ctx context.Context, name string) ([]*net.MX, error) {
	return f(ctx, name)
}

// Cache caches MX sets per domain for its own lifetime. There is no TTL
// or refresh: a fresh cache must be created for a fresh lookup.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]*entry
	timeout  time.Duration
	resolver Resolver
}

type entry struct {
	hosts []types.MailHost
	err   error
	done  chan struct{} // closed when the lookup completes
}

// New creates a cache resolving through the configured public nameservers
// (Go's built-in resolver, not the host OS one).
func New(cfg Config) *Cache {
	if len(cfg.Nameservers) == 0 {
		cfg.Nameservers = DefaultNameservers
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	nameservers := cfg.Nameservers
	dialer := &net.Dialer{Timeout: cfg.Timeout}
	r := &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, network, _ string) (net.Conn, error) {
			var lastErr error
			for _, ns := range nameservers {
				conn, err := dialer.DialContext(ctx, network, ns)
				if err == nil {
					return conn, nil
				}
				lastErr = err
			}
			return nil, lastErr
		},
	}

	return &Cache{
		entries:  make(map[string]*entry),
		timeout:  cfg.Timeout,
		resolver: r,
	}
}

// NewWithResolver creates a cache with a custom resolver (for testing).
func NewWithResolver(cfg Config, r Resolver) *Cache {
	c := New(cfg)
	c.resolver = r
	return c
}

// Hosts returns the domain's mail exchangers ordered by ascending
// preference (ties keep resolver order). The first successful result is
// cached for the cache's lifetime; failures are not cached, so a later
// call retries.
func (c *Cache) Hosts(ctx context.Context, domain string) ([]types.MailHost, error) {
	c.mu.Lock()

	if e, ok := c.entries[domain]; ok {
		c.mu.Unlock()
		select {
		case <-e.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return copyHosts(e.hosts), e.err
	}

	e := &entry{done: make(chan struct{})}
	c.entries[domain] = e
	c.mu.Unlock()

	lookupCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	e.hosts, e.err = c.lookup(lookupCtx, domain)
	close(e.done)

	if e.err != nil {
		// Only successful lookups stay cached.
		c.mu.Lock()
		if c.entries[domain] == e {
			delete(c.entries, domain)
		}
		c.mu.Unlock()
	}

	return copyHosts(e.hosts), e.err
}

func (c *Cache) lookup(ctx context.Context, domain string) ([]types.MailHost, error) {
	records, err := c.resolver.LookupMX(ctx, domain)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNoMX
	}

	hosts := make([]types.MailHost, 0, len(records))
	for _, r := range records {
		host := strings.TrimSuffix(r.Host, ".")
		if host == "" {
			continue
		}
		hosts = append(hosts, types.MailHost{Host: host, Pref: r.Pref})
	}
	if len(hosts) == 0 {
		return nil, ErrNoMX
	}

	sort.SliceStable(hosts, func(i, j int) bool {
		return hosts[i].Pref < hosts[j].Pref
	})
	return hosts, nil
}

// copyHosts keeps callers from mutating the cached slice.
func copyHosts(hosts []types.MailHost) []types.MailHost {
	if hosts == nil {
		return nil
	}
	out := make([]types.MailHost, len(hosts))
	copy(out, hosts)
	return out
}
