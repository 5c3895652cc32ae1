package mailscout

import (
	"context"
	"net"
	"time"

	"golang.org/x/time/rate"

	"github.com/bitinho/mailscout/localpart"
	"github.com/bitinho/mailscout/metrics"
)

// Options configures a Finder. The zero value is usable; every field has
// a working default.
type Options struct {
	// Concurrency bounds the number of simultaneous in-flight probes.
	// Default: 10
	Concurrency int

	// LightMode skips the SMTP exchange entirely and reports every
	// syntactically valid address as accepted ("MX OK (light mode)").
	// Meant for operators whose sending IP is suspected of being
	// blocklisted: only syntax and MX presence are checked.
	LightMode bool

	// CandidateLimit caps the generated candidate list.
	// Default: localpart.DefaultLimit (1000)
	CandidateLimit int

	// HeloDomain is the identity sent in the EHLO command.
	// Default: "mailscout.local"
	HeloDomain string

	// MailFrom is the sender declared in the MAIL FROM command.
	// Default: "verify@mailscout.local"
	MailFrom string

	// Nameservers (host:port) override the public resolvers used for MX
	// lookups. Default: 8.8.8.8:53 and 8.8.4.4:53
	Nameservers []string

	// DNSTimeout bounds one MX lookup. Default: 6s
	DNSTimeout time.Duration

	// ConnectTimeout bounds one SMTP dial. Default: 9s
	ConnectTimeout time.Duration

	// CommandTimeout bounds one SMTP exchange. Default: 9s
	CommandTimeout time.Duration

	// Port is the SMTP port probed. Default: "25"
	Port string

	// ProbeRate, when positive, paces outbound dials to this many per
	// second. Default: 0 (unpaced)
	ProbeRate float64

	// TypoThreshold is the edit distance for the domain typo advisory.
	// Default: check.DefaultTypoThreshold (2)
	TypoThreshold int

	// Metrics, when set, receives probe and validation counters.
	Metrics *metrics.Metrics

	// LookupMX overrides MX resolution. Meant for tests.
	LookupMX func(ctx context.Context, domain string) ([]*net.MX, error)

	// DialSMTP overrides the SMTP dialer. Meant for tests.
	DialSMTP func(ctx context.Context, network, address string) (net.Conn, error)
}

func (o Options) withDefaults() Options {
	if o.Concurrency <= 0 {
		o.Concurrency = 10
	}
	if o.CandidateLimit <= 0 {
		o.CandidateLimit = localpart.DefaultLimit
	}
	if o.HeloDomain == "" {
		o.HeloDomain = "mailscout.local"
	}
	if o.MailFrom == "" {
		o.MailFrom = "verify@" + o.HeloDomain
	}
	if o.DNSTimeout <= 0 {
		o.DNSTimeout = 6 * time.Second
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 9 * time.Second
	}
	if o.CommandTimeout <= 0 {
		o.CommandTimeout = 9 * time.Second
	}
	if o.Port == "" {
		o.Port = "25"
	}
	return o
}

// limiter builds the outbound pacer, or nil when unpaced.
func (o Options) limiter() *rate.Limiter {
	if o.ProbeRate <= 0 {
		return nil
	}
	burst := int(o.ProbeRate)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(o.ProbeRate), burst)
}
