package mailscout

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/bitinho/mailscout/check"
	"github.com/bitinho/mailscout/internal/mxcache"
	"github.com/bitinho/mailscout/internal/parse"
	"github.com/bitinho/mailscout/internal/smtppool"
	"github.com/bitinho/mailscout/localpart"
	"github.com/bitinho/mailscout/probe"
	"github.com/bitinho/mailscout/types"
)

// Finder infers working addresses at one domain. It exclusively owns the
// domain's MX cache and catch-all state for its lifetime; create a fresh
// Finder for a fresh lookup. Call Close when done to release pooled SMTP
// sessions.
type Finder struct {
	domain        string // ASCII form, used for DNS and SMTP
	domainUnicode string
	opts          Options

	mx     *mxcache.Cache
	pool   *smtppool.Pool
	prober *probe.Prober
	gate   *semaphore.Weighted

	catchAllMu sync.Mutex
	catchAll   types.CatchAll
}

// New creates a Finder for the given domain. The domain's MX set is
// resolved upfront so an unreachable or mail-less domain is rejected
// before any candidate is probed; this holds in light mode too.
func New(ctx context.Context, domain string, opts Options) (*Finder, error) {
	if domain == "" {
		return nil, ErrEmptyDomain
	}

	ascii, unicode, ok := parse.Domain(domain)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDomain, domain)
	}
	if err := check.Syntax(parse.NewEmail("probe@" + ascii)); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDomain, domain)
	}

	opts = opts.withDefaults()

	mxCfg := mxcache.Config{
		Nameservers: opts.Nameservers,
		Timeout:     opts.DNSTimeout,
	}
	mx := mxcache.New(mxCfg)
	if opts.LookupMX != nil {
		mx = mxcache.NewWithResolver(mxCfg, mxcache.ResolverFunc(opts.LookupMX))
	}

	f := &Finder{
		domain:        ascii,
		domainUnicode: unicode,
		opts:          opts,
		mx:            mx,
		gate:          semaphore.NewWeighted(int64(opts.Concurrency)),
		catchAll:      types.CatchAllUnknown,
	}

	if _, err := f.mx.Hosts(ctx, ascii); err != nil {
		return nil, fmt.Errorf("resolve MX for %s: %w", domain, err)
	}

	if !opts.LightMode {
		f.pool = smtppool.New(smtppool.Config{
			HeloDomain:     opts.HeloDomain,
			MailFrom:       opts.MailFrom,
			ConnectTimeout: opts.ConnectTimeout,
			CommandTimeout: opts.CommandTimeout,
			Port:           opts.Port,
			Limiter:        opts.limiter(),
			Dial:           opts.DialSMTP,
		})
	}
	f.prober = probe.New(f.pool, opts.LightMode)

	return f, nil
}

// Close releases pooled SMTP sessions. Safe to call multiple times.
func (f *Finder) Close() error {
	if f.pool != nil {
		return f.pool.Close()
	}
	return nil
}

// Domain returns the target domain in ASCII form.
func (f *Finder) Domain() string {
	return f.domain
}

// Hosts returns the domain's mail exchangers in probing order.
func (f *Finder) Hosts(ctx context.Context) ([]types.MailHost, error) {
	return f.mx.Hosts(ctx, f.domain)
}

// Advisory reports disposable/typo information about the target domain.
func (f *Finder) Advisory() check.DomainAdvisory {
	return check.Domain(f.domain, f.domainUnicode, f.opts.TypoThreshold)
}

// Validate checks one address: format first, then the SMTP
// recipient-acceptance handshake against the domain's mail exchangers in
// priority order. The first accepting host wins immediately; when no host
// accepts, the last host's outcome is kept, because later exchangers are
// deliberately tried as fallback and the final attempt best reflects the
// definitive remote state.
//
// Validate never fails hard: every problem becomes a ValidationResult
// with Accepted=false and a reason.
func (f *Finder) Validate(ctx context.Context, email string) types.ValidationResult {
	e := parse.NewEmail(email)
	if err := check.Syntax(e); err != nil {
		f.opts.Metrics.ObserveValidation(false)
		return types.ValidationResult{Email: e.Raw, Reason: "invalid syntax"}
	}

	if f.prober.Light() {
		out := f.prober.Probe(ctx, "", e.Raw)
		f.opts.Metrics.ObserveValidation(out.Accepted)
		return types.ValidationResult{Email: e.Raw, Accepted: out.Accepted, Reason: out.Reason}
	}

	// The gate is held for the whole network portion and released on
	// every exit path.
	if err := f.gate.Acquire(ctx, 1); err != nil {
		f.opts.Metrics.ObserveValidation(false)
		return types.ValidationResult{Email: e.Raw, Reason: "cancelled"}
	}
	defer f.gate.Release(1)

	hosts, err := f.mx.Hosts(ctx, f.domain)
	if err != nil {
		f.opts.Metrics.ObserveValidation(false)
		return types.ValidationResult{Email: e.Raw, Reason: fmt.Sprintf("MX lookup failed: %v", err)}
	}

	last := types.ProbeOutcome{Reason: "no mail host answered"}
	for _, h := range hosts {
		select {
		case <-ctx.Done():
			f.opts.Metrics.ObserveValidation(false)
			return types.ValidationResult{Email: e.Raw, Reason: "cancelled"}
		default:
		}

		out := f.prober.Probe(ctx, h.Host, e.Raw)
		if !out.Conclusive {
			f.opts.Metrics.ObserveProbeError()
		}
		last = out
		if out.Accepted {
			break
		}
	}

	f.opts.Metrics.ObserveValidation(last.Accepted)
	return types.ValidationResult{Email: e.Raw, Accepted: last.Accepted, Reason: last.Reason}
}

// IsCatchAll reports whether the domain accepts any local-part. The
// answer is computed at most once per Finder, by probing one random
// never-assigned local-part; concurrent first callers collapse into that
// single probe. Light mode always reports false without probing.
func (f *Finder) IsCatchAll(ctx context.Context) bool {
	if f.prober.Light() {
		return false
	}

	f.catchAllMu.Lock()
	defer f.catchAllMu.Unlock()

	if f.catchAll != types.CatchAllUnknown {
		return f.catchAll == types.CatchAllYes
	}

	res := f.Validate(ctx, randomLocal(12)+"@"+f.domain)
	if res.Accepted {
		f.catchAll = types.CatchAllYes
		f.opts.Metrics.ObserveCatchAll()
	} else {
		f.catchAll = types.CatchAllNo
	}
	return res.Accepted
}

// Find generates candidates for the name, validates them concurrently
// under the probe gate and aggregates the outcome. Confirmed addresses
// keep generation order regardless of probe completion order. The only
// error returned is the context's, when the run is abandoned.
func (f *Finder) Find(ctx context.Context, name Name) (Report, error) {
	locals := localpart.Generate(name.First, name.Middle, name.Last, name.Extras, f.opts.CandidateLimit)

	results := make([]types.ValidationResult, len(locals))
	var wg sync.WaitGroup
	for i, lp := range locals {
		wg.Add(1)
		go func(i int, email string) {
			defer wg.Done()
			results[i] = f.Validate(ctx, email)
		}(i, lp+"@"+f.domain)
	}
	wg.Wait()

	report := Report{
		Domain:      f.domain,
		Confirmed:   []string{},
		TotalTested: len(locals),
		Advisory:    f.Advisory(),
		Results:     results,
	}
	for _, res := range results {
		if res.Accepted {
			report.Confirmed = append(report.Confirmed, res.Email)
		}
	}

	if err := ctx.Err(); err != nil {
		return report, err
	}

	report.CatchAll = f.IsCatchAll(ctx)
	f.opts.Metrics.ObserveFindRun()
	return report, nil
}

const localAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// randomLocal builds a local-part no real directory would contain.
func randomLocal(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = localAlphabet[rand.Intn(len(localAlphabet))]
	}
	return string(b)
}
