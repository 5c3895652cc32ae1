// Package probe performs one recipient-acceptance handshake against one
// mail host and classifies the outcome.
package probe

import (
	"context"
	"fmt"

	"github.com/bitinho/mailscout/internal/smtppool"
	"github.com/bitinho/mailscout/types"
)

// LightModeReason is reported when the probe is skipped in light mode.
const LightModeReason = "MX OK (light mode)"

// Prober probes addresses through a shared SMTP session pool.
type Prober struct {
	pool  *smtppool.Pool
	light bool
}

// New creates a prober. In light mode the SMTP exchange is skipped
// entirely and every probe reports accepted; the pool may then be nil.
func New(pool *smtppool.Pool, light bool) *Prober {
	return &Prober{pool: pool, light: light}
}

// Light reports whether the prober runs in light mode.
func (p *Prober) Light() bool {
	return p.light
}

// Probe runs the RCPT handshake for email against one host.
//
// A definitive RCPT response code makes the outcome conclusive for this
// host, accepted only for 250/251. Transport and protocol failures are
// inconclusive: the caller may still try other hosts.
func (p *Prober) Probe(ctx context.Context, host, email string) types.ProbeOutcome {
	if p.light {
		return types.ProbeOutcome{Accepted: true, Reason: LightModeReason, Conclusive: true}
	}

	code, _, err := p.pool.CheckRCPT(ctx, host, email)
	if err != nil {
		return types.ProbeOutcome{
			Reason: fmt.Sprintf("%s: %s", host, shortError(err.Error())),
		}
	}

	return types.ProbeOutcome{
		Accepted:   code == 250 || code == 251,
		Reason:     fmt.Sprintf("%s: RCPT %d", host, code),
		Conclusive: true,
	}
}
