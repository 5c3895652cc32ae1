package probe_test

import (
	"context"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitinho/mailscout/internal/smtppool"
	"github.com/bitinho/mailscout/probe"
)

func smtpServer(server net.Conn, responses map[string]string) {
	defer func() { _ = server.Close() }()
	_, _ = fmt.Fprintf(server, "220 mock.smtp ESMTP\r\n")

	buf := make([]byte, 4096)
	for {
		n, err := server.Read(buf)
		if err != nil {
			return
		}
		cmd := string(buf[:n])
		for prefix, resp := range responses {
			if len(cmd) >= len(prefix) && cmd[:len(prefix)] == prefix {
				_, _ = fmt.Fprintf(server, "%s\r\n", resp)
				break
			}
		}
		if len(cmd) >= 4 && cmd[:4] == "QUIT" {
			_, _ = fmt.Fprintf(server, "221 Bye\r\n")
			return
		}
	}
}

func newProber(t *testing.T, responses map[string]string, dialErr error) *probe.Prober {
	t.Helper()
	pool := smtppool.New(smtppool.Config{
		HeloDomain: "scout.test",
		MailFrom:   "probe@scout.test",
		Dial: func(ctx context.Context, network, address string) (net.Conn, error) {
			if dialErr != nil {
				return nil, dialErr
			}
			client, server := net.Pipe()
			go smtpServer(server, responses)
			return client, nil
		},
	})
	t.Cleanup(func() { _ = pool.Close() })
	return probe.New(pool, false)
}

func TestProbe_Accepted(t *testing.T) {
	p := newProber(t, map[string]string{
		"EHLO": "250 OK", "MAIL FROM": "250 OK", "RCPT TO": "250 OK",
	}, nil)

	out := p.Probe(context.Background(), "mx.example.com", "ana@example.com")
	assert.True(t, out.Accepted)
	assert.True(t, out.Conclusive)
	assert.Equal(t, "mx.example.com: RCPT 250", out.Reason)
}

func TestProbe_Forwarded251IsAccepted(t *testing.T) {
	p := newProber(t, map[string]string{
		"EHLO": "250 OK", "MAIL FROM": "250 OK", "RCPT TO": "251 User not local; will forward",
	}, nil)

	out := p.Probe(context.Background(), "mx.example.com", "ana@example.com")
	assert.True(t, out.Accepted)
	assert.Equal(t, "mx.example.com: RCPT 251", out.Reason)
}

func TestProbe_DefinitiveRejectIsConclusive(t *testing.T) {
	p := newProber(t, map[string]string{
		"EHLO": "250 OK", "MAIL FROM": "250 OK", "RCPT TO": "550 No such user",
	}, nil)

	out := p.Probe(context.Background(), "mx.example.com", "ghost@example.com")
	assert.False(t, out.Accepted)
	assert.True(t, out.Conclusive)
	assert.Equal(t, "mx.example.com: RCPT 550", out.Reason)
}

func TestProbe_TransportErrorIsInconclusive(t *testing.T) {
	p := newProber(t, nil, fmt.Errorf("dial tcp: connection refused"))

	out := p.Probe(context.Background(), "mx.example.com", "ana@example.com")
	assert.False(t, out.Accepted)
	assert.False(t, out.Conclusive)
	assert.Equal(t, "mx.example.com: refused", out.Reason)
}

func TestProbe_BlocklistPhraseIsClassified(t *testing.T) {
	p := newProber(t, map[string]string{
		"EHLO": "554 5.7.1 client host blocked using Spamhaus",
	}, nil)

	out := p.Probe(context.Background(), "mx.example.com", "ana@example.com")
	assert.False(t, out.Accepted)
	assert.False(t, out.Conclusive)
	assert.Equal(t, "mx.example.com: blocklisted", out.Reason)
}

func TestProbe_MailFromBlocklistIsInconclusive(t *testing.T) {
	// The most common blocklist presentation: the session opens fine and
	// the 554 arrives at MAIL FROM. RCPT TO was never issued, so the
	// outcome must stay inconclusive and carry the blocklist label, not a
	// fabricated RCPT code.
	p := newProber(t, map[string]string{
		"EHLO":      "250 OK",
		"MAIL FROM": "554 5.7.1 Service unavailable; client blocked using Spamhaus",
	}, nil)

	out := p.Probe(context.Background(), "mx.example.com", "ana@example.com")
	assert.False(t, out.Accepted)
	assert.False(t, out.Conclusive)
	assert.Equal(t, "mx.example.com: blocklisted", out.Reason)
}

func TestProbe_LightMode(t *testing.T) {
	p := probe.New(nil, true)

	out := p.Probe(context.Background(), "mx.example.com", "ana@example.com")
	assert.True(t, out.Accepted)
	assert.Equal(t, "MX OK (light mode)", out.Reason)
}
