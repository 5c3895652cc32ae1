package smtppool_test

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"

	"github.com/bitinho/mailscout/internal/smtppool"
)

// mockSMTPServer answers an SMTP dialog on one end of a net.Pipe.
func mockSMTPServer(server net.Conn, responses map[string]string) {
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

func pipeDialer(dialCount *int, responses map[string]string) func(context.Context, string, string) (net.Conn, error) {
	return func(ctx context.Context, network, address string) (net.Conn, error) {
		if dialCount != nil {
			*dialCount++
		}
		client, server := net.Pipe()
		go mockSMTPServer(server, responses)
		return client, nil
	}
}

var okResponses = map[string]string{
	"EHLO":      "250 OK",
	"RSET":      "250 OK",
	"MAIL FROM": "250 OK",
	"RCPT TO":   "250 OK",
}

func TestPool_NewSessionAndReuse(t *testing.T) {
	dialCount := 0
	pool := smtppool.New(smtppool.Config{
		HeloDomain: "scout.test",
		MailFrom:   "probe@scout.test",
		Dial:       pipeDialer(&dialCount, okResponses),
	})
	defer func() { _ = pool.Close() }()

	ctx := context.Background()

	code, _, err := pool.CheckRCPT(ctx, "mx.example.com", "user1@example.com")
	assert.NoError(t, err)
	assert.Equal(t, 250, code)
	assert.Equal(t, 1, dialCount)

	// Second probe reuses the session via RSET.
	code, _, err = pool.CheckRCPT(ctx, "mx.example.com", "user2@example.com")
	assert.NoError(t, err)
	assert.Equal(t, 250, code)
	assert.Equal(t, 1, dialCount)
}

func TestPool_DifferentHosts(t *testing.T) {
	dialCount := 0
	pool := smtppool.New(smtppool.Config{
		HeloDomain: "scout.test",
		MailFrom:   "probe@scout.test",
		Dial:       pipeDialer(&dialCount, okResponses),
	})
	defer func() { _ = pool.Close() }()

	ctx := context.Background()
	_, _, _ = pool.CheckRCPT(ctx, "mx1.example.com", "user@example.com")
	_, _, _ = pool.CheckRCPT(ctx, "mx2.example.com", "user@example.com")
	assert.Equal(t, 2, dialCount)
}

func TestPool_RejectedRCPT(t *testing.T) {
	pool := smtppool.New(smtppool.Config{
		HeloDomain: "scout.test",
		MailFrom:   "probe@scout.test",
		Dial: pipeDialer(nil, map[string]string{
			"EHLO":      "250 OK",
			"MAIL FROM": "250 OK",
			"RCPT TO":   "550 User not found",
		}),
	})
	defer func() { _ = pool.Close() }()

	code, msg, err := pool.CheckRCPT(context.Background(), "mx.example.com", "nobody@example.com")
	assert.NoError(t, err)
	assert.Equal(t, 550, code)
	assert.Contains(t, msg, "User not found")
}

func TestPool_ConnectionError(t *testing.T) {
	pool := smtppool.New(smtppool.Config{
		HeloDomain: "scout.test",
		MailFrom:   "probe@scout.test",
		Dial: func(ctx context.Context, network, address string) (net.Conn, error) {
			return nil, fmt.Errorf("connection refused")
		},
	})
	defer func() { _ = pool.Close() }()

	_, _, err := pool.CheckRCPT(context.Background(), "mx.example.com", "user@example.com")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestPool_CloseRejectsFurtherProbes(t *testing.T) {
	pool := smtppool.New(smtppool.Config{
		HeloDomain: "scout.test",
		MailFrom:   "probe@scout.test",
		Dial:       pipeDialer(nil, okResponses),
	})
	_ = pool.Close()

	_, _, err := pool.CheckRCPT(context.Background(), "mx.example.com", "user@example.com")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "closed")
}

func TestPool_LimiterHonorsCancelledContext(t *testing.T) {
	// A zero-rate limiter never grants, so the dial must fail once the
	// context is cancelled rather than block forever.
	pool := smtppool.New(smtppool.Config{
		HeloDomain: "scout.test",
		MailFrom:   "probe@scout.test",
		Limiter:    rate.NewLimiter(rate.Limit(0), 0),
		Dial:       pipeDialer(nil, okResponses),
	})
	defer func() { _ = pool.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, _, err := pool.CheckRCPT(ctx, "mx.example.com", "user@example.com")
	assert.Error(t, err)
}

func TestPool_MailFromRejectIsError(t *testing.T) {
	// A rejected MAIL FROM never reached RCPT TO, so it must surface as
	// an error carrying the server text, not as a recipient answer.
	pool := smtppool.New(smtppool.Config{
		HeloDomain: "scout.test",
		MailFrom:   "probe@scout.test",
		Dial: pipeDialer(nil, map[string]string{
			"EHLO":      "250 OK",
			"MAIL FROM": "554 5.7.1 Service unavailable; client blocked using Spamhaus",
		}),
	})
	defer func() { _ = pool.Close() }()

	code, _, err := pool.CheckRCPT(context.Background(), "mx.example.com", "user@example.com")
	assert.Error(t, err)
	assert.Equal(t, 0, code)
	assert.Contains(t, err.Error(), "Spamhaus")
}
