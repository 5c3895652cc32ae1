// Package smtppool manages SMTP sessions against mail exchangers for
// recipient-acceptance probing. Sessions are pooled per host and reused
// via RSET, since one finder run fires many probes at the same few MX
// hosts. TLS is negotiated opportunistically when the server advertises
// STARTTLS.
package smtppool

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config configures the SMTP session pool.
type Config struct {
	HeloDomain      string
	MailFrom        string
	ConnectTimeout  time.Duration
	CommandTimeout  time.Duration
	Port            string
	MaxConnsPerHost int           // max idle sessions per MX host (default: 3)
	MaxUsesPerConn  int           // max RCPT probes per session before reconnect (default: 100)
	MaxConnAge      time.Duration // max lifetime of a session (default: 5m)
	// Limiter, when set, paces new outbound dials.
	Limiter *rate.Limiter
	// Dial is injectable for testing. Defaults to a net.Dialer.
	Dial func(ctx context.Context, network, address string) (net.Conn, error)
}

// Pool manages SMTP sessions per MX host.
type Pool struct {
	cfg    Config
	mu     sync.Mutex
	hosts  map[string][]*session
	closed bool
}

type session struct {
	netConn   net.Conn
	reader    *bufio.Reader
	writer    *bufio.Writer
	createdAt time.Time
	uses      int
	tls       bool
}

// New creates a new SMTP session pool.
func New(cfg Config) *Pool {
	if cfg.Dial == nil {
		d := &net.Dialer{}
		cfg.Dial = d.DialContext
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 9 * time.Second
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = 9 * time.Second
	}
	if cfg.Port == "" {
		cfg.Port = "25"
	}
	if cfg.MaxConnsPerHost <= 0 {
		cfg.MaxConnsPerHost = 3
	}
	if cfg.MaxUsesPerConn <= 0 {
		cfg.MaxUsesPerConn = 100
	}
	if cfg.MaxConnAge <= 0 {
		cfg.MaxConnAge = 5 * time.Minute
	}
	return &Pool{
		cfg:   cfg,
		hosts: make(map[string][]*session),
	}
}

// CheckRCPT performs one recipient-acceptance probe using a pooled
// session. New sessions run banner, EHLO, opportunistic STARTTLS and MAIL
// FROM; reused sessions reset the transaction with RSET first. The return
// values are the RCPT TO response code and message.
func (p *Pool) CheckRCPT(ctx context.Context, mxHost, email string) (code int, msg string, err error) {
	s, isNew, err := p.get(ctx, mxHost)
	if err != nil {
		return 0, "", err
	}

	code, msg, err = p.probe(s, mxHost, email, isNew)
	if err != nil {
		// The session stream is in an unknown state, discard it.
		_ = s.netConn.Close()
		return 0, "", err
	}

	p.put(mxHost, s)
	return code, msg, nil
}

// Close quits and closes all pooled sessions. The pool rejects further
// probes afterwards.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	for host, sessions := range p.hosts {
		for _, s := range sessions {
			sendQuit(s)
			_ = s.netConn.Close()
		}
		delete(p.hosts, host)
	}
	return nil
}

// get retrieves a pooled session or dials a new one.
func (p *Pool) get(ctx context.Context, mxHost string) (*session, bool, error) {
	p.mu.Lock()

	if p.closed {
		p.mu.Unlock()
		return nil, false, errors.New("smtppool: pool is closed")
	}

	sessions := p.hosts[mxHost]
	// LIFO for better locality.
	for i := len(sessions) - 1; i >= 0; i-- {
		s := sessions[i]
		if s.uses >= p.cfg.MaxUsesPerConn || time.Since(s.createdAt) > p.cfg.MaxConnAge {
			sendQuit(s)
			_ = s.netConn.Close()
			sessions = append(sessions[:i], sessions[i+1:]...)
			continue
		}
		sessions = append(sessions[:i], sessions[i+1:]...)
		p.hosts[mxHost] = sessions
		p.mu.Unlock()
		return s, false, nil
	}
	p.hosts[mxHost] = sessions
	p.mu.Unlock()

	s, err := p.dial(ctx, mxHost)
	if err != nil {
		return nil, false, err
	}
	return s, true, nil
}

// put returns a session to the pool for reuse.
func (p *Pool) put(mxHost string, s *session) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || len(p.hosts[mxHost]) >= p.cfg.MaxConnsPerHost {
		sendQuit(s)
		_ = s.netConn.Close()
		return
	}

	p.hosts[mxHost] = append(p.hosts[mxHost], s)
}

// dial opens a new TCP connection to the MX host, pacing through the
// limiter when one is configured.
func (p *Pool) dial(ctx context.Context, mxHost string) (*session, error) {
	if p.cfg.Limiter != nil {
		if err := p.cfg.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	dialCtx, cancel := context.WithTimeout(ctx, p.cfg.ConnectTimeout)
	defer cancel()

	address := net.JoinHostPort(mxHost, p.cfg.Port)
	netConn, err := p.cfg.Dial(dialCtx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", address, err)
	}

	return &session{
		netConn:   netConn,
		reader:    bufio.NewReader(netConn),
		writer:    bufio.NewWriter(netConn),
		createdAt: time.Now(),
	}, nil
}

// probe runs the SMTP dialog up to and including RCPT TO.
func (p *Pool) probe(s *session, mxHost, email string, isNew bool) (int, string, error) {
	deadline := time.Now().Add(p.cfg.CommandTimeout)
	if err := s.netConn.SetDeadline(deadline); err != nil {
		return 0, "", fmt.Errorf("set deadline: %w", err)
	}

	if isNew {
		code, msg, err := readResponse(s.reader)
		if err != nil {
			return 0, "", fmt.Errorf("read banner: %w", err)
		}
		if code >= 500 {
			return 0, "", fmt.Errorf("server rejected connection: %d %s", code, msg)
		}

		code, msg, err = command(s, fmt.Sprintf("EHLO %s\r\n", p.cfg.HeloDomain))
		if err != nil {
			return 0, "", fmt.Errorf("EHLO failed: %w", err)
		}
		if code >= 400 {
			return 0, "", fmt.Errorf("EHLO rejected: %d %s", code, msg)
		}

		if strings.Contains(msg, "STARTTLS") {
			if err := p.upgradeTLS(s, mxHost, deadline); err != nil {
				return 0, "", fmt.Errorf("TLS negotiation failed: %w", err)
			}
		}
	} else {
		code, msg, err := command(s, "RSET\r\n")
		if err != nil {
			return 0, "", fmt.Errorf("RSET failed: %w", err)
		}
		if code >= 400 {
			return 0, "", fmt.Errorf("RSET rejected: %d %s", code, msg)
		}
	}

	// Any MAIL FROM failure is a session-level problem, not an answer
	// about the recipient; policy blocks (Spamhaus etc.) surface here.
	code, msg, err := command(s, fmt.Sprintf("MAIL FROM:<%s>\r\n", p.cfg.MailFrom))
	if err != nil {
		return 0, "", fmt.Errorf("MAIL FROM failed: %w", err)
	}
	if code >= 400 {
		return 0, "", fmt.Errorf("MAIL FROM rejected: %d %s", code, msg)
	}

	code, msg, err = command(s, fmt.Sprintf("RCPT TO:<%s>\r\n", email))
	if err != nil {
		return 0, "", fmt.Errorf("RCPT TO failed: %w", err)
	}

	s.uses++
	return code, msg, nil
}

// upgradeTLS switches an advertising session to TLS and re-greets. The
// server offered STARTTLS, so a failure here means the stream is broken
// and the session cannot be used further.
func (p *Pool) upgradeTLS(s *session, mxHost string, deadline time.Time) error {
	code, msg, err := command(s, "STARTTLS\r\n")
	if err != nil {
		return err
	}
	if code != 220 {
		return fmt.Errorf("STARTTLS rejected: %d %s", code, msg)
	}

	tlsConn := tls.Client(s.netConn, &tls.Config{ServerName: mxHost})
	if err := tlsConn.SetDeadline(deadline); err != nil {
		return err
	}
	if err := tlsConn.Handshake(); err != nil {
		return err
	}

	s.netConn = tlsConn
	s.reader = bufio.NewReader(tlsConn)
	s.writer = bufio.NewWriter(tlsConn)
	s.tls = true

	// RFC 3207: the session state resets after the handshake.
	code, msg, err = command(s, fmt.Sprintf("EHLO %s\r\n", p.cfg.HeloDomain))
	if err != nil {
		return err
	}
	if code >= 400 {
		return fmt.Errorf("EHLO after STARTTLS rejected: %d %s", code, msg)
	}
	return nil
}

// command sends one SMTP command and reads the response.
func command(s *session, cmd string) (int, string, error) {
	if _, err := s.writer.WriteString(cmd); err != nil {
		return 0, "", err
	}
	if err := s.writer.Flush(); err != nil {
		return 0, "", err
	}
	return readResponse(s.reader)
}

// sendQuit sends a QUIT command (best-effort, ignores errors).
func sendQuit(s *session) {
	_ = s.netConn.SetDeadline(time.Now().Add(2 * time.Second))
	_, _ = s.writer.WriteString("QUIT\r\n")
	_ = s.writer.Flush()
}

// readResponse reads a (possibly multi-line) SMTP response.
func readResponse(r *bufio.Reader) (code int, full string, err error) {
	var lines []string
	for {
		line, readErr := r.ReadString('\n')
		if readErr != nil {
			return 0, "", fmt.Errorf("read SMTP response: %w", readErr)
		}
		line = strings.TrimRight(line, "\r\n")
		if len(line) < 3 {
			return 0, "", errors.New("SMTP response line too short")
		}
		lines = append(lines, line)
		// A '-' after the code means more lines follow.
		if len(line) < 4 || line[3] != '-' {
			break
		}
	}

	lastLine := lines[len(lines)-1]
	if _, err := fmt.Sscanf(lastLine[:3], "%d", &code); err != nil {
		return 0, "", fmt.Errorf("invalid SMTP response code %q: %w", lastLine[:3], err)
	}
	return code, strings.Join(lines, " | "), nil
}
