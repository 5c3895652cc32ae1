// Package config builds the service configuration from environment
// variables, optionally seeded from a .env file, so main stays lean.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/bitinho/mailscout"
)

// Config is the runtime configuration of the mailscout service.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string
	// Concurrency bounds simultaneous SMTP probes per finder.
	Concurrency int
	// LightMode disables the SMTP exchange globally.
	LightMode bool
	// CandidateLimit caps the generated candidate list.
	CandidateLimit int
	// HeloDomain is the EHLO identity; pick one that resolves back to the
	// sending IP or strict receivers will defer.
	HeloDomain string
	// MailFrom is the declared envelope sender.
	MailFrom string
	// Nameservers are the DNS servers for MX lookups (host:port).
	Nameservers []string
	// ProbeRate paces outbound SMTP dials per second; 0 means unpaced.
	ProbeRate float64
	// ConnectTimeout bounds one SMTP dial.
	ConnectTimeout time.Duration
	// CommandTimeout bounds one SMTP exchange.
	CommandTimeout time.Duration
	// LogLevel is a logrus level name.
	LogLevel string
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment
// variables win over it.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Addr:           getEnv("MAILSCOUT_ADDR", ":8080"),
		Concurrency:    getEnvInt("MAILSCOUT_CONCURRENCY", 10),
		LightMode:      getEnvBool("MAILSCOUT_LIGHT_MODE", false),
		CandidateLimit: getEnvInt("MAILSCOUT_CANDIDATE_LIMIT", 0),
		HeloDomain:     getEnv("MAILSCOUT_HELO_DOMAIN", ""),
		MailFrom:       getEnv("MAILSCOUT_MAIL_FROM", ""),
		Nameservers:    getEnvList("MAILSCOUT_NAMESERVERS"),
		ProbeRate:      getEnvFloat("MAILSCOUT_PROBE_RATE", 0),
		ConnectTimeout: getEnvDuration("MAILSCOUT_CONNECT_TIMEOUT", 0),
		CommandTimeout: getEnvDuration("MAILSCOUT_COMMAND_TIMEOUT", 0),
		LogLevel:       getEnv("MAILSCOUT_LOG_LEVEL", "info"),
	}

	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		return Config{}, fmt.Errorf("MAILSCOUT_LOG_LEVEL: %w", err)
	}
	if cfg.Concurrency < 0 {
		return Config{}, fmt.Errorf("MAILSCOUT_CONCURRENCY must not be negative, got %d", cfg.Concurrency)
	}
	return cfg, nil
}

// Options maps the service configuration onto finder options. Zero values
// fall through to the library defaults.
func (c Config) Options() mailscout.Options {
	return mailscout.Options{
		Concurrency:    c.Concurrency,
		LightMode:      c.LightMode,
		CandidateLimit: c.CandidateLimit,
		HeloDomain:     c.HeloDomain,
		MailFrom:       c.MailFrom,
		Nameservers:    c.Nameservers,
		ProbeRate:      c.ProbeRate,
		ConnectTimeout: c.ConnectTimeout,
		CommandTimeout: c.CommandTimeout,
	}
}

// lookupEnv treats an empty variable the same as an unset one.
func lookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func getEnv(key, fallback string) string {
	if v, ok := lookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, ok := lookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logrus.WithField("key", key).Warnf("ignoring non-integer value %q", v)
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v, ok := lookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		logrus.WithField("key", key).Warnf("ignoring non-numeric value %q", v)
		return fallback
	}
	return f
}

func getEnvBool(key string, fallback bool) bool {
	v, ok := lookupEnv(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logrus.WithField("key", key).Warnf("ignoring non-boolean value %q", v)
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, ok := lookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logrus.WithField("key", key).Warnf("ignoring non-duration value %q", v)
		return fallback
	}
	return d
}

// getEnvList parses a comma-separated list, dropping empty elements.
func getEnvList(key string) []string {
	v, ok := lookupEnv(key)
	if !ok {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
