package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 10, cfg.Concurrency)
	assert.False(t, cfg.LightMode)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Nil(t, cfg.Nameservers)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("MAILSCOUT_ADDR", ":9090")
	t.Setenv("MAILSCOUT_CONCURRENCY", "4")
	t.Setenv("MAILSCOUT_LIGHT_MODE", "true")
	t.Setenv("MAILSCOUT_NAMESERVERS", "1.1.1.1:53, 9.9.9.9:53,")
	t.Setenv("MAILSCOUT_PROBE_RATE", "2.5")
	t.Setenv("MAILSCOUT_CONNECT_TIMEOUT", "3s")
	t.Setenv("MAILSCOUT_LOG_LEVEL", "debug")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.True(t, cfg.LightMode)
	assert.Equal(t, []string{"1.1.1.1:53", "9.9.9.9:53"}, cfg.Nameservers)
	assert.Equal(t, 2.5, cfg.ProbeRate)
	assert.Equal(t, 3*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadBadValuesFallBack(t *testing.T) {
	t.Setenv("MAILSCOUT_CONCURRENCY", "many")
	t.Setenv("MAILSCOUT_LIGHT_MODE", "yep")
	t.Setenv("MAILSCOUT_CONNECT_TIMEOUT", "soon")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, 10, cfg.Concurrency)
	assert.False(t, cfg.LightMode)
	assert.Equal(t, time.Duration(0), cfg.ConnectTimeout)
}

func TestLoadRejectsBadLogLevel(t *testing.T) {
	t.Setenv("MAILSCOUT_LOG_LEVEL", "chatty")

	_, err := Load()
	assert.Error(t, err)
}

func TestOptionsMapping(t *testing.T) {
	cfg := Config{
		Concurrency: 7,
		LightMode:   true,
		HeloDomain:  "probe.example.net",
		ProbeRate:   1.5,
	}
	opts := cfg.Options()
	assert.Equal(t, 7, opts.Concurrency)
	assert.True(t, opts.LightMode)
	assert.Equal(t, "probe.example.net", opts.HeloDomain)
	assert.Equal(t, 1.5, opts.ProbeRate)
}
