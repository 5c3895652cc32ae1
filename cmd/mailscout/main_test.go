package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitinho/mailscout"
)

func TestMostlyBlocklisted(t *testing.T) {
	blocked := mailscout.ValidationResult{Reason: "mx.example.com: blocklisted"}
	rejected := mailscout.ValidationResult{Reason: "mx.example.com: RCPT 550"}

	tests := []struct {
		name    string
		results []mailscout.ValidationResult
		want    bool
	}{
		{"no results", nil, false},
		{"all plain rejects", []mailscout.ValidationResult{rejected, rejected}, false},
		{"half blocked", []mailscout.ValidationResult{blocked, rejected}, true},
		{"all blocked", []mailscout.ValidationResult{blocked, blocked}, true},
		{"minority blocked", []mailscout.ValidationResult{blocked, rejected, rejected}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mostlyBlocklisted(tt.results))
		})
	}
}

func TestDomainOf(t *testing.T) {
	assert.Equal(t, "example.com", domainOf("ana@example.com"))
	assert.Equal(t, "example.com", domainOf(`"a@b"@example.com`))
	assert.Equal(t, "", domainOf("no-at-sign"))
}
