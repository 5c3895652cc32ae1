package check_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitinho/mailscout/check"
)

func TestDomain_Disposable(t *testing.T) {
	adv := check.Domain("mailinator.com", "mailinator.com", 0)
	assert.True(t, adv.Disposable)

	adv = check.Domain("example.com", "example.com", 0)
	assert.False(t, adv.Disposable)
}

func TestDomain_TypoSuggestion(t *testing.T) {
	adv := check.Domain("gmial.com", "gmial.com", 0)
	assert.Equal(t, "gmail.com", adv.Suggestion)

	// Exact provider match is not a typo.
	adv = check.Domain("gmail.com", "gmail.com", 0)
	assert.Empty(t, adv.Suggestion)

	// Unrelated corporate domain suggests nothing.
	adv = check.Domain("acme-industrial.com", "acme-industrial.com", 0)
	assert.Empty(t, adv.Suggestion)
}
