package check

import (
	"strings"

	"github.com/bitinho/mailscout/internal/disposable"
	"github.com/bitinho/mailscout/internal/levenshtein"
)

// DomainAdvisory is advisory information about a target domain. It never
// blocks probing; a disposable domain or a suspected typo is still probed
// as requested.
type DomainAdvisory struct {
	// Disposable is true when the domain is a known throwaway provider,
	// which makes any confirmed address short-lived.
	Disposable bool `json:"disposable"`
	// Suggestion is a close-match well-known provider when the domain
	// looks like a typo ("gmial.com" -> "gmail.com"), otherwise empty.
	Suggestion string `json:"suggestion,omitempty"`
}

// DefaultTypoThreshold is the Levenshtein distance under which a domain
// counts as a probable typo of a known provider.
const DefaultTypoThreshold = 2

// knownProviders are major email providers used for typo detection.
var knownProviders = []string{
	"gmail.com", "googlemail.com",
	"yahoo.com", "yahoo.co.uk", "yahoo.com.br",
	"outlook.com", "hotmail.com", "live.com",
	"icloud.com", "me.com",
	"protonmail.com", "proton.me",
	"aol.com",
	"zoho.com",
	"yandex.com",
	"mail.com",
	"gmx.com", "gmx.net", "gmx.de",
	"fastmail.com",
	"uol.com.br", "bol.com.br", "terra.com.br",
}

// Domain computes the advisory for a target domain. The ASCII form feeds
// the disposable lookup (the embedded list is ASCII); the Unicode form
// gives better Levenshtein matches for internationalized domains.
func Domain(asciiDomain, unicodeDomain string, typoThreshold int) DomainAdvisory {
	if typoThreshold <= 0 {
		typoThreshold = DefaultTypoThreshold
	}

	return DomainAdvisory{
		Disposable: disposable.IsDisposable(asciiDomain),
		Suggestion: typoSuggestion(strings.ToLower(unicodeDomain), typoThreshold),
	}
}

// typoSuggestion returns the closest known provider within threshold, or
// "" when the domain matches a provider exactly or nothing is close.
func typoSuggestion(domain string, threshold int) string {
	bestDist := threshold + 1
	bestMatch := ""

	for _, provider := range knownProviders {
		if domain == provider {
			return ""
		}
		if dist := levenshtein.Distance(domain, provider); dist < bestDist {
			bestDist = dist
			bestMatch = provider
		}
	}

	if bestDist > threshold {
		return ""
	}
	return bestMatch
}
