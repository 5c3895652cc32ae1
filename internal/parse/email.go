// Package parse splits email addresses into local-part and domain and
// handles internationalized domains (IDNA2008).
package parse

import (
	"strings"

	"golang.org/x/net/idna"
)

// Email is the internal representation of a candidate address.
type Email struct {
	Raw           string // the original, trimmed input
	Local         string // the part before @
	Domain        string // the part after @, ASCII/Punycode form (for DNS/SMTP)
	DomainUnicode string // the part after @, Unicode form (for display)
	Valid         bool   // false if Raw cannot be split into local@domain
}

// NewEmail splits raw into local-part and domain. The split is on the last
// "@" so quoted local parts containing "@" still parse. If the address
// cannot be split, Valid is false but Raw is always populated.
func NewEmail(raw string) Email {
	raw = strings.TrimSpace(raw)

	at := strings.LastIndex(raw, "@")
	if at < 1 || at == len(raw)-1 {
		return Email{Raw: raw}
	}

	local := raw[:at]
	domain := strings.ToLower(raw[at+1:])

	ascii, unicode, ok := domainForms(domain)
	if !ok {
		return Email{Raw: raw}
	}

	return Email{
		Raw:           raw,
		Local:         local,
		Domain:        ascii,
		DomainUnicode: unicode,
		Valid:         true,
	}
}

// Domain returns the ASCII/Punycode and Unicode forms of a bare domain.
// ok is false when a non-ASCII domain fails IDNA2008 conversion.
func Domain(domain string) (ascii, unicode string, ok bool) {
	return domainForms(strings.ToLower(strings.TrimSpace(domain)))
}

// domainForms returns the ASCII/Punycode and Unicode forms of a domain.
// ok is false when a non-ASCII domain fails IDNA2008 conversion.
func domainForms(domain string) (ascii, unicode string, ok bool) {
	nonASCII := false
	for _, r := range domain {
		if r > 127 {
			nonASCII = true
			break
		}
	}

	if nonASCII {
		a, err := idna.Lookup.ToASCII(domain)
		if err != nil {
			return "", "", false
		}
		return a, domain, true
	}

	// Existing Punycode still gets a readable Unicode form
	// (xn--mnchen-3ya.de -> münchen.de).
	u, err := idna.Display.ToUnicode(domain)
	if err != nil {
		u = domain
	}
	return domain, u, true
}
