package probe

import "strings"

// maxReasonLen bounds unclassified error reasons.
const maxReasonLen = 50

// errorLabels maps phrases seen in SMTP/transport errors to short labels.
// Matched in order; first hit wins.
var errorLabels = []struct {
	keyword string
	label   string
}{
	{"spamhaus", "blocklisted"},
	{"blocklist", "blocklisted"},
	{"blacklist", "blocklisted"},
	{"authentication", "auth required"},
	{"access denied", "access denied"},
	{"timeout", "timeout"},
	{"deadline exceeded", "timeout"},
	{"connection refused", "refused"},
}

// shortError classifies an error message into a short human-readable
// label by best-effort keyword match. Unmatched messages are truncated to
// their first line, capped at maxReasonLen.
func shortError(msg string) string {
	low := strings.ToLower(msg)
	for _, e := range errorLabels {
		if strings.Contains(low, e.keyword) {
			return e.label
		}
	}

	if i := strings.IndexByte(low, '\n'); i >= 0 {
		low = low[:i]
	}
	if len(low) > maxReasonLen {
		low = low[:maxReasonLen]
	}
	return low
}
