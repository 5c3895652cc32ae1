// Package types contains the shared types for mailscout.
// This package does not import anything from other mailscout packages
// to avoid circular imports.
package types

// MailHost is one mail exchanger of a domain.
type MailHost struct {
	Host string `json:"host"`
	Pref uint16 `json:"pref"`
}

// ProbeOutcome is the classified result of one recipient-acceptance
// probe against one mail host.
type ProbeOutcome struct {
	// Accepted is true when the host answered RCPT TO with 250 or 251.
	Accepted bool `json:"accepted"`
	// Reason is a short explanation, e.g. "mx1.example.com: RCPT 550"
	// or "mx1.example.com: timeout".
	Reason string `json:"reason"`
	// Conclusive is true when the host gave a definitive RCPT response
	// code. Transport and protocol errors are inconclusive: the host
	// never answered the question.
	Conclusive bool `json:"-"`
}

// ValidationResult is the outcome of validating one candidate address.
// Immutable once produced.
type ValidationResult struct {
	Email    string `json:"email"`
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason"`
}

// CatchAll is the memoized catch-all state of a domain. A plain bool
// cannot distinguish "known false" from "not yet computed".
type CatchAll int

const (
	CatchAllUnknown CatchAll = iota
	CatchAllYes
	CatchAllNo
)

func (c CatchAll) String() string {
	switch c {
	case CatchAllYes:
		return "yes"
	case CatchAllNo:
		return "no"
	default:
		return "unknown"
	}
}
