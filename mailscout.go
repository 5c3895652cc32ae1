// Package mailscout infers the likely working email addresses for a
// person at a domain: it synthesizes plausible mailbox local-parts from
// name fragments and confirms liveness of each candidate with the SMTP
// recipient-acceptance handshake against the domain's real mail
// exchangers, respecting catch-all behavior and transient-failure
// ambiguity.
//
// Basic usage:
//
//	f, err := mailscout.New(ctx, "example.com", mailscout.Options{})
//	if err != nil {
//	    // domain has no usable mail setup
//	}
//	defer f.Close()
//
//	report, err := f.Find(ctx, mailscout.Name{First: "Ana", Last: "Souza"})
//	fmt.Println(report.Confirmed, report.CatchAll)
//
// One Finder serves one domain and performs one bounded best-effort pass
// per Find call; there are no retries across sessions and no persisted
// state.
package mailscout

import "github.com/bitinho/mailscout/types"

// ValidationResult is a re-export from the types package so that
// consumers don't need to import the types package directly.
type ValidationResult = types.ValidationResult

// MailHost is a re-export.
type MailHost = types.MailHost

// ProbeOutcome is a re-export.
type ProbeOutcome = types.ProbeOutcome
