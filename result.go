package mailscout

import (
	"github.com/bitinho/mailscout/check"
	"github.com/bitinho/mailscout/types"
)

// Name holds the input name fragments for one person.
type Name struct {
	First  string   `json:"first"`
	Middle string   `json:"middle,omitempty"`
	Last   string   `json:"last,omitempty"`
	Extras []string `json:"extras,omitempty"`
}

// Report is the aggregate outcome of one finder run.
type Report struct {
	// Domain is the probed domain (ASCII form).
	Domain string `json:"domain"`
	// Confirmed lists the accepted addresses in generation order.
	Confirmed []string `json:"confirmed"`
	// TotalTested is the number of generated candidates.
	TotalTested int `json:"totalTested"`
	// CatchAll is true when the domain accepts any local-part, which
	// makes the confirmed set non-diagnostic.
	CatchAll bool `json:"catchAll"`
	// Advisory carries disposable/typo information about the domain.
	Advisory check.DomainAdvisory `json:"advisory"`
	// Results holds every candidate's outcome, in generation order.
	Results []types.ValidationResult `json:"results,omitempty"`
}

// Rejected returns the results that were not accepted.
func (r Report) Rejected() []types.ValidationResult {
	var out []types.ValidationResult
	for _, res := range r.Results {
		if !res.Accepted {
			out = append(out, res)
		}
	}
	return out
}

// ResultFor returns the result for the given address, if it was tested.
func (r Report) ResultFor(email string) (types.ValidationResult, bool) {
	for _, res := range r.Results {
		if res.Email == email {
			return res, true
		}
	}
	return types.ValidationResult{}, false
}
