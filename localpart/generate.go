// Package localpart synthesizes plausible mailbox local-parts from a
// person's name fragments. Generation is deterministic: identical inputs
// always produce the identical ordered candidate list.
package localpart

import (
	"strings"

	"github.com/bitinho/mailscout/internal/names"
)

// DefaultLimit caps the candidate list when no explicit limit is given.
const DefaultLimit = 1000

// separators is the fixed separator alphabet. The empty separator joins
// fragments directly ("anasouza"); the rest produce "ana.souza" style
// candidates.
var separators = []string{"", ".", "_", "-"}

// need tags a template with the name fields it references, so templates
// are skipped instead of producing malformed candidates (leading or
// trailing separators) when a field is missing.
type need uint8

const (
	needMiddle need = 1 << iota
	needLast
	needExtra
)

// template is one username pattern. Placeholders: {first} {middle} {last}
// full fields, {f} {m} {l} initials, {extra} the first extra token, {sep}
// the separator slot.
type template struct {
	pattern string
	needs   need
}

// templates is the username grammar, ordered from the most common
// corporate conventions to the long tail. Extending coverage means
// appending here, not touching Generate.
var templates = []template{
	{"{first}", 0},
	{"{first}{sep}{last}", needLast},
	{"{f}{sep}{last}", needLast},
	{"{f}{l}", needLast},
	{"{first}{sep}{l}", needLast},
	{"{first}{last}", needLast},
	{"{first}{middle}{last}", needMiddle | needLast},
	{"{first}{sep}{middle}", needMiddle},
	{"{first}{sep}{m}", needMiddle},
	{"{f}{sep}{middle}", needMiddle},
	{"{first}{sep}{middle}{sep}{last}", needMiddle | needLast},
	{"{f}{sep}{m}{sep}{l}", needMiddle | needLast},
	{"{f}{middle}{l}", needMiddle | needLast},
	{"{first}{sep}{l}{sep}{extra}", needLast | needExtra},
	{"{f}{sep}{middle}{last}", needMiddle | needLast},
	{"{first}{sep}{last}{sep}1", needLast},
	{"{first}{sep}{last}{sep}01", needLast},
	{"{first}{last}{extra}", needLast | needExtra},
	{"{f}{sep}{l}{sep}01", needLast},
	{"{f}{l}{extra}", needLast | needExtra},
	{"{first}{sep}{l}1", needLast},
	{"{first}{sep}{l}01", needLast},
	{"{f}{sep}{last}{sep}1", needLast},
	{"{first}{sep}{last}{sep}{extra}", needLast | needExtra},
	{"{first}{sep}{extra}", needExtra},
	{"{f}{sep}{l}{sep}{extra}", needLast | needExtra},
	{"{f}{sep}{last}{sep}{extra}", needLast | needExtra},
	{"{f}{middle}{sep}{last}", needMiddle | needLast},
	{"{first}{sep}{m}{sep}{l}", needMiddle | needLast},
	{"{first}{sep}{middle}{sep}{extra}", needMiddle | needExtra},
	{"{first}{sep}{middle}{l}", needMiddle | needLast},
	{"{first}{sep}{middle}{sep}{last}{sep}1", needMiddle | needLast},
	{"{f}{sep}{middle}{sep}{last}{sep}01", needMiddle | needLast},
	{"{first}{middle}", needMiddle},
	{"{first}{sep}{last}{sep}{m}", needMiddle | needLast},
	{"{first}{sep}{l}{sep}{m}", needMiddle | needLast},
	{"{middle}{sep}{last}", needMiddle | needLast},
	{"{last}{sep}{first}", needLast},
	{"{l}{sep}{f}", needLast},
	{"{last}{sep}{first}{sep}{extra}", needLast | needExtra},
}

// Generate produces up to limit unique local-part candidates for the given
// name fragments, in a deterministic first-seen order. A limit <= 0 means
// DefaultLimit. Candidates are built from the normalized fragments and the
// fixed separator alphabet only; templates whose fields are missing are
// skipped entirely.
func Generate(first, middle, last string, extras []string, limit int) []string {
	if limit <= 0 {
		limit = DefaultLimit
	}

	normExtras := make([]string, 0, len(extras))
	for _, e := range extras {
		if n := names.Normalize(e); n != "" {
			normExtras = append(normExtras, n)
		}
	}

	firstExtra := ""
	if len(normExtras) > 0 {
		firstExtra = normExtras[0]
	}

	subs := [...]string{
		"{first}", names.Normalize(first),
		"{f}", names.Initial(first),
		"{middle}", names.Normalize(middle),
		"{m}", names.Initial(middle),
		"{last}", names.Normalize(last),
		"{l}", names.Initial(last),
		"{extra}", firstExtra,
	}

	var bases []string
	for _, tpl := range templates {
		if tpl.needs&needMiddle != 0 && names.Normalize(middle) == "" {
			continue
		}
		if tpl.needs&needLast != 0 && names.Normalize(last) == "" {
			continue
		}
		if tpl.needs&needExtra != 0 && firstExtra == "" {
			continue
		}
		for _, sep := range separators {
			r := strings.NewReplacer(append(subs[:], "{sep}", sep)...)
			base := r.Replace(tpl.pattern)
			if !wellFormed(base) {
				continue
			}
			bases = append(bases, base)
		}
	}

	// Each base also gets one variant per (extra token, non-empty
	// separator). Over-generation is intentional; dedupe and the limit
	// keep it bounded.
	out := make([]string, 0, len(bases))
	for _, base := range bases {
		out = append(out, base)
		for _, extra := range normExtras {
			for _, sep := range separators[1:] {
				out = append(out, base+sep+extra)
			}
		}
		if len(out) >= limit {
			break
		}
	}

	return dedupe(out, limit)
}

// wellFormed rejects candidates left malformed by an empty field: empty
// strings and leading or trailing separators.
func wellFormed(candidate string) bool {
	if candidate == "" {
		return false
	}
	if strings.ContainsAny(candidate[:1], "._-") {
		return false
	}
	if strings.ContainsAny(candidate[len(candidate)-1:], "._-") {
		return false
	}
	return true
}

// dedupe removes duplicates preserving first-seen order and truncates at
// limit.
func dedupe(in []string, limit int) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
		if len(out) == limit {
			break
		}
	}
	return out
}
