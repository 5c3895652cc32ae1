// Package levenshtein computes edit distances for domain typo detection.
package levenshtein

// Distance returns the Levenshtein edit distance between two strings,
// using O(min(m,n)) memory.
func Distance(s, t string) int {
	sr := []rune(s)
	tr := []rune(t)

	if len(sr) == 0 {
		return len(tr)
	}
	if len(tr) == 0 {
		return len(sr)
	}

	// Keep the shorter string on the row axis.
	if len(sr) > len(tr) {
		sr, tr = tr, sr
	}

	prev := make([]int, len(sr)+1)
	curr := make([]int, len(sr)+1)
	for i := range prev {
		prev[i] = i
	}

	for j, tc := range tr {
		curr[0] = j + 1
		for i, sc := range sr {
			cost := 1
			if sc == tc {
				cost = 0
			}
			del := curr[i] + 1
			ins := prev[i+1] + 1
			sub := prev[i] + cost
			curr[i+1] = min(del, ins, sub)
		}
		prev, curr = curr, prev
	}

	return prev[len(sr)]
}
