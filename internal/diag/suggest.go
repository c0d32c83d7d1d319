package diag

// Levenshtein computes the edit distance between a and b. Used to produce
// "did you mean?" hints for misspelled keywords and function names (§4.2,
// §4.6). This is a self-contained algorithm on two short identifiers —
// in the same spirit as the teacher's own hand-rolled validateSymbol and
// isValidInt/isValidFloat checks — not a case that calls for a dependency.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}

	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			curr[j] = min3(del, ins, sub)
		}
		prev, curr = curr, prev
	}
	return prev[lb]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// Suggest returns the candidate closest to name within maxDist edits, or
// "" if none qualifies. Ties resolve to the first candidate encountered.
func Suggest(name string, candidates []string, maxDist int) string {
	best := ""
	bestDist := maxDist + 1
	for _, c := range candidates {
		d := Levenshtein(name, c)
		if d <= maxDist && d < bestDist {
			best = c
			bestDist = d
		}
	}
	return best
}
