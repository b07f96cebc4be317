package checker

import "sort"

// Match is one maximal run of identical runes found in both sequences.
type Match struct {
	A    int
	B    int
	Size int
}

// SequenceMatcher computes a normalized lexical-overlap ratio between two
// texts using longest-matching-block comparison (Ratcliff/Obershelp). The
// ratio is 2.0*M/T where M is the total number of matched runes and T the
// combined length, so it is 1.0 for identical texts and 0.0 when nothing
// matches.
type SequenceMatcher struct {
	a   []rune
	b   []rune
	b2j map[rune][]int
}

func NewSequenceMatcher(a, b string) *SequenceMatcher {
	m := &SequenceMatcher{
		a: []rune(a),
		b: []rune(b),
	}

	m.b2j = make(map[rune][]int, len(m.b))
	for j, r := range m.b {
		m.b2j[r] = append(m.b2j[r], j)
	}

	return m
}

// findLongestMatch locates the longest matching block within
// a[alo:ahi] and b[blo:bhi].
func (m *SequenceMatcher) findLongestMatch(alo, ahi, blo, bhi int) Match {
	besti, bestj, bestsize := alo, blo, 0

	// j2len[j] holds the length of the match ending at a[i-1], b[j].
	j2len := map[int]int{}
	for i := alo; i < ahi; i++ {
		newj2len := map[int]int{}
		for _, j := range m.b2j[m.a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			newj2len[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		j2len = newj2len
	}

	return Match{A: besti, B: bestj, Size: bestsize}
}

// MatchingBlocks returns all maximal matching blocks, ordered by position
// in the first sequence.
func (m *SequenceMatcher) MatchingBlocks() []Match {
	type span struct {
		alo, ahi, blo, bhi int
	}

	queue := []span{{0, len(m.a), 0, len(m.b)}}
	var matched []Match

	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		match := m.findLongestMatch(s.alo, s.ahi, s.blo, s.bhi)
		if match.Size == 0 {
			continue
		}

		matched = append(matched, match)
		if s.alo < match.A && s.blo < match.B {
			queue = append(queue, span{s.alo, match.A, s.blo, match.B})
		}
		if match.A+match.Size < s.ahi && match.B+match.Size < s.bhi {
			queue = append(queue, span{match.A + match.Size, s.ahi, match.B + match.Size, s.bhi})
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].A < matched[j].A
	})

	return matched
}

// Ratio returns the similarity of the two sequences in [0,1].
func (m *SequenceMatcher) Ratio() float64 {
	total := len(m.a) + len(m.b)
	if total == 0 {
		return 1.0
	}

	matches := 0
	for _, block := range m.MatchingBlocks() {
		matches += block.Size
	}

	return 2.0 * float64(matches) / float64(total)
}

// Ratio is a convenience wrapper for one-shot comparisons.
func Ratio(a, b string) float64 {
	return NewSequenceMatcher(a, b).Ratio()
}
