package scanfile

// delimiterCandidates are tried in declaration order; on a scoring tie the
// earlier candidate wins, so comma stays the default for ambiguous files.
var delimiterCandidates = []rune{',', ';', '\t', '|'}

// maxSniffLines bounds how many lines delimiter inference examines.
const maxSniffLines = 20

// DetectDelimiter infers the field delimiter from a sample of lines by
// scoring each candidate on how consistently it splits the sample. A
// candidate scores the number of non-blank lines whose field count equals
// the candidate's modal field count, provided that modal count is at least
// two (a delimiter that never splits anything proves nothing).
//
// Returns ',' when no candidate scores, matching the format's default.
func DetectDelimiter(lines []string) rune {
	sample := make([]string, 0, maxSniffLines)
	for _, l := range lines {
		if l == "" {
			continue
		}
		sample = append(sample, l)
		if len(sample) == maxSniffLines {
			break
		}
	}
	if len(sample) == 0 {
		return ','
	}

	bestDelim := ','
	bestScore := 0
	for _, d := range delimiterCandidates {
		// Modal field count for this candidate across the sample.
		counts := make(map[int]int)
		for _, l := range sample {
			counts[len(Split(l, d))]++
		}
		modalCount, modalLines := 0, 0
		for fields, n := range counts {
			if n > modalLines || (n == modalLines && fields > modalCount) {
				modalCount, modalLines = fields, n
			}
		}
		if modalCount < 2 {
			continue
		}
		if modalLines > bestScore {
			bestScore = modalLines
			bestDelim = d
		}
	}
	return bestDelim
}
