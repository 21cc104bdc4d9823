package util

import "strings"

// SubjectMatches reports whether subj is covered by pattern. A "*" token in
// pattern stands for exactly one token of subj and a ">" token for all the
// tokens that remain.
func SubjectMatches(pattern, subj string) bool {
	for {
		ptok, prest, pmore := strings.Cut(pattern, ".")
		if ptok == ">" {
			return true
		}
		stok, srest, smore := strings.Cut(subj, ".")
		if ptok != "*" && ptok != stok {
			return false
		}
		if !pmore || !smore {
			return pmore == smore
		}
		pattern, subj = prest, srest
	}
}

// FirstMatch returns the first of patterns that covers subj.
func FirstMatch(subj string, patterns ...string) (string, bool) {
	for _, p := range patterns {
		if SubjectMatches(p, subj) {
			return p, true
		}
	}
	return "", false
}
