// Package selecter is the selector (spec §4.6): extension preference then
// newest-by strategy over a validated candidate set. Kept under the
// teacher's "select" package name, rebuilt for this spec's newest-by-date
// semantics instead of the teacher's search-result diversity selection.
package selecter

import (
	"time"

	"github.com/Franco1312/autodiscovery-sources/internal/contract"
	"github.com/Franco1312/autodiscovery-sources/internal/types"
	"github.com/Franco1312/autodiscovery-sources/internal/version"
)

// Newest-by strategy names as they appear in a contract's select.newest_by.
const (
	NewestByLastModified           = "last_modified"
	NewestByDateFromFilenameOrLast = "date_from_filename_or_last_modified"
	NewestByBestEffort              = "best_effort_date_or_last_modified"
)

// Select applies spec §4.6: partition by extension preference, then order
// the most-preferred partition by the newest-by strategy, returning the
// winner. Returns (zero, false) for an empty input.
func Select(candidates []types.Candidate, sel contract.Select) (types.Candidate, bool) {
	if len(candidates) == 0 {
		return types.Candidate{}, false
	}
	if len(candidates) == 1 {
		return candidates[0], true
	}

	pool := preferExtension(candidates, sel.PreferExt)
	winner := newestBy(pool, sel.NewestBy)
	return winner, true
}

// preferExtension partitions candidates by the first matching suffix in
// preferExt (preserving order) and returns only the most-preferred
// non-empty partition; candidates in other partitions or matching no
// preferred extension are left out of the pool. When preferExt is empty or
// no candidate matches any preferred extension, every candidate is
// returned unchanged.
func preferExtension(candidates []types.Candidate, preferExt []string) []types.Candidate {
	if len(preferExt) == 0 {
		return candidates
	}
	best := len(preferExt)
	for _, c := range candidates {
		for i, ext := range preferExt {
			if hasSuffixFold(c.Filename, ext) || hasSuffixFold(c.URL, ext) {
				if i < best {
					best = i
				}
				break
			}
		}
	}
	if best == len(preferExt) {
		// no candidate matched any preferred extension
		return candidates
	}
	var pool []types.Candidate
	for _, c := range candidates {
		for i, ext := range preferExt {
			if i != best {
				continue
			}
			if hasSuffixFold(c.Filename, ext) || hasSuffixFold(c.URL, ext) {
				pool = append(pool, c)
			}
		}
	}
	if len(pool) == 0 {
		return candidates
	}
	return pool
}

func hasSuffixFold(s, suffix string) bool {
	if len(suffix) == 0 || len(s) < len(suffix) {
		return false
	}
	a := []rune(s[len(s)-len(suffix):])
	b := []rune(suffix)
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if toLowerRune(a[i]) != toLowerRune(b[i]) {
			return false
		}
	}
	return true
}

func toLowerRune(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}

// newestBy orders pool by strategy and returns the top candidate,
// treating candidates without a derivable date as -infinity (spec §4.6).
func newestBy(pool []types.Candidate, strategy string) types.Candidate {
	bestIdx := 0
	bestTime := candidateTime(pool[0], strategy)
	bestHas := hasCandidateTime(pool[0], strategy)
	for i := 1; i < len(pool); i++ {
		t := candidateTime(pool[i], strategy)
		has := hasCandidateTime(pool[i], strategy)
		if !bestHas && has {
			bestIdx, bestTime, bestHas = i, t, has
			continue
		}
		if has && bestHas && t.After(bestTime) {
			bestIdx, bestTime, bestHas = i, t, has
			continue
		}
		if has && bestHas && t.Equal(bestTime) && pool[i].Score > pool[bestIdx].Score {
			bestIdx = i
		}
	}
	return pool[bestIdx]
}

func candidateTime(c types.Candidate, strategy string) time.Time {
	t, _ := candidateTimeOk(c, strategy)
	return t
}

func hasCandidateTime(c types.Candidate, strategy string) bool {
	_, ok := candidateTimeOk(c, strategy)
	return ok
}

func candidateTimeOk(c types.Candidate, strategy string) (time.Time, bool) {
	switch strategy {
	case NewestByLastModified:
		if c.HasLastMod {
			return c.LastModified, true
		}
		return time.Time{}, false
	case NewestByDateFromFilenameOrLast:
		if v := version.DateFromFilename(c.Filename, c.RegexGroups); v != "" {
			if t, ok := version.ParseForOrdering(types.Version(v)); ok {
				return t, true
			}
		}
		if c.HasLastMod {
			return c.LastModified, true
		}
		return time.Time{}, false
	case NewestByBestEffort:
		if v := version.YearMonthFromSpanishMonth(c.Filename); v != "" {
			if t, ok := version.ParseForOrdering(types.Version(v)); ok {
				return t, true
			}
		}
		if v := version.DateFromFilename(c.Filename, c.RegexGroups); v != "" {
			if t, ok := version.ParseForOrdering(types.Version(v)); ok {
				return t, true
			}
		}
		if c.HasLastMod {
			return c.LastModified, true
		}
		return time.Time{}, false
	default:
		if c.HasLastMod {
			return c.LastModified, true
		}
		return time.Time{}, false
	}
}
