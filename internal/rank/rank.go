// Package rank implements the ranker (spec §4.4): a pure 0-100 heuristic
// score per candidate. Scores are informational only — the selector is
// authoritative for the final choice.
package rank

import (
	"strings"

	"github.com/Franco1312/autodiscovery-sources/internal/types"
	"github.com/Franco1312/autodiscovery-sources/internal/version"
)

// preferredExtensions mirrors spec §4.4's "+30 if filename ends with one
// of {xlsx, xlsm, xls, pdf}".
var preferredExtensions = []string{".xlsx", ".xlsm", ".xls", ".pdf"}

// Score computes a candidate's heuristic score given the contract's strong
// tokens (a domain-specific list of short identifiers for publication
// series, report families, statistics directories) and match regex
// groups already attached to the candidate.
func Score(c types.Candidate, strongTokens []string) int {
	score := 0

	lowerFilename := strings.ToLower(c.Filename)
	for _, ext := range preferredExtensions {
		if strings.HasSuffix(lowerFilename, ext) {
			score += 30
			break
		}
	}

	lowerURL := strings.ToLower(c.URL)
	for _, token := range strongTokens {
		token = strings.ToLower(strings.TrimSpace(token))
		if token == "" {
			continue
		}
		if strings.Contains(lowerURL, token) {
			score += 10
		}
	}

	if version.DateFromFilename(c.Filename, c.RegexGroups) != "" {
		score += 20
	}

	if pathOf(c.URL) != "" {
		lowerPath := strings.ToLower(pathOf(c.URL))
		for _, token := range strongTokens {
			token = strings.ToLower(strings.TrimSpace(token))
			if token == "" {
				continue
			}
			if strings.Contains(lowerPath, token) {
				score += 5
			}
		}
	}

	if score > 100 {
		score = 100
	}
	return score
}

func pathOf(rawURL string) string {
	idx := strings.Index(rawURL, "://")
	if idx < 0 {
		return rawURL
	}
	rest := rawURL[idx+3:]
	slash := strings.Index(rest, "/")
	if slash < 0 {
		return ""
	}
	return rest[slash:]
}

// RankAndSort scores a copy of candidates (the input slice is left
// untouched) and returns the copy sorted by
// descending score, preserving original crawl order among ties (spec §8:
// "Two candidates with identical dates: tie broken by ranker score, then
// by original crawl order").
func RankAndSort(candidates []types.Candidate, strongTokens []string) []types.Candidate {
	ranked := make([]types.Candidate, len(candidates))
	copy(ranked, candidates)
	for i := range ranked {
		ranked[i].Score = Score(ranked[i], strongTokens)
	}
	stableSortByScoreDesc(ranked)
	return ranked
}

// stableSortByScoreDesc is a small insertion sort to keep ties in their
// original relative order without pulling in sort.SliceStable for a
// single call site.
func stableSortByScoreDesc(c []types.Candidate) {
	for i := 1; i < len(c); i++ {
		j := i
		for j > 0 && c[j-1].Score < c[j].Score {
			c[j-1], c[j] = c[j], c[j-1]
			j--
		}
	}
}
