package contract

import "regexp"

// ExtractRegexGroups applies each of match.Patterns against filename in
// order and returns the first match's captured groups (spec §4.4: "+20 if
// the filename yields a parseable date under any contract regex"; §4.7's
// versioning policies consume these groups rather than the raw filename).
// Grounded on the Python original's PatternMatcherService, which compiles
// contract patterns once per call and matches case-insensitively; an
// invalid pattern is skipped rather than aborting the whole contract, the
// same tolerance url_matches_patterns shows for a bad regex ("except
// re.error: continue").
func ExtractRegexGroups(filename string, match Match) []string {
	for _, pattern := range match.Patterns {
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			continue
		}
		groups := re.FindStringSubmatch(filename)
		if groups == nil {
			continue
		}
		if len(groups) > 1 {
			return groups[1:]
		}
		return groups
	}
	return nil
}
