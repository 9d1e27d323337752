// Package version implements the versioning policies of spec §4.7,
// ported from the Python original's VersioningPolicy
// (src/autodiscovery/domain/policies.py) into pure Go functions.
package version

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/Franco1312/autodiscovery-sources/internal/types"
)

// Strategy names as they appear in a contract's `versioning` field.
const (
	StrategyDateToday                     = "date_today"
	StrategyDateFromFilenameOrLastModified = "date_from_filename_or_last_modified"
	StrategyBestEffortDateOrLastModified   = "best_effort_date_or_last_modified"
	StrategyNone                          = "none"
)

var (
	isoDateRe  = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)
	denseDate  = regexp.MustCompile(`(\d{4})(\d{2})(\d{2})`)
	yearRe     = regexp.MustCompile(`(\d{4})`)
	monthCode  = regexp.MustCompile(`-(\d{2})-`)
	remCodeRe  = regexp.MustCompile(`(?i)REM(\d{2})(\d{2})(\d{2})`)
)

var spanishMonths = map[string]string{
	"enero": "01", "febrero": "02", "marzo": "03", "abril": "04",
	"mayo": "05", "junio": "06", "julio": "07", "agosto": "08",
	"septiembre": "09", "octubre": "10", "noviembre": "11", "diciembre": "12",
	"ene": "01", "feb": "02", "mar": "03", "abr": "04", "may": "05",
	"jun": "06", "jul": "07", "ago": "08", "sep": "09", "oct": "10",
	"nov": "11", "dic": "12",
}

// DateFromFilename extracts a vYYYY-MM-DD version from a REM<YY><MM><DD>
// filename or, failing that, a regex-captured group. Returns "" if no
// date-shaped substring is found.
func DateFromFilename(filename string, regexGroups []string) string {
	if m := remCodeRe.FindStringSubmatch(filename); m != nil {
		return fmt.Sprintf("v20%s-%s-%s", m[1], m[2], m[3])
	}
	for _, group := range regexGroups {
		if m := isoDateRe.FindString(group); m != "" {
			return "v" + m
		}
		if m := denseDate.FindStringSubmatch(group); m != nil {
			return fmt.Sprintf("v%s-%s-%s", m[1], m[2], m[3])
		}
	}
	return ""
}

// YearMonthFromSpanishMonth extracts a YYYY-MM version from a Spanish
// month name (full or three-letter abbreviation) plus a four-digit year
// found anywhere in filename.
func YearMonthFromSpanishMonth(filename string) string {
	yearMatch := yearRe.FindString(filename)
	if yearMatch == "" {
		return ""
	}
	lower := strings.ToLower(filename)
	for name, num := range spanishMonths {
		if strings.Contains(lower, name) {
			return fmt.Sprintf("%s-%s", yearMatch, num)
		}
	}
	if m := monthCode.FindStringSubmatch(filename); m != nil {
		return fmt.Sprintf("%s-%s", yearMatch, m[1])
	}
	return ""
}

// DateFromLastModified parses the Last-Modified header (RFC 1123, with a
// dateparse fallback for malformed-but-recognizable dates as seen in the
// wild) into a vYYYY-MM-DD version.
func DateFromLastModified(lastModified string) string {
	if strings.TrimSpace(lastModified) == "" {
		return ""
	}
	if t, err := time.Parse(time.RFC1123, lastModified); err == nil {
		return "v" + t.UTC().Format("2006-01-02")
	}
	if t, err := dateparse.ParseAny(lastModified); err == nil {
		return "v" + t.UTC().Format("2006-01-02")
	}
	return ""
}

// Derive produces a canonical version string for strategy given a
// filename, the Last-Modified header value, and any regex-captured date
// groups, per the table in spec §4.7. now is injected so discovery runs
// are deterministic and testable.
func Derive(strategy, filename, lastModified string, regexGroups []string, now time.Time) types.Version {
	switch strategy {
	case StrategyDateToday:
		return types.Version("v" + now.UTC().Format("2006-01-02"))
	case StrategyDateFromFilenameOrLastModified:
		if v := DateFromFilename(filename, regexGroups); v != "" {
			return types.Version(v)
		}
		if v := DateFromLastModified(lastModified); v != "" {
			return types.Version(v)
		}
		return types.Unknown
	case StrategyBestEffortDateOrLastModified:
		if v := YearMonthFromSpanishMonth(filename); v != "" {
			return types.Version(v)
		}
		if v := DateFromFilename(filename, regexGroups); v != "" {
			return types.Version(v)
		}
		if v := DateFromLastModified(lastModified); v != "" {
			return types.Version(v)
		}
		return types.Unknown
	case StrategyNone:
		return types.Version("none")
	default:
		return types.Unknown
	}
}

// ParseForOrdering parses the version produced by Derive back into a
// time.Time so the selector can order candidates by the same date the
// version string encodes, without re-deriving it twice. Returns the zero
// time and false if v does not encode a date (e.g. "none"/"unknown").
func ParseForOrdering(v types.Version) (time.Time, bool) {
	s := string(v)
	s = strings.TrimPrefix(s, "v")
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// atoiOrZero is a tiny helper kept local to avoid pulling strconv into
// call sites that only need it here.
func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
