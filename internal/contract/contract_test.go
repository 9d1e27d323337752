package contract

import "testing"

func TestExtractRegexGroupsReturnsFirstMatchingPattern(t *testing.T) {
	match := Match{Patterns: []string{
		`no-such-shape`,
		`(\d{4}-\d{2}-\d{2})`,
		`(\d{4})-(\d{2})`,
	}}
	groups := ExtractRegexGroups("infomodia-2025-11-04.xls", match)
	if len(groups) != 1 || groups[0] != "2025-11-04" {
		t.Fatalf("expected single captured date, got %#v", groups)
	}
}

func TestExtractRegexGroupsSkipsInvalidPatternsInsteadOfAborting(t *testing.T) {
	match := Match{Patterns: []string{
		`(unterminated[`,
		`(\d{4})`,
	}}
	groups := ExtractRegexGroups("report-2025.xls", match)
	if len(groups) != 1 || groups[0] != "2025" {
		t.Fatalf("expected the later valid pattern to still match, got %#v", groups)
	}
}

func TestExtractRegexGroupsIsCaseInsensitive(t *testing.T) {
	match := Match{Patterns: []string{`(final)`}}
	groups := ExtractRegexGroups("Report-FINAL.xls", match)
	if len(groups) != 1 || groups[0] != "FINAL" {
		t.Fatalf("expected case-insensitive capture, got %#v", groups)
	}
}

func TestExtractRegexGroupsReturnsNilWhenNothingMatches(t *testing.T) {
	match := Match{Patterns: []string{`(\d{4})`}}
	if groups := ExtractRegexGroups("no-digits-here.xls", match); groups != nil {
		t.Fatalf("expected nil, got %#v", groups)
	}
}

func TestExtractRegexGroupsReturnsWholeMatchWithoutCaptureGroups(t *testing.T) {
	match := Match{Patterns: []string{`report`}}
	groups := ExtractRegexGroups("monthly-report.xls", match)
	if len(groups) != 1 || groups[0] != "report" {
		t.Fatalf("expected whole match as the only element, got %#v", groups)
	}
}

func TestContractValidateRequiresKey(t *testing.T) {
	c := Contract{SourceType: SourceHTML, StartURLs: []string{"https://example.com"}}
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestContractValidateRequiresStartURLForHTML(t *testing.T) {
	c := Contract{Key: "demo", SourceType: SourceHTML}
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for html source with no start_urls")
	}
}

func TestContractValidateRequiresStartURLForAPI(t *testing.T) {
	c := Contract{Key: "demo", SourceType: SourceAPI}
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for api source with no start_urls")
	}
}

func TestContractValidateRejectsUnknownSourceType(t *testing.T) {
	c := Contract{Key: "demo", SourceType: "ftp", StartURLs: []string{"https://example.com"}}
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for unknown source_type")
	}
}

func TestContractValidateAcceptsWellFormedContract(t *testing.T) {
	c := Contract{Key: "demo", SourceType: SourceHTML, StartURLs: []string{"https://example.com"}}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected well-formed contract to validate, got %v", err)
	}
}
