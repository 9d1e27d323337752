package selecter

import (
	"testing"
	"time"

	"github.com/Franco1312/autodiscovery-sources/internal/contract"
	"github.com/Franco1312/autodiscovery-sources/internal/types"
)

func TestSelectNewestByDateFromFilename(t *testing.T) {
	candidates := []types.Candidate{
		{URL: "https://x/infomodia-2025-09-15.xls", Filename: "infomodia-2025-09-15.xls", RegexGroups: []string{"2025-09-15"}},
		{URL: "https://x/infomodia-2025-11-04.xls", Filename: "infomodia-2025-11-04.xls", RegexGroups: []string{"2025-11-04"}},
		{URL: "https://x/infomodia-2025-10-01.xls", Filename: "infomodia-2025-10-01.xls", RegexGroups: []string{"2025-10-01"}},
	}
	winner, ok := Select(candidates, contract.Select{NewestBy: NewestByDateFromFilenameOrLast})
	if !ok {
		t.Fatal("expected a winner")
	}
	if winner.URL != "https://x/infomodia-2025-11-04.xls" {
		t.Fatalf("expected newest dated candidate, got %s", winner.URL)
	}
}

func TestSelectSpanishMonth(t *testing.T) {
	candidates := []types.Candidate{
		{URL: "https://x/informe-septiembre-2025.pdf", Filename: "informe-septiembre-2025.pdf"},
		{URL: "https://x/informe-octubre-2025.pdf", Filename: "informe-octubre-2025.pdf"},
	}
	winner, ok := Select(candidates, contract.Select{NewestBy: NewestByBestEffort})
	if !ok || winner.URL != "https://x/informe-octubre-2025.pdf" {
		t.Fatalf("expected octubre winner, got %+v ok=%v", winner, ok)
	}
}

func TestSelectExtensionPreferencePartitionsFirst(t *testing.T) {
	candidates := []types.Candidate{
		{URL: "https://x/old.pdf", Filename: "old.pdf", LastModified: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), HasLastMod: true},
		{URL: "https://x/new.xlsx", Filename: "new.xlsx", LastModified: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), HasLastMod: true},
	}
	winner, ok := Select(candidates, contract.Select{
		PreferExt: []string{".xlsx", ".pdf"},
		NewestBy:  NewestByLastModified,
	})
	if !ok || winner.URL != "https://x/new.xlsx" {
		t.Fatalf("expected xlsx to win purely on extension preference despite older date, got %+v", winner)
	}
}

func TestSelectSingletonReturnsSoleMember(t *testing.T) {
	only := types.Candidate{URL: "https://x/only.pdf"}
	winner, ok := Select([]types.Candidate{only}, contract.Select{})
	if !ok || winner.URL != only.URL {
		t.Fatalf("expected sole member, got %+v", winner)
	}
}

func TestSelectEmptyReturnsNothing(t *testing.T) {
	_, ok := Select(nil, contract.Select{})
	if ok {
		t.Fatal("expected no winner for empty input")
	}
}

func TestSelectMissingLastModifiedTreatedAsNegativeInfinity(t *testing.T) {
	candidates := []types.Candidate{
		{URL: "https://x/no-date.pdf"},
		{URL: "https://x/dated.pdf", LastModified: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), HasLastMod: true},
	}
	winner, ok := Select(candidates, contract.Select{NewestBy: NewestByLastModified})
	if !ok || winner.URL != "https://x/dated.pdf" {
		t.Fatalf("expected dated candidate to win, got %+v", winner)
	}
}
