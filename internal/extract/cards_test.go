package extract

import (
	"slices"
	"testing"

	"github.com/ppiankov/cohortscan/internal/model"
	"go.uber.org/zap/zaptest"
)

func newTestExtractor(t *testing.T) *CardExtractor {
	return NewCardExtractor(model.DefaultConfig().Source, zaptest.NewLogger(t))
}

func companyCard(href, name, desc string, labels ...string) string {
	out := `<a class="_company_i9oky_355" href="` + href + `">`
	if name != "" {
		out += `<span class="_coName_i9oky_470">` + name + `</span>`
	}
	if desc != "" {
		out += `<div class="text-sm">` + desc + `</div>`
	}
	for _, l := range labels {
		out += `<span class="pill _pill_i9oky_33">` + l + `</span>`
	}
	return out + `</a>`
}

func collect(t *testing.T, e *CardExtractor, html string) []model.Candidate {
	t.Helper()
	seq, _, err := e.Cards(html)
	if err != nil {
		t.Fatalf("Cards failed: %v", err)
	}
	return slices.Collect(seq)
}

func TestCards_BasicFields(t *testing.T) {
	page := `<html><body><div>` +
		companyCard("/companies/acme", " Acme ", " Rockets for everyone ", "Summer 2025", "B2B") +
		`</div></body></html>`

	got := collect(t, newTestExtractor(t), page)
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}

	want := model.Candidate{
		Identifier:  "/companies/acme",
		Name:        "Acme",
		Description: "Rockets for everyone",
		Batch:       "Summer 2025",
		DetailURL:   "https://www.ycombinator.com/companies/acme",
		Slug:        "acme",
	}
	if got[0] != want {
		t.Errorf("expected %+v, got %+v", want, got[0])
	}
}

func TestCards_DedupKeepsFirstOccurrence(t *testing.T) {
	page := companyCard("/companies/acme", "Acme", "first", "Summer 2025") +
		companyCard("/companies/beta", "Beta", "", "Summer 2025") +
		companyCard("/companies/acme", "Acme Duplicate", "second", "Summer 2025") +
		companyCard("/companies/beta", "Beta Again", "", "Summer 2025")

	got := collect(t, newTestExtractor(t), page)
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d: %+v", len(got), got)
	}

	seen := make(map[string]int)
	for _, c := range got {
		seen[c.Identifier]++
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("identifier %s appears %d times", id, n)
		}
	}

	if got[0].Name != "Acme" || got[0].Description != "first" {
		t.Errorf("expected first occurrence fields, got %+v", got[0])
	}
	if got[1].Name != "Beta" {
		t.Errorf("expected Beta second, got %+v", got[1])
	}
}

func TestCards_CohortFilter(t *testing.T) {
	page := companyCard("/companies/old", "Old Co", "", "Winter 2021") +
		companyCard("/companies/none", "No Labels", "") +
		companyCard("/companies/lower", "Lower", "", "summer 2025") +
		companyCard("/companies/spring", "Spring Co", "", "Fintech", "Spring 2025", "Summer 2025")

	got := collect(t, newTestExtractor(t), page)
	if len(got) != 1 {
		t.Fatalf("expected only the matching candidate, got %+v", got)
	}
	if got[0].Identifier != "/companies/spring" {
		t.Errorf("unexpected candidate %+v", got[0])
	}
	if got[0].Batch != "Spring 2025" {
		t.Errorf("expected first matching label to win, got %q", got[0].Batch)
	}
}

func TestCards_DropsMissingHrefAndName(t *testing.T) {
	page := `<a class="_company_x"><span class="_coName_x">No Href</span><span class="pill">Summer 2025</span></a>` +
		companyCard("/companies/nameless", "", "", "Summer 2025") +
		companyCard("/companies/ok", "Ok", "", "Summer 2025")

	got := collect(t, newTestExtractor(t), page)
	if len(got) != 1 || got[0].Name != "Ok" {
		t.Fatalf("expected only Ok, got %+v", got)
	}
}

func TestCards_UniqueCount(t *testing.T) {
	page := companyCard("/companies/a", "A", "", "Summer 2025") +
		companyCard("/companies/a", "A", "", "Summer 2025") +
		companyCard("/companies/b", "B", "", "Winter 2020")

	_, total, err := newTestExtractor(t).Cards(page)
	if err != nil {
		t.Fatalf("Cards failed: %v", err)
	}
	if total != 2 {
		t.Errorf("expected 2 unique cards, got %d", total)
	}
}

func TestCards_SinglePass(t *testing.T) {
	page := companyCard("/companies/a", "A", "", "Summer 2025")

	seq, _, err := newTestExtractor(t).Cards(page)
	if err != nil {
		t.Fatalf("Cards failed: %v", err)
	}

	if n := len(slices.Collect(seq)); n != 1 {
		t.Fatalf("expected 1 candidate on first pass, got %d", n)
	}
	if n := len(slices.Collect(seq)); n != 0 {
		t.Errorf("expected exhausted sequence on second pass, got %d", n)
	}
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"https://www.ycombinator.com/companies/acme":  "acme",
		"https://www.ycombinator.com/companies/acme/": "acme",
		"/companies/acme-ai":                          "acme-ai",
		"acme":                                        "acme",
	}
	for in, want := range tests {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}
