package resolve

import (
	"context"
	"errors"
	"testing"

	"github.com/ppiankov/cohortscan/internal/model"
)

// fakeFetcher serves canned pages by URL
type fakeFetcher struct {
	pages map[string]string
	err   error
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (*model.Page, error) {
	f.calls = append(f.calls, url)
	if f.err != nil {
		return nil, f.err
	}
	html, ok := f.pages[url]
	if !ok {
		return nil, errors.New("unexpected status: 404 Not Found")
	}
	return &model.Page{URL: url, FinalURL: url, HTML: html}, nil
}

const detailURL = "https://www.ycombinator.com/companies/acme-robotics"

func newTestResolver(html string) (*Resolver, *fakeFetcher) {
	f := &fakeFetcher{pages: map[string]string{detailURL: html}}
	cfg := model.DefaultConfig()
	return NewResolver(f, cfg.Resolve, cfg.Source.BaseURL, nil), f
}

func acme() model.Candidate {
	return model.Candidate{
		Identifier: "/companies/acme-robotics",
		Name:       "Acme Robotics",
		DetailURL:  detailURL,
		Slug:       "acme-robotics",
	}
}

func TestResolve_StructuredLink(t *testing.T) {
	r, f := newTestResolver(`<html><body>
		<a href="https://acme.dev">Website</a>
		<a href="https://www.linkedin.com/company/acme-robotics">LinkedIn</a>
	</body></html>`)

	out := r.Resolve(context.Background(), acme())
	if !out.OK() {
		t.Fatalf("expected success, got %v", out.Reason)
	}
	if out.Value.Website != "https://acme.dev" {
		t.Errorf("unexpected website %q", out.Value.Website)
	}
	if out.Value.ProfileURL != "https://www.linkedin.com/company/acme-robotics" {
		t.Errorf("unexpected profile %q", out.Value.ProfileURL)
	}
	if len(f.calls) != 1 || f.calls[0] != detailURL {
		t.Errorf("unexpected fetches %v", f.calls)
	}
}

func TestResolve_StructuredOutranksHeuristic(t *testing.T) {
	r, _ := newTestResolver(`<html><body>
		<a href="https://acmerobotics.io/blog">Blog</a>
		<a href="https://totally-different.example">Website</a>
	</body></html>`)

	out := r.Resolve(context.Background(), acme())
	if out.Value.Website != "https://totally-different.example" {
		t.Errorf("expected structured link, got %q", out.Value.Website)
	}
}

func TestResolve_HeuristicFallback(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected string
	}{
		{
			name:     "name match",
			html:     `<a href="https://twitter.com/acmerobotics">t</a><a href="https://www.acmerobotics.com/">home</a>`,
			expected: "https://www.acmerobotics.com/",
		},
		{
			name:     "first qualifying link wins",
			html:     `<a href="https://acmerobotics.io">a</a><a href="https://acmerobotics.com">b</a>`,
			expected: "https://acmerobotics.io",
		},
		{
			name:     "www prefix upgraded",
			html:     `<a href="www.acme-robotics.ai">site</a>`,
			expected: "https://www.acme-robotics.ai",
		},
		{
			name:     "denylisted host skipped",
			html:     `<a href="https://www.linkedin.com/company/acmerobotics">li</a>`,
			expected: "",
		},
		{
			name:     "relative links ignored",
			html:     `<a href="/companies/acme-robotics/jobs">jobs</a>`,
			expected: "",
		},
		{
			name:     "path match does not count",
			html:     `<a href="https://github.com/acmerobotics">gh</a>`,
			expected: "",
		},
		{
			name:     "structured link denylisted falls back",
			html:     `<a href="https://www.ycombinator.com/companies">Website</a><a href="https://acmerobotics.co">home</a>`,
			expected: "https://acmerobotics.co",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestResolver("<html><body>" + tt.html + "</body></html>")
			out := r.Resolve(context.Background(), acme())
			if !out.OK() {
				t.Fatalf("expected success, got %v", out.Reason)
			}
			if out.Value.Website != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, out.Value.Website)
			}
		})
	}
}

func TestResolve_SlugMatch(t *testing.T) {
	r, _ := newTestResolver(`<a href="https://getacmerobotics.com">home</a>`)
	c := acme()
	c.Name = "Zzz Unrelated"
	c.Slug = "getacmerobotics"

	out := r.Resolve(context.Background(), c)
	if out.Value.Website != "https://getacmerobotics.com" {
		t.Errorf("expected slug match, got %q", out.Value.Website)
	}
}

func TestResolve_EmptyNameNeverMatches(t *testing.T) {
	r, _ := newTestResolver(`<a href="https://anything.com">x</a>`)
	c := acme()
	c.Name = "!!!"
	c.Slug = ""

	out := r.Resolve(context.Background(), c)
	if out.Value.Website != "" {
		t.Errorf("expected no website, got %q", out.Value.Website)
	}
}

func TestResolve_ProfileIndependentOfWebsite(t *testing.T) {
	r, _ := newTestResolver(`<a href="https://www.linkedin.com/in/founder">founder</a>
		<a href="https://www.linkedin.com/company/acme-robotics/">company</a>`)

	out := r.Resolve(context.Background(), acme())
	if out.Value.Website != "" {
		t.Errorf("expected no website, got %q", out.Value.Website)
	}
	if out.Value.ProfileURL != "https://www.linkedin.com/company/acme-robotics/" {
		t.Errorf("unexpected profile %q", out.Value.ProfileURL)
	}
}

func TestResolve_FetchFailure(t *testing.T) {
	r, f := newTestResolver("")
	f.err = errors.New("connection reset")

	out := r.Resolve(context.Background(), acme())
	if out.OK() {
		t.Fatal("expected failure")
	}
	if !errors.Is(out.Reason, model.ErrDetailFetchFailed) {
		t.Errorf("expected ErrDetailFetchFailed, got %v", out.Reason)
	}
	if out.Value != (model.Resolution{}) {
		t.Errorf("expected empty resolution, got %+v", out.Value)
	}
}

func TestResolve_NeverReturnsDenylistedWebsite(t *testing.T) {
	denied := []string{
		"https://www.ycombinator.com/companies/acme-robotics",
		"https://startupschool.org/acmerobotics",
		"https://twitter.com/acmerobotics",
		"https://x.com/acmerobotics",
		"https://facebook.com/acmerobotics",
		"https://instagram.com/acmerobotics",
		"/r/goto?url=https%3A%2F%2Fwww.linkedin.com%2Fcompany%2Facme",
	}

	d := NewDenylist(model.DefaultConfig().Resolve.Denylist)
	for _, href := range denied {
		html := `<a href="` + href + `">Website</a><a href="` + href + `">again</a>`
		r, _ := newTestResolver(html)
		out := r.Resolve(context.Background(), acme())
		if w := out.Value.Website; w != "" && d.Blocks(w) {
			t.Errorf("denylisted website %q returned for %q", w, href)
		}
	}
}

func TestUnwrap(t *testing.T) {
	r, _ := newTestResolver("")

	tests := []struct {
		raw      string
		expected string
	}{
		{"", ""},
		{"https://acme.dev", "https://acme.dev"},
		{"http://acme.dev/path", "http://acme.dev/path"},
		{"https://www.linkedin.com/company/acme", ""},
		{"/r/goto?url=https%3A%2F%2Facme.dev", "https://acme.dev"},
		{"https://www.ycombinator.com/r/goto?url=https://acme.dev&x=1", "https://acme.dev"},
		{"/r/goto?url=javascript:alert(1)", ""},
		{"/r/goto?other=1", ""},
		{"acme.dev", "https://acme.dev"},
		{"/companies/acme", ""},
		{"mailto", ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := r.unwrap(tt.raw); got != tt.expected {
				t.Errorf("unwrap(%q) = %q, want %q", tt.raw, got, tt.expected)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Acme Robotics", "acmerobotics"},
		{"www.acme-bot.io", "wwwacmebotio"},
		{"Café Co.", "cafco"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
