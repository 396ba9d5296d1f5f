// Package resolve finds a company's website and profile link on its
// directory detail page.
package resolve

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ppiankov/cohortscan/internal/extract"
	"github.com/ppiankov/cohortscan/internal/model"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Fetcher retrieves a page over HTTP
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*model.Page, error)
}

// Resolver resolves candidates against their detail pages
type Resolver struct {
	fetcher  Fetcher
	cfg      model.ResolveConfig
	baseURL  string
	denylist *Denylist
	logger   *zap.Logger
}

// NewResolver creates a resolver. baseURL completes relative redirector links.
func NewResolver(fetcher Fetcher, cfg model.ResolveConfig, baseURL string, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		fetcher:  fetcher,
		cfg:      cfg,
		baseURL:  baseURL,
		denylist: NewDenylist(cfg.Denylist),
		logger:   logger,
	}
}

// Resolve fetches the candidate's detail page and returns its website and
// profile link. The structured website link always wins over the
// heuristic scan. A fetch or parse failure is reported as a failed outcome
// wrapping model.ErrDetailFetchFailed; Resolve never panics or aborts.
func (r *Resolver) Resolve(ctx context.Context, c model.Candidate) model.Outcome[model.Resolution] {
	page, err := r.fetcher.Fetch(ctx, c.DetailURL)
	if err != nil {
		r.logger.Warn("detail fetch failed", zap.String("company", c.Name), zap.String("url", c.DetailURL), zap.Error(err))
		return model.Failed[model.Resolution](eris.Wrapf(model.ErrDetailFetchFailed, "%s: %v", c.DetailURL, err))
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		r.logger.Warn("detail parse failed", zap.String("company", c.Name), zap.Error(err))
		return model.Failed[model.Resolution](eris.Wrapf(model.ErrDetailFetchFailed, "parse %s: %v", c.DetailURL, err))
	}

	var res model.Resolution

	res.Website = r.structuredWebsite(doc)
	if res.Website == "" {
		res.Website = r.heuristicWebsite(page.HTML, c)
		if res.Website != "" {
			r.logger.Info("fallback website found", zap.String("company", c.Name), zap.String("website", res.Website))
		} else {
			r.logger.Info("no website found", zap.String("company", c.Name))
		}
	}

	res.ProfileURL = r.profileLink(doc)

	return model.Success(res)
}

// structuredWebsite reads the first anchor labelled with the website text
func (r *Resolver) structuredWebsite(doc *goquery.Document) string {
	var href string
	doc.Find("a").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.TrimSpace(s.Text()) != r.cfg.WebsiteLinkText {
			return true
		}
		href, _ = s.Attr("href")
		return false
	})

	website := r.unwrap(href)
	if website == "" || r.denylist.Blocks(website) {
		return ""
	}
	return website
}

// heuristicWebsite returns the first outbound link whose host contains the
// company's normalized name or slug. Document order breaks ties.
func (r *Resolver) heuristicWebsite(html string, c model.Candidate) string {
	links, err := extract.OutboundLinks(html)
	if err != nil {
		r.logger.Debug("outbound link scan failed", zap.Error(err))
		return ""
	}

	name := Normalize(c.Name)
	slug := Normalize(c.Slug)
	if name == "" && slug == "" {
		return ""
	}

	for _, link := range links {
		if r.denylist.ContainsHost(link.Host) {
			continue
		}
		host := Normalize(link.Host)
		if (name != "" && strings.Contains(host, name)) || (slug != "" && strings.Contains(host, slug)) {
			return link.URL
		}
	}
	return ""
}

// profileLink returns the first href matching the profile pattern
func (r *Resolver) profileLink(doc *goquery.Document) string {
	if r.cfg.ProfilePattern == "" {
		return ""
	}

	var profile string
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		if strings.Contains(href, r.cfg.ProfilePattern) {
			profile = strings.TrimSpace(href)
			return false
		}
		return true
	})
	return profile
}

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]`)

// Normalize strips everything but ASCII letters and digits and lowercases
func Normalize(s string) string {
	return strings.ToLower(nonAlphanumeric.ReplaceAllString(s, ""))
}
