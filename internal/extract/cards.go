// Package extract parses rendered directory pages into candidates and
// scans detail pages for outbound links.
package extract

import (
	"fmt"
	"iter"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ppiankov/cohortscan/internal/model"
	"go.uber.org/zap"
)

// CardExtractor turns a fully loaded listing into unique candidates
type CardExtractor struct {
	cfg    model.SourceConfig
	logger *zap.Logger
}

// NewCardExtractor creates a card extractor for the given source
func NewCardExtractor(cfg model.SourceConfig, logger *zap.Logger) *CardExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CardExtractor{cfg: cfg, logger: logger}
}

// card is a listing item that survived deduplication
type card struct {
	href string
	sel  *goquery.Selection
}

// Cards parses html and returns the candidates in document order.
// Items are deduplicated on their link target before validation, so the
// first occurrence of an href decides whether that company is kept.
// The sequence is single-pass; call Cards again to regenerate it.
func (e *CardExtractor) Cards(html string) (iter.Seq[model.Candidate], int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, 0, fmt.Errorf("parse listing: %w", err)
	}

	var cards []card
	seen := make(map[string]bool)

	doc.Find(e.cfg.CardSelector).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" {
			return
		}
		if seen[href] {
			return
		}
		seen[href] = true
		cards = append(cards, card{href: href, sel: s})
	})

	consumed := false
	seq := func(yield func(model.Candidate) bool) {
		if consumed {
			return
		}
		consumed = true

		for _, c := range cards {
			cand, err := e.parseCard(c)
			if err != nil {
				e.logger.Info("skipping card", zap.String("href", c.href), zap.Error(err))
				continue
			}
			if !yield(cand) {
				return
			}
		}
	}

	return seq, len(cards), nil
}

func (e *CardExtractor) parseCard(c card) (model.Candidate, error) {
	name := strings.TrimSpace(c.sel.Find(e.cfg.NameSelector).First().Text())
	if name == "" {
		return model.Candidate{}, fmt.Errorf("%w: no name", model.ErrCandidateRejected)
	}

	batch := e.matchCohort(c.sel)
	if batch == "" {
		return model.Candidate{}, fmt.Errorf("%w: %s has no valid batch tag", model.ErrCandidateRejected, name)
	}

	detailURL := joinURL(e.cfg.BaseURL, c.href)

	return model.Candidate{
		Identifier:  c.href,
		Name:        name,
		Description: strings.TrimSpace(c.sel.Find(e.cfg.DescriptionSelector).First().Text()),
		Batch:       batch,
		DetailURL:   detailURL,
		Slug:        Slug(detailURL),
	}, nil
}

// matchCohort returns the text of the first label naming an accepted cohort
func (e *CardExtractor) matchCohort(s *goquery.Selection) string {
	var batch string
	s.Find(e.cfg.LabelSelector).EachWithBreak(func(_ int, label *goquery.Selection) bool {
		text := label.Text()
		for _, accepted := range e.cfg.CohortLabels {
			if accepted != "" && strings.Contains(text, accepted) {
				batch = strings.TrimSpace(text)
				return false
			}
		}
		return true
	})
	return batch
}

// joinURL resolves href against base; absolute hrefs are returned unchanged
func joinURL(base, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return strings.TrimRight(base, "/") + href
	}
	if ref.IsAbs() {
		return href
	}
	b, err := url.Parse(base)
	if err != nil {
		return strings.TrimRight(base, "/") + href
	}
	return b.ResolveReference(ref).String()
}

// Slug returns the last path segment of a detail URL
func Slug(detailURL string) string {
	trimmed := strings.TrimRight(detailURL, "/")
	if u, err := url.Parse(trimmed); err == nil && u.Path != "" {
		trimmed = strings.TrimRight(u.Path, "/")
	}
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		return trimmed[idx+1:]
	}
	return trimmed
}
