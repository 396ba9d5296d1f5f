// Package profile reads a company profile page and looks for the cohort
// marker in its description.
package profile

import (
	"context"
	"net/http"
	"strings"

	"github.com/ppiankov/cohortscan/internal/model"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// Fetcher retrieves a page over HTTP
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*model.Page, error)
}

// Inspector inspects profile pages
type Inspector struct {
	fetcher Fetcher
	markers []string
	logger  *zap.Logger
}

// NewInspector creates an inspector matching any of cfg.Markers
func NewInspector(fetcher Fetcher, cfg model.ProfileConfig, logger *zap.Logger) *Inspector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Inspector{
		fetcher: fetcher,
		markers: cfg.Markers,
		logger:  logger,
	}
}

// Inspect fetches profileURL and reads its meta description. Fetch errors
// and any status other than 200 give a failed outcome wrapping
// model.ErrProfileFetchFailed. A page without a description succeeds with
// an empty description and no marker.
func (i *Inspector) Inspect(ctx context.Context, profileURL string) model.Outcome[model.Inspection] {
	if strings.TrimSpace(profileURL) == "" {
		return model.Success(model.Inspection{})
	}

	page, err := i.fetcher.Fetch(ctx, profileURL)
	if err != nil {
		i.logger.Debug("profile fetch failed", zap.String("url", profileURL), zap.Error(err))
		return model.Failed[model.Inspection](eris.Wrapf(model.ErrProfileFetchFailed, "%s: %v", profileURL, err))
	}
	// Fetchers reject non-2xx; this catches 204, 206 and other partial answers.
	if page.Meta.StatusCode != 0 && page.Meta.StatusCode != http.StatusOK {
		return model.Failed[model.Inspection](eris.Wrapf(model.ErrProfileFetchFailed, "%s: status %d", profileURL, page.Meta.StatusCode))
	}

	desc := MetaDescription(page.HTML)
	return model.Success(model.Inspection{
		Description:   desc,
		MarkerPresent: MarkerPresent(desc, i.markers),
	})
}

// MarkerPresent reports whether desc contains any marker verbatim
func MarkerPresent(desc string, markers []string) bool {
	if desc == "" {
		return false
	}
	for _, m := range markers {
		if m != "" && strings.Contains(desc, m) {
			return true
		}
	}
	return false
}

// MetaDescription returns the content of the first
// <meta name="description"> element, or "".
func MetaDescription(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return ""
	}

	var desc string
	var found bool

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found {
			return
		}
		if n.Type == html.ElementNode && n.Data == "meta" {
			var name, content string
			var hasContent bool
			for _, a := range n.Attr {
				switch strings.ToLower(a.Key) {
				case "name":
					name = a.Val
				case "content":
					content = a.Val
					hasContent = true
				}
			}
			if strings.EqualFold(name, "description") && hasContent {
				desc = strings.TrimSpace(content)
				found = true
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)
	return desc
}
