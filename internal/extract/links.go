package extract

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Link is an outbound anchor found on a page
type Link struct {
	URL  string
	Host string // lowercased, without port
	Text string
}

// OutboundLinks returns the absolute links of a page in document order.
// Only hrefs that name their own host count: "http(s)://..." or a bare
// "www." prefix, which is upgraded to https. Relative links, fragments
// and non-web schemes are skipped. Repeated URLs are kept once.
func OutboundLinks(htmlContent string) ([]Link, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, err
	}

	var links []Link
	seen := make(map[string]bool)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if link, ok := absoluteLink(attr(n, "href")); ok && !seen[link.URL] {
				seen[link.URL] = true
				link.Text = strings.TrimSpace(textContent(n))
				links = append(links, link)
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)

	return links, nil
}

func absoluteLink(href string) (Link, bool) {
	href = strings.TrimSpace(href)
	lower := strings.ToLower(href)

	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
	case strings.HasPrefix(lower, "www."):
		href = "https://" + href
	default:
		return Link{}, false
	}

	parsed, err := url.Parse(href)
	if err != nil || parsed.Host == "" {
		return Link{}, false
	}

	return Link{
		URL:  href,
		Host: strings.ToLower(parsed.Hostname()),
	}, true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}

	var buf strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		buf.WriteString(textContent(c))
	}
	return buf.String()
}
