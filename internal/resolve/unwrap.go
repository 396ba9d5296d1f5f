package resolve

import (
	"net/url"
	"strings"
)

// unwrap turns the href of a structured website link into the company's
// URL. Redirector links carry the target in a query parameter; plain
// http(s) links pass unless denylisted; bare domains gain https://.
// Anything else yields "".
func (r *Resolver) unwrap(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	switch {
	case r.cfg.RedirectMarker != "" && strings.Contains(raw, r.cfg.RedirectMarker):
		if strings.HasPrefix(raw, "/") {
			raw = strings.TrimRight(r.baseURL, "/") + raw
		}
		parsed, err := url.Parse(raw)
		if err != nil {
			return ""
		}
		target := parsed.Query().Get(r.cfg.RedirectParam)
		if isHTTP(target) {
			return target
		}
		return ""

	case isHTTP(raw):
		if r.denylist.Blocks(raw) {
			return ""
		}
		return raw

	case strings.Contains(raw, ".") && !strings.HasPrefix(raw, "/"):
		return "https://" + raw
	}

	return ""
}

func isHTTP(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
