package resolve

import (
	"net/url"
	"strings"
)

// Denylist matches hosts that never count as a company's own website
type Denylist struct {
	domains map[string]bool
}

// NewDenylist creates a denylist from bare domain names
func NewDenylist(domains []string) *Denylist {
	d := &Denylist{domains: make(map[string]bool, len(domains))}
	for _, domain := range domains {
		domain = normalizeHost(domain)
		if domain != "" {
			d.domains[domain] = true
		}
	}
	return d
}

// ContainsHost reports whether host is a listed domain or a subdomain of one
func (d *Denylist) ContainsHost(host string) bool {
	host = normalizeHost(host)
	if host == "" {
		return false
	}

	if d.domains[host] {
		return true
	}

	// foo.linkedin.com is covered by linkedin.com
	for domain := range d.domains {
		if strings.HasSuffix(host, "."+domain) {
			return true
		}
	}

	return false
}

// Blocks reports whether rawURL points at a denylisted host.
// URLs without a parseable host are blocked.
func (d *Denylist) Blocks(rawURL string) bool {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host == "" {
		return true
	}
	return d.ContainsHost(parsed.Hostname())
}

func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	host = strings.TrimSuffix(host, ".")
	if idx := strings.Index(host, ":"); idx > 0 {
		host = host[:idx]
	}
	return host
}
