package discover

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	hrefRe = regexp.MustCompile(`(?i)href\s*=\s*["']([^"']+)["']`)
	locRe  = regexp.MustCompile(`(?i)<loc>\s*([^<\s]+)\s*</loc>`)
)

// ExtractLinks scans html for href attributes, resolves each against base,
// and returns the same-host absolute URLs in first-seen order without
// fragments or duplicates.
func ExtractLinks(base *url.URL, html string) []string {
	var links []string
	seen := make(map[string]bool)

	for _, m := range hrefRe.FindAllStringSubmatch(html, -1) {
		href := strings.TrimSpace(m[1])
		lower := strings.ToLower(href)
		if href == "" || strings.HasPrefix(href, "#") ||
			strings.HasPrefix(lower, "javascript:") ||
			strings.HasPrefix(lower, "mailto:") ||
			strings.HasPrefix(lower, "tel:") {
			continue
		}

		abs, ok := resolveSameHost(base, href)
		if !ok || seen[abs] {
			continue
		}
		seen[abs] = true
		links = append(links, abs)
	}
	return links
}

// resolveSameHost resolves href against base and reports whether the result
// is an http(s) URL on the base host.
func resolveSameHost(base *url.URL, href string) (string, bool) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	if !SameHost(abs.Host, base.Host) {
		return "", false
	}
	abs.Fragment = ""
	return abs.String(), true
}

// SameHost compares hosts case-insensitively, treating a leading "www." as
// insignificant since seed domains are stored without it.
func SameHost(a, b string) bool {
	return stripWWW(strings.ToLower(a)) == stripWWW(strings.ToLower(b))
}

func stripWWW(host string) string {
	return strings.TrimPrefix(host, "www.")
}
