package discover

import (
	"bytes"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/contact-mapper/internal/fetcher"
)

// maxSitemapLocs bounds how many <loc> entries are examined per sitemap.
const maxSitemapLocs = 50000

// hasLoc reports whether body contains at least one <loc> element.
func hasLoc(body []byte) bool {
	return bytes.Contains(bytes.ToLower(body), []byte("<loc>"))
}

// parseSitemapLocs returns every <loc> value in document order. It decodes
// with the XML decoder first and falls back to a regexp scan for documents
// that are not well-formed.
func parseSitemapLocs(body []byte) []string {
	locs, err := fetcher.CollectXML[string](body, "loc", maxSitemapLocs)
	if err != nil {
		zap.L().Debug("discover: sitemap not well-formed, scanning", zap.Error(err))
		locs = nil
		for _, m := range locRe.FindAllSubmatch(body, maxSitemapLocs) {
			locs = append(locs, string(m[1]))
		}
	}

	out := make([]string, 0, len(locs))
	for _, loc := range locs {
		if loc = strings.TrimSpace(loc); loc != "" {
			out = append(out, loc)
		}
	}
	return out
}

// sitemapProfiles filters sitemap locations down to same-host profile URLs.
func sitemapProfiles(base *url.URL, locs []string, matcher *ProfileMatcher) []string {
	var out []string
	seen := make(map[string]bool)
	for _, loc := range locs {
		u, err := url.Parse(loc)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			continue
		}
		if !SameHost(u.Host, base.Host) {
			continue
		}
		if !matcher.IsProfile(loc) || seen[loc] {
			continue
		}
		seen[loc] = true
		out = append(out, loc)
	}
	return out
}
