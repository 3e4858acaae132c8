// Package discover finds the pages on a firm's site that are likely to hold
// one attorney's bio: sitemap.xml first, then well-known index paths.
package discover

import (
	"context"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/contact-mapper/internal/fetcher"
	"github.com/sells-group/contact-mapper/internal/metrics"
	"github.com/sells-group/contact-mapper/internal/model"
)

// MaxCandidates is the hard ceiling on profile URLs per firm.
const MaxCandidates = 25

// maxChildSitemaps bounds how many child sitemaps of a sitemap index are read.
const maxChildSitemaps = 5

// ProbePaths are tried in order when the sitemap yields nothing.
var ProbePaths = []string{
	"/people",
	"/people/",
	"/lawyers",
	"/lawyers/",
	"/attorneys",
	"/attorneys/",
	"/professionals",
	"/professionals/",
	"/team",
	"/team/",
	"/our-people",
	"/our-people/",
	"/who-we-are",
	"/who-we-are/",
}

// childSitemapHints select which children of a sitemap index are worth reading.
var childSitemapHints = []string{"people", "lawyer", "attorney", "professional", "bio", "team", "person"}

// Options configures a Discoverer.
type Options struct {
	// MaxCandidates caps the result; values <= 0 or above MaxCandidates
	// fall back to MaxCandidates.
	MaxCandidates int
	// ExcludePaths are extra glob patterns rejected by the profile matcher.
	ExcludePaths []string
}

// Discoverer finds candidate profile URLs for a site. All fetches are
// sequential.
type Discoverer struct {
	fetcher fetcher.Fetcher
	matcher *ProfileMatcher
	max     int
}

// New creates a Discoverer that fetches through f.
func New(f fetcher.Fetcher, opts Options) *Discoverer {
	limit := opts.MaxCandidates
	if limit <= 0 || limit > MaxCandidates {
		limit = MaxCandidates
	}
	return &Discoverer{
		fetcher: f,
		matcher: NewProfileMatcher(opts.ExcludePaths),
		max:     limit,
	}
}

// Matcher returns the profile matcher in use.
func (d *Discoverer) Matcher() *ProfileMatcher {
	return d.matcher
}

// Discover returns an ordered, deduplicated, capped list of candidate profile
// URLs for baseURL (scheme + host, no trailing slash). Unreachable paths
// contribute nothing; only an invalid base URL or a cancelled context is an
// error.
func (d *Discoverer) Discover(ctx context.Context, baseURL string) (*model.DiscoveryResult, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return nil, eris.Errorf("discover: invalid base url %q", baseURL)
	}

	log := zap.L().With(zap.String("base", baseURL))

	urls, err := d.fromSitemap(ctx, base)
	if err != nil {
		return nil, err
	}
	if len(urls) > 0 {
		metrics.Discoveries.WithLabelValues(string(model.DiscoverySitemap)).Inc()
		log.Debug("discover: using sitemap", zap.Int("candidates", len(urls)))
		return &model.DiscoveryResult{
			URLs:   d.capped(urls),
			Method: model.DiscoverySitemap,
		}, nil
	}

	var (
		indexPages []string
		collected  = newOrderedSet()
	)
	for _, p := range ProbePaths {
		pageURL := baseURL + p
		resp, err := d.fetcher.Fetch(ctx, pageURL)
		metrics.RecordFetch(metrics.KindProbe, err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, eris.Wrap(ctxErr, "discover: probe")
		}
		if err != nil {
			log.Debug("discover: probe miss", zap.String("url", pageURL), zap.Error(err))
			continue
		}
		indexPages = append(indexPages, pageURL)
		for _, link := range ExtractLinks(base, resp.Text()) {
			if d.matcher.IsProfile(link) {
				collected.add(link)
			}
		}
	}

	method := model.DiscoveryProbe
	if len(indexPages) == 0 {
		method = model.DiscoveryNone
	}
	metrics.Discoveries.WithLabelValues(string(method)).Inc()
	log.Debug("discover: probed index pages",
		zap.Int("index_pages", len(indexPages)),
		zap.Int("candidates", collected.len()),
	)

	return &model.DiscoveryResult{
		URLs:       d.capped(collected.items),
		Method:     method,
		IndexPages: indexPages,
	}, nil
}

// fromSitemap fetches /sitemap.xml and returns qualifying profile URLs. A
// sitemap index is followed one level deep into children whose names hint at
// people listings.
func (d *Discoverer) fromSitemap(ctx context.Context, base *url.URL) ([]string, error) {
	sitemapURL := base.Scheme + "://" + base.Host + "/sitemap.xml"
	resp, err := d.fetcher.Fetch(ctx, sitemapURL)
	metrics.RecordFetch(metrics.KindSitemap, err)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, eris.Wrap(ctxErr, "discover: sitemap")
	}
	if err != nil || !hasLoc(resp.Body) {
		return nil, nil
	}

	locs := parseSitemapLocs(resp.Body)
	profiles := sitemapProfiles(base, locs, d.matcher)
	if len(profiles) > 0 || !isSitemapIndex(resp.Body) {
		return profiles, nil
	}

	set := newOrderedSet()
	read := 0
	for _, loc := range locs {
		if read >= maxChildSitemaps || set.len() >= d.max {
			break
		}
		if !isPeopleSitemap(base, loc) {
			continue
		}
		read++
		child, err := d.fetcher.Fetch(ctx, loc)
		metrics.RecordFetch(metrics.KindSitemap, err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, eris.Wrap(ctxErr, "discover: child sitemap")
		}
		if err != nil || !hasLoc(child.Body) {
			continue
		}
		for _, u := range sitemapProfiles(base, parseSitemapLocs(child.Body), d.matcher) {
			set.add(u)
		}
	}
	return set.items, nil
}

func (d *Discoverer) capped(urls []string) []string {
	if len(urls) > d.max {
		return urls[:d.max]
	}
	return urls
}

func isSitemapIndex(body []byte) bool {
	return strings.Contains(strings.ToLower(string(body)), "<sitemapindex")
}

func isPeopleSitemap(base *url.URL, loc string) bool {
	u, err := url.Parse(loc)
	if err != nil || !SameHost(u.Host, base.Host) {
		return false
	}
	p := strings.ToLower(u.Path)
	if !strings.HasSuffix(p, ".xml") {
		return false
	}
	for _, hint := range childSitemapHints {
		if strings.Contains(p, hint) {
			return true
		}
	}
	return false
}

// orderedSet keeps insertion order so truncation is deterministic.
type orderedSet struct {
	seen  map[string]bool
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]bool)}
}

func (s *orderedSet) add(v string) {
	if s.seen[v] {
		return
	}
	s.seen[v] = true
	s.items = append(s.items, v)
}

func (s *orderedSet) len() int {
	return len(s.items)
}
