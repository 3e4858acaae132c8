package discover

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/contact-mapper/internal/fetcher"
	"github.com/sells-group/contact-mapper/internal/model"
)

// site is a fake firm website that records every requested path.
type site struct {
	mu    sync.Mutex
	pages map[string]string
	hits  []string
	srv   *httptest.Server
}

func newSite(t *testing.T, pages map[string]string) *site {
	t.Helper()
	s := &site{pages: pages}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits = append(s.hits, r.URL.Path)
		s.mu.Unlock()

		body, ok := s.pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(strings.ReplaceAll(body, "{base}", s.srv.URL)))
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *site) requested() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.hits...)
}

func newTestDiscoverer(opts Options) *Discoverer {
	return New(fetcher.NewHTTPFetcher(fetcher.Options{Timeout: 2 * time.Second}), opts)
}

func sitemap(locs ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	for _, l := range locs {
		fmt.Fprintf(&b, "<url><loc>%s</loc></url>", l)
	}
	b.WriteString("</urlset>")
	return b.String()
}

func TestDiscover_SitemapHasPriority(t *testing.T) {
	s := newSite(t, map[string]string{
		"/sitemap.xml": sitemap("{base}/", "{base}/people/jane-doe", "{base}/about", "{base}/people/jane-doe"),
		"/people":      `<a href="/people/should-not-be-used">x</a>`,
	})

	res, err := newTestDiscoverer(Options{}).Discover(context.Background(), s.srv.URL)
	require.NoError(t, err)

	assert.Equal(t, model.DiscoverySitemap, res.Method)
	assert.Equal(t, []string{s.srv.URL + "/people/jane-doe"}, res.URLs)
	assert.Equal(t, []string{"/sitemap.xml"}, s.requested(), "probing must not run")
}

func TestDiscover_SitemapWithoutProfilesFallsBackToProbe(t *testing.T) {
	s := newSite(t, map[string]string{
		"/sitemap.xml": sitemap("{base}/", "{base}/about", "{base}/practices/ma"),
		"/people":      `<a href="/people/jane-doe">Jane</a>`,
	})

	res, err := newTestDiscoverer(Options{}).Discover(context.Background(), s.srv.URL)
	require.NoError(t, err)

	assert.Equal(t, model.DiscoveryProbe, res.Method)
	assert.Equal(t, []string{s.srv.URL + "/people/jane-doe"}, res.URLs)
	assert.Equal(t, []string{s.srv.URL + "/people"}, res.IndexPages)
}

func TestDiscover_SitemapCrossHostLocsDiscarded(t *testing.T) {
	s := newSite(t, map[string]string{
		"/sitemap.xml": sitemap("https://other.example/people/x", "{base}/people/mine"),
	})

	res, err := newTestDiscoverer(Options{}).Discover(context.Background(), s.srv.URL)
	require.NoError(t, err)
	assert.Equal(t, []string{s.srv.URL + "/people/mine"}, res.URLs)
}

func TestDiscover_ProbeOrderAndFiltering(t *testing.T) {
	s := newSite(t, map[string]string{
		"/people": `<a href="/people/b">B</a><a href="/people/a">A</a>
<a href="/people">root</a><a href="/people/a.pdf">pdf</a>
<a href="https://elsewhere.example/people/z">z</a>`,
		"/attorneys/": `<a href='{base}/attorneys/c'>C</a><a href="/people/b">dup</a>`,
		"/who-we-are": `<a href="/team/d">D</a>`,
	})

	res, err := newTestDiscoverer(Options{}).Discover(context.Background(), s.srv.URL)
	require.NoError(t, err)

	assert.Equal(t, model.DiscoveryProbe, res.Method)
	assert.Equal(t, []string{
		s.srv.URL + "/people/b",
		s.srv.URL + "/people/a",
		s.srv.URL + "/attorneys/c",
		s.srv.URL + "/team/d",
	}, res.URLs)
	assert.Equal(t, []string{
		s.srv.URL + "/people",
		s.srv.URL + "/attorneys/",
		s.srv.URL + "/who-we-are",
	}, res.IndexPages)

	// Every probe path is tried exactly once, in order, after the sitemap.
	want := append([]string{"/sitemap.xml"}, ProbePaths...)
	assert.Equal(t, want, s.requested())
}

func TestDiscover_CapsAtTwentyFive(t *testing.T) {
	var locs []string
	for i := range 30 {
		locs = append(locs, fmt.Sprintf("{base}/people/p%02d", i))
	}
	s := newSite(t, map[string]string{"/sitemap.xml": sitemap(locs...)})

	res, err := newTestDiscoverer(Options{}).Discover(context.Background(), s.srv.URL)
	require.NoError(t, err)
	require.Len(t, res.URLs, MaxCandidates)
	assert.Equal(t, s.srv.URL+"/people/p00", res.URLs[0])
	assert.Equal(t, s.srv.URL+"/people/p24", res.URLs[24])
}

func TestDiscover_MaxCandidatesOption(t *testing.T) {
	var locs []string
	for i := range 30 {
		locs = append(locs, fmt.Sprintf("{base}/people/p%02d", i))
	}
	s := newSite(t, map[string]string{"/sitemap.xml": sitemap(locs...)})

	res, err := newTestDiscoverer(Options{MaxCandidates: 10}).Discover(context.Background(), s.srv.URL)
	require.NoError(t, err)
	assert.Len(t, res.URLs, 10)

	res, err = newTestDiscoverer(Options{MaxCandidates: 100}).Discover(context.Background(), s.srv.URL)
	require.NoError(t, err)
	assert.Len(t, res.URLs, MaxCandidates, "cannot exceed the hard ceiling")
}

func TestDiscover_ProbeCap(t *testing.T) {
	var b strings.Builder
	for i := range 40 {
		fmt.Fprintf(&b, `<a href="/lawyers/l%02d">x</a>`, i)
	}
	s := newSite(t, map[string]string{"/lawyers": b.String()})

	res, err := newTestDiscoverer(Options{}).Discover(context.Background(), s.srv.URL)
	require.NoError(t, err)
	assert.Len(t, res.URLs, MaxCandidates)
}

func TestDiscover_Deterministic(t *testing.T) {
	s := newSite(t, map[string]string{
		"/team":    `<a href="/team/x">x</a><a href="/team/y">y</a>`,
		"/people/": `<a href="/people/z">z</a>`,
	})

	d := newTestDiscoverer(Options{})
	first, err := d.Discover(context.Background(), s.srv.URL)
	require.NoError(t, err)
	second, err := d.Discover(context.Background(), s.srv.URL)
	require.NoError(t, err)
	assert.Equal(t, first.URLs, second.URLs)
}

func TestDiscover_SitemapIndexFollowsPeopleChild(t *testing.T) {
	s := newSite(t, map[string]string{
		"/sitemap.xml": `<?xml version="1.0"?><sitemapindex>
<sitemap><loc>{base}/sitemap-posts.xml</loc></sitemap>
<sitemap><loc>{base}/sitemap-people.xml</loc></sitemap>
</sitemapindex>`,
		"/sitemap-people.xml": sitemap("{base}/people/jane-doe"),
		"/sitemap-posts.xml":  sitemap("{base}/people/should-not-be-read"),
	})

	res, err := newTestDiscoverer(Options{}).Discover(context.Background(), s.srv.URL)
	require.NoError(t, err)
	assert.Equal(t, model.DiscoverySitemap, res.Method)
	assert.Equal(t, []string{s.srv.URL + "/people/jane-doe"}, res.URLs)
	assert.NotContains(t, s.requested(), "/sitemap-posts.xml")
	assert.NotContains(t, s.requested(), "/people")
}

func TestDiscover_NothingReachable(t *testing.T) {
	s := newSite(t, map[string]string{})

	res, err := newTestDiscoverer(Options{}).Discover(context.Background(), s.srv.URL)
	require.NoError(t, err)
	assert.Equal(t, model.DiscoveryNone, res.Method)
	assert.Empty(t, res.URLs)
	assert.Empty(t, res.IndexPages)
}

func TestDiscover_FetchErrorsSwallowed(t *testing.T) {
	calls := 0
	f := fetcher.Func(func(_ context.Context, u string) (*fetcher.Response, error) {
		calls++
		if strings.HasSuffix(u, "/team") {
			return &fetcher.Response{URL: u, StatusCode: 200, Body: []byte(`<a href="/team/jane">j</a>`)}, nil
		}
		return nil, &fetcher.FetchError{URL: u, Reason: fetcher.ReasonTimeout}
	})

	res, err := New(f, Options{}).Discover(context.Background(), "https://acme.example")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://acme.example/team/jane"}, res.URLs)
	assert.Equal(t, 1+len(ProbePaths), calls)
}

func TestDiscover_InvalidBase(t *testing.T) {
	_, err := newTestDiscoverer(Options{}).Discover(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestDiscover_CancelledContext(t *testing.T) {
	s := newSite(t, map[string]string{"/people": `<a href="/people/x">x</a>`})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestDiscoverer(Options{}).Discover(ctx, s.srv.URL)
	assert.ErrorIs(t, err, context.Canceled)
}
