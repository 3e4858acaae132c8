package discover

import (
	"net/url"
	"path"
	"strings"
)

// profileSignals are path segments that mark an attorney bio page.
var profileSignals = []string{
	"/people/",
	"/lawyers/",
	"/attorneys/",
	"/professionals/",
	"/professional/",
	"/bio/",
	"/team/",
	"/person/",
}

// indexRoots are listing pages, never profiles themselves.
var indexRoots = map[string]bool{
	"/":          true,
	"/about":     true,
	"/people":    true,
	"/lawyers":   true,
	"/attorneys": true,
}

var nonProfileExtensions = []string{
	".pdf", ".jpg", ".jpeg", ".png", ".gif", ".svg", ".webp",
	".doc", ".docx", ".vcf", ".zip", ".xml",
}

// ProfileMatcher decides whether a URL looks like a single person's profile
// page. Extra glob-style exclude patterns (e.g. "/people/search*") can be
// layered on top of the built-in heuristic.
type ProfileMatcher struct {
	excludes []string
}

// NewProfileMatcher creates a ProfileMatcher with optional exclude patterns.
func NewProfileMatcher(excludes []string) *ProfileMatcher {
	lowered := make([]string, 0, len(excludes))
	for _, p := range excludes {
		if p = strings.TrimSpace(p); p != "" {
			lowered = append(lowered, strings.ToLower(p))
		}
	}
	return &ProfileMatcher{excludes: lowered}
}

// Excludes returns the configured exclude patterns.
func (m *ProfileMatcher) Excludes() []string {
	return m.excludes
}

// IsProfile reports whether rawURL passes the profile-path heuristic.
func (m *ProfileMatcher) IsProfile(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	p := strings.ToLower(u.Path)

	if indexRoots[p] {
		return false
	}
	for _, ext := range nonProfileExtensions {
		if strings.HasSuffix(p, ext) {
			return false
		}
	}
	for _, pattern := range m.excludes {
		if matchSegmented(pattern, p) {
			return false
		}
	}
	for _, s := range profileSignals {
		if strings.Contains(p, s) {
			return true
		}
	}
	return false
}

// matchSegmented performs glob matching where a pattern like "/people/search/*"
// matches both "/people/search/x" and "/people/search/deep/path".
func matchSegmented(pattern, urlPath string) bool {
	if ok, _ := path.Match(pattern, urlPath); ok {
		return true
	}
	if strings.HasSuffix(pattern, "/*") {
		prefix := strings.TrimSuffix(pattern, "/*")
		if urlPath == prefix || strings.HasPrefix(urlPath, prefix+"/") {
			return true
		}
	}
	return false
}
