package model

// DiscoveryMethod records which discovery strategy produced candidate URLs.
type DiscoveryMethod string

const (
	DiscoveryNone    DiscoveryMethod = "none"
	DiscoverySitemap DiscoveryMethod = "sitemap"
	DiscoveryProbe   DiscoveryMethod = "probe"
)

// ExtractedPage is a fetched page reduced to the parts the classifier needs.
type ExtractedPage struct {
	URL     string `json:"url"`
	RawText string `json:"raw_text"`
	Heading string `json:"heading"`
	Title   string `json:"title"`
}

// DiscoveryResult holds the candidate profile URLs found for one site.
type DiscoveryResult struct {
	URLs       []string        `json:"urls"`
	Method     DiscoveryMethod `json:"method"`
	IndexPages []string        `json:"index_pages,omitempty"`
}

// Classification is the human-schema verdict for one page.
type Classification struct {
	Accepted   bool    `json:"accepted"`
	Role       string  `json:"role"`
	Confidence float64 `json:"confidence"`
	BioSignals int     `json:"bio_signals"`
}
