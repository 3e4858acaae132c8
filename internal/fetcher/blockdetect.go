package fetcher

import (
	"net/http"
	"strings"
)

// BlockType describes the kind of anti-bot page detected.
type BlockType string

const (
	BlockNone       BlockType = ""
	BlockCloudflare BlockType = "cloudflare"
	BlockCaptcha    BlockType = "captcha"
)

// challengeMaxBytes bounds the body size for challenge marker checks.
// Interstitials are small; real bio pages are not.
const challengeMaxBytes = 16 * 1024

// challengeMarkers only ever appear on interstitial challenge pages, so they
// are trusted even on a 2xx response.
var challengeMarkers = []string{
	"checking your browser",
	"cf-browser-verification",
}

// DetectBlock checks an HTTP response for signs of anti-bot protection.
// A 2xx page counts as blocked only when it carries an explicit challenge
// marker; a captcha widget or a noscript notice on a 2xx page is ordinary
// content.
func DetectBlock(resp *http.Response, body []byte) (bool, BlockType) {
	if resp == nil {
		return false, BlockNone
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode <= 299

	// Cloudflare: 403/503 with cf-* headers.
	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusServiceUnavailable {
		if resp.Header.Get("cf-ray") != "" || resp.Header.Get("cf-cache-status") != "" {
			return true, BlockCloudflare
		}
		if strings.EqualFold(resp.Header.Get("server"), "cloudflare") {
			return true, BlockCloudflare
		}
	}

	if len(body) > challengeMaxBytes {
		return false, BlockNone
	}

	lower := strings.ToLower(string(body))
	for _, marker := range challengeMarkers {
		if strings.Contains(lower, marker) {
			return true, BlockCloudflare
		}
	}

	if !ok && strings.Contains(lower, "captcha") {
		return true, BlockCaptcha
	}

	return false, BlockNone
}
