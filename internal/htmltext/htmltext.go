// Package htmltext reduces raw HTML to the plain text, heading and title the
// contact classifier works on.
package htmltext

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/sells-group/contact-mapper/internal/model"
)

const (
	// MaxHeadingRunes caps h1 and title text.
	MaxHeadingRunes = 120
	// MaxTextRunes caps the body text handed to the classifier.
	MaxTextRunes = 9000
	// MaxEvidenceRunes caps the evidence snippet stored on a contact.
	MaxEvidenceRunes = 380
)

var (
	blockRes = func() []*regexp.Regexp {
		var out []*regexp.Regexp
		for _, tag := range []string{"script", "style", "noscript", "template", "nav", "footer"} {
			out = append(out, regexp.MustCompile(`(?is)<`+tag+`\b[^>]*>.*?</`+tag+`\s*>`))
		}
		return out
	}()
	commentRe = regexp.MustCompile(`(?s)<!--.*?-->`)
	tagRe     = regexp.MustCompile(`<[^>]+>`)
	spaceRe   = regexp.MustCompile(`\s+`)
)

// StripHTML removes script/style/nav/footer blocks, replaces every remaining
// tag with a space, decodes entities, and collapses whitespace.
func StripHTML(raw string) string {
	s := commentRe.ReplaceAllString(raw, " ")
	for _, re := range blockRes {
		s = re.ReplaceAllString(s, " ")
	}
	s = tagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return CollapseSpace(s)
}

// CollapseSpace trims s and folds every whitespace run (including NBSP) into
// one ASCII space.
func CollapseSpace(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// Heading returns the normalized text of the first <h1>, or "".
func Heading(raw string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return ""
	}
	return heading(doc)
}

// Title returns the normalized <title> text, or "".
func Title(raw string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return ""
	}
	return title(doc)
}

func heading(doc *goquery.Document) string {
	h1 := doc.Find("h1").First()
	if h1.Length() == 0 {
		return ""
	}
	inner, err := h1.Html()
	if err != nil {
		return ""
	}
	return Truncate(StripHTML(inner), MaxHeadingRunes)
}

func title(doc *goquery.Document) string {
	t := doc.Find("title").First()
	if t.Length() == 0 {
		return ""
	}
	return Truncate(CollapseSpace(t.Text()), MaxHeadingRunes)
}

// Extract reduces a fetched page to an ExtractedPage.
func Extract(pageURL, raw string) model.ExtractedPage {
	page := model.ExtractedPage{
		URL:     pageURL,
		RawText: Truncate(StripHTML(raw), MaxTextRunes),
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return page
	}
	page.Heading = heading(doc)
	page.Title = title(doc)
	return page
}
