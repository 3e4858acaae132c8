// Package classify decides whether an extracted page belongs to a real
// person and, if so, which legal role and confidence to assign.
package classify

import (
	"math"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/rotisserie/eris"

	"github.com/sells-group/contact-mapper/internal/model"
)

// Classifier applies a compiled rule set. It is safe for concurrent use.
type Classifier struct {
	rules   *Rules
	reject  map[string]bool
	nav     map[string]bool
	roles   []rolePattern
	signals []string
}

type rolePattern struct {
	label string
	re    *regexp.Regexp
}

// New compiles r into a Classifier.
func New(r *Rules) (*Classifier, error) {
	if r == nil {
		return nil, eris.New("classify: nil rules")
	}
	if err := r.validate(); err != nil {
		return nil, err
	}

	c := &Classifier{
		rules:  r,
		reject: make(map[string]bool, len(r.RejectNames)),
		nav:    make(map[string]bool, len(r.NavWords)),
	}
	for _, n := range r.RejectNames {
		c.reject[foldName(n)] = true
	}
	for _, w := range r.NavWords {
		c.nav[strings.ToLower(strings.TrimSpace(w))] = true
	}
	for _, kw := range r.Roles {
		re, err := compileRole(kw)
		if err != nil {
			return nil, eris.Wrapf(err, "classify: role %q", kw)
		}
		c.roles = append(c.roles, rolePattern{label: kw, re: re})
	}
	for _, s := range r.BioSignals {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			c.signals = append(c.signals, s)
		}
	}
	return c, nil
}

// compileRole builds a case-insensitive matcher for kw. Internal spaces
// match any whitespace run. The keyword may not touch a letter or digit on
// either side, so "partnership" does not match "Partner" while
// "Partner-in-Charge" and "Co-Chair" do.
func compileRole(kw string) (*regexp.Regexp, error) {
	words := strings.Fields(kw)
	if len(words) == 0 {
		return nil, eris.New("empty keyword")
	}
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	const edge = `[^\p{L}\p{N}]`
	return regexp.Compile(`(?i)(?:^|` + edge + `)` + strings.Join(words, `\s+`) + `(?:$|` + edge + `)`)
}

var defaultClassifier = sync.OnceValue(func() *Classifier {
	c, err := New(DefaultRules())
	if err != nil {
		panic(err)
	}
	return c
})

// Default returns the classifier built from the embedded rules.
func Default() *Classifier {
	return defaultClassifier()
}

// Rules returns the rule set in use.
func (c *Classifier) Rules() *Rules {
	return c.rules
}

// LooksLikePersonName reports whether name plausibly names a person rather
// than a navigation heading.
func (c *Classifier) LooksLikePersonName(name string) bool {
	n := strings.TrimSpace(name)
	if n == "" || c.reject[foldName(n)] {
		return false
	}

	tokens := strings.Fields(n)
	if len(tokens) < c.rules.MinNameTokens || len(tokens) > c.rules.MaxNameTokens {
		return false
	}
	for _, tok := range tokens {
		word := strings.TrimFunc(strings.ToLower(tok), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if c.nav[word] {
			return false
		}
	}

	total, letters := 0, 0
	for _, r := range n {
		total++
		if r < unicode.MaxASCII && unicode.IsLetter(r) {
			letters++
		}
	}
	return float64(letters)/float64(total) > c.rules.MinLetterRatio
}

// DetectRole returns the first configured role keyword found in text.
func (c *Classifier) DetectRole(text string) (string, bool) {
	for _, p := range c.roles {
		if p.re.MatchString(text) {
			return p.label, true
		}
	}
	return "", false
}

// BioSignals counts how many distinct bio terms appear in text.
func (c *Classifier) BioSignals(text string) int {
	lower := strings.ToLower(text)
	n := 0
	for _, s := range c.signals {
		if strings.Contains(lower, s) {
			n++
		}
	}
	return n
}

// Classify runs the human-schema pass for one page. Rejected pages carry a
// zero confidence.
func (c *Classifier) Classify(name, text string) model.Classification {
	if !c.LooksLikePersonName(name) {
		return model.Classification{}
	}

	role, hasRole := c.DetectRole(text)
	signals := c.BioSignals(text)
	if !hasRole && signals < c.rules.MinBioSignals {
		return model.Classification{BioSignals: signals}
	}

	s := c.rules.Scoring
	confidence := s.Base
	if hasRole {
		confidence += s.RoleBonus
	} else {
		role = c.rules.DefaultRole
	}
	confidence += math.Min(s.SignalCap, float64(signals)*s.SignalWeight)

	return model.Classification{
		Accepted:   true,
		Role:       role,
		Confidence: round(math.Max(s.Floor, math.Min(s.Ceiling, confidence))),
		BioSignals: signals,
	}
}

// PickName prefers the page heading when it reads as a name, otherwise the
// title text before the first "|".
func (c *Classifier) PickName(page model.ExtractedPage) string {
	if page.Heading != "" && c.LooksLikePersonName(page.Heading) {
		return page.Heading
	}
	title, _, _ := strings.Cut(page.Title, "|")
	return strings.TrimSpace(title)
}

// LooksLikePersonName uses the default rules.
func LooksLikePersonName(name string) bool { return Default().LooksLikePersonName(name) }

// DetectRole uses the default rules.
func DetectRole(text string) (string, bool) { return Default().DetectRole(text) }

// BioSignals uses the default rules.
func BioSignals(text string) int { return Default().BioSignals(text) }

// Classify uses the default rules.
func Classify(name, text string) model.Classification { return Default().Classify(name, text) }

// PickName uses the default rules.
func PickName(page model.ExtractedPage) string { return Default().PickName(page) }

func foldName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// round trims float noise (0.55+0.25+0.1 = 0.9000000000000001).
func round(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
