// Package contacts merges repeated extractions of the same person.
package contacts

import (
	"sort"
	"strings"

	"github.com/sells-group/contact-mapper/internal/model"
)

// Key returns the case-insensitive identity of a contact.
func Key(c model.MappedContact) string {
	return strings.ToLower(c.Name + "|" + c.SourceURL)
}

// Dedupe collapses contacts sharing a Key, keeping the higher-confidence
// entry. Ties keep the first seen, at its first-seen position. The result is
// stable-sorted by descending confidence and is never nil.
func Dedupe(in []model.MappedContact) []model.MappedContact {
	out := make([]model.MappedContact, 0, len(in))
	index := make(map[string]int, len(in))

	for _, c := range in {
		k := Key(c)
		i, ok := index[k]
		if !ok {
			index[k] = len(out)
			out = append(out, c)
			continue
		}
		if c.Confidence > out[i].Confidence {
			out[i] = c
		}
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Confidence > out[b].Confidence
	})
	return out
}
