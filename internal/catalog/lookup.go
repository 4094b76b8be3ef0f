package catalog

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// maxNameDistance is the largest edit distance still accepted as a
// fuzzy match. Card names are short, so anything farther is noise.
const maxNameDistance = 3

// FindByName resolves a card by display name. Matching is attempted in
// order: exact (case-insensitive), unique prefix, then closest
// Levenshtein distance over normalized names. Returns false when
// nothing is close enough.
func (c *Catalog) FindByName(name string) (CardRecord, bool) {
	query := Slugify(name)
	if query == "" {
		return CardRecord{}, false
	}

	var prefix *CardRecord
	prefixMatches := 0

	for i := range c.cards {
		slug := Slugify(c.cards[i].Name)
		if slug == query {
			return c.cards[i], true
		}
		if strings.HasPrefix(slug, query) {
			prefix = &c.cards[i]
			prefixMatches++
		}
	}

	if prefixMatches == 1 {
		return *prefix, true
	}

	best := CardRecord{}
	bestDistance := maxNameDistance + 1
	for _, card := range c.cards {
		d := levenshtein.ComputeDistance(query, Slugify(card.Name))
		if d < bestDistance {
			best = card
			bestDistance = d
		}
	}
	if bestDistance > maxNameDistance {
		return CardRecord{}, false
	}
	return best, true
}
