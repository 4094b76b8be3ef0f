package catalog

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// VariantKind distinguishes the selectable renderings of a base card.
type VariantKind string

const (
	VariantNormal    VariantKind = "NORMAL"
	VariantEvolution VariantKind = "EVOLUTION"
	VariantHero      VariantKind = "HERO"
)

// Rank returns the sort rank of the kind: heroes first, then
// evolutions, then normal cards.
func (k VariantKind) Rank() int {
	switch k {
	case VariantHero:
		return 0
	case VariantEvolution:
		return 1
	default:
		return 2
	}
}

// VariantID is the composite identity of a card variant. It is
// comparable and safe to use as a map key.
type VariantID struct {
	CardID string
	Kind   VariantKind
}

// String renders the backend's include/exclude syntax: a bare card id
// for normal variants, "id:EVOLUTION" or "id:HERO" otherwise.
func (v VariantID) String() string {
	if v.Kind == VariantNormal || v.Kind == "" {
		return v.CardID
	}
	return v.CardID + ":" + string(v.Kind)
}

// ParseVariantID parses the wire form produced by String.
func ParseVariantID(s string) (VariantID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return VariantID{}, fmt.Errorf("empty variant id")
	}
	id, kind, found := strings.Cut(s, ":")
	if !found {
		return VariantID{CardID: id, Kind: VariantNormal}, nil
	}
	switch VariantKind(strings.ToUpper(kind)) {
	case VariantEvolution:
		return VariantID{CardID: id, Kind: VariantEvolution}, nil
	case VariantHero:
		return VariantID{CardID: id, Kind: VariantHero}, nil
	case VariantNormal:
		return VariantID{CardID: id, Kind: VariantNormal}, nil
	default:
		return VariantID{}, fmt.Errorf("unknown variant kind %q", kind)
	}
}

// CardVariant is one selectable rendering of a catalog card. Variants
// are derived, never persisted.
type CardVariant struct {
	VariantID
	Name       string // display name, suffixed for non-normal kinds
	ElixirCost int
	Rarity     Rarity
	AssetPath  string
}

// heroEligible is the fixed set of card names that have a hero
// rendering. The backend does not flag hero eligibility on the card
// payload, so the set is maintained here.
var heroEligible = map[string]struct{}{
	"Knight":         {},
	"Archers":        {},
	"Musketeer":      {},
	"Mini P.E.K.K.A": {},
	"Baby Dragon":    {},
	"Witch":          {},
}

// HeroEligible reports whether a card name has a hero rendering.
func HeroEligible(name string) bool {
	_, ok := heroEligible[name]
	return ok
}

// ExpandVariants expands each catalog card into its selectable
// variants:
//   - a HERO variant iff the card name is hero-eligible,
//   - an EVOLUTION variant iff the record carries evolution icon data,
//   - always exactly one NORMAL variant.
//
// The output is globally ordered by kind rank (HERO < EVOLUTION <
// NORMAL), then case-insensitive name. The function is pure: identical
// input always yields identical output.
func ExpandVariants(cards []CardRecord) []CardVariant {
	variants := make([]CardVariant, 0, len(cards))
	for _, card := range cards {
		if HeroEligible(card.Name) {
			variants = append(variants, newVariant(card, VariantHero))
		}
		if card.HasEvolution() {
			variants = append(variants, newVariant(card, VariantEvolution))
		}
		variants = append(variants, newVariant(card, VariantNormal))
	}

	sort.SliceStable(variants, func(i, j int) bool {
		ri, rj := variants[i].Kind.Rank(), variants[j].Kind.Rank()
		if ri != rj {
			return ri < rj
		}
		return strings.ToLower(variants[i].Name) < strings.ToLower(variants[j].Name)
	})

	return variants
}

func newVariant(card CardRecord, kind VariantKind) CardVariant {
	slug := Slugify(card.Name)
	name := card.Name
	file := slug
	switch kind {
	case VariantEvolution:
		name += " Evolution"
		file += "_evolution"
	case VariantHero:
		name += " Hero"
		file += "_hero"
	}
	return CardVariant{
		VariantID:  VariantID{CardID: card.ID, Kind: kind},
		Name:       name,
		ElixirCost: card.ElixirCost,
		Rarity:     card.Rarity,
		AssetPath:  fmt.Sprintf("cards/%s/%s.png", slug, file),
	}
}

// Expander caches expanded variants keyed on the catalog version, so
// repeated expansions of the same catalog are free.
type Expander struct {
	mu       sync.Mutex
	version  string
	variants []CardVariant
}

// Expand returns the variant list for the catalog, reusing the cached
// result when the catalog version matches.
func (e *Expander) Expand(c *Catalog) []CardVariant {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.version != c.Version() || e.variants == nil {
		e.variants = ExpandVariants(c.cards)
		e.version = c.Version()
	}

	out := make([]CardVariant, len(e.variants))
	copy(out, e.variants)
	return out
}
