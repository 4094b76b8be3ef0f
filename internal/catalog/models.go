package catalog

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// Rarity is a card rarity as reported by the backend.
type Rarity string

const (
	RarityCommon    Rarity = "COMMON"
	RarityRare      Rarity = "RARE"
	RarityEpic      Rarity = "EPIC"
	RarityLegendary Rarity = "LEGENDARY"
	RarityChampion  Rarity = "CHAMPION"
)

// Icon URL keys used by the backend's card payload.
const (
	IconMedium          = "medium"
	IconEvolutionMedium = "evolutionMedium"
	IconHeroMedium      = "heroMedium"
)

// CardRecord is a single entry in the flat card catalog. Records are
// immutable once loaded; all derived data (variants, asset paths) is
// computed from them.
type CardRecord struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	ElixirCost int               `json:"elixir_cost"`
	IconURLs   map[string]string `json:"icon_urls"`
	Rarity     Rarity            `json:"rarity"`
}

// HasEvolution reports whether the record carries evolution icon data.
func (c CardRecord) HasEvolution() bool {
	_, ok := c.IconURLs[IconEvolutionMedium]
	return ok
}

// CardList is the wire shape of the catalog endpoint response.
type CardList struct {
	Cards []CardRecord `json:"cards"`
}

// Catalog holds the session's card catalog. It is built once from a
// loader and never mutated afterwards.
type Catalog struct {
	cards   []CardRecord
	byID    map[string]CardRecord
	version string
}

// NewCatalog builds a catalog from the given records. A nil or empty
// slice yields a valid, empty catalog.
func NewCatalog(cards []CardRecord) *Catalog {
	c := &Catalog{
		cards: make([]CardRecord, len(cards)),
		byID:  make(map[string]CardRecord, len(cards)),
	}
	copy(c.cards, cards)
	for _, card := range c.cards {
		c.byID[card.ID] = card
	}
	c.version = fingerprint(c.cards)
	return c
}

// Cards returns the catalog entries in load order.
func (c *Catalog) Cards() []CardRecord {
	out := make([]CardRecord, len(c.cards))
	copy(out, c.cards)
	return out
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int {
	return len(c.cards)
}

// Empty reports whether the catalog has no entries, e.g. after a
// degraded load.
func (c *Catalog) Empty() bool {
	return len(c.cards) == 0
}

// CardByID looks up a record by its catalog id.
func (c *Catalog) CardByID(id string) (CardRecord, bool) {
	card, ok := c.byID[id]
	return card, ok
}

// Version is a deterministic fingerprint of the catalog contents.
// Identical inputs always produce the same version, so derived data can
// be cached against it.
func (c *Catalog) Version() string {
	return c.version
}

func fingerprint(cards []CardRecord) string {
	h := fnv.New64a()
	for _, card := range cards {
		_, _ = h.Write([]byte(card.ID))
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(card.Name))
		_, _ = h.Write([]byte{0})
		if card.HasEvolution() {
			_, _ = h.Write([]byte{1})
		}
	}
	return fmt.Sprintf("%016x-%d", h.Sum64(), len(cards))
}

// Slugify normalizes a card name for asset paths and deck hashes:
// lowercase, periods stripped, spaces and hyphens replaced with
// underscores ("Mini P.E.K.K.A" -> "mini_pekka").
func Slugify(name string) string {
	s := strings.ToLower(name)
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	return s
}
