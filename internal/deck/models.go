// Package deck implements the deck discovery core: selection state over
// card variants, canonical filter queries, and the debounced search
// executor that drives the paginated backend.
package deck

import (
	"sort"
	"strings"

	"github.com/dawsonpowell07/clashgpt/internal/catalog"
)

// Archetype classifies a deck's play style. Classification happens
// server-side; clients only filter on it.
type Archetype string

const (
	ArchetypeCycle           Archetype = "CYCLE"
	ArchetypeBeatdown        Archetype = "BEATDOWN"
	ArchetypeBridgespam      Archetype = "BRIDGESPAM"
	ArchetypeMidladderMenace Archetype = "MIDLADDERMENACE"
	ArchetypeBait            Archetype = "BAIT"
	ArchetypeChip            Archetype = "CHIP"
	ArchetypeSiege           Archetype = "SIEGE"
	ArchetypeControl         Archetype = "CONTROL"
)

// FtpTier grades how free-to-play friendly a deck is.
type FtpTier string

const (
	FtpFriendly FtpTier = "FRIENDLY"
	FtpModerate FtpTier = "MODERATE"
	FtpPayToWin FtpTier = "PAYTOWIN"
)

// SortBy selects the server-side ordering of search results.
type SortBy string

const (
	SortRecent      SortBy = "RECENT"
	SortGamesPlayed SortBy = "GAMES_PLAYED"
	SortWinRate     SortBy = "WIN_RATE"
	SortWins        SortBy = "WINS"
)

// DeckCard is one of the eight slots of a deck.
type DeckCard struct {
	CardID  string              `json:"card_id"`
	Name    string              `json:"name,omitempty"`
	Variant catalog.VariantKind `json:"variant"`
}

// Stats carries server-aggregated performance numbers for a deck.
// WinRate is nil when the deck has no recorded games.
type Stats struct {
	GamesPlayed   int      `json:"games_played"`
	Wins          int      `json:"wins"`
	Losses        int      `json:"losses"`
	WinRate       *float64 `json:"win_rate"`
	UniquePlayers int      `json:"unique_players"`
}

// Deck is a single search result entry.
type Deck struct {
	ID        string     `json:"id"`
	DeckHash  string     `json:"deck_hash"`
	Cards     []DeckCard `json:"cards"`
	AvgElixir float64    `json:"avg_elixir"`
	Archetype Archetype  `json:"archetype"`
	FtpTier   FtpTier    `json:"ftp_tier"`
	Stats     *Stats     `json:"stats,omitempty"`
}

// SearchResult is one page of deck search results. The pagination
// fields are taken verbatim from the server and never recomputed
// client-side, so server-side changes to page size or ordering remain
// correct.
type SearchResult struct {
	Decks       []Deck `json:"decks"`
	Total       int    `json:"total"`
	Page        int    `json:"page"`
	PageSize    int    `json:"page_size"`
	TotalPages  int    `json:"total_pages"`
	HasNext     bool   `json:"has_next"`
	HasPrevious bool   `json:"has_previous"`
}

// Hash derives the canonical composition hash of a deck: normalized
// card names sorted alphabetically, non-normal variants suffixed, all
// joined with '|'. Two decks with the same cards and variants hash
// identically regardless of slot order.
func Hash(cards []DeckCard) string {
	parts := make([]string, 0, len(cards))
	for _, c := range cards {
		name := c.Name
		if name == "" {
			name = c.CardID
		}
		part := catalog.Slugify(name)
		switch c.Variant {
		case catalog.VariantEvolution:
			part += "_evolution"
		case catalog.VariantHero:
			part += "_hero"
		}
		parts = append(parts, part)
	}
	sort.Strings(parts)
	return strings.Join(parts, "|")
}
