package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dawsonpowell07/clashgpt/internal/catalog"
	"github.com/dawsonpowell07/clashgpt/internal/deck"
)

type fakeSearcher struct {
	lastQuery string
	result    *deck.SearchResult
	err       error
}

func (f *fakeSearcher) Search(ctx context.Context, query string) (*deck.SearchResult, error) {
	f.lastQuery = query
	return f.result, f.err
}

func testCatalog() *catalog.Catalog {
	return catalog.NewCatalog([]catalog.CardRecord{
		{
			ID:         "26000000",
			Name:       "Knight",
			ElixirCost: 3,
			Rarity:     catalog.RarityCommon,
			IconURLs: map[string]string{
				catalog.IconMedium:          "https://cdn/knight.png",
				catalog.IconEvolutionMedium: "https://cdn/knight_evo.png",
			},
		},
		{
			ID:         "26000004",
			Name:       "Goblin Barrel",
			ElixirCost: 3,
			Rarity:     catalog.RarityEpic,
			IconURLs:   map[string]string{catalog.IconMedium: "https://cdn/goblin_barrel.png"},
		},
	})
}

func newTestDeps(t *testing.T, searcher deck.Searcher) *Deps {
	t.Helper()
	deps, err := NewDeps(testCatalog(), searcher, nil)
	if err != nil {
		t.Fatalf("NewDeps: %v", err)
	}
	return deps
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{Arguments: args},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("Tool result has no content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("Tool result content is not text: %#v", result.Content[0])
	}
	return text.Text
}

func TestHandleFindCard_FuzzyMatch(t *testing.T) {
	deps := newTestDeps(t, &fakeSearcher{})

	result, err := deps.handleFindCard(context.Background(), callRequest(map[string]any{
		"name": "goblin barel",
	}))
	if err != nil {
		t.Fatalf("handleFindCard: %v", err)
	}
	if result.IsError {
		t.Fatalf("Unexpected tool error: %s", resultText(t, result))
	}

	var response cardResponse
	if err := json.Unmarshal([]byte(resultText(t, result)), &response); err != nil {
		t.Fatalf("Unmarshal response: %v", err)
	}
	if response.Card.Name != "Goblin Barrel" {
		t.Errorf("Card = %s, want Goblin Barrel", response.Card.Name)
	}
	if len(response.Variants) != 1 {
		t.Errorf("Variants = %d, want 1 (no evolution, not hero-eligible)", len(response.Variants))
	}
}

func TestHandleFindCard_NoMatch(t *testing.T) {
	deps := newTestDeps(t, &fakeSearcher{})

	result, err := deps.handleFindCard(context.Background(), callRequest(map[string]any{
		"name": "definitely not a card",
	}))
	if err != nil {
		t.Fatalf("handleFindCard: %v", err)
	}
	if !result.IsError {
		t.Error("Expected a tool error for an unmatched name")
	}
}

func TestHandleFindCard_MissingName(t *testing.T) {
	deps := newTestDeps(t, &fakeSearcher{})

	result, err := deps.handleFindCard(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatalf("handleFindCard: %v", err)
	}
	if !result.IsError {
		t.Error("Expected a tool error for a missing name")
	}
}

func TestHandleExpandVariants_ListsCatalog(t *testing.T) {
	deps := newTestDeps(t, &fakeSearcher{})

	result, err := deps.handleExpandVariants(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatalf("handleExpandVariants: %v", err)
	}
	if result.IsError {
		t.Fatalf("Unexpected tool error: %s", resultText(t, result))
	}

	var response struct {
		Variants []catalog.CardVariant `json:"variants"`
	}
	if err := json.Unmarshal([]byte(resultText(t, result)), &response); err != nil {
		t.Fatalf("Unmarshal response: %v", err)
	}
	// Knight is hero-eligible and has an evolution: 3 variants.
	// Goblin Barrel has only its normal form.
	if len(response.Variants) != 4 {
		t.Errorf("Variants = %d, want 4", len(response.Variants))
	}
}

func TestHandleExpandVariants_EmptyCatalog(t *testing.T) {
	deps, err := NewDeps(catalog.NewCatalog(nil), &fakeSearcher{}, nil)
	if err != nil {
		t.Fatalf("NewDeps: %v", err)
	}

	result, err := deps.handleExpandVariants(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatalf("handleExpandVariants: %v", err)
	}
	if !result.IsError {
		t.Error("Expected a tool error on an empty catalog")
	}
}

func TestHandleSearchDecks_BuildsCanonicalQuery(t *testing.T) {
	searcher := &fakeSearcher{result: &deck.SearchResult{Page: 1, PageSize: 24}}
	deps := newTestDeps(t, searcher)

	result, err := deps.handleSearchDecks(context.Background(), callRequest(map[string]any{
		"include":   "26000004:EVOLUTION,26000000",
		"archetype": "cycle",
		"sort_by":   "win_rate",
		"min_games": 10,
	}))
	if err != nil {
		t.Fatalf("handleSearchDecks: %v", err)
	}
	if result.IsError {
		t.Fatalf("Unexpected tool error: %s", resultText(t, result))
	}

	want := deck.BuildQuery(deck.Criteria{
		Include: []catalog.VariantID{
			{CardID: "26000000", Kind: catalog.VariantNormal},
			{CardID: "26000004", Kind: catalog.VariantEvolution},
		},
		Archetype: deck.ArchetypeCycle,
		SortBy:    deck.SortWinRate,
		MinGames:  10,
		Page:      1,
		PageSize:  deck.DefaultPageSize,
	})
	if searcher.lastQuery != want {
		t.Errorf("Query = %s, want %s", searcher.lastQuery, want)
	}
}

func TestHandleSearchDecks_ServedFromCache(t *testing.T) {
	searcher := &fakeSearcher{result: &deck.SearchResult{Page: 1, PageSize: 24}}
	deps := newTestDeps(t, searcher)
	deps.Cache = deck.NewResultCache(time.Minute, 8)

	args := map[string]any{"include": "26000000"}
	if _, err := deps.handleSearchDecks(context.Background(), callRequest(args)); err != nil {
		t.Fatalf("handleSearchDecks: %v", err)
	}
	firstQuery := searcher.lastQuery

	searcher.lastQuery = ""
	if _, err := deps.handleSearchDecks(context.Background(), callRequest(args)); err != nil {
		t.Fatalf("handleSearchDecks: %v", err)
	}

	if searcher.lastQuery != "" {
		t.Error("Second identical search should be served from cache, not the backend")
	}
	if stats := deps.Cache.Stats(); stats.Hits != 1 {
		t.Errorf("Cache hits = %d, want 1 (first query: %s)", stats.Hits, firstQuery)
	}
}

func TestHandleSearchDecks_RejectsOversizedList(t *testing.T) {
	deps := newTestDeps(t, &fakeSearcher{})

	ids := make([]string, deck.MaxSelected+1)
	for i := range ids {
		ids[i] = "26000000"
	}
	result, err := deps.handleSearchDecks(context.Background(), callRequest(map[string]any{
		"include": strings.Join(ids, ","),
	}))
	if err != nil {
		t.Fatalf("handleSearchDecks: %v", err)
	}
	if !result.IsError {
		t.Error("Expected a tool error for more than 8 include ids")
	}
}

func TestHandleSearchDecks_InvalidVariantID(t *testing.T) {
	deps := newTestDeps(t, &fakeSearcher{})

	result, err := deps.handleSearchDecks(context.Background(), callRequest(map[string]any{
		"include": "26000000:SHINY",
	}))
	if err != nil {
		t.Fatalf("handleSearchDecks: %v", err)
	}
	if !result.IsError {
		t.Error("Expected a tool error for an unknown variant kind")
	}
}

func TestHandleSearchDecks_RateLimited(t *testing.T) {
	searcher := &fakeSearcher{err: &deck.RateLimitedError{RetryAfter: 30 * time.Second}}
	deps := newTestDeps(t, searcher)

	result, err := deps.handleSearchDecks(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatalf("handleSearchDecks: %v", err)
	}
	if !result.IsError {
		t.Fatal("Expected a tool error when rate limited")
	}
	if text := resultText(t, result); !strings.Contains(text, "30s") {
		t.Errorf("Rate limit message should carry the retry hint, got %q", text)
	}
}

func TestParseIDList(t *testing.T) {
	ids, err := parseIDList(" 26000000, 26000004:HERO ,,")
	if err != nil {
		t.Fatalf("parseIDList: %v", err)
	}
	want := []catalog.VariantID{
		{CardID: "26000000", Kind: catalog.VariantNormal},
		{CardID: "26000004", Kind: catalog.VariantHero},
	}
	if len(ids) != len(want) {
		t.Fatalf("Parsed %d ids, want %d", len(ids), len(want))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %v, want %v", i, ids[i], want[i])
		}
	}
}
