// Package tools exposes the game-data tools the chat agent calls:
// card lookup, variant expansion, and deck search. The agent itself
// (prompting, transcript, orchestration) lives outside this module and
// talks to these tools over MCP stdio.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/dawsonpowell07/clashgpt/internal/catalog"
	"github.com/dawsonpowell07/clashgpt/internal/deck"
)

// Deps wires the tool handlers to the catalog and search services.
type Deps struct {
	Catalog  *catalog.Catalog
	Expander *catalog.Expander
	Search   deck.Searcher
	Cache    *deck.ResultCache // optional response cache
	Logger   *slog.Logger

	// SessionID correlates all tool calls of one stdio process in logs.
	SessionID string
}

// NewDeps validates and fills in defaults.
func NewDeps(cat *catalog.Catalog, search deck.Searcher, logger *slog.Logger) (*Deps, error) {
	if cat == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if search == nil {
		return nil, fmt.Errorf("search client is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Deps{
		Catalog:   cat,
		Expander:  &catalog.Expander{},
		Search:    search,
		Logger:    logger,
		SessionID: uuid.New().String(),
	}, nil
}

// RegisterTools adds all game-data tools to the MCP server.
func RegisterTools(s *server.MCPServer, deps *Deps) {
	s.AddTool(findCardTool(), deps.handleFindCard)
	s.AddTool(expandVariantsTool(), deps.handleExpandVariants)
	s.AddTool(searchDecksTool(), deps.handleSearchDecks)
}

// --- Tool definitions ---

func findCardTool() mcp.Tool {
	return mcp.NewTool("find_card",
		mcp.WithDescription("Look up a card by name. Matching is fuzzy: exact name, unique prefix, "+
			"then closest edit distance. Returns the card record and its selectable variants "+
			"(normal, and evolution/hero where they exist)."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Card name, e.g. 'Knight' or 'mini pekka'")),
	)
}

func expandVariantsTool() mcp.Tool {
	return mcp.NewTool("expand_variants",
		mcp.WithDescription("List every selectable card variant in the catalog, ordered heroes first, "+
			"then evolutions, then normal cards, each alphabetically. Variant ids are usable in "+
			"search_decks include/exclude lists."),
	)
}

func searchDecksTool() mcp.Tool {
	return mcp.NewTool("search_decks",
		mcp.WithDescription("Search the deck index with filters and pagination. Results include "+
			"performance stats (games played, wins, losses, win rate)."),
		mcp.WithString("include", mcp.Description("Comma-separated variant ids that must be in the deck, "+
			"e.g. '26000000,26000004:EVOLUTION'. At most 8.")),
		mcp.WithString("exclude", mcp.Description("Comma-separated variant ids that must not be in the deck. At most 8.")),
		mcp.WithString("archetype", mcp.Description("Archetype filter: CYCLE, BEATDOWN, BRIDGESPAM, "+
			"MIDLADDERMENACE, BAIT, CHIP, SIEGE or CONTROL. Single value.")),
		mcp.WithString("ftp_tier", mcp.Description("Free-to-play tier filter: FRIENDLY, MODERATE or PAYTOWIN. Single value.")),
		mcp.WithString("sort_by", mcp.Description("Result ordering: RECENT (default), GAMES_PLAYED, WIN_RATE or WINS.")),
		mcp.WithNumber("min_games", mcp.Description("Minimum games played, use 10+ when sorting by WIN_RATE.")),
		mcp.WithNumber("page", mcp.Description("1-indexed page number (default 1).")),
		mcp.WithNumber("page_size", mcp.Description("Results per page, 1-200 (default 24).")),
	)
}

// --- Tool handlers ---

type cardResponse struct {
	Card     catalog.CardRecord    `json:"card"`
	Variants []catalog.CardVariant `json:"variants"`
}

func (d *Deps) handleFindCard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := strings.TrimSpace(request.GetString("name", ""))
	if name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}

	d.Logger.Info("Tool: find_card", "session", d.SessionID, "name", name)

	card, ok := d.Catalog.FindByName(name)
	if !ok {
		return mcp.NewToolResultErrorf("No card matching %q. Use expand_variants to list the catalog.", name), nil
	}

	variants := make([]catalog.CardVariant, 0, 3)
	for _, v := range d.Expander.Expand(d.Catalog) {
		if v.CardID == card.ID {
			variants = append(variants, v)
		}
	}

	return jsonResult(cardResponse{Card: card, Variants: variants})
}

func (d *Deps) handleExpandVariants(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d.Logger.Info("Tool: expand_variants", "session", d.SessionID)

	variants := d.Expander.Expand(d.Catalog)
	if len(variants) == 0 {
		return mcp.NewToolResultError("The card catalog is empty (it may have failed to load)."), nil
	}
	return jsonResult(map[string]any{"variants": variants})
}

func (d *Deps) handleSearchDecks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	include, err := parseIDList(request.GetString("include", ""))
	if err != nil {
		return mcp.NewToolResultErrorf("Invalid include list: %v", err), nil
	}
	exclude, err := parseIDList(request.GetString("exclude", ""))
	if err != nil {
		return mcp.NewToolResultErrorf("Invalid exclude list: %v", err), nil
	}
	if len(include) > deck.MaxSelected || len(exclude) > deck.MaxSelected {
		return mcp.NewToolResultErrorf("At most %d ids per list (a deck holds %d cards).",
			deck.MaxSelected, deck.MaxSelected), nil
	}

	criteria := deck.Criteria{
		Include:   include,
		Exclude:   exclude,
		Archetype: deck.Archetype(strings.ToUpper(request.GetString("archetype", ""))),
		FtpTier:   deck.FtpTier(strings.ToUpper(request.GetString("ftp_tier", ""))),
		SortBy:    deck.SortBy(strings.ToUpper(request.GetString("sort_by", string(deck.SortRecent)))),
		MinGames:  request.GetInt("min_games", 0),
		Page:      request.GetInt("page", 1),
		PageSize:  request.GetInt("page_size", deck.DefaultPageSize),
	}

	query := deck.BuildQuery(criteria)
	d.Logger.Info("Tool: search_decks", "session", d.SessionID, "query", query)

	if d.Cache != nil {
		if cached := d.Cache.Get(query); cached != nil {
			return jsonResult(cached)
		}
	}

	result, err := d.Search.Search(ctx, query)
	if err != nil {
		var rateLimited *deck.RateLimitedError
		if errors.As(err, &rateLimited) {
			if rateLimited.RetryAfter > 0 {
				return mcp.NewToolResultErrorf("The deck index is rate limiting requests. Retry after %s.",
					rateLimited.RetryAfter), nil
			}
			return mcp.NewToolResultError("The deck index is rate limiting requests. Retry later."), nil
		}
		return mcp.NewToolResultErrorf("Deck search failed: %v", err), nil
	}

	if d.Cache != nil {
		d.Cache.Put(query, result)
	}
	return jsonResult(result)
}

// --- Helpers ---

func parseIDList(raw string) ([]catalog.VariantID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]catalog.VariantID, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		id, err := catalog.ParseVariantID(part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultErrorf("marshal response: %v", err), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
