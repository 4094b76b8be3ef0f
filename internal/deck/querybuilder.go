package deck

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/dawsonpowell07/clashgpt/internal/catalog"
)

// Criteria is the immutable input to one search dispatch.
type Criteria struct {
	Include   []catalog.VariantID
	Exclude   []catalog.VariantID
	Archetype Archetype
	FtpTier   FtpTier
	SortBy    SortBy
	MinGames  int
	Page      int
	PageSize  int
}

// BuildQuery compiles criteria into the canonical query string for the
// deck search endpoint. Id lists are deduplicated and sorted by numeric
// card id, then variant rank, so identical selection state always
// yields a byte-identical query regardless of insertion order. The
// response cache keys on that.
//
// archetype and ftp_tier carry at most one value; this is the single
// place that encodes the backend's one-value-per-scalar contract, so
// relaxing it later does not touch the selection API.
func BuildQuery(c Criteria) string {
	v := url.Values{}

	if s := canonicalIDList(c.Include); s != "" {
		v.Set("include", s)
	}
	if s := canonicalIDList(c.Exclude); s != "" {
		v.Set("exclude", s)
	}
	if c.Archetype != "" {
		v.Set("archetype", string(c.Archetype))
	}
	if c.FtpTier != "" {
		v.Set("ftp_tier", string(c.FtpTier))
	}
	if c.SortBy != "" {
		v.Set("sort_by", string(c.SortBy))
	}
	if c.MinGames > 0 {
		v.Set("min_games", strconv.Itoa(c.MinGames))
	}

	page := c.Page
	if page < 1 {
		page = 1
	}
	pageSize := c.PageSize
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	v.Set("page", strconv.Itoa(page))
	v.Set("page_size", strconv.Itoa(pageSize))

	// url.Values.Encode sorts keys, which keeps the output canonical.
	return v.Encode()
}

// canonicalIDList renders a variant id set as a comma-joined list in
// canonical order: numeric card id ascending, then variant kind rank.
func canonicalIDList(ids []catalog.VariantID) string {
	if len(ids) == 0 {
		return ""
	}

	unique := make([]catalog.VariantID, 0, len(ids))
	seen := make(map[catalog.VariantID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	sort.Slice(unique, func(i, j int) bool {
		if c := compareCardIDs(unique[i].CardID, unique[j].CardID); c != 0 {
			return c < 0
		}
		return unique[i].Kind.Rank() < unique[j].Kind.Rank()
	})

	parts := make([]string, len(unique))
	for i, id := range unique {
		parts[i] = id.String()
	}
	return strings.Join(parts, ",")
}

// compareCardIDs orders card ids numerically when both parse as
// integers, falling back to lexicographic order otherwise.
func compareCardIDs(a, b string) int {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}
