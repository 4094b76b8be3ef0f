package deck

import (
	"errors"
	"sync"

	"github.com/dawsonpowell07/clashgpt/internal/catalog"
)

// Mode determines which set a toggle affects.
type Mode int

const (
	ModeInclude Mode = iota
	ModeExclude
)

func (m Mode) String() string {
	if m == ModeExclude {
		return "EXCLUDE"
	}
	return "INCLUDE"
}

// Membership is a variant's selection state.
type Membership int

const (
	Unselected Membership = iota
	Included
	Excluded
)

func (m Membership) String() string {
	switch m {
	case Included:
		return "INCLUDED"
	case Excluded:
		return "EXCLUDED"
	default:
		return "UNSELECTED"
	}
}

// MaxSelected caps each selection set; a deck holds eight cards, so
// including or excluding more can never narrow the search further.
const MaxSelected = 8

// ErrSelectionFull is returned by Toggle when adding another variant
// would push a set past MaxSelected.
var ErrSelectionFull = errors.New("selection is full")

// DefaultPageSize matches the backend's default for paginated search.
const DefaultPageSize = 24

// Selection owns the include/exclude sets over card variants plus the
// scalar filters and pagination. It is the sole mutator of both sets,
// which is what upholds the invariant that a variant is never included
// and excluded at the same time.
type Selection struct {
	mu sync.Mutex

	mode     Mode
	included map[catalog.VariantID]struct{}
	excluded map[catalog.VariantID]struct{}

	archetype Archetype
	ftpTier   FtpTier
	sortBy    SortBy
	minGames  int

	page     int
	pageSize int
}

// NewSelection creates an empty selection in include mode.
func NewSelection(pageSize int) *Selection {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Selection{
		mode:     ModeInclude,
		included: make(map[catalog.VariantID]struct{}),
		excluded: make(map[catalog.VariantID]struct{}),
		sortBy:   SortRecent,
		page:     1,
		pageSize: pageSize,
	}
}

// Mode returns the active edit mode.
func (s *Selection) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetMode switches the active edit mode without touching the sets.
func (s *Selection) SetMode(mode Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
}

// Toggle flips the membership of a variant in the set selected by the
// active mode. Toggling a variant already in that set removes it;
// otherwise it is added, and removed from the opposite set first if
// present there. Changing a filter resets pagination to page 1.
func (s *Selection) Toggle(id catalog.VariantID) (Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, opposite := s.included, s.excluded
	added, removed := Included, Unselected
	if s.mode == ModeExclude {
		target, opposite = s.excluded, s.included
		added = Excluded
	}

	if _, ok := target[id]; ok {
		delete(target, id)
		s.page = 1
		return removed, nil
	}

	if len(target) >= MaxSelected {
		return s.membershipLocked(id), ErrSelectionFull
	}

	delete(opposite, id)
	target[id] = struct{}{}
	s.page = 1
	return added, nil
}

// MembershipOf reports the current selection state of a variant.
func (s *Selection) MembershipOf(id catalog.VariantID) Membership {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.membershipLocked(id)
}

func (s *Selection) membershipLocked(id catalog.VariantID) Membership {
	if _, ok := s.included[id]; ok {
		return Included
	}
	if _, ok := s.excluded[id]; ok {
		return Excluded
	}
	return Unselected
}

// SetArchetype replaces the archetype filter. The backend accepts a
// single value per scalar category, so selecting a new archetype
// replaces the previous one rather than adding to it. An empty value
// clears the filter.
func (s *Selection) SetArchetype(a Archetype) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.archetype = a
	s.page = 1
}

// SetFtpTier replaces the free-to-play tier filter. Single-value, like
// SetArchetype.
func (s *Selection) SetFtpTier(t FtpTier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ftpTier = t
	s.page = 1
}

// SetSortBy replaces the result ordering.
func (s *Selection) SetSortBy(sb SortBy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sortBy = sb
	s.page = 1
}

// SetMinGames replaces the minimum games-played filter.
func (s *Selection) SetMinGames(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 0 {
		n = 0
	}
	s.minGames = n
	s.page = 1
}

// SetPage moves to the given 1-indexed page.
func (s *Selection) SetPage(page int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if page < 1 {
		page = 1
	}
	s.page = page
}

// ClearFilters empties both selection sets, resets every scalar filter
// and returns pagination to page 1 in a single commit. It is the only
// operation allowed to mutate more than one filter category at once, so
// the filter chips and the results can never disagree mid-reset.
func (s *Selection) ClearFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.included = make(map[catalog.VariantID]struct{})
	s.excluded = make(map[catalog.VariantID]struct{})
	s.archetype = ""
	s.ftpTier = ""
	s.sortBy = SortRecent
	s.minGames = 0
	s.page = 1
}

// Included returns a copy of the included set.
func (s *Selection) Included() []catalog.VariantID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyIDs(s.included)
}

// Excluded returns a copy of the excluded set.
func (s *Selection) Excluded() []catalog.VariantID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyIDs(s.excluded)
}

// Criteria snapshots the selection into an immutable value for one
// search dispatch.
func (s *Selection) Criteria() Criteria {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Criteria{
		Include:   copyIDs(s.included),
		Exclude:   copyIDs(s.excluded),
		Archetype: s.archetype,
		FtpTier:   s.ftpTier,
		SortBy:    s.sortBy,
		MinGames:  s.minGames,
		Page:      s.page,
		PageSize:  s.pageSize,
	}
}

func copyIDs(set map[catalog.VariantID]struct{}) []catalog.VariantID {
	out := make([]catalog.VariantID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}
