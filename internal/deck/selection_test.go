package deck

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/dawsonpowell07/clashgpt/internal/catalog"
)

func vid(cardID string, kind catalog.VariantKind) catalog.VariantID {
	return catalog.VariantID{CardID: cardID, Kind: kind}
}

// checkDisjoint fails the test if a variant is present in both sets.
func checkDisjoint(t *testing.T, s *Selection) {
	t.Helper()
	included := make(map[catalog.VariantID]struct{})
	for _, id := range s.Included() {
		included[id] = struct{}{}
	}
	for _, id := range s.Excluded() {
		if _, ok := included[id]; ok {
			t.Fatalf("Variant %s is both included and excluded", id)
		}
	}
}

func TestToggle_ModeSwitch(t *testing.T) {
	s := NewSelection(24)
	x := vid("26000000", catalog.VariantNormal)

	// Include mode: toggle adds to included.
	if m, err := s.Toggle(x); err != nil || m != Included {
		t.Fatalf("Toggle in include mode = %v, %v", m, err)
	}
	if len(s.Included()) != 1 || len(s.Excluded()) != 0 {
		t.Fatalf("included=%v excluded=%v", s.Included(), s.Excluded())
	}

	// Exclude mode: toggling the same variant moves it across sets.
	s.SetMode(ModeExclude)
	if m, err := s.Toggle(x); err != nil || m != Excluded {
		t.Fatalf("Toggle in exclude mode = %v, %v", m, err)
	}
	if len(s.Included()) != 0 {
		t.Errorf("included should be empty, got %v", s.Included())
	}
	if len(s.Excluded()) != 1 {
		t.Errorf("excluded should hold 1, got %v", s.Excluded())
	}
	checkDisjoint(t, s)
}

func TestToggle_RemovesOnSecondToggle(t *testing.T) {
	s := NewSelection(24)
	x := vid("26000000", catalog.VariantHero)

	if _, err := s.Toggle(x); err != nil {
		t.Fatal(err)
	}
	m, err := s.Toggle(x)
	if err != nil {
		t.Fatal(err)
	}
	if m != Unselected {
		t.Errorf("Second toggle = %v, want UNSELECTED", m)
	}
	if len(s.Included()) != 0 {
		t.Errorf("included should be empty, got %v", s.Included())
	}
}

func TestToggle_SetsStayDisjointUnderRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	kinds := []catalog.VariantKind{catalog.VariantNormal, catalog.VariantEvolution, catalog.VariantHero}

	s := NewSelection(24)
	for i := 0; i < 2000; i++ {
		if rng.Intn(10) == 0 {
			s.SetMode(Mode(rng.Intn(2)))
		}
		id := vid(fmt.Sprintf("2600000%d", rng.Intn(6)), kinds[rng.Intn(len(kinds))])
		if _, err := s.Toggle(id); err != nil && !errors.Is(err, ErrSelectionFull) {
			t.Fatalf("Toggle: %v", err)
		}
		checkDisjoint(t, s)
	}
}

func TestToggle_SelectionCap(t *testing.T) {
	s := NewSelection(24)
	for i := 0; i < MaxSelected; i++ {
		if _, err := s.Toggle(vid(fmt.Sprintf("2600%04d", i), catalog.VariantNormal)); err != nil {
			t.Fatalf("Toggle %d: %v", i, err)
		}
	}

	m, err := s.Toggle(vid("26009999", catalog.VariantNormal))
	if !errors.Is(err, ErrSelectionFull) {
		t.Fatalf("Expected ErrSelectionFull, got %v", err)
	}
	if m != Unselected {
		t.Errorf("Rejected toggle reported membership %v, want UNSELECTED", m)
	}
	if len(s.Included()) != MaxSelected {
		t.Errorf("included holds %d, want %d", len(s.Included()), MaxSelected)
	}

	// The cap is per set: the exclude set still accepts entries.
	s.SetMode(ModeExclude)
	if _, err := s.Toggle(vid("26009999", catalog.VariantNormal)); err != nil {
		t.Errorf("Exclude set should still have room: %v", err)
	}
}

func TestClearFilters_ResetsEverythingAtomically(t *testing.T) {
	s := NewSelection(24)
	_, _ = s.Toggle(vid("26000000", catalog.VariantNormal))
	s.SetMode(ModeExclude)
	_, _ = s.Toggle(vid("26000001", catalog.VariantNormal))
	s.SetArchetype(ArchetypeCycle)
	s.SetFtpTier(FtpFriendly)
	s.SetSortBy(SortWinRate)
	s.SetMinGames(20)
	s.SetPage(7)

	s.ClearFilters()

	c := s.Criteria()
	if len(c.Include) != 0 || len(c.Exclude) != 0 {
		t.Errorf("Selection sets not cleared: %v / %v", c.Include, c.Exclude)
	}
	if c.Archetype != "" || c.FtpTier != "" || c.MinGames != 0 {
		t.Errorf("Scalar filters not reset: %+v", c)
	}
	if c.SortBy != SortRecent {
		t.Errorf("SortBy = %v, want RECENT", c.SortBy)
	}
	if c.Page != 1 {
		t.Errorf("Page = %d, want 1", c.Page)
	}
	checkDisjoint(t, s)
}

func TestFilterChanges_ResetPagination(t *testing.T) {
	s := NewSelection(24)
	s.SetPage(5)
	_, _ = s.Toggle(vid("26000000", catalog.VariantNormal))
	if got := s.Criteria().Page; got != 1 {
		t.Errorf("Toggle left page at %d, want 1", got)
	}

	s.SetPage(5)
	s.SetArchetype(ArchetypeBait)
	if got := s.Criteria().Page; got != 1 {
		t.Errorf("SetArchetype left page at %d, want 1", got)
	}
}

func TestSetArchetype_SingleValueCollapse(t *testing.T) {
	s := NewSelection(24)
	s.SetArchetype(ArchetypeCycle)
	s.SetArchetype(ArchetypeBeatdown)

	if got := s.Criteria().Archetype; got != ArchetypeBeatdown {
		t.Errorf("Archetype = %v, want BEATDOWN (new selection replaces the old)", got)
	}

	s.SetArchetype("")
	if got := s.Criteria().Archetype; got != "" {
		t.Errorf("Archetype = %v, want cleared", got)
	}
}
