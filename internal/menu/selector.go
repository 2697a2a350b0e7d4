// Package menu keeps the daily menu selection: which catalog items fill
// the staple and dish slots, and which of them are locked against
// re-randomization.
package menu

import (
	"math/rand/v2"
	"sort"

	"menu-spinner/internal/food"
)

// Catalog is the read-only view of the food catalog the selector draws from.
type Catalog interface {
	Get(id string) (food.FoodItem, bool)
	Pool(category food.Category) []food.FoodItem
}

// Rand is the randomness source used for sampling. *rand.Rand from
// math/rand/v2 satisfies it; tests inject deterministic sources.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Selector holds one menu selection. It is not safe for concurrent use.
type Selector struct {
	selected    []string
	locked      map[string]struct{}
	stapleCount int
	rnd         Rand
}

// NewSelector returns an empty selection. A nil rnd uses the global
// math/rand/v2 source.
func NewSelector(rnd Rand) *Selector {
	if rnd == nil {
		rnd = globalRand{}
	}
	return &Selector{
		locked: make(map[string]struct{}),
		rnd:    rnd,
	}
}

// Selected returns the selected ids: staples first, then dishes.
func (s *Selector) Selected() []string {
	return append([]string(nil), s.selected...)
}

// Staples returns the staple sub-range of the selection.
func (s *Selector) Staples() []string {
	return append([]string(nil), s.selected[:s.stapleCount]...)
}

// Dishes returns the dish sub-range of the selection.
func (s *Selector) Dishes() []string {
	return append([]string(nil), s.selected[s.stapleCount:]...)
}

// Locked returns the locked ids in sorted order.
func (s *Selector) Locked() []string {
	out := make([]string, 0, len(s.locked))
	for id := range s.locked {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s *Selector) IsLocked(id string) bool {
	_, ok := s.locked[id]
	return ok
}

// AllLocked reports whether the selection is non-empty and every selected
// item is locked.
func (s *Selector) AllLocked() bool {
	if len(s.selected) == 0 {
		return false
	}
	for _, id := range s.selected {
		if !s.IsLocked(id) {
			return false
		}
	}
	return true
}

// Position returns the index of id in the selection, or -1.
func (s *Selector) Position(id string) int {
	for i, sid := range s.selected {
		if sid == id {
			return i
		}
	}
	return -1
}

// Randomize draws a new selection of up to numStaples staples and
// numDishes dishes. Selected items that are locked stay at the front of
// their category's sub-range; the remaining slots are filled uniformly at
// random from unlocked items of that category. A pool too small to fill
// its slots produces a shorter sub-range.
func (s *Selector) Randomize(c Catalog, numStaples, numDishes int) {
	var lockedItems []food.FoodItem
	for _, id := range s.selected {
		if !s.IsLocked(id) {
			continue
		}
		if it, ok := c.Get(id); ok {
			lockedItems = append(lockedItems, it)
		}
	}

	staples := s.fill(c.Pool(food.CategoryStaple), food.CategoryStaple, numStaples, lockedItems)
	dishes := s.fill(c.Pool(food.CategoryDish), food.CategoryDish, numDishes, lockedItems)

	s.selected = append(staples, dishes...)
	s.stapleCount = len(staples)
}

func (s *Selector) fill(pool []food.FoodItem, category food.Category, target int, lockedItems []food.FoodItem) []string {
	if target < 0 {
		target = 0
	}

	var out []string
	for _, it := range lockedItems {
		if it.Category == category {
			out = append(out, it.ID)
		}
	}
	if len(out) >= target {
		return out[:target]
	}

	// Locked ids are never fill candidates, even when not currently selected.
	var available []string
	for _, it := range pool {
		if !s.IsLocked(it.ID) {
			available = append(available, it.ID)
		}
	}
	return append(out, s.sample(available, target-len(out))...)
}

// sample draws k distinct elements uniformly via a partial Fisher-Yates shuffle.
func (s *Selector) sample(ids []string, k int) []string {
	if k > len(ids) {
		k = len(ids)
	}
	for i := 0; i < k; i++ {
		j := i + s.rnd.IntN(len(ids)-i)
		ids[i], ids[j] = ids[j], ids[i]
	}
	return ids[:k]
}

// ToggleLock flips the lock on id and reports the new state. Locking an
// unselected id is allowed; it only matters at the next Randomize.
func (s *Selector) ToggleLock(id string) bool {
	if s.IsLocked(id) {
		delete(s.locked, id)
		return false
	}
	s.locked[id] = struct{}{}
	return true
}

// ReplaceOne swaps the selected item id for a random catalog item of the
// same category that is not already selected, keeping its position. It
// reports the new id, or "" when id is unknown, unselected, or has no
// alternative.
//
// Callers must not replace locked items; the selector does not check.
func (s *Selector) ReplaceOne(c Catalog, id string) string {
	it, ok := c.Get(id)
	if !ok {
		return ""
	}
	pos := s.Position(id)
	if pos < 0 {
		return ""
	}

	onScreen := make(map[string]struct{}, len(s.selected))
	for _, sid := range s.selected {
		onScreen[sid] = struct{}{}
	}
	var candidates []string
	for _, p := range c.Pool(it.Category) {
		if _, taken := onScreen[p.ID]; !taken {
			candidates = append(candidates, p.ID)
		}
	}
	if len(candidates) == 0 {
		return ""
	}

	next := candidates[s.rnd.IntN(len(candidates))]
	s.selected[pos] = next
	return next
}

// Forget removes id from both the selection and the locks. It is called
// whenever the id is deleted from the catalog.
func (s *Selector) Forget(id string) {
	delete(s.locked, id)
	pos := s.Position(id)
	if pos < 0 {
		return
	}
	s.selected = append(s.selected[:pos], s.selected[pos+1:]...)
	if pos < s.stapleCount {
		s.stapleCount--
	}
}

// Prune drops selected and locked ids that no longer resolve in the
// catalog, and reports how many selected ids were removed.
func (s *Selector) Prune(c Catalog) int {
	removed := 0
	for _, id := range s.Selected() {
		if _, ok := c.Get(id); !ok {
			s.Forget(id)
			removed++
		}
	}
	for id := range s.locked {
		if _, ok := c.Get(id); !ok {
			delete(s.locked, id)
		}
	}
	return removed
}
