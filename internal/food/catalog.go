package food

import (
	"errors"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// ErrDuplicateID is returned by Add when the ID is already taken.
var ErrDuplicateID = errors.New("food item id already exists")

// Catalog is the ordered, in-memory food database. It is not safe for
// concurrent use; the planner store serializes access to it.
type Catalog struct {
	items []FoodItem
	index map[string]int
}

// NewCatalog creates a catalog holding copies of the given items.
// Later duplicates of an ID replace earlier ones.
func NewCatalog(items ...FoodItem) *Catalog {
	c := &Catalog{index: make(map[string]int)}
	for _, it := range items {
		c.Update(it)
	}
	return c
}

// Add inserts a new record at the end of the catalog.
func (c *Catalog) Add(item FoodItem) error {
	if _, ok := c.index[item.ID]; ok {
		return ErrDuplicateID
	}
	c.index[item.ID] = len(c.items)
	c.items = append(c.items, item.Clone())
	return nil
}

// Update replaces the record with the same ID, or appends it if absent.
func (c *Catalog) Update(item FoodItem) {
	if i, ok := c.index[item.ID]; ok {
		c.items[i] = item.Clone()
		return
	}
	c.index[item.ID] = len(c.items)
	c.items = append(c.items, item.Clone())
}

// Delete removes the record with the given ID. It reports whether a record
// was removed; deleting an unknown ID is not an error.
func (c *Catalog) Delete(id string) bool {
	i, ok := c.index[id]
	if !ok {
		return false
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	delete(c.index, id)
	for j := i; j < len(c.items); j++ {
		c.index[c.items[j].ID] = j
	}
	return true
}

// Get returns a copy of the record with the given ID.
func (c *Catalog) Get(id string) (FoodItem, bool) {
	i, ok := c.index[id]
	if !ok {
		return FoodItem{}, false
	}
	return c.items[i].Clone(), true
}

// Has reports whether id is present.
func (c *Catalog) Has(id string) bool {
	_, ok := c.index[id]
	return ok
}

func (c *Catalog) Len() int {
	return len(c.items)
}

// List returns every record in insertion order.
func (c *Catalog) List() []FoodItem {
	out := make([]FoodItem, len(c.items))
	for i, it := range c.items {
		out[i] = it.Clone()
	}
	return out
}

// Pool returns the records of one category in catalog order.
func (c *Catalog) Pool(category Category) []FoodItem {
	var out []FoodItem
	for _, it := range c.items {
		if it.Category == category {
			out = append(out, it.Clone())
		}
	}
	return out
}

// Search returns the records whose name or any tag contains term,
// ignoring case. An empty term matches everything.
func (c *Catalog) Search(term string) []FoodItem {
	needle := strings.ToLower(term)
	out := []FoodItem{}
	for _, it := range c.items {
		if matches(it, needle) {
			out = append(out, it.Clone())
		}
	}
	return out
}

func matches(it FoodItem, needle string) bool {
	if needle == "" || strings.Contains(strings.ToLower(it.Name), needle) {
		return true
	}
	for _, t := range it.Tags {
		if strings.Contains(strings.ToLower(t), needle) {
			return true
		}
	}
	return false
}

// Suggest returns up to n item names closest to term by edit distance.
// Names are split on "/" so bilingual names match either half.
func (c *Catalog) Suggest(term string, n int) []string {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" || n <= 0 {
		return nil
	}

	type scored struct {
		name string
		dist int
	}
	var candidates []scored
	for _, it := range c.items {
		best := -1
		for _, part := range strings.Split(it.Name, "/") {
			d := levenshtein.ComputeDistance(needle, strings.ToLower(strings.TrimSpace(part)))
			if best < 0 || d < best {
				best = d
			}
		}
		candidates = append(candidates, scored{name: it.Name, dist: best})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].dist < candidates[j].dist
	})
	if n > len(candidates) {
		n = len(candidates)
	}
	out := make([]string, 0, n)
	for _, s := range candidates[:n] {
		out = append(out, s.name)
	}
	return out
}
