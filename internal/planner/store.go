// Package planner owns the shared application state: the food catalog and
// one menu selection per session. Every front door goes through it.
package planner

import (
	"errors"
	"sync"

	"menu-spinner/internal/food"
	"menu-spinner/internal/menu"
	"menu-spinner/internal/shopping"
)

// ErrLocked is returned when replacing a locked menu item.
var ErrLocked = errors.New("menu item is locked")

// Menu is a snapshot of one session's selection, resolved against the
// catalog.
type Menu struct {
	Staples      []food.FoodItem `json:"staples"`
	Dishes       []food.FoodItem `json:"dishes"`
	Locked       []string        `json:"locked"`
	ShoppingList *shopping.List  `json:"shoppingList,omitempty"`
}

// Items returns staples followed by dishes.
func (m Menu) Items() []food.FoodItem {
	out := make([]food.FoodItem, 0, len(m.Staples)+len(m.Dishes))
	out = append(out, m.Staples...)
	return append(out, m.Dishes...)
}

// Slot returns the item in 1-based slot n, counting staples then dishes.
func (m Menu) Slot(n int) (food.FoodItem, bool) {
	items := m.Items()
	if n < 1 || n > len(items) {
		return food.FoodItem{}, false
	}
	return items[n-1], true
}

// IsLocked reports whether id is in the locked set.
func (m Menu) IsLocked(id string) bool {
	for _, l := range m.Locked {
		if l == id {
			return true
		}
	}
	return false
}

// ShoppingRequest is handed out by BeginShoppingList. Token must be passed
// back to ApplyShoppingList; Cached is set when the previous list can be
// reused without calling the model.
type ShoppingRequest struct {
	Token  uint64
	Items  []food.FoodItem
	Cached *shopping.List
}

type session struct {
	sel  *menu.Selector
	list shopping.List
	gen  uint64
}

// Store serializes all catalog and selection changes behind one mutex.
// Nothing done under the lock blocks.
type Store struct {
	mu       sync.Mutex
	catalog  *food.Catalog
	sessions map[string]*session
	rnd      menu.Rand

	defaultStaples int
	defaultDishes  int
}

// NewStore creates a store over catalog. A nil rnd uses the global
// math/rand/v2 source. Slot defaults are clamped to the allowed ranges.
func NewStore(catalog *food.Catalog, rnd menu.Rand, defaultStaples, defaultDishes int) *Store {
	if catalog == nil {
		catalog = food.NewCatalog()
	}
	return &Store{
		catalog:        catalog,
		sessions:       make(map[string]*session),
		rnd:            rnd,
		defaultStaples: menu.ClampStaples(defaultStaples),
		defaultDishes:  menu.ClampDishes(defaultDishes),
	}
}

// Defaults returns the slot counts used when a caller passes zero.
func (s *Store) Defaults() (staples, dishes int) {
	return s.defaultStaples, s.defaultDishes
}

// --- Catalog ---

// Foods returns the catalog items matching term; an empty term lists all.
func (s *Store) Foods(term string) []food.FoodItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Search(term)
}

func (s *Store) Food(id string) (food.FoodItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Get(id)
}

// CatalogSize returns the number of catalog items.
func (s *Store) CatalogSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Len()
}

// Suggest returns up to n names close to term.
func (s *Store) Suggest(term string, n int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Suggest(term, n)
}

// AddFood inserts a new item, assigning an ID when it has none.
func (s *Store) AddFood(item food.FoodItem) (food.FoodItem, error) {
	if item.ID == "" {
		item.ID = food.NewID()
	}
	if item.Category == "" {
		item.Category = food.CategoryDish
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.catalog.Add(item); err != nil {
		return food.FoodItem{}, err
	}
	return item.Clone(), nil
}

// SaveFood replaces the item with the same ID, or appends it.
func (s *Store) SaveFood(item food.FoodItem) food.FoodItem {
	if item.ID == "" {
		item.ID = food.NewID()
	}
	if item.Category == "" {
		item.Category = food.CategoryDish
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog.Update(item)
	return item.Clone()
}

// UpsertFoods saves every item and reports how many were new.
func (s *Store) UpsertFoods(items []food.FoodItem) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, it := range items {
		if it.ID == "" {
			continue
		}
		if !s.catalog.Has(it.ID) {
			added++
		}
		s.catalog.Update(it)
	}
	return added
}

// DeleteFood removes the item and purges it from every session's
// selection and locks. Unknown ids are ignored.
func (s *Store) DeleteFood(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.catalog.Delete(id) {
		return false
	}
	for _, sess := range s.sessions {
		sess.sel.Forget(id)
	}
	return true
}

// --- Menu ---

// session returns the session for sid, creating and spinning it on first
// use. Callers hold s.mu.
func (s *Store) session(sid string) *session {
	sess, ok := s.sessions[sid]
	if !ok {
		sess = &session{sel: menu.NewSelector(s.rnd)}
		sess.sel.Randomize(s.catalog, s.defaultStaples, s.defaultDishes)
		s.sessions[sid] = sess
	}
	return sess
}

// snapshot resolves the session's selection. Callers hold s.mu.
func (s *Store) snapshot(sess *session) Menu {
	m := Menu{
		Staples: resolve(s.catalog, sess.sel.Staples()),
		Dishes:  resolve(s.catalog, sess.sel.Dishes()),
		Locked:  sess.sel.Locked(),
	}
	if !sess.list.Empty() || sess.list.Fallback {
		list := sess.list
		list.Items = append([]shopping.Item{}, sess.list.Items...)
		m.ShoppingList = &list
	}
	return m
}

func resolve(c *food.Catalog, ids []string) []food.FoodItem {
	out := make([]food.FoodItem, 0, len(ids))
	for _, id := range ids {
		if it, ok := c.Get(id); ok {
			out = append(out, it)
		}
	}
	return out
}

// Menu returns the session's current menu.
func (s *Store) Menu(sid string) Menu {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(s.session(sid))
}

// Spin re-randomizes the session's menu. Zero counts use the store
// defaults; others are clamped to the allowed ranges.
func (s *Store) Spin(sid string, staples, dishes int) Menu {
	if staples == 0 {
		staples = s.defaultStaples
	}
	if dishes == 0 {
		dishes = s.defaultDishes
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session(sid)
	sess.sel.Prune(s.catalog)
	sess.sel.Randomize(s.catalog, menu.ClampStaples(staples), menu.ClampDishes(dishes))
	return s.snapshot(sess)
}

// ToggleLock flips the lock on id and reports whether it is now locked.
// Ids missing from the catalog are ignored.
func (s *Store) ToggleLock(sid, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.catalog.Has(id) {
		return false
	}
	return s.session(sid).sel.ToggleLock(id)
}

// Replace swaps id for another item of its category. It returns the new
// id, or "" when nothing changed.
func (s *Store) Replace(sid, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.session(sid)
	if sess.sel.IsLocked(id) {
		return "", ErrLocked
	}
	return sess.sel.ReplaceOne(s.catalog, id), nil
}

// --- Shopping list ---

// BeginShoppingList starts a shopping-list request for the session's
// current menu. Each call supersedes the previous ones.
func (s *Store) BeginShoppingList(sid string) ShoppingRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.session(sid)
	sess.sel.Prune(s.catalog)
	sess.gen++

	req := ShoppingRequest{
		Token: sess.gen,
		Items: resolve(s.catalog, sess.sel.Selected()),
	}
	if !sess.list.Empty() && sess.sel.AllLocked() {
		list := sess.list
		list.Items = append([]shopping.Item{}, sess.list.Items...)
		req.Cached = &list
	}
	return req
}

// ApplyShoppingList stores list as the session's shopping list if token is
// still the latest request. It reports whether the list was stored.
func (s *Store) ApplyShoppingList(sid string, token uint64, list shopping.List) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.session(sid)
	if token != sess.gen {
		return false
	}
	sess.list = list
	return true
}
