package planner

import (
	"context"
	"errors"
	"fmt"
	"log"

	"menu-spinner/internal/clipper"
	"menu-spinner/internal/food"
	"menu-spinner/internal/llm"
	"menu-spinner/internal/metrics"
	"menu-spinner/internal/recipe"
	"menu-spinner/internal/shared"
	"menu-spinner/internal/shopping"
)

var (
	// ErrSuperseded is returned when a newer shopping-list request for the
	// same session finished first.
	ErrSuperseded = errors.New("shopping list request was superseded")
	// ErrUnknownFood is returned when an operation needs an existing item.
	ErrUnknownFood = errors.New("food item not found")
)

// MetaRecorder persists per-call model usage. *metrics.Store satisfies it.
type MetaRecorder interface {
	RecordMeta(meta shared.AgentMeta) error
}

// HistoryStore keeps generated shopping lists. *shopping.Repository
// satisfies it.
type HistoryStore interface {
	Save(ctx context.Context, sessionID string, list shopping.List) (int64, error)
}

// Observer receives domain events. *metrics.Collector satisfies it.
type Observer interface {
	ObserveSpin()
	ObserveReplace()
	ObserveLock()
	ObserveShoppingList(source string)
	ObserveAgent(meta shared.AgentMeta)
	SetCatalogSize(n int)
}

type nopObserver struct{}

func (nopObserver) ObserveSpin()                  {}
func (nopObserver) ObserveReplace()               {}
func (nopObserver) ObserveLock()                  {}
func (nopObserver) ObserveShoppingList(string)    {}
func (nopObserver) ObserveAgent(shared.AgentMeta) {}
func (nopObserver) SetCatalogSize(int)            {}

// Deps wires a Planner. History, Recorder and Observer are optional.
type Deps struct {
	Store    *Store
	TextGen  llm.TextGenerator
	Language string
	History  HistoryStore
	Recorder MetaRecorder
	Observer Observer
}

// Planner is the application core shared by the CLI, the HTTP API and the
// Telegram bot. It embeds the Store for read access and wraps the
// state-changing operations with instrumentation and the model calls.
type Planner struct {
	*Store

	shopping *shopping.Generator
	finder   *recipe.Finder
	clipper  *clipper.Clipper
	history  HistoryStore
	recorder MetaRecorder
	observer Observer
	lang     string
}

// New creates a Planner.
func New(d Deps) *Planner {
	p := &Planner{
		Store:    d.Store,
		shopping: shopping.NewGenerator(d.TextGen),
		finder:   recipe.NewFinder(d.TextGen),
		clipper:  clipper.NewClipper(d.TextGen, d.Language),
		history:  d.History,
		recorder: d.Recorder,
		observer: d.Observer,
		lang:     d.Language,
	}
	if p.Store == nil {
		p.Store = NewStore(nil, nil, 0, 0)
	}
	if p.observer == nil {
		p.observer = nopObserver{}
	}
	p.observer.SetCatalogSize(p.CatalogSize())
	return p
}

// Language returns the default language for model output.
func (p *Planner) Language() string {
	return p.lang
}

func (p *Planner) language(lang string) string {
	if lang == "" {
		return p.lang
	}
	return lang
}

func (p *Planner) record(meta shared.AgentMeta) {
	p.observer.ObserveAgent(meta)
	if p.recorder == nil {
		return
	}
	if err := p.recorder.RecordMeta(meta); err != nil {
		log.Printf("Failed to record metrics for %s: %v", meta.AgentName, err)
	}
}

// --- Instrumented state changes ---

func (p *Planner) Spin(sid string, staples, dishes int) Menu {
	m := p.Store.Spin(sid, staples, dishes)
	p.observer.ObserveSpin()
	return m
}

func (p *Planner) ToggleLock(sid, id string) bool {
	locked := p.Store.ToggleLock(sid, id)
	p.observer.ObserveLock()
	return locked
}

func (p *Planner) Replace(sid, id string) (string, error) {
	next, err := p.Store.Replace(sid, id)
	if err == nil && next != "" {
		p.observer.ObserveReplace()
	}
	return next, err
}

func (p *Planner) AddFood(item food.FoodItem) (food.FoodItem, error) {
	saved, err := p.Store.AddFood(item)
	if err == nil {
		p.observer.SetCatalogSize(p.CatalogSize())
	}
	return saved, err
}

func (p *Planner) SaveFood(item food.FoodItem) food.FoodItem {
	saved := p.Store.SaveFood(item)
	p.observer.SetCatalogSize(p.CatalogSize())
	return saved
}

func (p *Planner) UpsertFoods(items []food.FoodItem) int {
	added := p.Store.UpsertFoods(items)
	p.observer.SetCatalogSize(p.CatalogSize())
	return added
}

func (p *Planner) DeleteFood(id string) bool {
	removed := p.Store.DeleteFood(id)
	if removed {
		p.observer.SetCatalogSize(p.CatalogSize())
	}
	return removed
}

// --- Model-backed operations ---

// ShoppingList produces the shopping list for the session's menu and makes
// it the session's current list. A model failure is masked by the
// ingredient fallback, so the only error is ErrSuperseded.
func (p *Planner) ShoppingList(ctx context.Context, sid, lang string) (shopping.List, error) {
	req := p.BeginShoppingList(sid)
	if req.Cached != nil {
		p.observer.ObserveShoppingList(metrics.SourceCache)
		return *req.Cached, nil
	}

	list, meta := p.shopping.Generate(ctx, req.Items, p.language(lang))
	if len(req.Items) > 0 {
		p.record(meta)
		source := metrics.SourceAI
		if list.Fallback {
			source = metrics.SourceFallback
		}
		p.observer.ObserveShoppingList(source)
	}

	if !p.ApplyShoppingList(sid, req.Token, list) {
		log.Printf("Discarding superseded shopping list for session %s", sid)
		return list, ErrSuperseded
	}

	if p.history != nil && !list.Empty() {
		id, err := p.history.Save(ctx, sid, list)
		if err != nil {
			log.Printf("Failed to save shopping list history: %v", err)
		} else {
			list.ID = id
		}
	}
	return list, nil
}

// SearchRecipes finds alternative recipes for query.
func (p *Planner) SearchRecipes(ctx context.Context, query, lang string) ([]recipe.Candidate, error) {
	candidates, meta, err := p.finder.Search(ctx, query, p.language(lang))
	p.record(meta)
	if err != nil {
		return nil, fmt.Errorf("failed to search recipes: %w", err)
	}
	return candidates, nil
}

// Enhance generates full details for candidate, merges them into the item
// and saves it.
func (p *Planner) Enhance(ctx context.Context, id string, c recipe.Candidate, lang string) (food.FoodItem, error) {
	item, ok := p.Food(id)
	if !ok {
		return food.FoodItem{}, ErrUnknownFood
	}
	if c.Title == "" {
		return food.FoodItem{}, fmt.Errorf("candidate has no title")
	}

	details, meta, err := p.finder.Details(ctx, c, p.language(lang))
	p.record(meta)
	if err != nil {
		return food.FoodItem{}, fmt.Errorf("failed to generate recipe details: %w", err)
	}
	return p.SaveFood(recipe.Merge(item, c, details)), nil
}

// ImportURL clips a recipe page into a new catalog item.
func (p *Planner) ImportURL(ctx context.Context, url string) (food.FoodItem, error) {
	item, meta, err := p.clipper.ClipURL(ctx, url)
	p.record(meta)
	if err != nil {
		return food.FoodItem{}, fmt.Errorf("failed to import %s: %w", url, err)
	}
	return p.AddFood(item)
}

// ImportText turns already-fetched recipe text into a new catalog item.
func (p *Planner) ImportText(ctx context.Context, source, content string) (food.FoodItem, error) {
	item, meta, err := p.clipper.Extract(ctx, source, content)
	p.record(meta)
	if err != nil {
		return food.FoodItem{}, fmt.Errorf("failed to import %s: %w", source, err)
	}
	return p.AddFood(item)
}
