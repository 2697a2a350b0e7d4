package planner

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"menu-spinner/internal/food"
	"menu-spinner/internal/llm"
	"menu-spinner/internal/metrics"
	"menu-spinner/internal/recipe"
	"menu-spinner/internal/shared"
	"menu-spinner/internal/shopping"
)

// --- Mocks ---

type MockTextGenerator struct {
	Response string
	Err      error
	Calls    int
	Prompt   string
	// OnCall runs before the response is returned.
	OnCall func()
}

func (m *MockTextGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	m.Calls++
	m.Prompt = prompt
	if m.OnCall != nil {
		m.OnCall()
	}
	if m.Err != nil {
		return llm.ContentResponse{}, m.Err
	}
	return llm.ContentResponse{
		Content: m.Response,
		Usage:   shared.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}, nil
}

type mockRecorder struct {
	metas []shared.AgentMeta
}

func (m *mockRecorder) RecordMeta(meta shared.AgentMeta) error {
	m.metas = append(m.metas, meta)
	return nil
}

type mockHistory struct {
	saved []shopping.List
	err   error
}

func (m *mockHistory) Save(ctx context.Context, sessionID string, list shopping.List) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.saved = append(m.saved, list)
	return int64(len(m.saved)), nil
}

type mockObserver struct {
	nopObserver
	spins, locks, replaces int
	sources                []string
	catalogSize            int
}

func (m *mockObserver) ObserveSpin()                 { m.spins++ }
func (m *mockObserver) ObserveLock()                 { m.locks++ }
func (m *mockObserver) ObserveReplace()              { m.replaces++ }
func (m *mockObserver) ObserveShoppingList(s string) { m.sources = append(m.sources, s) }
func (m *mockObserver) SetCatalogSize(n int)         { m.catalogSize = n }

type fixture struct {
	planner  *Planner
	gen      *MockTextGenerator
	recorder *mockRecorder
	history  *mockHistory
	observer *mockObserver
}

func newFixture(response string) *fixture {
	f := &fixture{
		gen:      &MockTextGenerator{Response: response},
		recorder: &mockRecorder{},
		history:  &mockHistory{},
		observer: &mockObserver{},
	}
	f.planner = New(Deps{
		Store:    newTestStore(),
		TextGen:  f.gen,
		Language: "en",
		History:  f.history,
		Recorder: f.recorder,
		Observer: f.observer,
	})
	return f
}

// --- Tests ---

func TestShoppingList(t *testing.T) {
	ctx := context.Background()

	t.Run("Consolidated", func(t *testing.T) {
		f := newFixture(`{"items": [{"name": "Tofu", "amount": "1 block"}, {"name": "Egg", "amount": "3"}]}`)
		f.planner.Spin("a", 1, 4)

		list, err := f.planner.ShoppingList(ctx, "a", "")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if list.Fallback || len(list.Items) != 2 {
			t.Errorf("Unexpected list %+v", list)
		}
		if list.ID != 1 || len(f.history.saved) != 1 {
			t.Errorf("Expected list to be saved to history, got id %d", list.ID)
		}
		if len(f.recorder.metas) != 1 || f.recorder.metas[0].AgentName != shared.AgentShoppingList {
			t.Errorf("Expected one recorded shopping-list call, got %+v", f.recorder.metas)
		}
		if len(f.observer.sources) != 1 || f.observer.sources[0] != metrics.SourceAI {
			t.Errorf("Expected ai source, got %v", f.observer.sources)
		}
		if !strings.Contains(f.gen.Prompt, "English") {
			t.Error("Expected default language in prompt")
		}
		if m := f.planner.Menu("a"); m.ShoppingList == nil || len(m.ShoppingList.Items) != 2 {
			t.Errorf("Expected the menu to carry the list, got %+v", m.ShoppingList)
		}
	})

	t.Run("ModelErrorFallsBackToIngredients", func(t *testing.T) {
		f := newFixture("")
		f.gen.Err = errors.New("quota exceeded")
		f.planner.Spin("a", 1, 4)

		list, err := f.planner.ShoppingList(ctx, "a", "zh")
		if err != nil {
			t.Fatalf("Expected fallback without error, got %v", err)
		}
		if !list.Fallback || !strings.Contains(list.Cause, "quota exceeded") {
			t.Errorf("Expected fallback with cause, got %+v", list)
		}
		// d1 and d2 carry one ingredient each.
		if len(list.Items) != 2 {
			t.Errorf("Expected flattened ingredients, got %+v", list.Items)
		}
		if f.observer.sources[0] != metrics.SourceFallback {
			t.Errorf("Expected fallback source, got %v", f.observer.sources)
		}
		if !f.recorder.metas[0].Fallback {
			t.Error("Expected recorded meta to be flagged as fallback")
		}
	})

	t.Run("AllLockedReusesList", func(t *testing.T) {
		f := newFixture(`{"items": [{"name": "Rice", "amount": "1kg"}]}`)
		for _, it := range f.planner.Menu("a").Items() {
			f.planner.ToggleLock("a", it.ID)
		}
		if _, err := f.planner.ShoppingList(ctx, "a", ""); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		list, err := f.planner.ShoppingList(ctx, "a", "")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if f.gen.Calls != 1 {
			t.Errorf("Expected a single model call, got %d", f.gen.Calls)
		}
		if list.Items[0].Name != "Rice" {
			t.Errorf("Unexpected cached list %+v", list)
		}
		if f.observer.sources[1] != metrics.SourceCache {
			t.Errorf("Expected cache source, got %v", f.observer.sources)
		}
	})

	t.Run("SupersededResponseIsDiscarded", func(t *testing.T) {
		f := newFixture(`{"items": [{"name": "Rice", "amount": "1kg"}]}`)
		f.gen.OnCall = func() {
			f.planner.BeginShoppingList("a")
		}

		_, err := f.planner.ShoppingList(ctx, "a", "")
		if !errors.Is(err, ErrSuperseded) {
			t.Fatalf("Expected ErrSuperseded, got %v", err)
		}
		if f.planner.Menu("a").ShoppingList != nil {
			t.Error("Expected the superseded list not to be stored")
		}
		if len(f.history.saved) != 0 {
			t.Error("Expected the superseded list not to be saved")
		}
	})

	t.Run("EmptyMenuSkipsModel", func(t *testing.T) {
		f := newFixture("")
		f.planner.Store = NewStore(food.NewCatalog(), nil, 1, 3)

		list, err := f.planner.ShoppingList(ctx, "a", "")
		if err != nil || !list.Empty() {
			t.Errorf("Expected an empty list, got %+v, %v", list, err)
		}
		if f.gen.Calls != 0 {
			t.Errorf("Expected no model call, got %d", f.gen.Calls)
		}
	})
}

func TestInstrumentation(t *testing.T) {
	f := newFixture("")
	if f.observer.catalogSize != 7 {
		t.Errorf("Expected initial catalog size 7, got %d", f.observer.catalogSize)
	}

	m := f.planner.Spin("a", 1, 3)
	f.planner.ToggleLock("a", m.Dishes[0].ID)
	if _, err := f.planner.Replace("a", m.Dishes[1].ID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	f.planner.DeleteFood("soup")

	if f.observer.spins != 1 || f.observer.locks != 1 || f.observer.replaces != 1 {
		t.Errorf("Unexpected counts %+v", f.observer)
	}
	if f.observer.catalogSize != 6 {
		t.Errorf("Expected catalog size 6 after delete, got %d", f.observer.catalogSize)
	}
}

func TestRecipes(t *testing.T) {
	ctx := context.Background()

	t.Run("Search", func(t *testing.T) {
		f := newFixture(`{"results": [{"title": "Sichuan Mapo Tofu", "snippet": "Numbing and hot"}]}`)
		results, err := f.planner.SearchRecipes(ctx, "mapo tofu", "")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(results) != 1 || results[0].Title != "Sichuan Mapo Tofu" {
			t.Errorf("Unexpected results %+v", results)
		}
		if f.recorder.metas[0].AgentName != shared.AgentRecipeSearch {
			t.Errorf("Expected search meta, got %+v", f.recorder.metas)
		}
	})

	t.Run("SearchError", func(t *testing.T) {
		f := newFixture("")
		f.gen.Err = errors.New("offline")
		if _, err := f.planner.SearchRecipes(ctx, "x", ""); err == nil {
			t.Fatal("Expected an error, got nil")
		}
	})

	t.Run("EnhanceMergesAndSaves", func(t *testing.T) {
		f := newFixture(`{"recipe": "1. Fry tofu", "ingredients": [{"name": "Tofu", "amount": "400g"}, {"name": "Doubanjiang", "amount": "1 tbsp"}]}`)
		c := recipe.Candidate{Title: "Sichuan Mapo Tofu", ImageURL: "http://img.test/mapo.jpg"}

		item, err := f.planner.Enhance(ctx, "d1", c, "")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		stored, _ := f.planner.Food("d1")
		if stored.Name != "Sichuan Mapo Tofu" || stored.ImageURL != c.ImageURL || len(stored.Ingredients) != 2 {
			t.Errorf("Unexpected stored item %+v", stored)
		}
		if item.Category != food.CategoryDish {
			t.Errorf("Expected category to be kept, got %s", item.Category)
		}
	})

	t.Run("EnhanceUnknownItem", func(t *testing.T) {
		f := newFixture("{}")
		_, err := f.planner.Enhance(ctx, "missing", recipe.Candidate{Title: "x"}, "")
		if !errors.Is(err, ErrUnknownFood) {
			t.Errorf("Expected ErrUnknownFood, got %v", err)
		}
		if f.gen.Calls != 0 {
			t.Error("Expected no model call")
		}
	})
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><h1>Dan Dan Noodles</h1><p>Boil noodles.</p></body></html>`))
	}))
	defer ts.Close()

	t.Run("URL", func(t *testing.T) {
		f := newFixture(`{"name": "Dan Dan Noodles", "type": "staple", "ingredients": [{"name": "Noodles", "amount": "200g"}]}`)
		item, err := f.planner.ImportURL(ctx, ts.URL)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if _, ok := f.planner.Food(item.ID); !ok {
			t.Error("Expected the item to be in the catalog")
		}
		if item.Category != food.CategoryStaple {
			t.Errorf("Expected staple, got %s", item.Category)
		}
		if f.observer.catalogSize != 8 {
			t.Errorf("Expected catalog size 8, got %d", f.observer.catalogSize)
		}
	})

	t.Run("Text", func(t *testing.T) {
		f := newFixture(`{"name": "Hot Pot", "type": "soup"}`)
		item, err := f.planner.ImportText(ctx, "ghost:1", "Hot pot broth")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if item.Name != "Hot Pot" || item.Category != food.CategorySoup {
			t.Errorf("Unexpected item %+v", item)
		}
	})

	t.Run("ExtractionError", func(t *testing.T) {
		f := newFixture(`not json`)
		if _, err := f.planner.ImportURL(ctx, ts.URL); err == nil {
			t.Fatal("Expected an error, got nil")
		}
		if f.planner.CatalogSize() != 7 {
			t.Error("Expected the catalog to be unchanged")
		}
	})
}
