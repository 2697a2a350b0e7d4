package clipper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"menu-spinner/internal/food"
	"menu-spinner/internal/llm"
)

// --- Mocks ---
type MockTextGenerator struct {
	Response    string
	ShouldError bool
	Prompt      string
}

func (m *MockTextGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	m.Prompt = prompt
	if m.ShouldError {
		return llm.ContentResponse{}, fmt.Errorf("mock ai error")
	}
	return llm.ContentResponse{Content: m.Response}, nil
}

// --- Tests ---

func TestFetch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		html := `
		<html>
			<head>
				<meta property="og:image" content="http://img.test/pie.jpg">
				<script>alert('bad');</script>
			</head>
			<body>
				<h1>Tasty Recipe</h1>
				<div class="ads">Buy stuff!</div>
				<p>Mix flour and water.</p>
				<script>more_bad_stuff()</script>
				<footer>Copyright 2024</footer>
			</body>
		</html>`
		w.Write([]byte(html))
	}))
	defer ts.Close()

	c := NewClipper(&MockTextGenerator{}, "en")
	p, err := c.fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if strings.Contains(p.text, "alert('bad')") {
		t.Error("Failed to remove <script> tags")
	}
	if strings.Contains(p.text, "Buy stuff!") {
		t.Error("Failed to remove .ads class")
	}
	if strings.Contains(p.text, "Copyright 2024") {
		t.Error("Failed to remove <footer>")
	}
	if !strings.Contains(p.text, "Tasty Recipe\nMix flour and water.") {
		t.Errorf("Expected compacted body content, got %q", p.text)
	}
	if p.image != "http://img.test/pie.jpg" {
		t.Errorf("Expected og:image, got '%s'", p.image)
	}
}

func TestClipURL(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`<html><head><meta property="og:image" content="http://img.test/soup.jpg"></head><body>Some Content</body></html>`))
	}))
	defer ts.Close()

	t.Run("Success", func(t *testing.T) {
		aiResponse := "```json\n" + `{"name": "Hot and Sour Soup", "type": "SOUP", "description": "Tangy", "recipe": "1. Simmer",
			"ingredients": [{"name": "Tofu", "amount": "200g"}, {"name": "", "amount": "1"}], "tags": ["Sichuan", "Sichuan", " Spicy "]}` + "\n```"
		mockAI := &MockTextGenerator{Response: aiResponse}
		c := NewClipper(mockAI, "zh")

		item, meta, err := c.ClipURL(context.Background(), ts.URL)
		if err != nil {
			t.Fatalf("ClipURL failed: %v", err)
		}
		if item.ID == "" {
			t.Error("Expected a fresh id")
		}
		if item.Name != "Hot and Sour Soup" || item.Category != food.CategorySoup {
			t.Errorf("Unexpected item %+v", item)
		}
		if item.ImageURL != "http://img.test/soup.jpg" {
			t.Errorf("Expected og:image to win, got '%s'", item.ImageURL)
		}
		if len(item.Ingredients) != 1 {
			t.Errorf("Expected nameless ingredient to be dropped, got %+v", item.Ingredients)
		}
		if len(item.Tags) != 2 || item.Tags[1] != "Spicy" {
			t.Errorf("Expected deduplicated trimmed tags, got %v", item.Tags)
		}
		if meta.AgentName != "Clipper" {
			t.Errorf("Unexpected agent name '%s'", meta.AgentName)
		}
		if !strings.Contains(mockAI.Prompt, "Some Content") || !strings.Contains(mockAI.Prompt, "Simplified Chinese") {
			t.Errorf("Prompt missing content or language:\n%s", mockAI.Prompt)
		}
	})

	t.Run("UnknownTypeDefaultsToDish", func(t *testing.T) {
		c := NewClipper(&MockTextGenerator{Response: `{"name": "Cake", "type": "dessert"}`}, "en")
		item, _, err := c.ClipURL(context.Background(), ts.URL)
		if err != nil {
			t.Fatalf("ClipURL failed: %v", err)
		}
		if item.Category != food.CategoryDish {
			t.Errorf("Expected dish, got '%s'", item.Category)
		}
	})

	t.Run("FetchError", func(t *testing.T) {
		c := NewClipper(&MockTextGenerator{}, "en")
		_, _, err := c.ClipURL(context.Background(), ts.URL+"/missing")
		if err == nil || !strings.Contains(err.Error(), "status 404") {
			t.Fatalf("Expected a 404 error, got %v", err)
		}
	})

	t.Run("AIError", func(t *testing.T) {
		c := NewClipper(&MockTextGenerator{ShouldError: true}, "en")
		if _, _, err := c.ClipURL(context.Background(), ts.URL); err == nil {
			t.Fatal("Expected an error, got nil")
		}
	})

	t.Run("MissingName", func(t *testing.T) {
		c := NewClipper(&MockTextGenerator{Response: `{"name": ""}`}, "en")
		if _, _, err := c.ClipURL(context.Background(), ts.URL); err == nil {
			t.Fatal("Expected an error for missing name, got nil")
		}
	})
}

func TestTextFromHTML(t *testing.T) {
	text, err := TextFromHTML(`<h2>Ingredients</h2><ul><li>Egg</li></ul><script>x()</script>`)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if strings.Contains(text, "x()") || !strings.Contains(text, "Egg") {
		t.Errorf("Unexpected text %q", text)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("番茄炒蛋", 2); got != "番茄" {
		t.Errorf("Expected rune-safe truncation, got %q", got)
	}
	if got := truncate("abc", 10); got != "abc" {
		t.Errorf("Expected unchanged string, got %q", got)
	}
}
