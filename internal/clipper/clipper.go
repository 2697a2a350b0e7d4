package clipper

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"text/template"
	"time"

	"menu-spinner/internal/food"
	"menu-spinner/internal/llm"
	"menu-spinner/internal/shared"

	"github.com/PuerkitoBio/goquery"
)

//go:embed clipper_prompt.md
var clipperPrompt string

var clipperTmpl = template.Must(template.New("clipper").Parse(clipperPrompt))

// maxContentRunes bounds the page text sent to the model.
const maxContentRunes = 20000

// Clipper turns recipe web pages into catalog items.
type Clipper struct {
	textGen    llm.TextGenerator
	httpClient *http.Client
	lang       string
}

// extractedItem represents the data structured by the AI.
type extractedItem struct {
	Name        string            `json:"name"`
	Type        string            `json:"type"`
	Description string            `json:"description"`
	Recipe      string            `json:"recipe"`
	Ingredients []food.Ingredient `json:"ingredients"`
	Tags        []string          `json:"tags"`
}

// NewClipper creates a new Clipper instance.
func NewClipper(textGen llm.TextGenerator, lang string) *Clipper {
	return &Clipper{
		textGen:    textGen,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		lang:       lang,
	}
}

// ClipURL fetches the URL and extracts a new food item from it. The page's
// og:image, when present, becomes the item image.
func (c *Clipper) ClipURL(ctx context.Context, url string) (food.FoodItem, shared.AgentMeta, error) {
	page, err := c.fetch(ctx, url)
	if err != nil {
		return food.FoodItem{}, shared.AgentMeta{AgentName: shared.AgentClipper}, fmt.Errorf("failed to fetch content: %w", err)
	}

	item, meta, err := c.Extract(ctx, url, page.text)
	if err != nil {
		return food.FoodItem{}, meta, err
	}
	if page.image != "" {
		item.ImageURL = page.image
	}
	return item, meta, nil
}

// Extract asks the model to structure already-fetched page text.
func (c *Clipper) Extract(ctx context.Context, source, content string) (food.FoodItem, shared.AgentMeta, error) {
	start := time.Now()
	meta := shared.AgentMeta{AgentName: shared.AgentClipper}

	var buf bytes.Buffer
	err := clipperTmpl.Execute(&buf, map[string]string{
		"Source":   source,
		"Language": llm.LanguageName(c.lang),
		"Content":  truncate(strings.TrimSpace(content), maxContentRunes),
	})
	if err != nil {
		return food.FoodItem{}, meta, fmt.Errorf("failed to build clipper prompt: %w", err)
	}

	resp, err := c.textGen.GenerateContent(ctx, buf.String())
	meta.Usage = resp.Usage
	meta.Latency = time.Since(start)
	if err != nil {
		return food.FoodItem{}, meta, fmt.Errorf("ai extraction failed: %w", err)
	}

	var extracted extractedItem
	if err := json.Unmarshal([]byte(llm.CleanJSON(resp.Content)), &extracted); err != nil {
		return food.FoodItem{}, meta, fmt.Errorf("failed to parse AI response: %w. Response: %s", err, resp.Content)
	}
	if strings.TrimSpace(extracted.Name) == "" {
		return food.FoodItem{}, meta, fmt.Errorf("ai extraction returned no dish name")
	}

	return toFoodItem(extracted), meta, nil
}

func toFoodItem(e extractedItem) food.FoodItem {
	item := food.NewItem()
	item.Name = strings.TrimSpace(e.Name)
	if cat, err := food.ParseCategory(strings.ToLower(strings.TrimSpace(e.Type))); err == nil {
		item.Category = cat
	}
	item.Description = e.Description
	item.Recipe = e.Recipe
	for _, ing := range e.Ingredients {
		if ing.Name != "" {
			item.Ingredients = append(item.Ingredients, ing)
		}
	}
	for _, tag := range e.Tags {
		item.AddTag(tag)
	}
	return item
}

type page struct {
	text  string
	image string
}

func (c *Clipper) fetch(ctx context.Context, url string) (page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return page{}, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return page{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return page{}, fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return page{}, err
	}
	image, _ := doc.Find(`meta[property="og:image"]`).Attr("content")
	return page{text: cleanText(doc), image: image}, nil
}

// TextFromHTML strips markup and noise from an HTML fragment.
func TextFromHTML(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	return cleanText(doc), nil
}

func cleanText(doc *goquery.Document) string {
	// Remove noise to save LLM tokens
	doc.Find("script, style, nav, footer, iframe, noscript, form, ads, .ads, #ads").Remove()

	var lines []string
	for _, line := range strings.Split(doc.Find("body").Text(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
