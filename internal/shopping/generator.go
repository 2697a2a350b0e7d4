package shopping

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"text/template"
	"time"

	"menu-spinner/internal/food"
	"menu-spinner/internal/llm"
	"menu-spinner/internal/shared"
)

//go:embed shopping_prompt.md
var shoppingPrompt string

var shoppingTmpl = template.Must(template.New("shopping").Parse(shoppingPrompt))

// ErrEmptyResponse is the fallback cause when the model returns no items.
var ErrEmptyResponse = errors.New("model returned an empty shopping list")

type promptData struct {
	Language string
	Items    []food.FoodItem
}

// Generator turns a menu into a consolidated shopping list.
type Generator struct {
	textGen llm.TextGenerator
}

// NewGenerator creates a new Generator.
func NewGenerator(textGen llm.TextGenerator) *Generator {
	return &Generator{textGen: textGen}
}

// Generate asks the model to consolidate the ingredients of items. It never
// fails: on a model error or an empty reply it returns Fallback(items)
// with the cause attached.
func (g *Generator) Generate(ctx context.Context, items []food.FoodItem, lang string) (List, shared.AgentMeta) {
	meta := shared.AgentMeta{AgentName: shared.AgentShoppingList}
	if len(items) == 0 {
		return List{Items: []Item{}, CreatedAt: time.Now().UTC()}, meta
	}

	start := time.Now()
	list, usage, err := g.consolidate(ctx, items, lang)
	meta.Usage = usage
	meta.Latency = time.Since(start)
	if err != nil {
		log.Printf("Shopping list generation failed, using ingredient fallback: %v", err)
		meta.Fallback = true
		return Fallback(items, err), meta
	}
	return list, meta
}

func (g *Generator) consolidate(ctx context.Context, items []food.FoodItem, lang string) (List, shared.TokenUsage, error) {
	var buf bytes.Buffer
	if err := shoppingTmpl.Execute(&buf, promptData{Language: llm.LanguageName(lang), Items: items}); err != nil {
		return List{}, shared.TokenUsage{}, fmt.Errorf("failed to build shopping prompt: %w", err)
	}

	resp, err := g.textGen.GenerateContent(ctx, buf.String())
	if err != nil {
		return List{}, resp.Usage, fmt.Errorf("failed to get LLM response: %w", err)
	}

	parsed, err := parseItems(resp.Content)
	if err != nil {
		return List{}, resp.Usage, err
	}
	if len(parsed) == 0 {
		return List{}, resp.Usage, ErrEmptyResponse
	}
	return List{Items: parsed, CreatedAt: time.Now().UTC()}, resp.Usage, nil
}

// parseItems accepts either {"items": [...]} or a bare array.
func parseItems(content string) ([]Item, error) {
	content = llm.CleanJSON(content)
	if content == "" {
		return nil, nil
	}

	var items []Item
	if content[0] == '[' {
		if err := json.Unmarshal([]byte(content), &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal shopping list: %w", err)
		}
	} else {
		var wrapped struct {
			Items []Item `json:"items"`
		}
		if err := json.Unmarshal([]byte(content), &wrapped); err != nil {
			return nil, fmt.Errorf("failed to unmarshal shopping list: %w", err)
		}
		items = wrapped.Items
	}

	out := items[:0]
	for _, it := range items {
		if it.Name != "" {
			out = append(out, it)
		}
	}
	return out, nil
}

// Fallback concatenates every item's ingredients in menu order, without
// merging duplicates.
func Fallback(items []food.FoodItem, cause error) List {
	out := []Item{}
	for _, it := range items {
		for _, ing := range it.Ingredients {
			out = append(out, Item{Name: ing.Name, Amount: ing.Amount})
		}
	}
	list := List{Items: out, Fallback: true, CreatedAt: time.Now().UTC()}
	if cause != nil {
		list.Cause = cause.Error()
	}
	return list
}
