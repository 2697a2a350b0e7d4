package recipe

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"text/template"
	"time"

	"menu-spinner/internal/llm"
	"menu-spinner/internal/shared"
)

//go:embed search_prompt.md
var searchPrompt string

//go:embed details_prompt.md
var detailsPrompt string

var (
	searchTmpl  = template.Must(template.New("search").Parse(searchPrompt))
	detailsTmpl = template.Must(template.New("details").Parse(detailsPrompt))
)

const searchLimit = 5

// Finder asks the model for alternative recipes and their details.
type Finder struct {
	textGen llm.TextGenerator
}

// NewFinder creates a new Finder.
func NewFinder(textGen llm.TextGenerator) *Finder {
	return &Finder{textGen: textGen}
}

// Search returns candidate recipes for query. An empty, non-nil slice
// means nothing matched; failures are reported as errors.
func (f *Finder) Search(ctx context.Context, query, lang string) ([]Candidate, shared.AgentMeta, error) {
	start := time.Now()
	meta := shared.AgentMeta{AgentName: shared.AgentRecipeSearch}

	prompt, err := render(searchTmpl, map[string]any{
		"Query":    query,
		"Language": llm.LanguageName(lang),
		"Limit":    searchLimit,
	})
	if err != nil {
		return nil, meta, err
	}

	resp, err := f.textGen.GenerateContent(ctx, prompt)
	meta.Usage = resp.Usage
	meta.Latency = time.Since(start)
	if err != nil {
		return nil, meta, fmt.Errorf("failed to get LLM response: %w", err)
	}

	candidates, err := parseCandidates(resp.Content)
	if err != nil {
		return nil, meta, err
	}
	return candidates, meta, nil
}

// Details generates the full recipe for a chosen candidate.
func (f *Finder) Details(ctx context.Context, c Candidate, lang string) (Details, shared.AgentMeta, error) {
	start := time.Now()
	meta := shared.AgentMeta{AgentName: shared.AgentRecipeDetails}

	prompt, err := render(detailsTmpl, map[string]any{
		"Title":     c.Title,
		"Snippet":   c.Snippet,
		"SourceURL": c.SourceURL,
		"Language":  llm.LanguageName(lang),
	})
	if err != nil {
		return Details{}, meta, err
	}

	resp, err := f.textGen.GenerateContent(ctx, prompt)
	meta.Usage = resp.Usage
	meta.Latency = time.Since(start)
	if err != nil {
		return Details{}, meta, fmt.Errorf("failed to get LLM response: %w", err)
	}

	var d Details
	if err := json.Unmarshal([]byte(llm.CleanJSON(resp.Content)), &d); err != nil {
		return Details{}, meta, fmt.Errorf("failed to unmarshal recipe details: %w", err)
	}
	return d, meta, nil
}

// parseCandidates accepts {"results": [...]} or a bare array and drops
// entries without a title.
func parseCandidates(content string) ([]Candidate, error) {
	content = llm.CleanJSON(content)
	out := []Candidate{}
	if content == "" {
		return out, nil
	}

	var raw []Candidate
	if content[0] == '[' {
		if err := json.Unmarshal([]byte(content), &raw); err != nil {
			return nil, fmt.Errorf("failed to unmarshal search results: %w", err)
		}
	} else {
		var wrapped struct {
			Results []Candidate `json:"results"`
		}
		if err := json.Unmarshal([]byte(content), &wrapped); err != nil {
			return nil, fmt.Errorf("failed to unmarshal search results: %w", err)
		}
		raw = wrapped.Results
	}

	for _, c := range raw {
		if c.Title != "" {
			out = append(out, c)
		}
	}
	return out, nil
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to build %s prompt: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
