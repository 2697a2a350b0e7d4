// Package recipe finds alternative recipes for a dish and merges generated
// details into a catalog item.
package recipe

import "menu-spinner/internal/food"

// Candidate is one alternative recipe returned by a search.
type Candidate struct {
	Title     string `json:"title"`
	Snippet   string `json:"snippet"`
	SourceURL string `json:"sourceUrl,omitempty"`
	ImageURL  string `json:"imageUrl,omitempty"`
}

// Details holds the fields generated for a chosen candidate. A nil slice
// means the model omitted the field; a non-nil empty slice clears it.
type Details struct {
	Description string            `json:"description"`
	Recipe      string            `json:"recipe"`
	Ingredients []food.Ingredient `json:"ingredients"`
	Tags        []string          `json:"tags"`
}

// Merge applies a candidate and its details to item. The name always
// becomes the candidate title and the image is replaced only when the
// candidate has one. Omitted detail fields keep the item's values.
func Merge(item food.FoodItem, c Candidate, d Details) food.FoodItem {
	out := item.Clone()
	out.Name = c.Title
	if c.ImageURL != "" {
		out.ImageURL = c.ImageURL
	}
	if d.Description != "" {
		out.Description = d.Description
	}
	if d.Recipe != "" {
		out.Recipe = d.Recipe
	}
	if d.Ingredients != nil {
		out.Ingredients = append([]food.Ingredient{}, d.Ingredients...)
	}
	if d.Tags != nil {
		out.Tags = append([]string{}, d.Tags...)
	}
	return out
}
