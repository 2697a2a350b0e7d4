package food

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Category classifies a food item. Only staples and dishes take part in
// menu randomization; the other categories live in the catalog only.
type Category string

const (
	CategoryStaple   Category = "staple"
	CategoryDish     Category = "dish"
	CategoryColdDish Category = "cold_dish"
	CategorySoup     Category = "soup"
	CategoryDrink    Category = "drink"
)

// Categories lists every known category in display order.
var Categories = []Category{
	CategoryStaple,
	CategoryDish,
	CategoryColdDish,
	CategorySoup,
	CategoryDrink,
}

// PlaceholderImageURL is assigned to newly created items.
const PlaceholderImageURL = "https://images.unsplash.com/photo-1546069901-ba9599a7e63c?auto=format&fit=crop&w=800&q=80"

// ParseCategory validates a category name.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown food category %q", s)
}

// Ingredient is a single line of an item's ingredient list.
type Ingredient struct {
	Name   string `json:"name" yaml:"name"`
	Amount string `json:"amount" yaml:"amount"`
}

// FoodItem is one entry of the food catalog.
type FoodItem struct {
	ID          string       `json:"id" yaml:"id"`
	Name        string       `json:"name" yaml:"name"`
	Category    Category     `json:"type" yaml:"type"`
	Description string       `json:"description" yaml:"description"`
	ImageURL    string       `json:"imageUrl" yaml:"image_url"`
	Recipe      string       `json:"recipe" yaml:"recipe"`
	Ingredients []Ingredient `json:"ingredients" yaml:"ingredients"`
	Tags        []string     `json:"tags" yaml:"tags"`
}

// NewID returns a fresh, collision-resistant item identifier.
func NewID() string {
	return uuid.NewString()
}

// catalogNamespace scopes the derived IDs of file entries that carry none.
var catalogNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("menu-spinner/catalog"))

// StableID derives an ID from category and name, so the same entry read
// twice from a catalog file keeps one identity.
func StableID(category Category, name string) string {
	key := string(category) + "\x00" + strings.ToLower(strings.TrimSpace(name))
	return uuid.NewSHA1(catalogNamespace, []byte(key)).String()
}

// NewItem returns an empty dish with a fresh ID and placeholder defaults,
// ready to be filled in by an editor.
func NewItem() FoodItem {
	return FoodItem{
		ID:          NewID(),
		Category:    CategoryDish,
		ImageURL:    PlaceholderImageURL,
		Ingredients: []Ingredient{},
		Tags:        []string{},
	}
}

// Clone returns a deep copy so callers can't mutate catalog internals.
func (f FoodItem) Clone() FoodItem {
	c := f
	if f.Ingredients != nil {
		c.Ingredients = make([]Ingredient, len(f.Ingredients))
		copy(c.Ingredients, f.Ingredients)
	}
	if f.Tags != nil {
		c.Tags = make([]string, len(f.Tags))
		copy(c.Tags, f.Tags)
	}
	return c
}

// AddTag appends a trimmed tag unless it is empty or already present.
func (f *FoodItem) AddTag(tag string) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return false
	}
	for _, t := range f.Tags {
		if t == tag {
			return false
		}
	}
	f.Tags = append(f.Tags, tag)
	return true
}
