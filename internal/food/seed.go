package food

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedCatalog []byte

// DefaultItems returns the built-in catalog shipped with the binary.
func DefaultItems() []FoodItem {
	items, err := ParseItems(seedCatalog)
	if err != nil {
		// The embedded file is part of the build; a parse failure is a programming error.
		panic(fmt.Sprintf("invalid embedded seed catalog: %v", err))
	}
	return items
}

// ParseItems decodes a YAML list of food items. Items without a category
// default to dish. Items without an ID get one derived from category and
// name, so reparsing the same file yields the same IDs.
func ParseItems(data []byte) ([]FoodItem, error) {
	var items []FoodItem
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog yaml: %w", err)
	}
	for i := range items {
		if items[i].Category == "" {
			items[i].Category = CategoryDish
		}
		if _, err := ParseCategory(string(items[i].Category)); err != nil {
			return nil, fmt.Errorf("item %q: %w", items[i].Name, err)
		}
		if items[i].ID == "" {
			items[i].ID = StableID(items[i].Category, items[i].Name)
		}
	}
	return items, nil
}

// LoadItems reads a YAML catalog file from disk.
func LoadItems(path string) ([]FoodItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file %s: %w", path, err)
	}
	return ParseItems(data)
}

// MarshalItems encodes items as YAML in the same shape ParseItems reads.
func MarshalItems(items []FoodItem) ([]byte, error) {
	data, err := yaml.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal catalog yaml: %w", err)
	}
	return data, nil
}
