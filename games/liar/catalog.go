package liar

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Category is a named group of secret words.
type Category struct {
	Name  string   `mapstructure:"name"`
	Words []string `mapstructure:"words"`
}

// Catalog is the static content a round draws its category and word from.
type Catalog struct {
	categories []Category
}

var defaultCategories = []Category{
	{Name: "Animals", Words: []string{"Lion", "Penguin", "Giraffe", "Octopus", "Kangaroo", "Hedgehog", "Dolphin", "Camel"}},
	{Name: "Food", Words: []string{"Pizza", "Sushi", "Taco", "Pancake", "Dumpling", "Croissant", "Curry", "Kimchi"}},
	{Name: "Places", Words: []string{"Airport", "Library", "Hospital", "Beach", "Museum", "Casino", "Prison", "Bakery"}},
	{Name: "Jobs", Words: []string{"Firefighter", "Dentist", "Pilot", "Chef", "Plumber", "Magician", "Lawyer", "Farmer"}},
	{Name: "Sports", Words: []string{"Soccer", "Tennis", "Archery", "Fencing", "Curling", "Surfing", "Bowling", "Boxing"}},
	{Name: "Objects", Words: []string{"Umbrella", "Toothbrush", "Ladder", "Mirror", "Candle", "Backpack", "Scissors", "Compass"}},
}

// NewCatalog rejects empty catalogs and categories without words.
func NewCatalog(categories []Category) (*Catalog, error) {
	if len(categories) == 0 {
		return nil, errors.New("catalog has no categories")
	}

	cats := make([]Category, 0, len(categories))
	for _, c := range categories {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return nil, errors.New("catalog category has no name")
		}

		words := make([]string, 0, len(c.Words))
		for _, w := range c.Words {
			if w = strings.TrimSpace(w); w != "" {
				words = append(words, w)
			}
		}
		if len(words) == 0 {
			return nil, fmt.Errorf("catalog category %q has no words", name)
		}

		cats = append(cats, Category{Name: name, Words: words})
	}

	return &Catalog{categories: cats}, nil
}

func DefaultCatalog() *Catalog {
	c, _ := NewCatalog(defaultCategories)
	return c
}

// LoadCatalog reads a word file in any format viper understands (yaml, json,
// toml) with a top-level "categories" list.
func LoadCatalog(path string) (*Catalog, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read word catalog: %w", err)
	}

	var categories []Category
	if err := v.UnmarshalKey("categories", &categories); err != nil {
		return nil, fmt.Errorf("decode word catalog: %w", err)
	}

	return NewCatalog(categories)
}

// Categories returns the category names in catalog order.
func (c *Catalog) Categories() []string {
	names := make([]string, len(c.categories))
	for i, cat := range c.categories {
		names[i] = cat.Name
	}
	return names
}

// Pick draws a category uniformly, then a word uniformly from it.
func (c *Catalog) Pick(rng Random) (category, word string) {
	cat := c.categories[rng.IntN(len(c.categories))]
	return cat.Name, cat.Words[rng.IntN(len(cat.Words))]
}
