// Package catalog loads the product and recipe tables a game is created with.
package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"tycoon/internal/game"
)

type File struct {
	Products []ProductEntry `yaml:"products"`
	Recipes  []RecipeEntry  `yaml:"recipes"`
}

type ProductEntry struct {
	ID        int     `yaml:"id"`
	Name      string  `yaml:"name"`
	BasePrice float64 `yaml:"base_price"`
	Category  string  `yaml:"category"`
	Type      string  `yaml:"type"`
}

type RecipeEntry struct {
	ID             int               `yaml:"id"`
	Name           string            `yaml:"name"`
	Ingredients    []IngredientEntry `yaml:"ingredients"`
	Output         int               `yaml:"output"`
	OutputQuantity int               `yaml:"output_quantity"`
	Days           int               `yaml:"days"`
}

type IngredientEntry struct {
	Product  int `yaml:"product"`
	Quantity int `yaml:"quantity"`
}

// Load reads a catalog YAML file. An empty path returns the built-in catalog.
func Load(path string) (*game.Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return game.DefaultCatalog(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func Parse(raw []byte) (*game.Catalog, error) {
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("catalog yaml: %w", err)
	}
	return f.Build()
}

// Build converts the decoded file into a validated catalog.
func (f File) Build() (*game.Catalog, error) {
	if len(f.Products) == 0 {
		return nil, fmt.Errorf("catalog: products list is empty")
	}
	if len(f.Recipes) == 0 {
		return nil, fmt.Errorf("catalog: recipes list is empty")
	}

	products := make([]game.Product, 0, len(f.Products))
	for _, p := range f.Products {
		cat, err := game.ParseCategory(p.Category)
		if err != nil {
			return nil, fmt.Errorf("product %d: %w", p.ID, err)
		}
		typ, err := game.ParseProductType(p.Type)
		if err != nil {
			return nil, fmt.Errorf("product %d: %w", p.ID, err)
		}
		products = append(products, game.Product{
			ID:        p.ID,
			Name:      strings.TrimSpace(p.Name),
			BasePrice: p.BasePrice,
			Category:  cat,
			Type:      typ,
		})
	}

	recipes := make([]game.Recipe, 0, len(f.Recipes))
	for _, r := range f.Recipes {
		out := r.OutputQuantity
		if out == 0 {
			out = 1
		}
		ings := make([]game.Ingredient, 0, len(r.Ingredients))
		for _, ing := range r.Ingredients {
			ings = append(ings, game.Ingredient{ProductID: ing.Product, Quantity: ing.Quantity})
		}
		recipes = append(recipes, game.Recipe{
			ID:              r.ID,
			Name:            strings.TrimSpace(r.Name),
			Ingredients:     ings,
			OutputProductID: r.Output,
			OutputQuantity:  out,
			ProductionDays:  r.Days,
		})
	}
	return game.NewCatalog(products, recipes)
}

// Export renders a catalog in the format Load reads.
func Export(c *game.Catalog) ([]byte, error) {
	var f File
	for _, p := range c.Products() {
		f.Products = append(f.Products, ProductEntry{
			ID:        p.ID,
			Name:      p.Name,
			BasePrice: p.BasePrice,
			Category:  p.Category.String(),
			Type:      p.Type.String(),
		})
	}
	for _, r := range c.Recipes() {
		e := RecipeEntry{ID: r.ID, Name: r.Name, Output: r.OutputProductID, OutputQuantity: r.OutputQuantity, Days: r.ProductionDays}
		for _, ing := range r.Ingredients {
			e.Ingredients = append(e.Ingredients, IngredientEntry{Product: ing.ProductID, Quantity: ing.Quantity})
		}
		f.Recipes = append(f.Recipes, e)
	}
	return yaml.Marshal(f)
}
