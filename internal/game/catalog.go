package game

import (
	"fmt"
	"sort"
	"strings"
)

type Category int

const (
	CategoryFood Category = iota
	CategoryElectronics
	CategoryClothing
	CategoryFurniture
	CategoryRawMaterial
)

var categoryNames = map[Category]string{
	CategoryFood:        "Food",
	CategoryElectronics: "Electronics",
	CategoryClothing:    "Clothing",
	CategoryFurniture:   "Furniture",
	CategoryRawMaterial: "Raw Material",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func ParseCategory(s string) (Category, error) {
	key := normalizeKey(s)
	for c, name := range categoryNames {
		if normalizeKey(name) == key {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown category %q", s)
}

type ProductType int

const (
	TypeRawMaterial ProductType = iota
	TypeRetailGood
	TypeManufactured
)

var productTypeNames = map[ProductType]string{
	TypeRawMaterial:  "Raw Material",
	TypeRetailGood:   "Retail Good",
	TypeManufactured: "Manufactured Good",
}

func (t ProductType) String() string {
	if name, ok := productTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ProductType(%d)", int(t))
}

func (t ProductType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *ProductType) UnmarshalText(text []byte) error {
	parsed, err := ParseProductType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func ParseProductType(s string) (ProductType, error) {
	key := normalizeKey(s)
	switch key {
	case "manufactured":
		return TypeManufactured, nil
	case "retail":
		return TypeRetailGood, nil
	case "raw":
		return TypeRawMaterial, nil
	}
	for t, name := range productTypeNames {
		if normalizeKey(name) == key {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown product type %q", s)
}

func (t ProductType) IsRawMaterial() bool {
	return t == TypeRawMaterial
}

func normalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(s)
}

type Product struct {
	ID        int         `json:"id"`
	Name      string      `json:"name"`
	BasePrice float64     `json:"base_price"`
	Category  Category    `json:"category"`
	Type      ProductType `json:"type"`
}

type Ingredient struct {
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}

type Recipe struct {
	ID              int          `json:"id"`
	Name            string       `json:"name"`
	Ingredients     []Ingredient `json:"ingredients"`
	OutputProductID int          `json:"output_product_id"`
	OutputQuantity  int          `json:"output_quantity"`
	ProductionDays  int          `json:"production_days"`
}

// MaterialCost prices the recipe's ingredients with the given lookup.
func (r Recipe) MaterialCost(price func(productID int) float64) float64 {
	total := 0.0
	for _, ing := range r.Ingredients {
		total += price(ing.ProductID) * float64(ing.Quantity)
	}
	return total
}

// Catalog is the immutable product and recipe list a game is created with.
type Catalog struct {
	products []Product
	recipes  []Recipe

	productByID map[int]int
	recipeByID  map[int]int
}

func NewCatalog(products []Product, recipes []Recipe) (*Catalog, error) {
	if len(products) == 0 {
		return nil, fmt.Errorf("catalog has no products")
	}
	c := &Catalog{
		products:    append([]Product(nil), products...),
		recipes:     make([]Recipe, 0, len(recipes)),
		productByID: make(map[int]int, len(products)),
		recipeByID:  make(map[int]int, len(recipes)),
	}
	sort.Slice(c.products, func(i, j int) bool { return c.products[i].ID < c.products[j].ID })
	for i, p := range c.products {
		if p.ID <= 0 {
			return nil, fmt.Errorf("product %q: id must be > 0", p.Name)
		}
		if _, dup := c.productByID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate product id %d", p.ID)
		}
		if strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("product %d: name is required", p.ID)
		}
		if p.BasePrice <= 0 {
			return nil, fmt.Errorf("product %d: base price must be > 0", p.ID)
		}
		c.productByID[p.ID] = i
	}
	for _, r := range recipes {
		if _, dup := c.recipeByID[r.ID]; dup {
			return nil, fmt.Errorf("duplicate recipe id %d", r.ID)
		}
		if len(r.Ingredients) == 0 {
			return nil, fmt.Errorf("recipe %d: no ingredients", r.ID)
		}
		for _, ing := range r.Ingredients {
			p, ok := c.Product(ing.ProductID)
			if !ok {
				return nil, fmt.Errorf("recipe %d: unknown ingredient %d", r.ID, ing.ProductID)
			}
			if !p.Type.IsRawMaterial() {
				return nil, fmt.Errorf("recipe %d: ingredient %d is not a raw material", r.ID, ing.ProductID)
			}
			if ing.Quantity <= 0 {
				return nil, fmt.Errorf("recipe %d: ingredient %d quantity must be > 0", r.ID, ing.ProductID)
			}
		}
		if _, ok := c.Product(r.OutputProductID); !ok {
			return nil, fmt.Errorf("recipe %d: unknown output %d", r.ID, r.OutputProductID)
		}
		if r.OutputQuantity <= 0 || r.ProductionDays <= 0 {
			return nil, fmt.Errorf("recipe %d: output quantity and production days must be > 0", r.ID)
		}
		r.Ingredients = append([]Ingredient(nil), r.Ingredients...)
		c.recipeByID[r.ID] = len(c.recipes)
		c.recipes = append(c.recipes, r)
	}
	return c, nil
}

func (c *Catalog) Products() []Product {
	return append([]Product(nil), c.products...)
}

func (c *Catalog) Recipes() []Recipe {
	out := make([]Recipe, len(c.recipes))
	copy(out, c.recipes)
	return out
}

func (c *Catalog) Product(id int) (Product, bool) {
	idx, ok := c.productByID[id]
	if !ok {
		return Product{}, false
	}
	return c.products[idx], true
}

func (c *Catalog) Recipe(id int) (Recipe, bool) {
	idx, ok := c.recipeByID[id]
	if !ok {
		return Recipe{}, false
	}
	return c.recipes[idx], true
}

func (c *Catalog) ProductName(id int) string {
	if p, ok := c.Product(id); ok {
		return p.Name
	}
	return fmt.Sprintf("product #%d", id)
}

func DefaultProducts() []Product {
	return []Product{
		{ID: 1, Name: "Bread", BasePrice: 2.00, Category: CategoryFood, Type: TypeRetailGood},
		{ID: 2, Name: "Milk", BasePrice: 3.50, Category: CategoryFood, Type: TypeRetailGood},
		{ID: 3, Name: "Cheese", BasePrice: 5.00, Category: CategoryFood, Type: TypeRetailGood},
		{ID: 4, Name: "Apples", BasePrice: 4.00, Category: CategoryFood, Type: TypeRetailGood},
		{ID: 5, Name: "Headphones", BasePrice: 25.00, Category: CategoryElectronics, Type: TypeRetailGood},
		{ID: 6, Name: "Phone Charger", BasePrice: 15.00, Category: CategoryElectronics, Type: TypeRetailGood},
		{ID: 7, Name: "USB Cable", BasePrice: 8.00, Category: CategoryElectronics, Type: TypeRetailGood},
		{ID: 8, Name: "T-Shirt", BasePrice: 12.00, Category: CategoryClothing, Type: TypeRetailGood},
		{ID: 9, Name: "Jeans", BasePrice: 35.00, Category: CategoryClothing, Type: TypeRetailGood},
		{ID: 10, Name: "Socks (3-pack)", BasePrice: 6.00, Category: CategoryClothing, Type: TypeRetailGood},

		{ID: 11, Name: "Lumber", BasePrice: 5.00, Category: CategoryRawMaterial, Type: TypeRawMaterial},
		{ID: 12, Name: "Steel", BasePrice: 8.00, Category: CategoryRawMaterial, Type: TypeRawMaterial},
		{ID: 13, Name: "Fabric", BasePrice: 4.00, Category: CategoryRawMaterial, Type: TypeRawMaterial},
		{ID: 14, Name: "Plastic", BasePrice: 3.00, Category: CategoryRawMaterial, Type: TypeRawMaterial},
		{ID: 15, Name: "Electronic Components", BasePrice: 10.00, Category: CategoryRawMaterial, Type: TypeRawMaterial},

		{ID: 16, Name: "Wooden Chair", BasePrice: 40.00, Category: CategoryFurniture, Type: TypeManufactured},
		{ID: 17, Name: "Steel Table", BasePrice: 90.00, Category: CategoryFurniture, Type: TypeManufactured},
		{ID: 18, Name: "Designer Jacket", BasePrice: 55.00, Category: CategoryClothing, Type: TypeManufactured},
		{ID: 19, Name: "Blender", BasePrice: 60.00, Category: CategoryElectronics, Type: TypeManufactured},
		{ID: 20, Name: "Smartphone", BasePrice: 150.00, Category: CategoryElectronics, Type: TypeManufactured},
		{ID: 21, Name: "Laptop", BasePrice: 280.00, Category: CategoryElectronics, Type: TypeManufactured},
	}
}

func DefaultRecipes() []Recipe {
	return []Recipe{
		{ID: 1, Name: "Wooden Chair", Ingredients: []Ingredient{{ProductID: 11, Quantity: 2}}, OutputProductID: 16, OutputQuantity: 1, ProductionDays: 1},
		{ID: 2, Name: "Steel Table", Ingredients: []Ingredient{{ProductID: 12, Quantity: 2}, {ProductID: 11, Quantity: 1}}, OutputProductID: 17, OutputQuantity: 1, ProductionDays: 2},
		{ID: 3, Name: "Designer Jacket", Ingredients: []Ingredient{{ProductID: 13, Quantity: 3}}, OutputProductID: 18, OutputQuantity: 1, ProductionDays: 1},
		{ID: 4, Name: "Blender", Ingredients: []Ingredient{{ProductID: 12, Quantity: 1}, {ProductID: 15, Quantity: 1}}, OutputProductID: 19, OutputQuantity: 1, ProductionDays: 2},
		{ID: 5, Name: "Smartphone", Ingredients: []Ingredient{{ProductID: 15, Quantity: 2}, {ProductID: 14, Quantity: 1}}, OutputProductID: 20, OutputQuantity: 1, ProductionDays: 3},
		{ID: 6, Name: "Laptop", Ingredients: []Ingredient{{ProductID: 15, Quantity: 3}, {ProductID: 12, Quantity: 1}, {ProductID: 14, Quantity: 1}}, OutputProductID: 21, OutputQuantity: 1, ProductionDays: 3},
	}
}

// DefaultCatalog panics only if the built-in tables are inconsistent.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultProducts(), DefaultRecipes())
	if err != nil {
		panic(fmt.Sprintf("default catalog: %v", err))
	}
	return c
}
