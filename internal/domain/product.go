package domain

// Category identifies a product category with a dedicated scorecard and
// spec extractor. The set is closed; unknown tags resolve to CategoryGeneral.
type Category string

const (
	CategoryHeadphones Category = "headphones"
	CategoryTrimmer    Category = "trimmer"
	CategoryMixer      Category = "mixer"
	CategorySmartphone Category = "smartphone"
	CategoryLaptop     Category = "laptop"
	CategoryClothing   Category = "clothing"
	CategoryGeneral    Category = "general"
)

// Categories lists the built-in categories.
func Categories() []Category {
	return []Category{
		CategoryHeadphones, CategoryTrimmer, CategoryMixer,
		CategorySmartphone, CategoryLaptop, CategoryClothing,
		CategoryGeneral,
	}
}

// ParseCategory maps a raw tag to a known category, falling back to general.
func ParseCategory(raw string) Category {
	c := Category(raw)
	switch c {
	case CategoryHeadphones, CategoryTrimmer, CategoryMixer,
		CategorySmartphone, CategoryLaptop, CategoryClothing:
		return c
	default:
		return CategoryGeneral
	}
}

// Product is a catalog row. Identity and base fields are owned by the
// catalog store; QualityScore and FinalScore are derived and written back
// by the scoring usecase.
type Product struct {
	ID          int64
	Name        string
	Category    Category
	Price       float64
	Rating      float64 // 0..5
	Platform    string
	URL         string
	ImageURL    string
	Description string
	Specs       map[string]string

	QualityScore float64 // 0..100, derived
	FinalScore   float64 // >= 0, derived
}

// EmbedText is the text embedded for similarity search: name and description
// combined so short descriptions still carry the product identity.
func (p Product) EmbedText() string {
	if p.Description == "" {
		return p.Name
	}
	return p.Name + " - " + p.Description
}

// HasDescription reports whether the product is eligible for indexing.
func (p Product) HasDescription() bool {
	return p.Description != ""
}
