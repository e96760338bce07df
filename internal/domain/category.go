package domain

import "strings"

// Category is the kind of event a ticket is for.
type Category string

const (
	CategoryFootball         Category = "Football"
	CategoryVolleyball       Category = "Volleyball"
	CategoryMensBasketball   Category = "Men's Basketball"
	CategoryWomensBasketball Category = "Women's Basketball"
	CategoryBaseball         Category = "Baseball"
	CategorySoftball         Category = "Softball"
	CategoryMusic            Category = "Music"
	CategoryUnknown          Category = "Unknown"
)

var knownCategories = []Category{
	CategoryFootball,
	CategoryVolleyball,
	CategoryMensBasketball,
	CategoryWomensBasketball,
	CategoryBaseball,
	CategorySoftball,
	CategoryMusic,
}

// Categories returns the categories a new listing may use.
func Categories() []Category {
	out := make([]Category, len(knownCategories))
	copy(out, knownCategories)
	return out
}

// ParseCategory matches s case-insensitively against the known categories.
// Unrecognized input yields CategoryUnknown and false.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for _, c := range knownCategories {
		if strings.EqualFold(string(c), s) {
			return c, true
		}
	}
	return CategoryUnknown, false
}

// Known reports whether c is one of the categories accepted on creation.
func (c Category) Known() bool {
	switch c {
	case CategoryFootball, CategoryVolleyball, CategoryMensBasketball, CategoryWomensBasketball,
		CategoryBaseball, CategorySoftball, CategoryMusic:
		return true
	default:
		return false
	}
}

// CategoryFromStorage maps a persisted value back to a Category. Values written by a
// newer build that this one does not know become CategoryUnknown.
func CategoryFromStorage(s string) Category {
	c, ok := ParseCategory(s)
	if !ok {
		return CategoryUnknown
	}
	return c
}
