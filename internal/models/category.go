package models

import "strings"

// Category is a canonical cuisine slug.
type Category string

const (
	CategoryMexican       Category = "mexican"
	CategoryIndian        Category = "indian"
	CategoryItalian       Category = "italian"
	CategoryChinese       Category = "chinese"
	CategoryJapanese      Category = "japanese"
	CategoryThai          Category = "thai"
	CategoryAmerican      Category = "american"
	CategoryMediterranean Category = "mediterranean"
	CategoryVegan         Category = "vegan"
	CategorySeafood       Category = "seafood"
	CategoryKorean        Category = "korean"
	CategoryVietnamese    Category = "vietnamese"
	CategoryCaribbean     Category = "caribbean"
	CategoryBreakfast     Category = "breakfast"
	CategoryBakery        Category = "bakery"
	CategoryCafe          Category = "cafe"
	CategoryUnknown       Category = "unknown"
)

var categoryDisplayNames = map[Category]string{
	CategoryBreakfast: "Breakfast & Brunch",
	CategoryUnknown:   "Unclassified",
}

// DisplayName returns the title-cased label shown in dashboards.
func (c Category) DisplayName() string {
	if name, ok := categoryDisplayNames[c]; ok {
		return name
	}
	if c == "" {
		return categoryDisplayNames[CategoryUnknown]
	}
	return titleCase(string(c))
}

// CategoryFilter is a request-level category constraint. The zero value and
// "all" match every order.
type CategoryFilter string

func (f CategoryFilter) IsAll() bool {
	n := normalize(string(f))
	return n == "" || n == CategoryFilterAll
}

func (f CategoryFilter) Matches(c Category) bool {
	if f.IsAll() {
		return true
	}
	return Category(normalize(string(f))) == c
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func titleCase(value string) string {
	words := strings.Fields(strings.ReplaceAll(value, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
