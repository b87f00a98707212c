package analytics

import (
	"fmt"
	"strings"

	"github.com/chrisdamba/foodlens/internal/models"
)

type categoryRule struct {
	category        models.Category
	keywords        []string
	productKeywords []string
}

// categoryRules is the canonical cuisine taxonomy. Order is significant: when
// several rules match, the earliest one wins.
var categoryRules = []categoryRule{
	{models.CategoryMexican, []string{"taqueria", "mexican", "burrito", "taco"}, []string{"taco", "burrito", "quesadilla"}},
	{models.CategoryIndian, []string{"indian", "biryani", "tandoori"}, []string{"masala", "naan", "curry"}},
	{models.CategoryItalian, []string{"italian", "pizza", "pasta", "trattoria"}, []string{"pizza", "pasta", "margherita"}},
	{models.CategoryChinese, []string{"chinese", "szechuan", "szechwan"}, []string{"dumpling", "lo mein", "fried rice"}},
	{models.CategoryJapanese, []string{"japanese", "sushi", "ramen", "izakaya"}, []string{"sushi", "ramen", "sashimi"}},
	{models.CategoryThai, []string{"thai"}, []string{"pad thai", "tom yum"}},
	{models.CategoryAmerican, []string{"burger", "bbq", "steakhouse", "diner"}, []string{"burger", "wings", "bbq"}},
	{models.CategoryMediterranean, []string{"mediterranean", "greek", "lebanese", "turkish", "mezze", "falafel", "middle eastern"}, []string{"falafel", "mezze", "gyro"}},
	{models.CategoryVegan, []string{"vegan", "plant"}, []string{"vegan", "plant"}},
	{models.CategorySeafood, []string{"seafood", "oyster", "fish"}, []string{"salmon", "shrimp"}},
	{models.CategoryKorean, []string{"korean", "bibimbap", "kbbq"}, []string{"bulgogi", "kimchi", "bibimbap"}},
	{models.CategoryVietnamese, []string{"vietnamese", "pho", "banh mi"}, []string{"pho", "banh mi", "spring roll"}},
	{models.CategoryCaribbean, []string{"caribbean", "jamaican", "jerk"}, []string{"jerk", "oxtail", "roti"}},
	{models.CategoryBreakfast, []string{"breakfast", "brunch", "pancake"}, []string{"pancake", "waffle", "omelette"}},
	{models.CategoryBakery, []string{"bakery", "patisserie", "donut", "bagel"}, []string{"croissant", "muffin", "donut"}},
	{models.CategoryCafe, []string{"cafe", "café", "coffee", "espresso"}, []string{"latte", "espresso", "cappuccino"}},
}

// Categories lists the canonical taxonomy in priority order.
func Categories() []models.Category {
	out := make([]models.Category, len(categoryRules))
	for i, rule := range categoryRules {
		out[i] = rule.category
	}
	return out
}

func normalizeText(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func matchesAnyKeyword(source string, keywords []string) bool {
	if source == "" {
		return false
	}
	for _, keyword := range keywords {
		if strings.Contains(source, keyword) {
			return true
		}
	}
	return false
}

// InferCategory classifies from free text only. Any store-name match beats
// every product match; inside each pass table order decides.
func InferCategory(storeName string, productNames []string) models.Category {
	name := normalizeText(storeName)
	products := make([]string, 0, len(productNames))
	for _, p := range productNames {
		if n := normalizeText(p); n != "" {
			products = append(products, n)
		}
	}

	for _, rule := range categoryRules {
		if matchesAnyKeyword(name, rule.keywords) {
			return rule.category
		}
	}
	for _, rule := range categoryRules {
		for _, product := range products {
			if matchesAnyKeyword(product, rule.productKeywords) {
				return rule.category
			}
		}
	}
	return models.CategoryUnknown
}

// Classify prefers an explicit cuisine field. The taxonomy is closed, so an
// explicit value that maps to no category falls back to text inference.
func Classify(explicit, storeName string, productNames []string) models.Category {
	if c, ok := matchExplicit(explicit); ok {
		return c
	}
	return InferCategory(storeName, productNames)
}

func matchExplicit(explicit string) (models.Category, bool) {
	value := normalizeText(explicit)
	if value == "" {
		return "", false
	}
	for _, rule := range categoryRules {
		if value == string(rule.category) {
			return rule.category, true
		}
	}
	for _, rule := range categoryRules {
		if matchesAnyKeyword(value, rule.keywords) {
			return rule.category, true
		}
	}
	return "", false
}

// ValidateCategoryFilter rejects labels outside the taxonomy. Empty, "all"
// and "unknown" are accepted.
func ValidateCategoryFilter(value string) error {
	filter := ParseCategoryFilter(value)
	if filter.IsAll() || models.Category(filter) == models.CategoryUnknown {
		return nil
	}
	for _, c := range Categories() {
		if models.Category(filter) == c {
			return nil
		}
	}
	return fmt.Errorf("%w: unknown category %q", models.ErrInvalidParameter, value)
}

// ParseCategoryFilter normalizes a request category. Unknown labels are kept
// as-is so they simply match nothing.
func ParseCategoryFilter(value string) models.CategoryFilter {
	v := normalizeText(value)
	if v == "" {
		return models.CategoryFilterAll
	}
	return models.CategoryFilter(v)
}
