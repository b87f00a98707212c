// Package factories generates synthetic stores and raw transaction records
// shaped like the payloads delivery platforms send.
package factories

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"

	"github.com/jaswdr/faker"
	"github.com/lucsky/cuid"

	"github.com/chrisdamba/foodlens/internal/models"
)

type MenuItem struct {
	Name  string
	Price float64
}

// Store is a synthetic restaurant that orders are generated against.
type Store struct {
	ID       string
	Name     string
	Slug     string
	Cuisine  models.Category
	Location models.Location
	Rating   float64
	Menu     []MenuItem
}

type cuisineProfile struct {
	category models.Category
	label    string
	suffixes []string
	menu     []MenuItem
	weight   float64
}

var cuisineProfiles = []cuisineProfile{
	{models.CategoryMexican, "Mexican", []string{"Taqueria", "Cantina", "Burrito Bar"},
		[]MenuItem{{"Carne Asada Tacos", 11.99}, {"Chicken Burrito", 12.49}, {"Guacamole & Chips", 8.99}, {"Steak Quesadilla", 13.99}, {"Horchata", 3.99}}, 0.16},
	{models.CategoryItalian, "Italian", []string{"Trattoria", "Pizzeria", "Osteria"},
		[]MenuItem{{"Margherita Pizza", 16.99}, {"Spaghetti Carbonara", 18.99}, {"Lasagna", 19.99}, {"Tiramisu", 8.49}, {"Caesar Salad", 12.99}}, 0.15},
	{models.CategoryChinese, "Chinese", []string{"Wok", "Dumpling House", "Noodle Bar"},
		[]MenuItem{{"Kung Pao Chicken", 13.99}, {"Fried Rice", 11.99}, {"Pork Dumplings", 9.49}, {"Lo Mein", 12.99}, {"Spring Rolls", 6.99}}, 0.12},
	{models.CategoryJapanese, "Japanese", []string{"Sushi", "Ramen House", "Izakaya"},
		[]MenuItem{{"California Roll", 11.99}, {"Spicy Tuna Roll", 13.99}, {"Tonkotsu Ramen", 15.99}, {"Edamame", 5.99}, {"Miso Soup", 3.99}}, 0.1},
	{models.CategoryIndian, "Indian", []string{"Tandoor", "Curry House", "Masala Kitchen"},
		[]MenuItem{{"Chicken Tikka Masala", 16.99}, {"Garlic Naan", 4.99}, {"Biryani", 15.99}, {"Samosas", 6.99}, {"Mango Lassi", 4.49}}, 0.1},
	{models.CategoryThai, "Thai", []string{"Thai Kitchen", "Bangkok Street", "Thai Basil"},
		[]MenuItem{{"Pad Thai", 14.99}, {"Green Curry", 15.99}, {"Tom Yum Soup", 12.99}, {"Mango Sticky Rice", 7.99}}, 0.08},
	{models.CategoryAmerican, "American", []string{"Burger Joint", "Grill", "Diner"},
		[]MenuItem{{"Classic Cheeseburger", 12.99}, {"BBQ Ribs", 21.99}, {"Fries", 4.49}, {"Milkshake", 6.49}, {"Buffalo Wings", 11.99}}, 0.14},
	{models.CategoryMediterranean, "Mediterranean", []string{"Kitchen", "Grill", "Mezze"},
		[]MenuItem{{"Falafel Wrap", 10.99}, {"Hummus Plate", 8.99}, {"Chicken Shawarma", 13.49}, {"Greek Salad", 11.49}}, 0.07},
	{models.CategoryVietnamese, "Vietnamese", []string{"Pho", "Banh Mi Shop", "Saigon Kitchen"},
		[]MenuItem{{"Beef Pho", 14.49}, {"Banh Mi", 9.99}, {"Fresh Spring Rolls", 7.49}, {"Vermicelli Bowl", 13.49}}, 0.08},
}

// StoreFactory places stores uniformly inside the urban radius around the
// configured city center.
type StoreFactory struct {
	fake      faker.Faker
	rng       *rand.Rand
	slugCache sync.Map
}

func NewStoreFactory(rng *rand.Rand, fake faker.Faker) *StoreFactory {
	return &StoreFactory{fake: fake, rng: rng}
}

func (sf *StoreFactory) CreateStore(cfg models.SeedConfig) *Store {
	latRange := cfg.UrbanRadius / 111.0
	lngRange := latRange / math.Cos(cfg.CityLat*math.Pi/180.0)

	lat := cfg.CityLat + (sf.rng.Float64()*2-1)*latRange
	lng := cfg.CityLng + (sf.rng.Float64()*2-1)*lngRange

	profile := sf.pickProfile()
	name := fmt.Sprintf("%s %s", sf.fake.Person().LastName(), profile.suffixes[sf.rng.Intn(len(profile.suffixes))])

	menu := make([]MenuItem, len(profile.menu))
	for i, item := range profile.menu {
		// +/-10% so the same dish is priced differently across stores
		menu[i] = MenuItem{Name: item.Name, Price: math.Round(item.Price*(0.9+sf.rng.Float64()*0.2)*100) / 100}
	}

	return &Store{
		ID:       cuid.New(),
		Name:     name,
		Slug:     sf.createUniqueSlug(name),
		Cuisine:  profile.category,
		Location: models.Location{Lat: lat, Lng: lng},
		Rating:   math.Round((3.2+sf.rng.Float64()*1.8)*10) / 10,
		Menu:     menu,
	}
}

func (sf *StoreFactory) pickProfile() cuisineProfile {
	var total float64
	for _, p := range cuisineProfiles {
		total += p.weight
	}
	r := sf.rng.Float64() * total
	var sum float64
	for _, p := range cuisineProfiles {
		sum += p.weight
		if r <= sum {
			return p
		}
	}
	return cuisineProfiles[len(cuisineProfiles)-1]
}

func (sf *StoreFactory) createUniqueSlug(name string) string {
	base := strings.ToLower(strings.ReplaceAll(name, " ", "-"))
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return -1
	}, base)

	slug := base
	counter := 1
	for {
		if _, exists := sf.slugCache.LoadOrStore(slug, true); !exists {
			return slug
		}
		slug = fmt.Sprintf("%s-%d", base, counter)
		counter++
	}
}

func cuisineLabel(c models.Category) string {
	for _, p := range cuisineProfiles {
		if p.category == c {
			return p.label
		}
	}
	return ""
}
