package synthetic

import (
	"math"

	"github.com/chrisdamba/foodlens/internal/models"
)

const (
	heatmapPoints = 220
	// heatmapRadiusDegrees is roughly 5km at mid latitudes.
	heatmapRadiusDegrees = 0.05
)

var categoryMultipliers = map[models.Category]float64{
	models.CategoryMexican:  1.0,
	models.CategoryChinese:  0.95,
	models.CategoryIndian:   0.8,
	models.CategoryJapanese: 0.7,
	models.CategoryItalian:  0.9,
	models.CategoryThai:     0.75,
}

const defaultCategoryMultiplier = 0.8

// HeatPoint encodes as [lat, lng, intensity] with intensity in [0, 1].
type HeatPoint [3]float64

func (p HeatPoint) Lat() float64       { return p[0] }
func (p HeatPoint) Lng() float64       { return p[1] }
func (p HeatPoint) Intensity() float64 { return p[2] }

// GenerateHeatmapData scatters points around center, denser and hotter near
// the middle, with occasional hotspots. The same center and category always
// produce the same points.
func GenerateHeatmapData(center models.Location, category string) []HeatPoint {
	category = normalizeCategory(category)
	rand := newRand(seedFor(center.Lat, center.Lng, category))

	mul, ok := categoryMultipliers[models.Category(category)]
	if !ok {
		mul = defaultCategoryMultiplier
	}

	sigma := heatmapRadiusDegrees * 0.5
	points := make([]HeatPoint, 0, heatmapPoints)
	for i := 0; i < heatmapPoints; i++ {
		angle := rand.Float64() * 2 * math.Pi
		// sqrt biases the spread towards the center
		distance := math.Sqrt(rand.Float64()) * heatmapRadiusDegrees

		lat := center.Lat + distance*math.Cos(angle)
		lng := center.Lng + distance*math.Sin(angle)

		decay := math.Exp(-(distance * distance) / (2 * sigma * sigma))
		intensity := decay * (0.4 + 0.6*rand.Float64()) * mul
		if rand.Float64() > 0.85 {
			intensity *= 1.8 + rand.Float64()*1.2
		}

		points = append(points, HeatPoint{lat, lng, math.Min(intensity, 1)})
	}
	return points
}

func averageIntensity(points []HeatPoint) float64 {
	if len(points) == 0 {
		return 0
	}
	var sum float64
	for _, p := range points {
		sum += p.Intensity()
	}
	return sum / float64(len(points))
}
