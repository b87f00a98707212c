package analytics

import (
	"testing"

	"github.com/chrisdamba/foodlens/internal/models"
)

func TestComputeHeatPointsBucketsAndScales(t *testing.T) {
	orders := []models.ParsedOrder{
		testOrder("Taqueria Sol", 10, 40.71281, -74.00601),
		testOrder("Taqueria Sol", 12, 40.71284, -74.00604),
		testOrder("Taqueria Sol", 14, 40.71279, -74.00598),
		testOrder("Taqueria Sol", 16, 40.72000, -74.01000),
	}
	points := ComputeHeatPoints(orders, "all")
	if len(points) != 2 {
		t.Fatalf("got %d points, want 2 buckets", len(points))
	}
	if points[0].Lat() != 40.71281 || points[0].Lng() != -74.00601 {
		t.Errorf("first bucket should keep the first order's coordinates, got %v", points[0])
	}
	if points[0].Intensity() != 1 {
		t.Errorf("busiest bucket intensity = %v, want 1", points[0].Intensity())
	}
	want := 0.25 + 1.0/3
	if diff := points[1].Intensity() - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("single order bucket intensity = %v, want %v", points[1].Intensity(), want)
	}
}

func TestComputeHeatPointsCategoryFilter(t *testing.T) {
	orders := []models.ParsedOrder{
		testOrder("Taqueria Sol", 10, 40.7128, -74.006),
		testOrder("Corner Spot", 10, 40.7300, -74.000),
	}
	if got := ComputeHeatPoints(orders, "mexican"); len(got) != 1 {
		t.Fatalf("mexican filter: %d points", len(got))
	}
	if got := ComputeHeatPoints(orders, "unknown"); len(got) != 0 {
		t.Fatalf("unclassified orders must only appear under all, got %d", len(got))
	}
	if got := ComputeHeatPoints(orders, ""); len(got) != 2 {
		t.Fatalf("empty filter: %d points", len(got))
	}
	if got := ComputeHeatPoints(nil, "all"); len(got) != 0 {
		t.Fatalf("no orders: %d points", len(got))
	}
}
