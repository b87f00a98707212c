package geo

import (
	"math"
	"testing"
)

func TestHaversineSamePointIsZero(t *testing.T) {
	p := Point{Lat: 37.7749, Lng: -122.4194}
	if d := HaversineDistanceMeters(p, p); d != 0 {
		t.Fatalf("expected 0, got %f", d)
	}
}

func TestHaversineOneDegreeLatitude(t *testing.T) {
	d := HaversineDistanceMeters(Point{Lat: 0, Lng: 0}, Point{Lat: 1, Lng: 0})
	want := 111195.0
	if math.Abs(d-want) > want*0.01 {
		t.Fatalf("expected ~%f, got %f", want, d)
	}
}

func TestHaversineIsSymmetric(t *testing.T) {
	a := Point{Lat: 40.7128, Lng: -74.0060}
	b := Point{Lat: 34.0522, Lng: -118.2437}
	if math.Abs(HaversineDistanceMeters(a, b)-HaversineDistanceMeters(b, a)) > 1e-6 {
		t.Fatalf("distance is not symmetric")
	}
	// New York to Los Angeles is roughly 3936 km.
	if d := HaversineDistanceMeters(a, b) / 1000; math.Abs(d-3936) > 20 {
		t.Fatalf("unexpected NY-LA distance %f km", d)
	}
}

func TestIsWithinRadius(t *testing.T) {
	tests := []struct {
		name     string
		lat, lng float64
		radiusKm float64
		want     bool
	}{
		{"same point zero radius", 10, 10, 0, true},
		{"half a km north inside 1km", 10.0045, 10, 1, true},
		{"two km north outside 1km", 10.018, 10, 1, false},
		{"one degree inside 112km", 11, 10, 112, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsWithinRadius(10, 10, tt.lat, tt.lng, tt.radiusKm); got != tt.want {
				t.Errorf("IsWithinRadius() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPointValid(t *testing.T) {
	if !(Point{Lat: -90, Lng: 180}).Valid() {
		t.Fatalf("boundary point should be valid")
	}
	if (Point{Lat: 91, Lng: 0}).Valid() {
		t.Fatalf("latitude 91 should be invalid")
	}
	if (Point{Lat: math.NaN(), Lng: 0}).Valid() {
		t.Fatalf("NaN should be invalid")
	}
}
