package cache

import (
	"context"
	"testing"

	"github.com/chrisdamba/foodlens/internal/models"
)

func TestKeyKeepsPositions(t *testing.T) {
	got := Key("2024-06-01", "", "mexican")
	if got != "foodlens:analytics:2024-06-01::mexican" {
		t.Fatalf("Key = %q", got)
	}
}

func TestNilClientIsNoop(t *testing.T) {
	ctx := context.Background()
	c := NewAnalyticsCache(nil, 0, nil)

	if err := c.Set(ctx, Key("a"), models.AnalyticsPayload{}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := c.Get(ctx, Key("a")); got != nil {
		t.Fatalf("Get = %+v, want miss", got)
	}
	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}

	var unset *AnalyticsCache
	if got := unset.Get(ctx, Key("a")); got != nil {
		t.Fatal("nil cache should miss")
	}
}
