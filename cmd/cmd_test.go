package cmd

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/chrisdamba/foodlens/internal/analytics"
	"github.com/chrisdamba/foodlens/internal/factories"
	"github.com/chrisdamba/foodlens/internal/models"
	"github.com/chrisdamba/foodlens/internal/source"
)

func resetAnalyzeFlags() {
	analyzeFlags.start, analyzeFlags.end = "", ""
	analyzeFlags.category, analyzeFlags.fulfillment = "", ""
	analyzeFlags.sortBy = ""
}

func TestAnalyzeOptionsDefaultRange(t *testing.T) {
	cfg = &models.Config{Analytics: models.AnalyticsConfig{RangeDays: 7}}
	resetAnalyzeFlags()

	now := time.Date(2024, 6, 20, 12, 0, 0, 0, time.UTC)
	opts, err := analyzeOptions(analyzeCmd, now, time.UTC)
	if err != nil {
		t.Fatalf("analyzeOptions: %v", err)
	}
	if opts.Range == nil || !opts.Range.Start.Equal(now.AddDate(0, 0, -7)) || !opts.Range.End.Equal(now) {
		t.Fatalf("unexpected range %+v", opts.Range)
	}
	if opts.SortBy != analytics.SortByRevenue {
		t.Errorf("SortBy = %q", opts.SortBy)
	}
}

func TestAnalyzeOptionsRejectsBadValues(t *testing.T) {
	cfg = &models.Config{}
	now := time.Date(2024, 6, 20, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		setup func()
	}{
		{"fulfillment", func() { analyzeFlags.fulfillment = "drone" }},
		{"category", func() { analyzeFlags.category = "martian" }},
		{"sort", func() { analyzeFlags.sortBy = "stars" }},
		{"inverted range", func() { analyzeFlags.start, analyzeFlags.end = "2024-06-10", "2024-06-01" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetAnalyzeFlags()
			tt.setup()
			if _, err := analyzeOptions(analyzeCmd, now, time.UTC); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
	resetAnalyzeFlags()
}

func TestApplyAnalyzeFlagsInputImpliesFileSource(t *testing.T) {
	cfg = &models.Config{Analytics: models.AnalyticsConfig{Source: source.KindPostgres}}
	if err := analyzeCmd.Flags().Set("input", "orders.json"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	applyAnalyzeFlags(analyzeCmd)
	if cfg.Analytics.Source != source.KindFile || cfg.Analytics.InputFile != "orders.json" {
		t.Fatalf("analytics config = %+v", cfg.Analytics)
	}
}

func TestSeedFileFeedsFileSource(t *testing.T) {
	log = zap.NewNop()
	path := filepath.Join(t.TempDir(), "nested", "transactions.json")
	cfg = &models.Config{Analytics: models.AnalyticsConfig{InputFile: path}}

	factory := factories.NewOrderFactory(models.SeedConfig{
		Seed: 7, Orders: 25, Stores: 3, CityLat: 37.7749, CityLng: -122.4194, UrbanRadius: 5, Days: 14,
	})
	now := time.Now()
	records := make([]map[string]any, 25)
	for i := range records {
		records[i] = factory.CreateOrder(now)
	}
	if err := seedFile(records); err != nil {
		t.Fatalf("seedFile: %v", err)
	}

	raw, err := source.NewFileSource(path).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(raw) != len(records) {
		t.Fatalf("read %d records, want %d", len(raw), len(records))
	}
}

func TestBuildSourceUnknownKind(t *testing.T) {
	log = zap.NewNop()
	cfg = &models.Config{}
	_, _, cleanup, err := buildSource(context.Background(), "mongo")
	defer cleanup()
	if !errors.Is(err, models.ErrUnknownSource) {
		t.Fatalf("err = %v, want ErrUnknownSource", err)
	}
}

type nearbyRepo struct {
	nearby []models.StoreSummary
	err    error
	radius float64
}

func (r *nearbyRepo) EnsureSchema(context.Context) error                      { return nil }
func (r *nearbyRepo) ReplaceAll(context.Context, []models.StoreSummary) error { return nil }
func (r *nearbyRepo) Count(context.Context) (int, error)                      { return len(r.nearby), nil }
func (r *nearbyRepo) FindNearby(_ context.Context, _ models.Location, radius float64) ([]models.StoreSummary, error) {
	r.radius = radius
	return r.nearby, r.err
}

func TestCompetitionStores(t *testing.T) {
	log = zap.NewNop()
	ctx := context.Background()
	point := models.Location{Lat: 40.7128, Lng: -74.006}
	rollup := []models.StoreSummary{{Name: "Taqueria Sol"}, {Name: "Golden Dragon"}}

	if got := competitionStores(ctx, nil, point, rollup); len(got) != 2 {
		t.Fatalf("without a repository the rollup is used, got %d", len(got))
	}

	repo := &nearbyRepo{nearby: []models.StoreSummary{{Name: "Taqueria Sol"}}}
	got := competitionStores(ctx, repo, point, rollup)
	if len(got) != 1 || repo.radius != models.AreaRadiusMeters {
		t.Fatalf("got %d stores, radius %v", len(got), repo.radius)
	}

	failing := &nearbyRepo{err: errors.New("relation does not exist")}
	if got := competitionStores(ctx, failing, point, rollup); len(got) != 2 {
		t.Fatalf("lookup failure should fall back to the rollup, got %d", len(got))
	}
}
