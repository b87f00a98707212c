package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chrisdamba/foodlens/internal/analytics"
	"github.com/chrisdamba/foodlens/internal/models"
	"github.com/chrisdamba/foodlens/internal/output"
	"github.com/chrisdamba/foodlens/internal/repositories"
	"github.com/chrisdamba/foodlens/internal/repositories/postgres"
	"github.com/chrisdamba/foodlens/internal/source"
)

var analyzeFlags struct {
	input       string
	source      string
	category    string
	fulfillment string
	start       string
	end         string
	sortBy      string
	format      string
	lat         float64
	lng         float64
	radiusKm    float64
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Compute an analytics snapshot and write it to the configured output",
	Long: `analyze loads transactions from the configured source, computes the dashboard
payload and per-store rollup, and writes both to the output format (console, json,
csv, parquet, kafka or postgres). With --lat and --lng it also prints the area
selection for that point.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		applyAnalyzeFlags(cmd)

		loc, err := cfg.Location()
		if err != nil {
			return err
		}
		opts, err := analyzeOptions(cmd, time.Now().In(loc), loc)
		if err != nil {
			return err
		}

		src, pool, cleanup, err := buildSource(ctx, cfg.Analytics.Source)
		defer cleanup()
		if err != nil {
			return err
		}

		raw, err := src.Fetch(ctx)
		if err != nil {
			return fmt.Errorf("fetch transactions from %s: %w", src.Name(), err)
		}
		orders, stats := analytics.NewParser(loc).ParseWithStats(raw)
		log.Info("Parsed transactions",
			zap.String("source", src.Name()),
			zap.Int("total", stats.Total),
			zap.Int("parsed", stats.Parsed),
			zap.Int("notCompleted", stats.NotCompleted),
			zap.Int("noTimestamp", stats.NoTimestamp),
			zap.Int("noLocation", stats.NoLocation),
			zap.Int("noTotal", stats.NoTotal),
			zap.Int("notObject", stats.NotObject),
		)

		payload, err := analytics.ComputeAnalytics(orders, opts)
		if err != nil {
			return err
		}
		stores := analytics.AggregateStores(orders)

		var storeRepo repositories.StoreRepository
		if cfg.Output.Format == "postgres" {
			if pool == nil {
				if pool, err = openPool(ctx, cfg.Database); err != nil {
					return err
				}
				defer pool.Close()
			}
			storeRepo = postgres.NewStoreRepository(pool)
		}

		dest, err := output.NewDestination(ctx, cfg, storeRepo, log)
		if err != nil {
			return err
		}
		if err := output.WriteSnapshot(dest, payload, stores); err != nil {
			_ = dest.Close()
			return err
		}
		if err := dest.Close(); err != nil {
			return fmt.Errorf("close %s output: %w", cfg.Output.Format, err)
		}
		log.Info("Analytics snapshot written",
			zap.String("format", cfg.Output.Format),
			zap.Int("orders", payload.Summary.TotalOrders),
			zap.Int("stores", len(stores)),
		)

		if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lng") {
			point := models.Location{Lat: analyzeFlags.lat, Lng: analyzeFlags.lng}
			if !point.Point().Valid() {
				return models.ErrInvalidCoordinates
			}
			selection := analytics.BuildAreaSelection(point, orders, competitionStores(ctx, storeRepo, point, stores), analyzeFlags.category)
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(selection)
		}
		return nil
	},
}

// competitionStores asks PostGIS for the stores around point when the rollup
// was just written to Postgres, and otherwise uses the in-memory rollup.
func competitionStores(ctx context.Context, repo repositories.StoreRepository, point models.Location, rollup []models.StoreSummary) []models.StoreSummary {
	if repo == nil {
		return rollup
	}
	nearby, err := repo.FindNearby(ctx, point, models.AreaRadiusMeters)
	if err != nil {
		log.Warn("Nearby store lookup failed, using in-memory rollup", zap.Error(err))
		return rollup
	}
	log.Debug("Nearby stores from store_summaries", zap.Int("stores", len(nearby)))
	return nearby
}

// applyAnalyzeFlags copies explicitly set flags over the loaded config.
func applyAnalyzeFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.Analytics.InputFile = analyzeFlags.input
		if !flags.Changed("source") {
			cfg.Analytics.Source = source.KindFile
		}
	}
	if flags.Changed("source") {
		cfg.Analytics.Source = analyzeFlags.source
	}
	if flags.Changed("format") {
		cfg.Output.Format = analyzeFlags.format
	}
}

func analyzeOptions(cmd *cobra.Command, now time.Time, loc *time.Location) (analytics.Options, error) {
	days := cfg.Analytics.RangeDays
	if days <= 0 {
		days = analytics.DefaultRangeDays
	}
	dateRange, err := models.ParseDateRange(analyzeFlags.start, analyzeFlags.end, now, loc, days)
	if err != nil {
		return analytics.Options{}, err
	}
	if dateRange == nil {
		dateRange = &models.DateRange{Start: now.AddDate(0, 0, -days), End: now}
	}

	filters := analytics.Filters{Category: analyzeFlags.category}
	if err := analytics.ValidateCategoryFilter(filters.Category); err != nil {
		return analytics.Options{}, err
	}
	if analyzeFlags.fulfillment != "" {
		ft, ok := models.ParseFulfillmentType(analyzeFlags.fulfillment)
		if !ok {
			return analytics.Options{}, fmt.Errorf("%w: fulfillment must be delivery or pickup", models.ErrInvalidParameter)
		}
		filters.FulfillmentType = ft
	}
	if cmd.Flags().Changed("radius-km") {
		filters.Center = &models.Location{Lat: analyzeFlags.lat, Lng: analyzeFlags.lng}
		filters.RadiusKm = analyzeFlags.radiusKm
	}
	if err := filters.Validate(); err != nil {
		return analytics.Options{}, err
	}

	sortBy, err := analytics.ParseSortKey(analyzeFlags.sortBy)
	if err != nil {
		return analytics.Options{}, err
	}

	return analytics.Options{
		Now:      now,
		Range:    dateRange,
		Filters:  filters,
		SortBy:   sortBy,
		Location: loc,
	}, nil
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVar(&analyzeFlags.input, "input", "", "read transactions from a JSON file (implies --source file)")
	f.StringVar(&analyzeFlags.source, "source", "", "transaction source: postgres, feed or file")
	f.StringVar(&analyzeFlags.category, "category", "", "cuisine filter, e.g. mexican or all")
	f.StringVar(&analyzeFlags.fulfillment, "fulfillment", "", "delivery or pickup")
	f.StringVar(&analyzeFlags.start, "start", "", "range start, YYYY-MM-DD or RFC3339")
	f.StringVar(&analyzeFlags.end, "end", "", "range end, YYYY-MM-DD (inclusive) or RFC3339")
	f.StringVar(&analyzeFlags.sortBy, "sort", "revenue", "leaderboard order: revenue, orders or price_range")
	f.StringVar(&analyzeFlags.format, "format", "", "output format: console, json, csv, parquet, kafka or postgres")
	f.Float64Var(&analyzeFlags.lat, "lat", 0, "latitude for the radius filter and area selection")
	f.Float64Var(&analyzeFlags.lng, "lng", 0, "longitude for the radius filter and area selection")
	f.Float64Var(&analyzeFlags.radiusKm, "radius-km", 0, "restrict analytics to orders shipped within this radius of --lat/--lng")
	rootCmd.AddCommand(analyzeCmd)
}
