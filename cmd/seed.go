package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chrisdamba/foodlens/internal/cache"
	"github.com/chrisdamba/foodlens/internal/factories"
	"github.com/chrisdamba/foodlens/internal/models"
	"github.com/chrisdamba/foodlens/internal/producers"
	"github.com/chrisdamba/foodlens/internal/repositories/postgres"
)

const (
	sinkFile     = "file"
	sinkPostgres = "postgres"
	sinkKafka    = "kafka"

	seedBatchSize = 500
)

var seedFlags struct {
	orders int
	stores int
	seed   int64
	sink   string
	out    string
	reset  bool
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate synthetic transactions for local development",
	Long: `seed produces realistic raw transaction records around the configured city and
writes them to a JSON file, the transaction_cache table or a Kafka topic. The same
seed yields the same stores, times and totals.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		applySeedFlags(cmd)

		factory := factories.NewOrderFactory(cfg.Seed)
		now := time.Now()
		records := make([]map[string]any, cfg.Seed.Orders)
		bar := progressbar.Default(int64(cfg.Seed.Orders), "generating orders")
		for i := range records {
			records[i] = factory.CreateOrder(now)
			_ = bar.Add(1)
		}
		_ = bar.Finish()

		var err error
		switch cfg.Seed.Sink {
		case sinkFile:
			err = seedFile(records)
		case sinkPostgres:
			err = seedPostgres(ctx, records, now)
		case sinkKafka:
			err = seedKafka(records)
		default:
			err = fmt.Errorf("unsupported seed sink: %s", cfg.Seed.Sink)
		}
		if err != nil {
			return err
		}
		log.Info("Seeding complete",
			zap.String("sink", cfg.Seed.Sink),
			zap.Int("orders", len(records)),
			zap.Int("stores", len(factory.Stores())),
			zap.Int64("seed", cfg.Seed.Seed),
		)
		return nil
	},
}

func applySeedFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("orders") {
		cfg.Seed.Orders = seedFlags.orders
	}
	if flags.Changed("stores") {
		cfg.Seed.Stores = seedFlags.stores
	}
	if flags.Changed("seed") {
		cfg.Seed.Seed = seedFlags.seed
	}
	if flags.Changed("sink") {
		cfg.Seed.Sink = seedFlags.sink
	}
	if flags.Changed("out") {
		cfg.Analytics.InputFile = seedFlags.out
	}
	if cfg.Analytics.InputFile == "" {
		cfg.Analytics.InputFile = filepath.Join(cfg.Output.OutputPath, "transactions.json")
	}
}

// seedFile writes a bare JSON array, the shape the file source reads.
func seedFile(records []map[string]any) error {
	path := cfg.Analytics.InputFile
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	log.Info("Wrote transactions file", zap.String("path", path))
	return nil
}

func seedPostgres(ctx context.Context, records []map[string]any, now time.Time) error {
	pool, err := openPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	repo := postgres.NewTransactionRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}
	if seedFlags.reset {
		if err := repo.DeleteAll(ctx); err != nil {
			return err
		}
	}

	rows := make([]models.TransactionRow, 0, len(records))
	for _, rec := range records {
		row, err := factories.TransactionRow(rec, now)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	bar := progressbar.Default(int64(len(rows)), "inserting rows")
	for start := 0; start < len(rows); start += seedBatchSize {
		end := min(start+seedBatchSize, len(rows))
		if err := repo.BulkCreate(ctx, rows[start:end]); err != nil {
			return err
		}
		_ = bar.Add(end - start)
	}
	_ = bar.Finish()

	total, err := repo.Count(ctx)
	if err != nil {
		return err
	}
	log.Info("Stored transactions", zap.Int("rows", total))

	// cached dashboards no longer reflect the table
	client := newRedisClient(ctx, cfg.Redis, log)
	if client != nil {
		defer client.Close()
	}
	if err := cache.NewAnalyticsCache(client, cfg.Redis.TTL, log).Invalidate(ctx); err != nil {
		log.Warn("Failed to invalidate analytics cache", zap.Error(err))
	}
	return nil
}

func seedKafka(records []map[string]any) error {
	producer, err := producers.NewSaramaProducer(cfg.Kafka, log)
	if err != nil {
		return err
	}
	defer producer.Close()

	bar := progressbar.Default(int64(len(records)), "publishing")
	for _, rec := range records {
		msg, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal transaction: %w", err)
		}
		if err := producer.WriteMessage(cfg.Kafka.TransactionTopic, msg); err != nil {
			return err
		}
		_ = bar.Add(1)
	}
	return bar.Finish()
}

func init() {
	f := seedCmd.Flags()
	f.IntVar(&seedFlags.orders, "orders", 500, "number of orders to generate")
	f.IntVar(&seedFlags.stores, "stores", 40, "number of stores orders are spread across")
	f.Int64Var(&seedFlags.seed, "seed", 42, "random seed")
	f.StringVar(&seedFlags.sink, "sink", sinkFile, "where to write: file, postgres or kafka")
	f.StringVar(&seedFlags.out, "out", "", "file sink path (default <output.path>/transactions.json)")
	f.BoolVar(&seedFlags.reset, "reset", false, "truncate transaction_cache before inserting")
	rootCmd.AddCommand(seedCmd)
}
