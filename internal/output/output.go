// Package output writes analytics snapshots and store rollups to the
// configured destination.
package output

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/chrisdamba/foodlens/internal/cloudwriter"
	"github.com/chrisdamba/foodlens/internal/models"
	"github.com/chrisdamba/foodlens/internal/producers"
	"github.com/chrisdamba/foodlens/internal/repositories"
)

const (
	TopicSnapshots = "analytics_snapshots"
	TopicStores    = "store_summaries"
)

type Destination interface {
	WriteMessage(topic string, msg []byte) error
	Close() error
}

// NewDestination builds the destination named by cfg.Output.Format. stores is
// only used by the postgres format.
func NewDestination(ctx context.Context, cfg *models.Config, stores repositories.StoreRepository, logger *zap.Logger) (Destination, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Output.Format {
	case "", "console":
		return NewConsoleOutput(os.Stdout), nil
	case "json":
		return NewJSONOutput(cfg.Output.OutputPath, cfg.Output.OutputFolder), nil
	case "csv":
		return NewCSVOutput(cfg.Output.OutputPath, cfg.Output.OutputFolder), nil
	case "parquet":
		var factory cloudwriter.CloudWriterFactory
		if cfg.Output.Destination != "" && cfg.Output.Destination != "local" {
			if cfg.CloudStorage.Provider != "s3" {
				return nil, fmt.Errorf("unsupported cloud storage provider: %s", cfg.CloudStorage.Provider)
			}
			s3Factory, err := cloudwriter.NewS3WriterFactory(ctx, cfg.CloudStorage.Region)
			if err != nil {
				return nil, fmt.Errorf("failed to create cloud writer factory: %w", err)
			}
			factory = s3Factory
		}
		return NewParquetOutput(ctx, cfg.Output.OutputPath, cfg.Output.OutputFolder, factory, cfg.CloudStorage.BucketName, logger), nil
	case "kafka":
		producer, err := producers.NewSaramaProducer(cfg.Kafka, logger)
		if err != nil {
			return nil, err
		}
		return NewKafkaOutput(producer, map[string]string{
			TopicSnapshots: cfg.Kafka.SnapshotTopic,
			TopicStores:    cfg.Kafka.StoreTopic,
		}), nil
	case "postgres":
		if stores == nil {
			return nil, fmt.Errorf("postgres output needs a store repository")
		}
		return NewPostgresOutput(ctx, stores, logger), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", cfg.Output.Format)
	}
}

// messageTime reads the unix "timestamp" every exported row carries.
func messageTime(msg []byte) (time.Time, error) {
	var event struct {
		Timestamp *float64 `json:"timestamp"`
	}
	if err := json.Unmarshal(msg, &event); err != nil {
		return time.Time{}, err
	}
	if event.Timestamp == nil {
		return time.Time{}, fmt.Errorf("invalid timestamp")
	}
	return time.Unix(int64(*event.Timestamp), 0).UTC(), nil
}

func partitionPath(t time.Time) string {
	year, month, day := t.Date()
	return fmt.Sprintf("year=%d/month=%02d/day=%02d/hour=%02d", year, month, day, t.Hour())
}
