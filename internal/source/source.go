// Package source loads raw transaction records for the analytics engine.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/chrisdamba/foodlens/internal/models"
	"github.com/chrisdamba/foodlens/internal/repositories"
)

const (
	KindPostgres = "postgres"
	KindFeed     = "feed"
	KindFile     = "file"
)

// Source yields undecoded transaction records. Records are handed to the
// parser as-is; a Source never filters or validates them.
type Source interface {
	Fetch(ctx context.Context) ([]any, error)
	Name() string
}

var errNoRecords = errors.New(`payload is neither an array nor an object with a "data" array`)

// FromConfig builds the source named by kind. repo is only needed for the
// postgres source.
func FromConfig(kind string, cfg *models.Config, repo repositories.TransactionRepository, logger *zap.Logger) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case KindPostgres:
		if repo == nil {
			return nil, fmt.Errorf("postgres source needs a transaction repository")
		}
		return NewPostgresSource(repo), nil
	case KindFeed:
		return NewFeedSource(cfg.Feed, logger), nil
	case KindFile:
		if cfg.Analytics.InputFile == "" {
			return nil, fmt.Errorf("file source needs analytics.input_file")
		}
		return NewFileSource(cfg.Analytics.InputFile), nil
	default:
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownSource, kind)
	}
}

// decodeRecords accepts a bare JSON array or the {"data": [...]} envelope
// used by the live feed.
func decodeRecords(body []byte) ([]any, error) {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	switch t := v.(type) {
	case []any:
		return t, nil
	case map[string]any:
		if data, ok := t["data"].([]any); ok {
			return data, nil
		}
	}
	return nil, errNoRecords
}
