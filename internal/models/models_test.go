package models

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestParseDateRange(t *testing.T) {
	now := time.Date(2024, 6, 20, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		start     string
		end       string
		wantStart time.Time
		wantEnd   time.Time
	}{
		{"dates", "2024-06-01", "2024-06-10", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC)},
		{"open end", "2024-06-01T08:00:00Z", "", time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC), now},
		{"open start", "", "2024-06-10", time.Date(2024, 5, 12, 0, 0, 0, 0, time.UTC), time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ParseDateRange(tt.start, tt.end, now, time.UTC, 30)
			if err != nil {
				t.Fatalf("ParseDateRange: %v", err)
			}
			if !r.Start.Equal(tt.wantStart) || !r.End.Equal(tt.wantEnd) {
				t.Fatalf("range = %v..%v", r.Start, r.End)
			}
		})
	}

	if r, err := ParseDateRange("", "", now, time.UTC, 30); r != nil || err != nil {
		t.Fatalf("empty input = %v, %v", r, err)
	}
	if _, err := ParseDateRange("2024-06-10", "2024-06-09", now, time.UTC, 30); !errors.Is(err, ErrInvalidDateRange) {
		t.Fatalf("inverted range: %v", err)
	}
	if _, err := ParseDateRange("June 1st", "", now, time.UTC, 30); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("bad date: %v", err)
	}
}

func TestDateRangePrevious(t *testing.T) {
	r := DateRange{Start: time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), End: time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)}
	prev := r.Previous()
	if !prev.End.Equal(r.Start) || !prev.Start.Equal(time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("previous = %+v", prev)
	}
	if !r.Contains(r.Start) || r.Contains(r.End) {
		t.Fatal("range must be half-open")
	}
}

func TestLocationScan(t *testing.T) {
	var l Location
	if err := l.Scan("POINT(-74.006 40.7128)"); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if l.Lat != 40.7128 || l.Lng != -74.006 {
		t.Fatalf("location = %+v", l)
	}
	if err := l.Scan(42); err == nil {
		t.Fatal("expected an error for an int")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(viper.New(), "")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != "8080" || cfg.Analytics.Source != "postgres" || cfg.Redis.TTL != 10*time.Minute {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Kafka.StoreTopic != "store_summaries" || cfg.Seed.Orders != 500 {
		t.Fatalf("unexpected defaults %+v / %+v", cfg.Kafka, cfg.Seed)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "foodlens.yaml")
	body := "server:\n  port: \"9090\"\n  upstream_timeout: 3s\nanalytics:\n  source: feed\n  timezone: UTC\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("FOODLENS_ANALYTICS_SOURCE", "file")

	cfg, err := LoadConfig(viper.New(), path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Server.UpstreamTimeout != 3*time.Second {
		t.Fatalf("server = %+v", cfg.Server)
	}
	if cfg.Analytics.Source != "file" {
		t.Fatalf("env override ignored: %q", cfg.Analytics.Source)
	}
	loc, err := cfg.Location()
	if err != nil || loc != time.UTC {
		t.Fatalf("Location = %v, %v", loc, err)
	}
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	if _, err := LoadConfig(viper.New(), filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error for a missing explicit config file")
	}
}

func TestDatabaseDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "foodlens", SSLMode: "disable"}
	if got := d.DSN(); got != "host=db port=5432 user=u password=p dbname=foodlens sslmode=disable" {
		t.Fatalf("DSN = %q", got)
	}
}
