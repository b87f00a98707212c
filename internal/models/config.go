package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	UpstreamTimeout time.Duration `mapstructure:"upstream_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"name"`
	SSLMode  string `mapstructure:"ssl_mode"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// DSN builds a libpq style connection string understood by pgxpool.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type FeedConfig struct {
	URL          string        `mapstructure:"url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
	InitialDelay time.Duration `mapstructure:"initial_delay"`
}

type KafkaConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	BrokerList       string `mapstructure:"broker_list"`
	SnapshotTopic    string `mapstructure:"snapshot_topic"`
	StoreTopic       string `mapstructure:"store_topic"`
	TransactionTopic string `mapstructure:"transaction_topic"`
	SessionTimeoutMs int    `mapstructure:"session_timeout_ms"`
}

type CloudStorageConfig struct {
	Provider   string `mapstructure:"provider"`
	BucketName string `mapstructure:"bucket_name"`
	Region     string `mapstructure:"region"`
}

type OutputConfig struct {
	Format       string `mapstructure:"format"`
	Destination  string `mapstructure:"destination"`
	OutputPath   string `mapstructure:"path"`
	OutputFolder string `mapstructure:"folder"`
}

type AnalyticsConfig struct {
	// Source selects where transactions come from: postgres, feed or file.
	Source    string `mapstructure:"source"`
	InputFile string `mapstructure:"input_file"`
	Timezone  string `mapstructure:"timezone"`
	RangeDays int    `mapstructure:"range_days"`
}

type SeedConfig struct {
	Seed        int64   `mapstructure:"seed"`
	Orders      int     `mapstructure:"orders"`
	Stores      int     `mapstructure:"stores"`
	CityLat     float64 `mapstructure:"city_latitude"`
	CityLng     float64 `mapstructure:"city_longitude"`
	UrbanRadius float64 `mapstructure:"urban_radius"`
	Days        int     `mapstructure:"days"`
	Sink        string  `mapstructure:"sink"`
}

type LogConfig struct {
	Env   string `mapstructure:"env"`
	Level string `mapstructure:"level"`
}

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Feed         FeedConfig         `mapstructure:"feed"`
	Kafka        KafkaConfig        `mapstructure:"kafka"`
	CloudStorage CloudStorageConfig `mapstructure:"cloud_storage"`
	Output       OutputConfig       `mapstructure:"output"`
	Analytics    AnalyticsConfig    `mapstructure:"analytics"`
	Seed         SeedConfig         `mapstructure:"seed"`
	Log          LogConfig          `mapstructure:"log"`
}

// Location resolves the configured analytics timezone, falling back to the
// process local zone.
func (cfg *Config) Location() (*time.Location, error) {
	if cfg.Analytics.Timezone == "" || strings.EqualFold(cfg.Analytics.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(cfg.Analytics.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid analytics timezone %q: %w", cfg.Analytics.Timezone, err)
	}
	return loc, nil
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.upstream_timeout", 10*time.Second)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "foodlens")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_conns", 10)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.ttl", 10*time.Minute)

	v.SetDefault("feed.url", "http://localhost:8000/api/mongo-data")
	v.SetDefault("feed.timeout", 10*time.Second)
	v.SetDefault("feed.max_attempts", 3)
	v.SetDefault("feed.initial_delay", 200*time.Millisecond)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.broker_list", "localhost:9092")
	v.SetDefault("kafka.snapshot_topic", "analytics_snapshots")
	v.SetDefault("kafka.store_topic", "store_summaries")
	v.SetDefault("kafka.transaction_topic", "raw_transactions")

	v.SetDefault("cloud_storage.provider", "s3")
	v.SetDefault("cloud_storage.region", "us-east-1")

	v.SetDefault("output.format", "console")
	v.SetDefault("output.destination", "local")
	v.SetDefault("output.path", "output")
	v.SetDefault("output.folder", "analytics")

	v.SetDefault("analytics.source", "postgres")
	v.SetDefault("analytics.timezone", "local")
	v.SetDefault("analytics.range_days", 30)

	v.SetDefault("seed.seed", 42)
	v.SetDefault("seed.orders", 500)
	v.SetDefault("seed.stores", 40)
	v.SetDefault("seed.city_latitude", 37.7749)
	v.SetDefault("seed.city_longitude", -122.4194)
	v.SetDefault("seed.urban_radius", 8.0)
	v.SetDefault("seed.days", 60)
	v.SetDefault("seed.sink", "file")

	v.SetDefault("log.env", "production")
	v.SetDefault("log.level", "info")
}

// LoadConfig initializes and reads the configuration using Viper. A missing
// config file is not an error unless cfgFile was given explicitly.
func LoadConfig(v *viper.Viper, cfgFile string) (*Config, error) {
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("config")
		v.SetConfigName("foodlens")
	}

	v.SetEnvPrefix("FOODLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	decoderConfigOption := viper.DecoderConfigOption(func(config *mapstructure.DecoderConfig) {
		config.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			config.DecodeHook,
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		)
	})
	if err := v.Unmarshal(&config, decoderConfigOption); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	return &config, nil
}
