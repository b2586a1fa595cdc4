package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/weather-feature-etl/internal/domain"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix prefixes every environment variable read by Load, e.g. ETL_SOURCE_PATH.
	EnvPrefix = "ETL_"
	// FileEnv names an optional YAML file layered under the environment.
	FileEnv = EnvPrefix + "CONFIG"

	maxBatchSize = 1000
	brokersKey   = "kafka_brokers"
)

// Config holds all service settings.
type Config struct {
	SourcePath      string `koanf:"source_path"`
	DestinationPath string `koanf:"destination_path"`

	// Scaling divisors applied to the continuous sensor fields.
	TemperatureDivisor    float64 `koanf:"temperature_divisor"`
	DewPointDivisor       float64 `koanf:"dewpoint_divisor"`
	HumidityDivisor       float64 `koanf:"humidity_divisor"`
	PressureDivisor       float64 `koanf:"pressure_divisor"`
	LuminosityDivisor     float64 `koanf:"luminosity_divisor"`
	ExtraLuminosityFactor float64 `koanf:"extra_luminosity_factor"`

	HTTPAddr        string        `koanf:"http_addr"`
	LogLevel        string        `koanf:"log_level"`
	LogFormat       string        `koanf:"log_format"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// Live sensor stream.
	KafkaBrokers       []string      `koanf:"kafka_brokers"`
	KafkaSourceTopic   string        `koanf:"kafka_source_topic"`
	KafkaSinkTopic     string        `koanf:"kafka_sink_topic"`
	KafkaGroupID       string        `koanf:"kafka_group_id"`
	BatchSize          int           `koanf:"batch_size"`
	BatchFlushInterval time.Duration `koanf:"batch_flush_interval"`
}

// New returns a Config populated with defaults.
func New() *Config {
	s := domain.DefaultScaling()
	return &Config{
		SourcePath:      "data/api_output.csv",
		DestinationPath: "data/normalized.csv",

		TemperatureDivisor:    s.TemperatureDivisor,
		DewPointDivisor:       s.DewPointDivisor,
		HumidityDivisor:       s.HumidityDivisor,
		PressureDivisor:       s.PressureDivisor,
		LuminosityDivisor:     s.LuminosityDivisor,
		ExtraLuminosityFactor: s.ExtraLuminosityFactor,

		HTTPAddr:        ":8080",
		LogLevel:        "info",
		LogFormat:       "json",
		ShutdownTimeout: 10 * time.Second,

		KafkaBrokers:       []string{"localhost:9092"},
		KafkaSourceTopic:   "raw-sensor-readings",
		KafkaSinkTopic:     "normalized-sensor-features",
		KafkaGroupID:       "weather-feature-etl",
		BatchSize:          50,
		BatchFlushInterval: 500 * time.Millisecond,
	}
}

// Load builds a Config by layering, lowest precedence first:
//  1. defaults (New)
//  2. the YAML file named by ETL_CONFIG, if set
//  3. ETL_-prefixed environment variables
func Load() (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv(FileEnv); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	// ETL_KAFKA_BROKERS=a:9092,b:9092 -> kafka_brokers: [a:9092 b:9092]
	envProvider := env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, any) {
		key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		if key == brokersKey {
			return key, strings.Split(value, ",")
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := New()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	// The decoder merges into the default slice, so a configured list replaces it here.
	if k.Exists(brokersKey) {
		cfg.KafkaBrokers = k.Strings(brokersKey)
	}
	cfg.KafkaBrokers = cleanBrokers(cfg.KafkaBrokers)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings and value ranges.
func (c *Config) Validate() error {
	if c.SourcePath == "" {
		return errors.New("ETL_SOURCE_PATH is required")
	}
	if c.DestinationPath == "" {
		return errors.New("ETL_DESTINATION_PATH is required")
	}
	if err := c.Scaling().Validate(); err != nil {
		return fmt.Errorf("invalid scaling: %w", err)
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("ETL_SHUTDOWN_TIMEOUT must be positive")
	}
	if c.BatchSize < 1 || c.BatchSize > maxBatchSize {
		return fmt.Errorf("ETL_BATCH_SIZE must be between 1 and %d", maxBatchSize)
	}
	if c.BatchFlushInterval <= 0 {
		return errors.New("ETL_BATCH_FLUSH_INTERVAL must be positive")
	}
	if len(c.KafkaBrokers) == 0 {
		return errors.New("ETL_KAFKA_BROKERS is required")
	}
	if c.KafkaSourceTopic == "" {
		return errors.New("ETL_KAFKA_SOURCE_TOPIC is required")
	}
	if c.KafkaSinkTopic == "" {
		return errors.New("ETL_KAFKA_SINK_TOPIC is required")
	}
	return nil
}

// Scaling returns the divisors as the value passed to the normalizers.
func (c *Config) Scaling() domain.Scaling {
	return domain.Scaling{
		TemperatureDivisor:    c.TemperatureDivisor,
		DewPointDivisor:       c.DewPointDivisor,
		HumidityDivisor:       c.HumidityDivisor,
		PressureDivisor:       c.PressureDivisor,
		LuminosityDivisor:     c.LuminosityDivisor,
		ExtraLuminosityFactor: c.ExtraLuminosityFactor,
	}
}

func cleanBrokers(in []string) []string {
	out := make([]string, 0, len(in))
	for _, b := range in {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
