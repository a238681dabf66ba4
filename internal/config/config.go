package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nightsift/sighting-data-service/internal/dataset"
)

// Source kinds accepted by SOURCE_KIND.
const (
	SourceFile  = "file"
	SourceHTTP  = "http"
	SourceKafka = "kafka"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Row source selection.
	SourceKind         string
	SourcePath         string // file source
	SourceURL          string // http source
	SourceFetchTimeout time.Duration
	KafkaBrokers       []string
	KafkaTopic         string

	// Sampling policy (spec'd as configuration, not behavior).
	SampleCeiling int
	BoostShape    string
	BoostCap      int
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := parseDuration("SOURCE_FETCH_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	ceiling, err := parseInt("SAMPLE_CEILING", 1000)
	if err != nil {
		return nil, err
	}
	boostCap, err := parseInt("BOOST_CAP", 50)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		SourceKind:         envOrDefault("SOURCE_KIND", SourceFile),
		SourcePath:         envOrDefault("SOURCE_PATH", "data/ufo_full.csv"),
		SourceURL:          os.Getenv("SOURCE_URL"),
		SourceFetchTimeout: fetchTimeout,
		KafkaBrokers:       splitList(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:         envOrDefault("KAFKA_TOPIC", "raw-sighting-reports"),

		SampleCeiling: ceiling,
		BoostShape:    envOrDefault("BOOST_SHAPE", "cylinder"),
		BoostCap:      boostCap,
	}

	switch cfg.SourceKind {
	case SourceFile:
		if cfg.SourcePath == "" {
			return nil, errors.New("SOURCE_PATH is required for the file source")
		}
	case SourceHTTP:
		if cfg.SourceURL == "" {
			return nil, errors.New("SOURCE_URL is required for the http source")
		}
	case SourceKafka:
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required for the kafka source")
		}
		if cfg.KafkaTopic == "" {
			return nil, errors.New("KAFKA_TOPIC is required for the kafka source")
		}
	default:
		return nil, fmt.Errorf("unknown SOURCE_KIND %q", cfg.SourceKind)
	}

	if cfg.SampleCeiling <= 0 {
		return nil, errors.New("SAMPLE_CEILING must be positive")
	}
	if cfg.BoostCap < 0 || cfg.BoostCap > cfg.SampleCeiling {
		return nil, errors.New("BOOST_CAP must be between 0 and SAMPLE_CEILING")
	}

	return cfg, nil
}

// SamplePolicy returns the configured sampling knobs.
func (c *Config) SamplePolicy() dataset.SamplePolicy {
	return dataset.SamplePolicy{
		Ceiling:    c.SampleCeiling,
		BoostShape: c.BoostShape,
		BoostCap:   c.BoostCap,
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
