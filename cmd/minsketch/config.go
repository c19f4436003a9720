package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/minsketch/group"
	"github.com/hupe1980/minsketch/minhash"
	"github.com/hupe1980/minsketch/sketchfile"
)

// Config is the YAML configuration file. Flags override it.
type Config struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	Store   StoreConfig   `yaml:"store"`
	Sketch  SketchConfig  `yaml:"sketch"`
	Lookup  LookupConfig  `yaml:"lookup"`
	Workers int           `yaml:"workers"`
	Limits  LimitsConfig  `yaml:"limits"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// StoreConfig selects where sketch files live.
type StoreConfig struct {
	// Type is "local", "s3" or "minio".
	Type   string `yaml:"type"`
	Path   string `yaml:"path"`
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
	Region string `yaml:"region"`

	// CommitTable enables DynamoDB commits of the catalog pointer (s3 only).
	CommitTable string `yaml:"commit_table"`

	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Secure    bool   `yaml:"secure"`
}

// SketchConfig parameterizes signatures and files.
type SketchConfig struct {
	NumPerm          int    `yaml:"num_perm"`
	Seed             *int64 `yaml:"seed"`
	RandomSeed       bool   `yaml:"random_seed"`
	HashFamily       string `yaml:"hash_family"`
	Compression      string `yaml:"compression"`
	Header           bool   `yaml:"header"`
	AnomalyPolicy    string `yaml:"anomaly_policy"`
	TrailingPolicy   string `yaml:"trailing_policy"`
	ProgressInterval int    `yaml:"progress_interval"`
	SkipUnresolved   bool   `yaml:"skip_unresolved"`
	ChunkSize        int    `yaml:"chunk_size"`
}

// LookupConfig locates the key and vocabulary tables.
type LookupConfig struct {
	KeysTSV    string       `yaml:"keys_tsv"`
	KeysSQLite *SQLiteTable `yaml:"keys_sqlite"`
	VocabTSV   string       `yaml:"vocab_tsv"`
}

// SQLiteTable names a key/value table in a SQLite file.
type SQLiteTable struct {
	Path        string `yaml:"path"`
	Table       string `yaml:"table"`
	KeyColumn   string `yaml:"key_column"`
	ValueColumn string `yaml:"value_column"`
}

// LimitsConfig bounds resource usage.
type LimitsConfig struct {
	IOBytesPerSec int64 `yaml:"io_bytes_per_sec"`
	MemoryBytes   int64 `yaml:"memory_bytes"`
	ReadBatchSize int   `yaml:"read_batch_size"`
}

// MetricsConfig controls metric export.
type MetricsConfig struct {
	// Textfile is written in Prometheus text format when a command exits.
	Textfile string `yaml:"textfile"`
}

func defaultConfig() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Store:     StoreConfig{Type: "local", Path: "."},
		Sketch: SketchConfig{
			NumPerm:          minhash.DefaultNumPerm,
			HashFamily:       "sha1",
			Compression:      "none",
			AnomalyPolicy:    "log",
			TrailingPolicy:   "skip",
			ProgressInterval: 1000,
			ChunkSize:        100000,
		},
		Workers: 1,
	}
}

func readConfig(cfgPath string) (*Config, error) {
	cfg := defaultConfig()
	if cfgPath == "" {
		return cfg, nil
	}

	cfgFile, err := os.Open(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("unable to open config file: %w", err)
	}
	defer cfgFile.Close()

	dec := yaml.NewDecoder(cfgFile)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("unable to parse config file: %w", err)
	}

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if _, err := c.logLevel(); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	switch c.Store.Type {
	case "local", "s3", "minio":
	default:
		return fmt.Errorf("unknown store type %q", c.Store.Type)
	}
	if c.Store.Type != "local" && c.Store.Bucket == "" {
		return fmt.Errorf("store type %s requires a bucket", c.Store.Type)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.Sketch.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.Sketch.ChunkSize)
	}
	if _, err := minhash.ParseHashFamily(c.Sketch.HashFamily); err != nil {
		return err
	}
	if _, err := sketchfile.ParseCompression(c.Sketch.Compression); err != nil {
		return err
	}
	if _, err := c.anomalyPolicy(); err != nil {
		return err
	}
	if _, err := c.trailingPolicy(); err != nil {
		return err
	}
	return nil
}

func (c *Config) logLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return level, nil
}

func (c *Config) anomalyPolicy() (group.AnomalyPolicy, error) {
	switch strings.ToLower(c.Sketch.AnomalyPolicy) {
	case "", "log":
		return group.AnomalyLog, nil
	case "fail":
		return group.AnomalyFail, nil
	default:
		return 0, fmt.Errorf("unknown anomaly policy %q", c.Sketch.AnomalyPolicy)
	}
}

func (c *Config) trailingPolicy() (sketchfile.TrailingPolicy, error) {
	switch strings.ToLower(c.Sketch.TrailingPolicy) {
	case "", "skip":
		return sketchfile.TrailingSkip, nil
	case "strict":
		return sketchfile.TrailingStrict, nil
	default:
		return 0, fmt.Errorf("unknown trailing policy %q", c.Sketch.TrailingPolicy)
	}
}
