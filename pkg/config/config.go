package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppConfig holds the complete configuration for the importer services.
type AppConfig struct {
	Environment string           `mapstructure:"environment"`
	LogLevel    string           `mapstructure:"log_level"`
	ServiceName string           `mapstructure:"service_name"`
	Postgres    PostgresConfig   `mapstructure:"postgres"`
	FIDE        FIDEConfig       `mapstructure:"fide"`
	Importer    ImporterConfig   `mapstructure:"importer"`
	History     HistoryConfig    `mapstructure:"history"`
	Checkpoint  CheckpointConfig `mapstructure:"checkpoint"`
	Server      ServerConfig     `mapstructure:"server"`
}

type PostgresConfig struct {
	URI      string `mapstructure:"uri"`
	MaxConns int    `mapstructure:"max_conns"`
	MinConns int    `mapstructure:"min_conns"`
}

type FIDEConfig struct {
	XMLURL          string        `mapstructure:"xml_url"`
	StatsURL        string        `mapstructure:"stats_url"`
	DownloadTimeout time.Duration `mapstructure:"download_timeout"`
}

type ImporterConfig struct {
	BatchSize       int    `mapstructure:"batch_size"`
	ExportLimit     int    `mapstructure:"export_limit"`
	ExportJSON      bool   `mapstructure:"export_json"`
	ExportCSV       bool   `mapstructure:"export_csv"`
	ExportByCountry bool   `mapstructure:"export_by_country"`
	ExportPath      string `mapstructure:"export_path"`
}

type HistoryConfig struct {
	Months int `mapstructure:"months"`
}

// CheckpointConfig selects where the last-import marker is kept.
// Backend is "file" or "redis".
type CheckpointConfig struct {
	Backend   string `mapstructure:"backend"`
	Path      string `mapstructure:"path"`
	RedisAddr string `mapstructure:"redis_addr"`
	RedisKey  string `mapstructure:"redis_key"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// Load loads configuration from an optional file and environment variables.
func Load(path string) (*AppConfig, error) {
	v := viper.New()

	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("fide.xml_url", "https://ratings.fide.com/download/standard_rating_list_xml.zip")
	v.SetDefault("fide.stats_url", "https://ratings.fide.com/a_data_stats.php")
	v.SetDefault("fide.download_timeout", 120*time.Second)
	v.SetDefault("importer.batch_size", 5000)
	v.SetDefault("importer.export_limit", 100000)
	v.SetDefault("importer.export_json", true)
	v.SetDefault("importer.export_csv", true)
	v.SetDefault("importer.export_by_country", false)
	v.SetDefault("importer.export_path", "data/exports")
	v.SetDefault("history.months", 24)
	v.SetDefault("checkpoint.backend", "file")
	v.SetDefault("checkpoint.path", "data/last_import")
	v.SetDefault("checkpoint.redis_key", "fide:last_import")
	v.SetDefault("server.addr", ":8081")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	// Explicit bindings so Unmarshal sees env values for nested keys.
	v.BindEnv("service_name", "SERVICE_NAME")
	v.BindEnv("environment", "ENVIRONMENT")
	v.BindEnv("log_level", "LOG_LEVEL")
	v.BindEnv("postgres.uri", "POSTGRES_URI")
	v.BindEnv("postgres.max_conns", "POSTGRES_MAX_CONNS")
	v.BindEnv("postgres.min_conns", "POSTGRES_MIN_CONNS")
	v.BindEnv("fide.xml_url", "FIDE_XML_URL")
	v.BindEnv("fide.stats_url", "FIDE_STATS_URL")
	v.BindEnv("fide.download_timeout", "FIDE_DOWNLOAD_TIMEOUT")
	v.BindEnv("importer.batch_size", "IMPORTER_BATCH_SIZE")
	v.BindEnv("importer.export_limit", "IMPORTER_EXPORT_LIMIT")
	v.BindEnv("importer.export_json", "IMPORTER_EXPORT_JSON")
	v.BindEnv("importer.export_csv", "IMPORTER_EXPORT_CSV")
	v.BindEnv("importer.export_by_country", "IMPORTER_EXPORT_BY_COUNTRY")
	v.BindEnv("importer.export_path", "IMPORTER_EXPORT_PATH")
	v.BindEnv("history.months", "HISTORY_MONTHS")
	v.BindEnv("checkpoint.backend", "CHECKPOINT_BACKEND")
	v.BindEnv("checkpoint.path", "CHECKPOINT_PATH")
	v.BindEnv("checkpoint.redis_addr", "CHECKPOINT_REDIS_ADDR")
	v.BindEnv("checkpoint.redis_key", "CHECKPOINT_REDIS_KEY")
	v.BindEnv("server.addr", "SERVER_ADDR")

	var config AppConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks if the configuration is usable.
func (c *AppConfig) Validate() error {
	if c.ServiceName == "" {
		return errors.New("service_name is required")
	}
	if c.Postgres.URI == "" {
		return errors.New("postgres.uri is required")
	}
	if c.FIDE.XMLURL == "" {
		return errors.New("fide.xml_url is required")
	}
	if c.Importer.BatchSize <= 0 {
		return errors.New("importer.batch_size must be positive")
	}
	if c.History.Months <= 0 {
		return errors.New("history.months must be positive")
	}
	switch c.Checkpoint.Backend {
	case "file":
		if c.Checkpoint.Path == "" {
			return errors.New("checkpoint.path is required for the file backend")
		}
	case "redis":
		if c.Checkpoint.RedisAddr == "" {
			return errors.New("checkpoint.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown checkpoint backend %q", c.Checkpoint.Backend)
	}
	return nil
}
