package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/timmy/bulkimport/internal/domain"
)

// MaxAttemptsLimit bounds importer.max_attempts.
const MaxAttemptsLimit = 10

type Config struct {
	Importer ImporterConfig `mapstructure:"importer"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Stub     StubConfig     `mapstructure:"stub"`
	Log      LogConfig      `mapstructure:"log"`
}

type ImporterConfig struct {
	ServerURL              string                      `mapstructure:"server_url"`
	Endpoint               string                      `mapstructure:"endpoint"`
	HealthPath             string                      `mapstructure:"health_path"`
	StartDate              string                      `mapstructure:"start_date"`
	MaxAttempts            int                         `mapstructure:"max_attempts"`
	RequestTimeout         time.Duration               `mapstructure:"request_timeout"`
	HealthTimeout          time.Duration               `mapstructure:"health_timeout"`
	BackoffBase            time.Duration               `mapstructure:"backoff_base"`
	PacingDelay            time.Duration               `mapstructure:"pacing_delay"`
	OutputDir              string                      `mapstructure:"output_dir"`
	ExportDir              string                      `mapstructure:"export_dir"`
	SavePartialOnInterrupt bool                        `mapstructure:"save_partial_on_interrupt"`
	Catalog                []domain.DataTypeDescriptor `mapstructure:"catalog"`
}

// StorageConfig configures the optional S3-compatible upload of result files.
type StorageConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Type      string `mapstructure:"type"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Prefix    string `mapstructure:"prefix"`
	PublicURL string `mapstructure:"public_url"`
}

type StubConfig struct {
	Port     int     `mapstructure:"port"`
	Mode     string  `mapstructure:"mode"`
	FailRate float64 `mapstructure:"fail_rate"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// ImportURL returns the full URL of the import endpoint.
func (c ImporterConfig) ImportURL() string {
	return strings.TrimSuffix(c.ServerURL, "/") + c.Endpoint
}

// HealthURL returns the full URL of the health endpoint.
func (c ImporterConfig) HealthURL() string {
	return strings.TrimSuffix(c.ServerURL, "/") + c.HealthPath
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.BindEnv("importer.server_url", "IMPORT_SERVER_URL")
	v.BindEnv("importer.endpoint", "IMPORT_ENDPOINT")
	v.BindEnv("importer.start_date", "IMPORT_START_DATE")
	v.BindEnv("importer.max_attempts", "IMPORT_MAX_ATTEMPTS")
	v.BindEnv("importer.output_dir", "IMPORT_OUTPUT_DIR")
	v.BindEnv("storage.enabled", "RESULTS_STORAGE_ENABLED")
	v.BindEnv("storage.endpoint", "S3_ENDPOINT")
	v.BindEnv("storage.access_key", "S3_ACCESS_KEY")
	v.BindEnv("storage.secret_key", "S3_SECRET_KEY")
	v.BindEnv("storage.bucket", "S3_BUCKET")
	v.BindEnv("stub.port", "STUB_PORT")
	v.BindEnv("log.level", "LOG_LEVEL")
	v.BindEnv("log.format", "LOG_FORMAT")
	v.BindEnv("log.file", "LOG_FILE")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if len(cfg.Importer.Catalog) == 0 {
		cfg.Importer.Catalog = domain.DefaultCatalog()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("importer.server_url", "http://localhost:3000")
	v.SetDefault("importer.endpoint", "/import-filtered-data")
	v.SetDefault("importer.health_path", "/health")
	v.SetDefault("importer.start_date", "2025-06-29")
	v.SetDefault("importer.max_attempts", 3)
	v.SetDefault("importer.request_timeout", 300*time.Second)
	v.SetDefault("importer.health_timeout", 10*time.Second)
	v.SetDefault("importer.backoff_base", time.Second)
	v.SetDefault("importer.pacing_delay", time.Second)
	v.SetDefault("importer.output_dir", ".")
	v.SetDefault("importer.export_dir", "./exports/")
	v.SetDefault("importer.save_partial_on_interrupt", true)
	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.use_ssl", true)
	v.SetDefault("storage.prefix", "bulk-import")
	v.SetDefault("stub.port", 3000)
	v.SetDefault("stub.mode", "release")
	v.SetDefault("stub.fail_rate", 0.0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Validate rejects configurations the importer cannot run with.
func (c *Config) Validate() error {
	if c.Importer.ServerURL == "" {
		return fmt.Errorf("importer.server_url is required")
	}
	if c.Importer.MaxAttempts < 1 || c.Importer.MaxAttempts > MaxAttemptsLimit {
		return fmt.Errorf("importer.max_attempts must be between 1 and %d, got %d", MaxAttemptsLimit, c.Importer.MaxAttempts)
	}
	if _, err := time.Parse(domain.DateLayout, c.Importer.StartDate); err != nil {
		return fmt.Errorf("invalid importer.start_date %q: %w", c.Importer.StartDate, err)
	}
	seen := make(map[string]bool, len(c.Importer.Catalog))
	for _, d := range c.Importer.Catalog {
		if d.ID == "" || d.Name == "" {
			return fmt.Errorf("catalog entries need an id and a name")
		}
		if seen[d.ID] {
			return fmt.Errorf("duplicate catalog id %s", d.ID)
		}
		seen[d.ID] = true
	}
	if c.Storage.Enabled && c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required when storage is enabled")
	}
	return nil
}
