package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Source    SourceConfig    `yaml:"source" envconfig:"SOURCE"`
	Report    ReportConfig    `yaml:"report" envconfig:"REPORT"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" validate:"gte=0"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" validate:"gte=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" validate:"gt=0"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gte=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// SourceConfig selects and parameterizes the activity data source.
type SourceConfig struct {
	Kind            string        `yaml:"kind" envconfig:"KIND" validate:"oneof=csv xlsx sheets"`
	Location        string        `yaml:"location" envconfig:"LOCATION"`
	SheetID         string        `yaml:"sheet_id" envconfig:"SHEET_ID"`
	SheetName       string        `yaml:"sheet_name" envconfig:"SHEET_NAME"`
	SheetRange      string        `yaml:"sheet_range" envconfig:"SHEET_RANGE"`
	APIKey          string        `yaml:"api_key" envconfig:"API_KEY"`
	CredentialsFile string        `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE"`
	HTTPTimeout     time.Duration `yaml:"http_timeout" envconfig:"HTTP_TIMEOUT" validate:"gt=0"`
	CacheTTL        time.Duration `yaml:"cache_ttl" envconfig:"CACHE_TTL" validate:"gte=0"`
}

// ReportConfig holds the cleaning thresholds and report calendar settings.
type ReportConfig struct {
	Timezone            string  `yaml:"timezone" envconfig:"TIMEZONE" validate:"required"`
	MinDistance         float64 `yaml:"min_distance" envconfig:"MIN_DISTANCE" validate:"gte=0"`
	MaxElevationPerMile float64 `yaml:"max_elevation_per_mile" envconfig:"MAX_ELEVATION_PER_MILE" validate:"gt=0"`
	RecentShoeDays      int     `yaml:"recent_shoe_days" envconfig:"RECENT_SHOE_DAYS" validate:"min=1"`
}

// TelemetryConfig configures OpenTelemetry tracing and metrics.
type TelemetryConfig struct {
	ServiceName    string  `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TracesExporter string  `yaml:"traces_exporter" envconfig:"TRACES_EXPORTER" validate:"oneof=none stdout"`
	SampleRate     float64 `yaml:"sample_rate" envconfig:"SAMPLE_RATE" validate:"gte=0,lte=1"`
	MetricsEnabled bool    `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED"`
}

// Load builds the configuration from defaults, an optional YAML file and
// RUNREPORT_* environment variables, in increasing order of precedence.
// An empty path searches the usual locations; RUNREPORT_CONFIG_FILE overrides both.
func Load(path string) (*Config, error) {
	cfg := Default()

	if env := os.Getenv(EnvPrefix + "_CONFIG_FILE"); env != "" {
		path = env
	}
	if path == "" {
		path = getConfigFilePath()
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Fields carry no default tags, so envconfig only touches variables that are set.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays a YAML file onto cfg; keys absent from the file keep their value.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks struct constraints and the rules that span fields.
func (c *Config) Validate() error {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("%s", strings.Join(msgs, "; "))
		}
		return err
	}

	switch c.Source.Kind {
	case SourceCSV, SourceXLSX:
		if strings.TrimSpace(c.Source.Location) == "" {
			return fmt.Errorf("source.location is required for %s sources", c.Source.Kind)
		}
	case SourceSheets:
		if c.Source.SheetID == "" {
			return fmt.Errorf("source.sheet_id is required for sheets sources")
		}
		if c.Source.APIKey == "" && c.Source.CredentialsFile == "" {
			return fmt.Errorf("sheets source needs source.api_key or source.credentials_file")
		}
	}

	if (c.Logging.Output == "file" || c.Logging.Output == "both") && c.Logging.FilePath == "" {
		return fmt.Errorf("logging.file_path is required when output is %s", c.Logging.Output)
	}

	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid report.timezone %q: %w", c.Report.Timezone, err)
	}

	return nil
}

// Location resolves the report time zone. "Local" maps to the host zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Report.Timezone == "" || strings.EqualFold(c.Report.Timezone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(c.Report.Timezone)
}

// getConfigFilePath returns the first config file found in the common locations
func getConfigFilePath() string {
	locations := []string{
		"runreport.yaml",
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  DefaultRequestTimeout,
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimit,
				Burst:   DefaultBurstSize,
			},
		},
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Output:   "console",
			FilePath: "logs/runreport.log",
		},
		Source: SourceConfig{
			Kind:        SourceCSV,
			Location:    DefaultSheetCSVURL(DefaultSheetID, DefaultSheetName),
			SheetID:     DefaultSheetID,
			SheetName:   DefaultSheetName,
			HTTPTimeout: DefaultHTTPTimeout,
		},
		Report: ReportConfig{
			Timezone:            "Local",
			MinDistance:         DefaultMinDistance,
			MaxElevationPerMile: DefaultMaxElevationPerMile,
			RecentShoeDays:      DefaultRecentShoeDays,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    ServiceName,
			Environment:    "development",
			TracesExporter: "none",
			SampleRate:     1.0,
			MetricsEnabled: true,
		},
	}
}
