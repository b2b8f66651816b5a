package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	AWS      AWSConfig
	Data     DataConfig
	Display  DisplayConfig
	Metrics  MetricsConfig
}

// DatabaseConfig holds database configuration. An empty URL keeps sessions
// in memory.
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           string
	Env            string
	AllowedOrigins []string
}

// AWSConfig holds AWS/S3 configuration
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	S3Prefix        string
	S3Endpoint      string
}

// DataConfig describes where fiber arrays are read from. Discovery "grid"
// loads Groups x FibersPerGroup; "listing" loads every fiber found in the
// source.
type DataConfig struct {
	Source         string
	Dir            string
	Suffix         string
	Discovery      string
	Groups         []int
	FibersPerGroup int
	TimeDownsample int
	FreqDownsample int
}

// DisplayConfig holds dashboard defaults
type DisplayConfig struct {
	ColorScale  string
	PeakSigma   float64
	ToleranceHz float64
}

// MetricsConfig holds Prometheus configuration
type MetricsConfig struct {
	Enabled bool
}

var keys = []string{
	"DATABASE_URL",
	"PORT",
	"ENVIRONMENT",
	"ALLOWED_ORIGINS",
	"AWS_REGION",
	"AWS_ACCESS_KEY_ID",
	"AWS_SECRET_ACCESS_KEY",
	"S3_BUCKET",
	"S3_PREFIX",
	"S3_ENDPOINT",
	"DATA_SOURCE",
	"DATA_DIR",
	"DATA_SUFFIX",
	"FIBER_DISCOVERY",
	"FIBER_GROUPS",
	"FIBERS_PER_GROUP",
	"TIME_DOWNSAMPLE",
	"FREQ_DOWNSAMPLE",
	"COLOR_SCALE",
	"PEAK_SIGMA",
	"TOLERANCE_HZ",
	"METRICS_ENABLED",
}

// Load loads configuration from environment variables and .env files
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("PORT", "8002")
	v.SetDefault("ENVIRONMENT", "dev")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:8002,http://localhost:8040")
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("AWS_ACCESS_KEY_ID", "")
	v.SetDefault("AWS_SECRET_ACCESS_KEY", "")
	v.SetDefault("S3_BUCKET", "fiberscope-data")
	v.SetDefault("S3_PREFIX", "")
	v.SetDefault("S3_ENDPOINT", "")
	v.SetDefault("DATA_SOURCE", "local")
	v.SetDefault("DATA_DIR", "data")
	v.SetDefault("DATA_SUFFIX", "_short")
	v.SetDefault("FIBER_DISCOVERY", "grid")
	v.SetDefault("FIBER_GROUPS", "1,2")
	v.SetDefault("FIBERS_PER_GROUP", 5)
	v.SetDefault("TIME_DOWNSAMPLE", 1)
	v.SetDefault("FREQ_DOWNSAMPLE", 1)
	v.SetDefault("COLOR_SCALE", "viridis")
	v.SetDefault("PEAK_SIGMA", 2.0)
	v.SetDefault("TOLERANCE_HZ", 1.0)
	v.SetDefault("METRICS_ENABLED", true)

	// ENVIRONMENT selects the .env file, so it is read before the file
	_ = v.BindEnv("ENVIRONMENT")
	env := v.GetString("ENVIRONMENT")
	if env == "" {
		env = "dev"
	}

	v.SetConfigName(".env." + env)
	v.SetConfigType("env")
	v.AddConfigPath(".")

	// Ignore error - file may not exist
	_ = v.ReadInConfig()

	// Environment variables override .env file values
	v.AutomaticEnv()
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	groups, err := parseInts(v.GetString("FIBER_GROUPS"))
	if err != nil {
		return nil, fmt.Errorf("invalid FIBER_GROUPS: %w", err)
	}

	var config Config
	config.Database.URL = v.GetString("DATABASE_URL")
	config.Server.Port = v.GetString("PORT")
	config.Server.Env = v.GetString("ENVIRONMENT")
	config.Server.AllowedOrigins = splitList(v.GetString("ALLOWED_ORIGINS"))
	config.AWS.Region = v.GetString("AWS_REGION")
	config.AWS.AccessKeyID = v.GetString("AWS_ACCESS_KEY_ID")
	config.AWS.SecretAccessKey = v.GetString("AWS_SECRET_ACCESS_KEY")
	config.AWS.S3Bucket = v.GetString("S3_BUCKET")
	config.AWS.S3Prefix = v.GetString("S3_PREFIX")
	config.AWS.S3Endpoint = v.GetString("S3_ENDPOINT")
	config.Data.Source = strings.ToLower(v.GetString("DATA_SOURCE"))
	config.Data.Dir = v.GetString("DATA_DIR")
	config.Data.Suffix = v.GetString("DATA_SUFFIX")
	config.Data.Discovery = strings.ToLower(v.GetString("FIBER_DISCOVERY"))
	config.Data.Groups = groups
	config.Data.FibersPerGroup = v.GetInt("FIBERS_PER_GROUP")
	config.Data.TimeDownsample = v.GetInt("TIME_DOWNSAMPLE")
	config.Data.FreqDownsample = v.GetInt("FREQ_DOWNSAMPLE")
	config.Display.ColorScale = v.GetString("COLOR_SCALE")
	config.Display.PeakSigma = v.GetFloat64("PEAK_SIGMA")
	config.Display.ToleranceHz = v.GetFloat64("TOLERANCE_HZ")
	config.Metrics.Enabled = v.GetBool("METRICS_ENABLED")

	if err := config.Validate(); err != nil {
		return nil, err
	}

	log.Info().
		Str("environment", config.Server.Env).
		Str("dataSource", config.Data.Source).
		Str("discovery", config.Data.Discovery).
		Strs("allowedOrigins", config.Server.AllowedOrigins).
		Bool("database", config.Database.URL != "").
		Msg("Configuration loaded")

	return &config, nil
}

// Validate checks values that have no usable fallback
func (c *Config) Validate() error {
	switch c.Data.Source {
	case "local":
		if c.Data.Dir == "" {
			return fmt.Errorf("DATA_DIR is required for the local data source")
		}
	case "s3":
		if c.AWS.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for the s3 data source")
		}
	default:
		return fmt.Errorf("unknown DATA_SOURCE %q", c.Data.Source)
	}
	switch c.Data.Discovery {
	case "grid":
		if c.Data.FibersPerGroup <= 0 {
			return fmt.Errorf("FIBERS_PER_GROUP must be positive")
		}
	case "listing":
	default:
		return fmt.Errorf("unknown FIBER_DISCOVERY %q", c.Data.Discovery)
	}
	if !(c.Display.ToleranceHz > 0) || math.IsInf(c.Display.ToleranceHz, 0) {
		return fmt.Errorf("TOLERANCE_HZ must be positive")
	}
	if !(c.Display.PeakSigma >= 0) || math.IsInf(c.Display.PeakSigma, 0) {
		return fmt.Errorf("PEAK_SIGMA must be a finite non-negative number")
	}
	return nil
}

// IsDev reports whether the service runs in the development environment
func (c *Config) IsDev() bool {
	return c.Server.Env == "dev" || c.Server.Env == "development"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseInts(s string) ([]int, error) {
	var out []int
	for _, part := range splitList(s) {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
