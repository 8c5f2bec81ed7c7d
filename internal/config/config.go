// Package config loads application configuration from file and environment
// and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/big-sky-labs/parcel-cli/internal/model"
)

// Config holds the full application configuration.
type Config struct {
	Registry  RegistryConfig  `yaml:"registry" mapstructure:"registry"`
	Cadastral CadastralConfig `yaml:"cadastral" mapstructure:"cadastral"`
	Known     KnownConfig     `yaml:"known" mapstructure:"known"`
	Geocoder  GeocoderConfig  `yaml:"geocoder" mapstructure:"geocoder"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// RegistryConfig configures the parcel registry strategy.
type RegistryConfig struct {
	URL         string  `yaml:"url" mapstructure:"url"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	OffsetLat   float64 `yaml:"offset_lat" mapstructure:"offset_lat"`
	OffsetLng   float64 `yaml:"offset_lng" mapstructure:"offset_lng"`
}

// CadastralConfig configures the cadastral page scrape strategy.
type CadastralConfig struct {
	URL         string `yaml:"url" mapstructure:"url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// KnownConfig points to optional yaml overlay files for verified data.
type KnownConfig struct {
	PropertiesFile  string `yaml:"properties_file" mapstructure:"properties_file"`
	CoordinatesFile string `yaml:"coordinates_file" mapstructure:"coordinates_file"`
}

// GeocoderConfig configures the address geocoding client.
type GeocoderConfig struct {
	NominatimURL     string  `yaml:"nominatim_url" mapstructure:"nominatim_url"`
	CensusURL        string  `yaml:"census_url" mapstructure:"census_url"`
	TimeoutSecs      int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimitPerSec  float64 `yaml:"rate_limit_per_sec" mapstructure:"rate_limit_per_sec"`
	HighConfidence   float64 `yaml:"high_confidence" mapstructure:"high_confidence"`
	AgreementEpsilon float64 `yaml:"agreement_epsilon" mapstructure:"agreement_epsilon"`
}

// CacheConfig configures the in-memory result cache.
type CacheConfig struct {
	MaxEntries int `yaml:"max_entries" mapstructure:"max_entries"`
	TTLSecs    int `yaml:"ttl_secs" mapstructure:"ttl_secs"`
}

// BatchConfig configures batch lookup processing.
type BatchConfig struct {
	Concurrency       int `yaml:"concurrency" mapstructure:"concurrency"`
	ThrottleThreshold int `yaml:"throttle_threshold" mapstructure:"throttle_threshold"`
	ThrottleDelayMs   int `yaml:"throttle_delay_ms" mapstructure:"throttle_delay_ms"`
}

// StoreConfig configures the lookup history database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Offset returns the registry centroid offset as a coordinate delta.
func (c RegistryConfig) Offset() model.Coordinate {
	return model.Coordinate{Lat: c.OffsetLat, Lng: c.OffsetLng}
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PARCEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("registry.timeout_secs", 30)
	v.SetDefault("registry.offset_lat", 0.0)
	v.SetDefault("registry.offset_lng", 0.0)
	v.SetDefault("cadastral.timeout_secs", 30)
	v.SetDefault("geocoder.timeout_secs", 10)
	v.SetDefault("geocoder.rate_limit_per_sec", 2.0)
	v.SetDefault("geocoder.high_confidence", 0.75)
	v.SetDefault("geocoder.agreement_epsilon", 0.001)
	v.SetDefault("cache.max_entries", 1000)
	v.SetDefault("cache.ttl_secs", 3600)
	v.SetDefault("batch.concurrency", 4)
	v.SetDefault("batch.throttle_threshold", 10)
	v.SetDefault("batch.throttle_delay_ms", 500)
	v.SetDefault("store.path", "parcel-history.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
