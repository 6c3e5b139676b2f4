// Package config loads the application configuration from a TOML file
// with environment-variable overrides for secrets.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Logging   LoggingConfig   `toml:"logging"`
	Airports  AirportsConfig  `toml:"airports"`
	Resolver  ResolverConfig  `toml:"resolver"`
	Geocoding GeocodingConfig `toml:"geocoding"`
	GeoNames  GeoNamesConfig  `toml:"geonames"`
	LLM       LLMConfig       `toml:"llm"`
	Flights   FlightsConfig   `toml:"flights"`
	Storage   StorageConfig   `toml:"storage"`
}

// ServerConfig represents the HTTP server configuration
type ServerConfig struct {
	Host                string   `toml:"host"`
	Port                int      `toml:"port"`
	CORSAllowedOrigins  []string `toml:"cors_allowed_origins"`
	ReadTimeoutSeconds  int      `toml:"read_timeout_seconds"`
	WriteTimeoutSeconds int      `toml:"write_timeout_seconds"`
}

// LoggingConfig represents the logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// AirportsConfig represents the static airport dataset configuration
type AirportsConfig struct {
	DatasetPath string `toml:"dataset_path"`
}

// ResolverConfig represents the resolution pipeline configuration
type ResolverConfig struct {
	AcceptanceThreshold float64 `toml:"acceptance_threshold"`
	FuzzyThreshold      float64 `toml:"fuzzy_threshold"`
	SearchRadiusKM      float64 `toml:"search_radius_km"`
	TimeoutSeconds      int     `toml:"timeout_seconds"`
}

// GeocodingConfig represents the geocoding service configuration
type GeocodingConfig struct {
	BaseURL        string `toml:"base_url"`
	UserAgent      string `toml:"user_agent"`
	MaxResults     int    `toml:"max_results"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// GeoNamesConfig represents the geo-directory service configuration
type GeoNamesConfig struct {
	BaseURL        string `toml:"base_url"`
	Username       string `toml:"username"`
	MaxRows        int    `toml:"max_rows"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// LLMConfig represents the query-understanding model configuration
type LLMConfig struct {
	BaseURL       string `toml:"base_url"`
	APIKey        string `toml:"api_key"`
	Model         string `toml:"model"`
	FormatAnswers bool   `toml:"format_answers"`
}

// FlightsConfig represents the flight offers provider configuration
type FlightsConfig struct {
	BaseURL        string `toml:"base_url"`
	APIHost        string `toml:"api_host"`
	APIKey         string `toml:"api_key"`
	Currency       string `toml:"currency"`
	MaxOffers      int    `toml:"max_offers"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// StorageConfig represents the resolution cache configuration
type StorageConfig struct {
	Enabled      bool   `toml:"enabled"`
	DBPath       string `toml:"db_path"`
	CacheTTLDays int    `toml:"cache_ttl_days"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:                "0.0.0.0",
			Port:                8080,
			CORSAllowedOrigins:  []string{"*"},
			ReadTimeoutSeconds:  30,
			WriteTimeoutSeconds: 120,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Airports: AirportsConfig{
			DatasetPath: "data/airports.csv",
		},
		Resolver: ResolverConfig{
			AcceptanceThreshold: 0.75,
			FuzzyThreshold:      0.8,
			SearchRadiusKM:      100,
			TimeoutSeconds:      5,
		},
		Geocoding: GeocodingConfig{
			BaseURL:        "https://nominatim.openstreetmap.org/search",
			UserAgent:      "flightfinder/1.0",
			MaxResults:     1,
			TimeoutSeconds: 10,
		},
		GeoNames: GeoNamesConfig{
			BaseURL:        "https://secure.geonames.org/searchJSON",
			MaxRows:        10,
			TimeoutSeconds: 10,
		},
		LLM: LLMConfig{
			BaseURL:       "https://api.groq.com/openai/v1",
			Model:         "llama3-70b-8192",
			FormatAnswers: true,
		},
		Flights: FlightsConfig{
			BaseURL:        "https://flyscraper.p.rapidapi.com",
			APIHost:        "flyscraper.p.rapidapi.com",
			Currency:       "USD",
			MaxOffers:      10,
			TimeoutSeconds: 60,
		},
		Storage: StorageConfig{
			Enabled:      true,
			DBPath:       "flightfinder.db",
			CacheTTLDays: 30,
		},
	}
}

// Load reads the configuration from the given TOML file, falling back
// to defaults for anything the file omits, then applies environment
// overrides for secrets. An empty path loads defaults only.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides pulls secrets from the environment so they never
// have to live in the config file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("GEONAMES_USERNAME"); v != "" {
		c.GeoNames.Username = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("GROQ_API_KEY"); v != "" && c.LLM.APIKey == "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("RAPIDAPI_KEY"); v != "" {
		c.Flights.APIKey = v
	}
}

func (c *Config) validate() error {
	if c.Airports.DatasetPath == "" {
		return fmt.Errorf("airports.dataset_path must be set")
	}
	if c.Resolver.AcceptanceThreshold < 0 || c.Resolver.AcceptanceThreshold > 1 {
		return fmt.Errorf("resolver.acceptance_threshold must be in [0,1], got %v", c.Resolver.AcceptanceThreshold)
	}
	if c.Resolver.FuzzyThreshold <= 0 || c.Resolver.FuzzyThreshold > 1 {
		return fmt.Errorf("resolver.fuzzy_threshold must be in (0,1], got %v", c.Resolver.FuzzyThreshold)
	}
	if c.Resolver.SearchRadiusKM <= 0 {
		return fmt.Errorf("resolver.search_radius_km must be positive, got %v", c.Resolver.SearchRadiusKM)
	}
	return nil
}
